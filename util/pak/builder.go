// Copyright (c) 2020 lumin3d
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package pak

import (
	"bytes"
	"io"
	"sync"

	"github.com/pierrec/lz4"
)

// NewBuilder creates a new Builder. Do not fill the Index in the
// header, it is computed at write time.
func NewBuilder(header Header) *Builder {
	header.Index = nil
	return &Builder{header: header}
}

type pendingEntry struct {
	name       string
	size       int64
	compressed []byte
}

// Builder assembles an archive in memory. Archives are versioned and
// cannot be appended to, the Builder is the only way to create one.
// Add compresses immediately, WriteTo lays out the header and the
// entry blobs in one pass.
type Builder struct {
	header Header

	mutex   sync.Mutex
	entries []pendingEntry
}

// Add compresses data and queues it under the given name. Blocks
// until lz4 finishes. Safe to call concurrently from different
// goroutines.
func (b *Builder) Add(name string, data []byte) error {
	var compressed bytes.Buffer
	writer := lz4.NewWriter(&compressed)
	if _, err := io.Copy(writer, bytes.NewReader(data)); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.entries = append(b.entries, pendingEntry{
		name:       name,
		size:       int64(len(data)),
		compressed: compressed.Bytes(),
	})
	return nil
}

// Len returns the number of entries queued so far.
func (b *Builder) Len() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return len(b.entries)
}

// WriteTo bundles everything added so far into a finished archive.
// The Builder is drained on success and can be reused.
func (b *Builder) WriteTo(w io.Writer) (int64, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	header := b.header
	var offset int64
	for _, e := range b.entries {
		header.Index = append(header.Index, IndexEntry{
			Name:           e.name,
			Offset:         offset,
			Size:           e.size,
			CompressedSize: int64(len(e.compressed)),
		})
		offset += int64(len(e.compressed))
	}

	rawHeader, err := gobEncode(header)
	if err != nil {
		return 0, err
	}

	var written int64
	for _, part := range [][]byte{
		magic[:],
		int64ToBinary(int64(len(rawHeader))),
		rawHeader,
	} {
		n, err := w.Write(part)
		written += int64(n)
		if err != nil {
			return written, err
		}
	}

	for _, e := range b.entries {
		n, err := w.Write(e.compressed)
		written += int64(n)
		if err != nil {
			return written, err
		}
	}

	b.entries = b.entries[:0]
	return written, nil
}
