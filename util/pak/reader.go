// Copyright (c) 2020 lumin3d
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package pak

import (
	"bytes"
	"io"
	"io/ioutil"

	"github.com/pierrec/lz4"
)

// Open reads the archive index from r. The reader is retained for
// entry access, with an mmap backed ReaderAt entries decompress
// straight out of the page cache.
func Open(r io.ReaderAt) (*Archive, error) {
	rawMagic := make([]byte, MagicLength)
	if num, err := r.ReadAt(rawMagic, 0); err != nil {
		return nil, err
	} else if num < MagicLength || !bytes.Equal(rawMagic, magic[:]) {
		return nil, ErrFileFormat
	}

	headerSizeBytes := make([]byte, HeaderSizeNumberLength)
	if num, err := r.ReadAt(headerSizeBytes, MagicLength); err != nil {
		return nil, err
	} else if num < HeaderSizeNumberLength {
		return nil, ErrFileFormat
	}

	headerSize, err := binaryToInt64(headerSizeBytes)
	if err != nil || headerSize <= 0 {
		return nil, ErrFileFormat
	}

	headerBytes := make([]byte, headerSize)
	if num, err := r.ReadAt(headerBytes, MagicLength+HeaderSizeNumberLength); err != nil {
		return nil, err
	} else if int64(num) < headerSize {
		return nil, ErrFileFormat
	}

	var header Header
	if err := gobDecode(&header, headerBytes); err != nil {
		return nil, ErrFileFormat
	}

	ar := &Archive{
		reader:   r,
		header:   header,
		dataBase: MagicLength + HeaderSizeNumberLength + headerSize,
		index:    make(map[string]IndexEntry, len(header.Index)),
	}
	for _, entry := range header.Index {
		ar.index[entry.Name] = entry
	}
	return ar, nil
}

// Archive provides concurrent access to one pak file. Every entry
// gets its own Reader, nothing is shared between reads.
type Archive struct {
	reader   io.ReaderAt
	header   Header
	dataBase int64
	index    map[string]IndexEntry
}

// Header returns a copy of the archive header.
func (a *Archive) Header() Header {
	return a.header
}

// Index returns the index entries in archive order.
func (a *Archive) Index() []IndexEntry {
	return a.header.Index
}

// Open returns a Reader streaming the decompressed contents of the
// named entry.
func (a *Archive) Open(name string) (*Reader, error) {
	entry, ok := a.index[name]
	if !ok {
		return nil, ErrNotFound
	}
	section := io.NewSectionReader(a.reader, a.dataBase+entry.Offset, entry.CompressedSize)
	return &Reader{
		entry:      entry,
		decompress: lz4.NewReader(section),
	}, nil
}

// ReadAll returns the entire decompressed contents of the named entry.
func (a *Archive) ReadAll(name string) ([]byte, error) {
	reader, err := a.Open(name)
	if err != nil {
		return nil, err
	}
	data := make([]byte, entrySizeHint(reader.entry))
	if _, err := io.ReadFull(reader, data); err != nil {
		return nil, err
	}
	return data, nil
}

func entrySizeHint(entry IndexEntry) int64 {
	if entry.Size < 0 {
		return 0
	}
	return entry.Size
}

// Reader streams one decompressed entry. It abstracts away where in
// the archive the entry lives.
type Reader struct {
	entry      IndexEntry
	decompress io.Reader
}

// Size returns the decompressed entry size.
func (r *Reader) Size() int64 {
	return r.entry.Size
}

// Name returns the entry name.
func (r *Reader) Name() string {
	return r.entry.Name
}

// Read reads already decompressed data.
func (r *Reader) Read(p []byte) (int, error) {
	return r.decompress.Read(p)
}

// Extract is a convenience drain of the remaining data.
func (r *Reader) Extract() ([]byte, error) {
	return ioutil.ReadAll(r)
}
