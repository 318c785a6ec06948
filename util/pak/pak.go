// Copyright (c) 2020 lumin3d
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package pak implements an lz4 backed archive for engine resources,
// shader blobs and mesh data. The archive itself is not compressed,
// every entry is compressed individually and the index sits in the
// header, so a memory mapped archive can stream any entry without
// scanning. Space efficiency is traded for time from disk to usable
// bytes. Archives can be read from concurrently.
package pak

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
)

// package errors
var (
	ErrFileFormat = errors.New("corrupted or not a pak archive")
	ErrNotFound   = errors.New("no entry with that name in the archive")
)

// Layout of the fixed part of the file
const (
	MagicLength            = 4
	HeaderSizeNumberLength = binary.MaxVarintLen64
)

var magic = [MagicLength]byte{'P', 'A', 'K', '\x00'}

// IndexEntry is info for one entry in the archive index. Offset is
// relative to the end of the header.
type IndexEntry struct {
	Name           string
	Offset         int64
	Size           int64
	CompressedSize int64
}

// Header is the archive header.
type Header struct {
	Author      string
	DateCreated int64
	Version     int64
	Index       []IndexEntry
}

func int64ToBinary(num int64) []byte {
	numBytes := make([]byte, binary.MaxVarintLen64)
	binary.PutVarint(numBytes, num)
	return numBytes
}

func binaryToInt64(bts []byte) (int64, error) {
	num, err := binary.ReadVarint(bytes.NewReader(bts))
	if err != nil {
		return 0, err
	}
	return num, nil
}

func gobEncode(data interface{}) ([]byte, error) {
	var encoded bytes.Buffer
	if err := gob.NewEncoder(&encoded).Encode(data); err != nil {
		return nil, err
	}
	return encoded.Bytes(), nil
}

func gobDecode(obj interface{}, bts []byte) error {
	return gob.NewDecoder(bytes.NewReader(bts)).Decode(obj)
}
