// Copyright (c) 2020 lumin3d
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package pak_test

import (
	"bytes"
	"io/ioutil"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"golang.org/x/exp/mmap"

	"github.com/lumin3d/lumin/util/pak"
)

var (
	testString1 = "idunvovkjnreovmegihjbrqlkmfrjnb"
	testString2 = "idunvovkjnreovmsdvwrvnervnreegihjbrqlkmfrjnb"
)

func buildTestArchive(t *testing.T) []byte {
	t.Helper()
	builder := pak.NewBuilder(pak.Header{
		Author:      "lumin3d",
		DateCreated: time.Now().Unix(),
		Version:     1,
	})
	if err := builder.Add("test/test1.txt", []byte(testString1)); err != nil {
		t.Fatal(err)
	}
	if err := builder.Add("test/test2.txt", []byte(testString2)); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	written, err := builder.WriteTo(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if written != int64(buf.Len()) {
		t.Errorf("reported %d written bytes, buffer has %d", written, buf.Len())
	}
	return buf.Bytes()
}

func TestCreateAndRead(t *testing.T) {
	ar, err := pak.Open(bytes.NewReader(buildTestArchive(t)))
	if err != nil {
		t.Fatal(err)
	}

	f, err := ar.Open("test/test1.txt")
	if err != nil {
		t.Fatal(err)
	}
	if f.Size() != int64(len(testString1)) {
		t.Errorf("entry size %d, want %d", f.Size(), len(testString1))
	}

	result, err := f.Extract()
	if err != nil {
		t.Fatal(err)
	}
	if string(result) != testString1 {
		t.Error("test string does not match up")
	}
}

func TestCreateAndReadAll(t *testing.T) {
	ar, err := pak.Open(bytes.NewReader(buildTestArchive(t)))
	if err != nil {
		t.Fatal(err)
	}

	for name, want := range map[string]string{
		"test/test1.txt": testString1,
		"test/test2.txt": testString2,
	} {
		got, err := ar.ReadAll(name)
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != want {
			t.Errorf("%s: contents do not match up", name)
		}
	}
}

func TestOpenMmap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "opentest.pak")
	if err := ioutil.WriteFile(path, buildTestArchive(t), 0644); err != nil {
		t.Fatal(err)
	}

	r, err := mmap.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	ar, err := pak.Open(r)
	if err != nil {
		t.Fatal(err)
	}
	got, err := ar.ReadAll("test/test2.txt")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != testString2 {
		t.Error("mmap backed read does not match up")
	}
}

func TestOpenRejectsGarbage(t *testing.T) {
	if _, err := pak.Open(bytes.NewReader([]byte("KAR\x00not even close"))); err != pak.ErrFileFormat {
		t.Errorf("expected ErrFileFormat, got %v", err)
	}
}

func TestMissingEntry(t *testing.T) {
	ar, err := pak.Open(bytes.NewReader(buildTestArchive(t)))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ar.Open("no/such/entry"); err != pak.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestConcurrentAdd(t *testing.T) {
	builder := pak.NewBuilder(pak.Header{Version: 1})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			payload := bytes.Repeat([]byte{byte(n)}, 128)
			if err := builder.Add(string(rune('a'+n)), payload); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()

	if builder.Len() != 16 {
		t.Errorf("expected 16 entries, got %d", builder.Len())
	}
}
