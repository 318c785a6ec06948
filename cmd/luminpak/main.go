// Copyright (c) 2020 lumin3d
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Command luminpak creates and extracts pak resource archives.
package main

import (
	"errors"
	"flag"
	"io/ioutil"
	"os"
	"os/user"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/lumin3d/lumin/util/pak"
)

func init() {
	if u, err := user.Current(); err != nil {
		currentUserName = "unknown"
	} else {
		currentUserName = u.Name
	}
}

var (
	currentUserName string
	author          = flag.String("author", currentUserName, "Set the author of the archive when compressing")
	version         = flag.Int64("version", 1, "Archive version number to create it with")
	extract         = flag.String("e", "", "Extract the given archive into the current directory")
	compress        = flag.String("c", "", "Compress the given file/folder")
	dstFile         = flag.String("f", "out.pak", "Destination file")
	list            = flag.Bool("l", false, "List the entries of the archive given with -e")
)

func main() {
	flag.Parse()

	switch {
	case *extract != "" && *compress != "":
		log.Fatal("only one operation at a time")
	case *compress != "":
		if err := compressFiles(); err != nil {
			log.Fatal(err)
		}
	case *extract != "":
		if err := extractFiles(); err != nil {
			log.Fatal(err)
		}
	default:
		flag.PrintDefaults()
	}
}

func compressFiles() error {
	if _, err := os.Stat(*dstFile); err == nil {
		return errors.New("destination file exists, will not overwrite")
	}

	builder := pak.NewBuilder(pak.Header{
		Author:      *author,
		DateCreated: time.Now().Unix(),
		Version:     *version,
	})

	err := filepath.Walk(*compress, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		data, err := ioutil.ReadFile(path)
		if err != nil {
			return err
		}
		name, err := filepath.Rel(*compress, path)
		if err != nil {
			name = path
		}
		return builder.Add(filepath.ToSlash(name), data)
	})
	if err != nil {
		return err
	}

	dst, err := os.Create(*dstFile)
	if err != nil {
		return err
	}
	defer dst.Close()

	written, err := builder.WriteTo(dst)
	if err != nil {
		return err
	}
	log.WithField("bytes", written).Info("archive written: ", *dstFile)
	return nil
}

func extractFiles() error {
	f, err := os.Open(*extract)
	if err != nil {
		return err
	}
	defer f.Close()

	archive, err := pak.Open(f)
	if err != nil {
		return err
	}

	for _, entry := range archive.Index() {
		if *list {
			log.WithFields(log.Fields{
				"size":       entry.Size,
				"compressed": entry.CompressedSize,
			}).Info(entry.Name)
			continue
		}

		data, err := archive.ReadAll(entry.Name)
		if err != nil {
			return err
		}
		target := filepath.FromSlash(entry.Name)
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}
		if err := ioutil.WriteFile(target, data, 0644); err != nil {
			return err
		}
	}
	return nil
}
