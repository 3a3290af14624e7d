// Copyright 2020 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package docscan

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// PartSuffix is added to the name of a file while it is being
// written, so an interrupted write never looks like a saved scan.
const PartSuffix = ".part"

// StaleAge is how old a partial file has to be before a listing
// removes it as abandoned.
const StaleAge = 10 * time.Minute

// LocalConn stores scans in a directory on the local machine,
// with each bucket being a subdirectory.
type LocalConn struct {
	// these should be set before running Init(), or left to defaults
	Dir    string
	Logger *log.Logger
}

// DefaultDir returns the directory scans are stored under if none
// is set: the user's Pictures directory.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "docscan")
	}
	return filepath.Join(home, "Pictures")
}

// MinimalInit does the bare minimum initialisation
func (a *LocalConn) MinimalInit() error {
	if a.Dir == "" {
		a.Dir = DefaultDir()
	}
	if a.Logger == nil {
		a.Logger = log.New(os.Stdout, "", 0)
	}
	return nil
}

// Init also creates the scan directory if it doesn't exist
func (a *LocalConn) Init() error {
	err := a.MinimalInit()
	if err != nil {
		return err
	}

	return a.MkScanStorage()
}

// CreateBucket creates the directory for a bucket under Dir.
func (a *LocalConn) CreateBucket(name string) error {
	err := os.MkdirAll(filepath.Join(a.Dir, name), 0755)
	if err != nil {
		return fmt.Errorf("Error creating bucket directory %s: %v", name, err)
	}
	return nil
}

// MkScanStorage creates the scan directory.
func (a *LocalConn) MkScanStorage() error {
	return a.CreateBucket(a.ScanStorageId())
}

func (a *LocalConn) ScanStorageId() string {
	return ScanFolder
}

// prefixwalker collects the files under dirpath whose names start
// with prefix, removing any partial files older than StaleAge.
func prefixwalker(dirpath string, prefix string, now time.Time, list *[]ObjMeta, logger *log.Logger) filepath.WalkFunc {
	return func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		n, err := filepath.Rel(dirpath, path)
		if err != nil {
			return err
		}
		n = filepath.ToSlash(n)
		if strings.HasSuffix(n, PartSuffix) {
			if now.Sub(info.ModTime()) > StaleAge {
				logger.Println("Removing abandoned partial file", path)
				err = os.Remove(path)
				if err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("Error removing partial file %s: %v", path, err)
				}
			}
			return nil
		}
		if !strings.HasPrefix(n, prefix) {
			return nil
		}
		*list = append(*list, ObjMeta{Name: n, Date: info.ModTime()})
		return nil
	}
}

func (a *LocalConn) ListObjects(bucket string, prefix string) ([]string, error) {
	var names []string
	list, err := a.ListObjectsWithMeta(bucket, prefix)
	if err != nil {
		return names, err
	}
	for _, v := range list {
		names = append(names, v.Name)
	}
	return names, nil
}

// ListObjectsWithMeta lists the files in a bucket, clearing out any
// partial files left by uploads which never finished.
func (a *LocalConn) ListObjectsWithMeta(bucket string, prefix string) ([]ObjMeta, error) {
	var list []ObjMeta
	d := filepath.Join(a.Dir, bucket)
	err := filepath.Walk(d, prefixwalker(d, prefix, time.Now(), &list, a.Logger))
	if os.IsNotExist(err) {
		return list, nil
	}
	return list, err
}

// DeleteObjects removes files from a bucket. Files which are already
// gone are not an error.
func (a *LocalConn) DeleteObjects(bucket string, keys []string) error {
	for _, k := range keys {
		err := os.Remove(filepath.Join(a.Dir, bucket, filepath.FromSlash(k)))
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("Error deleting %s: %v", k, err)
		}
	}
	return nil
}

// Download just copies the file from Dir/bucket/key to path
func (a *LocalConn) Download(bucket string, key string, path string) error {
	fin, err := os.Open(filepath.Join(a.Dir, bucket, filepath.FromSlash(key)))
	if err != nil {
		return err
	}
	defer fin.Close()

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(f, fin)
	return err
}

// Upload copies the file from path to Dir/bucket/key. The copy is
// written next to its destination with PartSuffix added and renamed
// into place once complete, and a failed copy leaves the partial
// file behind to be cleaned up by a later listing.
func (a *LocalConn) Upload(bucket string, key string, path string) error {
	dest := filepath.Join(a.Dir, bucket, filepath.FromSlash(key))
	err := os.MkdirAll(filepath.Dir(dest), 0755)
	if err != nil {
		return fmt.Errorf("Error creating directory: %v", err)
	}

	fin, err := os.Open(path)
	if err != nil {
		return err
	}
	defer fin.Close()

	part := dest + PartSuffix
	f, err := os.Create(part)
	if err != nil {
		return err
	}
	_, err = io.Copy(f, fin)
	if err != nil {
		f.Close()
		return fmt.Errorf("Error writing %s: %v", part, err)
	}
	err = f.Close()
	if err != nil {
		return fmt.Errorf("Error closing %s: %v", part, err)
	}

	return os.Rename(part, dest)
}

func (a *LocalConn) GetLogger() *log.Logger {
	return a.Logger
}

// Log records an item in the with the Logger. Arguments are handled
// as with fmt.Println.
func (a *LocalConn) Log(v ...interface{}) {
	a.Logger.Println(v...)
}
