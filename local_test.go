// Copyright 2024 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package docscan

import (
	"bytes"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// StrLog is a simple logger that saves to a string,
// so it can be printed out only when needed.
type StrLog struct {
	log string
}

func (t *StrLog) Write(p []byte) (n int, err error) {
	t.log += string(p)
	return len(p), nil
}

func newLocal(t *testing.T) (*LocalConn, *StrLog) {
	var slog StrLog
	conn := &LocalConn{Dir: t.TempDir(), Logger: log.New(&slog, "", 0)}
	err := conn.Init()
	if err != nil {
		t.Fatalf("Could not initialise local connection: %v", err)
	}
	return conn, &slog
}

func writeTemp(t *testing.T, contents []byte) string {
	fn := filepath.Join(t.TempDir(), "upload")
	err := ioutil.WriteFile(fn, contents, 0644)
	if err != nil {
		t.Fatalf("Could not write temporary file: %v", err)
	}
	return fn
}

func TestLocalUploadDownload(t *testing.T) {
	conn, slog := newLocal(t)

	cases := []struct {
		key      string
		contents []byte
	}{
		{"empty", []byte{}},
		{"justastring", []byte("I am just a basic string")},
		{"sub/nested", []byte("nested file")},
	}

	for _, c := range cases {
		t.Run(c.key, func(t *testing.T) {
			err := conn.Upload(conn.ScanStorageId(), c.key, writeTemp(t, c.contents))
			if err != nil {
				t.Fatalf("Error uploading %s: %v\nLog: %s", c.key, err, slog.log)
			}
			_, err = os.Stat(filepath.Join(conn.Dir, ScanFolder, filepath.FromSlash(c.key)+PartSuffix))
			if !os.IsNotExist(err) {
				t.Fatalf("Partial file left behind after upload of %s", c.key)
			}

			dl := filepath.Join(t.TempDir(), "download")
			err = conn.Download(conn.ScanStorageId(), c.key, dl)
			if err != nil {
				t.Fatalf("Error downloading %s: %v\nLog: %s", c.key, err, slog.log)
			}
			b, err := ioutil.ReadFile(dl)
			if err != nil {
				t.Fatalf("Error reading downloaded file: %v", err)
			}
			if !bytes.Equal(b, c.contents) {
				t.Fatalf("Downloaded file differs, expected '%s', got '%s'", c.contents, b)
			}
		})
	}
}

func TestLocalDownloadMissing(t *testing.T) {
	conn, _ := newLocal(t)
	err := conn.Download(conn.ScanStorageId(), "notpresent", filepath.Join(t.TempDir(), "dl"))
	if err == nil {
		t.Fatalf("Expected an error downloading a missing file, got none")
	}
}

func TestLocalDelete(t *testing.T) {
	conn, _ := newLocal(t)
	name := ScanName(time.Date(2024, 3, 1, 10, 15, 0, 0, time.Local))
	err := conn.Upload(conn.ScanStorageId(), name, writeTemp(t, []byte("scan")))
	if err != nil {
		t.Fatalf("Error uploading: %v", err)
	}

	err = conn.DeleteObjects(conn.ScanStorageId(), []string{name, "notpresent"})
	if err != nil {
		t.Fatalf("Error deleting: %v", err)
	}
	names, err := conn.ListObjects(conn.ScanStorageId(), "")
	if err != nil {
		t.Fatalf("Error listing: %v", err)
	}
	if len(names) != 0 {
		t.Fatalf("Expected no objects after delete, got %v", names)
	}
}

func TestLocalPartCleanup(t *testing.T) {
	conn, slog := newLocal(t)
	dir := filepath.Join(conn.Dir, ScanFolder)

	stale := filepath.Join(dir, "SCAN_20240301_101500.jpg"+PartSuffix)
	fresh := filepath.Join(dir, "SCAN_20240301_101600.jpg"+PartSuffix)
	for _, p := range []string{stale, fresh} {
		err := ioutil.WriteFile(p, []byte("partial"), 0644)
		if err != nil {
			t.Fatalf("Error writing partial file: %v", err)
		}
	}
	old := time.Now().Add(-2 * StaleAge)
	err := os.Chtimes(stale, old, old)
	if err != nil {
		t.Fatalf("Error setting file time: %v", err)
	}

	names, err := conn.ListObjects(conn.ScanStorageId(), "")
	if err != nil {
		t.Fatalf("Error listing: %v\nLog: %s", err, slog.log)
	}
	if len(names) != 0 {
		t.Fatalf("Expected partial files not to be listed, got %v", names)
	}
	if _, err = os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("Expected stale partial file to be removed")
	}
	if _, err = os.Stat(fresh); err != nil {
		t.Fatalf("Expected recent partial file to be kept: %v", err)
	}
}

func TestLocalListMissingDir(t *testing.T) {
	conn := &LocalConn{Dir: filepath.Join(t.TempDir(), "nothere"), Logger: log.New(ioutil.Discard, "", 0)}
	err := conn.MinimalInit()
	if err != nil {
		t.Fatalf("Error initialising: %v", err)
	}
	names, err := conn.ListObjects(conn.ScanStorageId(), "")
	if err != nil {
		t.Fatalf("Expected no error listing a missing directory, got %v", err)
	}
	if len(names) != 0 {
		t.Fatalf("Expected nothing listed, got %v", names)
	}
}

func TestLocalMkScanStorage(t *testing.T) {
	conn := &LocalConn{Dir: filepath.Join(t.TempDir(), "new", "pictures"), Logger: log.New(ioutil.Discard, "", 0)}
	err := conn.MinimalInit()
	if err != nil {
		t.Fatalf("Error in minimal init: %v", err)
	}
	for i := 0; i < 2; i++ {
		err = conn.MkScanStorage()
		if err != nil {
			t.Fatalf("Error creating scan storage (run %d): %v", i, err)
		}
	}
	info, err := os.Stat(filepath.Join(conn.Dir, conn.ScanStorageId()))
	if err != nil {
		t.Fatalf("Scan directory was not created: %v", err)
	}
	if !info.IsDir() {
		t.Fatalf("Expected scan storage to be a directory")
	}

	err = conn.CreateBucket("other")
	if err != nil {
		t.Fatalf("Error creating bucket: %v", err)
	}
	if _, err = os.Stat(filepath.Join(conn.Dir, "other")); err != nil {
		t.Fatalf("Bucket directory was not created: %v", err)
	}
}
