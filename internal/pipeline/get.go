// Copyright 2019 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package pipeline

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"rescribe.xyz/docscan"
)

// DownloadScans downloads each of the named scans into dir,
// returning the paths they were saved to.
func DownloadScans(dir string, names []string, conn Downloader) ([]string, error) {
	var paths []string
	for _, name := range names {
		fn := filepath.Join(dir, path.Base(name))
		conn.Log("Downloading", name)
		err := conn.Download(conn.ScanStorageId(), name, fn)
		if err != nil {
			return paths, fmt.Errorf("Failed to download scan %s: %v", name, err)
		}
		paths = append(paths, fn)
	}
	return paths, nil
}

// DownloadScanPdf downloads the named scans and puts them together
// into a PDF in dir, named after the first scan. The downloaded
// images are removed afterwards. The path of the PDF is returned.
func DownloadScanPdf(dir string, names []string, conn Downloader) (string, error) {
	if len(names) == 0 {
		return "", fmt.Errorf("No scans to download")
	}
	tmp, err := os.MkdirTemp("", "docscan-pdf")
	if err != nil {
		return "", fmt.Errorf("Failed to create temporary directory: %v", err)
	}
	defer os.RemoveAll(tmp)

	imgs, err := DownloadScans(tmp, names, conn)
	if err != nil {
		return "", err
	}

	base := path.Base(names[0])
	fn := filepath.Join(dir, strings.TrimSuffix(base, path.Ext(base))+".pdf")
	conn.Log("Creating PDF", fn)
	err = docscan.ScansToPdf(fn, imgs...)
	if err != nil {
		return "", err
	}
	return fn, nil
}

// DeleteScans removes the named scans from storage
func DeleteScans(names []string, conn Deleter) error {
	if len(names) == 0 {
		return nil
	}
	err := conn.DeleteObjects(conn.ScanStorageId(), names)
	if err != nil {
		return fmt.Errorf("Failed to delete scans: %v", err)
	}
	return nil
}
