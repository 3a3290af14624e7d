// Copyright 2024 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package docscan

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"time"
)

// Naming and encoding of saved scans
const (
	ScanFolder     = "ScanImage"
	ScanPrefix     = "SCAN_"
	ScanExt        = ".jpg"
	ScanTimeFormat = "20060102_150405"
	ScanQuality    = 92
)

// ObjMeta describes a stored object
type ObjMeta struct {
	Name string
	Date time.Time
}

// Lister is anything which can list the objects in a storage bucket
type Lister interface {
	ListObjectsWithMeta(bucket string, prefix string) ([]ObjMeta, error)
	ScanStorageId() string
}

// ScanName returns the name a scan saved at t is stored under. Two
// scans saved within the same second get the same name.
func ScanName(t time.Time) string {
	return ScanPrefix + t.Format(ScanTimeFormat) + ScanExt
}

// ScanTime parses the time a scan was saved from its name. Any
// leading directories are ignored.
func ScanTime(name string) (time.Time, error) {
	base := path.Base(name)
	if !strings.HasPrefix(base, ScanPrefix) || !strings.HasSuffix(base, ScanExt) {
		return time.Time{}, fmt.Errorf("Error parsing scan name %s: not a scan", name)
	}
	s := strings.TrimSuffix(strings.TrimPrefix(base, ScanPrefix), ScanExt)
	t, err := time.ParseInLocation(ScanTimeFormat, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("Error parsing scan name %s: %w", name, err)
	}
	return t, nil
}

// IsScan reports whether name looks like a saved scan image
func IsScan(name string) bool {
	_, err := ScanTime(name)
	return err == nil
}

// ListScans returns the scans held by conn, newest first. Anything
// stored which isn't a scan image is skipped.
func ListScans(conn Lister) ([]ObjMeta, error) {
	objs, err := conn.ListObjectsWithMeta(conn.ScanStorageId(), ScanPrefix)
	if err != nil {
		return nil, fmt.Errorf("Error listing scans: %w", err)
	}

	var scans []ObjMeta
	for _, o := range objs {
		if IsScan(o.Name) {
			scans = append(scans, o)
		}
	}
	sort.SliceStable(scans, func(i, j int) bool {
		if scans[i].Date.Equal(scans[j].Date) {
			return scans[i].Name > scans[j].Name
		}
		return scans[i].Date.After(scans[j].Date)
	})
	return scans, nil
}
