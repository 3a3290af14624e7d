// Copyright 2021 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package pipeline

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// imageExts are the file suffixes treated as source images
var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

// IsImageFile reports whether path has a source image suffix
func IsImageFile(path string) bool {
	return imageExts[strings.ToLower(filepath.Ext(path))]
}

type fileWalk chan string

// Walk sends the path of all files to the channel, with the exception of
// any file which starts with "."
func (f fileWalk) Walk(path string, info os.FileInfo, err error) error {
	if err != nil {
		return err
	}
	// skip files starting with . to prevent automatically generated
	// files like .DS_Store getting in the way
	if strings.HasPrefix(filepath.Base(path), ".") {
		return nil
	}
	if !info.IsDir() {
		f <- path
	}
	return nil
}

// CheckImages checks that all files with an image suffix in a
// directory are images that can be decoded (skipping dotfiles), and
// returns their paths in order.
func CheckImages(ctx context.Context, dir string) ([]string, error) {
	checker := make(fileWalk)
	go func() {
		_ = filepath.Walk(dir, checker.Walk)
		close(checker)
	}()

	var paths []string
	for path := range checker {
		select {
		case <-ctx.Done():
			for range checker {
			} // consume the rest of the receiving channel so the walker isn't blocked
			return nil, ctx.Err()
		default:
		}
		if !IsImageFile(path) {
			continue
		}
		f, err := os.Open(path)
		if err != nil {
			for range checker {
			}
			return nil, fmt.Errorf("Opening image %s failed: %v", path, err)
		}
		_, _, err = image.DecodeConfig(f)
		f.Close()
		if err != nil {
			for range checker {
			}
			return nil, fmt.Errorf("Decoding image %s failed: %v", path, err)
		}
		paths = append(paths, path)
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("No images found")
	}

	sort.Strings(paths)
	return paths, nil
}
