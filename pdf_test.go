// Copyright 2024 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package docscan

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
)

func writeJpeg(t *testing.T, dir, name string, w, h int) string {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	img.SetGray(w/2, h/2, color.Gray{0})
	fn := filepath.Join(dir, name)
	f, err := os.Create(fn)
	if err != nil {
		t.Fatalf("Error creating %s: %v", fn, err)
	}
	defer f.Close()
	err = jpeg.Encode(f, img, &jpeg.Options{Quality: ScanQuality})
	if err != nil {
		t.Fatalf("Error encoding %s: %v", fn, err)
	}
	return fn
}

func TestScansToPdf(t *testing.T) {
	dir := t.TempDir()
	a := writeJpeg(t, dir, "a.jpg", 800, 640)
	b := writeJpeg(t, dir, "b.jpg", 300, 500)
	out := filepath.Join(dir, "out.pdf")

	err := ScansToPdf(out, a, b)
	if err != nil {
		t.Fatalf("Error creating PDF: %v", err)
	}
	pdf, err := ioutil.ReadFile(out)
	if err != nil {
		t.Fatalf("Error reading PDF: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF-")) {
		t.Fatalf("Output doesn't look like a PDF")
	}
	if n := bytes.Count(pdf, []byte("/Type /Page\n")); n != 2 {
		t.Fatalf("Expected 2 pages, got %d", n)
	}
}

func TestScansToPdfErrors(t *testing.T) {
	dir := t.TempDir()
	notimg := filepath.Join(dir, "notimg.jpg")
	err := ioutil.WriteFile(notimg, []byte("not an image"), 0644)
	if err != nil {
		t.Fatalf("Error writing file: %v", err)
	}

	cases := []struct {
		name string
		imgs []string
	}{
		{"noimages", []string{}},
		{"missing", []string{filepath.Join(dir, "missing.jpg")}},
		{"notimage", []string{notimg}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := ScansToPdf(filepath.Join(dir, c.name+".pdf"), c.imgs...)
			if err == nil {
				t.Fatalf("Expected an error, got none")
			}
		})
	}
}
