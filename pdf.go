// Copyright 2024 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package docscan

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/nickjwhite/gofpdf"
)

const pageWidth = 5 // pageWidth in inches

// pxToPt converts a pixel value into a pt value (72 pts per inch)
// This uses pageWidth to determine the appropriate value
func pxToPt(i int) float64 {
	return float64(i) / pageWidth
}

// Fpdf builds a PDF with one scan per page, for sharing
type Fpdf struct {
	fpdf *gofpdf.Fpdf
}

// Setup creates a new PDF with appropriate settings
func (p *Fpdf) Setup() error {
	p.fpdf = gofpdf.New("P", "pt", "A4", "")
	p.fpdf.SetAutoPageBreak(false, float64(0))
	p.fpdf.SetCreator("docscan", true)
	return p.fpdf.Error()
}

// AddPage adds a page to the pdf sized to fit the image at imgpath
func (p *Fpdf) AddPage(imgpath string) error {
	f, err := os.Open(imgpath)
	if err != nil {
		return errors.New(fmt.Sprintf("Could not open file %s: %v", imgpath, err))
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return errors.New(fmt.Sprintf("Could not decode image %s: %v", imgpath, err))
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return errors.New(fmt.Sprintf("Image %s is empty", imgpath))
	}

	w, h := pxToPt(cfg.Width), pxToPt(cfg.Height)
	p.fpdf.AddPageFormat("P", gofpdf.SizeType{Wd: w, Ht: h})
	_ = p.fpdf.RegisterImageOptions(imgpath, gofpdf.ImageOptions{})
	p.fpdf.ImageOptions(imgpath, 0, 0, w, h, false, gofpdf.ImageOptions{}, 0, "")

	return p.fpdf.Error()
}

// Save saves the PDF to the file at path
func (p *Fpdf) Save(path string) error {
	return p.fpdf.OutputFileAndClose(path)
}

// ScansToPdf writes the images at imgpaths to a new PDF at pdfpath,
// one per page.
func ScansToPdf(pdfpath string, imgpaths ...string) error {
	if len(imgpaths) == 0 {
		return errors.New("No images to add to PDF")
	}
	var p Fpdf
	err := p.Setup()
	if err != nil {
		return fmt.Errorf("Error setting up PDF: %w", err)
	}
	for _, i := range imgpaths {
		err = p.AddPage(i)
		if err != nil {
			return fmt.Errorf("Error adding page to PDF: %w", err)
		}
	}
	err = p.Save(pdfpath)
	if err != nil {
		return fmt.Errorf("Error saving PDF %s: %w", pdfpath, err)
	}
	return nil
}
