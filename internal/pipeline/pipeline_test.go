// Copyright 2021 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package pipeline

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"rescribe.xyz/docscan"
	"rescribe.xyz/docscan/enhance"
	"rescribe.xyz/docscan/quad"
	"rescribe.xyz/docscan/rectify"
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

type upload struct {
	bucket, key string
	bounds      image.Rectangle
}

// fakeSaver records each upload, decoding the file so its size can
// be checked
type fakeSaver struct {
	mu      sync.Mutex
	uploads []upload
	err     error
}

func (f *fakeSaver) Log(v ...interface{}) {}

func (f *fakeSaver) ScanStorageId() string {
	return "scans"
}

func (f *fakeSaver) Upload(bucket string, key string, path string) error {
	if f.err != nil {
		return f.err
	}
	r, err := os.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()
	img, err := jpeg.Decode(r)
	if err != nil {
		return fmt.Errorf("uploaded file is not a jpeg: %v", err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, upload{bucket, key, img.Bounds()})
	return nil
}

func testImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x), uint8(y), 200, 255})
		}
	}
	return img
}

var fixedNow = time.Date(2024, 3, 1, 10, 15, 0, 0, time.Local)

func testOpts(t *testing.T, slog *StrLog) Options {
	return Options{
		TempDir: t.TempDir(),
		Now:     func() time.Time { return fixedNow },
		Logger:  log.New(slog, "", 0),
	}
}

func TestStart(t *testing.T) {
	var slog StrLog
	saver := &fakeSaver{}
	opts := testOpts(t, &slog)
	job := Job{Src: testImage(1000, 800), Quad: quad.DefaultQuad(1000, 800)}

	res := Start(job, saver, opts)
	r := <-res
	if r.Err != nil {
		t.Fatalf("Pipeline failed: %v\nLog: %s", r.Err, slog.log)
	}
	if _, ok := <-res; ok {
		t.Fatalf("Expected only one result")
	}

	if len(saver.uploads) != 1 {
		t.Fatalf("Expected exactly one upload, got %d", len(saver.uploads))
	}
	u := saver.uploads[0]
	if u.bounds.Dx() != 800 || u.bounds.Dy() != 640 {
		t.Fatalf("Expected an 800x640 scan, got %v", u.bounds)
	}
	if u.bucket != "scans" || u.key != "SCAN_20240301_101500.jpg" {
		t.Fatalf("Unexpected upload location %s/%s", u.bucket, u.key)
	}
	if r.Ref != u.key {
		t.Fatalf("Expected result reference %s, got %s", u.key, r.Ref)
	}
	if r.Job.Quad != job.Quad {
		t.Fatalf("Expected result to carry the job's quad")
	}

	left, err := ioutil.ReadDir(opts.TempDir)
	if err != nil {
		t.Fatalf("Error reading temporary directory: %v", err)
	}
	if len(left) != 0 {
		t.Fatalf("Expected temporary files to be removed, found %d", len(left))
	}
}

func TestStageErrors(t *testing.T) {
	saveErr := errors.New("disk full")
	degenerate := quad.Quad{quad.Pt(100, 80), quad.Pt(100, 80), quad.Pt(900, 720), quad.Pt(100, 720)}
	huge := quad.Quad{quad.Pt(0, 0), quad.Pt(1e10, 0), quad.Pt(1e10, 1e10), quad.Pt(0, 1e10)}
	img := testImage(1000, 800)

	cases := []struct {
		name    string
		src     image.Image
		q       quad.Quad
		filter  enhance.Filter
		saveErr error
		tmp     string
		stage   string
	}{
		{"degenerate", img, degenerate, nil, nil, "", StageRectify},
		{"huge", img, huge, nil, nil, "", StageRectify},
		{"nosrc", nil, quad.DefaultQuad(1000, 800), nil, nil, "", StageRectify},
		{"emptysrc", image.NewNRGBA(image.Rect(0, 0, 0, 0)), quad.DefaultQuad(1000, 800), nil, nil, "", StageRectify},
		{"panic", img, quad.DefaultQuad(1000, 800), func(image.Image) image.Image { panic("bad filter") }, nil, "", StageEnhance},
		{"nilimage", img, quad.DefaultQuad(1000, 800), func(image.Image) image.Image { return nil }, nil, "", StageEnhance},
		{"savefail", img, quad.DefaultQuad(1000, 800), nil, saveErr, "", StagePersist},
		{"notempdir", img, quad.DefaultQuad(1000, 800), nil, nil, "/nonexistent/docscan", StagePersist},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var slog StrLog
			saver := &fakeSaver{err: c.saveErr}
			opts := testOpts(t, &slog)
			opts.Enhance = c.filter
			if c.tmp != "" {
				opts.TempDir = c.tmp
			}

			ref, err := Run(Job{Src: c.src, Quad: c.q}, saver, opts)
			if err == nil {
				t.Fatalf("Expected an error, got none, ref %s", ref)
			}
			if ref != "" {
				t.Fatalf("Expected no reference on failure, got %s", ref)
			}
			var perr PipelineError
			if !errors.As(err, &perr) {
				t.Fatalf("Expected a PipelineError, got %T: %v", err, err)
			}
			if perr.Stage != c.stage {
				t.Fatalf("Expected failure in %s stage, got %s: %v", c.stage, perr.Stage, err)
			}
			if len(saver.uploads) != 0 {
				t.Fatalf("Expected nothing to be saved, got %d uploads", len(saver.uploads))
			}
		})
	}
}

func TestStageErrorCauses(t *testing.T) {
	var slog StrLog
	degenerate := quad.Quad{quad.Pt(0, 0), quad.Pt(0, 0), quad.Pt(10, 10), quad.Pt(0, 10)}
	_, err := Run(Job{Src: testImage(100, 100), Quad: degenerate}, &fakeSaver{}, testOpts(t, &slog))
	var derr rectify.DegenerateQuadError
	if !errors.As(err, &derr) {
		t.Fatalf("Expected a DegenerateQuadError, got %T: %v", err, err)
	}

	huge := quad.Quad{quad.Pt(0, 0), quad.Pt(1e10, 0), quad.Pt(1e10, 1e10), quad.Pt(0, 1e10)}
	_, err = Run(Job{Src: testImage(100, 100), Quad: huge}, &fakeSaver{}, testOpts(t, &slog))
	if !errors.Is(err, rectify.ErrTooLarge) {
		t.Fatalf("Expected ErrTooLarge, got %v", err)
	}

	saveErr := errors.New("disk full")
	_, err = Run(Job{Src: testImage(100, 100), Quad: quad.DefaultQuad(100, 100)}, &fakeSaver{err: saveErr}, testOpts(t, &slog))
	if !errors.Is(err, saveErr) {
		t.Fatalf("Expected the save error to be wrapped, got %v", err)
	}
}

func TestRunLocal(t *testing.T) {
	var slog StrLog
	conn := &docscan.LocalConn{Dir: t.TempDir(), Logger: log.New(&slog, "", 0)}
	err := conn.Init()
	if err != nil {
		t.Fatalf("Could not initialise local connection: %v", err)
	}

	ref, err := Run(Job{Src: testImage(1000, 800), Quad: quad.DefaultQuad(1000, 800)}, conn, testOpts(t, &slog))
	if err != nil {
		t.Fatalf("Pipeline failed: %v\nLog: %s", err, slog.log)
	}

	f, err := os.Open(filepath.Join(conn.Dir, docscan.ScanFolder, ref))
	if err != nil {
		t.Fatalf("Saved scan not found: %v", err)
	}
	defer f.Close()
	cfg, err := jpeg.DecodeConfig(f)
	if err != nil {
		t.Fatalf("Saved scan is not a jpeg: %v", err)
	}
	if cfg.Width != 800 || cfg.Height != 640 {
		t.Fatalf("Expected an 800x640 scan, got %dx%d", cfg.Width, cfg.Height)
	}

	scans, err := docscan.ListScans(conn)
	if err != nil {
		t.Fatalf("Error listing scans: %v", err)
	}
	if len(scans) != 1 || scans[0].Name != ref {
		t.Fatalf("Expected %s to be listed, got %v", ref, scans)
	}
}

func TestRunAws(t *testing.T) {
	if testing.Short() || os.Getenv("DOCSCAN_AWS_TEST") == "" {
		t.Skip("Skipping AWS test, set DOCSCAN_AWS_TEST to run it")
	}
	var slog StrLog
	conn := &docscan.AwsConn{Logger: log.New(&slog, "", 0)}
	err := conn.MinimalInit()
	if err != nil {
		t.Fatalf("Could not set up aws session: %v", err)
	}
	// creating a bucket we already own is fine
	err = conn.MkScanStorage()
	if err != nil {
		t.Fatalf("Could not create scan bucket: %v\nLog: %s", err, slog.log)
	}
	err = conn.Init()
	if err != nil {
		t.Fatalf("Could not initialise aws connection: %v\nLog: %s", err, slog.log)
	}
	opts := testOpts(t, &slog)
	opts.Now = time.Now
	ref, err := Run(Job{Src: testImage(300, 300), Quad: quad.DefaultQuad(300, 300)}, conn, opts)
	if err != nil {
		t.Fatalf("Pipeline failed: %v\nLog: %s", err, slog.log)
	}
	err = conn.DeleteObjects(conn.ScanStorageId(), []string{ref})
	if err != nil {
		t.Fatalf("Error removing test scan %s: %v", ref, err)
	}
}
