// Copyright 2022 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"image"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"rescribe.xyz/docscan"
	"rescribe.xyz/docscan/quad"
)

func drag(w *quadEditor, x, y, dx, dy float32) {
	w.Dragged(&fyne.DragEvent{
		PointEvent: fyne.PointEvent{Position: fyne.NewPos(x, y)},
		Dragged:    fyne.NewDelta(dx, dy),
	})
}

func TestQuadEditorDrag(t *testing.T) {
	_ = test.NewApp()
	logger := log.New(ioutil.Discard, "", 0)

	cases := []struct {
		name   string
		start  quad.Point
		moves  int
		corner int
		expect quad.Point
	}{
		{"topleft", quad.Pt(50, 40), 2, quad.TopLeft, quad.Pt(120, 100)},
		{"bottomright", quad.Pt(450, 360), 1, quad.BottomRight, quad.Pt(910, 730)},
		{"missed", quad.Pt(250, 200), 2, quad.TopLeft, quad.Pt(100, 80)},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e := quad.NewEditor(1000, 800)
			w := newQuadEditor(image.NewNRGBA(image.Rect(0, 0, 1000, 800)), e, logger)
			w.Resize(fyne.NewSize(500, 400))
			if e.Scale() != 0.5 {
				t.Fatalf("Expected scale 0.5 after resize, got %f", e.Scale())
			}

			x, y := float32(c.start.X), float32(c.start.Y)
			for i := 0; i < c.moves; i++ {
				x, y = x+5, y+5
				drag(w, x, y, 5, 5)
			}
			w.DragEnd()

			if got := e.Quad()[c.corner]; got != c.expect {
				t.Fatalf("Expected corner %d at %v, got %v", c.corner, c.expect, got)
			}
			if e.State() != quad.Idle {
				t.Fatalf("Expected editor to be idle after the drag ended")
			}
			if w.img.Image == nil {
				t.Fatalf("Expected the overlay to have been drawn")
			}
		})
	}
}

func TestScanList(t *testing.T) {
	conn := &docscan.LocalConn{Dir: t.TempDir(), Logger: log.New(ioutil.Discard, "", 0)}
	err := conn.Init()
	if err != nil {
		t.Fatalf("Could not initialise local connection: %v", err)
	}
	for _, n := range []string{"SCAN_20240301_101500.jpg", "SCAN_20240302_101500.jpg"} {
		err = os.WriteFile(filepath.Join(conn.Dir, docscan.ScanFolder, n), []byte("scan"), 0644)
		if err != nil {
			t.Fatalf("Error writing %s: %v", n, err)
		}
	}

	l := &scanList{conn: conn}
	err = l.refresh()
	if err != nil {
		t.Fatalf("Error listing scans: %v", err)
	}
	if len(l.scans) != 2 {
		t.Fatalf("Expected 2 scans, got %v", l.scans)
	}
	if _, ok := l.current(); ok {
		t.Fatalf("Expected nothing to be selected after a refresh")
	}
	l.sel(1)
	if name, ok := l.current(); !ok || name != l.scans[1].Name {
		t.Fatalf("Expected %s to be selected, got %s", l.scans[1].Name, name)
	}
}

func TestScanListConcurrent(t *testing.T) {
	conn := &docscan.LocalConn{Dir: t.TempDir(), Logger: log.New(ioutil.Discard, "", 0)}
	err := conn.Init()
	if err != nil {
		t.Fatalf("Could not initialise local connection: %v", err)
	}
	l := &scanList{conn: conn, selected: -1}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			n := fmt.Sprintf("SCAN_2024030%d_101500.jpg", i+1)
			err := os.WriteFile(filepath.Join(conn.Dir, docscan.ScanFolder, n), []byte("scan"), 0644)
			if err != nil {
				t.Errorf("Error writing %s: %v", n, err)
				return
			}
			err = l.refresh()
			if err != nil {
				t.Errorf("Error listing scans: %v", err)
			}
		}(i)
		go func() {
			defer wg.Done()
			for id := 0; id < l.count()+1; id++ {
				l.sel(id)
				l.name(id)
				l.current()
			}
		}()
	}
	wg.Wait()

	err = l.refresh()
	if err != nil {
		t.Fatalf("Error listing scans: %v", err)
	}
	if l.count() != 4 {
		t.Fatalf("Expected 4 scans, got %d", l.count())
	}
	if l.name(4) != "" {
		t.Fatalf("Expected no name past the end of the list, got %s", l.name(4))
	}
}
