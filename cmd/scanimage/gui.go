// Copyright 2021 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"rescribe.xyz/docscan"
	"rescribe.xyz/docscan/enhance"
	"rescribe.xyz/docscan/internal/pipeline"
)

var imageFilter = storage.NewExtensionFileFilter([]string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff", ".webp"})

// scanList holds the scans shown in the main window. Scans finish
// saving in the background, so it is safe for concurrent use.
type scanList struct {
	conn     pipeline.Pipeliner
	mu       sync.Mutex
	scans    []docscan.ObjMeta
	selected int
}

func (l *scanList) refresh() error {
	scans, err := docscan.ListScans(l.conn)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.selected = -1
	if err != nil {
		return err
	}
	l.scans = scans
	return nil
}

func (l *scanList) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.scans)
}

// name returns the name of scan id, or "" if the list has since
// shrunk
func (l *scanList) name(id int) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if id < 0 || id >= len(l.scans) {
		return ""
	}
	return l.scans[id].Name
}

func (l *scanList) sel(id int) {
	l.mu.Lock()
	l.selected = id
	l.mu.Unlock()
}

// current returns the name of the selected scan, if there is one
func (l *scanList) current() (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.selected < 0 || l.selected >= len(l.scans) {
		return "", false
	}
	return l.scans[l.selected].Name, true
}

// startGui starts the gui process
func startGui(log *log.Logger, conn pipeline.Pipeliner) error {
	myApp := app.New()
	myWindow := myApp.NewWindow("Document Scanner")

	clock := pipeline.UniqueClock()
	bw := false
	opts := func() pipeline.Options {
		o := pipeline.Options{Now: clock, Logger: log}
		if bw {
			o.Enhance = enhance.Binarise(enhance.DefaultKsize, enhance.DefaultWsize)
		}
		return o
	}

	l := &scanList{conn: conn, selected: -1}
	err := l.refresh()
	if err != nil {
		return err
	}

	list := widget.NewList(
		l.count,
		func() fyne.CanvasObject { return widget.NewLabel("SCAN_00000000_000000.jpg") },
		func(id widget.ListItemID, o fyne.CanvasObject) {
			o.(*widget.Label).SetText(l.name(id))
		})

	var viewbtn, sharebtn, delbtn *widget.Button
	setSelected := func(enabled bool) {
		for _, b := range []*widget.Button{viewbtn, sharebtn, delbtn} {
			if enabled {
				b.Enable()
			} else {
				b.Disable()
			}
		}
	}
	reload := func() {
		err := l.refresh()
		if err != nil {
			dialog.ShowError(err, myWindow)
		}
		list.UnselectAll()
		list.Refresh()
		setSelected(false)
	}
	list.OnSelected = func(id widget.ListItemID) {
		l.sel(id)
		setSelected(true)
	}
	list.OnUnselected = func(id widget.ListItemID) {
		l.sel(-1)
		setSelected(false)
	}

	viewbtn = widget.NewButtonWithIcon("View", theme.VisibilityIcon(), func() {
		name, ok := l.current()
		if !ok {
			return
		}
		paths, err := pipeline.DownloadScans(os.TempDir(), []string{name}, conn)
		if err != nil {
			dialog.ShowError(err, myWindow)
			return
		}
		u, err := url.Parse(storage.NewFileURI(paths[0]).String())
		if err == nil {
			err = myApp.OpenURL(u)
		}
		if err != nil {
			dialog.ShowError(fmt.Errorf("Error opening %s: %w", name, err), myWindow)
		}
	})

	sharebtn = widget.NewButtonWithIcon("Share as PDF", theme.DocumentSaveIcon(), func() {
		name, ok := l.current()
		if !ok {
			return
		}
		dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
			if err != nil || uri == nil {
				return
			}
			fn, err := pipeline.DownloadScanPdf(uri.Path(), []string{name}, conn)
			if err != nil {
				dialog.ShowError(err, myWindow)
				return
			}
			dialog.ShowInformation("PDF saved", fn, myWindow)
		}, myWindow)
	})

	delbtn = widget.NewButtonWithIcon("Delete", theme.DeleteIcon(), func() {
		name, ok := l.current()
		if !ok {
			return
		}
		dialog.ShowConfirm("Delete scan", "Delete "+name+"?", func(yes bool) {
			if !yes {
				return
			}
			err := pipeline.DeleteScans([]string{name}, conn)
			if err != nil {
				dialog.ShowError(err, myWindow)
			}
			reload()
		}, myWindow)
	})
	setSelected(false)

	var done func(pipeline.Result)
	done = func(r pipeline.Result) {
		if r.Err == nil {
			log.Println("Saved scan", r.Ref)
			reload()
			return
		}
		dialog.ShowConfirm("Scan failed", r.Err.Error()+"\n\nTry again?", func(retry bool) {
			if !retry {
				return
			}
			res := pipeline.Start(r.Job, conn, opts())
			go func() { done(<-res) }()
		}, myWindow)
	}

	edit := func(s *pipeline.Session, err error) {
		if err != nil {
			var derr pipeline.DecodeError
			if errors.As(err, &derr) {
				err = fmt.Errorf("Loading the image failed: %w", err)
			}
			dialog.ShowError(err, myWindow)
			return
		}
		showEditor(myApp, log, s, done)
	}

	openbtn := widget.NewButtonWithIcon("Open image", theme.FileImageIcon(), func() {
		fd := dialog.NewFileOpen(func(r fyne.URIReadCloser, err error) {
			if err != nil || r == nil {
				return
			}
			defer r.Close()
			edit(pipeline.OpenReader(r, r.URI().Name(), conn, opts()))
		}, myWindow)
		fd.SetFilter(imageFilter)
		fd.Show()
	})

	capturebtn := widget.NewButtonWithIcon("Capture screen", theme.ComputerIcon(), func() {
		edit(pipeline.OpenScreen(conn, opts()))
	})

	bwcheck := widget.NewCheck("Black and white", func(b bool) {
		bw = b
	})

	refreshbtn := widget.NewButtonWithIcon("", theme.ViewRefreshIcon(), reload)

	top := container.NewHBox(openbtn, capturebtn, bwcheck, refreshbtn)
	bottom := container.NewHBox(viewbtn, sharebtn, delbtn)
	content := container.NewBorder(top, bottom, nil, nil, list)

	myWindow.SetContent(content)
	myWindow.Resize(fyne.NewSize(600, 500))

	myWindow.Show()
	myApp.Run()

	return nil
}

// showEditor opens a window for dragging the corners of the page in
// s. Confirming closes the window and saves the scan in the
// background, calling done with the result.
func showEditor(a fyne.App, log *log.Logger, s *pipeline.Session, done func(pipeline.Result)) {
	w := a.NewWindow("Place the corners")
	qe := newQuadEditor(s.Source(), s.Editor(), log)

	var confirmbtn, cancelbtn, resetbtn *widget.Button
	resetbtn = widget.NewButtonWithIcon("Reset", theme.ContentUndoIcon(), func() {
		s.Editor().Reset()
		qe.Refresh()
	})
	cancelbtn = widget.NewButtonWithIcon("Cancel", theme.CancelIcon(), func() {
		w.Close()
	})
	confirmbtn = widget.NewButtonWithIcon("Confirm", theme.ConfirmIcon(), func() {
		confirmbtn.Disable()
		cancelbtn.Disable()
		resetbtn.Disable()
		res := s.Confirm()
		w.Close()
		go func() { done(<-res) }()
	})
	w.SetOnClosed(func() {
		if !s.Closed() {
			s.Cancel()
		}
	})

	buttons := container.NewHBox(resetbtn, cancelbtn, confirmbtn)
	w.SetContent(container.NewBorder(nil, buttons, nil, nil, qe))
	w.Resize(fyne.NewSize(800, 700))
	w.Show()
}
