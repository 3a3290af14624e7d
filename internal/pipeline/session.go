// Copyright 2024 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/disintegration/imaging"
	"github.com/vova616/screenshot"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"rescribe.xyz/docscan/quad"
)

// ErrSessionClosed is delivered by Confirm on a session which has
// already been confirmed or cancelled.
var ErrSessionClosed = errors.New("Session is closed")

// DecodeError is returned when a session can't be started because
// its source image couldn't be loaded.
type DecodeError struct {
	Source string
	Err    error
}

func (e DecodeError) Error() string {
	return fmt.Sprintf("Error loading image from %s: %v", e.Source, e.Err)
}

func (e DecodeError) Unwrap() error {
	return e.Err
}

// Session holds a source image and the editor for its page corners,
// from the image being loaded until the corners are confirmed or the
// session is cancelled. A Session is driven from a single goroutine,
// usually the UI one; the pipeline it starts only sees a snapshot.
type Session struct {
	src    image.Image
	editor *quad.Editor
	conn   Saver
	opts   Options
	closed bool
}

// NewSession starts a session editing the corners of src, which
// will be saved with conn once confirmed.
func NewSession(src image.Image, conn Saver, opts Options) (*Session, error) {
	b := src.Bounds()
	if b.Empty() {
		return nil, DecodeError{Source: "image", Err: errors.New("image is empty")}
	}
	return &Session{
		src:    src,
		editor: quad.NewEditor(b.Dx(), b.Dy()),
		conn:   conn,
		opts:   opts,
	}, nil
}

// Decode reads an image in any of the supported formats, rotating
// it according to any EXIF orientation tag.
func Decode(r io.Reader) (image.Image, error) {
	return imaging.Decode(r, imaging.AutoOrientation(true))
}

// OpenReader starts a session from an image read from r. name is
// used to describe the source in errors.
func OpenReader(r io.Reader, name string, conn Saver, opts Options) (*Session, error) {
	img, err := Decode(r)
	if err != nil {
		return nil, DecodeError{Source: name, Err: err}
	}
	s, err := NewSession(img, conn, opts)
	if err != nil {
		return nil, DecodeError{Source: name, Err: errors.Unwrap(err)}
	}
	return s, nil
}

// OpenFile starts a session from the image file at path
func OpenFile(path string, conn Saver, opts Options) (*Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, DecodeError{Source: path, Err: err}
	}
	defer f.Close()
	return OpenReader(f, path, conn, opts)
}

// OpenBytes starts a session from an encoded image held in memory
func OpenBytes(b []byte, conn Saver, opts Options) (*Session, error) {
	return OpenReader(bytes.NewReader(b), "memory", conn, opts)
}

// OpenScreen starts a session from a capture of the screen
func OpenScreen(conn Saver, opts Options) (*Session, error) {
	img, err := screenshot.CaptureScreen()
	if err != nil {
		return nil, DecodeError{Source: "screen", Err: err}
	}
	s, err := NewSession(img, conn, opts)
	if err != nil {
		return nil, DecodeError{Source: "screen", Err: errors.Unwrap(err)}
	}
	return s, nil
}

// Source returns the source image, or nil once the session is closed
func (s *Session) Source() image.Image {
	return s.src
}

// Editor returns the corner editor, or nil once the session is closed
func (s *Session) Editor() *quad.Editor {
	return s.editor
}

func (s *Session) Closed() bool {
	return s.closed
}

func (s *Session) teardown() {
	s.closed = true
	s.src = nil
	s.editor = nil
}

// Cancel discards the session without saving anything
func (s *Session) Cancel() {
	s.teardown()
}

// Confirm snapshots the current corners, closes the session and
// starts the pipeline in the background. Exactly one Result will be
// sent on the returned channel. Confirming a closed session delivers
// ErrSessionClosed.
func (s *Session) Confirm() <-chan Result {
	if s.closed {
		res := make(chan Result, 1)
		res <- Result{Err: ErrSessionClosed}
		close(res)
		return res
	}

	s.editor.DragCancel()
	job := Job{Src: s.src, Quad: s.editor.Quad()}
	s.teardown()
	return Start(job, s.conn, s.opts)
}
