// Copyright 2020 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

// pipeline is a package used by the docscan commands, which handles
// the core functionality of turning a source image and a set of
// page corners into a saved scan, using channels to coordinate the
// stages. Note that it is considered an "internal" package, not
// intended for external use, and no guarantee is made of the
// stability of any interfaces provided.
package pipeline

import (
	"errors"
	"fmt"
	"image"
	"io/ioutil"
	"log"
	"os"
	"time"

	"github.com/disintegration/imaging"
	"rescribe.xyz/docscan"
	"rescribe.xyz/docscan/enhance"
	"rescribe.xyz/docscan/quad"
	"rescribe.xyz/docscan/rectify"
)

// Stage names, as reported in a PipelineError
const (
	StageRectify = "rectify"
	StageEnhance = "enhance"
	StagePersist = "persist"
)

type Saver interface {
	Log(v ...interface{})
	Upload(bucket string, key string, path string) error
	ScanStorageId() string
}

type Downloader interface {
	Download(bucket string, key string, fn string) error
	Log(v ...interface{})
	ScanStorageId() string
}

type Deleter interface {
	DeleteObjects(bucket string, keys []string) error
	ScanStorageId() string
}

// Pipeliner is everything a storage connection provides, as used
// by the commands.
type Pipeliner interface {
	DeleteObjects(bucket string, keys []string) error
	Download(bucket string, key string, fn string) error
	GetLogger() *log.Logger
	Init() error
	ListObjects(bucket string, prefix string) ([]string, error)
	ListObjectsWithMeta(bucket string, prefix string) ([]docscan.ObjMeta, error)
	Log(v ...interface{})
	MinimalInit() error
	MkScanStorage() error
	ScanStorageId() string
	Upload(bucket string, key string, path string) error
}

// PipelineError is returned when a stage of the pipeline fails,
// naming the stage.
type PipelineError struct {
	Stage string
	Err   error
}

func (e PipelineError) Error() string {
	return fmt.Sprintf("Error in %s stage: %v", e.Stage, e.Err)
}

func (e PipelineError) Unwrap() error {
	return e.Err
}

// Job is the immutable input to one run of the pipeline
type Job struct {
	Src  image.Image
	Quad quad.Quad
}

// Result is delivered once a run of the pipeline has finished. Ref
// is the key the scan was saved under, and is only set if Err is nil.
type Result struct {
	Job Job
	Ref string
	Err error
}

// Options control how a scan is enhanced and saved. The zero value
// uses the defaults.
type Options struct {
	Enhance enhance.Filter   // defaults to enhance.Scan
	Quality int              // JPEG quality, defaults to docscan.ScanQuality
	TempDir string           // defaults to os.TempDir()
	Now     func() time.Time // defaults to time.Now, used to name the scan
	Logger  *log.Logger      // defaults to discarding logs
}

func (o Options) withDefaults() Options {
	if o.Enhance == nil {
		o.Enhance = enhance.Scan
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = docscan.ScanQuality
	}
	if o.TempDir == "" {
		o.TempDir = os.TempDir()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		var n NullWriter
		o.Logger = log.New(n, "", 0)
	}
	return o
}

// rectifyStage straightens the page of each job it receives,
// passing the result on to the enhance channel. If an error occurs
// it is sent to the errc channel and the function returns early.
func rectifyStage(jobs chan Job, out chan image.Image, errc chan error, logger *log.Logger) {
	for job := range jobs {
		logger.Println("Rectifying", job.Quad)
		img, err := runRectify(job)
		if err != nil {
			for range jobs {
			} // consume the rest of the receiving channel so it isn't blocked
			errc <- PipelineError{Stage: StageRectify, Err: err}
			close(out)
			return
		}
		out <- img
	}
	close(out)
}

// runRectify calls rectify.Rectify, turning a panic from a bad
// source image into an error.
func runRectify(job Job) (img image.Image, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("Rectification failed: %v", r)
		}
	}()
	if job.Src == nil {
		return nil, errors.New("No source image")
	}
	out, err := rectify.Rectify(job.Src, job.Quad)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// enhanceStage applies filter to each image it receives. Filters
// are expected not to fail, but a panic or an empty result is still
// reported as an error rather than taking the program down.
func enhanceStage(filter enhance.Filter) func(chan image.Image, chan image.Image, chan error, *log.Logger) {
	return func(in chan image.Image, out chan image.Image, errc chan error, logger *log.Logger) {
		for img := range in {
			logger.Println("Enhancing", img.Bounds())
			enhanced, err := runFilter(filter, img)
			if err != nil {
				for range in {
				} // consume the rest of the receiving channel so it isn't blocked
				errc <- PipelineError{Stage: StageEnhance, Err: err}
				close(out)
				return
			}
			out <- enhanced
		}
		close(out)
	}
}

func runFilter(filter enhance.Filter, img image.Image) (out image.Image, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("Enhancement failed: %v", r)
		}
	}()
	out = filter(img)
	if out == nil || out.Bounds().Empty() {
		return nil, errors.New("Enhancement produced no image")
	}
	return out, nil
}

// persistStage encodes each image it receives as a JPEG and saves it
// with conn, sending the key it was saved under to the done channel.
// The local copy of the file is removed once it has been saved. If
// an error occurs it is sent to the errc channel and the function
// returns early.
func persistStage(conn Saver, opts Options) func(chan image.Image, chan string, chan error, *log.Logger) {
	return func(in chan image.Image, done chan string, errc chan error, logger *log.Logger) {
		for img := range in {
			key, err := persist(conn, img, opts, logger)
			if err != nil {
				for range in {
				} // consume the rest of the receiving channel so it isn't blocked
				errc <- PipelineError{Stage: StagePersist, Err: err}
				return
			}
			done <- key
		}
	}
}

func persist(conn Saver, img image.Image, opts Options, logger *log.Logger) (string, error) {
	f, err := ioutil.TempFile(opts.TempDir, "docscan-*.jpg")
	if err != nil {
		return "", fmt.Errorf("Error creating temporary file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	err = imaging.Encode(f, img, imaging.JPEG, imaging.JPEGQuality(opts.Quality))
	if err != nil {
		f.Close()
		return "", fmt.Errorf("Error encoding JPEG: %w", err)
	}
	err = f.Close()
	if err != nil {
		return "", fmt.Errorf("Error closing %s: %w", path, err)
	}

	key := docscan.ScanName(opts.Now())
	logger.Println("Saving", key)
	err = conn.Upload(conn.ScanStorageId(), key, path)
	if err != nil {
		return "", fmt.Errorf("Error saving %s: %w", key, err)
	}
	return key, nil
}

// Start runs the pipeline for job in the background: the page is
// rectified, then enhanced, then saved with conn, each stage only
// starting once the one before it has finished. Exactly one Result
// is sent on the returned channel, which is then closed. A run can
// not be cancelled once started.
func Start(job Job, conn Saver, opts Options) <-chan Result {
	opts = opts.withDefaults()
	logger := opts.Logger

	jobs := make(chan Job)
	rectified := make(chan image.Image)
	enhanced := make(chan image.Image)
	done := make(chan string, 1)
	errc := make(chan error, 3)
	res := make(chan Result, 1)

	go rectifyStage(jobs, rectified, errc, logger)
	go enhanceStage(opts.Enhance)(rectified, enhanced, errc, logger)
	go persistStage(conn, opts)(enhanced, done, errc, logger)

	go func() {
		jobs <- job
		close(jobs)

		r := Result{Job: job}
		select {
		case r.Ref = <-done:
			logger.Println("Saved scan", r.Ref)
		case r.Err = <-errc:
			logger.Println(r.Err)
		}
		res <- r
		close(res)
	}()

	return res
}

// Run is like Start, but waits for the pipeline to finish
func Run(job Job, conn Saver, opts Options) (string, error) {
	r := <-Start(job, conn, opts)
	return r.Ref, r.Err
}
