// Copyright 2024 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

// docscan straightens and saves a photographed page from the
// command line.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/disintegration/imaging"
	"rescribe.xyz/docscan"
	"rescribe.xyz/docscan/enhance"
	"rescribe.xyz/docscan/internal/pipeline"
	"rescribe.xyz/docscan/overlay"
	"rescribe.xyz/docscan/quad"
)

const usage = `Usage: docscan [-v] [-c conn] [-d dir] [-corners 'x,y x,y x,y x,y'] [-bin] [-preview out.png] [-screen | image | imagedir]
       docscan [-v] [-c conn] [-d dir] -mkstorage

Straightens the page in an image and saves it as a scan.

The corners of the page are given in image pixels, in the order top
left, top right, bottom right, bottom left. If they are not given,
the corners are placed a tenth of the way in from each edge of the
image. If a directory is given, every image in it is scanned with
the default corners.

-mkstorage creates the bucket (or directory) scans are saved in, and
should be run once before scanning to a new aws account.
`

func main() {
	verbose := flag.Bool("v", false, "verbose")
	conntype := flag.String("c", "local", "connection type ('local' or 'aws')")
	dir := flag.String("d", "", "directory to save local scans in (default ~/Pictures)")
	corners := flag.String("corners", "", "page corners, as four space separated x,y pairs")
	bin := flag.Bool("bin", false, "save a black and white scan rather than greyscale")
	ksize := flag.Float64("k", enhance.DefaultKsize, "binarisation k value (with -bin)")
	wsize := flag.Int("w", enhance.DefaultWsize, "binarisation window size (with -bin)")
	quality := flag.Int("q", docscan.ScanQuality, "JPEG quality")
	preview := flag.String("preview", "", "save an image of the corners over the source to this file, rather than scanning")
	screen := flag.Bool("screen", false, "scan a capture of the screen")
	mkstorage := flag.Bool("mkstorage", false, "create the scan storage and exit")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *mkstorage && flag.NArg() != 0 {
		flag.Usage()
		return
	}
	if !*mkstorage && ((*screen && flag.NArg() != 0) || (!*screen && flag.NArg() != 1)) {
		flag.Usage()
		return
	}

	var verboselog *log.Logger
	if *verbose {
		verboselog = log.New(os.Stdout, "", 0)
	} else {
		var n pipeline.NullWriter
		verboselog = log.New(n, "", 0)
	}

	var conn pipeline.Pipeliner
	switch *conntype {
	case "aws":
		conn = &docscan.AwsConn{Logger: verboselog}
	case "local":
		conn = &docscan.LocalConn{Dir: *dir, Logger: verboselog}
	default:
		log.Fatalln("Unknown connection type")
	}
	if *mkstorage {
		err := conn.MinimalInit()
		if err != nil {
			log.Fatalln("Error setting up connection:", err)
		}
		err = conn.MkScanStorage()
		if err != nil {
			log.Fatalln(err)
		}
		fmt.Println("Scan storage ready:", conn.ScanStorageId())
		return
	}

	conn.Log("Setting up connection")
	err := conn.Init()
	if err != nil {
		log.Fatalln("Error setting up connection:", err)
	}

	opts := pipeline.Options{Quality: *quality, Now: pipeline.UniqueClock(), Logger: verboselog}
	if *bin {
		opts.Enhance = enhance.Binarise(*ksize, *wsize)
	}

	var q *quad.Quad
	if *corners != "" {
		parsed, err := quad.ParseQuad(*corners)
		if err != nil {
			log.Fatalln(err)
		}
		q = &parsed
	}

	if *screen {
		conn.Log("Capturing screen")
		s, err := pipeline.OpenScreen(conn, opts)
		if err != nil {
			log.Fatalln(err)
		}
		scan(s, q, *preview)
		return
	}

	src := flag.Arg(0)
	info, err := os.Stat(src)
	if err != nil {
		log.Fatalln(err)
	}
	if !info.IsDir() {
		s, err := pipeline.OpenFile(src, conn, opts)
		if err != nil {
			log.Fatalln(err)
		}
		scan(s, q, *preview)
		return
	}

	if q != nil || *preview != "" {
		log.Fatalln("Corners and previews can only be used with a single image")
	}
	conn.Log("Checking that all images are valid in", src)
	paths, err := pipeline.CheckImages(context.Background(), src)
	if err != nil {
		log.Fatalln(err)
	}
	for _, p := range paths {
		conn.Log("Scanning", p)
		s, err := pipeline.OpenFile(p, conn, opts)
		if err != nil {
			log.Fatalln(err)
		}
		scan(s, nil, "")
	}
}

// scan sets the corners of s if q is given, and then either saves
// a preview or runs the pipeline, printing the name of the new scan.
func scan(s *pipeline.Session, q *quad.Quad, preview string) {
	e := s.Editor()
	if q != nil {
		e.SetQuad(*q)
	}

	if preview != "" {
		b := s.Source().Bounds()
		e.SetViewport(float64(b.Dx()), float64(b.Dy()))
		img, err := overlay.RenderEditor(s.Source(), e)
		if err != nil {
			log.Fatalln("Error rendering preview:", err)
		}
		err = imaging.Save(img, preview)
		if err != nil {
			log.Fatalln("Error saving preview:", err)
		}
		s.Cancel()
		return
	}

	r := <-s.Confirm()
	if r.Err != nil {
		log.Fatalln(r.Err)
	}
	fmt.Println(r.Ref)
}
