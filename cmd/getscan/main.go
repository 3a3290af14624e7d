// Copyright 2024 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

// getscan downloads saved scans, optionally as a PDF for sharing.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"rescribe.xyz/docscan"
	"rescribe.xyz/docscan/internal/pipeline"
)

const usage = `Usage: getscan [-v] [-c conn] [-d dir] [-o outdir] [-pdf] scanname...

Downloads saved scans. With -pdf the scans are put together into a
single PDF, one per page, named after the first scan.
`

func main() {
	verbose := flag.Bool("v", false, "verbose")
	conntype := flag.String("c", "local", "connection type ('local' or 'aws')")
	dir := flag.String("d", "", "directory local scans are saved in (default ~/Pictures)")
	outdir := flag.String("o", ".", "directory to download to")
	pdf := flag.Bool("pdf", false, "download as a PDF")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
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
	err := conn.Init()
	if err != nil {
		log.Fatalln("Error setting up connection:", err)
	}

	err = os.MkdirAll(*outdir, 0755)
	if err != nil {
		log.Fatalln("Failed to create directory", *outdir, err)
	}

	if *pdf {
		fn, err := pipeline.DownloadScanPdf(*outdir, flag.Args(), conn)
		if err != nil {
			log.Fatalln(err)
		}
		fmt.Println(fn)
		return
	}

	paths, err := pipeline.DownloadScans(*outdir, flag.Args(), conn)
	if err != nil {
		log.Fatalln(err)
	}
	for _, p := range paths {
		fmt.Println(p)
	}
}
