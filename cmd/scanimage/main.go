// Copyright 2024 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

// scanimage is a graphical document scanner. It lists the scans
// saved so far, and makes new ones from an image file or a capture
// of the screen, with the corners of the page dragged into place.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"rescribe.xyz/docscan"
	"rescribe.xyz/docscan/internal/pipeline"
)

const usage = `Usage: scanimage [-v] [-c conn] [-d dir]

A graphical document scanner.
`

func main() {
	verbose := flag.Bool("v", false, "verbose")
	conntype := flag.String("c", "local", "connection type ('local' or 'aws')")
	dir := flag.String("d", "", "directory to save local scans in (default ~/Pictures)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

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

	conn.Log("Setting up session")
	err := conn.Init()
	if err != nil {
		log.Fatalln("Error setting up connection:", err)
	}
	conn.Log("Finished setting up session")

	err = startGui(verboselog, conn)
	if err != nil {
		log.Fatalln("Error starting gui:", err)
	}
}
