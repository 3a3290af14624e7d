// Copyright 2024 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

// rmscan deletes saved scans.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"rescribe.xyz/docscan"
	"rescribe.xyz/docscan/internal/pipeline"
)

const usage = `Usage: rmscan [-v] [-c conn] [-d dir] scanname...

Deletes saved scans.
`

func main() {
	verbose := flag.Bool("v", false, "verbose")
	conntype := flag.String("c", "local", "connection type ('local' or 'aws')")
	dir := flag.String("d", "", "directory local scans are saved in (default ~/Pictures)")
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

	for _, n := range flag.Args() {
		if !docscan.IsScan(n) {
			log.Fatalln("Not a scan name:", n)
		}
	}

	conn.Log("Deleting", flag.Args())
	err = pipeline.DeleteScans(flag.Args(), conn)
	if err != nil {
		log.Fatalln(err)
	}
}
