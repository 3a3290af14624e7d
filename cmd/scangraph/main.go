// Copyright 2024 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

// scangraph creates a graph of the number of scans saved each day.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"rescribe.xyz/docscan"
	"rescribe.xyz/docscan/internal/pipeline"
)

const usage = `Usage: scangraph [-v] [-c conn] [-d dir] [-t title] graph.png

Creates a graph of the number of scans saved each day.
`

func main() {
	verbose := flag.Bool("v", false, "verbose")
	conntype := flag.String("c", "local", "connection type ('local' or 'aws')")
	dir := flag.String("d", "", "directory local scans are saved in (default ~/Pictures)")
	title := flag.String("t", "Scans per day", "graph title")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
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

	scans, err := docscan.ListScans(conn)
	if err != nil {
		log.Fatalln(err)
	}
	conn.Log("Graphing", len(scans), "scans")

	fn := flag.Arg(0)
	f, err := os.Create(fn)
	if err != nil {
		log.Fatalln("Error creating file", fn, err)
	}
	defer f.Close()
	err = docscan.Graph(scans, *title, f)
	if err != nil {
		log.Fatalln("Error creating graph", err)
	}
}
