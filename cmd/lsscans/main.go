// Copyright 2024 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

// lsscans lists the scans that have been saved, newest first.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"rescribe.xyz/docscan"
	"rescribe.xyz/docscan/internal/pipeline"
)

const usage = `Usage: lsscans [-v] [-c conn] [-d dir] [-l]

Lists the saved scans, newest first.
`

func main() {
	verbose := flag.Bool("v", false, "verbose")
	long := flag.Bool("l", false, "also show the time each scan was saved")
	conntype := flag.String("c", "local", "connection type ('local' or 'aws')")
	dir := flag.String("d", "", "directory local scans are saved in (default ~/Pictures)")
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
	err := conn.Init()
	if err != nil {
		log.Fatalln("Error setting up connection:", err)
	}

	scans, err := docscan.ListScans(conn)
	if err != nil {
		log.Fatalln(err)
	}
	for _, s := range scans {
		if *long {
			fmt.Printf("%s\t%s\n", s.Date.Format("2006-01-02 15:04:05"), s.Name)
		} else {
			fmt.Println(s.Name)
		}
	}
}
