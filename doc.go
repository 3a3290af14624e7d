// Copyright 2020 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

/*
The docscan package contains tools and functions for turning a photograph of
a document into a clean, upright scan, and for keeping track of the scans
made. It also contains several tools that are useful standalone; read the
accompanying README for more details.

Introduction

A scan starts from a source image, which can be a photo on disk, an image
held in memory, or a capture of the screen. Four corners are placed over the
page, initially inset by a tenth of the image on each side, and can then be
dragged to the real corners of the page. Once the corners are confirmed the
page is straightened, given a scanned look, and saved.

Presuming you have the go tools installed, you can install all of the tools
with this command:
  go install rescribe.xyz/docscan/cmd/...

All of the tools provided in the docscan package will give information on
what they do and how they work with the '-h' flag, so for example to get usage
information on the docscan tool simply run the following:
  docscan -h

Making a scan

The scanimage tool is a graphical program which lists the scans saved so far,
and lets you open an image or capture the screen, drag the corners into place
with the mouse, and confirm to save the scan. Saved scans can be viewed,
shared as a PDF, or deleted from the list.

The docscan tool does the same from the command line, which is useful for
scripting. The corners are given as four x,y pairs, in the order top left,
top right, bottom right, bottom left:
  docscan -corners '30,42 1210,10 1260,1650 12,1700' photo.jpg

How a scan is made

The corners are turned into a projective transform which maps the page onto
a rectangle as wide as the longer of the top and bottom edges, and as tall as
the longer of the left and right edges, with neither side shorter than 100
pixels. Every pixel of the rectangle is sampled from the source image with
bilinear interpolation; any part of the rectangle which falls outside of the
source image is filled with black. Corners which are coincident, or three of
which lie on a line, can't be mapped, and are reported as a degenerate quad.

The straightened page is then converted to high contrast greyscale (or black
and white, with the -bin flag), encoded as a JPEG, and saved. These steps
run one after the other in the background, and whichever of them fails is
named in the error reported.

Storage

Scans are saved as SCAN_yyyyMMdd_HHmmss.jpg, in a ScanImage folder inside
your Pictures directory by default. They can instead be saved to an S3
bucket, to share them between computers, by passing '-c aws' to the tools.
The bucket name is defined in cloudsettings.go, and you will need to set up
your ~/.aws/credentials appropriately.

Local files are written under a temporary .part name and renamed once
complete, so an interrupted save never shows up as a scan. Any .part files
left behind are removed the next time the scans are listed.

Managing scans

  lsscans               # list scans, newest first
  getscan SCAN_20240301_101500.jpg        # download a scan
  getscan -pdf SCAN_20240301_101500.jpg   # download a scan as a PDF
  rmscan SCAN_20240301_101500.jpg         # delete a scan
  scangraph graph.png   # graph of how many scans were made each day
*/
package docscan
