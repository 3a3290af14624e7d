// Copyright 2019 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package docscan

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const maxticks = 40

// DayCount is the number of scans saved on one day
type DayCount struct {
	Day   time.Time
	Count int
}

// createLine creates a horizontal line with a particular y value for
// a graph
func createLine(xvalues []float64, y float64, c drawing.Color) chart.ContinuousSeries {
	var yvalues []float64
	for range xvalues {
		yvalues = append(yvalues, y)
	}
	return chart.ContinuousSeries{
		XValues: xvalues,
		YValues: yvalues,
		Style: chart.Style{
			StrokeColor:     c,
			StrokeDashArray: []float64{5.0, 5.0},
		},
	}
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DailyCounts counts the scans saved on each day from the first scan
// to the last, including days on which nothing was saved. The time
// of each scan is taken from its name where possible, and otherwise
// from its date.
func DailyCounts(scans []ObjMeta) []DayCount {
	if len(scans) == 0 {
		return nil
	}

	counts := make(map[time.Time]int)
	var first, last time.Time
	for i, s := range scans {
		t, err := ScanTime(s.Name)
		if err != nil {
			t = s.Date.In(time.Local)
		}
		d := day(t)
		counts[d]++
		if i == 0 || d.Before(first) {
			first = d
		}
		if i == 0 || d.After(last) {
			last = d
		}
	}

	var days []DayCount
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		days = append(days, DayCount{Day: d, Count: counts[d]})
	}
	return days
}

// Graph creates a graph of the number of scans saved each day
func Graph(scans []ObjMeta, title string, w io.Writer) error {
	days := DailyCounts(scans)
	if len(days) < 2 {
		return errors.New("Not enough days with scans to graph")
	}

	var xvalues, yvalues []float64
	var ticks []chart.Tick
	tickevery := len(days) / maxticks
	if tickevery < 1 {
		tickevery = 1
	}
	total, most := 0, 0
	for i, d := range days {
		xvalues = append(xvalues, float64(i))
		yvalues = append(yvalues, float64(d.Count))
		total += d.Count
		if d.Count > most {
			most = d.Count
		}
		if i%tickevery == 0 {
			ticks = append(ticks, chart.Tick{Value: float64(i), Label: d.Day.Format("2006-01-02")})
		}
	}
	// Make last tick the final day
	final := len(days) - 1
	ticks[len(ticks)-1] = chart.Tick{Value: float64(final), Label: days[final].Day.Format("2006-01-02")}

	mainSeries := chart.ContinuousSeries{
		Style: chart.Style{
			StrokeColor: chart.ColorBlue,
			FillColor:   chart.ColorAlternateBlue,
		},
		XValues: xvalues,
		YValues: yvalues,
	}
	mean := float64(total) / float64(len(days))
	meanSeries := createLine(xvalues, mean, chart.ColorOrange)

	graph := chart.Chart{
		Title:  title,
		Width:  1920,
		Height: 1080,
		XAxis: chart.XAxis{
			Name:  "Day",
			Ticks: ticks,
		},
		YAxis: chart.YAxis{
			Name: "Scans",
			Range: &chart.ContinuousRange{
				Min: 0.0,
				Max: float64(most + 1),
			},
		},
		Series: []chart.Series{
			mainSeries,
			meanSeries,
			chart.AnnotationSeries{
				Annotations: []chart.Value2{
					{Label: fmt.Sprintf("mean %.1f", mean), XValue: xvalues[final], YValue: mean},
				},
			},
		},
	}
	return graph.Render(chart.PNG, w)
}
