// Copyright 2022 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package pipeline

import (
	"sync"
	"time"
)

// null writer to enable non-verbose logging to be discarded
type NullWriter bool

func (w NullWriter) Write(p []byte) (n int, err error) {
	return len(p), nil
}

// UniqueClock returns a clock for Options.Now which only moves in
// whole seconds and never returns the same second twice, so scans
// made in quick succession don't get the same name.
func UniqueClock() func() time.Time {
	var mu sync.Mutex
	var last time.Time
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := time.Now().Truncate(time.Second)
		if !t.After(last) {
			t = last.Add(time.Second)
		}
		last = t
		return t
	}
}
