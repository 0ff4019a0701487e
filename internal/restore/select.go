// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package restore

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/mlnoga/daylight/internal/ops"
	"github.com/mlnoga/daylight/internal/raster"
)

// Returned when a parameter search is given no candidates
var ErrEmptyCandidateSet = errors.New("empty candidate set")

// Working buffers of one trial, as a multiple of the input size:
// rescaled, lab, lightness, equalized, lab again and the output
const trialBuffers = 6

// The candidates of the original parameter search
func DefaultCandidates() []Params {
	return []Params{
		{Gain: 1.8, Offset: 20},
		{Gain: 2.0, Offset: 25},
		{Gain: 1.6, Offset: 15},
	}
}

// Restores the image once per candidate and returns the result with the highest
// score. The first candidate is the baseline, and a later one replaces the running
// best only if it scores strictly higher, so the earliest candidate wins ties. The
// best result is returned even if no candidate improves the image.
//
// Trials run concurrently, limited by threads and memory; the reduction is done
// in candidate order after all trials have finished, so results are deterministic
func (pl *Pipeline) SelectBest(img *raster.Image, candidates []Params, c *ops.Context) (*Result, error) {
	if len(candidates) == 0 {
		return nil, ErrEmptyCandidateSet
	}
	if err := img.Validate(); err != nil {
		return nil, err
	}
	for i, p := range candidates {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("candidate %d: %w", i, err)
		}
	}

	threads := TrialThreads(img, len(candidates), c)
	fmt.Fprintf(c.Log, "%d: Testing %d candidates with %d threads\n", img.ID, len(candidates), threads)

	tc := *c
	tc.Log = &lockedWriter{w: c.Log}
	results := make([]*Result, len(candidates))
	errs := make([]error, len(candidates))
	limiter := make(chan bool, threads)
	var wg sync.WaitGroup
	for i, p := range candidates {
		limiter <- true
		wg.Add(1)
		go func(i int, p Params) {
			defer func() { <-limiter; wg.Done() }()
			results[i], errs[i] = pl.Restore(img, p, &tc)
			if results[i] != nil {
				results[i].Index = i
			}
		}(i, p)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	best := results[0]
	for _, r := range results[1:] {
		if r.Score > best.Score {
			best = r
		}
	}
	fmt.Fprintf(c.Log, "%d: Best parameters %s with improvement %.2f\n", img.ID, best.Params, best.Score)
	return best, nil
}

// Number of concurrent trials for the given image, bounded by the candidate count,
// the thread limit and the memory budget of the context. At least one
func TrialThreads(img *raster.Image, candidates int, c *ops.Context) int {
	threads := c.MaxThreads
	if candidates < threads {
		threads = candidates
	}
	trialMB := (int64(len(img.Data))*trialBuffers + (1<<20 - 1)) >> 20
	if trialMB > 0 && c.TrialMB > 0 && int64(threads) > int64(c.TrialMB)/trialMB {
		threads = int(int64(c.TrialMB) / trialMB)
	}
	if threads < 1 {
		threads = 1
	}
	return threads
}

// Serializes log output of concurrent trials
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}
