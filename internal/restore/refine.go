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
	"fmt"
	"io"

	"github.com/mlnoga/daylight/internal/ops"
	"github.com/mlnoga/daylight/internal/raster"
	"gonum.org/v1/gonum/optimize"
)

// Settings for the local refinement of a selected candidate
type RefineSettings struct {
	MaxEvaluations int     `json:"maxEvaluations" yaml:"maxEvaluations"` // pipeline runs, <=0 disables refinement
	MinGain        float64 `json:"minGain" yaml:"minGain"`               // lower bound for the gain
}

func NewRefineSettingsDefault() RefineSettings {
	return RefineSettings{MaxEvaluations: 30, MinGain: 0.1}
}

// Offsets are searched in units of this, so both coordinates have similar scale
const offsetScale = 10

// Refines the parameters of the given start result with a Nelder-Mead search
// maximizing the same score. Returns the best result seen, which is never
// worse than the start and keeps its candidate index
func (pl *Pipeline) Refine(img *raster.Image, start *Result, settings RefineSettings, c *ops.Context) (*Result, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	if start == nil || settings.MaxEvaluations <= 0 {
		return start, nil
	}
	fmt.Fprintf(c.Log, "%d: Refining %s with up to %d evaluations\n", img.ID, start.Params, settings.MaxEvaluations)

	quiet := *c
	quiet.Log = io.Discard
	best, evals := start, 0
	var evalErr error
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			p := Params{Gain: x[0], Offset: x[1] * offsetScale}
			if p.Gain < settings.MinGain {
				p.Gain = settings.MinGain
			}
			r, err := pl.Restore(img, p, &quiet)
			evals++
			if err != nil {
				evalErr = err
				return 0
			}
			if r.Score > best.Score {
				r.Index = start.Index
				best = r
			}
			return -r.Score
		},
	}
	x0 := []float64{start.Params.Gain, start.Params.Offset / offsetScale}
	_, err := optimize.Minimize(problem, x0, &optimize.Settings{FuncEvaluations: settings.MaxEvaluations},
		&optimize.NelderMead{SimplexSize: 0.1})
	if evalErr != nil {
		return nil, evalErr
	}
	if err != nil {
		// the best point seen so far is still valid
		fmt.Fprintf(c.Log, "%d: Refinement stopped: %s\n", img.ID, err.Error())
	}
	fmt.Fprintf(c.Log, "%d: Refined to %s with improvement %.2f after %d evaluations\n", img.ID, best.Params, best.Score, evals)
	return best, nil
}
