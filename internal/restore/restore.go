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
	"math"

	"github.com/mlnoga/daylight/internal/ops"
	"github.com/mlnoga/daylight/internal/ops/balance"
	"github.com/mlnoga/daylight/internal/ops/enhance"
	"github.com/mlnoga/daylight/internal/raster"
	"github.com/mlnoga/daylight/internal/stats"
)

// Returned for a non-positive or non-finite gain, or a non-finite offset
var ErrInvalidParams = errors.New("invalid restoration parameters")

// The two numeric parameters of one restoration run
type Params struct {
	Gain   float64 `json:"gain" yaml:"gain"`     // contrast gain, >0
	Offset float64 `json:"offset" yaml:"offset"` // brightness offset, either sign
}

func (p Params) Validate() error {
	if !(p.Gain > 0) || math.IsInf(p.Gain, 0) {
		return fmt.Errorf("%w: gain %g", ErrInvalidParams, p.Gain)
	}
	if math.IsNaN(p.Offset) || math.IsInf(p.Offset, 0) {
		return fmt.Errorf("%w: offset %g", ErrInvalidParams, p.Offset)
	}
	return nil
}

func (p Params) String() string {
	return fmt.Sprintf("gain=%.3g, offset=%.3g", p.Gain, p.Offset)
}

// Outcome of one restoration run
type Result struct {
	Input  *raster.Image
	Output *raster.Image
	Before stats.Metrics
	After  stats.Metrics
	Params Params
	Score  float64 // improvement from Before to After
	Index  int     // position in the candidate list of a search
}

// The fixed restoration sequence: rescale, equalize lightness, white balance.
// Only the settings of the steps vary, never their order
type Pipeline struct {
	Equalize *enhance.OpLocalEqualize `json:"equalize"`
	Balance  *balance.OpWhiteBalance  `json:"balance"`
}

func NewPipeline() *Pipeline {
	return &Pipeline{
		Equalize: enhance.NewOpLocalEqualizeDefault(),
		Balance:  balance.NewOpWhiteBalanceDefault(),
	}
}

// Builds the operator sequence for the given parameters
func (pl *Pipeline) sequence(p Params) *ops.OpSequence {
	eq, wb := pl.Equalize, pl.Balance
	if eq == nil {
		eq = enhance.NewOpLocalEqualizeDefault()
	}
	if wb == nil {
		wb = balance.NewOpWhiteBalanceDefault()
	}
	return ops.NewOpSequence(enhance.NewOpEnhance(enhance.NewOpScaleOffset(p.Gain, p.Offset), eq), wb)
}

// Restores the given image with the given parameters. The image is validated
// before any pixel is touched, and never modified
func (pl *Pipeline) Restore(img *raster.Image, p Params, c *ops.Context) (*Result, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	fmt.Fprintf(c.Log, "%d: Applying restoration with %s\n", img.ID, p)

	before := stats.Measure(img)
	fmt.Fprintf(c.Log, "%d: Original - %s\n", img.ID, before)

	out, err := pl.sequence(p).Apply(img, c)
	if err != nil {
		return nil, err
	}

	after := stats.Measure(out)
	fmt.Fprintf(c.Log, "%d: Restored - %s\n", img.ID, after)
	fmt.Fprintf(c.Log, "%d: Improvement - Contrast: %+.2f, Brightness: %+.2f\n", img.ID,
		after.Contrast-before.Contrast, after.Brightness-before.Brightness)

	return &Result{
		Input:  img,
		Output: out,
		Before: before,
		After:  after,
		Params: p,
		Score:  stats.Improvement(before, after),
	}, nil
}
