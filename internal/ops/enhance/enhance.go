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

package enhance

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/mlnoga/daylight/internal/ops"
	"github.com/mlnoga/daylight/internal/raster"
	"github.com/mlnoga/daylight/internal/stats"
)

// Creates the fixed enhancement sequence: affine rescale, then local equalization of lightness
func NewOpEnhance(opScaleOffset *OpScaleOffset, opLocalEqualize *OpLocalEqualize) *ops.OpSequence {
	return ops.NewOpSequence(opScaleOffset, opLocalEqualize)
}

// Affine intensity rescale with saturation. Every channel value v becomes
// clamp(round(v*Gain+Offset), 0, 255)
type OpScaleOffset struct {
	ops.OpBase
	Gain   float64 `json:"gain"`
	Offset float64 `json:"offset"`
}

var _ ops.Operator = (*OpScaleOffset)(nil) // this type is an Operator

func NewOpScaleOffsetDefault() *OpScaleOffset { return NewOpScaleOffset(1.8, 20) }

func NewOpScaleOffset(gain, offset float64) *OpScaleOffset {
	return &OpScaleOffset{
		OpBase: ops.OpBase{Type: "scaleOffset", Active: true},
		Gain:   gain,
		Offset: offset,
	}
}

// Unmarshal the type from JSON with default values for missing entries
func (op *OpScaleOffset) UnmarshalJSON(data []byte) error {
	type defaults OpScaleOffset
	def := defaults(*NewOpScaleOffsetDefault())
	err := json.Unmarshal(data, &def)
	if err != nil {
		return err
	}
	*op = OpScaleOffset(def)
	return nil
}

// The lookup table implementing the rescale
func (op *OpScaleOffset) LUT() (lut [stats.Bins]uint8) {
	for v := range lut {
		lut[v] = raster.ClampUint8(float64(v)*op.Gain + op.Offset)
	}
	return lut
}

func (op *OpScaleOffset) Apply(f *raster.Image, c *ops.Context) (result *raster.Image, err error) {
	fmt.Fprintf(c.Log, "%d: Rescaling x = x * %.3g + %.3g\n", f.ID, op.Gain, op.Offset)
	lut := op.LUT()
	result = raster.NewImageFromImage(f)
	for i, v := range f.Data {
		result.Data[i] = lut[v]
	}
	return result, nil
}

// Contrast-limited adaptive histogram equalization of the lightness channel.
// Chrominance is left untouched
type OpLocalEqualize struct {
	ops.OpBase
	ClipLimit float64 `json:"clipLimit"` // bin limit as multiple of the average bin count. <=0 disables clipping
	TilesX    int     `json:"tilesX"`    // number of tiles horizontally
	TilesY    int     `json:"tilesY"`    // number of tiles vertically
}

var _ ops.Operator = (*OpLocalEqualize)(nil) // this type is an Operator

func NewOpLocalEqualizeDefault() *OpLocalEqualize { return NewOpLocalEqualize(2.0, 8, 8) }

func NewOpLocalEqualize(clipLimit float64, tilesX, tilesY int) *OpLocalEqualize {
	return &OpLocalEqualize{
		OpBase:    ops.OpBase{Type: "localEqualize", Active: true},
		ClipLimit: clipLimit,
		TilesX:    tilesX,
		TilesY:    tilesY,
	}
}

// Unmarshal the type from JSON with default values for missing entries
func (op *OpLocalEqualize) UnmarshalJSON(data []byte) error {
	type defaults OpLocalEqualize
	def := defaults(*NewOpLocalEqualizeDefault())
	err := json.Unmarshal(data, &def)
	if err != nil {
		return err
	}
	*op = OpLocalEqualize(def)
	return nil
}

func (op *OpLocalEqualize) Apply(f *raster.Image, c *ops.Context) (result *raster.Image, err error) {
	fmt.Fprintf(c.Log, "%d: Equalizing lightness with clip limit %.3g on %dx%d tiles\n", f.ID, op.ClipLimit, op.TilesX, op.TilesY)
	lab := f.ToLab()
	l := lab.Channel(0)
	bins := stats.Histogram256(l)
	peak, count := stats.GetPeak(&bins)
	fmt.Fprintf(c.Log, "%d: Lightness peak %d with %d pixels, %d of %d levels occupied\n", f.ID, peak, count, stats.Occupied(&bins), stats.Bins)
	lab.SetChannel(0, op.Equalize(l, f.Width, f.Height))
	result = lab.ToImage()
	result.ID, result.FileName = f.ID, f.FileName
	return result, nil
}

// Equalizes a single-channel array of the given width and height, returning a new array.
// Each tile gets its own clipped equalization table; values are bilinearly interpolated
// between the tables of the four nearest tile centers
func (op *OpLocalEqualize) Equalize(data []uint8, width, height int) []uint8 {
	if width <= 0 || height <= 0 {
		return append([]uint8(nil), data...)
	}
	tilesX, tilesY := clampInt(op.TilesX, 1, width), clampInt(op.TilesY, 1, height)
	tileW, tileH := (width+tilesX-1)/tilesX, (height+tilesY-1)/tilesY
	tilesX, tilesY = (width+tileW-1)/tileW, (height+tileH-1)/tileH

	luts := make([][stats.Bins]uint8, tilesX*tilesY)
	tile := make([]uint8, 0, tileW*tileH)
	for ty := 0; ty < tilesY; ty++ {
		y0, y1 := ty*tileH, minInt((ty+1)*tileH, height)
		for tx := 0; tx < tilesX; tx++ {
			x0, x1 := tx*tileW, minInt((tx+1)*tileW, width)
			tile = tile[:0]
			for y := y0; y < y1; y++ {
				tile = append(tile, data[y*width+x0:y*width+x1]...)
			}
			luts[ty*tilesX+tx] = op.tileLUT(tile)
		}
	}

	// horizontal interpolation positions are the same for every row
	xLeft, xRight := make([]int, width), make([]int, width)
	xWeight := make([]float64, width)
	for x := 0; x < width; x++ {
		xLeft[x], xRight[x], xWeight[x] = neighbors(x, tileW, tilesX)
	}

	out := make([]uint8, len(data))
	for y := 0; y < height; y++ {
		top, bottom, ya := neighbors(y, tileH, tilesY)
		rowTop, rowBottom := luts[top*tilesX:(top+1)*tilesX], luts[bottom*tilesX:(bottom+1)*tilesX]
		for x := 0; x < width; x++ {
			v := data[y*width+x]
			l, r, xa := xLeft[x], xRight[x], xWeight[x]
			upper := float64(rowTop[l][v])*(1-xa) + float64(rowTop[r][v])*xa
			lower := float64(rowBottom[l][v])*(1-xa) + float64(rowBottom[r][v])*xa
			out[y*width+x] = raster.ClampUint8(upper*(1-ya) + lower*ya)
		}
	}
	return out
}

// Builds the clipped equalization table for the values of one tile.
// Tiles of a single level are already equalized and map onto themselves
func (op *OpLocalEqualize) tileLUT(tile []uint8) [stats.Bins]uint8 {
	bins := stats.Histogram256(tile)
	if stats.Occupied(&bins) <= 1 {
		return stats.IdentityLUT()
	}
	if op.ClipLimit > 0 {
		limit := int32(op.ClipLimit * float64(len(tile)) / stats.Bins)
		if limit < 1 {
			limit = 1
		}
		stats.ClipHistogram(&bins, limit)
	}
	return stats.EqualizationLUT(&bins, len(tile))
}

// Returns the two tiles to interpolate between for the given pixel coordinate,
// and the weight of the second one
func neighbors(pos, tileSize, tiles int) (first, second int, weight float64) {
	f := float64(pos)/float64(tileSize) - 0.5
	first = int(math.Floor(f))
	weight = f - float64(first)
	second = first + 1
	if first < 0 {
		first = 0
	}
	if second > tiles-1 {
		second = tiles - 1
	}
	if first > tiles-1 {
		first = tiles - 1
	}
	return first, second, weight
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
