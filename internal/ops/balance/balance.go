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

package balance

import (
	"encoding/json"
	"fmt"

	"github.com/mlnoga/daylight/internal/ops"
	"github.com/mlnoga/daylight/internal/raster"
)

// Automatic white balance in Lab space. The global chroma cast (avgA-128, avgB-128)
// is subtracted from every pixel, weighted by its lightness L/255 and by Strength
type OpWhiteBalance struct {
	ops.OpBase
	Strength float64 `json:"strength"`
}

var _ ops.Operator = (*OpWhiteBalance)(nil) // this type is an Operator

func NewOpWhiteBalanceDefault() *OpWhiteBalance { return NewOpWhiteBalance(1.1) }

func NewOpWhiteBalance(strength float64) *OpWhiteBalance {
	return &OpWhiteBalance{
		OpBase:   ops.OpBase{Type: "whiteBalance", Active: true},
		Strength: strength,
	}
}

// Unmarshal the type from JSON with default values for missing entries
func (op *OpWhiteBalance) UnmarshalJSON(data []byte) error {
	type defaults OpWhiteBalance
	def := defaults(*NewOpWhiteBalanceDefault())
	err := json.Unmarshal(data, &def)
	if err != nil {
		return err
	}
	*op = OpWhiteBalance(def)
	return nil
}

func (op *OpWhiteBalance) Apply(f *raster.Image, c *ops.Context) (result *raster.Image, err error) {
	lab := f.ToLab()
	avgA, avgB := ChromaAverages(lab)
	fmt.Fprintf(c.Log, "%d: White balancing chroma averages a=%.2f b=%.2f with strength %.3g\n", f.ID, avgA, avgB, op.Strength)
	op.Correct(lab, avgA, avgB)
	result = lab.ToImage()
	result.ID, result.FileName = f.ID, f.FileName
	return result, nil
}

// Shifts the chroma channels of the given lab image in place, away from the given averages
func (op *OpWhiteBalance) Correct(lab *raster.Lab, avgA, avgB float64) {
	castA, castB := (avgA-raster.NeutralChroma)*op.Strength, (avgB-raster.NeutralChroma)*op.Strength
	if castA == 0 && castB == 0 {
		return
	}
	for i := 0; i < len(lab.Data); i += raster.Channels {
		weight := float64(lab.Data[i]) / 255
		lab.Data[i+1] = raster.ClampUint8(float64(lab.Data[i+1]) - castA*weight)
		lab.Data[i+2] = raster.ClampUint8(float64(lab.Data[i+2]) - castB*weight)
	}
}

// Mean values of the two chroma channels over all pixels
func ChromaAverages(lab *raster.Lab) (avgA, avgB float64) {
	pixels := len(lab.Data) / raster.Channels
	if pixels == 0 {
		return raster.NeutralChroma, raster.NeutralChroma
	}
	sumA, sumB := int64(0), int64(0)
	for i := 0; i < len(lab.Data); i += raster.Channels {
		sumA += int64(lab.Data[i+1])
		sumB += int64(lab.Data[i+2])
	}
	return float64(sumA) / float64(pixels), float64(sumB) / float64(pixels)
}
