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

package stats

import (
	"fmt"

	"github.com/mlnoga/daylight/internal/raster"
	"gonum.org/v1/gonum/stat"
)

// Quality metrics of an image, computed on its 8-bit gray luminance
type Metrics struct {
	Contrast   float64 `json:"contrast"`   // population standard deviation
	Brightness float64 `json:"brightness"` // arithmetic mean
}

// Computes contrast and brightness of a non-empty image
func Measure(img *raster.Image) Metrics {
	gray := img.Gray()
	data := make([]float64, len(gray))
	for i, g := range gray {
		data[i] = float64(g)
	}
	mean, std := stat.PopMeanStdDev(data, nil)
	return Metrics{Contrast: std, Brightness: mean}
}

// Combined gain in contrast and brightness from before to after
func Improvement(before, after Metrics) float64 {
	return (after.Contrast - before.Contrast) + (after.Brightness - before.Brightness)
}

func (m Metrics) String() string {
	return fmt.Sprintf("Contrast: %.2f, Brightness: %.2f", m.Contrast, m.Brightness)
}
