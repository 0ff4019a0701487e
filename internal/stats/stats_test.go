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
	"math"
	"testing"

	"github.com/mlnoga/daylight/internal/raster"
	"github.com/valyala/fastrand"
)

func TestMeasureUniform(t *testing.T) {
	for _, v := range []uint8{0, 1, 77, 128, 254, 255} {
		m := Measure(raster.NewUniform(13, 7, v, v, v))
		if m.Contrast != 0 {
			t.Errorf("uniform %d: contrast %f; want 0", v, m.Contrast)
		}
		if m.Brightness != float64(v) {
			t.Errorf("uniform %d: brightness %f; want %d", v, m.Brightness, v)
		}
	}
}

func TestMeasureTwoLevels(t *testing.T) {
	img := raster.NewImage(2, 1)
	img.Set3(0, 0, 0, 0, 0)
	img.Set3(1, 0, 200, 200, 200)
	m := Measure(img)
	// population standard deviation of {0, 200} is 100, sample would be 141.4
	if math.Abs(m.Contrast-100) > 1e-9 || math.Abs(m.Brightness-100) > 1e-9 {
		t.Errorf("got %v; want contrast 100 brightness 100", m)
	}
}

func TestMeasureRandomMatchesDefinition(t *testing.T) {
	rng := fastrand.RNG{}
	img := raster.NewImage(31, 17)
	for i := range img.Data {
		img.Data[i] = uint8(rng.Uint32n(256))
	}
	gray := img.Gray()
	sum := 0.0
	for _, g := range gray {
		sum += float64(g)
	}
	mean := sum / float64(len(gray))
	sq := 0.0
	for _, g := range gray {
		d := float64(g) - mean
		sq += d * d
	}
	std := math.Sqrt(sq / float64(len(gray)))

	m := Measure(img)
	if math.Abs(m.Brightness-mean) > 1e-9 || math.Abs(m.Contrast-std) > 1e-9 {
		t.Errorf("got %v; want mean %f std %f", m, mean, std)
	}
	if m.Brightness < 0 || m.Brightness > 255 || m.Contrast < 0 {
		t.Errorf("metrics out of range: %v", m)
	}
}

func TestImprovement(t *testing.T) {
	before := Metrics{Contrast: 10, Brightness: 100}
	after := Metrics{Contrast: 30, Brightness: 90}
	if got := Improvement(before, after); got != 10 {
		t.Errorf("got %f; want 10", got)
	}
}

func TestClipHistogramPreservesTotal(t *testing.T) {
	rng := fastrand.RNG{}
	for iter := 0; iter < 100; iter++ {
		var bins [Bins]int32
		total := int32(0)
		for i := 0; i < 1000; i++ {
			// skewed towards low bins so clipping happens
			b := rng.Uint32n(1+rng.Uint32n(Bins)) % Bins
			bins[b]++
			total++
		}
		limit := int32(1 + rng.Uint32n(20))
		ClipHistogram(&bins, limit)
		sum := int32(0)
		for _, v := range bins {
			sum += v
		}
		if sum != total {
			t.Fatalf("limit %d: sum after clipping %d; want %d", limit, sum, total)
		}
	}
}

func TestClipHistogramLimit(t *testing.T) {
	var bins [Bins]int32
	bins[10] = 256*3 + 100
	ClipHistogram(&bins, 100)
	// excess 768 spreads as 3 per bin
	if bins[10] != 103 || bins[0] != 3 || bins[255] != 3 {
		t.Errorf("bins[10]=%d bins[0]=%d bins[255]=%d; want 103 3 3", bins[10], bins[0], bins[255])
	}
}

func TestEqualizationLUT(t *testing.T) {
	var bins [Bins]int32
	bins[0], bins[255] = 50, 50
	lut := EqualizationLUT(&bins, 100)
	if lut[0] != 128 || lut[254] != 128 || lut[255] != 255 {
		t.Errorf("lut[0]=%d lut[254]=%d lut[255]=%d; want 128 128 255", lut[0], lut[254], lut[255])
	}
	for i := 1; i < Bins; i++ {
		if lut[i] < lut[i-1] {
			t.Fatalf("lut not monotonic at %d", i)
		}
	}
}

func TestEqualizationLUTRoundsHalvesUp(t *testing.T) {
	for _, total := range []int{2, 10, 100, 4096} {
		var bins [Bins]int32
		bins[0], bins[255] = int32(total/2), int32(total-total/2)
		if lut := EqualizationLUT(&bins, total); lut[0] != 128 {
			t.Errorf("total %d: lut[0]=%d; want 128", total, lut[0])
		}
	}
}

func TestGetPeakAndOccupied(t *testing.T) {
	bins := Histogram256([]uint8{3, 7, 7, 9, 3})
	x, y := GetPeak(&bins)
	if x != 3 || y != 2 {
		t.Errorf("peak at %d with %d; want 3 with 2", x, y)
	}
	if n := Occupied(&bins); n != 3 {
		t.Errorf("occupied %d; want 3", n)
	}
}
