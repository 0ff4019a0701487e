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

package raster

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/valyala/fastrand"
)

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

func TestValidate(t *testing.T) {
	var nilImage *Image
	tcs := []struct {
		name  string
		img   *Image
		valid bool
	}{
		{"nil", nilImage, false},
		{"zero", NewImage(0, 0), false},
		{"zero width", NewImage(0, 5), false},
		{"two channels", &Image{Width: 2, Height: 2, Data: make([]uint8, 8)}, false},
		{"one pixel", NewImage(1, 1), true},
		{"rectangle", NewImage(7, 3), true},
	}
	for _, tc := range tcs {
		err := tc.img.Validate()
		if tc.valid && err != nil {
			t.Errorf("%s: got error %v; want nil", tc.name, err)
		}
		if !tc.valid && !errors.Is(err, ErrInvalidImage) {
			t.Errorf("%s: got error %v; want ErrInvalidImage", tc.name, err)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	img := NewUniform(4, 4, 10, 20, 30)
	c := img.Clone()
	c.Data[0] = 99
	if img.Data[0] != 10 {
		t.Errorf("clone shares data with original")
	}
	if !img.Equal(NewUniform(4, 4, 10, 20, 30)) {
		t.Errorf("original changed")
	}
}

func TestLabRoundTripGray(t *testing.T) {
	for v := 0; v < 256; v++ {
		l8, a8, b8 := RGBToLab8(uint8(v), uint8(v), uint8(v))
		if a8 != NeutralChroma || b8 != NeutralChroma {
			t.Errorf("gray %d: a=%d b=%d; want %d", v, a8, b8, NeutralChroma)
		}
		r, g, b := Lab8ToRGB(l8, a8, b8)
		if absDiff(r, uint8(v)) > 1 || absDiff(g, uint8(v)) > 1 || absDiff(b, uint8(v)) > 1 {
			t.Errorf("gray %d: round trip %d,%d,%d", v, r, g, b)
		}
	}
}

// 8-bit lab steps are coarse near the gamut edge, so RGB does not survive a round
// trip exactly. The lab values of the round-tripped colors must, within one level
func TestLabRoundTripStable(t *testing.T) {
	rng := fastrand.RNG{}
	img := NewImage(64, 64)
	for i := range img.Data {
		img.Data[i] = uint8(rng.Uint32n(256))
	}
	lab := img.ToLab()
	back := lab.ToImage()
	if back.Width != img.Width || back.Height != img.Height {
		t.Fatalf("dimensions %s; want %s", back.DimensionsToString(), img.DimensionsToString())
	}
	again := back.ToLab()
	for i, v := range lab.Data {
		if d := absDiff(v, again.Data[i]); d > 1 {
			t.Errorf("lab[%d]=%d after round trip %d", i, v, again.Data[i])
		}
	}
}

func TestLabLightnessRange(t *testing.T) {
	black, _, _ := RGBToLab8(0, 0, 0)
	white, _, _ := RGBToLab8(255, 255, 255)
	if black != 0 || white != 255 {
		t.Errorf("lightness black=%d white=%d; want 0 and 255", black, white)
	}
}

func TestGrayLevel(t *testing.T) {
	tcs := []struct {
		r, g, b uint8
		want    uint8
	}{
		{0, 0, 0, 0},
		{255, 255, 255, 255},
		{255, 0, 0, 76},
		{0, 255, 0, 150},
		{0, 0, 255, 29},
		{100, 100, 100, 100},
	}
	for _, tc := range tcs {
		if got := GrayLevel(tc.r, tc.g, tc.b); got != tc.want {
			t.Errorf("GrayLevel(%d,%d,%d)=%d; want %d", tc.r, tc.g, tc.b, got, tc.want)
		}
	}
}

func TestDegrade(t *testing.T) {
	img := NewUniform(2, 2, 255, 255, 255)
	out := Degrade(img, 0.3, 50, 0.8, 1.2)
	r, g, b := out.At3(1, 1)
	// 255*0.3+50=126.5 rounds to 127
	if r != 101 || g != 127 || b != 152 {
		t.Errorf("got %d,%d,%d; want 101,127,152", r, g, b)
	}
	if img.Data[0] != 255 {
		t.Errorf("input modified")
	}
}

func TestCorruptedSample(t *testing.T) {
	img := NewCorruptedSample(512, 512)
	if err := img.Validate(); err != nil {
		t.Fatal(err)
	}
	sumR, sumB := 0, 0
	for i := 0; i < len(img.Data); i += Channels {
		sumR += int(img.Data[i])
		sumB += int(img.Data[i+2])
		if img.Data[i+1] < 50 || img.Data[i+1] > 127 {
			t.Fatalf("green %d outside degraded range", img.Data[i+1])
		}
	}
	if sumB <= sumR {
		t.Errorf("blue sum %d not above red sum %d", sumB, sumR)
	}
}

func TestEllipseSample(t *testing.T) {
	img := NewEllipseSample(64, 48)
	r, g, b := img.At3(0, 0)
	if r != 128 || g != 128 || b != 128 {
		t.Errorf("corner %d,%d,%d; want mid-gray", r, g, b)
	}
	r, _, _ = img.At3(32, 24)
	if r != 176 {
		t.Errorf("center %d; want 176", r)
	}
}

func TestSideBySide(t *testing.T) {
	left := NewUniform(3, 2, 1, 1, 1)
	right := NewUniform(4, 3, 2, 2, 2)
	out := SideBySide(left, right)
	if out.Width != 7 || out.Height != 3 {
		t.Fatalf("dimensions %dx%d; want 7x3", out.Width, out.Height)
	}
	if r, _, _ := out.At3(2, 1); r != 1 {
		t.Errorf("left pixel %d; want 1", r)
	}
	if r, _, _ := out.At3(3, 2); r != 2 {
		t.Errorf("right pixel %d; want 2", r)
	}
	if r, _, _ := out.At3(0, 2); r != 0 {
		t.Errorf("padding %d; want 0", r)
	}
}

func TestAnalysisFigureMaxWidth(t *testing.T) {
	a := NewUniform(100, 50, 10, 10, 10)
	fig := AnalysisFigure(a, a, "Restored", 120)
	if w := fig.Bounds().Dx(); w != 120 {
		t.Errorf("width %d; want 120", w)
	}
	fig = AnalysisFigure(a, a, "Restored", 0)
	if w, h := fig.Bounds().Dx(), fig.Bounds().Dy(); w != 200 || h != 2*(50+titleBarHeight) {
		t.Errorf("dimensions %dx%d", w, h)
	}
}

func TestWriteReadPNG(t *testing.T) {
	rng := fastrand.RNG{}
	img := NewImage(17, 9)
	for i := range img.Data {
		img.Data[i] = uint8(rng.Uint32n(256))
	}
	fileName := filepath.Join(t.TempDir(), "out.png")
	if err := img.WriteFile(fileName, 95); err != nil {
		t.Fatal(err)
	}
	back, format, err := ReadFile(fileName, 3)
	if err != nil {
		t.Fatal(err)
	}
	if format != "png" || back.ID != 3 || back.FileName != fileName {
		t.Errorf("format %s id %d file %s", format, back.ID, back.FileName)
	}
	if !back.Equal(img) {
		t.Errorf("png round trip not lossless")
	}
}

func TestWriteTIFF(t *testing.T) {
	img := NewUniform(8, 8, 30, 60, 90)
	fileName := filepath.Join(t.TempDir(), "out.tif")
	if err := img.WriteFile(fileName, 0); err != nil {
		t.Fatal(err)
	}
	back, format, err := ReadFile(fileName, 0)
	if err != nil {
		t.Fatal(err)
	}
	if format != "tiff" || !back.Equal(img) {
		t.Errorf("format %s equal %v", format, back.Equal(img))
	}
}

func TestWriteUnknownSuffix(t *testing.T) {
	err := NewImage(1, 1).WriteFile(filepath.Join(t.TempDir(), "out.xyz"), 95)
	if !errors.Is(err, ErrUnknownSuffix) {
		t.Errorf("got %v; want ErrUnknownSuffix", err)
	}
}
