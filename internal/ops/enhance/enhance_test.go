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
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mlnoga/daylight/internal/ops"
	"github.com/mlnoga/daylight/internal/raster"
	"github.com/valyala/fastrand"
)

func TestScaleOffsetLUT(t *testing.T) {
	tcs := []struct {
		gain, offset float64
		in, want     uint8
	}{
		{1.8, 20, 0, 20},
		{1.8, 20, 100, 200},
		{1.8, 20, 200, 255},
		{2.0, -50, 10, 0},
		{1.0, 0, 77, 77},
		{0.5, 0, 3, 2}, // 1.5 rounds up
	}
	for _, tc := range tcs {
		lut := NewOpScaleOffset(tc.gain, tc.offset).LUT()
		if got := lut[tc.in]; got != tc.want {
			t.Errorf("gain %g offset %g: %d -> %d; want %d", tc.gain, tc.offset, tc.in, got, tc.want)
		}
	}
}

func TestScaleOffsetMonotonicInGain(t *testing.T) {
	gains := []float64{0.5, 1.0, 1.6, 1.8, 2.0, 3.5}
	for _, offset := range []float64{-20, 0, 15, 25} {
		for i := 1; i < len(gains); i++ {
			lo, hi := NewOpScaleOffset(gains[i-1], offset).LUT(), NewOpScaleOffset(gains[i], offset).LUT()
			for v := 129; v < 256; v++ {
				if hi[v] < lo[v] {
					t.Errorf("offset %g: v=%d gain %g -> %d above gain %g -> %d", offset, v, gains[i-1], lo[v], gains[i], hi[v])
				}
			}
		}
	}
}

func TestScaleOffsetApply(t *testing.T) {
	c := ops.NewContext(nil)
	in := raster.NewUniform(5, 4, 10, 100, 200)
	out, err := NewOpScaleOffset(1.8, 20).Apply(in, c)
	if err != nil {
		t.Fatal(err)
	}
	if out.Width != 5 || out.Height != 4 {
		t.Errorf("dimensions %s", out.DimensionsToString())
	}
	if r, g, b := out.At3(4, 3); r != 38 || g != 200 || b != 255 {
		t.Errorf("got %d,%d,%d; want 38,200,255", r, g, b)
	}
	if !in.Equal(raster.NewUniform(5, 4, 10, 100, 200)) {
		t.Errorf("input modified")
	}
}

func TestEqualizeUniformIsIdentity(t *testing.T) {
	op := NewOpLocalEqualizeDefault()
	for _, v := range []uint8{0, 90, 255} {
		data := make([]uint8, 40*30)
		for i := range data {
			data[i] = v
		}
		out := op.Equalize(data, 40, 30)
		for i, o := range out {
			if o != v {
				t.Fatalf("level %d: out[%d]=%d", v, i, o)
			}
		}
	}
}

func TestEqualizeSingleTileIsGlobal(t *testing.T) {
	op := NewOpLocalEqualize(0, 1, 1)
	data := make([]uint8, 10*10)
	for i := range data {
		if i < 50 {
			data[i] = 50
		} else {
			data[i] = 200
		}
	}
	out := op.Equalize(data, 10, 10)
	if out[0] != 128 || out[99] != 255 {
		t.Errorf("out[0]=%d out[99]=%d; want 128 and 255", out[0], out[99])
	}
}

func TestEqualizeStretchesLowContrast(t *testing.T) {
	rng := fastrand.RNG{}
	width, height := 64, 64
	data := make([]uint8, width*height)
	for i := range data {
		data[i] = uint8(100 + rng.Uint32n(20))
	}
	out := NewOpLocalEqualizeDefault().Equalize(data, width, height)
	minIn, maxIn, minOut, maxOut := uint8(255), uint8(0), uint8(255), uint8(0)
	for i := range data {
		if data[i] < minIn {
			minIn = data[i]
		}
		if data[i] > maxIn {
			maxIn = data[i]
		}
		if out[i] < minOut {
			minOut = out[i]
		}
		if out[i] > maxOut {
			maxOut = out[i]
		}
	}
	if int(maxOut)-int(minOut) <= int(maxIn)-int(minIn) {
		t.Errorf("range in [%d,%d] out [%d,%d]; want wider output", minIn, maxIn, minOut, maxOut)
	}
}

func TestEqualizeTinyImage(t *testing.T) {
	data := []uint8{0, 10, 20, 30, 40, 50}
	out := NewOpLocalEqualizeDefault().Equalize(data, 3, 2)
	if len(out) != len(data) {
		t.Fatalf("length %d; want %d", len(out), len(data))
	}
	if out := NewOpLocalEqualizeDefault().Equalize(nil, 0, 0); len(out) != 0 {
		t.Errorf("empty input gave %d values", len(out))
	}
}

func TestLocalEqualizeKeepsGrayNeutral(t *testing.T) {
	c := ops.NewContext(nil)
	in := raster.NewEllipseSample(96, 64)
	out, err := NewOpLocalEqualizeDefault().Apply(in, c)
	if err != nil {
		t.Fatal(err)
	}
	if out.Width != in.Width || out.Height != in.Height {
		t.Fatalf("dimensions %s; want %s", out.DimensionsToString(), in.DimensionsToString())
	}
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			r, g, b := out.At3(x, y)
			if absDiff(r, g) > 1 || absDiff(g, b) > 1 {
				t.Fatalf("(%d,%d) not gray: %d,%d,%d", x, y, r, g, b)
			}
		}
	}
}

func TestLocalEqualizeLogsLightnessPeak(t *testing.T) {
	var buf bytes.Buffer
	c := ops.NewContext(&buf)
	in := raster.NewImage(4, 4)
	in.ID = 3
	if _, err := NewOpLocalEqualizeDefault().Apply(in, c); err != nil {
		t.Fatal(err)
	}
	want := "3: Lightness peak 0 with 16 pixels, 1 of 256 levels occupied\n"
	if !strings.Contains(buf.String(), want) {
		t.Errorf("log lacks %q:\n%s", want, buf.String())
	}
}

func TestEnhanceSequence(t *testing.T) {
	c := ops.NewContext(nil)
	in := raster.NewCorruptedSample(128, 128)
	out, err := NewOpEnhance(NewOpScaleOffsetDefault(), NewOpLocalEqualizeDefault()).Apply(in, c)
	if err != nil {
		t.Fatal(err)
	}
	if out.Width != 128 || out.Height != 128 || len(out.Data) != 128*128*3 {
		t.Errorf("dimensions %s", out.DimensionsToString())
	}
	if out.Equal(in) {
		t.Errorf("enhancement had no effect")
	}
}

func TestUnmarshalDefaults(t *testing.T) {
	var eq OpLocalEqualize
	if err := json.Unmarshal([]byte(`{"clipLimit":3}`), &eq); err != nil {
		t.Fatal(err)
	}
	if eq.ClipLimit != 3 || eq.TilesX != 8 || eq.TilesY != 8 || !eq.Active {
		t.Errorf("got %+v", eq)
	}
	var so OpScaleOffset
	if err := json.Unmarshal([]byte(`{"offset":5}`), &so); err != nil {
		t.Fatal(err)
	}
	if so.Gain != 1.8 || so.Offset != 5 {
		t.Errorf("got %+v", so)
	}
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
