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
	"github.com/fogleman/gg"
)

// Creates an image filled with a single color
func NewUniform(width, height int, r, g, b uint8) *Image {
	img := NewImage(width, height)
	for i := 0; i < len(img.Data); i += Channels {
		img.Data[i], img.Data[i+1], img.Data[i+2] = r, g, b
	}
	return img
}

// Creates a mid-gray image with a brighter ellipse in the center
func NewEllipseSample(width, height int) *Image {
	dc := gg.NewContext(width, height)
	dc.SetRGB255(128, 128, 128)
	dc.Clear()
	dc.SetRGB255(176, 176, 176)
	dc.DrawEllipse(float64(width)/2, float64(height)/2, float64(width)/8, float64(height)/6)
	dc.Fill()
	return FromImage(dc.Image())
}

// Creates a synthetic portrait and degrades it with low contrast and a
// blue color cast. Coordinates are laid out for 512x512 and scaled otherwise
func NewCorruptedSample(width, height int) *Image {
	dc := gg.NewContext(width, height)
	sx, sy := float64(width)/512, float64(height)/512
	dc.Scale(sx, sy)

	dc.SetRGB255(0, 0, 0)
	dc.Clear()

	dc.SetRGB255(150, 200, 255) // face
	dc.DrawEllipse(256, 200, 80, 100)
	dc.Fill()

	dc.SetRGB255(255, 255, 255) // eyes
	dc.DrawCircle(220, 180, 15)
	dc.DrawCircle(292, 180, 15)
	dc.Fill()

	dc.SetRGB255(0, 0, 0) // pupils
	dc.DrawCircle(220, 180, 7)
	dc.DrawCircle(292, 180, 7)
	dc.Fill()

	dc.SetRGB255(100, 100, 150) // mouth
	dc.DrawEllipse(256, 230, 40, 20)
	dc.Fill()

	dc.SetRGB255(255, 255, 255)
	dc.DrawString("SAMPLE STUDENT PHOTO", 100, 400)
	dc.SetRGB255(200, 200, 200)
	dc.DrawString("Corrupted Version", 150, 450)

	img := FromImage(dc.Image())
	img.FileName = "sample"
	return Degrade(img, 0.3, 50, 0.8, 1.2)
}

// Reduces contrast with a saturated affine map, then scales the red and blue
// channels with truncation. Returns a new image
func Degrade(img *Image, gain, offset, redFactor, blueFactor float64) *Image {
	out := NewImageFromImage(img)
	for i := 0; i < len(img.Data); i += Channels {
		r := ClampUint8(float64(img.Data[i])*gain + offset)
		g := ClampUint8(float64(img.Data[i+1])*gain + offset)
		b := ClampUint8(float64(img.Data[i+2])*gain + offset)
		out.Data[i] = truncUint8(float64(r) * redFactor)
		out.Data[i+1] = g
		out.Data[i+2] = truncUint8(float64(b) * blueFactor)
	}
	return out
}

func truncUint8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}
