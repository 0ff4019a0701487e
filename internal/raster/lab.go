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
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Neutral value of the 8-bit chrominance channels
const NeutralChroma = 128

// An 8-bit CIE L*a*b* image with D65 white, interleaved like Image.
// Channel 0 is lightness scaled from [0,100] to [0,255]. Channels 1 and 2
// are a* and b* offset by NeutralChroma.
type Lab struct {
	Width  int
	Height int
	Data   []uint8
}

// Creates a new lab image of the given dimensions, with all values zero
func NewLab(width, height int) *Lab {
	return &Lab{Width: width, Height: height, Data: make([]uint8, width*height*Channels)}
}

// Deep copy
func (l *Lab) Clone() *Lab {
	out := NewLab(l.Width, l.Height)
	copy(out.Data, l.Data)
	return out
}

// Converts an RGB color to 8-bit lab
func RGBToLab8(r, g, b uint8) (l8, a8, b8 uint8) {
	col := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
	l, a, bb := col.Lab()
	return ClampUint8(l * 255), ClampUint8(a*100 + NeutralChroma), ClampUint8(bb*100 + NeutralChroma)
}

// Converts an 8-bit lab color back to RGB. Out of gamut colors are clamped
func Lab8ToRGB(l8, a8, b8 uint8) (r, g, b uint8) {
	l := float64(l8) / 255
	a := (float64(a8) - NeutralChroma) / 100
	bb := (float64(b8) - NeutralChroma) / 100
	return colorful.Lab(l, a, bb).Clamped().RGB255()
}

// Converts an RGB image into a new lab image.
// Identical colors are converted only once
func (img *Image) ToLab() *Lab {
	out := NewLab(img.Width, img.Height)
	cache := map[uint32]uint32{}
	for i := 0; i < len(img.Data); i += Channels {
		r, g, b := img.Data[i], img.Data[i+1], img.Data[i+2]
		key := uint32(r)<<16 | uint32(g)<<8 | uint32(b)
		val, ok := cache[key]
		if !ok {
			l8, a8, b8 := RGBToLab8(r, g, b)
			val = uint32(l8)<<16 | uint32(a8)<<8 | uint32(b8)
			cache[key] = val
		}
		out.Data[i], out.Data[i+1], out.Data[i+2] = uint8(val>>16), uint8(val>>8), uint8(val)
	}
	return out
}

// Converts a lab image into a new RGB image
func (l *Lab) ToImage() *Image {
	out := NewImage(l.Width, l.Height)
	cache := map[uint32]uint32{}
	for i := 0; i < len(l.Data); i += Channels {
		l8, a8, b8 := l.Data[i], l.Data[i+1], l.Data[i+2]
		key := uint32(l8)<<16 | uint32(a8)<<8 | uint32(b8)
		val, ok := cache[key]
		if !ok {
			r, g, b := Lab8ToRGB(l8, a8, b8)
			val = uint32(r)<<16 | uint32(g)<<8 | uint32(b)
			cache[key] = val
		}
		out.Data[i], out.Data[i+1], out.Data[i+2] = uint8(val>>16), uint8(val>>8), uint8(val)
	}
	return out
}

// Extracts the given channel into a new single-channel array
func (l *Lab) Channel(c int) []uint8 {
	out := make([]uint8, l.Width*l.Height)
	for i := range out {
		out[i] = l.Data[i*Channels+c]
	}
	return out
}

// Overwrites the given channel from a single-channel array
func (l *Lab) SetChannel(c int, data []uint8) {
	for i, v := range data {
		l.Data[i*Channels+c] = v
	}
}
