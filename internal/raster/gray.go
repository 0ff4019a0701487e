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

// Converts the image to 8-bit gray with ITU-R BT.601 luma weights,
// rounding to the nearest level
func (img *Image) Gray() []uint8 {
	out := make([]uint8, img.Pixels())
	for i := range out {
		j := i * Channels
		r, g, b := img.Data[j], img.Data[j+1], img.Data[j+2]
		out[i] = GrayLevel(r, g, b)
	}
	return out
}

// Luma of a single RGB color
func GrayLevel(r, g, b uint8) uint8 {
	return ClampUint8(0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b))
}
