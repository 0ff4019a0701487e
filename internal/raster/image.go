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
	"fmt"
)

// Returned for images that are nil, empty, or not three-channel
var ErrInvalidImage = errors.New("invalid image")

// Number of channels in every image
const Channels = 3

// An 8-bit RGB image. Data is interleaved, row-major, in R,G,B order,
// so the value of channel c at (x,y) is Data[(y*Width+x)*3+c].
type Image struct {
	ID       int    // Sequential ID number, for log output
	FileName string // Original file name, if any, for log output

	Width  int
	Height int
	Data   []uint8
}

// Creates a new black image of the given dimensions
func NewImage(width, height int) *Image {
	if width < 0 || height < 0 {
		width, height = 0, 0
	}
	return &Image{
		Width:  width,
		Height: height,
		Data:   make([]uint8, width*height*Channels),
	}
}

// Creates an image with the same ID, file name and dimensions as the given one.
// New data array will be allocated
func NewImageFromImage(img *Image) *Image {
	out := NewImage(img.Width, img.Height)
	out.ID, out.FileName = img.ID, img.FileName
	return out
}

// Deep copy
func (img *Image) Clone() *Image {
	out := NewImageFromImage(img)
	copy(out.Data, img.Data)
	return out
}

// Number of pixels
func (img *Image) Pixels() int { return img.Width * img.Height }

// Checks that the image is non-nil, non-empty and carries exactly three channels
func (img *Image) Validate() error {
	if img == nil {
		return fmt.Errorf("%w: nil image", ErrInvalidImage)
	}
	if img.Width <= 0 || img.Height <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrInvalidImage, img.Width, img.Height)
	}
	if len(img.Data) != img.Width*img.Height*Channels {
		return fmt.Errorf("%w: %d bytes for %dx%d pixels, want %d channels",
			ErrInvalidImage, len(img.Data), img.Width, img.Height, Channels)
	}
	return nil
}

// Returns the three channel values at the given position
func (img *Image) At3(x, y int) (r, g, b uint8) {
	i := (y*img.Width + x) * Channels
	return img.Data[i], img.Data[i+1], img.Data[i+2]
}

// Sets the three channel values at the given position
func (img *Image) Set3(x, y int, r, g, b uint8) {
	i := (y*img.Width + x) * Channels
	img.Data[i], img.Data[i+1], img.Data[i+2] = r, g, b
}

func (img *Image) DimensionsToString() string {
	return fmt.Sprintf("%dx%dx%d", img.Width, img.Height, Channels)
}

// Returns true if both images have identical dimensions and pixel data
func (img *Image) Equal(other *Image) bool {
	if img.Width != other.Width || img.Height != other.Height || len(img.Data) != len(other.Data) {
		return false
	}
	for i, v := range img.Data {
		if other.Data[i] != v {
			return false
		}
	}
	return true
}

// Rounds and saturates a value to the 8-bit range
func ClampUint8(v float64) uint8 {
	if v != v || v <= 0 { // NaN or negative
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
