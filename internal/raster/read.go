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
	"bufio"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Reads an image from a file in any registered format. Alpha is discarded
func ReadFile(fileName string, id int) (img *Image, format string, err error) {
	file, err := os.Open(fileName)
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	img, format, err = Decode(bufio.NewReader(file))
	if err != nil {
		return nil, format, err
	}
	img.ID, img.FileName = id, fileName
	return img, format, nil
}

// Decodes an image in any registered format. Returns the format name as
// reported by the decoder, e.g. "png", "jpeg", "gif", "bmp", "tiff" or "webp"
func Decode(r io.Reader) (img *Image, format string, err error) {
	src, format, err := image.Decode(r)
	if err != nil {
		return nil, format, err
	}
	return FromImage(src), format, nil
}

// Converts a Go image into an 8-bit RGB image. Alpha is discarded,
// i.e. colors are taken as premultiplied onto black
func FromImage(src image.Image) *Image {
	bounds := src.Bounds()
	img := NewImage(bounds.Dx(), bounds.Dy())

	// fast path for the common decoder output
	if rgba, ok := src.(*image.RGBA); ok {
		for y := 0; y < img.Height; y++ {
			row := rgba.Pix[rgba.PixOffset(bounds.Min.X, bounds.Min.Y+y):]
			for x := 0; x < img.Width; x++ {
				img.Set3(x, y, row[x*4], row[x*4+1], row[x*4+2])
			}
		}
		return img
	}

	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			c := color.RGBAModel.Convert(src.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.RGBA)
			img.Set3(x, y, c.R, c.G, c.B)
		}
	}
	return img
}

// Converts to an opaque Go image
func (img *Image) ToRGBA() *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		row := out.Pix[y*out.Stride:]
		for x := 0; x < img.Width; x++ {
			r, g, b := img.At3(x, y)
			row[x*4], row[x*4+1], row[x*4+2], row[x*4+3] = r, g, b, 255
		}
	}
	return out
}
