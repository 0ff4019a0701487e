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
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/tiff"
)

// Returned when the output file name has no supported suffix
var ErrUnknownSuffix = errors.New("unknown suffix")

// Writes the image to a file, choosing the format by suffix: .jpg/.jpeg, .png or .tif/.tiff.
// Quality applies to JPEG only
func (img *Image) WriteFile(fileName string, quality int) error {
	return WriteImageFile(img.ToRGBA(), fileName, quality)
}

// Writes a Go image to a file, choosing the format by suffix
func WriteImageFile(src image.Image, fileName string, quality int) error {
	var encode func(w io.Writer) error
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".jpg", ".jpeg":
		encode = func(w io.Writer) error { return jpeg.Encode(w, src, &jpeg.Options{Quality: quality}) }
	case ".png":
		encode = func(w io.Writer) error { return png.Encode(w, src) }
	case ".tif", ".tiff":
		encode = func(w io.Writer) error {
			return tiff.Encode(w, src, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownSuffix, fileName)
	}

	file, err := os.Create(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	if err := encode(writer); err != nil {
		return err
	}
	return writer.Flush()
}

// Writes the image as PNG
func (img *Image) WritePNG(writer io.Writer) error {
	return png.Encode(writer, img.ToRGBA())
}

// Writes the image as JPEG with the given quality
func (img *Image) WriteJPG(writer io.Writer, quality int) error {
	return jpeg.Encode(writer, img.ToRGBA(), &jpeg.Options{Quality: quality})
}
