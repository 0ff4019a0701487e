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

package source

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mlnoga/daylight/internal/raster"
	"github.com/rwcarlsen/goexif/exif"
)

// An image file on local disk
type File struct {
	Path string
	ID   int
	Log  io.Writer // receives camera metadata, if any
}

var _ ImageSource = (*File)(nil)

func NewFile(path string, id int, log io.Writer) *File {
	if log == nil {
		log = io.Discard
	}
	return &File{Path: path, ID: id, Log: log}
}

func (f *File) Name() string { return "file " + f.Path }

func (f *File) Fetch(ctx context.Context) (*raster.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, format, err := raster.ReadFile(f.Path, f.ID)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.Path, err)
	}
	fmt.Fprintf(f.Log, "%d: Read %s pixel %s image from %s\n", f.ID, img.DimensionsToString(), format, f.Path)
	if format == "jpeg" || format == "tiff" {
		f.logExif()
	}
	return img, nil
}

// Logs camera model and capture time, if present. Missing or broken metadata is not an error
func (f *File) logExif() {
	reader, err := os.Open(f.Path)
	if err != nil {
		return
	}
	defer reader.Close()
	ex, err := exif.Decode(reader)
	if err != nil {
		return
	}
	if tag, err := ex.Get(exif.Model); err == nil {
		if model, err := tag.StringVal(); err == nil {
			fmt.Fprintf(f.Log, "%d: Camera %s\n", f.ID, model)
		}
	}
	if tm, err := ex.DateTime(); err == nil {
		fmt.Fprintf(f.Log, "%d: Taken %s\n", f.ID, tm.Format("2006-01-02 15:04:05"))
	}
}
