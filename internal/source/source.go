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
	"errors"
	"fmt"
	"io"

	"github.com/mlnoga/daylight/internal/raster"
)

// Returned for images decoded fine but in a format not accepted from this source
var ErrUnsupportedFormat = errors.New("unsupported image format")

// A capability that supplies one decoded image to the restoration pipeline
type ImageSource interface {
	Name() string
	Fetch(ctx context.Context) (*raster.Image, error)
}

// Tries each source in turn and returns the first image successfully fetched.
// Each failure is logged. If all sources fail, the error joins all failures
type Fallback struct {
	Sources []ImageSource
	Log     io.Writer
}

var _ ImageSource = (*Fallback)(nil)

func NewFallback(log io.Writer, sources ...ImageSource) *Fallback {
	if log == nil {
		log = io.Discard
	}
	return &Fallback{Sources: sources, Log: log}
}

func (fb *Fallback) Name() string { return "fallback" }

func (fb *Fallback) Fetch(ctx context.Context) (*raster.Image, error) {
	var errs []error
	for _, s := range fb.Sources {
		fmt.Fprintf(fb.Log, "Trying %s...\n", s.Name())
		img, err := s.Fetch(ctx)
		if err == nil {
			err = img.Validate()
		}
		if err == nil {
			fmt.Fprintf(fb.Log, "Loaded %s pixel image from %s\n", img.DimensionsToString(), s.Name())
			return img, nil
		}
		fmt.Fprintf(fb.Log, "Failed: %s\n", err.Error())
		errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		if ctx.Err() != nil {
			break
		}
	}
	if len(errs) == 0 {
		return nil, errors.New("no image sources")
	}
	return nil, errors.Join(errs...)
}

// The synthetic corrupted portrait
type Sample struct {
	Width  int
	Height int
}

var _ ImageSource = (*Sample)(nil)

func NewSample() *Sample { return &Sample{Width: 512, Height: 512} }

func (s *Sample) Name() string { return fmt.Sprintf("sample %dx%d", s.Width, s.Height) }

func (s *Sample) Fetch(ctx context.Context) (*raster.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Width <= 0 || s.Height <= 0 {
		return nil, fmt.Errorf("%w: sample dimensions %dx%d", raster.ErrInvalidImage, s.Width, s.Height)
	}
	return raster.NewCorruptedSample(s.Width, s.Height), nil
}
