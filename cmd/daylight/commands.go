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

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mlnoga/daylight/internal/config"
	"github.com/mlnoga/daylight/internal/ops"
	"github.com/mlnoga/daylight/internal/raster"
	"github.com/mlnoga/daylight/internal/restore"
	"github.com/mlnoga/daylight/internal/source"
)

// Acquires the input image from the given file, or by download with
// fallback to the synthetic sample. Saves the input as JPEG if selected
func acquire(args []string, cfg config.Config, c *ops.Context) (*raster.Image, error) {
	var src source.ImageSource
	if len(args) > 0 {
		src = source.NewFile(args[0], 1, c.Log)
	} else {
		var sources []source.ImageSource
		if cfg.Source.URL != "" {
			sources = source.NewHTTPSources(cfg.Source.URL, cfg.Source.Timeout, cfg.Source.DebugDir)
		}
		sources = append(sources, &source.Sample{Width: cfg.Source.SampleWidth, Height: cfg.Source.SampleHeight})
		src = source.NewFallback(c.Log, sources...)
	}
	img, err := src.Fetch(context.Background())
	if err != nil {
		return nil, err
	}
	if img.ID == 0 {
		img.ID = 1
	}
	if *jpg != "" {
		if err := save(img, *jpg, cfg, c); err != nil {
			return nil, err
		}
	}
	return img, nil
}

// Saves the image, creating the directory as needed
func save(img *raster.Image, fileName string, cfg config.Config, c *ops.Context) error {
	if err := os.MkdirAll(filepath.Dir(fileName), 0o755); err != nil {
		return err
	}
	opSave := ops.NewOpSave(fileName)
	opSave.Quality = cfg.Output.Quality
	_, err := opSave.Apply(img, c)
	return err
}

func cmdRestore(args []string, cfg config.Config, c *ops.Context) error {
	img, err := acquire(args, cfg, c)
	if err != nil {
		return err
	}
	r, err := cfg.Pipeline().Restore(img, restore.Params{Gain: *gain, Offset: *offset}, c)
	if err != nil {
		return err
	}
	return writeOutputs(r, cfg, c)
}

func cmdSelect(args []string, cfg config.Config, c *ops.Context) error {
	img, err := acquire(args, cfg, c)
	if err != nil {
		return err
	}
	pl := cfg.Pipeline()
	best, err := pl.SelectBest(img, cfg.Candidates, c)
	if err != nil {
		return err
	}
	if best, err = pl.Refine(img, best, cfg.Refine, c); err != nil {
		return err
	}
	if err := writeOutputs(best, cfg, c); err != nil {
		return err
	}
	printSummary(c.Log, best)
	return nil
}

func cmdSample(cfg config.Config, c *ops.Context) error {
	img, err := (&source.Sample{Width: cfg.Source.SampleWidth, Height: cfg.Source.SampleHeight}).Fetch(context.Background())
	if err != nil {
		return err
	}
	img.ID = 1
	return save(img, *out, cfg, c)
}

// Writes the restored image, the comparison and the analysis figure as selected
func writeOutputs(r *restore.Result, cfg config.Config, c *ops.Context) error {
	if *out != "" {
		if err := save(r.Output, *out, cfg, c); err != nil {
			return err
		}
	}
	if *compare != "" {
		cmp := raster.SideBySide(r.Input, r.Output)
		cmp.ID = r.Input.ID
		if err := save(cmp, *compare, cfg, c); err != nil {
			return err
		}
	}
	if *figure != "" {
		title := fmt.Sprintf("Restored Image (gain=%.3g, offset=%.3g)", r.Params.Gain, r.Params.Offset)
		fig := raster.AnalysisFigure(r.Input, r.Output, title, cfg.Output.FigureWidth)
		fmt.Fprintf(c.Log, "%d: Writing analysis figure to %s\n", r.Input.ID, *figure)
		if err := os.MkdirAll(filepath.Dir(*figure), 0o755); err != nil {
			return err
		}
		if err := raster.WriteImageFile(fig, *figure, cfg.Output.Quality); err != nil {
			return err
		}
	}
	return nil
}

func printSummary(w io.Writer, r *restore.Result) {
	rule := strings.Repeat("=", 60)
	fmt.Fprintf(w, "\n%s\nIMAGE RESTORATION COMPLETED\n%s\n", rule, rule)
	fmt.Fprintf(w, "OPTIMAL PARAMETERS:\n")
	fmt.Fprintf(w, "   - Contrast (gain): %.3g\n", r.Params.Gain)
	fmt.Fprintf(w, "   - Brightness (offset): %.3g\n", r.Params.Offset)
	fmt.Fprintf(w, "QUALITY IMPROVEMENT:\n")
	fmt.Fprintf(w, "   - Contrast: %.2f -> %.2f (%+.2f)\n", r.Before.Contrast, r.After.Contrast, r.After.Contrast-r.Before.Contrast)
	fmt.Fprintf(w, "   - Brightness: %.2f -> %.2f (%+.2f)\n", r.Before.Brightness, r.After.Brightness, r.After.Brightness-r.Before.Brightness)
	fmt.Fprintf(w, "OUTPUT FILES:\n")
	for _, f := range []struct{ name, desc string }{
		{*jpg, "Original image"}, {*out, "Restored image"}, {*compare, "Side-by-side comparison"}, {*figure, "Complete analysis report"},
	} {
		if f.name != "" {
			fmt.Fprintf(w, "   - %s: %s\n", f.name, f.desc)
		}
	}
	fmt.Fprintf(w, "%s\n", rule)
}
