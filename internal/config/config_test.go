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

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mlnoga/daylight/internal/restore"
)

func writeConfig(t *testing.T, contents string) string {
	name := filepath.Join(t.TempDir(), "daylight.yaml")
	if err := os.WriteFile(name, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return name
}

func TestNewConfigIsValid(t *testing.T) {
	c := NewConfig()
	if err := c.Finalize(); err != nil {
		t.Fatal(err)
	}
	if len(c.Candidates) != 3 || c.Candidates[0] != (restore.Params{Gain: 1.8, Offset: 20}) {
		t.Errorf("candidates %v", c.Candidates)
	}
}

func TestLoadConfigKeepsDefaults(t *testing.T) {
	name := writeConfig(t, `
candidates:
  - {gain: 1.2, offset: -5}
equalize:
  clipLimit: 3.5
source:
  url: http://localhost/photo.png
  timeout: 5s
maxThreads: 2
`)
	c, err := LoadConfig(name)
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Candidates) != 1 || c.Candidates[0] != (restore.Params{Gain: 1.2, Offset: -5}) {
		t.Errorf("candidates %v", c.Candidates)
	}
	if c.Equalize.ClipLimit != 3.5 || c.Equalize.TilesX != 8 || c.Equalize.TilesY != 8 {
		t.Errorf("equalize %+v", c.Equalize)
	}
	if c.Source.URL != "http://localhost/photo.png" || c.Source.Timeout != 5*time.Second || c.Source.SampleWidth != 512 {
		t.Errorf("source %+v", c.Source)
	}
	if c.WhiteBalance.Strength != 1.1 || c.Output.Quality != 95 || c.MaxThreads != 2 {
		t.Errorf("got %+v", c)
	}
	pl := c.Pipeline()
	if pl.Equalize.ClipLimit != 3.5 || pl.Balance.Strength != 1.1 || !pl.Equalize.Active {
		t.Errorf("pipeline %+v %+v", pl.Equalize, pl.Balance)
	}
}

func TestLoadConfigCamelCaseKeys(t *testing.T) {
	name := writeConfig(t, `
whiteBalance:
  strength: 0.5
refine:
  maxEvaluations: 30
source:
  sampleWidth: 64
  debugDir: rejected
output:
  dir: results
  figureWidth: 800
`)
	c, err := LoadConfig(name)
	if err != nil {
		t.Fatal(err)
	}
	if c.WhiteBalance.Strength != 0.5 || c.Refine.MaxEvaluations != 30 {
		t.Errorf("got %+v %+v", c.WhiteBalance, c.Refine)
	}
	if c.Source.SampleWidth != 64 || c.Source.SampleHeight != 512 || c.Source.DebugDir != "rejected" {
		t.Errorf("source %+v", c.Source)
	}
	if c.Output.Dir != "results" || c.Output.FigureWidth != 800 || c.Output.Quality != 95 {
		t.Errorf("output %+v", c.Output)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tcs := []struct {
		name, contents string
		want           error
	}{
		{"empty candidates", "candidates: []\n", restore.ErrEmptyCandidateSet},
		{"zero gain", "candidates:\n  - {gain: 0, offset: 1}\n", restore.ErrInvalidParams},
		{"tiles", "equalize:\n  tilesX: 0\n", nil},
		{"quality", "output:\n  quality: 101\n", nil},
		{"timeout", "source:\n  timeout: 0s\n", nil},
		{"syntax", "candidates: [\n", nil},
	}
	for _, tc := range tcs {
		_, err := LoadConfig(writeConfig(t, tc.contents))
		if err == nil {
			t.Errorf("%s: expected an error", tc.name)
		} else if tc.want != nil && !errors.Is(err, tc.want) {
			t.Errorf("%s: got %v; want %v", tc.name, err, tc.want)
		}
	}
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("expected an error for a missing file")
	}
}

func TestAsYamlRoundTrip(t *testing.T) {
	c := NewConfig()
	c.Refine.MaxEvaluations = 12
	c.Source.Timeout = 90 * time.Second
	out := c.AsYaml()
	if !strings.Contains(out, "timeout: 1m30s") {
		t.Errorf("yaml %q", out)
	}
	back, err := LoadConfig(writeConfig(t, out))
	if err != nil {
		t.Fatal(err)
	}
	if back.Refine.MaxEvaluations != 12 || back.Source.Timeout != c.Source.Timeout || len(back.Candidates) != 3 {
		t.Errorf("got %+v", back)
	}
}
