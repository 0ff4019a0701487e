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
	"fmt"
	"os"
	"time"

	"github.com/mlnoga/daylight/internal/ops/balance"
	"github.com/mlnoga/daylight/internal/ops/enhance"
	"github.com/mlnoga/daylight/internal/restore"
	"gopkg.in/yaml.v2"
)

/* Example config file, all entries optional ...

candidates:
  - {gain: 1.8, offset: 20}
  - {gain: 2.0, offset: 25}
  - {gain: 1.6, offset: 15}
equalize:
  clipLimit: 2.0
  tilesX: 8
  tilesY: 8
whiteBalance:
  strength: 1.1
refine:
  maxEvaluations: 30
  minGain: 0.1
source:
  url: https://example.com/photo.png
  timeout: 30s
output:
  dir: output
  quality: 95
maxThreads: 0

*/

type EqualizeOptions struct {
	ClipLimit float64 `json:"clipLimit" yaml:"clipLimit"`
	TilesX    int     `json:"tilesX" yaml:"tilesX"`
	TilesY    int     `json:"tilesY" yaml:"tilesY"`
}

type WhiteBalanceOptions struct {
	Strength float64 `json:"strength" yaml:"strength"`
}

type SourceOptions struct {
	URL          string        `json:"url" yaml:"url"`
	Timeout      time.Duration `json:"timeout" yaml:"timeout"`

	// unusable downloads are saved here
	DebugDir string `json:"debugDir" yaml:"debugDir"`

	// size of the fallback sample
	SampleWidth  int `json:"sampleWidth" yaml:"sampleWidth"`
	SampleHeight int `json:"sampleHeight" yaml:"sampleHeight"`
}

type OutputOptions struct {
	// default directory for all outputs
	Dir string `json:"dir" yaml:"dir"`

	// JPEG quality
	Quality int `json:"quality" yaml:"quality"`

	// width of the analysis figure, 0 for native size
	FigureWidth int `json:"figureWidth" yaml:"figureWidth"`
}

type ServerOptions struct {
	Port   int    `json:"port" yaml:"port"`
	Chroot string `json:"chroot" yaml:"chroot"`
	Setuid int    `json:"setuid" yaml:"setuid"`
}

type Config struct {
	Candidates   []restore.Params       `json:"candidates" yaml:"candidates"`
	Equalize     EqualizeOptions        `json:"equalize" yaml:"equalize"`
	WhiteBalance WhiteBalanceOptions    `json:"whiteBalance" yaml:"whiteBalance"`
	Refine       restore.RefineSettings `json:"refine" yaml:"refine"`
	Source       SourceOptions          `json:"source" yaml:"source"`
	Output       OutputOptions          `json:"output" yaml:"output"`
	Server       ServerOptions          `json:"server" yaml:"server"`
	MaxThreads   int                    `json:"maxThreads" yaml:"maxThreads"` // 0 for all logical cores
}

func NewConfig() Config {
	eq := enhance.NewOpLocalEqualizeDefault()
	return Config{
		Candidates:   restore.DefaultCandidates(),
		Equalize:     EqualizeOptions{ClipLimit: eq.ClipLimit, TilesX: eq.TilesX, TilesY: eq.TilesY},
		WhiteBalance: WhiteBalanceOptions{Strength: balance.NewOpWhiteBalanceDefault().Strength},
		Refine:       restore.RefineSettings{MaxEvaluations: 0, MinGain: restore.NewRefineSettingsDefault().MinGain},
		Source:       SourceOptions{Timeout: 30 * time.Second, SampleWidth: 512, SampleHeight: 512},
		Output:       OutputOptions{Dir: "output", Quality: 95, FigureWidth: 1536},
		Server:       ServerOptions{Port: 8080, Setuid: -1},
	}
}

func LoadConfig(filename string) (Config, error) {
	c := NewConfig()

	if contents, err := os.ReadFile(filename); err != nil {
		return c, fmt.Errorf("read '%s': %v", filename, err)
	} else if err := yaml.Unmarshal(contents, &c); err != nil {
		return c, fmt.Errorf("parse '%s': %v", filename, err)
	}

	return c, c.Finalize()
}

// Finalize does sanity checks
func (c *Config) Finalize() error {
	if len(c.Candidates) == 0 {
		return restore.ErrEmptyCandidateSet
	}
	for i, p := range c.Candidates {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("candidate %d: %w", i, err)
		}
	}
	if c.Equalize.TilesX < 1 || c.Equalize.TilesY < 1 {
		return fmt.Errorf("equalization grid %dx%d must have at least one tile", c.Equalize.TilesX, c.Equalize.TilesY)
	}
	if c.WhiteBalance.Strength < 0 {
		return fmt.Errorf("white balance strength %g is negative", c.WhiteBalance.Strength)
	}
	if c.Refine.MinGain <= 0 {
		return fmt.Errorf("minimum gain %g must be positive", c.Refine.MinGain)
	}
	if c.Source.Timeout <= 0 {
		return fmt.Errorf("download timeout %s must be positive", c.Source.Timeout)
	}
	if c.Source.SampleWidth <= 0 || c.Source.SampleHeight <= 0 {
		return fmt.Errorf("sample size %dx%d must be positive", c.Source.SampleWidth, c.Source.SampleHeight)
	}
	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("JPEG quality %d out of range 1..100", c.Output.Quality)
	}
	if c.MaxThreads < 0 {
		return fmt.Errorf("thread count %d is negative", c.MaxThreads)
	}
	return nil
}

// The restoration pipeline with the configured step settings
func (c *Config) Pipeline() *restore.Pipeline {
	return &restore.Pipeline{
		Equalize: enhance.NewOpLocalEqualize(c.Equalize.ClipLimit, c.Equalize.TilesX, c.Equalize.TilesY),
		Balance:  balance.NewOpWhiteBalance(c.WhiteBalance.Strength),
	}
}

func (c Config) AsYaml() string {
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Sprintf("# error: %v\n", err)
	}
	return string(b)
}
