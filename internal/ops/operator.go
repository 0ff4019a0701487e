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

package ops

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"runtime"

	"github.com/klauspost/cpuid"
	"github.com/mlnoga/daylight/internal/raster"
	"github.com/pbnjay/memory"
)

// An execution context for operators
type Context struct {
	Log        io.Writer
	MemoryMB   int    // memory.TotalMemory()/1024/1024
	TrialMB    int    // MemoryMB*7/10, budget for concurrent restoration trials
	MaxThreads int    `json:"maxThreads"`
	CPU        string // CPU brand name, for log output
	AVX2       bool
}

func NewContext(log io.Writer) *Context {
	memoryMB := int(memory.TotalMemory() / 1024 / 1024)
	if log == nil {
		log = io.Discard
	}
	return &Context{
		Log:        log,
		MemoryMB:   memoryMB,
		TrialMB:    memoryMB * 7 / 10,
		MaxThreads: runtime.GOMAXPROCS(0),
		CPU:        cpuid.CPU.BrandName,
		AVX2:       cpuid.CPU.AVX2(),
	}
}

func (c *Context) String() string {
	return fmt.Sprintf("%d threads, %d MiB memory, CPU '%s' (%d logical cores, AVX2 %v)",
		c.MaxThreads, c.MemoryMB, c.CPU, cpuid.CPU.LogicalCores, c.AVX2)
}

// An image processing operator: takes one image and produces a new one or an
// error. Implementations must not modify their input
type Operator interface {
	GetType() string
	IsActive() bool
	Apply(f *raster.Image, c *Context) (fOut *raster.Image, err error)
}

// Base type for operators, including type information for JSON serializing
type OpBase struct {
	Type   string `json:"type"`
	Active bool   `json:"active"`
}

func (op *OpBase) GetType() string { return op.Type }
func (op *OpBase) IsActive() bool  { return op.Active }

// Applies a fixed sequence of operators, skipping inactive ones.
// The input of the sequence is never modified
type OpSequence struct {
	OpBase
	Steps []Operator `json:"steps"`
}

func NewOpSequence(steps ...Operator) *OpSequence {
	return &OpSequence{
		OpBase: OpBase{Type: "seq", Active: len(steps) > 0},
		Steps:  steps,
	}
}

func (op *OpSequence) Apply(f *raster.Image, c *Context) (fOut *raster.Image, err error) {
	fOut = f
	for _, step := range op.Steps {
		if step == nil || !step.IsActive() {
			continue
		}
		if fOut, err = step.Apply(fOut, c); err != nil {
			return nil, err
		}
	}
	if fOut == f {
		fOut = f.Clone() // no active step, still return a fresh buffer
	}
	return fOut, nil
}

// Saves the given image under a given filename, with pattern expansion for %d or %04d based on the image ID.
// Returns the unchanged input
type OpSave struct {
	OpBase
	FilePattern string `json:"filePattern"`
	Quality     int    `json:"quality"`
}

func NewOpSaveDefault() *OpSave { return NewOpSave("") }

func NewOpSave(filePattern string) *OpSave {
	return &OpSave{
		OpBase:      OpBase{Type: "save", Active: filePattern != ""},
		FilePattern: filePattern,
		Quality:     95,
	}
}

// Unmarshal the type from JSON with default values for missing entries
func (op *OpSave) UnmarshalJSON(data []byte) error {
	type defaults OpSave
	def := defaults(*NewOpSaveDefault())
	err := json.Unmarshal(data, &def)
	if err != nil {
		return err
	}
	*op = OpSave(def)
	return nil
}

// Integer verbs in file patterns, e.g. %d or %04d
var idVerb = regexp.MustCompile(`%[-+ 0]*[0-9]*d`)

// Expands an integer verb in the file pattern with the image ID
func (op *OpSave) FileName(f *raster.Image) string {
	if idVerb.MatchString(op.FilePattern) {
		return fmt.Sprintf(op.FilePattern, f.ID)
	}
	return op.FilePattern
}

func (op *OpSave) Apply(f *raster.Image, c *Context) (result *raster.Image, err error) {
	if !op.Active || op.FilePattern == "" {
		return f, nil
	}
	fileName := op.FileName(f)
	fmt.Fprintf(c.Log, "%d: Writing %s pixel image to %s\n", f.ID, f.DimensionsToString(), fileName)
	if err = f.WriteFile(fileName, op.Quality); err != nil {
		if errors.Is(err, raster.ErrUnknownSuffix) {
			return nil, err
		}
		return nil, fmt.Errorf("%d: error writing to file %s: %w", f.ID, fileName, err)
	}
	return f, nil
}
