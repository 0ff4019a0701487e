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
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strings"
	"time"

	nl "github.com/mlnoga/daylight/internal"
	"github.com/mlnoga/daylight/internal/config"
	"github.com/mlnoga/daylight/internal/ops"
	"github.com/mlnoga/daylight/internal/rest"
)

const version = "0.1.0"

var cpuprofile = flag.String("cpuprofile", "", "write cpu profile to `file`")
var memprofile = flag.String("memprofile", "", "write memory profile to `file`")

var configFile = flag.String("config", "", "load settings from YAML `file`. Flags given explicitly override file values")

var out = flag.String("out", "output/restored_image.jpg", "save restored image to `file`. If not given, restored_image.jpg goes to the configured output directory")
var jpg = flag.String("jpg", "%auto", "save input image as JPEG to `file`. `%auto` uses original_image.jpg next to the output file")
var compare = flag.String("compare", "%auto", "save side-by-side comparison to `file`. `%auto` uses comparison.jpg next to the output file")
var figure = flag.String("figure", "%auto", "save analysis figure to `file`. `%auto` uses full_analysis.png next to the output file")
var log = flag.String("log", "%auto", "save log output to `file`. `%auto` replaces suffix of output file with .log")
var quality = flag.Int("quality", 95, "JPEG quality for outputs, 1..100")

var gain = flag.Float64("gain", 1.8, "contrast gain for the restore command, >0")
var offset = flag.Float64("offset", 20, "brightness offset for the restore command")
var clipLimit = flag.Float64("clipLimit", 2.0, "local equalization clip limit as multiple of the average bin count, 0=no clipping")
var tiles = flag.Int("tiles", 8, "local equalization grid size NxN")
var wbStrength = flag.Float64("wbStrength", 1.1, "white balance correction strength")
var refine = flag.Int("refine", 0, "refine the selected parameters with up to N pipeline runs, 0=off")
var threads = flag.Int("threads", 0, "maximum number of concurrent trials, 0=all logical cores")

var url = flag.String("url", "", "download the input image from `URL` if no file is given, falling back to a synthetic sample")
var timeout = flag.Duration("timeout", 30*time.Second, "timeout per download attempt")
var debugDir = flag.String("debugDir", "", "save unusable downloads to this directory for inspection")

var port = flag.Int("port", 8080, "port for the serve command")
var chroot = flag.String("chroot", "", "chroot to this directory before serving (requires root)")
var setuid = flag.Int("setuid", -1, "set user id before serving, -1=keep")

func main() {
	logWriter := nl.Log
	start := time.Now()
	flag.Usage = func() {
		fmt.Fprintf(logWriter, `Daylight Copyright (c) 2020 Markus L. Noga
This program comes with ABSOLUTELY NO WARRANTY.
This is free software, and you are welcome to redistribute it under certain conditions.
Refer to https://www.gnu.org/licenses/gpl-3.0.en.html for details.

Usage: %s [-flag value] (restore|select|sample|serve|config|legal|version) [img]

Commands:
  restore Restore the input image with the given gain and offset
  select  Restore the input image with the best of the configured candidate parameters
  sample  Write the synthetic corrupted sample image to the output file
  serve   Serve the REST API
  config  Show the effective configuration as YAML
  legal   Show license and attribution information
  version Show version information

Without an input image, the image is downloaded from -url if given, else the synthetic sample is used.

Flags:
`, os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(logWriter, "Error: %s\n", err.Error())
		os.Exit(-1)
	}
	*out = outputPath(cfg)

	// Initialize logging to file in addition to stdout, if selected
	if *log == "%auto" {
		if *out != "" {
			*log = strings.TrimSuffix(*out, filepath.Ext(*out)) + ".log"
		} else {
			*log = ""
		}
	}
	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		return
	}
	if *log != "" && (args[0] == "restore" || args[0] == "select" || args[0] == "sample") {
		if err := os.MkdirAll(filepath.Dir(*log), 0o755); err != nil {
			nl.LogFatalf("Unable to create log directory for '%s': %s\n", *log, err.Error())
		}
		if err := nl.LogAlsoToFile(*log); err != nil {
			nl.LogFatalf("Unable to open logfile '%s': %s\n", *log, err.Error())
		}
	}
	*jpg = autoName(*jpg, "original_image.jpg")
	*compare = autoName(*compare, "comparison.jpg")
	*figure = autoName(*figure, "full_analysis.png")

	// Enable CPU profiling if flagged
	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			nl.LogFatalf("Could not create CPU profile: %s\n", err.Error())
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			nl.LogFatalf("Could not start CPU profile: %s\n", err.Error())
		}
		defer pprof.StopCPUProfile()
	}

	c := ops.NewContext(logWriter)
	if cfg.MaxThreads > 0 {
		c.MaxThreads = cfg.MaxThreads
	}

	switch args[0] {
	case "restore":
		fmt.Fprintf(logWriter, "Using %s\n", c)
		err = cmdRestore(args[1:], cfg, c)

	case "select":
		fmt.Fprintf(logWriter, "Using %s\n", c)
		err = cmdSelect(args[1:], cfg, c)

	case "sample":
		err = cmdSample(cfg, c)

	case "serve":
		if err = rest.MakeSandbox(cfg.Server.Chroot, cfg.Server.Setuid, logWriter); err == nil {
			err = rest.NewServer(cfg, c).Serve(fmt.Sprintf(":%d", cfg.Server.Port))
		}

	case "config":
		fmt.Fprint(logWriter, cfg.AsYaml())

	case "legal":
		fmt.Fprint(logWriter, legal)

	case "version":
		fmt.Fprintf(logWriter, "Version %s\n", version)

	case "help", "?":
		flag.Usage()

	default:
		fmt.Fprintf(logWriter, "Unknown command '%s'\n\n", args[0])
		flag.Usage()
		return
	}

	now := time.Now()
	elapsed := now.Sub(start)
	fmt.Fprintf(logWriter, "\nDone after %v\n", elapsed)

	// Store memory profile if flagged
	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			nl.LogFatalf("Could not create memory profile: %s\n", err.Error())
		}
		defer f.Close()
		runtime.GC() // get up-to-date statistics
		if err := pprof.Lookup("allocs").WriteTo(f, 0); err != nil {
			nl.LogFatalf("Could not write allocation profile: %s\n", err.Error())
		}
	}

	if err != nil {
		fmt.Fprintf(logWriter, "Error: %s\n", err.Error())
		nl.LogClose()
		os.Exit(-1)
	}
	nl.LogClose()
}

// Replaces %auto with the given name in the directory of the output file
func autoName(name, auto string) string {
	if name != "%auto" {
		return name
	}
	if *out == "" {
		return ""
	}
	return filepath.Join(filepath.Dir(*out), auto)
}

// Places the output file in the configured output directory, unless -out was given
func outputPath(cfg config.Config) string {
	explicit := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "out" {
			explicit = true
		}
	})
	if explicit || *out == "" {
		return *out
	}
	return filepath.Join(cfg.Output.Dir, filepath.Base(*out))
}

// Loads the config file, if any, and applies explicitly set flags on top
func loadConfig() (cfg config.Config, err error) {
	cfg = config.NewConfig()
	if *configFile != "" {
		if cfg, err = config.LoadConfig(*configFile); err != nil {
			return cfg, err
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "quality":
			cfg.Output.Quality = *quality
		case "clipLimit":
			cfg.Equalize.ClipLimit = *clipLimit
		case "tiles":
			cfg.Equalize.TilesX, cfg.Equalize.TilesY = *tiles, *tiles
		case "wbStrength":
			cfg.WhiteBalance.Strength = *wbStrength
		case "refine":
			cfg.Refine.MaxEvaluations = *refine
		case "threads":
			cfg.MaxThreads = *threads
		case "url":
			cfg.Source.URL = *url
		case "timeout":
			cfg.Source.Timeout = *timeout
		case "debugDir":
			cfg.Source.DebugDir = *debugDir
		case "port":
			cfg.Server.Port = *port
		case "chroot":
			cfg.Server.Chroot = *chroot
		case "setuid":
			cfg.Server.Setuid = *setuid
		}
	})
	return cfg, cfg.Finalize()
}
