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

package rest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/codahale/hdrhistogram"
	"github.com/gin-gonic/gin"
	"github.com/mlnoga/daylight/internal/config"
	"github.com/mlnoga/daylight/internal/ops"
	"github.com/mlnoga/daylight/internal/raster"
	"github.com/mlnoga/daylight/internal/restore"
	"github.com/mlnoga/daylight/internal/stats"
	"github.com/mlnoga/daylight/web"
)

// Returned for malformed form fields
var errBadRequest = errors.New("bad request")

// Largest number of refinement runs a client may request
const maxRefineEvaluations = 100

// Largest latency tracked, in microseconds
const maxLatencyMicros = int64(10 * time.Minute / time.Microsecond)

// Restoration over HTTP
type Server struct {
	Config   config.Config
	Context  *ops.Context
	Pipeline *restore.Pipeline

	mu      sync.Mutex
	latency *hdrhistogram.Histogram
	nextID  int
}

func NewServer(cfg config.Config, c *ops.Context) *Server {
	return &Server{
		Config:   cfg,
		Context:  c,
		Pipeline: cfg.Pipeline(),
		latency:  hdrhistogram.New(1, maxLatencyMicros, 3),
	}
}

func (s *Server) Router() *gin.Engine {
	r := gin.Default()
	r.Use(s.measureLatency)
	r.GET("/", getIndex)
	api := r.Group("/api")
	{
		v1 := api.Group("/v1")
		{
			v1.GET("/ping", getPing)
			v1.GET("/latency", s.getLatency)
			v1.POST("/restore", s.postRestore)
			v1.POST("/select", s.postSelect)
		}
	}
	return r
}

// Listens and serves on the given address, e.g. ":8080"
func (s *Server) Serve(addr string) error {
	fmt.Fprintf(s.Context.Log, "Serving on %s with %s\n", addr, s.Context)
	return s.Router().Run(addr)
}

func getIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", web.IndexHTML)
}

func getPing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
	})
}

func (s *Server) measureLatency(c *gin.Context) {
	start := time.Now()
	c.Next()
	micros := time.Since(start).Microseconds()
	if micros < 1 {
		micros = 1
	} else if micros > maxLatencyMicros {
		micros = maxLatencyMicros
	}
	s.mu.Lock()
	s.latency.RecordValue(micros)
	s.mu.Unlock()
}

func (s *Server) getLatency(c *gin.Context) {
	s.mu.Lock()
	h := gin.H{
		"count":  s.latency.TotalCount(),
		"meanUs": s.latency.Mean(),
		"p50Us":  s.latency.ValueAtQuantile(50),
		"p90Us":  s.latency.ValueAtQuantile(90),
		"p99Us":  s.latency.ValueAtQuantile(99),
		"maxUs":  s.latency.Max(),
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, h)
}

// Decodes the uploaded image in form field "image"
func (s *Server) formImage(c *gin.Context) (*raster.Image, error) {
	header, err := c.FormFile("image")
	if err != nil {
		return nil, err
	}
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	img, _, err := raster.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", header.Filename, err)
	}
	s.mu.Lock()
	s.nextID++
	img.ID = s.nextID
	s.mu.Unlock()
	img.FileName = header.Filename
	return img, nil
}

func formFloat(c *gin.Context, key string, def float64) (float64, error) {
	str, ok := c.GetPostForm(key)
	if !ok || str == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", restore.ErrInvalidParams, key, str)
	}
	return v, nil
}

func abort(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, raster.ErrInvalidImage) || errors.Is(err, restore.ErrInvalidParams) ||
		errors.Is(err, restore.ErrEmptyCandidateSet) || errors.Is(err, http.ErrMissingFile) ||
		errors.Is(err, multipart.ErrMessageTooLarge) || errors.Is(err, errBadRequest) {
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func setMetricHeaders(c *gin.Context, r *restore.Result) {
	c.Header("X-Daylight-Gain", strconv.FormatFloat(r.Params.Gain, 'g', -1, 64))
	c.Header("X-Daylight-Offset", strconv.FormatFloat(r.Params.Offset, 'g', -1, 64))
	c.Header("X-Daylight-Contrast-Before", strconv.FormatFloat(r.Before.Contrast, 'f', 2, 64))
	c.Header("X-Daylight-Brightness-Before", strconv.FormatFloat(r.Before.Brightness, 'f', 2, 64))
	c.Header("X-Daylight-Contrast-After", strconv.FormatFloat(r.After.Contrast, 'f', 2, 64))
	c.Header("X-Daylight-Brightness-After", strconv.FormatFloat(r.After.Brightness, 'f', 2, 64))
	c.Header("X-Daylight-Score", strconv.FormatFloat(r.Score, 'f', 2, 64))
}

// Restores the uploaded image with form parameters gain and offset, defaulting to
// the first configured candidate. Responds with the restored PNG
func (s *Server) postRestore(c *gin.Context) {
	img, err := s.formImage(c)
	if err != nil {
		abort(c, err)
		return
	}
	def := restore.DefaultCandidates()[0]
	if len(s.Config.Candidates) > 0 {
		def = s.Config.Candidates[0]
	}
	var p restore.Params
	if p.Gain, err = formFloat(c, "gain", def.Gain); err != nil {
		abort(c, err)
		return
	}
	if p.Offset, err = formFloat(c, "offset", def.Offset); err != nil {
		abort(c, err)
		return
	}

	r, err := s.Pipeline.Restore(img, p, s.Context)
	if err != nil {
		abort(c, err)
		return
	}
	var buf bytes.Buffer
	if err := r.Output.WritePNG(&buf); err != nil {
		abort(c, err)
		return
	}
	setMetricHeaders(c, r)
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

type selectResponse struct {
	Params restore.Params `json:"params"`
	Index  int            `json:"index"`
	Before stats.Metrics  `json:"before"`
	After  stats.Metrics  `json:"after"`
	Score  float64        `json:"score"`
	Width  int            `json:"width"`
	Height int            `json:"height"`
}

// Runs the parameter search on the uploaded image. Candidates are taken from form
// field "candidates" as a JSON array of {gain, offset}, defaulting to the configured
// ones. Form field "refine" optionally sets a number of refinement evaluations,
// at most maxRefineEvaluations or the configured number if that is higher
func (s *Server) postSelect(c *gin.Context) {
	img, err := s.formImage(c)
	if err != nil {
		abort(c, err)
		return
	}
	candidates := s.Config.Candidates
	if str, ok := c.GetPostForm("candidates"); ok {
		candidates = nil
		if err := json.Unmarshal([]byte(str), &candidates); err != nil {
			abort(c, fmt.Errorf("%w: candidates: %s", errBadRequest, err.Error()))
			return
		}
	}
	settings := s.Config.Refine
	if str, ok := c.GetPostForm("refine"); ok {
		limit := maxRefineEvaluations
		if s.Config.Refine.MaxEvaluations > limit {
			limit = s.Config.Refine.MaxEvaluations
		}
		settings.MaxEvaluations, err = strconv.Atoi(str)
		if err != nil || settings.MaxEvaluations < 0 || settings.MaxEvaluations > limit {
			abort(c, fmt.Errorf("%w: refine=%q, want 0..%d", errBadRequest, str, limit))
			return
		}
	}

	best, err := s.Pipeline.SelectBest(img, candidates, s.Context)
	if err != nil {
		abort(c, err)
		return
	}
	if best, err = s.Pipeline.Refine(img, best, settings, s.Context); err != nil {
		abort(c, err)
		return
	}
	setMetricHeaders(c, best)
	c.JSON(http.StatusOK, selectResponse{
		Params: best.Params,
		Index:  best.Index,
		Before: best.Before,
		After:  best.After,
		Score:  best.Score,
		Width:  best.Output.Width,
		Height: best.Output.Height,
	})
}
