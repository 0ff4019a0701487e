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
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/mlnoga/daylight/internal/raster"
)

// How an HTTP source presents itself to the server
type Method int

const (
	MethodSession   Method = iota // browser headers with image accept list and referer
	MethodInsecure                // plain client without TLS certificate verification
	MethodAlternate               // alternate browser header set
)

func (m Method) String() string {
	switch m {
	case MethodSession:
		return "session"
	case MethodInsecure:
		return "insecure"
	case MethodAlternate:
		return "alternate"
	}
	return fmt.Sprintf("method(%d)", int(m))
}

// All methods, in the order they are tried
var Methods = []Method{MethodSession, MethodInsecure, MethodAlternate}

// Formats accepted from the network
var AcceptedFormats = map[string]bool{"webp": true, "jpeg": true, "png": true, "gif": true, "bmp": true}

// Maximum size of a downloaded image
const maxBodyBytes = 64 << 20

// An image downloaded over HTTP(S)
type HTTP struct {
	URL      string
	Method   Method
	Timeout  time.Duration
	ID       int
	DebugDir string       // if set, bodies which cannot be used are saved here
	Client   *http.Client // optional, overrides the client built for the method
}

var _ ImageSource = (*HTTP)(nil)

func NewHTTP(url string, method Method) *HTTP {
	return &HTTP{URL: url, Method: method, Timeout: 30 * time.Second}
}

// Creates one source per method for the given URL, to be tried in order
func NewHTTPSources(url string, timeout time.Duration, debugDir string) []ImageSource {
	sources := make([]ImageSource, len(Methods))
	for i, m := range Methods {
		h := NewHTTP(url, m)
		if timeout > 0 {
			h.Timeout = timeout
		}
		h.DebugDir = debugDir
		sources[i] = h
	}
	return sources
}

func (h *HTTP) Name() string { return fmt.Sprintf("%s download of %s", h.Method, h.URL) }

func (h *HTTP) Fetch(ctx context.Context) (*raster.Image, error) {
	req, err := h.request(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := h.client().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %s", h.URL, resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}

	img, format, err := raster.Decode(bytes.NewReader(body))
	if err != nil {
		h.saveDebug("debug_download.bin", body)
		return nil, fmt.Errorf("decoding %s: %w", h.URL, err)
	}
	if !AcceptedFormats[format] {
		h.saveDebug("raw_download.bin", body)
		return nil, fmt.Errorf("%w: %s from %s", ErrUnsupportedFormat, format, h.URL)
	}
	img.ID, img.FileName = h.ID, h.URL
	return img, nil
}

func (h *HTTP) request(ctx context.Context) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return nil, err
	}
	switch h.Method {
	case MethodSession:
		req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
		req.Header.Set("Accept", "image/webp,image/apng,image/*,*/*;q=0.8")
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		if u, err := url.Parse(h.URL); err == nil {
			req.Header.Set("Referer", u.Scheme+"://"+u.Host+"/")
		}
	case MethodInsecure:
		req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	case MethodAlternate:
		req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/119.0")
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
		req.Header.Set("Accept-Language", "en-US,en;q=0.5")
		req.Header.Set("DNT", "1")
		req.Header.Set("Upgrade-Insecure-Requests", "1")
	default:
		return nil, fmt.Errorf("unknown download method %d", int(h.Method))
	}
	return req, nil
}

func (h *HTTP) client() *http.Client {
	if h.Client != nil {
		return h.Client
	}
	client := &http.Client{Timeout: h.Timeout}
	if h.Method == MethodInsecure || h.Method == MethodAlternate {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		client.Transport = transport
	}
	return client
}

// Saves an unusable response body for inspection. Failures are ignored
func (h *HTTP) saveDebug(name string, body []byte) {
	if h.DebugDir == "" {
		return
	}
	if err := os.MkdirAll(h.DebugDir, 0o755); err != nil {
		return
	}
	os.WriteFile(filepath.Join(h.DebugDir, name), body, 0o644)
}
