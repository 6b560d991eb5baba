package fetcher

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/pricehound/pricehound/internal/config"
	"github.com/pricehound/pricehound/internal/types"
)

// maxProbeBody bounds how much of a response the probe will read.
const maxProbeBody = 10 << 20

// Probe is a plain-HTTP diagnostics client for checking endpoint liveness
// without spending a browser navigation. It sends the same identity headers
// the browser session would and handles brotli, gzip and deflate response
// encodings itself.
type Probe struct {
	client *http.Client
	cfg    *config.BrowserConfig
	logger *slog.Logger
}

// NewProbe builds a Probe from the browser identity configuration.
func NewProbe(cfg *config.Config, logger *slog.Logger) *Probe {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
		// Decompression is handled here so brotli works too.
		DisableCompression: true,
	}
	return &Probe{
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Browser.NavTimeout,
		},
		cfg:    &cfg.Browser,
		logger: logger.With("component", "probe"),
	}
}

// Get fetches url directly and returns the JSON payload. A 403 classifies as
// blocked, any other non-2xx status or a non-JSON body as a fetch error; the
// probe never retries.
func (p *Probe) Get(ctx context.Context, url string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &types.FetchError{URL: url, Err: err}
	}

	req.Header.Set("User-Agent", p.cfg.UserAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", p.cfg.AcceptLanguage)
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	req.Header.Set("Connection", "keep-alive")

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &types.FetchError{URL: url, Err: err, Retryable: true}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return nil, &types.FetchError{URL: url, StatusCode: resp.StatusCode, Err: types.ErrBlocked}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &types.FetchError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("HTTP %d", resp.StatusCode),
			Retryable:  resp.StatusCode >= 500,
		}
	}

	reader, err := decompressReader(resp.Header.Get("Content-Encoding"), io.LimitReader(resp.Body, maxProbeBody))
	if err != nil {
		return nil, &types.FetchError{URL: url, Err: err}
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, &types.FetchError{URL: url, Err: err, Retryable: true}
	}

	if !json.Valid(body) {
		return nil, &types.FetchError{URL: url, StatusCode: resp.StatusCode, Err: types.ErrMalformedBody}
	}

	p.logger.Debug("probe complete",
		"url", url,
		"status", resp.StatusCode,
		"size", len(body),
		"duration", time.Since(start),
	)
	return json.RawMessage(body), nil
}

// decompressReader wraps r with the decompressor matching the response
// Content-Encoding. Handles gzip, deflate and brotli.
func decompressReader(encoding string, r io.Reader) (io.Reader, error) {
	switch encoding {
	case "gzip":
		return gzip.NewReader(r)
	case "deflate":
		return flate.NewReader(r), nil
	case "br":
		return brotli.NewReader(r), nil
	default:
		return r, nil
	}
}
