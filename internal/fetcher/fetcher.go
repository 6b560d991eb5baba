// Package fetcher is the fetch gateway: every upstream JSON request funnels
// through one browser session, one navigation at a time, with bounded retries
// and a randomized politeness delay around every call. The gateway owns the
// session for its lifetime; callers only ever see a payload or an error.
package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/pricehound/pricehound/internal/config"
	"github.com/pricehound/pricehound/internal/observability"
	"github.com/pricehound/pricehound/internal/parse"
	"github.com/pricehound/pricehound/internal/types"
)

// Fetcher is the gateway contract consumed by the walker and the aggregator.
type Fetcher interface {
	// FetchJSON navigates to url and returns the JSON payload the endpoint
	// rendered, or an error classifying why the payload is absent.
	FetchJSON(ctx context.Context, url string) (json.RawMessage, error)

	// Homepage loads the site root, runs the discovery rituals (consent
	// dismissal, menu expansion) and returns the rendered HTML.
	Homepage(ctx context.Context) ([]byte, error)

	// Close releases the browser session.
	Close() error
}

// pager is the navigation seam under the gateway: one call is one browser
// navigation returning the document status and rendered HTML. The production
// implementation is browserPager; tests substitute a fake.
type pager interface {
	Load(ctx context.Context, url string) (status int, body []byte, err error)
	LoadHomepage(ctx context.Context, url string) ([]byte, error)
	Close() error
}

// sleepFunc pauses for d or until ctx is done. Injected so the delay contract
// is testable without wall-clock waits.
type sleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Gateway implements Fetcher over a single shared browser page.
type Gateway struct {
	pager   pager
	cfg     config.FetcherConfig
	home    string
	logger  *slog.Logger
	metrics *observability.Metrics
	rng     *rand.Rand
	sleep   sleepFunc
}

// New launches the browser session and returns a ready Gateway. The session
// stays open until Close.
func New(cfg *config.Config, homepage string, logger *slog.Logger, metrics *observability.Metrics) (*Gateway, error) {
	bp, err := newBrowserPager(&cfg.Browser, logger)
	if err != nil {
		return nil, fmt.Errorf("start browser session: %w", err)
	}
	return newGateway(bp, cfg.Fetcher, homepage, logger, metrics), nil
}

func newGateway(p pager, cfg config.FetcherConfig, homepage string, logger *slog.Logger, metrics *observability.Metrics) *Gateway {
	return &Gateway{
		pager:   p,
		cfg:     cfg,
		home:    homepage,
		logger:  logger.With("component", "fetcher"),
		metrics: metrics,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:   sleepContext,
	}
}

// FetchJSON performs up to 1+MaxRetries navigations for url. Blocked (403)
// and malformed-body responses are terminal for the call; navigation errors
// are retried with a politeness delay before each retry. The delay also runs
// after every terminal outcome, success or not, so a failing call never lets
// the next one hammer the host early.
func (g *Gateway) FetchJSON(ctx context.Context, url string) (json.RawMessage, error) {
	start := time.Now()
	var lastErr error

	for attempt := 0; attempt <= g.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			g.metrics.RetryScheduled()
			g.logger.Debug("retrying fetch", "url", url, "attempt", attempt+1)
			if err := g.politeness(ctx); err != nil {
				return nil, err
			}
		}

		status, body, err := g.pager.Load(ctx, url)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			lastErr = &types.FetchError{URL: url, Err: err, Retryable: true}
			g.logger.Warn("navigation failed", "url", url, "attempt", attempt+1, "error", err)
			continue
		}

		if status == http.StatusForbidden {
			g.logger.Warn("blocked by remote host", "url", url)
			return g.terminal(ctx, observability.OutcomeBlocked, start, nil,
				&types.FetchError{URL: url, StatusCode: status, Err: types.ErrBlocked})
		}

		payload, perr := parse.JSONDocument(body)
		if perr != nil {
			g.logger.Warn("response body is not JSON", "url", url, "status", status, "error", perr)
			return g.terminal(ctx, observability.OutcomeMalformed, start, nil,
				&types.FetchError{URL: url, StatusCode: status, Err: perr})
		}

		g.logger.Debug("fetch complete", "url", url, "status", status, "size", len(payload))
		return g.terminal(ctx, observability.OutcomeOK, start, payload, nil)
	}

	g.logger.Warn("retries exhausted", "url", url, "attempts", g.cfg.MaxRetries+1, "last_error", lastErr)
	return g.terminal(ctx, observability.OutcomeExhausted, start, nil,
		fmt.Errorf("%w for %s after %d attempts: %v", types.ErrMaxRetries, url, g.cfg.MaxRetries+1, lastErr))
}

// Homepage loads the site root through the same page. The trailing politeness
// delay applies like any other call.
func (g *Gateway) Homepage(ctx context.Context) ([]byte, error) {
	start := time.Now()
	body, err := g.pager.LoadHomepage(ctx, g.home)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		_, terr := g.terminal(ctx, observability.OutcomeExhausted, start, nil,
			&types.FetchError{URL: g.home, Err: err})
		return nil, terr
	}
	if _, derr := g.terminal(ctx, observability.OutcomeOK, start, nil, nil); derr != nil {
		return nil, derr
	}
	return body, nil
}

// Close releases the browser session. Safe to call after a failed run.
func (g *Gateway) Close() error {
	return g.pager.Close()
}

// terminal records the outcome and runs the trailing politeness delay, then
// hands back the call's result. A context cancellation during the delay wins
// over the outcome.
func (g *Gateway) terminal(ctx context.Context, outcome string, start time.Time, payload json.RawMessage, err error) (json.RawMessage, error) {
	g.metrics.FetchObserved(outcome, time.Since(start))
	if derr := g.politeness(ctx); derr != nil {
		return nil, derr
	}
	return payload, err
}

// politeness sleeps a uniform-random duration in [MinDelay, MaxDelay].
func (g *Gateway) politeness(ctx context.Context) error {
	d := g.cfg.MinDelay
	if window := g.cfg.MaxDelay - g.cfg.MinDelay; window > 0 {
		d += time.Duration(g.rng.Int63n(int64(window) + 1))
	}
	return g.sleep(ctx, d)
}
