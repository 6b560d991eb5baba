package observability

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fetch outcome labels.
const (
	OutcomeOK        = "ok"
	OutcomeBlocked   = "blocked"
	OutcomeMalformed = "malformed"
	OutcomeExhausted = "exhausted"
)

// Product outcome labels.
const (
	ProductScraped = "scraped"
	ProductSkipped = "skipped"
	ProductFailed  = "failed"
)

// Metrics bundles Prometheus collectors for a scrape run. A nil *Metrics is
// valid and turns every recording method into a no-op.
type Metrics struct {
	Registry      *prometheus.Registry
	FetchesTotal  *prometheus.CounterVec
	FetchDuration prometheus.Histogram
	RetriesTotal  prometheus.Counter
	PagesWalked   prometheus.Counter
	ProductsTotal *prometheus.CounterVec

	logger *slog.Logger
}

// NewMetrics constructs and registers all collectors on a dedicated registry.
func NewMetrics(logger *slog.Logger) *Metrics {
	registry := prometheus.NewRegistry()

	fetches := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricehound_fetches_total",
			Help: "Terminal fetch outcomes by result.",
		},
		[]string{"outcome"},
	)
	fetchDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pricehound_fetch_duration_seconds",
			Help:    "Wall time of one fetch call, retries and delays included.",
			Buckets: prometheus.DefBuckets,
		},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pricehound_fetch_retries_total",
			Help: "Retry attempts scheduled after transient failures.",
		},
	)
	pages := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pricehound_listing_pages_total",
			Help: "Listing pages collected across all category walks.",
		},
	)
	products := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricehound_products_total",
			Help: "Per-product aggregation outcomes.",
		},
		[]string{"outcome"},
	)

	registry.MustRegister(fetches, fetchDuration, retries, pages, products)

	return &Metrics{
		Registry:      registry,
		FetchesTotal:  fetches,
		FetchDuration: fetchDuration,
		RetriesTotal:  retries,
		PagesWalked:   pages,
		ProductsTotal: products,
		logger:        logger.With("component", "metrics"),
	}
}

// FetchObserved records one terminal fetch outcome and its duration.
func (m *Metrics) FetchObserved(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.FetchesTotal.WithLabelValues(outcome).Inc()
	m.FetchDuration.Observe(d.Seconds())
}

// RetryScheduled records one retry attempt.
func (m *Metrics) RetryScheduled() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

// PageCollected records one listing page.
func (m *Metrics) PageCollected() {
	if m == nil {
		return
	}
	m.PagesWalked.Inc()
}

// ProductOutcome records the fate of one product during aggregation.
func (m *Metrics) ProductOutcome(outcome string) {
	if m == nil {
		return
	}
	m.ProductsTotal.WithLabelValues(outcome).Inc()
}

// StartServer starts the metrics HTTP server.
func (m *Metrics) StartServer(port int, path string) error {
	if m == nil {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	addr := fmt.Sprintf(":%d", port)
	m.logger.Info("metrics server starting", "addr", addr, "path", path)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			m.logger.Error("metrics server error", "error", err)
		}
	}()

	return nil
}
