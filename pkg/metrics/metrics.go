// Package metrics exposes watch activity as Prometheus metrics.
//
// Each Metrics value owns its registry, so several can coexist in one
// process (tests, multiple watch sessions).
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/0xmhha/globwatch/pkg/logger"
	"github.com/0xmhha/globwatch/pkg/watcher"
)

const namespace = "globwatch"

// shutdownTimeout bounds how long Serve waits for in-flight scrapes.
const shutdownTimeout = 5 * time.Second

// Metrics holds the collectors for one watch session.
type Metrics struct {
	EventsTotal *prometheus.CounterVec
	ErrorsTotal prometheus.Counter
	Watchers    prometheus.Gauge
	LastEvent   prometheus.Gauge

	registry *prometheus.Registry
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		EventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_total",
				Help:      "Total number of delivered events",
			},
			[]string{"kind"},
		),
		ErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Total number of watcher errors",
		}),
		Watchers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "watchers",
			Help:      "Number of active glob watchers",
		}),
		LastEvent: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_event_timestamp_seconds",
			Help:      "Unix time of the last delivered event",
		}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(m.EventsTotal, m.ErrorsTotal, m.Watchers, m.LastEvent)
	return m
}

// Observe counts a delivered event.
func (m *Metrics) Observe(ev watcher.Event) {
	m.EventsTotal.WithLabelValues(ev.Kind.String()).Inc()

	t := ev.Time
	if t.IsZero() {
		t = time.Now()
	}
	m.LastEvent.Set(float64(t.UnixNano()) / 1e9)
}

// ObserveError counts a watcher error.
func (m *Metrics) ObserveError() {
	m.ErrorsTotal.Inc()
}

// SetWatchers records the number of active watchers.
func (m *Metrics) SetWatchers(n int) {
	m.Watchers.Set(float64(n))
}

// Handler returns the HTTP handler serving /metrics and /healthz.
func (m *Metrics) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	return r
}

// Serve listens on addr and serves Handler until ctx is cancelled.
// It returns nil after a clean shutdown.
func (m *Metrics) Serve(ctx context.Context, addr string, log logger.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return m.serve(ctx, ln, log)
}

func (m *Metrics) serve(ctx context.Context, ln net.Listener, log logger.Logger) error {
	srv := &http.Server{
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	log.Debug("metrics listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
