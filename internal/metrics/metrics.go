// Package metrics exposes pipeline counters in Prometheus format.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Collector owns a private registry so several pipelines (and tests) can
// coexist in one process.
type Collector struct {
	registry *prometheus.Registry

	PacketsTotal  *prometheus.CounterVec
	DroppedTotal  prometheus.Counter
	RenderErrors  prometheus.Counter
	AlertsTotal   *prometheus.CounterVec
	TickDuration  prometheus.Histogram
	QueueDepth    prometheus.Gauge
	HistoryLength prometheus.Gauge
}

// New creates a Collector with all metrics registered.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		PacketsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "netradar_packets_total",
				Help: "Total number of packets classified, by category",
			},
			[]string{"category"},
		),
		DroppedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "netradar_ingest_dropped_total",
			Help: "Total number of packets dropped by the ingest queue before classification",
		}),
		RenderErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "netradar_render_errors_total",
			Help: "Total number of failed snapshot renders",
		}),
		AlertsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "netradar_alerts_total",
				Help: "Total number of traffic anomalies detected, by type",
			},
			[]string{"type"},
		),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "netradar_tick_duration_seconds",
			Help:    "Time spent draining, aggregating and rendering one tick",
			Buckets: prometheus.ExponentialBuckets(0.00001, 2, 16), // 10µs to ~330ms
		}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "netradar_ingest_queue_depth",
			Help: "Packets pending in the ingest queue at the start of the last tick",
		}),
		HistoryLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "netradar_history_length",
			Help: "Packets retained in the history store",
		}),
	}

	c.registry.MustRegister(
		c.PacketsTotal,
		c.DroppedTotal,
		c.RenderErrors,
		c.AlertsTotal,
		c.TickDuration,
		c.QueueDepth,
		c.HistoryLength,
		collectors.NewGoCollector(),
	)
	return c
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns an HTTP handler serving the registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (c *Collector) Serve(ctx context.Context, addr string, logger zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("metrics server shutdown")
		}
	}()

	logger.Info().Str("addr", addr).Msg("metrics server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
