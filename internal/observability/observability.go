// Package observability wires the application's Prometheus registry and
// serves the metrics endpoint.
package observability

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tphakala/jukebox-go/internal/logging"
	"github.com/tphakala/jukebox-go/internal/observability/metrics"
)

// Metrics bundles all metric sets behind one registry.
type Metrics struct {
	registry *prometheus.Registry

	PcmBuf *metrics.PcmBufMetrics

	logger *slog.Logger
	server *http.Server
}

// NewMetrics creates the registry with go runtime and pcmbuf collectors.
func NewMetrics() (*Metrics, error) {
	logger := logging.ForService("observability")
	if logger == nil {
		logger = slog.Default()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	pcmbufMetrics, err := metrics.NewPcmBufMetrics(registry)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		registry: registry,
		PcmBuf:   pcmbufMetrics,
		logger:   logger,
	}, nil
}

// Registry exposes the underlying registry for additional collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Serve starts the metrics HTTP listener. It returns immediately; the
// listener runs until Shutdown is called.
func (m *Metrics) Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	m.server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		m.logger.Info("metrics listener starting", "addr", addr)
		if err := m.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			m.logger.Error("metrics listener failed", "error", err)
		}
	}()
}

// Shutdown stops the metrics listener if one was started.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m.server == nil {
		return nil
	}
	return m.server.Shutdown(ctx)
}
