package engine

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kraklabs/obfuscator/internal/worker"
)

// metricsServer exposes a Prometheus /metrics endpoint for the duration of
// one run, mirroring the vjache-cie example's "start a promhttp mux in a
// goroutine, guarded by an empty --metrics-addr disabling it entirely"
// convention.
type metricsServer struct {
	srv *http.Server

	rowsProcessed prometheus.Counter
	rowsFailed    prometheus.Counter
	tablesDone    *prometheus.CounterVec
}

func startMetrics(addr string, logger *slog.Logger) *metricsServer {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	m := &metricsServer{
		rowsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "obfuscator_rows_processed_total",
			Help: "Total rows successfully obfuscated.",
		}),
		rowsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "obfuscator_rows_failed_total",
			Help: "Total rows that could not be obfuscated and were recorded to the failure log.",
		}),
		tablesDone: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "obfuscator_tables_completed_total",
			Help: "Total tables that finished a run, labeled by final status.",
		}, []string{"status"}),
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	m.srv = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		logger.Info("metrics.http.start", "addr", addr, "path", "/metrics")
		if err := m.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("metrics.http.error", "err", err)
		}
	}()

	return m
}

func (m *metricsServer) observeTable(res worker.Result) {
	if m == nil {
		return
	}
	m.rowsProcessed.Add(float64(res.Processed))
	m.rowsFailed.Add(float64(res.Failed))
	m.tablesDone.WithLabelValues(string(res.Status)).Inc()
}

func (m *metricsServer) shutdown() {
	if m == nil || m.srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = m.srv.Shutdown(ctx)
}
