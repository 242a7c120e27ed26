// Package metrics exposes Prometheus metrics for the scanner and
// backtester on an HTTP endpoint.
package metrics

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the scan pipeline.
type Metrics struct {
	InstrumentsScanned prometheus.Counter
	SignalsFound       *prometheus.CounterVec // labels: side
	FetchErrors        prometheus.Counter
	ResolverMisses     prometheus.Counter
	ScanDuration       prometheus.Histogram
	BrokerCallDur      prometheus.Histogram
	OrdersPlaced       prometheus.Counter
}

// New registers and returns all metrics.
func New() *Metrics {
	m := &Metrics{
		InstrumentsScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "techbot_instruments_scanned_total",
			Help: "Instruments processed by the scan pool",
		}),
		SignalsFound: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "techbot_signals_found_total",
			Help: "Actionable signals found (by side)",
		}, []string{"side"}),
		FetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "techbot_fetch_errors_total",
			Help: "Quote or series fetches that returned no data",
		}),
		ResolverMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "techbot_resolver_misses_total",
			Help: "ITM resolutions that found no eligible contract",
		}),
		ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "techbot_scan_duration_seconds",
			Help:    "Wall time of one full scan cycle",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		}),
		BrokerCallDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "techbot_broker_call_duration_seconds",
			Help:    "Broker API call latency",
			Buckets: prometheus.DefBuckets,
		}),
		OrdersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "techbot_orders_placed_total",
			Help: "Orders submitted to the broker",
		}),
	}

	prometheus.MustRegister(
		m.InstrumentsScanned,
		m.SignalsFound,
		m.FetchErrors,
		m.ResolverMisses,
		m.ScanDuration,
		m.BrokerCallDur,
		m.OrdersPlaced,
	)
	return m
}

// Server exposes /metrics.
type Server struct {
	srv *http.Server
	log *slog.Logger
}

func NewServer(addr string, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &Server{
		srv: &http.Server{Addr: addr, Handler: mux},
		log: log.With(slog.String("component", "metrics")),
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		s.log.Info("metrics server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			s.log.Error("metrics server failed", "err", err)
		}
	}()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
