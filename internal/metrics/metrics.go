package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopsift_fetches_total",
			Help: "Total number of storefront and directory fetches by outcome",
		},
		[]string{"pipeline", "outcome", "status"},
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shopsift_fetch_duration_seconds",
			Help:    "Duration of fetches in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 15, 30},
		},
		[]string{"pipeline"},
	)

	FetchBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopsift_fetch_bytes_total",
			Help: "Total response bytes kept across all fetches",
		},
		[]string{"pipeline"},
	)

	RecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopsift_records_total",
			Help: "Output records produced, by pipeline and label",
		},
		[]string{"pipeline", "label"},
	)

	InFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "shopsift_fetches_in_flight",
			Help: "Fetches currently awaiting a response",
		},
		[]string{"pipeline"},
	)
)

// RecordFetch updates fetch metrics. Status is zero when no response arrived.
func RecordFetch(pipeline, outcome string, status int, d time.Duration, bytes int) {
	statusStr := "none"
	if status > 0 {
		statusStr = strconv.Itoa(status)
	}
	FetchesTotal.WithLabelValues(pipeline, outcome, statusStr).Inc()
	FetchDuration.WithLabelValues(pipeline).Observe(d.Seconds())
	FetchBytesTotal.WithLabelValues(pipeline).Add(float64(bytes))
}

// RecordOutput counts one output record under label (e.g. "likely", "verifypass").
func RecordOutput(pipeline, label string) {
	RecordsTotal.WithLabelValues(pipeline, label).Inc()
}

// Server encapsulates an HTTP server for Prometheus metrics.
type Server struct {
	srv *http.Server
}

// Start begins listening on the specified port and exposes /metrics.
// A port <= 0 returns a Server whose Stop is a no-op.
func Start(port int, logger *slog.Logger) *Server {
	if port <= 0 {
		return &Server{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "port", port, "err", err)
		}
	}()

	return &Server{srv: srv}
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s == nil || s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
