package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"zone-editor/internal/logging"
)

// Editor holds the Prometheus collectors of one editor process. Collectors
// live on their own registry so several editors (and tests) never collide
// on the global one.
type Editor struct {
	Registry *prometheus.Registry

	ActionsPushed  *prometheus.CounterVec
	Undos          prometheus.Counter
	Redos          prometheus.Counter
	Rejected       *prometheus.CounterVec
	ExportDuration prometheus.Histogram
	ExportFailures prometheus.Counter
	BlocksWritten  prometheus.Counter
	ObjectsLive    prometheus.Gauge
}

func NewEditor() *Editor {
	m := &Editor{
		Registry: prometheus.NewRegistry(),
		ActionsPushed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zone_editor",
			Name:      "actions_pushed_total",
			Help:      "Edit actions committed to the history, by action type.",
		}, []string{"action"}),
		Undos: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "zone_editor",
			Name:      "undo_total",
			Help:      "Actions undone.",
		}),
		Redos: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "zone_editor",
			Name:      "redo_total",
			Help:      "Actions redone.",
		}),
		Rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zone_editor",
			Name:      "edits_rejected_total",
			Help:      "Edits refused before reaching the history, by reason.",
		}, []string{"reason"}),
		ExportDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "zone_editor",
			Name:      "export_duration_seconds",
			Help:      "Wall time of full zone exports.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		ExportFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "zone_editor",
			Name:      "export_failures_total",
			Help:      "Exports aborted by an I/O failure.",
		}),
		BlocksWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "zone_editor",
			Name:      "blocks_written_total",
			Help:      "Zone blocks committed by successful exports.",
		}),
		ObjectsLive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "zone_editor",
			Name:      "objects",
			Help:      "Objects currently placed in the edited zone.",
		}),
	}
	m.Registry.MustRegister(
		m.ActionsPushed, m.Undos, m.Redos, m.Rejected,
		m.ExportDuration, m.ExportFailures, m.BlocksWritten, m.ObjectsLive,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Editor) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on port until ctx is cancelled
func (m *Editor) Serve(ctx context.Context, port int, log logging.Logger) error {
	log = logging.OrNop(log)
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Infof("metrics listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
