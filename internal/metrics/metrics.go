package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	dberrors "github.com/leengari/atomdb/internal/domain/errors"
	"github.com/leengari/atomdb/internal/engine"
)

// Metrics turns engine lifecycle events into Prometheus series
type Metrics struct {
	CommandsTotal       *prometheus.CounterVec
	CommandDuration     *prometheus.HistogramVec
	LockWait            prometheus.Histogram
	SnapshotSavesTotal  *prometheus.CounterVec
	SnapshotSaveSeconds prometheus.Histogram
	ReloadsTotal        *prometheus.CounterVec
}

// New registers the collectors on reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CommandsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "atomdb_commands_total",
			Help: "Total number of commands by kind and status.",
		}, []string{"command", "status"}),
		CommandDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "atomdb_command_duration_seconds",
			Help:    "Duration of commands in seconds, including lock wait and autosave.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"command"}),
		LockWait: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "atomdb_lock_wait_seconds",
			Help:    "Time spent waiting for the database guard.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
		}),
		SnapshotSavesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "atomdb_snapshot_saves_total",
			Help: "Total number of snapshot saves by status.",
		}, []string{"status"}),
		SnapshotSaveSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "atomdb_snapshot_save_duration_seconds",
			Help:    "Time it took to write a snapshot.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
		ReloadsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "atomdb_snapshot_reloads_total",
			Help: "Total number of snapshot reloads by status.",
		}, []string{"status"}),
	}
}

// OnEvent implements engine.Observer
func (m *Metrics) OnEvent(event engine.Event) {
	switch event.Type {
	case engine.EventLockAcquired:
		m.LockWait.Observe(event.Duration.Seconds())
	case engine.EventCommandEnd:
		m.CommandsTotal.WithLabelValues(event.Command, dberrors.Code(event.Err)).Inc()
		m.CommandDuration.WithLabelValues(event.Command).Observe(event.Duration.Seconds())
	case engine.EventSaveEnd:
		m.SnapshotSavesTotal.WithLabelValues(dberrors.Code(event.Err)).Inc()
		m.SnapshotSaveSeconds.Observe(event.Duration.Seconds())
	case engine.EventReload:
		m.ReloadsTotal.WithLabelValues(dberrors.Code(event.Err)).Inc()
	}
}

// Handler returns the /metrics handler for a gatherer
func Handler(g prometheus.Gatherer) http.Handler {
	router := http.NewServeMux()
	router.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	router.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`<html>
<head><title>atomdb-metrics</title></head>
<body>
<h1>atomdb-metrics</h1>
<p><a href='/metrics'>metrics</a></p>
</body>
</html>`))
	}))
	return router
}

// Serve serves prometheus metrics on the given address under /metrics
// until ctx is cancelled
func Serve(ctx context.Context, addr string, g prometheus.Gatherer) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return serve(ctx, ln, g)
}

func serve(ctx context.Context, ln net.Listener, g prometheus.Gatherer) error {
	srv := &http.Server{
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		Handler:      Handler(g),
	}

	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	})
	defer stop()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
