package telemetry

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StoreMetrics exposes transaction outcomes on the Prometheus registry
// served at /metrics. It implements store.Observer.
type StoreMetrics struct {
	commits        prometheus.Counter
	commitDuration prometheus.Histogram
	journalSize    prometheus.Histogram
	rollbacks      prometheus.Counter
	commitFailures prometheus.Counter
}

// NewStoreMetrics creates and registers the store collectors.
func NewStoreMetrics(reg prometheus.Registerer) (*StoreMetrics, error) {
	m := &StoreMetrics{
		commits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "officeflow",
			Subsystem: "store",
			Name:      "commits_total",
			Help:      "Write transactions committed to the durable backend.",
		}),
		commitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "officeflow",
			Subsystem: "store",
			Name:      "commit_duration_seconds",
			Help:      "Time spent serializing and writing a commit.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		journalSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "officeflow",
			Subsystem: "store",
			Name:      "journal_changes",
			Help:      "Journal entries per committed transaction.",
			Buckets:   []float64{1, 2, 4, 8, 16, 32, 64, 128},
		}),
		rollbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "officeflow",
			Subsystem: "store",
			Name:      "rollbacks_total",
			Help:      "Write transactions rolled back from the journal.",
		}),
		commitFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "officeflow",
			Subsystem: "store",
			Name:      "commit_failures_total",
			Help:      "Commits rejected by the durable backend.",
		}),
	}

	for _, c := range []prometheus.Collector{m.commits, m.commitDuration, m.journalSize, m.rollbacks, m.commitFailures} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register store metric: %w", err)
		}
	}
	return m, nil
}

func (m *StoreMetrics) Committed(changes int, elapsed time.Duration) {
	m.commits.Inc()
	m.commitDuration.Observe(elapsed.Seconds())
	m.journalSize.Observe(float64(changes))
}

func (m *StoreMetrics) RolledBack(int) {
	m.rollbacks.Inc()
}

func (m *StoreMetrics) CommitFailed(error) {
	m.commitFailures.Inc()
}
