// Package metrics exposes Prometheus collectors for the object store calls
// and the bulk operations built on them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "r2_manager"

// Metrics holds every collector the server exports.
type Metrics struct {
	StoreCalls      *prometheus.CounterVec
	StoreDuration   *prometheus.HistogramVec
	DeletedKeys     prometheus.Counter
	RejectedKeys    prometheus.Counter
	FailedDeletions prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StoreCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_calls_total",
				Help:      "Object store calls by operation and outcome.",
			},
			[]string{"op", "outcome"}, // outcome: ok | error
		),
		StoreDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "store_call_duration_seconds",
				Help:      "Object store call latency in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		DeletedKeys: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bulk_deleted_keys_total",
			Help:      "Keys the store confirmed deleted in multi-delete calls.",
		}),
		RejectedKeys: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bulk_rejected_keys_total",
			Help:      "Keys the store refused to delete in multi-delete calls.",
		}),
		FailedDeletions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bulk_failed_calls_total",
			Help:      "Multi-delete calls that failed as a whole.",
		}),
	}

	reg.MustRegister(m.StoreCalls, m.StoreDuration, m.DeletedKeys, m.RejectedKeys, m.FailedDeletions)
	return m
}
