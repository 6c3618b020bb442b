package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// NamingMetrics instruments the naming server: the service dispatcher, the
// registration reconciler, and the replication controller. It is optional;
// if not provided, callers use a no-op implementation with zero overhead.
type NamingMetrics interface {
	RecordRegistrationPruned(count int)
	RecordReplicationTriggered()
	RecordReplicationSucceeded()
	RecordAdmission(exclusive bool, wait time.Duration)
}

type namingMetrics struct {
	registrationsPruned prometheus.Counter
	replicationsTrigger prometheus.Counter
	replicationsOK      prometheus.Counter
	lockAdmissionWait   *prometheus.HistogramVec
}

// NewNamingMetrics creates a Prometheus-backed NamingMetrics. Returns a
// no-op implementation if InitRegistry has not been called.
func NewNamingMetrics() NamingMetrics {
	if !IsEnabled() {
		return &noopNamingMetrics{}
	}

	reg := GetRegistry()
	return &namingMetrics{
		registrationsPruned: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "dnfs_naming_registration_pruned_files_total",
			Help: "Total number of files pruned from storage server registrations",
		}),
		replicationsTrigger: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "dnfs_naming_replication_triggers_total",
			Help: "Total number of times the replication controller was invoked",
		}),
		replicationsOK: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "dnfs_naming_replication_success_total",
			Help: "Total number of successful replica copies",
		}),
		lockAdmissionWait: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "dnfs_naming_lock_admission_wait_seconds",
				Help: "Time a lock request waited in the queue before admission",
				Buckets: []float64{
					0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0,
				},
			},
			[]string{"mode"},
		),
	}
}

func (m *namingMetrics) RecordRegistrationPruned(count int) {
	m.registrationsPruned.Add(float64(count))
}

func (m *namingMetrics) RecordReplicationTriggered() {
	m.replicationsTrigger.Inc()
}

func (m *namingMetrics) RecordReplicationSucceeded() {
	m.replicationsOK.Inc()
}

func (m *namingMetrics) RecordAdmission(exclusive bool, wait time.Duration) {
	mode := "shared"
	if exclusive {
		mode = "exclusive"
	}
	m.lockAdmissionWait.WithLabelValues(mode).Observe(wait.Seconds())
}

type noopNamingMetrics struct{}

func (*noopNamingMetrics) RecordRegistrationPruned(count int)              {}
func (*noopNamingMetrics) RecordReplicationTriggered()                    {}
func (*noopNamingMetrics) RecordReplicationSucceeded()                    {}
func (*noopNamingMetrics) RecordAdmission(exclusive bool, wait time.Duration) {}
