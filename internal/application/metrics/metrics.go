package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the application module.
// Tracks apply outcomes, status reviews and apply latency.
type Metrics struct {
	ApplicationsSubmitted  prometheus.Counter
	DuplicateApplications  prometheus.Counter
	IneligibleApplications prometheus.Counter
	StatusUpdates          *prometheus.CounterVec
	ApplyDuration          prometheus.Histogram
}

// New creates a Metrics instance registered with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ApplicationsSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "jobportal_applications_submitted_total",
			Help: "Total number of applications submitted",
		}),
		DuplicateApplications: factory.NewCounter(prometheus.CounterOpts{
			Name: "jobportal_applications_duplicate_total",
			Help: "Total number of apply attempts rejected as duplicates",
		}),
		IneligibleApplications: factory.NewCounter(prometheus.CounterOpts{
			Name: "jobportal_applications_ineligible_total",
			Help: "Total number of apply attempts rejected by the CGPA floor",
		}),
		StatusUpdates: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "jobportal_application_status_updates_total",
			Help: "Total number of application status updates by target status",
		}, []string{"status"}),
		ApplyDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "jobportal_apply_duration_seconds",
			Help:    "Duration of Apply operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncrementSubmitted() {
	m.ApplicationsSubmitted.Inc()
}

func (m *Metrics) IncrementDuplicate() {
	m.DuplicateApplications.Inc()
}

func (m *Metrics) IncrementIneligible() {
	m.IneligibleApplications.Inc()
}

func (m *Metrics) IncrementStatusUpdated(status string) {
	m.StatusUpdates.WithLabelValues(status).Inc()
}

// ObserveApply records the duration of an Apply operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveApply(start time.Time) {
	m.ApplyDuration.Observe(time.Since(start).Seconds())
}
