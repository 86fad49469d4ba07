package metrics

import "github.com/prometheus/client_golang/prometheus"

// AdmissionMetrics exposes counters/histograms for appointment lifecycle flows.
type AdmissionMetrics struct {
	actionsTotal   *prometheus.CounterVec
	denialsTotal   *prometheus.CounterVec
	waitMinutes    prometheus.Histogram
	consultMinutes prometheus.Histogram
}

func NewAdmissionMetrics(reg prometheus.Registerer) *AdmissionMetrics {
	m := &AdmissionMetrics{
		actionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "admission",
			Name:      "actions_total",
			Help:      "Total lifecycle actions attempted on appointments",
		}, []string{"action", "outcome"}),
		denialsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "admission",
			Name:      "denials_total",
			Help:      "Denied lifecycle actions by denial category",
		}, []string{"action", "category"}),
		waitMinutes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "admission",
			Name:      "checkin_wait_minutes",
			Help:      "Minutes between check-in and consultation start",
			Buckets:   []float64{5, 10, 15, 30, 45, 60, 90, 120},
		}),
		consultMinutes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "admission",
			Name:      "consultation_minutes",
			Help:      "Minutes between consultation start and completion",
			Buckets:   []float64{10, 20, 30, 45, 60, 90, 120},
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.actionsTotal, m.denialsTotal, m.waitMinutes, m.consultMinutes)
	return m
}

// ObserveAction records one attempted lifecycle action.
func (m *AdmissionMetrics) ObserveAction(action string, allowed bool) {
	if m == nil {
		return
	}
	outcome := "denied"
	if allowed {
		outcome = "allowed"
	}
	m.actionsTotal.WithLabelValues(action, outcome).Inc()
}

// ObserveDenial records a denial with its rule category.
func (m *AdmissionMetrics) ObserveDenial(action, category string) {
	if m == nil {
		return
	}
	m.denialsTotal.WithLabelValues(action, category).Inc()
}

// ObserveWait records how long a patient waited between check-in and
// consultation start.
func (m *AdmissionMetrics) ObserveWait(minutes float64) {
	if m == nil {
		return
	}
	m.waitMinutes.Observe(minutes)
}

// ObserveConsultation records consultation duration.
func (m *AdmissionMetrics) ObserveConsultation(minutes float64) {
	if m == nil {
		return
	}
	m.consultMinutes.Observe(minutes)
}
