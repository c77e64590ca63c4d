package statusapi

import (
	"github.com/gatici/mongodb-operator/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net/http"
)

type Metrics struct {
	Registry *prometheus.Registry

	status  *prometheus.GaugeVec
	reports *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		status: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mongodb_unit_status",
			Help: "1 for the status the unit currently reports, 0 for the others.",
		}, []string{"status"}),
		reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mongodb_unit_status_reports_total",
			Help: "Number of unit status reports by status.",
		}, []string{"status"}),
	}
	m.Registry.MustRegister(m.status, m.reports)
	for _, kind := range model.UnitStatusKinds {
		m.status.WithLabelValues(string(kind)).Set(0)
	}
	return m
}

func (m *Metrics) observe(status model.UnitStatus) {
	for _, kind := range model.UnitStatusKinds {
		value := 0.0
		if kind == status.Kind {
			value = 1
		}
		m.status.WithLabelValues(string(kind)).Set(value)
	}
	m.reports.WithLabelValues(string(status.Kind)).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
