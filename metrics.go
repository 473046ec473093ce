package dysession

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultHit       = "hit"
	resultMiss      = "miss"
	resultExpired   = "expired"
	resultOK        = "ok"
	resultDuplicate = "duplicate"
	resultError     = "error"
)

// Metrics counts session outcomes, a nil *Metrics records nothing.
type Metrics struct {
	Gets    *prometheus.CounterVec
	Sets    *prometheus.CounterVec
	Deletes *prometheus.CounterVec
}

// NewMetrics create the session counters and register them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Gets: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dysession_get_total",
			Help: "The total number of session reads by result.",
		}, []string{"result"}),
		Sets: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dysession_set_total",
			Help: "The total number of session writes by result.",
		}, []string{"result"}),
		Deletes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dysession_delete_total",
			Help: "The total number of session deletes by result.",
		}, []string{"result"}),
	}
}

func (m *Metrics) get(result string) {
	if m == nil {
		return
	}
	m.Gets.WithLabelValues(result).Inc()
}

func (m *Metrics) set(result string) {
	if m == nil {
		return
	}
	m.Sets.WithLabelValues(result).Inc()
}

func (m *Metrics) delete(result string) {
	if m == nil {
		return
	}
	m.Deletes.WithLabelValues(result).Inc()
}
