package game

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/playperu/speedgame/internal/party"
)

// Metrics counts gameplay activity. A nil *Metrics records nothing.
type Metrics struct {
	responses   *prometheus.CounterVec
	qcmAnswers  *prometheus.CounterVec
	expirations prometheus.Counter
	storeErrors *prometheus.CounterVec
}

// NewMetrics registers the gameplay collectors on reg, including a gauge of
// the parties currently held by repo.
func NewMetrics(reg prometheus.Registerer, repo *party.Repository) *Metrics {
	m := &Metrics{
		responses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "speedgame",
			Name:      "responses_total",
			Help:      "Team responses by mode and whether the gate accepted them.",
		}, []string{"mode", "outcome"}),
		qcmAnswers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "speedgame",
			Name:      "qcm_answers_total",
			Help:      "Multiple-choice answers by correctness.",
		}, []string{"valid"}),
		expirations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "speedgame",
			Name:      "timer_expirations_total",
			Help:      "Countdowns that reached zero.",
		}),
		storeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "speedgame",
			Name:      "store_errors_total",
			Help:      "Failed calls to the persistent store by operation.",
		}, []string{"op"}),
	}
	live := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "speedgame",
		Name:      "live_parties",
		Help:      "Parties currently held in memory.",
	}, func() float64 { return float64(repo.Len()) })

	reg.MustRegister(m.responses, m.qcmAnswers, m.expirations, m.storeErrors, live)
	return m
}

func (m *Metrics) response(mode string, accepted bool) {
	if m == nil {
		return
	}
	outcome := "rejected"
	if accepted {
		outcome = "accepted"
	}
	m.responses.WithLabelValues(mode, outcome).Inc()
}

func (m *Metrics) qcmAnswer(valid bool) {
	if m == nil {
		return
	}
	if valid {
		m.qcmAnswers.WithLabelValues("true").Inc()
		return
	}
	m.qcmAnswers.WithLabelValues("false").Inc()
}

func (m *Metrics) timerExpired() {
	if m == nil {
		return
	}
	m.expirations.Inc()
}

func (m *Metrics) storeError(op string) {
	if m == nil {
		return
	}
	m.storeErrors.WithLabelValues(op).Inc()
}
