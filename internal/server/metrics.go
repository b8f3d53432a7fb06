package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the prometheus instruments for the optimization service.
// Ask/tell counters are fed through the protocol's callback hooks.
type Metrics struct {
	AsksTotal  *prometheus.CounterVec
	TellsTotal *prometheus.CounterVec
	JobsTotal  *prometheus.CounterVec
	BestLoss   *prometheus.GaugeVec
}

// NewMetrics registers the service metrics with the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AsksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "asktell_asks_total",
			Help: "Number of candidates asked, by algorithm.",
		}, []string{"algorithm"}),
		TellsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "asktell_tells_total",
			Help: "Number of losses told, by algorithm.",
		}, []string{"algorithm"}),
		JobsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "asktell_jobs_total",
			Help: "Number of optimization jobs, by terminal status.",
		}, []string{"status"}),
		BestLoss: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "asktell_best_loss",
			Help: "Best observed loss per running job.",
		}, []string{"job_id"}),
	}
}
