package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for a JobManager. Each instance owns its
// registry so several servers can coexist in one process.
type Metrics struct {
	registry    *prometheus.Registry
	jobs        *prometheus.GaugeVec
	finished    *prometheus.CounterVec
	generations prometheus.Counter
	bestFitness *prometheus.GaugeVec
	duration    prometheus.Histogram
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		jobs: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "genetica_jobs",
			Help: "Number of jobs by state.",
		}, []string{"state"}),
		finished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "genetica_jobs_finished_total",
			Help: "Jobs that reached a terminal state.",
		}, []string{"state"}),
		generations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "genetica_generations_total",
			Help: "Ranked generations across all jobs.",
		}),
		bestFitness: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "genetica_best_fitness",
			Help: "Best fitness of the latest ranked generation of each active run.",
		}, []string{"run_id"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "genetica_job_duration_seconds",
			Help:    "Wall time of finished jobs.",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
	}
	m.registry.MustRegister(m.jobs, m.finished, m.generations, m.bestFitness, m.duration)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) jobCreated() {
	m.jobs.WithLabelValues(string(StatePending)).Inc()
}

func (m *Metrics) transition(from, to JobState) {
	m.jobs.WithLabelValues(string(from)).Dec()
	m.jobs.WithLabelValues(string(to)).Inc()
	if to.Terminal() {
		m.finished.WithLabelValues(string(to)).Inc()
	}
}

func (m *Metrics) generation(runID string, best float64) {
	m.generations.Inc()
	m.bestFitness.WithLabelValues(runID).Set(best)
}

// jobFinished records the duration and drops the run's fitness series.
func (m *Metrics) jobFinished(runID string, elapsed time.Duration) {
	m.duration.Observe(elapsed.Seconds())
	m.bestFitness.DeleteLabelValues(runID)
}
