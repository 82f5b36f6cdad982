// Package metrics records the progress of a solution search with Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "squadplanner"
	subsystem = "search"
)

// Recorder owns its registry so that several runs in one process do not collide.
// A nil *Recorder records nothing.
type Recorder struct {
	registry *prometheus.Registry

	solves        *prometheus.CounterVec
	solutions     prometheus.Counter
	solveDuration prometheus.Histogram
	cuts          prometheus.Gauge
	bestObjective prometheus.Gauge
	gap           prometheus.Gauge

	best    float64
	hasBest bool
}

func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Recorder{
		registry: registry,
		solves: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "solves_total",
			Help:      "Solver calls by returned status.",
		}, []string{"status"}),
		solutions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "solutions_total",
			Help:      "Accepted solutions.",
		}),
		solveDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "solve_duration_seconds",
			Help:      "Wall time of solver calls.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		cuts: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "nogood_cuts",
			Help:      "No-good cuts in the running formulation.",
		}),
		bestObjective: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "best_objective",
			Help:      "Best objective value found.",
		}),
		gap: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "bound_gap",
			Help:      "Distance between the backend's objective bound and the last accepted objective.",
		}),
	}
}

func (recorder *Recorder) ObserveSolve(status string, duration time.Duration) {
	if recorder == nil {
		return
	}
	recorder.solves.WithLabelValues(status).Inc()
	recorder.solveDuration.Observe(duration.Seconds())
}

func (recorder *Recorder) ObserveSolution(objective float64, cuts int) {
	if recorder == nil {
		return
	}
	recorder.solutions.Inc()
	recorder.cuts.Set(float64(cuts))
	if !recorder.hasBest || objective > recorder.best {
		recorder.best, recorder.hasBest = objective, true
		recorder.bestObjective.Set(objective)
	}
}

// ObserveGap records the bound gap of the last accepted solution, for backends reporting a bound
func (recorder *Recorder) ObserveGap(gap float64) {
	if recorder == nil {
		return
	}
	recorder.gap.Set(gap)
}

// WriteTextfile exports the collected metrics in the text exposition format, for the
// node exporter textfile collector
func (recorder *Recorder) WriteTextfile(path string) error {
	if recorder == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, recorder.registry)
}
