// Package obs is the ambient observability stack threaded through the
// solver: structured logging and Prometheus metrics, built the way
// nomad and operator-lifecycle-manager do it (github.com/sirupsen/logrus,
// github.com/prometheus/client_golang), never as package-level global
// state (spec §5 "Process-wide resources ... are explicitly threaded
// through a solver config").
package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/solverforge/chronicle-solver/search"
)

// Metrics bundles the Prometheus collectors for one solver instance.
// Registered against a caller-supplied Registerer so embedding
// applications (and tests) control what registry they land in.
type Metrics struct {
	Conflicts      prometheus.Counter
	Restarts       prometheus.Counter
	Decisions      prometheus.Counter
	LearnedClauses prometheus.Counter
	DeletedClauses prometheus.Counter
	SolveDuration  prometheus.Histogram
}

// NewMetrics builds and registers a Metrics set under the given
// namespace (e.g. the worker id, for the parallel portfolio).
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	m := &Metrics{
		Conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "conflicts_total", Help: "Number of CDCL conflicts encountered.",
		}),
		Restarts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "restarts_total", Help: "Number of search restarts performed.",
		}),
		Decisions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "decisions_total", Help: "Number of branching decisions taken.",
		}),
		LearnedClauses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "learned_clauses_total", Help: "Number of clauses learned via conflict analysis.",
		}),
		DeletedClauses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "deleted_clauses_total", Help: "Number of learned clauses removed by the deletion policy.",
		}),
		SolveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "solve_duration_seconds", Help: "Wall-clock time spent in Solve().",
		}),
	}
	reg.MustRegister(m.Conflicts, m.Restarts, m.Decisions, m.LearnedClauses, m.DeletedClauses, m.SolveDuration)
	return m
}

// Observe copies a Statistics snapshot into the counters. Prometheus
// counters are monotonic, so this is only correct when called once
// per Solve() with the final statistics.
func (m *Metrics) Observe(stats search.Statistics) {
	m.Conflicts.Add(float64(stats.Conflicts))
	m.Restarts.Add(float64(stats.Restarts))
	m.Decisions.Add(float64(stats.Decisions))
	m.LearnedClauses.Add(float64(stats.LearnedClauses))
	m.DeletedClauses.Add(float64(stats.DeletedClauses))
}

// NewLogger returns a logrus entry configured at the given level, one
// per Solver instance (spec §5: logging is a process-wide resource
// that must be explicitly threaded, never global).
func NewLogger(level logrus.Level) *logrus.Entry {
	l := logrus.New()
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return logrus.NewEntry(l).WithField("component", "chronicle-solver")
}
