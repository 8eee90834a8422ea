package core

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Config bundles every tunable of the solver. It is constructed once
// by the caller and threaded explicitly through the Solver and its
// theories; nothing here is package-level state (spec §5).
type Config struct {
	// Seed drives the activity-tie-break PRNG (the Luby restart
	// sequence takes no seed) so that two runs with the same seed
	// produce identical trails (spec §8 round-trip property).
	Seed int64

	// Workers is the number of parallel portfolio solvers to run;
	// 1 disables the portfolio driver entirely.
	Workers int

	// Restart tunables (teacher's ActivityBasedDeletion numeric
	// defaults, documented as tunables per spec §9 OQ3).
	RestartBase       int64
	ClauseDeletion    ClauseDeletionConfig
	VarActivityDecay  float64
	ClauseActivityInc float64

	// Log is the structured logger threaded through every component.
	// Defaults to a discard logger if nil (see NewConfig).
	Log *logrus.Entry
}

// ClauseDeletionConfig holds the activity-based learned-clause
// deletion thresholds (spec §9 OQ3).
type ClauseDeletionConfig struct {
	ActivityDecay   float64
	MaxLearnedRatio float64 // multiple of the problem-clause count
	GlueLBDMax      int     // clauses at/under this LBD are never deleted
}

// DefaultClauseDeletion mirrors the teacher's ActivityBasedDeletion
// magic numbers (sat/heuristics.go), treated as tunables.
func DefaultClauseDeletion() ClauseDeletionConfig {
	return ClauseDeletionConfig{
		ActivityDecay:   0.999,
		MaxLearnedRatio: 3.0,
		GlueLBDMax:      2,
	}
}

// NewConfig returns a Config with the teacher's defaults and a
// discard-everything logger; callers override fields (notably Log)
// before passing the Config to model.New.
func NewConfig() *Config {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return &Config{
		Seed:              1,
		Workers:           1,
		RestartBase:       100,
		ClauseDeletion:    DefaultClauseDeletion(),
		VarActivityDecay:  0.95,
		ClauseActivityInc: 1.0,
		Log:               logrus.NewEntry(logger),
	}
}

// Interrupt is a cooperative cancellation token shared by a Solver and
// (in the parallel portfolio) by its sibling workers. Polled at the
// top of every BCP outer iteration and at every restart decision
// (spec §5).
type Interrupt struct {
	flag atomic.Bool
}

// NewInterrupt returns a token in the non-fired state.
func NewInterrupt() *Interrupt { return &Interrupt{} }

// Fire marks the token as interrupted; idempotent, safe to call from
// any goroutine.
func (i *Interrupt) Fire() { i.flag.Store(true) }

// Fired reports whether Fire was called.
func (i *Interrupt) Fired() bool { return i.flag.Load() }
