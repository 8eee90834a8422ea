// Package search implements spec §4.6: the decision loop, restarts,
// level tracking, solution recording, and optimization. The Brancher
// contract and the default VSIDS-flavored implementation are grounded
// on the teacher's sat/interfaces.go Heuristic interface and
// sat/heuristics.go VSIDSHeuristic, generalized from string variable
// names to dense core.VarId and from boolean decisions to bound
// literals.
package search

import (
	"math/rand"

	"github.com/solverforge/chronicle-solver/core"
	"github.com/solverforge/chronicle-solver/domain"
	"github.com/solverforge/chronicle-solver/sv"
)

// Brancher is the minimal decision contract of spec §6: called only
// at BCP fixpoint, with save/restore mirrored to the trail so a
// brancher's private state (e.g. activity scores) survives
// backtracking.
type Brancher interface {
	// NextDecision returns the next literal to decide, or ok=false if
	// every variable is already bound (a solution was found).
	NextDecision(d *domain.Domains) (lit sv.Literal, ok bool)
	// Update is called once per conflict with the clause just learned,
	// so activity-based branchers can bump the literals involved.
	Update(learned []sv.Literal)
	SaveState()
	RestoreLast()
}

// VSIDS is the default Brancher: exponentially decaying variable
// activity, tie-broken by a seeded PRNG so identical seeds reproduce
// identical trails (spec §8 round-trip property).
type VSIDS struct {
	activity map[core.VarId]float64
	increment float64
	decay     float64
	numVars   func() int
	rng       *rand.Rand

	saved []map[core.VarId]float64
}

// NewVSIDS returns a VSIDS brancher over variables [0, numVars()).
// decay matches core.Config.VarActivityDecay.
func NewVSIDS(numVars func() int, decay float64, seed int64) *VSIDS {
	return &VSIDS{
		activity:  make(map[core.VarId]float64),
		increment: 1.0,
		decay:     decay,
		numVars:   numVars,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

func (v *VSIDS) NextDecision(d *domain.Domains) (sv.Literal, bool) {
	var best core.VarId = 0
	bestScore := -1.0
	found := false
	ties := 0
	n := v.numVars()
	for id := 1; id < n; id++ { // skip ZeroVar
		vid := core.VarId(id)
		if d.IsKnownAbsent(vid) {
			continue
		}
		lb, ub := d.Bounds(vid)
		if lb > ub {
			continue // presence undecided but domain already empty: let propagation settle it
		}
		if lb == ub && d.IsKnownPresent(vid) {
			continue // bound and presence both fixed: nothing left to decide
		}
		score := v.activity[vid]
		switch {
		case !found || score > bestScore:
			best = vid
			bestScore = score
			found = true
			ties = 1
		case score == bestScore:
			// Keep each tied candidate with probability 1/ties, so the
			// seeded PRNG picks uniformly among equal activities.
			ties++
			if v.rng.Intn(ties) == 0 {
				best = vid
			}
		}
	}
	if !found {
		return sv.Literal{}, false
	}
	lb, ub := d.Bounds(best)
	if lb == ub {
		// Domain is already a single point; deciding its (already
		// entailed) bound would make zero trail progress. Presence must
		// still be undecided here (the loop above skips known-present
		// fixed vars and IsKnownAbsent vars are skipped too), so decide
		// presence directly to guarantee progress.
		return d.Presence(best), true
	}
	mid := lb + (ub-lb)/2
	return sv.LEq(best, mid), true
}

// Update bumps the activity of every variable touched by the learned
// clause and periodically rescales to avoid float overflow, mirroring
// the teacher's VSIDSHeuristic.Update decay-then-bump scheme.
func (v *VSIDS) Update(learned []sv.Literal) {
	for _, l := range learned {
		v.activity[l.Var()] += v.increment
	}
	v.increment /= v.decay
	if v.increment > 1e100 {
		for k := range v.activity {
			v.activity[k] *= 1e-100
		}
		v.increment *= 1e-100
	}
}

func (v *VSIDS) SaveState() {
	snap := make(map[core.VarId]float64, len(v.activity))
	for k, val := range v.activity {
		snap[k] = val
	}
	v.saved = append(v.saved, snap)
}

func (v *VSIDS) RestoreLast() {
	n := len(v.saved)
	if n == 0 {
		return
	}
	v.activity = v.saved[n-1]
	v.saved = v.saved[:n-1]
}
