package search

import (
	"github.com/solverforge/chronicle-solver/clausedb"
	"github.com/solverforge/chronicle-solver/core"
	"github.com/solverforge/chronicle-solver/domain"
	"github.com/solverforge/chronicle-solver/explain"
	"github.com/solverforge/chronicle-solver/sv"
	"github.com/solverforge/chronicle-solver/theory"
	"github.com/solverforge/chronicle-solver/trail"
)

// Verdict is the public outcome of a Solve call, per spec §7: exactly
// three possibilities ever escape the core.
type Verdict uint8

const (
	Sat Verdict = iota
	Unsat
	Cancelled
)

// Outcome bundles the verdict with whatever evidence goes with it.
type Outcome struct {
	Verdict Verdict
	// Model holds, for Sat, the value of every present variable.
	Model map[core.VarId]core.IntCst
	// UnsatCore is explain.UnsatCore of the final conflict's analysis.
	// A conflict at the root level ends the search without running the
	// analyzer, so for every Unsat outcome this slice is empty.
	UnsatCore []sv.Literal
}

// Statistics tracks solver performance counters, mirrored from the
// teacher's sat/types.go SolverStatistics, trimmed to the fields the
// core (not inprocessing) produces.
type Statistics struct {
	Decisions      int64
	Propagations   int64
	Conflicts      int64
	Restarts       int64
	LearnedClauses int64
	DeletedClauses int64
}

// state is the driver's internal state machine (spec §4.6 "State
// machine").
type state uint8

const (
	stSearching state = iota
	stAtConflict
	stAtDecision
	stAtSolution
	stDone
)

// Driver runs the CDCL loop of spec §4.6 over shared Domains/Trail/DB,
// polling registered theories round-robin and learning via the
// explainer. Grounded on the teacher's sat/cdcl.go CDCLSolver main
// loop, generalized to bound literals, presence, and theory polling
// (the teacher has no theory layer at all).
type Driver struct {
	cfg     *core.Config
	t       *trail.Trail
	domains *domain.Domains
	db      *clausedb.DB
	analyzer *explain.Analyzer

	theories   []theory.Theory
	theoryByID map[core.TheoryId]theory.Theory

	brancher Brancher
	restart  RestartPolicy
	interrupt *core.Interrupt

	cursor trail.Cursor
	stats  Statistics

	conflictsSinceRestart int64

	// objective, if set, drives Minimize/Maximize (spec §4.6 step 5).
	objective core.VarId
	hasObjective bool
	minimize  bool
}

// New returns a Driver over already-built model state. The caller
// (package model) owns Domains/Trail/DB construction and passes them
// in; the Driver mutates them during search, so each parallel
// portfolio worker is built over its own Domains/Trail/DB.
func New(cfg *core.Config, t *trail.Trail, d *domain.Domains, db *clausedb.DB) *Driver {
	drv := &Driver{
		cfg:        cfg,
		t:          t,
		domains:    d,
		db:         db,
		theoryByID: make(map[core.TheoryId]theory.Theory),
		restart:    NewLubyRestart(cfg.RestartBase),
		interrupt:  core.NewInterrupt(),
	}
	drv.brancher = NewVSIDS(d.NumVars, cfg.VarActivityDecay, cfg.Seed)
	drv.analyzer = explain.New(db, d, t, drv.lookupTheory)
	return drv
}

// RegisterTheory adds a theory plug-in, assigning it the next
// TheoryId in registration order. Registration order is the tie-break
// for contradictory simultaneous inferences (spec §9 OQ1): theories
// are always polled in this order, so the first registered to tighten
// a bound wins the trail slot.
func (drv *Driver) RegisterTheory(th theory.Theory) {
	id := core.TheoryId(len(drv.theories) + 1)
	th.SetID(id)
	drv.theories = append(drv.theories, th)
	drv.theoryByID[id] = th
}

func (drv *Driver) lookupTheory(id core.TheoryId) theory.Theory {
	th, ok := drv.theoryByID[id]
	if !ok {
		core.Violation("search", "no theory registered for id %d", id)
	}
	return th
}

// SetBrancher overrides the default VSIDS brancher.
func (drv *Driver) SetBrancher(b Brancher) { drv.brancher = b }

// Interrupt returns the cooperative cancellation token polled at the
// top of every BCP outer iteration and every restart decision.
func (drv *Driver) Interrupt() *core.Interrupt { return drv.interrupt }

// Statistics returns a snapshot of the driver's counters.
func (drv *Driver) Statistics() Statistics { return drv.stats }

// Minimize configures the driver to search for the assignment
// minimizing obj, per spec §4.6 step 5.
func (drv *Driver) Minimize(obj core.VarId) {
	drv.objective, drv.hasObjective, drv.minimize = obj, true, true
}

// Maximize configures the driver to search for the assignment
// maximizing obj.
func (drv *Driver) Maximize(obj core.VarId) {
	drv.objective, drv.hasObjective, drv.minimize = obj, true, false
}

// Solve runs the state machine of spec §4.6 to completion: Sat,
// Unsat, or Cancelled. For an optimization problem it repeats the
// loop, tightening the objective bound on every solution, until
// Unsat proves optimality — the caller inspects Outcome.Model after
// each call for the latest improving solution if it wants anytime
// behavior; this single call blocks until the final verdict.
func (drv *Driver) Solve() Outcome {
	var best Outcome
	haveSolution := false
	for {
		out := drv.solveOnce()
		switch out.Verdict {
		case Cancelled:
			if haveSolution {
				best.Verdict = Sat
				return best
			}
			return out
		case Unsat:
			if haveSolution {
				best.Verdict = Sat
				return best
			}
			return out
		case Sat:
			if !drv.hasObjective {
				return out
			}
			best = out
			haveSolution = true
			val := out.Model[drv.objective]
			var bound sv.Literal
			if drv.minimize {
				bound = sv.LT(drv.objective, val)
			} else {
				bound = sv.GT(drv.objective, val)
			}
			if _, err := drv.db.AddClause([]sv.Literal{bound}, false); err != nil {
				return best
			}
			drv.t.Restore(core.RootLvl)
			drv.cursor = trail.NewCursor(0)
		}
	}
}

// Enumerate implements spec §4.6 step 3's "add a blocking literal if
// enumerating" path and spec §6's enumerate(vars): it solves
// repeatedly, invoking yield with every model found, and forbids the
// exact assignment over vars before continuing the search. Stops when
// yield returns false, no solution remains (Unsat), or the search is
// interrupted (Cancelled); the terminal Outcome reflects whichever of
// those ended the loop.
func (drv *Driver) Enumerate(vars []core.VarId, yield func(model map[core.VarId]core.IntCst) bool) Outcome {
	for {
		out := drv.solveOnce()
		if out.Verdict != Sat {
			return out
		}
		if !yield(out.Model) {
			return out
		}

		blocking := make([]sv.Literal, 0, len(vars)*2)
		for _, v := range vars {
			val, ok := out.Model[v]
			if !ok {
				continue // v was absent in this solution: nothing to block on
			}
			blocking = append(blocking, sv.LT(v, val), sv.GT(v, val))
		}
		if len(blocking) == 0 {
			// Every enumerated var was absent, so no literal
			// distinguishes this solution from the next search: stop
			// here rather than loop forever re-finding it.
			return out
		}
		if _, err := drv.db.AddClause(blocking, false); err != nil {
			return out
		}
		drv.t.Restore(core.RootLvl)
		drv.cursor = trail.NewCursor(0)
	}
}

func (drv *Driver) solveOnce() Outcome {
	st := stSearching
	for st != stDone {
		if drv.interrupt.Fired() {
			return Outcome{Verdict: Cancelled}
		}

		conflictClause := drv.db.Propagate(drv.t, &drv.cursor)
		if conflictClause != nil {
			st = stAtConflict
			res, isUnsat := drv.handleConflict(explain.Conflict{Clause: conflictClause})
			if isUnsat {
				return Outcome{Verdict: Unsat, UnsatCore: explain.UnsatCore(res)}
			}
			continue
		}

		if contradiction, lits := drv.pollTheories(); contradiction {
			st = stAtConflict
			res, isUnsat := drv.handleConflict(explain.Conflict{Literals: lits})
			if isUnsat {
				return Outcome{Verdict: Unsat, UnsatCore: explain.UnsatCore(res)}
			}
			continue
		}

		st = stAtDecision
		lit, ok := drv.brancher.NextDecision(drv.domains)
		if !ok {
			st = stAtSolution
			return drv.recordSolution()
		}

		drv.t.Save()
		drv.brancher.SaveState()
		for _, th := range drv.theories {
			th.SaveState()
		}
		drv.stats.Decisions++
		outcome, conflictVar := drv.domains.Set(lit, trail.Origin{Kind: trail.OriginDecision})
		if outcome == domain.Contradiction {
			_ = conflictVar
			res, isUnsat := drv.handleConflict(explain.Conflict{Literals: []sv.Literal{lit}})
			if isUnsat {
				return Outcome{Verdict: Unsat, UnsatCore: explain.UnsatCore(res)}
			}
		}
	}
	return Outcome{Verdict: Unsat}
}

// pollTheories polls every registered theory round-robin in
// registration order (spec §4.6 step 2, spec §9 OQ1).
func (drv *Driver) pollTheories() (contradiction bool, lits []sv.Literal) {
	for _, th := range drv.theories {
		if err := th.Propagate(drv.domains); err != nil {
			if c, ok := err.(*theory.Contradiction); ok {
				return true, c.Literals
			}
			return true, nil
		}
	}
	return false, nil
}

// handleConflict implements spec §4.6 step 1 (the "else analyze, learn,
// backtrack, continue" branch) plus steps 4-5's restart/deletion hooks.
// The returned bool is true exactly when the conflict was at the root
// level, i.e. the formula is UNSAT.
func (drv *Driver) handleConflict(conflict explain.Conflict) (explain.Result, bool) {
	drv.stats.Conflicts++
	drv.conflictsSinceRestart++

	if drv.t.DecisionLevel() == core.RootLvl {
		return explain.Result{}, true
	}

	res := drv.analyzer.Analyze(conflict)
	var learnedID core.ClauseId
	haveLearned := false
	if len(res.Learned) > 0 {
		// res.Learned lists literals entailed at the conflict; the
		// learned clause is the disjunction of their negations.
		clause := make([]sv.Literal, len(res.Learned))
		for i, l := range res.Learned {
			clause[i] = l.Negate()
		}
		c, err := drv.db.AddClause(clause, true)
		if err == nil {
			c.SetLBD(res.LBD, drv.cfg.ClauseDeletion.GlueLBDMax)
			drv.stats.LearnedClauses++
			learnedID, haveLearned = c.ID, true
		}
	}
	drv.brancher.Update(res.Learned)

	drv.backtrackTo(res.AssertingLevel)

	// Enqueue the asserting literal at the new current level, origin
	// "learned clause" (spec §4.5 step 4), or a root fact if the
	// clause was a single literal (spec §8 "a learned clause of size 1
	// ... is equivalent to a top-level bound tightening").
	origin := trail.Origin{Kind: trail.OriginRoot}
	if haveLearned && len(res.Learned) > 1 {
		origin = trail.Origin{Kind: trail.OriginClause, Clause: learnedID}
	}
	drv.domains.Set(res.UIP, origin)

	if drv.restart.ShouldRestart(drv.conflictsSinceRestart) {
		drv.backtrackTo(core.RootLvl)
		drv.restart.OnRestart()
		drv.stats.Restarts++
		drv.conflictsSinceRestart = 0
	}

	if len(drv.db.LearnedClauses()) > int(float64(drv.db.ProblemClauses())*drv.cfg.ClauseDeletion.MaxLearnedRatio) {
		drv.stats.DeletedClauses += drv.deleteLowActivityClauses()
	}

	return res, false
}

// backtrackTo pops save points one at a time until the trail is back
// at level, keeping level's own events, and undoes one brancher and
// theory saved state per popped level.
func (drv *Driver) backtrackTo(level core.DecLvl) {
	for drv.t.DecisionLevel() > level {
		drv.t.RestoreLast()
		drv.brancher.RestoreLast()
		for _, th := range drv.theories {
			th.RestoreLast()
		}
	}
	if drv.cursor.Pos() > drv.t.Len() {
		drv.cursor = trail.NewCursor(drv.t.Len())
	}
}

// deleteLowActivityClauses removes non-glue, non-protected learned
// clauses in clause-id order (oldest first) until at most
// MaxLearnedRatio * problem clause count live learned clauses remain,
// or no deletable one is left (spec §9 OQ3). Clause Activity is not
// consulted. Problem clauses are never touched.
func (drv *Driver) deleteLowActivityClauses() int64 {
	// Reference policy: mark them deleted by first unregistering both
	// watch tokens (db.RemoveWatches), then clearing their literal
	// slice; the clause id stays reserved (clause ids are stable), but
	// with the tokens gone no future Propagate call will ever look at
	// this clause again.
	var candidates []*clausedb.Clause
	for _, c := range drv.db.LearnedClauses() {
		if len(c.Literals) > 0 { // deleted clauses stay marked learned
			candidates = append(candidates, c)
		}
	}
	target := int(float64(drv.db.ProblemClauses()) * drv.cfg.ClauseDeletion.MaxLearnedRatio)
	if len(candidates) <= target {
		return 0
	}
	toRemove := len(candidates) - target
	removed := int64(0)
	for _, c := range candidates {
		if toRemove <= 0 {
			break
		}
		if c.IsGlue() || c.IsProtected() {
			continue
		}
		drv.db.RemoveWatches(c)
		c.Literals = nil
		toRemove--
		removed++
	}
	return removed
}

func (drv *Driver) recordSolution() Outcome {
	model := make(map[core.VarId]core.IntCst)
	n := drv.domains.NumVars()
	for id := 0; id < n; id++ {
		vid := core.VarId(id)
		if drv.domains.IsKnownAbsent(vid) {
			continue
		}
		lb, _ := drv.domains.Bounds(vid)
		model[vid] = lb
	}
	return Outcome{Verdict: Sat, Model: model}
}
