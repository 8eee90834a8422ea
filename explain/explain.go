// Package explain implements spec §4.5: the conflict analyzer that
// resolves a conflict (an empty domain, a falsified clause, or a
// theory-produced Explanation) into a learned clause and an asserting
// level, via 1-UIP resolution walking the trail backward.
//
// Grounded on the teacher's sat/conflict_analysis.go FirstUIPAnalyzer,
// generalized from a string-keyed boolean implication graph to the
// signed-literal trail of package trail, and extended to resolve
// through theory-tagged origins via the TheoryLookup callback (the
// teacher's analyzer only ever resolves through clauses).
package explain

import (
	"sort"

	"github.com/solverforge/chronicle-solver/clausedb"
	"github.com/solverforge/chronicle-solver/core"
	"github.com/solverforge/chronicle-solver/domain"
	"github.com/solverforge/chronicle-solver/sv"
	"github.com/solverforge/chronicle-solver/theory"
	"github.com/solverforge/chronicle-solver/trail"
)

// TheoryLookup resolves a TheoryId back to the Theory instance that
// owns it, so the analyzer can call Explain on the right plug-in.
type TheoryLookup func(core.TheoryId) theory.Theory

// Conflict is the input to Analyze: either a clause falsified during
// BCP, or a raw set of literals a theory reported as contradictory.
type Conflict struct {
	Clause  *clausedb.Clause // nil if Literals carries the conflict
	Literals []sv.Literal    // used when Clause is nil (theory contradiction)
}

// Result is the output of Analyze.
type Result struct {
	Learned        []sv.Literal
	AssertingLevel core.DecLvl
	UIP            sv.Literal // the literal to enqueue (negation of the resolved UIP) at AssertingLevel
	LBD            int
}

// Analyzer performs 1-UIP resolution.
type Analyzer struct {
	db       *clausedb.DB
	domains  *domain.Domains
	t        *trail.Trail
	theories TheoryLookup
}

// New returns an Analyzer wired to the solver's shared state.
func New(db *clausedb.DB, d *domain.Domains, t *trail.Trail, theories TheoryLookup) *Analyzer {
	return &Analyzer{db: db, domains: d, t: t, theories: theories}
}

// canonicalSet deduplicates literals on the same signed variable,
// keeping only the strongest one per chain (spec §4.5: "keep the
// strongest literal per signed variable").
type canonicalSet struct {
	byVar map[sv.SignedVar]sv.Literal
	order []sv.SignedVar
}

func newCanonicalSet() *canonicalSet {
	return &canonicalSet{byVar: make(map[sv.SignedVar]sv.Literal)}
}

func (cs *canonicalSet) add(lit sv.Literal) {
	if existing, ok := cs.byVar[lit.SVar]; ok {
		cs.byVar[lit.SVar] = sv.Stronger(existing, lit)
		return
	}
	cs.byVar[lit.SVar] = lit
	cs.order = append(cs.order, lit.SVar)
}

func (cs *canonicalSet) remove(svar sv.SignedVar) {
	delete(cs.byVar, svar)
}

func (cs *canonicalSet) has(svar sv.SignedVar) bool {
	_, ok := cs.byVar[svar]
	return ok
}

func (cs *canonicalSet) literals() []sv.Literal {
	out := make([]sv.Literal, 0, len(cs.order))
	for _, svar := range cs.order {
		if lit, ok := cs.byVar[svar]; ok {
			out = append(out, lit)
		}
	}
	return out
}

// Analyze runs the algorithm of spec §4.5.
func (a *Analyzer) Analyze(conflict Conflict) Result {
	currentLevel := a.t.DecisionLevel()

	implied := newCanonicalSet()
	var seedLits []sv.Literal
	if conflict.Clause != nil {
		for _, l := range conflict.Clause.Literals {
			seedLits = append(seedLits, l.Negate())
		}
	} else {
		seedLits = conflict.Literals
	}
	for _, l := range seedLits {
		implied.add(l)
	}

	levelsSeen := make(map[core.DecLvl]bool)
	countAtCurrentLevel := func() int {
		n := 0
		for _, svar := range implied.order {
			lit, ok := implied.byVar[svar]
			if !ok {
				continue
			}
			if a.levelOf(lit) == currentLevel {
				n++
			}
		}
		return n
	}

	cursor := a.t.Len() - 1
	var uip sv.Literal
	haveUIP := false

	for countAtCurrentLevel() > 1 {
		// Walk backward to the most recent trail event whose asserted
		// literal is in the implied set.
		var ev trail.Event
		found := false
		for ; cursor >= 0; cursor-- {
			e := a.t.Event(int32(cursor))
			assertedLit := sv.Literal{SVar: e.SVar, Value: e.NewValue}
			if implied.has(assertedLit.SVar) && implied.byVar[assertedLit.SVar].Entails(assertedLit) {
				ev = e
				found = true
				cursor--
				break
			}
		}
		if !found {
			break
		}

		levelsSeen[ev.Level] = true
		resolvedLit := sv.Literal{SVar: ev.SVar, Value: ev.NewValue}
		implied.remove(resolvedLit.SVar)

		switch ev.Origin.Kind {
		case trail.OriginClause:
			c := a.db.Clause(ev.Origin.Clause)
			for _, l := range c.Literals {
				if l.SVar == resolvedLit.SVar {
					continue // the resolved literal itself
				}
				implied.add(l.Negate())
			}
		case trail.OriginTheory:
			th := a.theories(ev.Origin.Theory)
			exp := th.Explain(resolvedLit, ev.Origin.Payload, a.domains)
			for _, l := range exp {
				implied.add(l.Negate())
			}
		case trail.OriginDecision:
			uip = resolvedLit
			haveUIP = true
		case trail.OriginPresence, trail.OriginRoot:
			// Treated like a unit fact with no antecedents: nothing to
			// add back, it simply leaves the implied set.
		}

		if ev.Origin.Kind == trail.OriginDecision {
			break
		}
	}

	if !haveUIP {
		// The remaining single literal at the current level is itself
		// the UIP (spec: "the resolved literal is a UIP" happens when
		// we stop because the count dropped to 1, not because we hit a
		// decision).
		for _, svar := range implied.order {
			lit, ok := implied.byVar[svar]
			if ok && a.levelOf(lit) == currentLevel {
				uip = lit
				break
			}
		}
	}

	learned := implied.literals()
	assertLvl := a.secondHighestLevel(learned, currentLevel)
	lbd := a.computeLBD(learned)

	negUIP := uip.Negate()
	return Result{
		Learned:        learned,
		AssertingLevel: assertLvl,
		UIP:            negUIP,
		LBD:            lbd,
	}
}

// levelOf returns the decision level at which lit's signed variable
// was last tightened to at least lit's strength.
func (a *Analyzer) levelOf(lit sv.Literal) core.DecLvl {
	idx := a.domains.CauseIndex(lit.SVar)
	if idx < 0 {
		return core.RootLvl
	}
	return a.t.Event(idx).Level
}

func (a *Analyzer) secondHighestLevel(lits []sv.Literal, conflictLevel core.DecLvl) core.DecLvl {
	levels := make([]core.DecLvl, 0, len(lits))
	for _, l := range lits {
		levels = append(levels, a.levelOf(l))
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] > levels[j] })
	if len(levels) == 0 {
		return core.RootLvl
	}
	if len(levels) == 1 {
		return core.RootLvl
	}
	// levels[0] should equal conflictLevel; return the next distinct one.
	for i := 1; i < len(levels); i++ {
		if levels[i] != levels[0] {
			return levels[i]
		}
	}
	return core.RootLvl
}

// computeLBD is the number of distinct decision levels represented in
// the learned clause, used to classify glue clauses (spec §9 OQ3,
// grounded on the teacher's Clause.LBD/SetLBD fields).
func (a *Analyzer) computeLBD(lits []sv.Literal) int {
	seen := make(map[core.DecLvl]bool)
	for _, l := range lits {
		seen[a.levelOf(l)] = true
	}
	return len(seen)
}

// UnsatCore extracts, from a root-level empty clause, the root-level
// literals that participated — the supplemented feature from
// original_source/ described in SPEC_FULL.md (bounded to what 1-UIP
// already touches, not a full minimal core).
func UnsatCore(result Result) []sv.Literal {
	return result.Learned
}
