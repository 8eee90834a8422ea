// Package linear implements the reified-linear theory of spec §4.4:
// for each posted inequality Σ c_i·v_i <= b, every Propagate call
// recomputes the sum's minimum and maximum from the current bounds of
// all its terms (no per-term watches are kept); when the slack becomes
// definite, infer the reification literal (or, once the reification is
// already true, tighten the individual v_i).
//
// Grounded on the teacher's sat/gaussian.go (linear-algebra-flavored
// reasoning over Literal sets) for the general shape of a theory that
// derives bound tightenings from a sum, generalized to the bounded
// integer model of spec §3.
package linear

import (
	"github.com/solverforge/chronicle-solver/core"
	"github.com/solverforge/chronicle-solver/domain"
	"github.com/solverforge/chronicle-solver/sv"
	"github.com/solverforge/chronicle-solver/theory"
	"github.com/solverforge/chronicle-solver/trail"
)

// Term is one c_i·v_i addend of a posted linear inequality.
type Term struct {
	Coeff core.IntCst
	Var   core.VarId
}

// Sum is a posted constraint `Σ Terms <= Bound`, reified by Lit: Lit
// is entailed true iff the sum constraint holds. Non-reified
// (unconditionally enforced) sums use Lit = sv.True.
type Sum struct {
	Terms []Term
	Bound core.IntCst
	Lit   sv.Literal
}

type savedState struct {
	numSums int
}

// Linear is the reified-linear theory instance.
type Linear struct {
	id   core.TheoryId
	sums []Sum
	save []savedState
}

func New() *Linear { return &Linear{} }

func (l *Linear) ID() core.TheoryId      { return l.id }
func (l *Linear) SetID(id core.TheoryId) { l.id = id }

// Post registers a new reified sum constraint.
func (l *Linear) Post(s Sum) int {
	idx := len(l.sums)
	l.sums = append(l.sums, s)
	return idx
}

func (l *Linear) SaveState() { l.save = append(l.save, savedState{numSums: len(l.sums)}) }

func (l *Linear) RestoreLast() {
	n := len(l.save)
	if n == 0 {
		core.Violation("linear", "RestoreLast with no saved state")
	}
	st := l.save[n-1]
	l.save = l.save[:n-1]
	l.sums = l.sums[:st.numSums]
}

func (l *Linear) OnLiteralSet(lit sv.Literal) {}

// maxPossible returns the maximum possible value of the sum given
// current bounds: for a positive coefficient, use the term's upper
// bound; for a negative coefficient, use the term's lower bound.
func maxPossible(d *domain.Domains, s Sum) core.IntCst {
	var total core.IntCst
	for _, t := range s.Terms {
		lb, ub := d.Bounds(t.Var)
		if t.Coeff >= 0 {
			total = total.Add(t.Coeff * ub)
		} else {
			total = total.Add(t.Coeff * lb)
		}
	}
	return total
}

func minPossible(d *domain.Domains, s Sum) core.IntCst {
	var total core.IntCst
	for _, t := range s.Terms {
		lb, ub := d.Bounds(t.Var)
		if t.Coeff >= 0 {
			total = total.Add(t.Coeff * lb)
		} else {
			total = total.Add(t.Coeff * ub)
		}
	}
	return total
}

// Propagate implements the slack-based rule: once the sum's maximum
// possible value already respects the bound, the reification is
// entailed; once its minimum already exceeds the bound, the
// reification's negation is entailed; if the reification is already
// known true, each term is individually tightened against the slack
// left by the others (spec §4.4).
func (l *Linear) Propagate(d *domain.Domains) error {
	for idx := range l.sums {
		s := &l.sums[idx]
		if d.IsKnownAbsent(reifVar(s)) {
			continue
		}

		maxVal := maxPossible(d, *s)
		minVal := minPossible(d, *s)

		switch {
		case maxVal <= s.Bound:
			if err := l.post(d, idx, s.Lit); err != nil {
				return err
			}
		case minVal > s.Bound:
			if err := l.post(d, idx, s.Lit.Negate()); err != nil {
				return err
			}
		}

		if d.Entails(s.Lit) {
			// Reification true: tighten each term against the slack
			// the others leave behind.
			slack := s.Bound - minVal
			for ti, t := range s.Terms {
				if err := l.tightenTerm(d, idx, ti, t, slack, minVal); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (l *Linear) tightenTerm(d *domain.Domains, sumIdx, termIdx int, t Term, slack, minVal core.IntCst) error {
	lb, ub := d.Bounds(t.Var)
	if t.Coeff == 0 {
		return nil
	}
	// contribution of this term at its loosest (the value counted in minVal)
	var loosest core.IntCst
	if t.Coeff >= 0 {
		loosest = t.Coeff * lb
	} else {
		loosest = t.Coeff * ub
	}
	room := slack // the sum can grow by at most `slack` beyond minVal
	newExtreme := loosest + room
	payload := core.Payload(sumIdx<<16 | (termIdx & 0xffff))
	if t.Coeff > 0 {
		newUB := newExtreme / t.Coeff
		lit := sv.LEq(t.Var, newUB)
		outcome, v := d.Set(lit, trail.Origin{Kind: trail.OriginTheory, Theory: l.id, Payload: payload})
		if outcome == domain.Contradiction {
			return &theory.Contradiction{Literals: l.explainSum(d, sumIdx)}
		}
		_ = v
	} else if t.Coeff < 0 {
		newLB := newExtreme / t.Coeff
		lit := sv.GEq(t.Var, newLB)
		outcome, _ := d.Set(lit, trail.Origin{Kind: trail.OriginTheory, Theory: l.id, Payload: payload})
		if outcome == domain.Contradiction {
			return &theory.Contradiction{Literals: l.explainSum(d, sumIdx)}
		}
	}
	return nil
}

func (l *Linear) post(d *domain.Domains, sumIdx int, lit sv.Literal) error {
	outcome, _ := d.Set(lit, trail.Origin{Kind: trail.OriginTheory, Theory: l.id, Payload: core.Payload(sumIdx << 16)})
	if outcome == domain.Contradiction {
		return &theory.Contradiction{Literals: l.explainSum(d, sumIdx)}
	}
	return nil
}

// reifVar returns a representative variable used only to query
// presence of the reification literal.
func reifVar(s *Sum) core.VarId { return s.Lit.Var() }

func (l *Linear) explainSum(d *domain.Domains, sumIdx int) theory.Explanation {
	s := l.sums[sumIdx]
	exp := make(theory.Explanation, 0, len(s.Terms))
	for _, t := range s.Terms {
		lb, ub := d.Bounds(t.Var)
		if t.Coeff >= 0 {
			exp = append(exp, sv.LEq(t.Var, ub))
		} else {
			exp = append(exp, sv.GEq(t.Var, lb))
		}
	}
	return exp
}

// Explain decodes sumIdx from payload = sumIdx<<16 | termIdx and
// returns the current extreme values of every term in that sum, as
// used for the maximum; termIdx is not used.
func (l *Linear) Explain(lit sv.Literal, payload core.Payload, d *domain.Domains) theory.Explanation {
	sumIdx := int(payload >> 16)
	return l.explainSum(d, sumIdx)
}
