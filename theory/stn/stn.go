// Package stn implements the reference difference-logic theory of
// spec §4.4: timepoints x, y related by edges `y - x <= d`, propagated
// by incremental Bellman-Ford relaxation with a negative-cycle check.
//
// No teacher precedent exists for this component (the teacher package
// has no temporal/difference-logic reasoner); grounded on the generic
// Theory contract of package theory and on the STN description carried
// over from original_source/ (see SPEC_FULL.md "SUPPLEMENTED FEATURES"
// for the presence-guarded-edge extension).
package stn

import (
	"github.com/solverforge/chronicle-solver/core"
	"github.com/solverforge/chronicle-solver/domain"
	"github.com/solverforge/chronicle-solver/sv"
	"github.com/solverforge/chronicle-solver/theory"
	"github.com/solverforge/chronicle-solver/trail"
)

// Edge encodes the temporal constraint `to - from <= weight`, active
// only when Presence is entailed (an optional timepoint's edges must
// themselves become inactive when the timepoint is known absent, the
// presence-propagation extension carried from original_source/).
type Edge struct {
	From, To core.VarId
	Weight   core.IntCst
	Presence sv.Literal
}

type savedState struct {
	numEdges int
}

// STN is the incremental difference-logic theory.
type STN struct {
	id core.TheoryId

	edges    []Edge
	outgoing map[core.VarId][]int // From -> indices into edges

	// lastEdge[v] is the index of the edge whose relaxation last
	// tightened ub(v); used to reconstruct a negative cycle's edge set
	// for the explanation.
	lastEdge map[core.VarId]int

	saves []savedState
}

// New returns an STN theory with no edges.
func New() *STN {
	return &STN{
		outgoing: make(map[core.VarId][]int),
		lastEdge: make(map[core.VarId]int),
	}
}

func (s *STN) ID() core.TheoryId     { return s.id }
func (s *STN) SetID(id core.TheoryId) { s.id = id }

// AddEdge posts a new temporal edge. Edges are append-only during
// search (matching the trail's append-only discipline) and are
// unwound by RestoreLast like any other search-time addition.
func (s *STN) AddEdge(e Edge) int {
	idx := len(s.edges)
	s.edges = append(s.edges, e)
	s.outgoing[e.From] = append(s.outgoing[e.From], idx)
	return idx
}

func (s *STN) SaveState() {
	s.saves = append(s.saves, savedState{numEdges: len(s.edges)})
}

func (s *STN) RestoreLast() {
	n := len(s.saves)
	if n == 0 {
		core.Violation("stn", "RestoreLast with no saved state")
	}
	st := s.saves[n-1]
	s.saves = s.saves[:n-1]
	for i := len(s.edges) - 1; i >= st.numEdges; i-- {
		e := s.edges[i]
		outs := s.outgoing[e.From]
		s.outgoing[e.From] = outs[:len(outs)-1]
	}
	s.edges = s.edges[:st.numEdges]
}

// OnLiteralSet is a no-op: STN re-derives its dirty set from Domains
// directly inside Propagate rather than subscribing to individual
// literals, since any tightened timepoint bound is relevant.
func (s *STN) OnLiteralSet(lit sv.Literal) {}

// Propagate relaxes every active edge to fixpoint. It returns a
// *theory.Contradiction carrying the explanations of the edges traced
// back through lastEdge if relaxation still changes a bound after
// len(edges)+2 rounds — a Bellman-Ford negative-cycle bound.
func (s *STN) Propagate(d *domain.Domains) error {
	changed := true
	for round := 0; changed; round++ {
		if round > len(s.edges)+1 {
			return &theory.Contradiction{Literals: s.traceCycle(d)}
		}
		changed = false
		for idx := range s.edges {
			e := s.edges[idx]
			if !d.Entails(e.Presence) {
				continue // inactive optional edge
			}
			fromUB, _ := d.Bounds(e.From)
			toUB, _ := d.Bounds(e.To)
			candidate := fromUB.Add(e.Weight)
			if candidate >= toUB {
				continue
			}
			origin := trail.Origin{Kind: trail.OriginTheory, Theory: s.id, Payload: core.Payload(idx)}
			outcome, _ := d.Set(sv.LEq(e.To, candidate), origin)
			switch outcome {
			case domain.Tightened:
				s.lastEdge[e.To] = idx
				changed = true
			case domain.Contradiction:
				return &theory.Contradiction{Literals: s.explainEdge(d, idx)}
			}
		}
	}
	return nil
}

// explainEdge returns the literal that justifies this edge's
// relaxation: the bound on e.From it read, plus the edge's presence.
func (s *STN) explainEdge(d *domain.Domains, idx int) theory.Explanation {
	e := s.edges[idx]
	fromUB, _ := d.Bounds(e.From)
	exp := theory.Explanation{sv.LEq(e.From, fromUB)}
	if e.Presence != sv.True {
		exp = append(exp, e.Presence)
	}
	return exp
}

// traceCycle walks lastEdge backward from the variable whose last
// relaxation triggered the round-bound check, collecting the distinct
// edges on the negative cycle.
func (s *STN) traceCycle(d *domain.Domains) theory.Explanation {
	seen := make(map[int]bool)
	var exp theory.Explanation
	// Start from any variable with a recorded last edge; walk via
	// e.From until we revisit an edge (closing the cycle) or run out.
	var start core.VarId = core.ZeroVar
	for v := range s.lastEdge {
		start = v
		break
	}
	v := start
	for steps := 0; steps < len(s.edges)+1; steps++ {
		idx, ok := s.lastEdge[v]
		if !ok || seen[idx] {
			break
		}
		seen[idx] = true
		exp = append(exp, s.explainEdge(d, idx)...)
		v = s.edges[idx].From
	}
	return exp
}

// Explain answers why `lit` (an upper bound on a timepoint) holds: the
// edge whose index is the payload Propagate attached to lit. Required by
// spec §4.4/§4.5 to participate in 1-UIP resolution.
func (s *STN) Explain(lit sv.Literal, payload core.Payload, d *domain.Domains) theory.Explanation {
	idx := int(payload)
	if idx < 0 || idx >= len(s.edges) {
		core.Violation("stn", "Explain called with out-of-range edge payload %d", idx)
	}
	return s.explainEdge(d, idx)
}
