// Package theory defines the generic propagator contract of spec §4.4:
// a pluggable reasoner that reads the current bounds from Domains, may
// tighten bounds through Domains (recording itself as origin), and can
// produce an explanation for any bound it previously posted.
package theory

import (
	"github.com/solverforge/chronicle-solver/core"
	"github.com/solverforge/chronicle-solver/domain"
	"github.com/solverforge/chronicle-solver/sv"
)

// Explanation is the set of literals whose conjunction entailed a
// theory-posted literal, each guaranteed to have been entailed
// strictly before the literal's emission (spec §8 "Explanation
// soundness").
type Explanation []sv.Literal

// Contradiction is returned by Propagate when the theory detects an
// internal inconsistency that is not simply an empty Domains interval
// (e.g. a negative cycle in the STN). Explain(core.Payload{}, ...)-style
// literals are carried directly on the error so the driver can hand
// them to the explainer without a second round trip.
type Contradiction struct {
	Literals Explanation
}

func (c *Contradiction) Error() string { return "theory contradiction" }

// Theory is the plug-in contract. Implementations register once,
// before the first Solve call, via Driver.RegisterTheory (see package
// search).
type Theory interface {
	// ID is the identity this theory was registered under; used to
	// tag trail origins and to route Explain calls back to it.
	ID() core.TheoryId
	// SetID is called once by the driver at registration time.
	SetID(core.TheoryId)

	// OnLiteralSet receives a newly entailed literal. The search
	// Driver does not call it and there is no subscription mechanism;
	// theories read the bounds they need inside Propagate.
	OnLiteralSet(lit sv.Literal)

	// Propagate may call Domains.Set any number of times with origin
	// TheoryInference(id, payload). Returns a Contradiction if the
	// theory's own invariants (not just Domains) are violated.
	Propagate(d *domain.Domains) error

	// Explain must produce a set of literals, entailed strictly
	// before lit's emission, whose conjunction entails lit. payload is
	// the opaque tag the theory attached when it posted lit.
	Explain(lit sv.Literal, payload core.Payload, d *domain.Domains) Explanation

	// SaveState/RestoreLast mirror the trail's save points so a
	// theory's private indexes stay consistent across backtracking.
	SaveState()
	RestoreLast()
}
