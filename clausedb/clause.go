// Package clausedb implements spec §4.3: clause storage with two
// watched literals per clause, the status flags and watch removal used
// by the search driver's learned-clause deletion, and the
// watched-literal unit propagator (BCP) over bound literals.
//
// Clause status bitmask and incremental rescan position are grounded
// on _examples/other_examples' rhartert-yass sat/clauses.go
// (statusLearnt/statusProtected/prevPos); the propagation loop and
// watch-list maintenance are grounded on the teacher's sat/cdcl.go
// watchLists map and on DoOR-Team-gophersat's solver.go propagate loop.
package clausedb

import (
	"github.com/solverforge/chronicle-solver/core"
	"github.com/solverforge/chronicle-solver/sv"
)

type status uint8

const (
	statusLearned status = 1 << iota
	statusProtected
	statusGlue
)

// Clause is an ordered multiset of literals with two distinguished
// watched positions w0, w1 (spec §3 "Clause").
type Clause struct {
	ID       core.ClauseId
	Literals []sv.Literal
	w0, w1   int // indices into Literals

	status   status
	Activity float64
	LBD      int

	// prevPos speeds up the search for a new literal to watch by
	// resuming from where the previous rescan left off, mirroring
	// rhartert-yass's Clause.prevPos.
	prevPos int
}

func (c *Clause) IsLearned() bool   { return c.status&statusLearned != 0 }
func (c *Clause) IsProtected() bool { return c.status&statusProtected != 0 }
func (c *Clause) IsGlue() bool      { return c.status&statusGlue != 0 }

func (c *Clause) setProtected()   { c.status |= statusProtected }
func (c *Clause) clearProtected() { c.status &^= statusProtected }

// SetLBD records the literal block distance computed by the explainer
// and reclassifies the clause as glue when LBD is at/under the
// configured threshold (spec §9 OQ3).
func (c *Clause) SetLBD(lbd, glueMax int) {
	c.LBD = lbd
	if lbd <= glueMax {
		c.status |= statusGlue
	} else {
		c.status &^= statusGlue
	}
}

// Watched returns the clause's two watched literals.
func (c *Clause) Watched() (sv.Literal, sv.Literal) {
	return c.Literals[c.w0], c.Literals[c.w1]
}

// other returns the watch slot that is not `slot`.
func other(slot int) int {
	if slot == 0 {
		return 1
	}
	return 0
}
