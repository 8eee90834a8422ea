// Package trail implements the append-only, save-pointed event log of
// spec §3/§4: "Trail". Every bound update is recorded as an Event;
// popping back to a save point undoes all later events in reverse by
// invoking the per-component Undo callbacks registered with Register.
//
// Grounded on the teacher's sat/trail.go DecisionTrailImpl, which
// tracks chronological assignments with O(1) level lookups; generalized
// here from string-keyed boolean assignment to dense bound Events with
// arbitrary Undo callbacks, since the trail no longer owns the
// variable→value mapping itself (Domains does, see package domain).
package trail

import (
	"github.com/solverforge/chronicle-solver/core"
	"github.com/solverforge/chronicle-solver/sv"
)

// OriginKind tags why a literal became entailed.
type OriginKind uint8

const (
	// OriginRoot is a user-posted root-level assumption.
	OriginRoot OriginKind = iota
	// OriginDecision is a branching decision taken by the search driver.
	OriginDecision
	// OriginClause is BCP from a specific clause.
	OriginClause
	// OriginTheory is an inference from a registered theory.
	OriginTheory
	// OriginPresence is the presence-propagation rule of spec §4.1 step 5.
	OriginPresence
)

// Origin records where an Event came from, sufficient for conflict
// analysis to resolve through it (spec §4.5).
type Origin struct {
	Kind    OriginKind
	Clause  core.ClauseId  // valid when Kind == OriginClause
	Theory  core.TheoryId  // valid when Kind == OriginTheory
	Payload core.Payload   // opaque, theory-defined, valid when Kind == OriginTheory
}

// Event is one trail entry: a bound tightened on a signed variable.
type Event struct {
	SVar       sv.SignedVar
	PrevValue  core.IntCst
	PrevCause  int32 // index into Trail.events of the previous event on this SVar, or -1
	NewValue   core.IntCst
	Origin     Origin
	Level      core.DecLvl
}

// undoer is registered by a component (Domains, a theory) that needs
// to react when the trail rewinds past events it cares about.
type undoer interface {
	// Undo is called once per popped event, most-recent first.
	Undo(e Event)
}

// Trail is the ordered event log with save/restore points.
type Trail struct {
	events     []Event
	savePoints []int // events-length at each Save()
	undoers    []undoer
}

// New returns an empty trail at the root decision level.
func New() *Trail {
	return &Trail{}
}

// Register subscribes a component to Undo callbacks. Must be called
// before any event affecting that component is appended.
func (t *Trail) Register(u undoer) {
	t.undoers = append(t.undoers, u)
}

// DecisionLevel is the number of currently active save points, i.e.
// the depth of decisions made so far.
func (t *Trail) DecisionLevel() core.DecLvl {
	return core.DecLvl(len(t.savePoints))
}

// Save pushes a new save point at the current trail length and
// returns its level. Matches spec §4.1 "save() → DecLvl".
func (t *Trail) Save() core.DecLvl {
	t.savePoints = append(t.savePoints, len(t.events))
	return core.DecLvl(len(t.savePoints))
}

// Push appends a new event at the current decision level and returns
// its index, for use as a PrevCause by later events on the same
// signed variable.
func (t *Trail) Push(svar sv.SignedVar, prevValue core.IntCst, prevCause int32, newValue core.IntCst, origin Origin) int32 {
	idx := int32(len(t.events))
	t.events = append(t.events, Event{
		SVar:      svar,
		PrevValue: prevValue,
		PrevCause: prevCause,
		NewValue:  newValue,
		Origin:    origin,
		Level:     t.DecisionLevel(),
	})
	return idx
}

// Event returns the event at the given trail index.
func (t *Trail) Event(idx int32) Event {
	return t.events[idx]
}

// Len is the number of events currently on the trail.
func (t *Trail) Len() int32 { return int32(len(t.events)) }

// RestoreLast pops back to the most recent save point, invoking Undo
// on every subscriber for each popped event in reverse chronological
// order (spec §3: "popping back to a save point undoes all later
// events in reverse").
func (t *Trail) RestoreLast() {
	if len(t.savePoints) == 0 {
		core.Violation("trail", "RestoreLast called with no active save point")
	}
	target := t.savePoints[len(t.savePoints)-1]
	t.savePoints = t.savePoints[:len(t.savePoints)-1]
	t.restoreTo(target)
}

// Restore pops back to the state right after the Save call that
// returned level (for RootLvl: the empty trail), which may be more
// than one level below the current one (spec §4.1 "restore(DecLvl)").
func (t *Trail) Restore(level core.DecLvl) {
	if level > t.DecisionLevel() {
		core.Violation("trail", "Restore(%d) above current level %d", level, t.DecisionLevel())
	}
	if level == 0 {
		t.savePoints = t.savePoints[:0]
		t.restoreTo(0)
		return
	}
	target := t.savePoints[level-1]
	t.savePoints = t.savePoints[:level]
	t.restoreTo(target)
}

func (t *Trail) restoreTo(target int) {
	for i := len(t.events) - 1; i >= target; i-- {
		e := t.events[i]
		for j := len(t.undoers) - 1; j >= 0; j-- {
			t.undoers[j].Undo(e)
		}
	}
	t.events = t.events[:target]
}

// Cursor marks a position in the trail; BCP advances a cursor to the
// current trail length as it processes newly-entailed literals
// without reprocessing events already seen (spec §4.3 step 1/3).
type Cursor struct {
	pos int32
}

// NewCursor returns a cursor starting at the given trail index.
func NewCursor(pos int32) Cursor { return Cursor{pos: pos} }

// Pos reports the cursor's current position.
func (c Cursor) Pos() int32 { return c.pos }

// Next returns the next unprocessed event and advances the cursor, or
// ok==false if the cursor has caught up with the trail.
func (c *Cursor) Next(t *Trail) (ev Event, idx int32, ok bool) {
	if c.pos >= t.Len() {
		return Event{}, 0, false
	}
	idx = c.pos
	ev = t.events[idx]
	c.pos++
	return ev, idx, true
}
