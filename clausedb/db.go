package clausedb

import (
	"github.com/solverforge/chronicle-solver/core"
	"github.com/solverforge/chronicle-solver/domain"
	"github.com/solverforge/chronicle-solver/sv"
	"github.com/solverforge/chronicle-solver/trail"
)

type watchToken struct {
	clause core.ClauseId
	slot   int // 0 or 1: which of the clause's two watches this token tracks
}

// DB owns every clause (problem and learned) and the watch lists that
// drive BCP.
type DB struct {
	clauses  []*Clause
	problem  int // number of non-learned clauses, for MaxLearnedRatio
	watches  map[sv.SignedVar][]watchToken
	domains  *domain.Domains
}

// New returns an empty clause database over the given Domains.
func New(d *domain.Domains) *DB {
	return &DB{
		watches: make(map[sv.SignedVar][]watchToken),
		domains: d,
	}
}

// watchKey returns the signed variable whose tightening can falsify
// lit: lit is falsified exactly when Domains.Entails(lit.Negate())
// holds, and that literal lives on lit.SVar.Flip().
func watchKey(lit sv.Literal) sv.SignedVar {
	return lit.Negate().SVar
}

// AddClause stores a clause and installs its initial two watches; the
// literal of a unit clause is also applied through Domains.Set at once.
// Fails with ModelError if the clause is empty (spec: an empty clause
// is never a valid addition outside of conflict bookkeeping).
func (db *DB) AddClause(lits []sv.Literal, learned bool) (*Clause, error) {
	if len(lits) == 0 {
		return nil, core.NewModelError("clausedb.AddClause", "empty clause")
	}
	c := &Clause{
		ID:       core.ClauseId(len(db.clauses)),
		Literals: append([]sv.Literal(nil), lits...),
	}
	if learned {
		c.status |= statusLearned
	} else {
		db.problem++
	}
	if len(c.Literals) == 1 {
		c.w0, c.w1 = 0, 0
	} else {
		c.w0, c.w1 = 0, 1
	}
	db.clauses = append(db.clauses, c)
	db.installWatch(c, 0)
	if len(c.Literals) > 1 {
		db.installWatch(c, 1)
	} else {
		// If the literal is already contradicted, Set leaves the
		// domains unchanged.
		db.domains.Set(c.Literals[0], trail.Origin{Kind: trail.OriginClause, Clause: c.ID})
	}
	return c, nil
}

func (db *DB) installWatch(c *Clause, slot int) {
	lit := c.Literals[watchSlotIndex(c, slot)]
	key := watchKey(lit)
	db.watches[key] = append(db.watches[key], watchToken{clause: c.ID, slot: slot})
}

func watchSlotIndex(c *Clause, slot int) int {
	if slot == 0 {
		return c.w0
	}
	return c.w1
}

func setWatchSlotIndex(c *Clause, slot, idx int) {
	if slot == 0 {
		c.w0 = idx
	} else {
		c.w1 = idx
	}
}

// RemoveWatches drops both of c's watch tokens from db.watches. Callers
// must invoke this before clearing c.Literals (e.g. clause deletion) —
// otherwise a later tightening of the signed variable the stale watch
// is keyed on would revisit this clause via reviseWatch and index into
// an empty Literals slice.
func (db *DB) RemoveWatches(c *Clause) {
	db.removeToken(watchKey(c.Literals[c.w0]), c.ID, 0)
	if c.w1 != c.w0 || len(c.Literals) > 1 {
		db.removeToken(watchKey(c.Literals[c.w1]), c.ID, 1)
	}
}

func (db *DB) removeToken(key sv.SignedVar, id core.ClauseId, slot int) {
	tokens := db.watches[key]
	for i, tok := range tokens {
		if tok.clause == id && tok.slot == slot {
			db.watches[key] = append(tokens[:i], tokens[i+1:]...)
			return
		}
	}
}

// Clause returns the clause with the given id.
func (db *DB) Clause(id core.ClauseId) *Clause { return db.clauses[id] }

// Len is the total number of stored clauses (problem + learned).
func (db *DB) Len() int { return len(db.clauses) }

// ProblemClauses is the number of clauses posted before search started.
func (db *DB) ProblemClauses() int { return db.problem }

// LearnedClauses returns every clause currently marked learned.
func (db *DB) LearnedClauses() []*Clause {
	out := make([]*Clause, 0, len(db.clauses)-db.problem)
	for _, c := range db.clauses {
		if c.IsLearned() {
			out = append(out, c)
		}
	}
	return out
}

// Propagate runs BCP to fixpoint over newly entailed literals observed
// on the trail since cur, per spec §4.3. Returns the conflicting
// clause, or nil if a fixpoint was reached cleanly. Newly entailed
// literals discovered along the way (origin: this clause) are applied
// through Domains.Set and themselves advance the trail, so the loop
// keeps consuming from cur until it catches up.
func (db *DB) Propagate(t *trail.Trail, cur *trail.Cursor) *Clause {
	for {
		ev, idx, ok := cur.Next(t)
		if !ok {
			return nil
		}
		// The event tightened ev.SVar to ev.NewValue; every watch
		// registered on ev.SVar may now be falsified.
		tokens := db.watches[ev.SVar]
		if len(tokens) == 0 {
			continue
		}
		keep := tokens[:0:0]
		for ti := 0; ti < len(tokens); ti++ {
			tok := tokens[ti]
			c := db.clauses[tok.clause]
			if conflict := db.reviseWatch(c, tok.slot, ev.SVar, &keep); conflict {
				// Put back remaining unprocessed tokens before returning,
				// so watch-list invariants hold if the caller retries
				// after backtracking (it won't reuse this exact cursor
				// position, but the DB must stay internally consistent).
				keep = append(keep, tokens[ti+1:]...)
				db.watches[ev.SVar] = keep
				return c
			}
		}
		db.watches[ev.SVar] = keep
		_ = idx
	}
}

// reviseWatch implements spec §4.3 step 2 for a single (clause, slot)
// watcher of the signed variable that just tightened. It returns true
// on conflict. On success it appends to keep the token that stays
// registered under the trigger signed variable; when the watch moves
// to another literal, the token is instead appended directly to that
// literal's watch list and nothing is kept.
func (db *DB) reviseWatch(c *Clause, slot int, triggerSVar sv.SignedVar, keep *[]watchToken) bool {
	myIdx := watchSlotIndex(c, slot)
	otherSlot := other(slot)
	otherIdx := watchSlotIndex(c, otherSlot)
	myLit := c.Literals[myIdx]

	if !db.domains.Entails(myLit.Negate()) {
		// Spurious wake-up: this particular literal instance is not
		// actually falsified yet (only a weaker literal on the same
		// chain would be); keep watching it.
		*keep = append(*keep, watchToken{clause: c.ID, slot: slot})
		return false
	}

	otherLit := c.Literals[otherIdx]
	if db.domains.Entails(otherLit) {
		// Clause already satisfied by its other watch; keep this watch.
		*keep = append(*keep, watchToken{clause: c.ID, slot: slot})
		return false
	}

	// Scan for a replacement literal that is not falsified and not the
	// other watch, resuming from c.prevPos (rhartert-yass style).
	n := len(c.Literals)
	if n > 2 {
		start := c.prevPos
		if start < 2 || start >= n {
			start = 2
		}
		for step := 0; step < n-2; step++ {
			pos := start + step
			if pos >= n {
				pos -= (n - 2)
			}
			if pos == myIdx || pos == otherIdx {
				continue
			}
			cand := c.Literals[pos]
			if !db.domains.Entails(cand.Negate()) {
				// Found a non-falsified literal: move the watch here.
				setWatchSlotIndex(c, slot, pos)
				c.prevPos = pos
				db.watches[watchKey(cand)] = append(db.watches[watchKey(cand)], watchToken{clause: c.ID, slot: slot})
				return false
			}
		}
	}

	// No replacement literal: unit or conflict.
	if !db.domains.Entails(otherLit.Negate()) {
		// other watch is unassigned (neither entailed nor falsified):
		// enqueue it, origin this clause. Domains.Set can only return
		// Contradiction/AbsentSoFine when the update would empty
		// otherLit's domain, i.e. when Entails(otherLit.Negate()) —
		// which the guard above has just ruled out, so this always
		// tightens cleanly.
		db.domains.Set(otherLit, trail.Origin{Kind: trail.OriginClause, Clause: c.ID})
		*keep = append(*keep, watchToken{clause: c.ID, slot: slot})
		return false
	}

	// Both watches falsified: conflict.
	*keep = append(*keep, watchToken{clause: c.ID, slot: slot})
	return true
}
