// Package model is the public model-building and search facade of
// spec §6: new_var/new_presence/add_clause/reify/enforce/enforce_if,
// solve/minimize/maximize/enumerate/set_brancher/interrupt, and the
// inspection accessors. It wires together domain/trail/clausedb/
// theory/explain/search into the Solver type external callers use.
//
// The expression cache of spec §3 ("Expression cache (reification)")
// is grounded on the teacher's sat/cnf_converter.go Tseitin-style
// auxiliary-variable allocator, generalized from string expressions
// parsed by a classical-logic parser to the tagged-variant canonical
// shapes named in SPEC_FULL.md (the design-notes-mandated replacement
// for the source's trait-object "Post" capability).
package model

import (
	"fmt"

	"github.com/solverforge/chronicle-solver/core"
	"github.com/solverforge/chronicle-solver/sv"
	"github.com/solverforge/chronicle-solver/theory/linear"
)

// ExprKind tags the canonical expression shapes of spec §3, extended
// per SPEC_FULL.md's "SUPPLEMENTED FEATURES" with the reified shapes
// and array-element access the original Rust source names explicitly.
type ExprKind uint8

const (
	ExprOr ExprKind = iota
	ExprAnd
	ExprEq
	ExprLinEq
	ExprLinLe
	ExprMax
	ExprElement
)

// Expr is the tagged-variant canonical shape of a reifiable
// constraint. Only the fields relevant to Kind are populated.
type Expr struct {
	Kind ExprKind

	// ExprOr / ExprAnd
	Lits []sv.Literal

	// ExprEq: Left == Right
	Left, Right core.VarId

	// ExprLinEq / ExprLinLe: Σ Terms (== | <=) Bound
	Terms []linear.Term
	Bound core.IntCst

	// ExprMax: Result == max(Xs)
	Result core.VarId
	Xs     []core.VarId

	// ExprElement: Result == Array[Index] (1-based, per spec scenario 5)
	Array []core.IntCst
	Index core.VarId
}

// key is the canonical, comparable identity of an Expr, used to dedupe
// reification requests so the same expression always maps to the same
// literal (spec §3: "append-only ... underpins identity-preserving
// reuse of reified constraints").
type key string

func (e Expr) key() key {
	switch e.Kind {
	case ExprOr, ExprAnd:
		return key(fmt.Sprintf("%d:%v", e.Kind, e.Lits))
	case ExprEq:
		return key(fmt.Sprintf("%d:%d:%d", e.Kind, e.Left, e.Right))
	case ExprLinEq, ExprLinLe:
		return key(fmt.Sprintf("%d:%v:%d", e.Kind, e.Terms, e.Bound))
	case ExprMax:
		return key(fmt.Sprintf("%d:%d:%v", e.Kind, e.Result, e.Xs))
	case ExprElement:
		return key(fmt.Sprintf("%d:%v:%d:%d", e.Kind, e.Array, e.Index, e.Result))
	}
	return key(fmt.Sprintf("%d", e.Kind))
}

// exprCache is the append-only expression → literal map of spec §3.
type exprCache struct {
	entries map[key]sv.Literal
}

func newExprCache() *exprCache {
	return &exprCache{entries: make(map[key]sv.Literal)}
}

func (c *exprCache) lookup(e Expr) (sv.Literal, bool) {
	lit, ok := c.entries[e.key()]
	return lit, ok
}

func (c *exprCache) store(e Expr, lit sv.Literal) {
	c.entries[e.key()] = lit
}
