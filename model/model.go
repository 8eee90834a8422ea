package model

import (
	"github.com/solverforge/chronicle-solver/clausedb"
	"github.com/solverforge/chronicle-solver/core"
	"github.com/solverforge/chronicle-solver/domain"
	"github.com/solverforge/chronicle-solver/search"
	"github.com/solverforge/chronicle-solver/sv"
	"github.com/solverforge/chronicle-solver/theory/linear"
	"github.com/solverforge/chronicle-solver/theory/stn"
	"github.com/solverforge/chronicle-solver/trail"
)

// Solver is the public entry point of spec §6: model-building
// (new_var, new_presence, add_clause, reify, enforce, enforce_if),
// search (solve, minimize, maximize, enumerate, set_brancher,
// interrupt), and inspection (entails, bounds, value, trail_cursor,
// decision_level).
type Solver struct {
	cfg     *core.Config
	trail   *trail.Trail
	domains *domain.Domains
	db      *clausedb.DB
	driver  *search.Driver
	cache   *exprCache

	stnTheory    *stn.STN
	linearTheory *linear.Linear
}

// New builds an empty Solver. cfg must not be nil; use core.NewConfig
// for defaults.
func New(cfg *core.Config) *Solver {
	t := trail.New()
	d := domain.New(t)
	db := clausedb.New(d)
	drv := search.New(cfg, t, d, db)
	return &Solver{cfg: cfg, trail: t, domains: d, db: db, driver: drv, cache: newExprCache()}
}

// NewVar allocates a required variable with domain [lb, ub] (spec §6
// "new_var"). Fails if lb > ub.
func (s *Solver) NewVar(lb, ub core.IntCst) (core.VarId, error) {
	return s.domains.NewVar(lb, ub, sv.True)
}

// NewOptionalVar allocates a variable whose existence is conditioned
// on presence (spec §6 "new_var(lb, ub, presence)").
func (s *Solver) NewOptionalVar(lb, ub core.IntCst, presence sv.Literal) (core.VarId, error) {
	return s.domains.NewVar(lb, ub, presence)
}

// NewPresence allocates a fresh Boolean variable to use as a presence
// literal (spec §6 "new_presence"), domain [0,1], always required.
func (s *Solver) NewPresence() (sv.Literal, error) {
	v, err := s.domains.NewVar(0, 1, sv.True)
	if err != nil {
		return sv.Literal{}, err
	}
	return sv.GEq(v, 1), nil // v >= 1, i.e. v == 1 reads as "true"
}

// AddClause posts a disjunction of literals as a root-level clause
// (spec §6 "add_clause").
func (s *Solver) AddClause(lits ...sv.Literal) error {
	_, err := s.db.AddClause(lits, false)
	return err
}

// Enforce posts lit as a unit clause at the root (spec §6 "enforce").
func (s *Solver) Enforce(lit sv.Literal) error {
	return s.AddClause(lit)
}

// EnforceIf posts `guard -> expr` (spec §6 "enforce_if(guard,
// expression)"): reify expr to r, then enforce ¬guard ∨ r.
func (s *Solver) EnforceIf(guard sv.Literal, expr Expr) error {
	r, err := s.Reify(expr)
	if err != nil {
		return err
	}
	return s.AddClause(guard.Negate(), r)
}

// Reify returns the literal whose truth is equivalent to expr,
// allocating a fresh auxiliary Boolean variable and posting defining
// constraints the first time this exact canonical shape is seen;
// subsequent calls with an equal shape reuse the cached literal (spec
// §3 "Expression cache").
func (s *Solver) Reify(expr Expr) (sv.Literal, error) {
	if lit, ok := s.cache.lookup(expr); ok {
		return lit, nil
	}
	aux, err := s.domains.NewVar(0, 1, sv.True)
	if err != nil {
		return sv.Literal{}, err
	}
	r := sv.GEq(aux, 1) // r entailed iff aux==1

	switch expr.Kind {
	case ExprOr:
		if err := s.defineOr(r, expr.Lits); err != nil {
			return sv.Literal{}, err
		}
	case ExprAnd:
		negated := make([]sv.Literal, len(expr.Lits))
		for i, l := range expr.Lits {
			negated[i] = l.Negate()
		}
		if err := s.defineOr(r.Negate(), negated); err != nil {
			return sv.Literal{}, err
		}
	case ExprEq:
		if err := s.defineEq(r, expr.Left, expr.Right); err != nil {
			return sv.Literal{}, err
		}
	case ExprLinLe:
		s.Linear().Post(linear.Sum{Terms: expr.Terms, Bound: expr.Bound, Lit: r})
	case ExprLinEq:
		s.Linear().Post(linear.Sum{Terms: expr.Terms, Bound: expr.Bound, Lit: r})
		negTerms := negateTerms(expr.Terms)
		s.Linear().Post(linear.Sum{Terms: negTerms, Bound: -expr.Bound, Lit: r})
	case ExprMax:
		if err := s.defineMax(r, expr.Result, expr.Xs); err != nil {
			return sv.Literal{}, err
		}
	case ExprElement:
		if err := s.defineElement(r, expr.Result, expr.Array, expr.Index); err != nil {
			return sv.Literal{}, err
		}
	}

	s.cache.store(expr, r)
	return r, nil
}

func negateTerms(ts []linear.Term) []linear.Term {
	out := make([]linear.Term, len(ts))
	for i, t := range ts {
		out[i] = linear.Term{Coeff: -t.Coeff, Var: t.Var}
	}
	return out
}

// defineOr posts `r <-> (l1 ∨ l2 ∨ ... )` via the standard Tseitin
// clauses, grounded on the teacher's cnf_converter.go tseitinTransform
// OR case.
func (s *Solver) defineOr(r sv.Literal, lits []sv.Literal) error {
	// r -> (l1 ∨ ... ∨ ln)
	clause := append([]sv.Literal{r.Negate()}, lits...)
	if _, err := s.db.AddClause(clause, false); err != nil {
		return err
	}
	// each li -> r
	for _, l := range lits {
		if _, err := s.db.AddClause([]sv.Literal{l.Negate(), r}, false); err != nil {
			return err
		}
	}
	return nil
}

// defineEq posts `r <-> (x == y)` by reifying both directions of the
// difference as linear sums (x - y <= 0 and y - x <= 0).
func (s *Solver) defineEq(r sv.Literal, x, y core.VarId) error {
	leqXY, err := s.Reify(Expr{Kind: ExprLinLe, Terms: []linear.Term{{Coeff: 1, Var: x}, {Coeff: -1, Var: y}}, Bound: 0})
	if err != nil {
		return err
	}
	leqYX, err := s.Reify(Expr{Kind: ExprLinLe, Terms: []linear.Term{{Coeff: 1, Var: y}, {Coeff: -1, Var: x}}, Bound: 0})
	if err != nil {
		return err
	}
	return s.defineOr(r.Negate(), []sv.Literal{leqXY.Negate(), leqYX.Negate()})
}

// defineMax posts `r <-> (result == max(xs))` as result >= each xi and
// result <= at least one xi (the standard max decomposition).
func (s *Solver) defineMax(r sv.Literal, result core.VarId, xs []core.VarId) error {
	var atLeastOne []sv.Literal
	for _, x := range xs {
		ge, err := s.Reify(Expr{Kind: ExprLinLe, Terms: []linear.Term{{Coeff: 1, Var: x}, {Coeff: -1, Var: result}}, Bound: 0})
		if err != nil {
			return err
		}
		if err := s.AddClause(r.Negate(), ge); err != nil { // r -> result >= x
			return err
		}
		eq, err := s.Reify(Expr{Kind: ExprEq, Left: x, Right: result})
		if err != nil {
			return err
		}
		atLeastOne = append(atLeastOne, eq)
	}
	return s.AddClause(append([]sv.Literal{r.Negate()}, atLeastOne...)...)
}

// defineElement posts `r <-> (result == array[index])`, a fixed
// disjunction over the array's known positions (spec scenario 5).
func (s *Solver) defineElement(r sv.Literal, result core.VarId, array []core.IntCst, index core.VarId) error {
	var disj []sv.Literal
	for pos, val := range array {
		idxEq := sv.LEq(index, core.IntCst(pos+1))
		idxGe := sv.GEq(index, core.IntCst(pos+1))
		resEqVal := sv.LEq(result, val)
		resGeVal := sv.GEq(result, val)
		both, err := s.Reify(Expr{Kind: ExprAnd, Lits: []sv.Literal{idxEq, idxGe, resEqVal, resGeVal}})
		if err != nil {
			return err
		}
		disj = append(disj, both)
	}
	return s.AddClause(append([]sv.Literal{r.Negate()}, disj...)...)
}

// STN returns the STN theory, registering it with the search driver on
// first use (spec §6 "Theory plug-in: ... registered once before
// first solve").
func (s *Solver) STN() *stn.STN {
	if s.stnTheory == nil {
		s.stnTheory = stn.New()
		s.driver.RegisterTheory(s.stnTheory)
	}
	return s.stnTheory
}

// Linear returns the reified-linear theory, registering it lazily like STN.
func (s *Solver) Linear() *linear.Linear {
	if s.linearTheory == nil {
		s.linearTheory = linear.New()
		s.driver.RegisterTheory(s.linearTheory)
	}
	return s.linearTheory
}

// SetBrancher overrides the default brancher (spec §6 "set_brancher").
func (s *Solver) SetBrancher(b search.Brancher) { s.driver.SetBrancher(b) }

// Solve runs the CDCL loop to a verdict (spec §6 "solve").
func (s *Solver) Solve() search.Outcome { return s.driver.Solve() }

// Minimize configures the driver to minimize obj then solves.
func (s *Solver) Minimize(obj core.VarId) search.Outcome {
	s.driver.Minimize(obj)
	return s.driver.Solve()
}

// Maximize configures the driver to maximize obj then solves.
func (s *Solver) Maximize(obj core.VarId) search.Outcome {
	s.driver.Maximize(obj)
	return s.driver.Solve()
}

// Enumerate reports every solution over vars in turn by invoking yield
// with each model found, blocking the exact assignment after it is
// reported so the next solve finds a different one (spec §6
// "enumerate(vars)"). yield returning false stops enumeration early.
// The terminal Outcome is Unsat once every assignment has been
// produced, or Cancelled if interrupted mid-enumeration.
func (s *Solver) Enumerate(vars []core.VarId, yield func(model map[core.VarId]core.IntCst) bool) search.Outcome {
	return s.driver.Enumerate(vars, yield)
}

// Interrupt returns the cooperative cancellation token (spec §6
// "interrupt").
func (s *Solver) Interrupt() *core.Interrupt { return s.driver.Interrupt() }

// Entails reports whether lit currently holds (spec §6 "entails").
func (s *Solver) Entails(lit sv.Literal) bool { return s.domains.Entails(lit) }

// Bounds returns (lb, ub) for v (spec §6 "bounds").
func (s *Solver) Bounds(v core.VarId) (core.IntCst, core.IntCst) { return s.domains.Bounds(v) }

// Value returns the value of a literal's variable if it is entailed
// true, or ok=false otherwise (spec §6 "value").
func (s *Solver) Value(lit sv.Literal) (core.IntCst, bool) {
	if !s.domains.Entails(lit) {
		return 0, false
	}
	lb, _ := s.domains.Bounds(lit.Var())
	return lb, true
}

// TrailCursor returns the current trail length (spec §6 "trail_cursor").
func (s *Solver) TrailCursor() int32 { return s.trail.Len() }

// DecisionLevel returns the current decision level (spec §6 "decision_level").
func (s *Solver) DecisionLevel() core.DecLvl { return s.trail.DecisionLevel() }

// Statistics returns the driver's solver statistics.
func (s *Solver) Statistics() search.Statistics { return s.driver.Statistics() }

// InternalDriver exposes the underlying search.Driver for callers that
// need to hand it to portfolio.Run directly (cmd/chronicle-solve builds
// one Solver, and therefore one Driver, per portfolio worker).
func (s *Solver) InternalDriver() *search.Driver { return s.driver }
