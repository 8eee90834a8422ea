// Command chronicle-solve is the CLI front-end of spec §6: it reads a
// DIMACS CNF file (the minimal input format available to the core now
// that the FlatZinc parser is an out-of-scope external collaborator),
// selects a time limit, seed, and worker count, and reports Sat/Unsat/
// Cancelled with the documented exit codes.
//
// CLI structure grounded on operator-lifecycle-manager's use of
// github.com/spf13/cobra.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/solverforge/chronicle-solver/core"
	"github.com/solverforge/chronicle-solver/internal/obs"
	"github.com/solverforge/chronicle-solver/model"
	"github.com/solverforge/chronicle-solver/search"
	"github.com/solverforge/chronicle-solver/search/portfolio"
	"github.com/solverforge/chronicle-solver/sv"
)

const (
	exitOK    = 0
	exitUsage = 1
	exitTimeout = 124
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var (
		timeLimit time.Duration
		seed      int64
		workers   int
		verbose   bool
	)

	exitCode := exitOK
	root := &cobra.Command{
		Use:          "chronicle-solve [flags] <file.cnf>",
		Short:        "Solve a DIMACS CNF file with the CDCL kernel",
		SilenceUsage: true,
		Args:         cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, posArgs []string) error {
			code, err := solveFile(posArgs[0], timeLimit, seed, workers, verbose)
			exitCode = code
			return err
		},
	}
	root.Flags().DurationVar(&timeLimit, "time-limit", 0, "abort and exit 124 after this long (0 = no limit)")
	root.Flags().Int64Var(&seed, "seed", 1, "PRNG seed for activity tie-breaks (portfolio worker i uses seed+i)")
	root.Flags().IntVar(&workers, "workers", 1, "number of parallel portfolio workers")
	root.Flags().BoolVar(&verbose, "verbose", false, "enable debug logging")
	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		if exitCode == exitOK {
			exitCode = exitUsage
		}
		fmt.Fprintln(os.Stderr, err)
	}
	return exitCode
}

func solveFile(path string, timeLimit time.Duration, seed int64, workers int, verbose bool) (int, error) {
	level := logrus.InfoLevel
	if verbose {
		level = logrus.DebugLevel
	}
	log := obs.NewLogger(level)
	metrics := obs.NewMetrics(prometheus.NewRegistry(), "chronicle_solve")

	f, err := os.Open(path)
	if err != nil {
		return exitUsage, err
	}
	defer f.Close()

	nvars, clauses, err := parseDIMACS(f)
	if err != nil {
		return exitUsage, err
	}

	ctx := context.Background()
	if timeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeLimit)
		defer cancel()
	}

	build := func(workerSeed int64) (*model.Solver, error) {
		cfg := core.NewConfig()
		cfg.Seed = workerSeed
		cfg.Log = log
		s := model.New(cfg)
		vars := make([]core.VarId, nvars+1)
		for i := 1; i <= nvars; i++ {
			v, err := s.NewVar(0, 1)
			if err != nil {
				return nil, err
			}
			vars[i] = v
		}
		for _, lits := range clauses {
			var built []sv.Literal
			for _, l := range lits {
				if l > 0 {
					built = append(built, sv.GEq(vars[l], 1))
				} else {
					built = append(built, sv.LEq(vars[-l], 0))
				}
			}
			if err := s.AddClause(built...); err != nil {
				return nil, err
			}
		}
		return s, nil
	}

	start := time.Now()
	outcome := portfolio.Run(ctx, workers, seed, func(workerSeed int64, idx int) *search.Driver {
		s, err := build(workerSeed)
		if err != nil {
			log.WithError(err).Fatal("failed to build model")
		}
		if timeLimit > 0 {
			go func() {
				<-ctx.Done()
				s.Interrupt().Fire()
			}()
		}
		return s.InternalDriver()
	})
	metrics.SolveDuration.Observe(time.Since(start).Seconds())

	switch outcome.Verdict {
	case search.Sat:
		printModel(outcome)
		return exitOK, nil
	case search.Unsat:
		fmt.Println("UNSAT")
		return exitOK, nil
	case search.Cancelled:
		fmt.Println("TIMEOUT")
		return exitTimeout, nil
	}
	return exitUsage, fmt.Errorf("unknown verdict")
}

func printModel(o search.Outcome) {
	fmt.Println("SAT")
	for v, val := range o.Model {
		fmt.Printf("v%d=%d\n", v, val)
	}
}

func parseDIMACS(f *os.File) (int, [][]int, error) {
	scanner := bufio.NewScanner(f)
	var nvars int
	var clauses [][]int
	var cur []int
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "c") {
			continue
		}
		if strings.HasPrefix(line, "p") {
			fields := strings.Fields(line)
			if len(fields) < 4 {
				return 0, nil, fmt.Errorf("malformed DIMACS header: %q", line)
			}
			n, err := strconv.Atoi(fields[2])
			if err != nil {
				return 0, nil, err
			}
			nvars = n
			continue
		}
		for _, tok := range strings.Fields(line) {
			n, err := strconv.Atoi(tok)
			if err != nil {
				return 0, nil, fmt.Errorf("malformed literal %q", tok)
			}
			if n == 0 {
				clauses = append(clauses, cur)
				cur = nil
				continue
			}
			cur = append(cur, n)
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, nil, err
	}
	return nvars, clauses, nil
}
