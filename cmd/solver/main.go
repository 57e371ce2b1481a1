// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command solver solves a sparse linear system with a preconditioned
// iterative method configured at run time.
//
// The system is either a Poisson problem on a unit-spaced grid or a matrix
// read from a Matrix Market file. The solver is configured by the "solver"
// subtree and the preconditioner by the "precond" subtree of the parameters
// given with --config and -p:
//
//	solver -n 64 --dim 2 -p solver.type=cg -p precond.class=amg -p precond.relax.type=gauss_seidel
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vladimir-ch/multigrid/backend"
	"github.com/vladimir-ch/multigrid/config"
	"github.com/vladimir-ch/multigrid/internal/problem"
	"github.com/vladimir-ch/multigrid/internal/profile"
	"github.com/vladimir-ch/multigrid/iterative"
	"github.com/vladimir-ch/multigrid/precond"
)

type options struct {
	size    int
	dim     int
	matrix  string
	config  string
	params  []string
	workers int
	verbose bool
	metrics bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:           "solver",
		Short:         "Solve a sparse linear system with a runtime-configured preconditioner",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(*cobra.Command, []string) error {
			return run(opts, stdout, stderr)
		},
	}
	cmd.Flags().IntVarP(&opts.size, "size", "n", 32, "Grid points per dimension of the Poisson problem")
	cmd.Flags().IntVar(&opts.dim, "dim", 3, "Dimension of the Poisson problem (1, 2 or 3)")
	cmd.Flags().StringVarP(&opts.matrix, "matrix", "A", "", "Read the system matrix from a Matrix Market file")
	cmd.Flags().StringVarP(&opts.config, "config", "c", "", "Read parameters from a YAML file")
	cmd.Flags().StringArrayVarP(&opts.params, "param", "p", nil, "Set a parameter as key=value (repeatable)")
	cmd.Flags().IntVar(&opts.workers, "workers", 1, "Goroutines used by matrix-vector products")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log construction details")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", false, "Print the profile in the Prometheus text format")
	return cmd
}

func run(opts options, stdout, stderr io.Writer) error {
	level := zerolog.InfoLevel
	if opts.verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.TimeOnly}).
		Level(level).With().Timestamp().Logger()

	prm, err := loadParams(opts)
	if err != nil {
		return err
	}
	bprm := backend.Params{Workers: opts.workers, Logger: &logger}

	prof := profile.New("solver")

	prof.Tic("assemble")
	a, rhs, err := assemble(opts)
	prof.Toc("assemble")
	if err != nil {
		return err
	}
	logger.Info().Int("rows", a.Rows()).Int("nonzeros", a.NNZ()).Msg("system assembled")

	sprm, err := prm.Sub("solver")
	if err != nil {
		return err
	}
	pprm, err := prm.Sub("precond")
	if err != nil {
		return err
	}

	prof.Tic("setup")
	p, err := precond.New(a, pprm, bprm)
	if err != nil {
		prof.Toc("setup")
		return err
	}
	defer p.Close()
	solver, err := iterative.NewSolver(a, sprm, bprm)
	prof.Toc("setup")
	if err != nil {
		return err
	}
	if err := prm.Check(); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Solver: %v\n", solver)
	fmt.Fprintf(stdout, "Preconditioner:\n%v\n", p)

	x := make([]float64, a.Rows())
	prof.Tic("solve")
	stats, err := solver.Solve(p, rhs, x)
	prof.Toc("solve")
	if err != nil && !errors.Is(err, iterative.ErrIterationLimit) {
		return err
	}
	fmt.Fprintf(stdout, "Iterations: %d\n", stats.Iterations)
	fmt.Fprintf(stdout, "Error:      %.6e\n", stats.ResidualNorm)
	if err != nil {
		logger.Warn().Err(err).Msg("solver did not converge")
	}
	fmt.Fprintln(stdout)
	prof.Render(stdout)

	if opts.metrics {
		reg := prometheus.NewRegistry()
		iters := profile.Counter(reg, "multigrid", "iterations_total", "Iterations done by the solver.")
		iters.Add(float64(stats.Iterations))
		if _, err := prof.Export(reg, "multigrid"); err != nil {
			return err
		}
		families, err := reg.Gather()
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout)
		for _, mf := range families {
			if _, err := expfmt.MetricFamilyToText(stdout, mf); err != nil {
				return err
			}
		}
	}
	return nil
}

func loadParams(opts options) (*config.Params, error) {
	prm := config.New()
	if opts.config != "" {
		var err error
		prm, err = config.LoadFile(opts.config)
		if err != nil {
			return nil, err
		}
	}
	for _, kv := range opts.params {
		if err := prm.Parse(kv); err != nil {
			return nil, err
		}
	}
	return prm, nil
}

func assemble(opts options) (*backend.Matrix, []float64, error) {
	if opts.matrix == "" {
		if opts.dim < 1 || 3 < opts.dim {
			return nil, nil, fmt.Errorf("solver: unsupported dimension %d", opts.dim)
		}
		if opts.size < 1 {
			return nil, nil, fmt.Errorf("solver: invalid size %d", opts.size)
		}
		a, rhs := problem.Poisson(opts.dim, opts.size)
		return a, rhs, nil
	}

	f, err := os.Open(opts.matrix)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	a, err := backend.ReadMatrixMarket(f)
	if err != nil {
		return nil, nil, fmt.Errorf("solver: %s: %w", opts.matrix, err)
	}
	if a.Rows() != a.Cols() {
		return nil, nil, fmt.Errorf("solver: %s: matrix is not square: %d×%d", opts.matrix, a.Rows(), a.Cols())
	}
	rhs := make([]float64, a.Rows())
	for i := range rhs {
		rhs[i] = 1
	}
	return a, rhs, nil
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "solver:", err)
		os.Exit(1)
	}
}
