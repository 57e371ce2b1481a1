// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package iterative

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vladimir-ch/multigrid/backend"
	"github.com/vladimir-ch/multigrid/config"
)

// Default parameters of Solver.
const (
	DefaultType          = "bicgstab"
	DefaultMaxIterations = 100
	DefaultTolerance     = 1e-8
	DefaultRestart       = 30
)

// Solver is an iterative solver for a fixed sparse matrix whose Method is
// selected at run time. A Solver is not safe for concurrent use.
type Solver struct {
	kind     string
	a        *backend.Matrix
	ops      MatrixOps
	method   Method
	settings Settings
	log      zerolog.Logger
}

// NewSolver returns a Solver for the system matrix a configured by prm.
// The recognized keys are consumed from prm:
//  type     cg, bicg, bicgstab (default) or gmres
//  maxiter  iteration limit (100)
//  tol      relative residual tolerance (1e-8)
//  restart  GMRES restart (30)
// bicg uses the preconditioner also for the transpose solve, which is
// correct only for symmetric preconditioners.
func NewSolver(a *backend.Matrix, prm *config.Params, bprm backend.Params) (*Solver, error) {
	if a.Rows() != a.Cols() {
		return nil, fmt.Errorf("iterative: matrix is not square: %d×%d", a.Rows(), a.Cols())
	}
	kind, err := prm.String("type", DefaultType)
	if err != nil {
		return nil, err
	}
	maxiter, err := prm.Uint("maxiter", DefaultMaxIterations)
	if err != nil {
		return nil, err
	}
	tol, err := prm.Float("tol", DefaultTolerance)
	if err != nil {
		return nil, err
	}
	if tol < dlamchE || 1 <= tol {
		return nil, prm.Invalid("tol", "tolerance %v outside of (ε, 1)", tol)
	}
	if maxiter == 0 {
		return nil, prm.Invalid("maxiter", "zero iteration limit")
	}

	var method Method
	switch kind {
	case "cg":
		method = &CG{}
	case "bicg":
		method = &BiCG{}
	case "bicgstab":
		method = &BiCGSTAB{}
	case "gmres":
		restart, err := prm.Uint("restart", DefaultRestart)
		if err != nil {
			return nil, err
		}
		method = &GMRES{Restart: int(restart)}
	default:
		return nil, prm.Invalid("type", "unknown solver %q", kind)
	}

	a = bprm.Adopt(a)
	return &Solver{
		kind:   kind,
		a:      a,
		ops:    Ops(a),
		method: method,
		settings: Settings{
			Tolerance:     tol,
			MaxIterations: int(maxiter),
		},
		log: bprm.Log().With().Str("solver", kind).Logger(),
	}, nil
}

// Solve solves A x = rhs preconditioned by p, which may be nil. On entry x
// holds the initial guess, on return the approximate solution. If the
// iteration limit is reached, x holds the last iterate and the returned error
// is ErrIterationLimit.
func (s *Solver) Solve(p Preconditioner, rhs, x []float64) (Stats, error) {
	n := s.a.Rows()
	if len(rhs) != n || len(x) != n {
		panic("iterative: mismatched vector length")
	}
	settings := s.settings
	settings.X0 = x
	if p != nil {
		settings.Preconditioner = p
		settings.PreconditionerTrans = p
	}
	res, err := LinearSolve(s.ops, rhs, s.method, settings)
	if res.X != nil {
		copy(x, res.X)
	}
	s.log.Debug().
		Int("iterations", res.Stats.Iterations).
		Float64("residual", res.Stats.ResidualNorm).
		Dur("runtime", res.Stats.Runtime).
		Err(err).
		Msg("solve finished")
	return res.Stats, err
}

// Type returns the name of the iterative method.
func (s *Solver) Type() string { return s.kind }

// SystemMatrix returns the matrix of the system.
func (s *Solver) SystemMatrix() *backend.Matrix { return s.a }

// MaxIterations returns the iteration limit.
func (s *Solver) MaxIterations() int { return s.settings.MaxIterations }

// Tolerance returns the relative residual tolerance.
func (s *Solver) Tolerance() float64 { return s.settings.Tolerance }

func (s *Solver) String() string {
	return fmt.Sprintf("%s (maxiter=%d, tol=%g)", s.kind, s.settings.MaxIterations, s.settings.Tolerance)
}
