// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package iterative

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladimir-ch/multigrid/backend"
	"github.com/vladimir-ch/multigrid/config"
)

func TestNewSolverDefaults(t *testing.T) {
	a := poisson1D(20)
	prm := config.New()
	s, err := NewSolver(a, prm, backend.DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, DefaultType, s.Type())
	assert.Equal(t, DefaultMaxIterations, s.MaxIterations())
	assert.Equal(t, DefaultTolerance, s.Tolerance())
	assert.Same(t, a, s.SystemMatrix())
	assert.Equal(t, "bicgstab (maxiter=100, tol=1e-08)", s.String())
}

func TestNewSolverConsumesKeys(t *testing.T) {
	prm := config.New()
	for _, kv := range []string{"type=gmres", "maxiter=40", "tol=1e-6", "restart=10", "bogus=1"} {
		require.NoError(t, prm.Parse(kv))
	}
	s, err := NewSolver(poisson1D(20), prm, backend.DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, "gmres", s.Type())
	assert.Equal(t, 40, s.MaxIterations())
	assert.Equal(t, 1e-6, s.Tolerance())
	assert.Equal(t, []string{"bogus"}, prm.Unused())
}

func TestNewSolverInvalid(t *testing.T) {
	for _, kv := range []string{"type=lsqr", "tol=2", "tol=0", "maxiter=0", "maxiter=-3"} {
		prm := config.New()
		require.NoError(t, prm.Parse(kv))
		_, err := NewSolver(poisson1D(5), prm, backend.DefaultParams())
		assert.ErrorIs(t, err, config.ErrInvalidValue, kv)
	}
}

func TestNewSolverNotSquare(t *testing.T) {
	b := backend.NewBuilder(2, 3)
	b.Append(0, 0, 1)
	_, err := NewSolver(b.Matrix(), config.New(), backend.DefaultParams())
	assert.Error(t, err)
}

func TestSolverSolve(t *testing.T) {
	const n = 50
	a := poisson1D(n)
	for _, kind := range []string{"cg", "bicg", "bicgstab", "gmres"} {
		prm := config.FromMap(map[string]any{"type": kind, "maxiter": 2000, "tol": 1e-10})
		if kind == "gmres" {
			prm.Set("restart", n)
		}
		s, err := NewSolver(a, prm, backend.Params{Workers: 4})
		require.NoError(t, err, kind)

		x := make([]float64, n)
		rhs := ones(n)
		stats, err := s.Solve(jacobi(a.Diagonal()), rhs, x)
		require.NoError(t, err, kind)
		assert.Less(t, stats.ResidualNorm, 1e-10, kind)

		res := make([]float64, n)
		a.Residual(res, rhs, x)
		for i, v := range res {
			if v > 1e-7 || v < -1e-7 {
				t.Errorf("%s: residual[%d] = %v", kind, i, v)
				break
			}
		}
	}
}

func TestSolverIterationLimitKeepsIterate(t *testing.T) {
	a := poisson1D(200)
	prm := config.FromMap(map[string]any{"type": "cg", "maxiter": 2})
	s, err := NewSolver(a, prm, backend.DefaultParams())
	require.NoError(t, err)
	x := make([]float64, 200)
	stats, err := s.Solve(nil, ones(200), x)
	assert.True(t, errors.Is(err, ErrIterationLimit))
	assert.Equal(t, 2, stats.Iterations)
	assert.NotZero(t, x[100])
}
