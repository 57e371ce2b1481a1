// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package amg

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/vladimir-ch/multigrid/backend"
	"github.com/vladimir-ch/multigrid/config"
	"github.com/vladimir-ch/multigrid/internal/problem"
	"github.com/vladimir-ch/multigrid/iterative"
)

func newHierarchy(t *testing.T, a *backend.Matrix, m map[string]any) *Hierarchy {
	t.Helper()
	prm := config.FromMap(m)
	h, err := New(a, prm, backend.DefaultParams())
	require.NoError(t, err)
	require.Empty(t, prm.Unused())
	return h
}

func relativeResidual(a *backend.Matrix, rhs, x []float64) float64 {
	r := make([]float64, len(rhs))
	a.Residual(r, rhs, x)
	return floats.Norm(r, 2) / floats.Norm(rhs, 2)
}

func TestHierarchyLevels(t *testing.T) {
	a, _ := problem.Poisson2D(32)
	h := newHierarchy(t, a, map[string]any{"coarse_enough": 16})
	levels := h.Levels()
	require.Greater(t, len(levels), 2)
	assert.Equal(t, LevelInfo{Rows: a.Rows(), NNZ: a.NNZ()}, levels[0])
	for i := 1; i < len(levels); i++ {
		assert.Less(t, levels[i].Rows, levels[i-1].Rows, "level %d", i)
	}
	assert.LessOrEqual(t, levels[len(levels)-1].Rows, 16)
	assert.Greater(t, h.OperatorComplexity(), 1.0)
	assert.Greater(t, h.GridComplexity(), 1.0)
	assert.Same(t, a, h.SystemMatrix())
}

func TestMaxLevels(t *testing.T) {
	a, _ := problem.Poisson2D(32)
	h := newHierarchy(t, a, map[string]any{"coarse_enough": 16, "max_levels": 2})
	assert.Len(t, h.Levels(), 2)

	h = newHierarchy(t, a, map[string]any{"max_levels": 1, "direct_coarse": false})
	assert.Len(t, h.Levels(), 1)
}

func TestSingleLevelIsExact(t *testing.T) {
	a, rhs := problem.Poisson1D(10)
	h := newHierarchy(t, a, nil)
	require.Len(t, h.Levels(), 1)
	x := make([]float64, 10)
	require.NoError(t, h.Apply(rhs, x))
	assert.InDeltaSlice(t, []float64{5, 9, 12, 14, 15, 15, 14, 12, 9, 5}, x, 1e-12)
}

func TestSingularCoarseMatrix(t *testing.T) {
	a := backend.NewBuilder(3, 3).Matrix()
	_, err := New(a, config.New(), backend.DefaultParams())
	assert.ErrorIs(t, err, ErrSingular)
}

func TestNotSquare(t *testing.T) {
	_, err := New(backend.NewBuilder(3, 2).Matrix(), config.New(), backend.DefaultParams())
	assert.Error(t, err)
}

func TestStandaloneSolve(t *testing.T) {
	a, rhs := problem.Poisson2D(32)
	for _, test := range []struct {
		name string
		prm  map[string]any
	}{
		{"V", map[string]any{}},
		{"W", map[string]any{"ncycle": 2}},
		{"K", map[string]any{"kcycle": 1}},
		{"V(2,2)", map[string]any{"npre": 2, "npost": 2, "relax_factor": 1}},
		{"jacobi", map[string]any{"relax": map[string]any{"type": "damped_jacobi"}}},
		{"gauss_seidel", map[string]any{"relax": map[string]any{"type": "gauss_seidel"}}},
		{"smoothed coarsest", map[string]any{"direct_coarse": false, "npre": 2, "npost": 2}},
	} {
		test.prm["coarse_enough"] = 16
		test.prm["maxiter"] = 300
		h := newHierarchy(t, a, test.prm)
		x := make([]float64, len(rhs))
		iters, resid, err := h.Solve(rhs, x)
		if !assert.NoError(t, err, test.name) {
			continue
		}
		assert.Less(t, resid, 1e-8, test.name)
		assert.Positive(t, iters, test.name)
		assert.Less(t, relativeResidual(a, rhs, x), 1e-8, test.name)
	}
}

func kcycleLevels(levels []LevelInfo) []int {
	var ks []int
	for k, info := range levels {
		if info.KCycle {
			ks = append(ks, k)
		}
	}
	return ks
}

func TestKCyclePlacement(t *testing.T) {
	a, rhs := problem.Poisson2D(32)

	solve := func(prm map[string]any) (*Hierarchy, int) {
		prm["coarse_enough"] = 16
		prm["maxiter"] = 300
		h := newHierarchy(t, a, prm)
		x := make([]float64, len(rhs))
		iters, _, err := h.Solve(rhs, x)
		require.NoError(t, err)
		return h, iters
	}

	h, vIters := solve(map[string]any{})
	levels := h.Levels()
	require.GreaterOrEqual(t, len(levels), 4)
	assert.Empty(t, kcycleLevels(levels))

	h, _ = solve(map[string]any{"kcycle": 0})
	assert.Empty(t, kcycleLevels(h.Levels()))

	h, kIters := solve(map[string]any{"kcycle": 1})
	var want []int
	for k := 1; k < len(levels)-1; k++ {
		want = append(want, k)
	}
	assert.Equal(t, want, kcycleLevels(h.Levels()))
	assert.Less(t, kIters, vIters)

	h, _ = solve(map[string]any{"kcycle": 2})
	want = nil
	for k := 2; k < len(levels)-1; k += 2 {
		want = append(want, k)
	}
	assert.Equal(t, want, kcycleLevels(h.Levels()))

	// The finest and the coarsest level never use the K-cycle.
	h, _ = solve(map[string]any{"kcycle": 1})
	levels = h.Levels()
	assert.False(t, levels[0].KCycle)
	assert.False(t, levels[len(levels)-1].KCycle)
}

func TestStandaloneSolveIterationLimit(t *testing.T) {
	a, rhs := problem.Poisson2D(32)
	h := newHierarchy(t, a, map[string]any{"coarse_enough": 16, "maxiter": 2})
	x := make([]float64, len(rhs))
	iters, resid, err := h.Solve(rhs, x)
	assert.True(t, errors.Is(err, iterative.ErrIterationLimit))
	assert.Equal(t, 2, iters)
	assert.Less(t, resid, 1.0)
}

func TestApplyAsPreconditioner(t *testing.T) {
	a, rhs := problem.Poisson2D(48)
	for _, test := range []struct {
		name   string
		method iterative.Method
		prm    map[string]any
	}{
		{"cg V", &iterative.CG{}, map[string]any{}},
		{"cg aggregation", &iterative.CG{}, map[string]any{"coarsening": map[string]any{"type": "aggregation"}}},
		{"bicgstab W", &iterative.BiCGSTAB{}, map[string]any{"ncycle": 2}},
		{"bicgstab K", &iterative.BiCGSTAB{}, map[string]any{"kcycle": 1}},
		{"gmres gauss_seidel", &iterative.GMRES{Restart: 30}, map[string]any{"relax": map[string]any{"type": "gauss_seidel"}}},
	} {
		test.prm["coarse_enough"] = 20
		h := newHierarchy(t, a, test.prm)
		r, err := iterative.LinearSolve(iterative.Ops(a), rhs, test.method, iterative.Settings{
			Tolerance:      1e-8,
			MaxIterations:  200,
			Preconditioner: h,
		})
		if !assert.NoError(t, err, test.name) {
			continue
		}
		assert.Less(t, relativeResidual(a, rhs, r.X), 1e-7, test.name)
		assert.Less(t, r.Stats.Iterations, 100, test.name)
	}
}

func TestDescribe(t *testing.T) {
	a, _ := problem.Poisson2D(32)
	h := newHierarchy(t, a, map[string]any{"coarse_enough": 16})
	s := h.String()
	assert.Contains(t, s, "Number of levels:")
	assert.Contains(t, s, "V(1,1)")
	assert.Contains(t, s, "smoothed_aggregation")
	assert.Contains(t, s, "1024")
	assert.Contains(t, s, "UNKNOWNS")
}

func TestConstructionIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	a, _ := problem.Poisson2D(16)
	_, err := New(a, config.FromMap(map[string]any{"coarse_enough": 16}), backend.Params{Logger: &logger})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"message":"hierarchy constructed"`)
	assert.Contains(t, buf.String(), `"rows":256`)
}

func TestApplyPanicsOnLength(t *testing.T) {
	a, _ := problem.Poisson1D(5)
	h := newHierarchy(t, a, nil)
	assert.Panics(t, func() { h.Apply(make([]float64, 4), make([]float64, 5)) })
}
