// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coarsening

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/vladimir-ch/multigrid/backend"
	"github.com/vladimir-ch/multigrid/config"
)

func laplace1D(n int) *backend.Matrix {
	b := backend.NewBuilder(n, n)
	for i := 0; i < n; i++ {
		if i > 0 {
			b.Append(i, i-1, -1)
		}
		b.Append(i, i, 2)
		if i+1 < n {
			b.Append(i, i+1, -1)
		}
	}
	return b.Matrix()
}

func laplace2D(m int) *backend.Matrix {
	n := m * m
	b := backend.NewBuilder(n, n)
	for y := 0; y < m; y++ {
		for x := 0; x < m; x++ {
			i := y*m + x
			b.Append(i, i, 4)
			if x > 0 {
				b.Append(i, i-1, -1)
			}
			if x+1 < m {
				b.Append(i, i+1, -1)
			}
			if y > 0 {
				b.Append(i, i-m, -1)
			}
			if y+1 < m {
				b.Append(i, i+m, -1)
			}
		}
	}
	return b.Matrix()
}

func TestAggregate1D(t *testing.T) {
	agg := aggregate(laplace1D(9), 0.08)
	assert.Equal(t, 3, agg.count)
	assert.Equal(t, []int{0, 0, 1, 1, 1, 2, 2, 2, 2}, agg.id)
}

func TestAggregateCoversAllRows(t *testing.T) {
	a := laplace2D(12)
	agg := aggregate(a, 0.08)
	require.NoError(t, agg.check(a.Rows()))
	sizes := make([]int, agg.count)
	for i, g := range agg.id {
		require.True(t, g >= 0 && g < agg.count, "row %d in aggregate %d", i, g)
		sizes[g]++
	}
	for g, s := range sizes {
		assert.NotZero(t, s, "empty aggregate %d", g)
	}
	assert.Less(t, agg.count, a.Rows()/2)
}

func TestIsolatedRowsAreRemoved(t *testing.T) {
	b := backend.NewBuilder(4, 4)
	b.Append(0, 0, 2)
	b.Append(0, 1, -1)
	b.Append(1, 0, -1)
	b.Append(1, 1, 2)
	// Row 2 is only weakly coupled, row 3 not at all.
	b.Append(2, 2, 1)
	b.Append(2, 1, 1e-6)
	b.Append(1, 2, 1e-6)
	b.Append(3, 3, 1)
	agg := aggregate(b.Matrix(), 0.08)
	assert.Equal(t, []int{0, 0, removed, removed}, agg.id)

	p := agg.tentative()
	r, c := p.Dims()
	assert.Equal(t, 4, r)
	assert.Equal(t, 1, c)
	cols, _ := p.Row(3)
	assert.Empty(t, cols)
}

func TestNoCoarsening(t *testing.T) {
	b := backend.NewBuilder(3, 3)
	for i := 0; i < 3; i++ {
		b.Append(i, i, 1)
	}
	for _, typ := range []string{Aggregation, SmoothedAggregation} {
		p := DefaultParams()
		p.Type = typ
		c, err := New(p)
		require.NoError(t, err)
		_, _, err = c.Transfer(b.Matrix())
		assert.ErrorIs(t, err, ErrNoCoarsening, typ)
	}
}

func TestSmoothedProlongationPreservesConstants(t *testing.T) {
	const n = 30
	c, err := New(DefaultParams())
	require.NoError(t, err)
	p, r, err := c.Transfer(laplace1D(n))
	require.NoError(t, err)

	pr, pc := p.Dims()
	rr, rc := r.Dims()
	assert.Equal(t, n, pr)
	assert.Equal(t, pc, rr)
	assert.Equal(t, n, rc)

	ones := make([]float64, pc)
	for i := range ones {
		ones[i] = 1
	}
	got := make([]float64, n)
	p.MulVec(got, ones)
	// Interior rows of the Laplacian sum to zero, so the smoothing step
	// keeps the constant vector there.
	for i := 1; i < n-1; i++ {
		assert.InDelta(t, 1, got[i], 1e-14, "row %d", i)
	}
	assert.InDelta(t, 2.0/3, got[0], 1e-14)
}

func TestCoarseOperator(t *testing.T) {
	a := laplace2D(8)
	for _, typ := range []string{Aggregation, SmoothedAggregation} {
		prm := DefaultParams()
		prm.Type = typ
		c, err := New(prm)
		require.NoError(t, err)
		p, r, err := c.Transfer(a)
		require.NoError(t, err)
		ac := c.CoarseOperator(a, p, r)

		want := mat.NewDense(r.Rows(), p.Cols(), nil)
		want.Product(r.Dense(), a.Dense(), p.Dense())
		if typ == Aggregation {
			want.Scale(1/prm.OverInterp, want)
		}
		assert.True(t, mat.EqualApprox(want, ac.Dense(), 1e-12), typ)
		assert.True(t, mat.EqualApprox(ac.Dense(), ac.Transpose().Dense(), 1e-12), "%s: coarse operator not symmetric", typ)
	}
}

func TestReadParams(t *testing.T) {
	p, err := ReadParams(config.New())
	require.NoError(t, err)
	assert.Equal(t, DefaultParams(), p)

	prm := config.FromMap(map[string]any{"type": "aggregation", "eps_strong": 0.2, "over_interp": 2, "relax": 0.5})
	p, err = ReadParams(prm)
	require.NoError(t, err)
	assert.Equal(t, Aggregation, p.Type)
	assert.Equal(t, 0.2, p.EpsStrong)
	assert.Equal(t, 2.0, p.OverInterp)
	assert.Equal(t, []string{"relax"}, prm.Unused())

	for _, m := range []map[string]any{
		{"type": "ruge_stuben"},
		{"eps_strong": -1},
		{"relax": 0},
		{"type": "aggregation", "over_interp": -2},
	} {
		_, err := ReadParams(config.FromMap(m))
		assert.ErrorIs(t, err, config.ErrInvalidValue, "%v", m)
	}
}
