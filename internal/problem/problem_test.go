// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package problem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestPoisson(t *testing.T) {
	for _, test := range []struct {
		dim, m    int
		rows, nnz int
		diag      float64
	}{
		{dim: 1, m: 5, rows: 5, nnz: 5 + 2*4, diag: 2},
		{dim: 2, m: 4, rows: 16, nnz: 16 + 2*2*3*4, diag: 4},
		{dim: 3, m: 3, rows: 27, nnz: 27 + 3*2*2*9, diag: 6},
	} {
		a, rhs := Poisson(test.dim, test.m)
		assert.Equal(t, test.rows, a.Rows(), "dim %d", test.dim)
		assert.Equal(t, test.nnz, a.NNZ(), "dim %d", test.dim)
		assert.Len(t, rhs, test.rows)
		for i, v := range a.Diagonal() {
			assert.Equal(t, test.diag, v, "dim %d row %d", test.dim, i)
		}

		d := a.Dense()
		assert.True(t, mat.Equal(d, d.T()), "dim %d: not symmetric", test.dim)
		var chol mat.Cholesky
		assert.True(t, chol.Factorize(mat.NewSymDense(test.rows, d.RawMatrix().Data)), "dim %d: not positive definite", test.dim)
	}
}

func TestPoissonShortcuts(t *testing.T) {
	a, _ := Poisson1D(7)
	assert.Equal(t, 7, a.Rows())
	a, _ = Poisson2D(7)
	assert.Equal(t, 49, a.Rows())
	a, _ = Poisson3D(7)
	assert.Equal(t, 343, a.Rows())
	assert.Equal(t, -1.0, a.At(0, 1))
	assert.Equal(t, -1.0, a.At(0, 7))
	assert.Equal(t, -1.0, a.At(0, 49))
	assert.Zero(t, a.At(6, 7))
}

func TestPoissonPanics(t *testing.T) {
	assert.Panics(t, func() { Poisson(4, 2) })
	assert.Panics(t, func() { Poisson(2, 0) })
}
