// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package iterative

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"

	"github.com/vladimir-ch/multigrid/backend"
)

type testCase struct {
	name  string
	n     int
	a     MatrixOps
	diag  []float64
	iters int
	tol   float64
}

// randomSPD returns a random symmetric positive definite n×n matrix stored as
// a dense upper triangle.
func randomSPD(n int, rnd *rand.Rand) testCase {
	a := make([]float64, n*n)
	lda := n
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			a[i*lda+j] = rnd.Float64()
		}
	}
	diag := make([]float64, n)
	for i := 0; i < n; i++ {
		a[i*lda+i] += float64(n)
		diag[i] = a[i*lda+i]
	}
	bi := blas64.Implementation()
	matvec := func(dst, x []float64) {
		bi.Dsymv(blas.Upper, n, 1, a, lda, x, 1, 0, dst, 1)
	}
	return testCase{
		name:  fmt.Sprintf("randomSPD%d", n),
		n:     n,
		a:     MatrixOps{MatVec: matvec, MatTransVec: matvec},
		diag:  diag,
		iters: n,
		tol:   1e-8,
	}
}

// convectionDiffusion returns the non-symmetric tridiagonal matrix of a 1-D
// upwind convection-diffusion operator with n unknowns.
func convectionDiffusion(n int, c float64) testCase {
	b := backend.NewBuilder(n, n)
	for i := 0; i < n; i++ {
		if i > 0 {
			b.Append(i, i-1, -1-c)
		}
		b.Append(i, i, 3)
		if i+1 < n {
			b.Append(i, i+1, -1+c)
		}
	}
	a := b.Matrix()
	return testCase{
		name:  fmt.Sprintf("convdiff%d", n),
		n:     n,
		a:     Ops(a),
		diag:  a.Diagonal(),
		iters: n,
		tol:   1e-8,
	}
}

// poisson1D returns the symmetric positive definite tridiagonal matrix of
// the 1-D Laplacian with n unknowns.
func poisson1D(n int) *backend.Matrix {
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

// jacobi is the diagonal preconditioner.
type jacobi []float64

func (d jacobi) Apply(rhs, x []float64) error {
	for i, v := range rhs {
		x[i] = v / d[i]
	}
	return nil
}

type failingPreconditioner struct{ err error }

func (p failingPreconditioner) Apply(rhs, x []float64) error { return p.err }

func ones(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = 1
	}
	return v
}

func testCases(rnd *rand.Rand, symmetric bool) []testCase {
	cases := []testCase{
		randomSPD(1, rnd),
		randomSPD(2, rnd),
		randomSPD(3, rnd),
		randomSPD(4, rnd),
		randomSPD(5, rnd),
		randomSPD(10, rnd),
		randomSPD(20, rnd),
		randomSPD(50, rnd),
		randomSPD(100, rnd),
		randomSPD(200, rnd),
	}
	if !symmetric {
		cases = append(cases,
			convectionDiffusion(10, 0.3),
			convectionDiffusion(100, 0.5),
			convectionDiffusion(500, 0.9),
		)
	}
	return cases
}
