// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package iterative

import (
	"math"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/floats"
)

// States of GMRES.Iterate.
const (
	gmresStart = iota + 1
	gmresAfterPSolveResidual
	gmresArnoldi
	gmresAfterMatVec
	gmresAfterPSolve
	gmresAfterEstimate
	gmresAfterResidual
	gmresAfterCheck
)

// GMRES implements the restarted Generalized Minimal RESidual method with left
// preconditioning for solving the system of linear equations
//  Ax = b,
// where A is a non-symmetric matrix.
//
// Every Arnoldi step counts as one iteration. The residual norm estimated
// from the Hessenberg least-squares problem is checked after each step; the
// true residual is computed and checked at every restart and before
// terminating.
//
// GMRES needs MatVec and PSolve matrix operations.
type GMRES struct {
	// Restart is the restart parameter.
	// It must be 0 <= Restart. If it is 0
	// or larger than the dimension of the
	// system, the dimension is used.
	Restart int

	state int
	k     int // Effective restart.
	i     int // Counter for inner iterations.
	lucky bool

	s  []float64
	w  []float64
	y  []float64
	av []float64

	v    []float64
	ldv  int
	h    []float64
	ldh  int
	givs []givens
}

type givens struct {
	c, s float64
}

// Init implements the Method interface.
func (g *GMRES) Init(dim int) {
	if dim <= 0 {
		panic("iterative: dimension not positive")
	}
	if g.Restart < 0 {
		panic("iterative: invalid GMRES.Restart")
	}

	g.k = g.Restart
	if g.k == 0 || dim < g.k {
		g.k = dim
	}
	k := g.k

	g.s = reuse(g.s, k+1)
	g.w = reuse(g.w, dim)
	g.y = reuse(g.y, k+1)
	g.av = reuse(g.av, dim)

	g.ldv = dim
	g.v = reuse(g.v, g.ldv*(k+1))
	g.ldh = k + 1
	g.h = reuse(g.h, g.ldh*k)
	if cap(g.givs) < k {
		g.givs = make([]givens, k)
	} else {
		g.givs = g.givs[:k]
	}

	g.state = gmresStart
}

// Iterate implements the Method interface.
func (g *GMRES) Iterate(ctx *Context) (Operation, error) {
	n := len(ctx.X)
	ldv := g.ldv
	switch g.state {
	case gmresStart:
		// The first column of V is M⁻¹ r.
		ctx.Src, ctx.Dst = ctx.Residual, g.v[:n]
		g.state = gmresAfterPSolveResidual
		return PSolve, nil

	case gmresAfterPSolveResidual:
		rnorm := floats.Norm(g.v[:n], 2)
		if rnorm == 0 {
			g.state = 0
			return NoOperation, errKrylovBasis
		}
		floats.Scale(1/rnorm, g.v[:n])
		// s = rnorm e_1.
		for i := range g.s {
			g.s[i] = 0
		}
		g.s[0] = rnorm
		g.i = 0
		fallthrough

	case gmresArnoldi:
		i := g.i
		ctx.Src, ctx.Dst = g.v[i*ldv:i*ldv+n], g.av
		g.state = gmresAfterMatVec
		return MatVec, nil

	case gmresAfterMatVec:
		ctx.Src, ctx.Dst = g.av, g.w
		g.state = gmresAfterPSolve
		return PSolve, nil

	case gmresAfterPSolve:
		i := g.i
		ldh := g.ldh
		hi := g.h[i*ldh : i*ldh+ldh]

		// Orthogonalize w against the previous columns of V using the
		// modified Gram-Schmidt process. The coefficients form the i-th
		// column of the upper Hessenberg matrix H.
		for k := 0; k <= i; k++ {
			vk := g.v[k*ldv : k*ldv+n]
			hki := floats.Dot(vk, g.w)
			hi[k] = hki
			floats.AddScaled(g.w, -hki, vk)
		}
		wnorm := floats.Norm(g.w, 2)
		hi[i+1] = wnorm
		// A zero norm means that the Krylov subspace is invariant and
		// the current least-squares solution is exact.
		g.lucky = wnorm == 0
		vip1 := g.v[(i+1)*ldv : (i+1)*ldv+n]
		copy(vip1, g.w)
		if !g.lucky {
			floats.Scale(1/wnorm, vip1)
		}

		// Apply the previous Givens rotations to the new column, then
		// compute and apply the rotation that zeroes H[i+1,i].
		for j := 0; j < i; j++ {
			hi[j], hi[j+1] = rotvec(hi[j], hi[j+1], g.givs[j])
		}
		g.givs[i] = drotg(hi[i], hi[i+1])
		hi[i], hi[i+1] = rotvec(hi[i], hi[i+1], g.givs[i])
		g.s[i], g.s[i+1] = rotvec(g.s[i], g.s[i+1], g.givs[i])

		ctx.ResidualNorm = math.Abs(g.s[i+1])
		ctx.Src, ctx.Dst = nil, nil
		ctx.Converged = false
		g.state = gmresAfterEstimate
		return CheckResidualNorm, nil

	case gmresAfterEstimate:
		if !ctx.Converged && !g.lucky && g.i+1 < g.k {
			g.i++
			g.state = gmresArnoldi
			return EndIteration, nil
		}
		g.update(ctx.X)
		g.state = gmresAfterResidual
		return ComputeResidual, nil

	case gmresAfterResidual:
		ctx.ResidualNorm = floats.Norm(ctx.Residual, 2)
		ctx.Converged = false
		g.state = gmresAfterCheck
		return CheckResidualNorm, nil

	case gmresAfterCheck:
		if ctx.Converged {
			g.state = 0
		} else {
			g.state = gmresStart
		}
		return EndIteration, nil

	default:
		panic("iterative: GMRES.Init not called")
	}
}

// update adds the Krylov correction V y to x, where y solves the triangular
// system R y = s formed by the rotated Hessenberg matrix.
func (g *GMRES) update(x []float64) {
	m := g.i + 1
	y := g.y[:m]
	copy(y, g.s[:m])
	// H is stored column-major, which is its row-major transpose, so the
	// upper triangular solve becomes a transposed lower triangular one.
	blas64.Implementation().Dtrsv(blas.Lower, blas.Trans, blas.NonUnit, m, g.h, g.ldh, y, 1)
	n := len(x)
	for j := 0; j < m; j++ {
		floats.AddScaled(x, y[j], g.v[j*g.ldv:j*g.ldv+n])
	}
}

func drotg(a, b float64) givens {
	if b == 0 {
		return givens{c: 1, s: 0}
	}
	if math.Abs(b) > math.Abs(a) {
		tmp := -a / b
		s := 1 / math.Sqrt(1+tmp*tmp)
		return givens{c: tmp * s, s: s}
	}
	tmp := -b / a
	c := 1 / math.Sqrt(1+tmp*tmp)
	return givens{c: c, s: tmp * c}
}

func rotvec(x, y float64, g givens) (rx, ry float64) {
	rx = g.c*x - g.s*y
	ry = g.s*x + g.c*y
	return
}
