// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package iterative

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// States of BiCG.Iterate.
const (
	bicgStart = iota + 1
	bicgAfterPSolve
	bicgAfterPSolveTrans
	bicgAfterMatVec
	bicgAfterMatTransVec
	bicgAfterStep
)

// BiCG implements the biconjugate gradient iterative method with
// preconditioning for solving the system of linear equations
//  Ax = b,
// where A is a non-symmetric matrix. For symmetric positive definite systems
// use CG.
//
// BiCG needs MatVec, MatTransVec, PSolve, and PSolveTrans matrix operations.
type BiCG struct {
	first bool
	state int

	rho, rhoPrev float64
	alpha        float64

	rt    []float64
	z, zt []float64 // Also hold q = A p and qt = A^T pt.
	p, pt []float64
}

// Init implements the Method interface.
func (b *BiCG) Init(dim int) {
	if dim <= 0 {
		panic("iterative: dimension not positive")
	}
	for _, v := range []*[]float64{&b.rt, &b.z, &b.zt, &b.p, &b.pt} {
		*v = reuse(*v, dim)
	}
	b.first = true
	b.state = bicgStart
}

// Iterate implements the Method interface.
func (b *BiCG) Iterate(ctx *Context) (Operation, error) {
	switch b.state {
	case bicgStart:
		if b.first {
			copy(b.rt, ctx.Residual)
		}
		ctx.Src, ctx.Dst = ctx.Residual, b.z
		b.state = bicgAfterPSolve
		return PSolve, nil

	case bicgAfterPSolve:
		ctx.Src, ctx.Dst = b.rt, b.zt
		b.state = bicgAfterPSolveTrans
		return PSolveTrans, nil

	case bicgAfterPSolveTrans:
		b.rho = floats.Dot(b.z, b.rt)
		// Breakdown when z and rt are numerically orthogonal.
		if math.Abs(b.rho) <= dlamchE*floats.Norm(b.z, 2)*floats.Norm(b.rt, 2) {
			b.state = 0
			return NoOperation, errRhoBreakdown
		}
		if b.first {
			copy(b.p, b.z)
			copy(b.pt, b.zt)
		} else {
			beta := b.rho / b.rhoPrev
			floats.AddScaledTo(b.p, b.z, beta, b.p)
			floats.AddScaledTo(b.pt, b.zt, beta, b.pt)
		}
		ctx.Src, ctx.Dst = b.p, b.z
		b.state = bicgAfterMatVec
		return MatVec, nil

	case bicgAfterMatVec:
		ctx.Src, ctx.Dst = b.pt, b.zt
		b.state = bicgAfterMatTransVec
		return MatTransVec, nil

	case bicgAfterMatTransVec:
		b.alpha = b.rho / floats.Dot(b.pt, b.z)
		floats.AddScaled(ctx.X, b.alpha, b.p)
		floats.AddScaled(ctx.Residual, -b.alpha, b.z)
		ctx.Src, ctx.Dst = nil, nil
		ctx.ResidualNorm = floats.Norm(ctx.Residual, 2)
		ctx.Converged = false
		b.state = bicgAfterStep
		return CheckResidualNorm, nil

	case bicgAfterStep:
		if ctx.Converged {
			b.state = 0
			return EndIteration, nil
		}
		floats.AddScaled(b.rt, -b.alpha, b.zt)
		b.rhoPrev = b.rho
		b.first = false
		b.state = bicgStart
		return EndIteration, nil

	default:
		panic("iterative: BiCG.Init not called")
	}
}
