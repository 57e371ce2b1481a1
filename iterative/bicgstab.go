// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package iterative

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// States of BiCGSTAB.Iterate. The zero state means that Init has not been
// called or that the method has terminated.
const (
	bicgstabStart = iota + 1
	bicgstabAfterPSolveP
	bicgstabAfterMatVecP
	bicgstabAfterHalfStep
	bicgstabAfterPSolveS
	bicgstabAfterMatVecS
	bicgstabAfterFullStep
)

// BiCGSTAB implements the BiConjugate Gradient STABilized iterative method with
// preconditioning for solving the system of linear equations
//  Ax = b,
// where A is a non-symmetric matrix. For symmetric positive definite systems
// use CG.
//
// BiCGSTAB needs MatVec and PSolve matrix operations. Each iteration commands
// two of each and checks the residual norm after both half steps.
type BiCGSTAB struct {
	first bool
	state int

	rho, rhoPrev float64
	alpha        float64
	omega        float64

	rt   []float64 // Shadow residual.
	p    []float64
	v    []float64 // A p^
	t    []float64 // A s^
	phat []float64 // M⁻¹ p
	s    []float64
	shat []float64 // M⁻¹ s
}

// Init implements the Method interface.
func (b *BiCGSTAB) Init(dim int) {
	if dim <= 0 {
		panic("iterative: dimension not positive")
	}
	for _, v := range []*[]float64{&b.rt, &b.p, &b.v, &b.t, &b.phat, &b.s, &b.shat} {
		*v = reuse(*v, dim)
	}
	b.first = true
	b.state = bicgstabStart
}

// Iterate implements the Method interface.
func (b *BiCGSTAB) Iterate(ctx *Context) (Operation, error) {
	switch b.state {
	case bicgstabStart:
		if b.first {
			copy(b.rt, ctx.Residual)
		}
		b.rho = floats.Dot(b.rt, ctx.Residual)
		if math.Abs(b.rho) < dlamchE*dlamchE {
			b.state = 0
			return NoOperation, errRhoBreakdown
		}
		if b.first {
			copy(b.p, ctx.Residual)
		} else {
			// p = r + β (p - ω v)
			beta := (b.rho / b.rhoPrev) * (b.alpha / b.omega)
			floats.AddScaled(b.p, -b.omega, b.v)
			floats.AddScaledTo(b.p, ctx.Residual, beta, b.p)
		}
		ctx.Src, ctx.Dst = b.p, b.phat
		b.state = bicgstabAfterPSolveP
		return PSolve, nil

	case bicgstabAfterPSolveP:
		ctx.Src, ctx.Dst = b.phat, b.v
		b.state = bicgstabAfterMatVecP
		return MatVec, nil

	case bicgstabAfterMatVecP:
		b.alpha = b.rho / floats.Dot(b.rt, b.v)
		// s = r - α v is kept in the residual so that the half step
		// can terminate the iteration early.
		floats.AddScaled(ctx.Residual, -b.alpha, b.v)
		copy(b.s, ctx.Residual)
		ctx.Src, ctx.Dst = nil, nil
		ctx.ResidualNorm = floats.Norm(ctx.Residual, 2)
		ctx.Converged = false
		b.state = bicgstabAfterHalfStep
		return CheckResidualNorm, nil

	case bicgstabAfterHalfStep:
		if ctx.Converged {
			floats.AddScaled(ctx.X, b.alpha, b.phat)
			b.state = 0
			return EndIteration, nil
		}
		ctx.Src, ctx.Dst = ctx.Residual, b.shat
		b.state = bicgstabAfterPSolveS
		return PSolve, nil

	case bicgstabAfterPSolveS:
		ctx.Src, ctx.Dst = b.shat, b.t
		b.state = bicgstabAfterMatVecS
		return MatVec, nil

	case bicgstabAfterMatVecS:
		tt := floats.Dot(b.t, b.t)
		if tt == 0 {
			b.state = 0
			return NoOperation, errOmegaBreakdown
		}
		b.omega = floats.Dot(b.t, b.s) / tt
		floats.AddScaled(ctx.X, b.alpha, b.phat)
		floats.AddScaled(ctx.X, b.omega, b.shat)
		floats.AddScaled(ctx.Residual, -b.omega, b.t)
		ctx.Src, ctx.Dst = nil, nil
		ctx.ResidualNorm = floats.Norm(ctx.Residual, 2)
		ctx.Converged = false
		b.state = bicgstabAfterFullStep
		return CheckResidualNorm, nil

	case bicgstabAfterFullStep:
		if ctx.Converged {
			b.state = 0
			return EndIteration, nil
		}
		if math.Abs(b.omega) < dlamchE*dlamchE {
			b.state = 0
			return NoOperation, errOmegaBreakdown
		}
		b.rhoPrev = b.rho
		b.first = false
		b.state = bicgstabStart
		return EndIteration, nil

	default:
		panic("iterative: BiCGSTAB.Init not called")
	}
}
