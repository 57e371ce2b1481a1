// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package amg

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/vladimir-ch/multigrid/iterative"
)

// kcycleReduction is the residual reduction after the first K-cycle step
// that makes the second step unnecessary.
const kcycleReduction = 0.25

// cycle improves x for A_k x = rhs on level k.
func (h *Hierarchy) cycle(k int, rhs, x []float64) error {
	l := h.levels[k]
	if k == len(h.levels)-1 {
		return h.solveCoarsest(rhs, x)
	}
	c := &h.prm.Cycle

	for i := uint(0); i < c.PreRelaxations; i++ {
		l.relax.ApplyPre(rhs, x, l.t)
	}

	next := h.levels[k+1]
	l.a.Residual(l.t, rhs, x)
	l.r.MulVec(next.f, l.t)
	for i := range next.u {
		next.u[i] = 0
	}
	if next.k != nil {
		if err := h.kcycle(k+1, next.f, next.u); err != nil {
			return err
		}
	} else {
		for i := uint(0); i < c.CycleMultiplicity; i++ {
			if err := h.cycle(k+1, next.f, next.u); err != nil {
				return err
			}
		}
	}
	l.p.MulVec(l.t, next.u)
	floats.AddScaled(x, c.RelaxFactor, l.t)

	for i := uint(0); i < c.PostRelaxations; i++ {
		l.relax.ApplyPost(rhs, x, l.t)
	}
	return nil
}

// kcycle stores into x the result of two steps of flexible conjugate
// gradients on level k preconditioned by one cycle each. The second step is
// skipped when the first reduces the residual enough.
func (h *Hierarchy) kcycle(k int, rhs, x []float64) error {
	l := h.levels[k]
	s := l.k

	copy(s.r, rhs)
	for i := range s.c {
		s.c[i] = 0
	}
	if err := h.cycle(k, s.r, s.c); err != nil {
		return err
	}
	l.a.MulVec(s.v, s.c)
	rho1 := floats.Dot(s.c, s.v)
	if rho1 == 0 {
		copy(x, s.c)
		return nil
	}
	alpha1 := floats.Dot(s.c, s.r)
	t1 := alpha1 / rho1

	rnorm := floats.Norm(s.r, 2)
	floats.AddScaled(s.r, -t1, s.v)
	if floats.Norm(s.r, 2) <= kcycleReduction*rnorm {
		floats.ScaleTo(x, t1, s.c)
		return nil
	}

	for i := range s.d {
		s.d[i] = 0
	}
	if err := h.cycle(k, s.r, s.d); err != nil {
		return err
	}
	l.a.MulVec(s.w, s.d)
	gamma := floats.Dot(s.d, s.v)
	beta := floats.Dot(s.d, s.w)
	alpha2 := floats.Dot(s.d, s.r)
	rho2 := beta - gamma*gamma/rho1
	if rho2 == 0 {
		floats.ScaleTo(x, t1, s.c)
		return nil
	}
	floats.ScaleTo(x, t1-gamma*alpha2/(rho1*rho2), s.c)
	floats.AddScaled(x, alpha2/rho2, s.d)
	return nil
}

func (h *Hierarchy) solveCoarsest(rhs, x []float64) error {
	l := h.levels[len(h.levels)-1]
	if l.lu == nil {
		c := &h.prm.Cycle
		for i := uint(0); i < c.PreRelaxations; i++ {
			l.relax.ApplyPre(rhs, x, l.t)
		}
		for i := uint(0); i < c.PostRelaxations; i++ {
			l.relax.ApplyPost(rhs, x, l.t)
		}
		return nil
	}
	n := len(x)
	err := l.lu.SolveVecTo(mat.NewVecDense(n, x), false, mat.NewVecDense(n, rhs))
	var cond mat.Condition
	if err != nil && !errors.As(err, &cond) {
		return fmt.Errorf("%w: %v", ErrSingular, err)
	}
	return nil
}

// Solve uses the hierarchy as a standalone solver of A x = rhs. On entry x
// holds the initial guess. Cycles are repeated until the relative residual
// norm drops below the tolerance or the iteration limit is reached, in which
// case the error is iterative.ErrIterationLimit.
func (h *Hierarchy) Solve(rhs, x []float64) (iters int, resid float64, err error) {
	l := h.levels[0]
	n := l.a.Rows()
	if len(rhs) != n || len(x) != n {
		panic("amg: mismatched vector length")
	}
	c := &h.prm.Cycle
	r := make([]float64, n)

	bnorm := floats.Norm(rhs, 2)
	if bnorm == 0 {
		for i := range x {
			x[i] = 0
		}
		return 0, 0, nil
	}
	for {
		l.a.Residual(r, rhs, x)
		resid = floats.Norm(r, 2) / bnorm
		if resid < c.Tolerance {
			break
		}
		if uint(iters) == c.MaxIterations {
			err = iterative.ErrIterationLimit
			break
		}
		if err := h.cycle(0, rhs, x); err != nil {
			return iters, resid, err
		}
		iters++
	}
	h.log.Debug().Int("iterations", iters).Float64("residual", resid).Err(err).Msg("standalone solve finished")
	return iters, resid, err
}
