// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package amg implements an algebraic multigrid hierarchy that can be used as
// a preconditioner for the iterative methods or as a standalone solver.
//
// The hierarchy is built by repeated coarsening of the system matrix until a
// level is small enough to be solved directly. Every level but the coarsest
// carries a smoother, the prolongation and restriction to the next level and
// the scratch vectors of the cycle, so a Hierarchy must not be used
// concurrently.
package amg

import (
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/vladimir-ch/multigrid/backend"
	"github.com/vladimir-ch/multigrid/coarsening"
	"github.com/vladimir-ch/multigrid/config"
	"github.com/vladimir-ch/multigrid/relaxation"
)

// ErrSingular is returned when the matrix of the coarsest level cannot be
// factorized.
var ErrSingular = errors.New("amg: singular coarse matrix")

// level is one level of the hierarchy.
type level struct {
	a     *backend.Matrix
	p, r  *backend.Matrix // Transfer to and from the next level.
	relax relaxation.Smoother
	lu    *mat.LU // Coarsest level only.

	f, u []float64 // Right-hand side and solution of a coarse level.
	t    []float64 // Scratch.
	k    *kcycleVectors
}

type kcycleVectors struct {
	r, c, v, d, w []float64
}

// LevelInfo describes one level of a Hierarchy.
type LevelInfo struct {
	Rows int
	NNZ  int

	// KCycle reports whether the correction
	// of the level is computed by the
	// K-cycle.
	KCycle bool
}

// Hierarchy is an algebraic multigrid hierarchy.
type Hierarchy struct {
	prm    Params
	levels []*level
	log    zerolog.Logger
}

// New builds the hierarchy for the square matrix a configured by prm. See
// ReadParams for the consumed keys.
func New(a *backend.Matrix, prm *config.Params, bprm backend.Params) (*Hierarchy, error) {
	p, err := ReadParams(prm)
	if err != nil {
		return nil, err
	}
	return Build(a, p, bprm)
}

// Build builds the hierarchy for the square matrix a.
func Build(a *backend.Matrix, p Params, bprm backend.Params) (*Hierarchy, error) {
	if a.Rows() != a.Cols() {
		return nil, fmt.Errorf("amg: matrix is not square: %d×%d", a.Rows(), a.Cols())
	}
	if a.Rows() == 0 {
		return nil, errors.New("amg: empty matrix")
	}
	if err := p.Cycle.Validate(); err != nil {
		return nil, err
	}
	coarsen, err := coarsening.New(p.Coarsening)
	if err != nil {
		return nil, err
	}

	h := &Hierarchy{prm: p, log: bprm.Log().With().Str("component", "amg").Logger()}
	a = bprm.Adopt(a)
	for {
		l := &level{a: a}
		h.levels = append(h.levels, l)
		n := a.Rows()
		if uint(n) <= p.CoarseEnough || (p.MaxLevels > 0 && uint(len(h.levels)) >= p.MaxLevels) {
			break
		}
		pm, rm, err := coarsen.Transfer(a)
		if errors.Is(err, coarsening.ErrNoCoarsening) {
			h.log.Warn().Int("level", len(h.levels)-1).Int("rows", n).Msg("coarsening stalled")
			break
		}
		if err != nil {
			return nil, err
		}
		if l.relax, err = relaxation.New(a, p.Relax); err != nil {
			return nil, err
		}
		l.p, l.r = bprm.Adopt(pm), bprm.Adopt(rm)
		l.t = make([]float64, n)
		h.log.Debug().Int("level", len(h.levels)-1).Int("rows", n).Int("nnz", a.NNZ()).Msg("level constructed")
		a = bprm.Adopt(coarsen.CoarseOperator(a, pm, rm))
	}

	if err := h.setupCoarsest(); err != nil {
		return nil, err
	}
	for k, l := range h.levels {
		if k > 0 {
			l.f = make([]float64, l.a.Rows())
			l.u = make([]float64, l.a.Rows())
		}
		if h.kcycleAt(k) {
			n := l.a.Rows()
			l.k = &kcycleVectors{
				r: make([]float64, n),
				c: make([]float64, n),
				v: make([]float64, n),
				d: make([]float64, n),
				w: make([]float64, n),
			}
		}
	}
	h.log.Debug().
		Int("levels", len(h.levels)).
		Float64("operator_complexity", h.OperatorComplexity()).
		Msg("hierarchy constructed")
	return h, nil
}

func (h *Hierarchy) setupCoarsest() error {
	l := h.levels[len(h.levels)-1]
	n := l.a.Rows()
	l.t = make([]float64, n)
	h.log.Debug().Int("level", len(h.levels)-1).Int("rows", n).Int("nnz", l.a.NNZ()).Bool("direct", h.prm.DirectCoarse).Msg("coarsest level")
	if !h.prm.DirectCoarse {
		var err error
		l.relax, err = relaxation.New(l.a, h.prm.Relax)
		return err
	}
	var lu mat.LU
	lu.Factorize(l.a.Dense())
	if cond := lu.Cond(); math.IsInf(cond, 1) || math.IsNaN(cond) {
		return fmt.Errorf("%w (%d×%d)", ErrSingular, n, n)
	}
	l.lu = &lu
	return nil
}

// kcycleAt reports whether the coarse correction solved on level k uses
// the K-cycle.
func (h *Hierarchy) kcycleAt(k int) bool {
	period := h.prm.Cycle.KCyclePeriod
	return period > 0 && k > 0 && k < len(h.levels)-1 && uint(k)%period == 0
}

// Apply stores into x the result of one multigrid cycle for A x = rhs
// started from zero.
func (h *Hierarchy) Apply(rhs, x []float64) error {
	n := h.levels[0].a.Rows()
	if len(rhs) != n || len(x) != n {
		panic("amg: mismatched vector length")
	}
	for i := range x {
		x[i] = 0
	}
	return h.cycle(0, rhs, x)
}

// SystemMatrix returns the matrix of the finest level.
func (h *Hierarchy) SystemMatrix() *backend.Matrix { return h.levels[0].a }

// Params returns the configuration of the hierarchy.
func (h *Hierarchy) Params() Params { return h.prm }

// Levels describes the levels from the finest to the coarsest.
func (h *Hierarchy) Levels() []LevelInfo {
	info := make([]LevelInfo, len(h.levels))
	for i, l := range h.levels {
		info[i] = LevelInfo{Rows: l.a.Rows(), NNZ: l.a.NNZ(), KCycle: h.kcycleAt(i)}
	}
	return info
}

// OperatorComplexity returns the total number of non-zeros of all levels
// relative to the number of non-zeros of the system matrix.
func (h *Hierarchy) OperatorComplexity() float64 {
	var sum int
	for _, l := range h.levels {
		sum += l.a.NNZ()
	}
	return float64(sum) / float64(max(h.levels[0].a.NNZ(), 1))
}

// GridComplexity returns the total number of unknowns of all levels relative
// to the number of unknowns of the system.
func (h *Hierarchy) GridComplexity() float64 {
	var sum int
	for _, l := range h.levels {
		sum += l.a.Rows()
	}
	return float64(sum) / float64(h.levels[0].a.Rows())
}
