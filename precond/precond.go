// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package precond provides a preconditioner whose kind is selected at run
// time from a configuration tree.
//
// The "class" key chooses between an algebraic multigrid hierarchy ("amg"),
// a single smoother ("relaxation") and an inner iterative solver ("nested").
// The remaining keys of the tree configure the selected kind:
//
//	class: amg
//	coarse_enough: 500
//	coarsening:
//	  type: smoothed_aggregation
//	relax:
//	  type: spai0
//
// A nested preconditioner reads its solver from the "solver" subtree and its
// own preconditioner, recursively, from the "precond" subtree:
//
//	class: nested
//	solver:
//	  type: cg
//	  maxiter: 5
//	precond:
//	  class: amg
package precond

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/vladimir-ch/multigrid/amg"
	"github.com/vladimir-ch/multigrid/backend"
	"github.com/vladimir-ch/multigrid/config"
	"github.com/vladimir-ch/multigrid/iterative"
	"github.com/vladimir-ch/multigrid/relaxation"
)

// MaxNesting is the deepest chain of nested preconditioners accepted by New.
const MaxNesting = 8

var (
	// ErrClosed is returned when a closed
	// Preconditioner is used.
	ErrClosed = errors.New("precond: preconditioner is closed")
	// ErrTooDeep is returned when nested
	// preconditioners exceed MaxNesting.
	ErrTooDeep = errors.New("precond: nesting too deep")
)

// Preconditioner is a preconditioner of the selected Class. It implements
// iterative.Preconditioner. A Preconditioner is not safe for concurrent use;
// distinct Preconditioners are independent.
type Preconditioner struct {
	v    variant // nil after Close.
	c    Class
	a    *backend.Matrix
	bprm backend.Params
}

// New returns the preconditioner for the square matrix a configured by prm.
// The "class" key is required; all keys recognized by the selected kind are
// consumed from prm, so the caller can report the rest with prm.Check.
//
// The returned error wraps config.ErrMissingKey if the class is absent and
// ErrUnsupportedClass if it is not a string naming one of the known classes. Errors of the
// construction of the selected kind are returned unchanged. If New fails,
// everything built so far has been released.
func New(a *backend.Matrix, prm *config.Params, bprm backend.Params) (*Preconditioner, error) {
	return newAt(a, prm, bprm, 0)
}

func newAt(a *backend.Matrix, prm *config.Params, bprm backend.Params, depth int) (*Preconditioner, error) {
	name, err := prm.RequireString("class")
	if errors.Is(err, config.ErrMissingKey) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("precond: %w: %w", ErrUnsupportedClass, err)
	}
	c, err := ParseClass(name)
	if err != nil {
		return nil, fmt.Errorf("precond: %w: %w", ErrUnsupportedClass, err)
	}

	var v variant
	switch c {
	case AMG:
		var h *amg.Hierarchy
		if h, err = amg.New(a, prm, bprm); err == nil {
			v = &amgVariant{h: h}
		}
	case Relaxation:
		var p *relaxation.Preconditioner
		if p, err = relaxation.NewPreconditioner(a, prm, bprm); err == nil {
			v = &relaxationVariant{p: p}
		}
	case Nested:
		v, err = newNested(a, prm, bprm, depth)
	default:
		return nil, fmt.Errorf("precond: %w: %v", ErrUnsupportedClass, c)
	}
	if err != nil {
		return nil, err
	}

	bprm.Acquire(c.String())
	log := bprm.Log()
	log.Debug().Stringer("class", c).Int("rows", v.SystemMatrix().Rows()).Int("depth", depth).Msg("preconditioner constructed")
	return &Preconditioner{v: v, c: c, a: v.SystemMatrix(), bprm: bprm}, nil
}

func newNested(a *backend.Matrix, prm *config.Params, bprm backend.Params, depth int) (variant, error) {
	if depth >= MaxNesting {
		return nil, fmt.Errorf("%w: more than %d levels", ErrTooDeep, MaxNesting)
	}
	sprm, err := prm.Sub("solver")
	if err != nil {
		return nil, err
	}
	pprm, err := prm.Sub("precond")
	if err != nil {
		return nil, err
	}
	solver, err := iterative.NewSolver(a, sprm, bprm)
	if err != nil {
		return nil, err
	}
	inner, err := newAt(a, pprm, bprm, depth+1)
	if err != nil {
		return nil, err
	}
	return &nestedVariant{solver: solver, inner: inner}, nil
}

// Apply stores into x the preconditioner applied to rhs. Errors of the
// selected kind, such as a singular coarse level, are returned unchanged.
func (p *Preconditioner) Apply(rhs, x []float64) error {
	if p.v == nil {
		return ErrClosed
	}
	return p.v.Apply(rhs, x)
}

// SystemMatrix returns the matrix the preconditioner was built for. It must
// not be modified.
func (p *Preconditioner) SystemMatrix() *backend.Matrix { return p.a }

// Size returns the number of rows of the system matrix.
func (p *Preconditioner) Size() int { return p.a.Rows() }

// Class returns the class of the preconditioner.
func (p *Preconditioner) Class() Class { return p.c }

// Describe writes a human-readable description of the preconditioner to w.
func (p *Preconditioner) Describe(w io.Writer) error {
	if p.v == nil {
		return ErrClosed
	}
	if _, err := fmt.Fprintf(w, "Class: %v\n", p.c); err != nil {
		return err
	}
	return p.v.describe(w)
}

func (p *Preconditioner) String() string {
	var b strings.Builder
	if err := p.Describe(&b); err != nil {
		return fmt.Sprintf("%v (%v)", p.c, err)
	}
	return b.String()
}

// Close releases the preconditioner. Closing a closed Preconditioner
// returns ErrClosed.
func (p *Preconditioner) Close() error {
	if p.v == nil {
		return ErrClosed
	}
	if p.v.class() != p.c {
		panic("precond: class does not match the stored preconditioner")
	}
	p.v.release()
	p.v = nil
	p.bprm.Release(p.c.String())
	return nil
}
