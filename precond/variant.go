// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package precond

import (
	"errors"
	"fmt"
	"io"

	"github.com/vladimir-ch/multigrid/amg"
	"github.com/vladimir-ch/multigrid/backend"
	"github.com/vladimir-ch/multigrid/iterative"
	"github.com/vladimir-ch/multigrid/relaxation"
)

// variant is one of the concrete preconditioners. The unexported methods
// keep the set of implementations closed to this package.
type variant interface {
	iterative.Preconditioner
	SystemMatrix() *backend.Matrix
	class() Class
	describe(w io.Writer) error
	release()
}

type amgVariant struct {
	h *amg.Hierarchy
}

func (v *amgVariant) Apply(rhs, x []float64) error  { return v.h.Apply(rhs, x) }
func (v *amgVariant) SystemMatrix() *backend.Matrix { return v.h.SystemMatrix() }
func (v *amgVariant) class() Class                  { return AMG }
func (v *amgVariant) describe(w io.Writer) error    { return v.h.Describe(w) }
func (v *amgVariant) release()                      { v.h = nil }

type relaxationVariant struct {
	p *relaxation.Preconditioner
}

func (v *relaxationVariant) Apply(rhs, x []float64) error  { return v.p.Apply(rhs, x) }
func (v *relaxationVariant) SystemMatrix() *backend.Matrix { return v.p.SystemMatrix() }
func (v *relaxationVariant) class() Class                  { return Relaxation }
func (v *relaxationVariant) release()                      { v.p = nil }

func (v *relaxationVariant) describe(w io.Writer) error {
	_, err := io.WriteString(w, v.p.String())
	return err
}

// nestedVariant solves the system approximately with an inner solver
// preconditioned by an owned Preconditioner.
type nestedVariant struct {
	solver *iterative.Solver
	inner  *Preconditioner
}

// Apply runs the inner solver from a zero initial guess. Reaching the
// iteration limit of the inner solver is not an error.
func (v *nestedVariant) Apply(rhs, x []float64) error {
	for i := range x {
		x[i] = 0
	}
	_, err := v.solver.Solve(v.inner, rhs, x)
	if errors.Is(err, iterative.ErrIterationLimit) {
		return nil
	}
	return err
}

func (v *nestedVariant) SystemMatrix() *backend.Matrix { return v.solver.SystemMatrix() }
func (v *nestedVariant) class() Class                  { return Nested }

func (v *nestedVariant) describe(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "Solver: %v\nPreconditioner:\n", v.solver); err != nil {
		return err
	}
	return v.inner.Describe(w)
}

func (v *nestedVariant) release() {
	v.inner.Close()
	v.solver, v.inner = nil, nil
}
