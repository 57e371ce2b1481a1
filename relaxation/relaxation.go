// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package relaxation provides the smoothers used on the levels of a
// multigrid hierarchy. A smoother can also serve as a single-level
// preconditioner on its own.
package relaxation

import (
	"errors"
	"fmt"

	"github.com/vladimir-ch/multigrid/backend"
	"github.com/vladimir-ch/multigrid/config"
)

// ErrZeroDiagonal is returned when a smoother that divides by the diagonal
// is constructed for a matrix with a zero on its diagonal.
var ErrZeroDiagonal = errors.New("relaxation: zero diagonal entry")

// Names of the available smoothers.
const (
	DampedJacobi = "damped_jacobi"
	SPAI0        = "spai0"
	GaussSeidel  = "gauss_seidel"
)

// Smoother is a relaxation scheme bound to the matrix of one level.
type Smoother interface {
	// ApplyPre performs one pre-smoothing
	// sweep of A x = rhs updating x in
	// place. tmp is scratch space of the
	// length of rhs.
	ApplyPre(rhs, x, tmp []float64)

	// ApplyPost performs one post-smoothing
	// sweep of A x = rhs updating x in
	// place. tmp is scratch space of the
	// length of rhs.
	ApplyPost(rhs, x, tmp []float64)

	// Apply stores M⁻¹ rhs into x, where M
	// is the approximation of A defined
	// by the smoother.
	Apply(rhs, x []float64)
}

// Params selects and configures a smoother.
type Params struct {
	// Type is one of DampedJacobi, SPAI0
	// and GaussSeidel.
	Type string

	// Damping is the damping factor of
	// DampedJacobi.
	Damping float64
}

// DefaultParams returns the default smoother configuration.
func DefaultParams() Params {
	return Params{Type: SPAI0, Damping: 0.72}
}

// ReadParams returns the smoother configuration stored in prm, consuming the
// keys "type" and, for damped Jacobi, "damping".
func ReadParams(prm *config.Params) (Params, error) {
	p := DefaultParams()
	var err error
	if p.Type, err = prm.String("type", p.Type); err != nil {
		return p, err
	}
	switch p.Type {
	case DampedJacobi:
		if p.Damping, err = prm.Float("damping", p.Damping); err != nil {
			return p, err
		}
		if p.Damping <= 0 {
			return p, prm.Invalid("damping", "damping %v is not positive", p.Damping)
		}
	case SPAI0, GaussSeidel:
	default:
		return p, prm.Invalid("type", "unknown relaxation %q", p.Type)
	}
	return p, nil
}

// New returns the smoother described by p for the square matrix a.
func New(a *backend.Matrix, p Params) (Smoother, error) {
	if a.Rows() != a.Cols() {
		return nil, fmt.Errorf("relaxation: matrix is not square: %d×%d", a.Rows(), a.Cols())
	}
	switch p.Type {
	case DampedJacobi:
		return newDampedJacobi(a, p.Damping)
	case SPAI0:
		return newSPAI0(a)
	case GaussSeidel:
		return newGaussSeidel(a)
	}
	return nil, fmt.Errorf("relaxation: unknown type %q", p.Type)
}

// diagonalSmoother is a smoother with a diagonal approximate inverse.
type diagonalSmoother struct {
	a *backend.Matrix
	m []float64
}

// sweep performs x += M (rhs - A x).
func (s *diagonalSmoother) sweep(rhs, x, tmp []float64) {
	s.a.Residual(tmp, rhs, x)
	for i, m := range s.m {
		x[i] += m * tmp[i]
	}
}

func (s *diagonalSmoother) ApplyPre(rhs, x, tmp []float64)  { s.sweep(rhs, x, tmp) }
func (s *diagonalSmoother) ApplyPost(rhs, x, tmp []float64) { s.sweep(rhs, x, tmp) }

func (s *diagonalSmoother) Apply(rhs, x []float64) {
	for i, m := range s.m {
		x[i] = m * rhs[i]
	}
}
