// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package relaxation

import (
	"fmt"

	"github.com/vladimir-ch/multigrid/backend"
)

// gaussSeidel sweeps forward for pre-smoothing and backward for
// post-smoothing, so that a V-cycle using it stays symmetric.
type gaussSeidel struct {
	a   *backend.Matrix
	dia []float64
}

func newGaussSeidel(a *backend.Matrix) (Smoother, error) {
	d := a.Diagonal()
	for i, v := range d {
		if v == 0 {
			return nil, fmt.Errorf("%w in row %d", ErrZeroDiagonal, i)
		}
	}
	return &gaussSeidel{a: a, dia: d}, nil
}

func (s *gaussSeidel) update(i int, rhs, x []float64) {
	cols, vals := s.a.Row(i)
	sum := rhs[i]
	for k, j := range cols {
		if j != i {
			sum -= vals[k] * x[j]
		}
	}
	x[i] = sum / s.dia[i]
}

func (s *gaussSeidel) forward(rhs, x []float64) {
	for i := 0; i < len(x); i++ {
		s.update(i, rhs, x)
	}
}

func (s *gaussSeidel) backward(rhs, x []float64) {
	for i := len(x) - 1; i >= 0; i-- {
		s.update(i, rhs, x)
	}
}

func (s *gaussSeidel) ApplyPre(rhs, x, _ []float64)  { s.forward(rhs, x) }
func (s *gaussSeidel) ApplyPost(rhs, x, _ []float64) { s.backward(rhs, x) }

// Apply performs one symmetric sweep starting from zero.
func (s *gaussSeidel) Apply(rhs, x []float64) {
	for i := range x {
		x[i] = 0
	}
	s.forward(rhs, x)
	s.backward(rhs, x)
}
