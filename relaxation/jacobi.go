// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package relaxation

import (
	"fmt"

	"github.com/vladimir-ch/multigrid/backend"
)

// newDampedJacobi returns the damped Jacobi smoother
//  x += ω D⁻¹ (rhs - A x).
func newDampedJacobi(a *backend.Matrix, damping float64) (Smoother, error) {
	d := a.Diagonal()
	for i, v := range d {
		if v == 0 {
			return nil, fmt.Errorf("%w in row %d", ErrZeroDiagonal, i)
		}
		d[i] = damping / v
	}
	return &diagonalSmoother{a: a, m: d}, nil
}
