// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package relaxation

import (
	"fmt"

	"github.com/vladimir-ch/multigrid/backend"
)

// newSPAI0 returns the sparse approximate inverse smoother with the diagonal
// pattern. The diagonal M minimizes the Frobenius norm of I - M A, which gives
//  m_i = a_ii / Σ_j a_ij².
func newSPAI0(a *backend.Matrix) (Smoother, error) {
	m := make([]float64, a.Rows())
	for i := range m {
		cols, vals := a.Row(i)
		var dia, norm float64
		for k, j := range cols {
			v := vals[k]
			if j == i {
				dia = v
			}
			norm += v * v
		}
		if dia == 0 {
			return nil, fmt.Errorf("%w in row %d", ErrZeroDiagonal, i)
		}
		m[i] = dia / norm
	}
	return &diagonalSmoother{a: a, m: m}, nil
}
