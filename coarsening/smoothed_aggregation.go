// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coarsening

import (
	"math"

	"github.com/vladimir-ch/multigrid/backend"
)

// smoothedAggregation improves the tentative prolongation of the aggregates
// with one damped Jacobi step on the filtered matrix:
//  P = (I - ω D_f⁻¹ A_f) P_tent,  ω = relax · (4/3) / ρ(D_f⁻¹ A_f).
// A_f keeps the strong connections of A and lumps the weak ones into the
// diagonal D_f. The restriction is Pᵀ.
type smoothedAggregation struct {
	eps   float64
	relax float64
}

func (c smoothedAggregation) Transfer(a *backend.Matrix) (p, r *backend.Matrix, err error) {
	n := a.Rows()
	agg := aggregate(a, c.eps)
	if err := agg.check(n); err != nil {
		return nil, nil, err
	}

	// Filtered diagonal and the Gershgorin bound of the spectral radius
	// of D_f⁻¹ A_f.
	dia := make([]float64, n)
	var rho float64
	k := 0
	for i := 0; i < n; i++ {
		cols, vals := a.Row(i)
		var sum float64
		for m, j := range cols {
			v := vals[m]
			switch {
			case j == i:
				dia[i] += v
			case agg.strong[k+m]:
				sum += math.Abs(v)
			default:
				dia[i] += v
			}
		}
		k += len(cols)
		if dia[i] == 0 {
			dia[i] = a.At(i, i)
		}
		if dia[i] != 0 {
			rho = math.Max(rho, 1+sum/math.Abs(dia[i]))
		}
	}
	if rho == 0 {
		rho = 1
	}
	omega := c.relax * (4.0 / 3) / rho

	// S = I - ω D_f⁻¹ A_f.
	ptr := make([]int, n+1)
	col := make([]int, 0, a.NNZ()+n)
	val := make([]float64, 0, a.NNZ()+n)
	k = 0
	for i := 0; i < n; i++ {
		cols, vals := a.Row(i)
		sii, scale := 1.0, 0.0
		if dia[i] != 0 {
			sii, scale = 1-omega, omega/dia[i]
		}
		diag := false
		for m, j := range cols {
			if !diag && j >= i {
				col = append(col, i)
				val = append(val, sii)
				diag = true
			}
			if j != i && agg.strong[k+m] {
				col = append(col, j)
				val = append(val, -scale*vals[m])
			}
		}
		if !diag {
			col = append(col, i)
			val = append(val, sii)
		}
		k += len(cols)
		ptr[i+1] = len(col)
	}
	s, err := backend.NewCRS(n, n, ptr, col, val)
	if err != nil {
		return nil, nil, err
	}

	p = s.Mul(agg.tentative())
	return p, p.Transpose(), nil
}

func (smoothedAggregation) CoarseOperator(a, p, r *backend.Matrix) *backend.Matrix {
	return Galerkin(a, p, r)
}
