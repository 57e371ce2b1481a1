// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coarsening

import "github.com/vladimir-ch/multigrid/backend"

// aggregation is the plain (unsmoothed) aggregation with piecewise constant
// interpolation. The coarse operator is divided by the over-interpolation
// factor to compensate for the poor approximation property of P.
type aggregation struct {
	eps        float64
	overInterp float64
}

func (c aggregation) Transfer(a *backend.Matrix) (p, r *backend.Matrix, err error) {
	agg := aggregate(a, c.eps)
	if err := agg.check(a.Rows()); err != nil {
		return nil, nil, err
	}
	p = agg.tentative()
	return p, p.Transpose(), nil
}

func (c aggregation) CoarseOperator(a, p, r *backend.Matrix) *backend.Matrix {
	ac := Galerkin(a, p, r)
	ac.Scale(1 / c.overInterp)
	return ac
}
