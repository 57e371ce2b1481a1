// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package iterative

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/floats"
)

func TestGMRES(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for _, tc := range testCases(rnd, false) {
		for _, restart := range []int{0, 1, 5, 30} {
			for _, precond := range []bool{false, true} {
				n := tc.n
				want := ones(n)
				b := make([]float64, n)
				tc.a.MatVec(b, want)

				settings := Settings{
					MaxIterations: 50 * tc.iters,
					Tolerance:     1e-10,
				}
				if precond {
					settings.Preconditioner = jacobi(tc.diag)
				}
				r, err := LinearSolve(tc.a, b, &GMRES{Restart: restart}, settings)
				if err != nil {
					t.Errorf("Case %v (restart=%v, precond=%v): unexpected error %v", tc.name, restart, precond, err)
					continue
				}
				dist := floats.Distance(r.X, want, math.Inf(1))
				if dist > tc.tol {
					t.Errorf("Case %v (restart=%v, precond=%v): unexpected solution, |want-got|=%v", tc.name, restart, precond, dist)
				}
			}
		}
	}
}

func TestGMRESRestartNotModified(t *testing.T) {
	g := &GMRES{Restart: 100}
	a := poisson1D(10)
	if _, err := LinearSolve(Ops(a), ones(10), g, Settings{}); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if g.Restart != 100 {
		t.Errorf("Restart changed to %v", g.Restart)
	}
}
