// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package problem generates model sparse linear systems: the finite
// difference discretizations of the Poisson equation with homogeneous
// Dirichlet boundary conditions on uniform grids with unit spacing.
package problem

import "github.com/vladimir-ch/multigrid/backend"

// Poisson1D returns the 3-point Laplacian with n unknowns and a right-hand
// side of ones.
func Poisson1D(n int) (*backend.Matrix, []float64) {
	return Poisson(1, n)
}

// Poisson2D returns the 5-point Laplacian on an m×m grid and a right-hand
// side of ones.
func Poisson2D(m int) (*backend.Matrix, []float64) {
	return Poisson(2, m)
}

// Poisson3D returns the 7-point Laplacian on an m×m×m grid and a right-hand
// side of ones.
func Poisson3D(m int) (*backend.Matrix, []float64) {
	return Poisson(3, m)
}

// Poisson returns the (2·dim+1)-point Laplacian on a grid with m points in
// each of dim dimensions and a right-hand side of ones. Unknowns are
// numbered with the first coordinate varying fastest.
func Poisson(dim, m int) (*backend.Matrix, []float64) {
	if dim < 1 || 3 < dim {
		panic("problem: dimension must be 1, 2 or 3")
	}
	if m < 1 {
		panic("problem: grid size not positive")
	}
	n, stride := 1, make([]int, dim)
	for d := 0; d < dim; d++ {
		stride[d] = n
		n *= m
	}

	b := backend.NewBuilder(n, n)
	for i := 0; i < n; i++ {
		b.Append(i, i, float64(2*dim))
		for d := 0; d < dim; d++ {
			c := (i / stride[d]) % m
			if c > 0 {
				b.Append(i, i-stride[d], -1)
			}
			if c+1 < m {
				b.Append(i, i+stride[d], -1)
			}
		}
	}

	rhs := make([]float64, n)
	for i := range rhs {
		rhs[i] = 1
	}
	return b.Matrix(), rhs
}
