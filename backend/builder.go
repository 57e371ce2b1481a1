// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package backend

import "slices"

type triplet struct {
	i, j int
	v    float64
}

// Builder assembles a sparse matrix from (row, column, value) triplets.
// Triplets with the same row and column are summed.
type Builder struct {
	r, c int
	data []triplet
}

// NewBuilder returns a Builder for an r×c matrix.
func NewBuilder(r, c int) *Builder {
	return &Builder{
		r: r,
		c: c,
	}
}

func (b *Builder) Dims() (r, c int) {
	return b.r, b.c
}

// Append adds v to the element at row i, column j.
func (b *Builder) Append(i, j int, v float64) {
	if i < 0 || b.r <= i {
		panic("backend: row index out of range")
	}
	if j < 0 || b.c <= j {
		panic("backend: column index out of range")
	}
	b.data = append(b.data, triplet{i, j, v})
}

// Matrix returns the assembled matrix in CRS format. The Builder can be
// reused afterwards.
func (b *Builder) Matrix() *Matrix {
	ptr := make([]int, b.r+1)
	for _, t := range b.data {
		ptr[t.i+1]++
	}
	for i := 0; i < b.r; i++ {
		ptr[i+1] += ptr[i]
	}
	sorted := make([]triplet, len(b.data))
	next := slices.Clone(ptr[:b.r])
	for _, t := range b.data {
		sorted[next[t.i]] = t
		next[t.i]++
	}

	col := make([]int, 0, len(sorted))
	val := make([]float64, 0, len(sorted))
	out := make([]int, b.r+1)
	for i := 0; i < b.r; i++ {
		row := sorted[ptr[i]:ptr[i+1]]
		slices.SortStableFunc(row, func(x, y triplet) int { return x.j - y.j })
		for k, t := range row {
			if k > 0 && row[k-1].j == t.j {
				val[len(val)-1] += t.v
				continue
			}
			col = append(col, t.j)
			val = append(val, t.v)
		}
		out[i+1] = len(col)
	}
	return &Matrix{rows: b.r, cols: b.c, ptr: out, col: col, val: val}
}
