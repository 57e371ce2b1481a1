// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package backend provides the builtin CPU backend used by the
// preconditioners: a sparse matrix in compressed row storage with float64
// values, vectors represented as []float64, and the kernels operating on them.
package backend

import (
	"errors"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

const (
	// minParallelRows is the smallest number of rows for which the row
	// loops are split between goroutines.
	minParallelRows = 4096
	// minBlockRows is the smallest row range given to one goroutine.
	minBlockRows = 1024
	// blocksPerWorker is the number of row ranges per worker aimed for.
	blocksPerWorker = 4
)

// Matrix is a sparse matrix in compressed row storage (CRS) format.
//
// The column indices of row i are col[ptr[i]:ptr[i+1]] and the corresponding
// values are val[ptr[i]:ptr[i+1]]. Within a row the column indices are sorted
// in increasing order and unique.
type Matrix struct {
	rows, cols int

	ptr []int
	col []int
	val []float64

	workers int
}

// NewCRS returns a rows×cols matrix that uses the given CRS arrays as its
// storage. The arrays are not copied. NewCRS returns an error if the arrays
// do not describe a valid matrix.
func NewCRS(rows, cols int, ptr, col []int, val []float64) (*Matrix, error) {
	switch {
	case rows < 0 || cols < 0:
		return nil, errors.New("backend: negative dimension")
	case len(ptr) != rows+1:
		return nil, fmt.Errorf("backend: len(ptr) = %d, want %d", len(ptr), rows+1)
	case ptr[0] != 0:
		return nil, errors.New("backend: ptr[0] != 0")
	case len(col) != ptr[rows] || len(val) != ptr[rows]:
		return nil, errors.New("backend: mismatched length of col or val")
	}
	for i := 0; i < rows; i++ {
		if ptr[i+1] < ptr[i] {
			return nil, fmt.Errorf("backend: decreasing ptr at row %d", i)
		}
		for k := ptr[i]; k < ptr[i+1]; k++ {
			c := col[k]
			if c < 0 || cols <= c {
				return nil, fmt.Errorf("backend: column index %d out of range in row %d", c, i)
			}
			if k > ptr[i] && col[k-1] >= c {
				return nil, fmt.Errorf("backend: unsorted or duplicate column index in row %d", i)
			}
		}
	}
	return &Matrix{rows: rows, cols: cols, ptr: ptr, col: col, val: val}, nil
}

// Dims returns the dimensions of the matrix.
func (m *Matrix) Dims() (r, c int) { return m.rows, m.cols }

// Rows returns the number of rows.
func (m *Matrix) Rows() int { return m.rows }

// Cols returns the number of columns.
func (m *Matrix) Cols() int { return m.cols }

// NNZ returns the number of stored entries.
func (m *Matrix) NNZ() int { return m.ptr[m.rows] }

// Row returns the column indices and values of the i-th row. The returned
// slices share the storage of the matrix and must not be modified.
func (m *Matrix) Row(i int) (cols []int, vals []float64) {
	if i < 0 || m.rows <= i {
		panic("backend: row index out of range")
	}
	lo, hi := m.ptr[i], m.ptr[i+1]
	return m.col[lo:hi], m.val[lo:hi]
}

// At returns the element at row i, column j.
func (m *Matrix) At(i, j int) float64 {
	if j < 0 || m.cols <= j {
		panic("backend: column index out of range")
	}
	cols, vals := m.Row(i)
	if k, ok := slices.BinarySearch(cols, j); ok {
		return vals[k]
	}
	return 0
}

// Diagonal returns a newly allocated slice with the diagonal of the matrix.
// Missing diagonal entries are zero.
func (m *Matrix) Diagonal() []float64 {
	n := min(m.rows, m.cols)
	d := make([]float64, n)
	for i := 0; i < n; i++ {
		d[i] = m.At(i, i)
	}
	return d
}

// Workers returns the number of goroutines used by MulVec and Residual.
func (m *Matrix) Workers() int { return m.workers }

// WithWorkers returns a matrix that shares the storage of m and splits its
// matrix-vector products between n goroutines.
func (m *Matrix) WithWorkers(n int) *Matrix {
	c := *m
	c.workers = n
	return &c
}

// MulVec computes A*x and stores the result into dst.
func (m *Matrix) MulVec(dst, x []float64) {
	if len(x) != m.cols || len(dst) != m.rows {
		panic("backend: dimension mismatch")
	}
	m.rowBlocks(func(lo, hi int) {
		for i := lo; i < hi; i++ {
			var sum float64
			for k := m.ptr[i]; k < m.ptr[i+1]; k++ {
				sum += m.val[k] * x[m.col[k]]
			}
			dst[i] = sum
		}
	})
}

// Residual computes rhs - A*x and stores the result into dst. dst must not
// alias x.
func (m *Matrix) Residual(dst, rhs, x []float64) {
	if len(x) != m.cols || len(dst) != m.rows || len(rhs) != m.rows {
		panic("backend: dimension mismatch")
	}
	m.rowBlocks(func(lo, hi int) {
		for i := lo; i < hi; i++ {
			sum := rhs[i]
			for k := m.ptr[i]; k < m.ptr[i+1]; k++ {
				sum -= m.val[k] * x[m.col[k]]
			}
			dst[i] = sum
		}
	})
}

// rowBlocks calls fn on consecutive row ranges covering all rows of m. The
// ranges are processed by at most m.Workers() goroutines at a time when the
// matrix has more than one worker and enough rows.
func (m *Matrix) rowBlocks(fn func(lo, hi int)) {
	if m.workers < 2 || m.rows < minParallelRows {
		fn(0, m.rows)
		return
	}
	chunk := max(minBlockRows, (m.rows+blocksPerWorker*m.workers-1)/(blocksPerWorker*m.workers))
	var g errgroup.Group
	g.SetLimit(m.workers)
	for lo := 0; lo < m.rows; lo += chunk {
		lo, hi := lo, min(lo+chunk, m.rows)
		g.Go(func() error {
			fn(lo, hi)
			return nil
		})
	}
	// The row kernels cannot fail.
	_ = g.Wait()
}

// Scale multiplies all elements of m by f in place.
func (m *Matrix) Scale(f float64) {
	for k := range m.val[:m.NNZ()] {
		m.val[k] *= f
	}
}

// Transpose returns a newly allocated transpose of m.
func (m *Matrix) Transpose() *Matrix {
	ptr := make([]int, m.cols+1)
	for _, c := range m.col[:m.NNZ()] {
		ptr[c+1]++
	}
	for j := 0; j < m.cols; j++ {
		ptr[j+1] += ptr[j]
	}
	next := slices.Clone(ptr[:m.cols])
	col := make([]int, m.NNZ())
	val := make([]float64, m.NNZ())
	// Rows are visited in increasing order, so the columns of the
	// transpose come out sorted.
	for i := 0; i < m.rows; i++ {
		for k := m.ptr[i]; k < m.ptr[i+1]; k++ {
			j := m.col[k]
			col[next[j]] = i
			val[next[j]] = m.val[k]
			next[j]++
		}
	}
	return &Matrix{rows: m.cols, cols: m.rows, ptr: ptr, col: col, val: val, workers: m.workers}
}

// Mul returns the sparse product m*b.
func (m *Matrix) Mul(b *Matrix) *Matrix {
	if m.cols != b.rows {
		panic("backend: dimension mismatch")
	}
	acc := make([]float64, b.cols)
	marker := make([]int, b.cols)
	for j := range marker {
		marker[j] = -1
	}

	ptr := make([]int, m.rows+1)
	var (
		col  []int
		val  []float64
		cols []int
	)
	for i := 0; i < m.rows; i++ {
		cols = cols[:0]
		for k := m.ptr[i]; k < m.ptr[i+1]; k++ {
			aik := m.val[k]
			bk := m.col[k]
			for l := b.ptr[bk]; l < b.ptr[bk+1]; l++ {
				j := b.col[l]
				if marker[j] != i {
					marker[j] = i
					acc[j] = 0
					cols = append(cols, j)
				}
				acc[j] += aik * b.val[l]
			}
		}
		slices.Sort(cols)
		for _, j := range cols {
			col = append(col, j)
			val = append(val, acc[j])
		}
		ptr[i+1] = len(col)
	}
	return &Matrix{rows: m.rows, cols: b.cols, ptr: ptr, col: col, val: val, workers: m.workers}
}

// Dense returns a dense copy of m. It panics if m has no rows or columns.
func (m *Matrix) Dense() *mat.Dense {
	d := mat.NewDense(m.rows, m.cols, nil)
	for i := 0; i < m.rows; i++ {
		for k := m.ptr[i]; k < m.ptr[i+1]; k++ {
			d.Set(i, m.col[k], m.val[k])
		}
	}
	return d
}

// FromDense returns a sparse copy of the non-zero elements of a.
func FromDense(a mat.Matrix) *Matrix {
	r, c := a.Dims()
	ptr := make([]int, r+1)
	var (
		col []int
		val []float64
	)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := a.At(i, j); v != 0 {
				col = append(col, j)
				val = append(val, v)
			}
		}
		ptr[i+1] = len(col)
	}
	return &Matrix{rows: r, cols: c, ptr: ptr, col: col, val: val}
}
