// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coarsening

import (
	"math"

	"github.com/vladimir-ch/multigrid/backend"
)

const (
	undecided = -2
	removed   = -1
)

// aggregates is a partition of the rows of a matrix into disjoint groups.
type aggregates struct {
	// id[i] is the aggregate of row i, or
	// removed if the row has no strong
	// connections.
	id []int
	// count is the number of aggregates.
	count int
	// strong[k] reports whether the k-th
	// stored element of the matrix is a
	// strong off-diagonal connection.
	strong []bool
}

// strength marks the strong off-diagonal connections of a.
func strength(a *backend.Matrix, eps float64) []bool {
	dia := a.Diagonal()
	strong := make([]bool, a.NNZ())
	eps2 := eps * eps
	k := 0
	for i := 0; i < a.Rows(); i++ {
		cols, vals := a.Row(i)
		for n, j := range cols {
			v := vals[n]
			strong[k] = j != i && v*v > eps2*math.Abs(dia[i]*dia[j])
			k++
		}
	}
	return strong
}

// aggregate partitions the rows of a. A row whose strong neighbours are all
// unassigned becomes the root of a new aggregate together with them. The
// rows left over join the aggregate of their strongest assigned neighbour.
func aggregate(a *backend.Matrix, eps float64) aggregates {
	n := a.Rows()
	strong := strength(a, eps)
	id := make([]int, n)
	offset := make([]int, n+1)
	for i := 0; i < n; i++ {
		cols, _ := a.Row(i)
		offset[i+1] = offset[i] + len(cols)
	}
	neighbours := func(i int, fn func(j int, v float64)) {
		cols, vals := a.Row(i)
		for k, j := range cols {
			if strong[offset[i]+k] {
				fn(j, vals[k])
			}
		}
	}

	for i := range id {
		id[i] = removed
		neighbours(i, func(int, float64) { id[i] = undecided })
	}

	var count int
	for i := 0; i < n; i++ {
		if id[i] != undecided {
			continue
		}
		free := true
		neighbours(i, func(j int, _ float64) {
			if id[j] >= 0 {
				free = false
			}
		})
		if !free {
			continue
		}
		id[i] = count
		neighbours(i, func(j int, _ float64) {
			if id[j] == undecided {
				id[j] = count
			}
		})
		count++
	}

	// Every row still undecided has a strong neighbour assigned in the
	// first pass. Assignments made here are not used as targets.
	first := make([]int, n)
	copy(first, id)
	for i := 0; i < n; i++ {
		if first[i] != undecided {
			continue
		}
		best, bestVal := -1, 0.0
		neighbours(i, func(j int, v float64) {
			if first[j] >= 0 && math.Abs(v) > bestVal {
				best, bestVal = first[j], math.Abs(v)
			}
		})
		if best < 0 {
			// A row without assigned neighbours starts its own aggregate.
			best = count
			count++
		}
		id[i] = best
	}
	return aggregates{id: id, count: count, strong: strong}
}

// tentative returns the piecewise constant prolongation of the aggregates.
// Removed rows have no entries.
func (agg aggregates) tentative() *backend.Matrix {
	n := len(agg.id)
	ptr := make([]int, n+1)
	var (
		col []int
		val []float64
	)
	for i, g := range agg.id {
		if g >= 0 {
			col = append(col, g)
			val = append(val, 1)
		}
		ptr[i+1] = len(col)
	}
	p, err := backend.NewCRS(n, agg.count, ptr, col, val)
	if err != nil {
		panic(err)
	}
	return p
}

func (agg aggregates) check(n int) error {
	if agg.count == 0 || agg.count >= n {
		return ErrNoCoarsening
	}
	return nil
}
