// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package coarsening builds the transfer operators between the levels of an
// algebraic multigrid hierarchy.
package coarsening

import (
	"errors"
	"fmt"

	"github.com/vladimir-ch/multigrid/backend"
	"github.com/vladimir-ch/multigrid/config"
)

// ErrNoCoarsening is returned when a matrix cannot be reduced to a smaller
// coarse level.
var ErrNoCoarsening = errors.New("coarsening: level cannot be coarsened")

// Names of the available coarsening strategies.
const (
	Aggregation         = "aggregation"
	SmoothedAggregation = "smoothed_aggregation"
)

// Coarsening constructs the next coarser level of a hierarchy.
type Coarsening interface {
	// Transfer returns the prolongation P
	// and the restriction R for the
	// matrix a.
	Transfer(a *backend.Matrix) (p, r *backend.Matrix, err error)

	// CoarseOperator returns the matrix of
	// the coarse level.
	CoarseOperator(a, p, r *backend.Matrix) *backend.Matrix
}

// Params selects and configures a coarsening strategy.
type Params struct {
	// Type is Aggregation or
	// SmoothedAggregation.
	Type string

	// EpsStrong is the threshold of the
	// strength of connection: a_ij is
	// strong if
	//  a_ij² > EpsStrong² |a_ii a_jj|.
	EpsStrong float64

	// Relax scales the damping of the
	// prolongation smoother of
	// SmoothedAggregation.
	Relax float64

	// OverInterp is the over-interpolation
	// factor dividing the coarse operator
	// of plain Aggregation.
	OverInterp float64
}

// DefaultParams returns the default coarsening configuration.
func DefaultParams() Params {
	return Params{
		Type:       SmoothedAggregation,
		EpsStrong:  0.08,
		Relax:      1,
		OverInterp: 1.5,
	}
}

// ReadParams returns the coarsening configuration stored in prm, consuming
// the keys "type" and "eps_strong", and "relax" or "over_interp" depending on
// the type.
func ReadParams(prm *config.Params) (Params, error) {
	p := DefaultParams()
	var err error
	if p.Type, err = prm.String("type", p.Type); err != nil {
		return p, err
	}
	if p.EpsStrong, err = prm.Float("eps_strong", p.EpsStrong); err != nil {
		return p, err
	}
	if p.EpsStrong < 0 {
		return p, prm.Invalid("eps_strong", "negative threshold %v", p.EpsStrong)
	}
	switch p.Type {
	case Aggregation:
		if p.OverInterp, err = prm.Float("over_interp", p.OverInterp); err != nil {
			return p, err
		}
		if p.OverInterp <= 0 {
			return p, prm.Invalid("over_interp", "factor %v is not positive", p.OverInterp)
		}
	case SmoothedAggregation:
		if p.Relax, err = prm.Float("relax", p.Relax); err != nil {
			return p, err
		}
		if p.Relax <= 0 {
			return p, prm.Invalid("relax", "factor %v is not positive", p.Relax)
		}
	default:
		return p, prm.Invalid("type", "unknown coarsening %q", p.Type)
	}
	return p, nil
}

// New returns the coarsening strategy described by p.
func New(p Params) (Coarsening, error) {
	switch p.Type {
	case Aggregation:
		return aggregation{eps: p.EpsStrong, overInterp: p.OverInterp}, nil
	case SmoothedAggregation:
		return smoothedAggregation{eps: p.EpsStrong, relax: p.Relax}, nil
	}
	return nil, fmt.Errorf("coarsening: unknown type %q", p.Type)
}

// Galerkin returns the coarse operator R A P.
func Galerkin(a, p, r *backend.Matrix) *backend.Matrix {
	return r.Mul(a.Mul(p))
}
