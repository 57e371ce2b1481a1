// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package amg

import (
	"fmt"

	"github.com/vladimir-ch/multigrid/coarsening"
	"github.com/vladimir-ch/multigrid/config"
	"github.com/vladimir-ch/multigrid/relaxation"
)

// CycleParams controls the shape of the multigrid cycle. MaxIterations and
// Tolerance are only used when the hierarchy is used as a standalone solver.
type CycleParams struct {
	// PreRelaxations is the number of
	// smoothing sweeps before the coarse
	// correction.
	PreRelaxations uint
	// PostRelaxations is the number of
	// smoothing sweeps after the coarse
	// correction.
	PostRelaxations uint
	// CycleMultiplicity is the number of
	// recursive cycles per coarse
	// correction: 1 is a V-cycle, 2 a
	// W-cycle.
	CycleMultiplicity uint
	// KCyclePeriod enables the K-cycle on
	// every level whose depth is a
	// multiple of it. Zero disables it.
	KCyclePeriod uint
	// RelaxFactor scales the prolonged
	// coarse correction.
	RelaxFactor float64
	// MaxIterations bounds the number of
	// cycles of Hierarchy.Solve.
	MaxIterations uint
	// Tolerance is the relative residual
	// norm at which Hierarchy.Solve stops.
	Tolerance float64
}

// DefaultCycleParams returns the default cycle: a V(1,1)-cycle without
// K-cycle acceleration.
func DefaultCycleParams() CycleParams {
	return CycleParams{
		PreRelaxations:    1,
		PostRelaxations:   1,
		CycleMultiplicity: 1,
		KCyclePeriod:      0,
		RelaxFactor:       0.72,
		MaxIterations:     100,
		Tolerance:         1e-8,
	}
}

// Read overrides the fields whose keys are present in prm and consumes the
// keys npre, npost, ncycle, kcycle, relax_factor, maxiter and tol.
func (c *CycleParams) Read(prm *config.Params) error {
	var err error
	for _, f := range []struct {
		key string
		dst *uint
	}{
		{"npre", &c.PreRelaxations},
		{"npost", &c.PostRelaxations},
		{"ncycle", &c.CycleMultiplicity},
		{"kcycle", &c.KCyclePeriod},
		{"maxiter", &c.MaxIterations},
	} {
		if *f.dst, err = prm.Uint(f.key, *f.dst); err != nil {
			return err
		}
	}
	if c.RelaxFactor, err = prm.Float("relax_factor", c.RelaxFactor); err != nil {
		return err
	}
	if c.Tolerance, err = prm.Float("tol", c.Tolerance); err != nil {
		return err
	}
	if c.Tolerance <= 0 {
		return prm.Invalid("tol", "tolerance %v is not positive", c.Tolerance)
	}
	return nil
}

// Validate reports whether c describes a usable cycle.
func (c CycleParams) Validate() error {
	if c.Tolerance <= 0 {
		return fmt.Errorf("amg: %w: tolerance %v is not positive", config.ErrInvalidValue, c.Tolerance)
	}
	return nil
}

func (c CycleParams) String() string {
	var shape string
	switch c.CycleMultiplicity {
	case 1:
		shape = "V"
	case 2:
		shape = "W"
	default:
		shape = fmt.Sprintf("%d×V", c.CycleMultiplicity)
	}
	s := fmt.Sprintf("%s(%d,%d)", shape, c.PreRelaxations, c.PostRelaxations)
	if c.KCyclePeriod > 0 {
		s += fmt.Sprintf(", K-cycle every %d levels", c.KCyclePeriod)
	}
	return s
}

// Params configures the construction of a Hierarchy.
type Params struct {
	Cycle CycleParams

	// CoarseEnough is the size below which
	// a level is not coarsened further.
	CoarseEnough uint
	// MaxLevels limits the depth of the
	// hierarchy. Zero means no limit.
	MaxLevels uint
	// DirectCoarse selects a direct solve
	// on the coarsest level instead of
	// smoothing.
	DirectCoarse bool

	Coarsening coarsening.Params
	Relax      relaxation.Params
}

// DefaultParams returns the default hierarchy configuration.
func DefaultParams() Params {
	return Params{
		Cycle:        DefaultCycleParams(),
		CoarseEnough: 300,
		DirectCoarse: true,
		Coarsening:   coarsening.DefaultParams(),
		Relax:        relaxation.DefaultParams(),
	}
}

// ReadParams returns the hierarchy configuration stored in prm. Besides the
// cycle keys it consumes coarse_enough, max_levels and direct_coarse, and the
// subtrees coarsening and relax.
func ReadParams(prm *config.Params) (Params, error) {
	p := DefaultParams()
	if err := p.Cycle.Read(prm); err != nil {
		return p, err
	}
	var err error
	if p.CoarseEnough, err = prm.Uint("coarse_enough", p.CoarseEnough); err != nil {
		return p, err
	}
	if p.MaxLevels, err = prm.Uint("max_levels", p.MaxLevels); err != nil {
		return p, err
	}
	if p.DirectCoarse, err = prm.Bool("direct_coarse", p.DirectCoarse); err != nil {
		return p, err
	}

	sub, err := prm.Sub("coarsening")
	if err != nil {
		return p, err
	}
	if p.Coarsening, err = coarsening.ReadParams(sub); err != nil {
		return p, err
	}
	if sub, err = prm.Sub("relax"); err != nil {
		return p, err
	}
	if p.Relax, err = relaxation.ReadParams(sub); err != nil {
		return p, err
	}
	return p, nil
}
