// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package amg

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladimir-ch/multigrid/coarsening"
	"github.com/vladimir-ch/multigrid/config"
	"github.com/vladimir-ch/multigrid/relaxation"
)

func TestDefaultCycleParams(t *testing.T) {
	c := DefaultCycleParams()
	assert.Equal(t, uint(1), c.PreRelaxations)
	assert.Equal(t, uint(1), c.PostRelaxations)
	assert.Equal(t, uint(1), c.CycleMultiplicity)
	assert.Equal(t, uint(0), c.KCyclePeriod)
	assert.Equal(t, 0.72, c.RelaxFactor)
	assert.Equal(t, uint(100), c.MaxIterations)
	assert.Equal(t, 1e-8, c.Tolerance)
	assert.NoError(t, c.Validate())
	assert.Equal(t, "V(1,1)", c.String())
}

func TestCycleParamsRead(t *testing.T) {
	prm := config.New()
	for _, kv := range []string{"npre=2", "npost=3", "ncycle=2", "kcycle=1", "relax_factor=1", "tol=1e-6", "coarse_enough=50"} {
		require.NoError(t, prm.Parse(kv))
	}
	c := DefaultCycleParams()
	require.NoError(t, c.Read(prm))
	want := CycleParams{
		PreRelaxations:    2,
		PostRelaxations:   3,
		CycleMultiplicity: 2,
		KCyclePeriod:      1,
		RelaxFactor:       1,
		MaxIterations:     100,
		Tolerance:         1e-6,
	}
	if diff := cmp.Diff(want, c); diff != "" {
		t.Errorf("unexpected cycle parameters (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"coarse_enough"}, prm.Unused())
	assert.Equal(t, "W(2,3), K-cycle every 1 levels", c.String())
}

func TestCycleParamsReadInvalid(t *testing.T) {
	for _, kv := range []string{"npre=-1", "ncycle=1.5", "kcycle=often", "tol=0", "tol=-1e-8", "relax_factor=x"} {
		prm := config.New()
		require.NoError(t, prm.Parse(kv))
		c := DefaultCycleParams()
		err := c.Read(prm)
		assert.ErrorIs(t, err, config.ErrInvalidValue, kv)
	}
	c := DefaultCycleParams()
	c.Tolerance = 0
	assert.ErrorIs(t, c.Validate(), config.ErrInvalidValue)
}

func TestReadParams(t *testing.T) {
	p, err := ReadParams(config.New())
	require.NoError(t, err)
	if diff := cmp.Diff(DefaultParams(), p); diff != "" {
		t.Errorf("unexpected defaults (-want +got):\n%s", diff)
	}

	prm := config.FromMap(map[string]any{
		"coarse_enough": 10,
		"max_levels":    4,
		"direct_coarse": false,
		"coarsening":    map[string]any{"type": "aggregation"},
		"relax":         map[string]any{"type": "damped_jacobi", "damping": 0.6},
	})
	p, err = ReadParams(prm)
	require.NoError(t, err)
	assert.Equal(t, uint(10), p.CoarseEnough)
	assert.Equal(t, uint(4), p.MaxLevels)
	assert.False(t, p.DirectCoarse)
	assert.Equal(t, coarsening.Aggregation, p.Coarsening.Type)
	assert.Equal(t, relaxation.Params{Type: relaxation.DampedJacobi, Damping: 0.6}, p.Relax)
	assert.Empty(t, prm.Unused())

	_, err = ReadParams(config.FromMap(map[string]any{"relax": 1}))
	assert.ErrorIs(t, err, config.ErrInvalidValue)

	_, err = ReadParams(config.FromMap(map[string]any{"coarsening": map[string]any{"type": "bogus"}}))
	var kerr *config.KeyError
	require.ErrorAs(t, err, &kerr)
	assert.Equal(t, "coarsening.type", kerr.Key)
}
