// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package profile

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances by one second on every reading.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func TestTicToc(t *testing.T) {
	t.Parallel()

	clk := &fakeClock{}
	p := newWithClock("run", clk.now)
	p.Tic("setup")
	p.Tic("coarsening")
	assert.Equal(t, time.Second, p.Toc("coarsening"))
	assert.Equal(t, 3*time.Second, p.Toc("setup"))
	p.Tic("solve")
	p.Toc("solve")
	p.Tic("solve")
	p.Toc("solve")

	d, ok := p.Total("setup")
	assert.True(t, ok)
	assert.Equal(t, 3*time.Second, d)
	d, ok = p.Total("setup/coarsening")
	assert.True(t, ok)
	assert.Equal(t, time.Second, d)
	d, ok = p.Total("solve")
	assert.True(t, ok)
	assert.Equal(t, 2*time.Second, d)
	_, ok = p.Total("coarsening")
	assert.False(t, ok)
}

func TestTocMismatch(t *testing.T) {
	t.Parallel()

	p := New("run")
	assert.Panics(t, func() { p.Toc("setup") })
	p.Tic("setup")
	assert.Panics(t, func() { p.Toc("solve") })
}

func TestRender(t *testing.T) {
	t.Parallel()

	clk := &fakeClock{}
	p := newWithClock("run", clk.now)
	p.Tic("setup")
	p.Toc("setup")
	p.Tic("solve")
	p.Tic("apply")
	p.Toc("apply")
	p.Toc("solve")

	var buf bytes.Buffer
	p.Render(&buf)
	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "SCOPE"))
	assert.True(t, strings.HasPrefix(lines[1], "run"))
	assert.Contains(t, lines[1], "100.00%")
	assert.True(t, strings.HasPrefix(lines[2], "  setup"))
	assert.True(t, strings.HasPrefix(lines[4], "    apply"))
	assert.Contains(t, lines[2], "1.000 s")
}

func TestExport(t *testing.T) {
	t.Parallel()

	clk := &fakeClock{}
	p := newWithClock("run", clk.now)
	p.Tic("setup")
	p.Tic("coarsening")
	p.Toc("coarsening")
	p.Toc("setup")

	reg := prometheus.NewRegistry()
	_, err := p.Export(reg, "multigrid")
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	assert.Equal(t, "multigrid_profile_seconds", families[0].GetName())

	got := make(map[string]float64)
	for _, m := range families[0].GetMetric() {
		require.Len(t, m.GetLabel(), 1)
		got[m.GetLabel()[0].GetValue()] = m.GetGauge().GetValue()
	}
	assert.Equal(t, map[string]float64{
		"total":            5,
		"setup":            3,
		"setup/coarsening": 1,
	}, got)

	// A second export into the same registry collides.
	_, err = p.Export(reg, "multigrid")
	assert.Error(t, err)
}

func TestCounter(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := Counter(reg, "multigrid", "iterations_total", "Iterations.")
	c.Add(7)
	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	assert.Equal(t, 7.0, families[0].GetMetric()[0].GetCounter().GetValue())

	assert.NotPanics(t, func() { Counter(nil, "", "x", "x").Inc() })
}
