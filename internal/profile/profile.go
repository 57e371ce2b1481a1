// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package profile measures the wall time of nested named scopes of a driver
// program. A Profiler is passed explicitly to the code it measures.
package profile

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type scope struct {
	name     string
	calls    int
	total    time.Duration
	start    time.Time
	children []*scope
}

func (s *scope) child(name string) *scope {
	for _, c := range s.children {
		if c.name == name {
			return c
		}
	}
	c := &scope{name: name}
	s.children = append(s.children, c)
	return c
}

// Profiler accumulates the time spent in named scopes. Scopes opened while
// another scope is open are nested in it. A Profiler is not safe for
// concurrent use.
type Profiler struct {
	root  *scope
	stack []*scope
	now   func() time.Time
}

// New returns a Profiler whose outermost scope is called name and is open
// from the moment of the call until Render or Export.
func New(name string) *Profiler {
	return newWithClock(name, time.Now)
}

func newWithClock(name string, now func() time.Time) *Profiler {
	root := &scope{name: name, start: now()}
	return &Profiler{root: root, stack: []*scope{root}, now: now}
}

// Tic opens the scope name inside the innermost open scope.
func (p *Profiler) Tic(name string) {
	s := p.stack[len(p.stack)-1].child(name)
	s.start = p.now()
	p.stack = append(p.stack, s)
}

// Toc closes the innermost open scope, which must be called name, and
// returns the time spent in it since the matching Tic.
func (p *Profiler) Toc(name string) time.Duration {
	if len(p.stack) == 1 {
		panic("profile: Toc without Tic")
	}
	s := p.stack[len(p.stack)-1]
	if s.name != name {
		panic(fmt.Sprintf("profile: Toc(%q) closes scope %q", name, s.name))
	}
	d := p.now().Sub(s.start)
	s.total += d
	s.calls++
	p.stack = p.stack[:len(p.stack)-1]
	return d
}

// Total returns the accumulated time of the scope at the slash-separated
// path below the outermost scope, for example "setup/coarsening".
func (p *Profiler) Total(path string) (time.Duration, bool) {
	s := p.root
	for _, name := range strings.Split(path, "/") {
		var found *scope
		for _, c := range s.children {
			if c.name == name {
				found = c
				break
			}
		}
		if found == nil {
			return 0, false
		}
		s = found
	}
	return s.total, true
}

// stop brings the outermost scope up to date.
func (p *Profiler) stop() {
	p.root.total = p.now().Sub(p.root.start)
	p.root.calls = 1
}

func (p *Profiler) walk(fn func(path string, depth int, s *scope)) {
	var visit func(prefix string, depth int, s *scope)
	visit = func(prefix string, depth int, s *scope) {
		path := s.name
		if depth > 1 {
			path = prefix + "/" + s.name
		}
		fn(path, depth, s)
		for _, c := range s.children {
			visit(path, depth+1, c)
		}
	}
	for _, c := range p.root.children {
		visit("", 1, c)
	}
}

// Render writes a table of the scopes with their number of calls, total
// time and share of the outermost scope.
func (p *Profiler) Render(w io.Writer) {
	p.stop()
	var data [][]string
	add := func(name string, s *scope) {
		share := 0.0
		if p.root.total > 0 {
			share = 100 * float64(s.total) / float64(p.root.total)
		}
		data = append(data, []string{
			name,
			strconv.Itoa(s.calls),
			fmt.Sprintf("%.3f s", s.total.Seconds()),
			fmt.Sprintf("%.2f%%", share),
		})
	}
	add(p.root.name, p.root)
	p.walk(func(_ string, depth int, s *scope) {
		add(strings.Repeat("  ", depth)+s.name, s)
	})

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"SCOPE", "CALLS", "TIME", "SHARE"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.SetAutoWrapText(false)
	table.AppendBulk(data)
	table.Render()
}

// Export registers with reg a gauge holding the accumulated seconds of every
// scope, labelled by its slash-separated path. The outermost scope has the
// path "total".
func (p *Profiler) Export(reg prometheus.Registerer, namespace string) (*prometheus.GaugeVec, error) {
	p.stop()
	gauge := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "profile_seconds",
		Help:      "Wall time accumulated in a profiled scope.",
	}, []string{"scope"})
	if err := reg.Register(gauge); err != nil {
		return nil, err
	}
	gauge.WithLabelValues("total").Set(p.root.total.Seconds())
	p.walk(func(path string, _ int, s *scope) {
		gauge.WithLabelValues(path).Set(s.total.Seconds())
	})
	return gauge, nil
}

// Counter returns a counter of events registered with reg, or an
// unregistered one if reg is nil.
func Counter(reg prometheus.Registerer, namespace, name, help string) prometheus.Counter {
	return promauto.With(reg).NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	})
}
