// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package backend

import "github.com/rs/zerolog"

// Tracker is notified when a component owning backend resources is
// constructed and when it is released.
type Tracker interface {
	Acquire(kind string)
	Release(kind string)
}

// Params holds the backend configuration used when constructing
// preconditioners and solvers.
type Params struct {
	// Workers is the number of goroutines
	// used by matrix-vector products.
	// Values smaller than 2 mean serial
	// execution.
	Workers int

	// Logger receives diagnostic
	// messages. If it is nil, nothing is
	// logged.
	Logger *zerolog.Logger

	// Tracker, if not nil, is notified
	// about every acquired and released
	// component.
	Tracker Tracker
}

// DefaultParams returns the default backend configuration.
func DefaultParams() Params {
	return Params{Workers: 1}
}

// Log returns the configured logger or a disabled one.
func (p Params) Log() zerolog.Logger {
	if p.Logger == nil {
		return zerolog.Nop()
	}
	return *p.Logger
}

// Adopt returns a view of a that uses the backend configuration.
func (p Params) Adopt(a *Matrix) *Matrix {
	if a.workers == p.Workers || (a.workers < 2 && p.Workers < 2) {
		return a
	}
	return a.WithWorkers(p.Workers)
}

// Acquire notifies the tracker, if any, that a component of the given kind
// was constructed.
func (p Params) Acquire(kind string) {
	if p.Tracker != nil {
		p.Tracker.Acquire(kind)
	}
}

// Release notifies the tracker, if any, that a component of the given kind
// was released.
func (p Params) Release(kind string) {
	if p.Tracker != nil {
		p.Tracker.Release(kind)
	}
}
