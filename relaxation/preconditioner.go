// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package relaxation

import (
	"fmt"

	"github.com/vladimir-ch/multigrid/backend"
	"github.com/vladimir-ch/multigrid/config"
)

// Preconditioner uses a single smoother over the system matrix as a
// preconditioner.
type Preconditioner struct {
	a *backend.Matrix
	s Smoother
	p Params
}

// NewPreconditioner returns the smoother configured by prm as a
// preconditioner for a.
func NewPreconditioner(a *backend.Matrix, prm *config.Params, bprm backend.Params) (*Preconditioner, error) {
	p, err := ReadParams(prm)
	if err != nil {
		return nil, err
	}
	a = bprm.Adopt(a)
	s, err := New(a, p)
	if err != nil {
		return nil, err
	}
	log := bprm.Log()
	log.Debug().Str("relaxation", p.Type).Int("rows", a.Rows()).Msg("smoother constructed")
	return &Preconditioner{a: a, s: s, p: p}, nil
}

// Apply stores M⁻¹ rhs into x. It never fails.
func (p *Preconditioner) Apply(rhs, x []float64) error {
	if len(rhs) != p.a.Rows() || len(x) != p.a.Rows() {
		panic("relaxation: mismatched vector length")
	}
	p.s.Apply(rhs, x)
	return nil
}

// SystemMatrix returns the matrix the smoother was built for.
func (p *Preconditioner) SystemMatrix() *backend.Matrix { return p.a }

// Params returns the smoother configuration.
func (p *Preconditioner) Params() Params { return p.p }

func (p *Preconditioner) String() string {
	return fmt.Sprintf("relaxation as preconditioner\n  unknowns: %d\n  nonzeros: %d\n  smoother: %s\n", p.a.Rows(), p.a.NNZ(), p.p.Type)
}
