// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package precond

import (
	"errors"
	"fmt"
)

// Class selects the kind of preconditioner built by New.
type Class int

// Preconditioner classes.
const (
	// AMG is an algebraic multigrid
	// hierarchy.
	AMG Class = iota
	// Relaxation is a single smoother
	// over the system matrix.
	Relaxation
	// Nested is an inner iterative solver
	// that is itself preconditioned by a
	// Preconditioner.
	Nested
)

var (
	// ErrInvalidClass is returned when a
	// token does not name a Class.
	ErrInvalidClass = errors.New("invalid preconditioner class")
	// ErrUnsupportedClass is returned by
	// New when the class key holds an
	// invalid or unsupported value.
	ErrUnsupportedClass = errors.New("unsupported preconditioner class")
)

var classNames = [...]string{
	AMG:        "amg",
	Relaxation: "relaxation",
	Nested:     "nested",
}

// ParseClass returns the Class named by s. The names are exactly "amg",
// "relaxation" and "nested".
func ParseClass(s string) (Class, error) {
	for c, name := range classNames {
		if s == name {
			return Class(c), nil
		}
	}
	return 0, fmt.Errorf("%w %q", ErrInvalidClass, s)
}

func (c Class) valid() bool { return 0 <= c && int(c) < len(classNames) }

func (c Class) String() string {
	if !c.valid() {
		return "???"
	}
	return classNames[c]
}

// MarshalText implements encoding.TextMarshaler.
func (c Class) MarshalText() ([]byte, error) {
	if !c.valid() {
		return nil, fmt.Errorf("%w %d", ErrInvalidClass, int(c))
	}
	return []byte(classNames[c]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Class) UnmarshalText(text []byte) error {
	v, err := ParseClass(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
