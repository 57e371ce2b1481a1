// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingKey is returned when a required key is absent.
	ErrMissingKey = errors.New("missing required key")
	// ErrInvalidValue is returned when a value cannot be converted to the
	// requested type or lies outside of its allowed range.
	ErrInvalidValue = errors.New("invalid value")
)

// KeyError records an error concerning a single configuration key.
type KeyError struct {
	// Key is the dotted path of the key
	// from the root of its tree.
	Key string
	// Err is the underlying error,
	// usually ErrMissingKey or an error
	// wrapping ErrInvalidValue.
	Err error
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("config: %s: %v", e.Key, e.Err)
}

func (e *KeyError) Unwrap() error { return e.Err }

// UnusedError reports configuration keys that no component recognized.
type UnusedError struct {
	Keys []string
}

func (e *UnusedError) Error() string {
	if len(e.Keys) == 1 {
		return fmt.Sprintf("config: unused parameter %s", e.Keys[0])
	}
	return fmt.Sprintf("config: %d unused parameters %v", len(e.Keys), e.Keys)
}
