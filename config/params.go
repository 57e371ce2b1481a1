// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config implements the key-consuming parameter trees used to
// configure preconditioners and solvers at run time.
//
// A Params value maps string keys to scalar values or to nested Params. Keys
// are consumed when a component reads them, so after construction the caller
// can report the keys that nobody recognized with Unused or Check. Nested
// trees are addressed with dotted paths such as "coarsening.type".
package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Params is an ordered, key-consuming parameter tree. The zero value is not
// usable; create Params with New, Parse or Load.
type Params struct {
	m *orderedmap.OrderedMap[string, any]

	// prefix is the dotted path of this
	// tree within its root, including the
	// trailing dot.
	prefix string
}

// New returns an empty parameter tree.
func New() *Params {
	return newTree("")
}

func newTree(prefix string) *Params {
	return &Params{m: orderedmap.New[string, any](), prefix: prefix}
}

// FromMap returns a parameter tree holding the entries of m. Nested maps
// become nested trees. Keys of m may be dotted paths.
func FromMap(m map[string]any) *Params {
	p := New()
	for k, v := range m {
		p.Set(k, v)
	}
	return p
}

// Len returns the number of entries at the top level of the tree.
func (p *Params) Len() int { return p.m.Len() }

// Set stores value under the dotted path key, creating intermediate trees as
// needed. A map[string]any or *Params value is stored as a nested tree.
func (p *Params) Set(key string, value any) {
	dir, leaf := p.walk(key, true)
	switch v := value.(type) {
	case *Params:
		dir.m.Set(leaf, v.cloneAt(dir.prefix+leaf+"."))
	case map[string]any:
		sub := newTree(dir.prefix + leaf + ".")
		for k, x := range v {
			sub.Set(k, x)
		}
		dir.m.Set(leaf, sub)
	default:
		dir.m.Set(leaf, v)
	}
}

// Parse stores a "key=value" pair. The value is kept as a string and
// converted when a component reads it.
func (p *Params) Parse(kv string) error {
	key, value, ok := strings.Cut(kv, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return fmt.Errorf("config: malformed parameter %q, want key=value", kv)
	}
	p.Set(key, strings.TrimSpace(value))
	return nil
}

// Has reports whether the dotted path key is present.
func (p *Params) Has(key string) bool {
	_, ok := p.lookup(key)
	return ok
}

// Sub returns the nested tree stored under key. The returned tree is shared
// with p, so keys consumed from it are no longer reported by p.Unused. If key
// is absent, Sub returns a new empty tree that is not attached to p.
func (p *Params) Sub(key string) (*Params, error) {
	v, ok := p.lookup(key)
	if !ok {
		return newTree(p.prefix + key + "."), nil
	}
	sub, ok := v.(*Params)
	if !ok {
		return nil, p.keyError(key, fmt.Errorf("%w: %v is not a parameter tree", ErrInvalidValue, v))
	}
	return sub, nil
}

// take removes and returns the value stored under the dotted path key.
func (p *Params) take(key string) (any, bool) {
	dir, leaf := p.walk(key, false)
	if dir == nil {
		return nil, false
	}
	return dir.m.Delete(leaf)
}

// RequireString consumes the string stored under key. It returns a KeyError
// wrapping ErrMissingKey if the key is absent.
func (p *Params) RequireString(key string) (string, error) {
	v, ok := p.take(key)
	if !ok {
		return "", p.keyError(key, ErrMissingKey)
	}
	return p.toString(key, v)
}

// String consumes the string stored under key, or returns def if the key is
// absent.
func (p *Params) String(key, def string) (string, error) {
	v, ok := p.take(key)
	if !ok {
		return def, nil
	}
	return p.toString(key, v)
}

// Uint consumes the unsigned integer stored under key, or returns def if the
// key is absent. Negative values are rejected.
func (p *Params) Uint(key string, def uint) (uint, error) {
	v, ok := p.take(key)
	if !ok {
		return def, nil
	}
	f, err := p.toFloat(key, v)
	if err != nil {
		return 0, err
	}
	if f < 0 || f != math.Trunc(f) || f > math.MaxUint32 {
		return 0, p.keyError(key, fmt.Errorf("%w: %v is not an unsigned integer", ErrInvalidValue, v))
	}
	return uint(f), nil
}

// Float consumes the number stored under key, or returns def if the key is
// absent.
func (p *Params) Float(key string, def float64) (float64, error) {
	v, ok := p.take(key)
	if !ok {
		return def, nil
	}
	return p.toFloat(key, v)
}

// Bool consumes the boolean stored under key, or returns def if the key is
// absent.
func (p *Params) Bool(key string, def bool) (bool, error) {
	v, ok := p.take(key)
	if !ok {
		return def, nil
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		r, err := strconv.ParseBool(b)
		if err != nil {
			return false, p.keyError(key, fmt.Errorf("%w: %q is not a boolean", ErrInvalidValue, b))
		}
		return r, nil
	}
	return false, p.keyError(key, fmt.Errorf("%w: %v is not a boolean", ErrInvalidValue, v))
}

// Unused returns the dotted paths of all keys that have not been consumed,
// in insertion order.
func (p *Params) Unused() []string {
	var keys []string
	p.collect(p.prefix, &keys)
	return keys
}

// Check returns an UnusedError if any key has not been consumed.
func (p *Params) Check() error {
	if keys := p.Unused(); len(keys) > 0 {
		return &UnusedError{Keys: keys}
	}
	return nil
}

func (p *Params) collect(prefix string, keys *[]string) {
	for pair := p.m.Oldest(); pair != nil; pair = pair.Next() {
		if sub, ok := pair.Value.(*Params); ok {
			sub.collect(prefix+pair.Key+".", keys)
			continue
		}
		*keys = append(*keys, prefix+pair.Key)
	}
}

// Clone returns a deep copy of p.
func (p *Params) Clone() *Params {
	return p.cloneAt(p.prefix)
}

func (p *Params) cloneAt(prefix string) *Params {
	c := newTree(prefix)
	for pair := p.m.Oldest(); pair != nil; pair = pair.Next() {
		if sub, ok := pair.Value.(*Params); ok {
			c.m.Set(pair.Key, sub.cloneAt(prefix+pair.Key+"."))
			continue
		}
		c.m.Set(pair.Key, pair.Value)
	}
	return c
}

// Flatten returns all entries as dotted key/value pairs in insertion order.
func (p *Params) Flatten() [][2]string {
	var out [][2]string
	p.flatten(p.prefix, &out)
	return out
}

func (p *Params) flatten(prefix string, out *[][2]string) {
	for pair := p.m.Oldest(); pair != nil; pair = pair.Next() {
		if sub, ok := pair.Value.(*Params); ok {
			sub.flatten(prefix+pair.Key+".", out)
			continue
		}
		*out = append(*out, [2]string{prefix + pair.Key, fmt.Sprint(pair.Value)})
	}
}

func (p *Params) lookup(key string) (any, bool) {
	dir, leaf := p.walk(key, false)
	if dir == nil {
		return nil, false
	}
	return dir.m.Get(leaf)
}

// walk returns the tree holding the last component of the dotted path key
// together with that component. If create is true, missing intermediate
// trees are created, otherwise walk returns a nil tree.
func (p *Params) walk(key string, create bool) (*Params, string) {
	parts := strings.Split(key, ".")
	dir := p
	for _, part := range parts[:len(parts)-1] {
		v, _ := dir.m.Get(part)
		sub, isTree := v.(*Params)
		switch {
		case isTree:
		case !create:
			return nil, ""
		default:
			// A scalar in the way is replaced by a tree, the way a later
			// "a.b=1" overrides an earlier "a=1".
			sub = newTree(dir.prefix + part + ".")
			dir.m.Set(part, sub)
		}
		dir = sub
	}
	return dir, parts[len(parts)-1]
}

// Invalid returns a KeyError for key wrapping ErrInvalidValue with the
// formatted reason. Components use it to reject values that are well-formed
// but out of range.
func (p *Params) Invalid(key, format string, args ...any) error {
	return p.keyError(key, fmt.Errorf("%w: %s", ErrInvalidValue, fmt.Sprintf(format, args...)))
}

func (p *Params) keyError(key string, err error) error {
	return &KeyError{Key: p.prefix + key, Err: err}
}

func (p *Params) toString(key string, v any) (string, error) {
	switch s := v.(type) {
	case *Params:
		return "", p.keyError(key, fmt.Errorf("%w: parameter tree is not a string", ErrInvalidValue))
	case string:
		return s, nil
	case fmt.Stringer:
		return s.String(), nil
	}
	return fmt.Sprint(v), nil
}

func (p *Params) toFloat(key string, v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case uint:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	case uint32:
		return float64(x), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, p.keyError(key, fmt.Errorf("%w: %q is not a number", ErrInvalidValue, x))
		}
		return f, nil
	}
	return 0, p.keyError(key, fmt.Errorf("%w: %v is not a number", ErrInvalidValue, v))
}
