// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Load reads a parameter tree from a YAML (or JSON) document whose top level
// is a mapping. Nested mappings become nested trees; integer, float and
// boolean scalars keep their type, everything else is stored as a string.
func Load(r io.Reader) (*Params, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return New(), nil
		}
		return nil, fmt.Errorf("config: %w", err)
	}
	root := &doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return New(), nil
		}
		root = root.Content[0]
	}
	p := New()
	if err := p.fill(root); err != nil {
		return nil, err
	}
	return p, nil
}

// LoadFile reads a parameter tree from the named YAML or JSON file.
func LoadFile(name string) (*Params, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

func (p *Params) fill(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("config: line %d: expected a mapping", n.Line)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if k.Kind != yaml.ScalarNode {
			return fmt.Errorf("config: line %d: non-scalar key", k.Line)
		}
		switch v.Kind {
		case yaml.MappingNode:
			dir, leaf := p.walk(k.Value, true)
			sub, ok := dir.m.Get(leaf)
			tree, isTree := sub.(*Params)
			if !ok || !isTree {
				tree = newTree(dir.prefix + leaf + ".")
				dir.m.Set(leaf, tree)
			}
			if err := tree.fill(v); err != nil {
				return err
			}
		case yaml.ScalarNode:
			val, err := scalar(v)
			if err != nil {
				return err
			}
			if val != nil {
				p.Set(k.Value, val)
			}
		default:
			return fmt.Errorf("config: line %d: unsupported value for %s", v.Line, p.prefix+k.Value)
		}
	}
	return nil
}

func scalar(n *yaml.Node) (any, error) {
	switch n.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		return strconv.ParseBool(n.Value)
	case "!!int":
		v, err := strconv.ParseInt(n.Value, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("config: line %d: %w", n.Line, err)
		}
		return v, nil
	case "!!float":
		v, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("config: line %d: %w", n.Line, err)
		}
		return v, nil
	}
	return n.Value, nil
}
