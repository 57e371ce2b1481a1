// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package backend

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReadMatrixMarket reads a sparse matrix in the Matrix Market coordinate
// format. Real and integer fields with general or symmetric structure are
// supported.
func ReadMatrixMarket(r io.Reader) (*Matrix, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, errors.New("backend: empty Matrix Market input")
	}
	header := strings.Fields(strings.ToLower(sc.Text()))
	if len(header) != 5 || header[0] != "%%matrixmarket" || header[1] != "matrix" {
		return nil, errors.New("backend: missing Matrix Market header")
	}
	if header[2] != "coordinate" {
		return nil, fmt.Errorf("backend: unsupported Matrix Market format %q", header[2])
	}
	if header[3] != "real" && header[3] != "integer" {
		return nil, fmt.Errorf("backend: unsupported Matrix Market field %q", header[3])
	}
	var symmetric bool
	switch header[4] {
	case "general":
	case "symmetric":
		symmetric = true
	default:
		return nil, fmt.Errorf("backend: unsupported Matrix Market symmetry %q", header[4])
	}

	var (
		b       *Builder
		entries int
		line    = 1
	)
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "%") {
			continue
		}
		fields := strings.Fields(text)
		if b == nil {
			if len(fields) != 3 {
				return nil, fmt.Errorf("backend: line %d: malformed size line", line)
			}
			var dims [3]int
			for k, f := range fields {
				v, err := strconv.Atoi(f)
				if err != nil || v < 0 {
					return nil, fmt.Errorf("backend: line %d: invalid size %q", line, f)
				}
				dims[k] = v
			}
			b = NewBuilder(dims[0], dims[1])
			entries = dims[2]
			continue
		}
		if len(fields) != 3 {
			return nil, fmt.Errorf("backend: line %d: malformed entry", line)
		}
		i, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("backend: line %d: %w", line, err)
		}
		j, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("backend: line %d: %w", line, err)
		}
		v, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("backend: line %d: %w", line, err)
		}
		r, c := b.Dims()
		if i < 1 || r < i || j < 1 || c < j {
			return nil, fmt.Errorf("backend: line %d: index (%d,%d) out of range", line, i, j)
		}
		b.Append(i-1, j-1, v)
		if symmetric && i != j {
			b.Append(j-1, i-1, v)
		}
		entries--
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if b == nil {
		return nil, errors.New("backend: missing Matrix Market size line")
	}
	if entries != 0 {
		return nil, errors.New("backend: mismatched number of Matrix Market entries")
	}
	return b.Matrix(), nil
}
