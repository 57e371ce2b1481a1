// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package amg

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// Describe writes a summary of the hierarchy to w: the cycle, the strategies,
// the complexities and a table with the size of each level.
func (h *Hierarchy) Describe(w io.Writer) error {
	p := h.prm
	coarse := "direct"
	if !p.DirectCoarse {
		coarse = "relaxation"
	}
	_, err := fmt.Fprintf(w, "Number of levels:    %d\nOperator complexity: %.2f\nGrid complexity:     %.2f\nCycle:               %v\nCoarsening:          %s\nRelaxation:          %s\nCoarsest solve:      %s\n\n",
		len(h.levels), h.OperatorComplexity(), h.GridComplexity(), p.Cycle, p.Coarsening.Type, p.Relax.Type, coarse)
	if err != nil {
		return err
	}

	total := 0
	for _, l := range h.levels {
		total += l.a.NNZ()
	}
	var data [][]string
	for i, info := range h.Levels() {
		data = append(data, []string{
			strconv.Itoa(i),
			strconv.Itoa(info.Rows),
			strconv.Itoa(info.NNZ),
			fmt.Sprintf("%.2f%%", 100*float64(info.NNZ)/float64(max(total, 1))),
		})
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"LEVEL", "UNKNOWNS", "NONZEROS", "SHARE"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()
	return nil
}

func (h *Hierarchy) String() string {
	var b strings.Builder
	h.Describe(&b)
	return b.String()
}
