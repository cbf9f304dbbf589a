// Copyright (c) 2026, The Stimline Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package design

import (
	"github.com/emer/etable/etable"
	"github.com/emer/etable/etensor"
	"github.com/goki/gi/gi"
)

// Table renders the full generated design as an etable: one row per run
// with counters, condition id, factor labels, and a value + level-map
// column pair per assignment.  Symbolic and vector values render via
// their string form; the map column carries the 1-based level index
// (0 = no matching declared level).
func (sq *Sequence) Table() *etable.Table {
	sch := etable.Schema{
		{"Run", etensor.INT64, nil, nil},
		{"Block", etensor.INT64, nil, nil},
		{"Trial", etensor.INT64, nil, nil},
		{"Cond", etensor.INT64, nil, nil},
		{"BlockLabel", etensor.STRING, nil, nil},
		{"TrialLabel", etensor.STRING, nil, nil},
	}
	for _, cl := range sq.Cols {
		sch = append(sch, etable.Column{cl.Name, etensor.STRING, nil, nil})
		sch = append(sch, etable.Column{cl.Name + "Map", etensor.INT64, nil, nil})
	}
	dt := &etable.Table{}
	dt.SetFromSchema(sch, sq.NRuns)
	for run := 0; run < sq.NRuns; run++ {
		blk := sq.BlockOfRun(run)
		dt.SetCellFloat("Run", run, float64(run+1))
		dt.SetCellFloat("Block", run, float64(blk+1))
		dt.SetCellFloat("Trial", run, float64(run-blk*sq.NTrials+1))
		dt.SetCellFloat("Cond", run, float64(sq.OutIndex[run]))
		dt.SetCellString("BlockLabel", run, sq.OutBlock[blk])
		dt.SetCellString("TrialLabel", run, sq.OutTrial[run])
		for c, cl := range sq.Cols {
			dt.SetCellString(cl.Name, run, sq.OutValues[run][c].String())
			dt.SetCellFloat(cl.Name+"Map", run, float64(sq.OutMap.Value([]int{run, c})))
		}
	}
	return dt
}

// SaveTSV saves the design table to a tab-separated file with headers
func (sq *Sequence) SaveTSV(fname string) error {
	return sq.Table().SaveCSV(gi.FileName(fname), etable.Tab, etable.Headers)
}
