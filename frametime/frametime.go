// Copyright (c) 2026, The Stimline Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package frametime records one frame record per display swap and computes
missed-frame statistics after the fact.

A frame counts as a genuine miss only when its miss delta is strictly
positive, its tick was flagged stimulus-active, and it is not the first
frame of the log: first-frame jitter is a warm-up artifact and blank-phase
jitter does not affect the stimulus, so both are excluded.  The
stimulus-active flag is stored per tick at log time, so later analysis
never needs the scheduler's internal phase history.
*/
package frametime

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/c2h5oh/datasize"
	"github.com/emer/etable/agg"
	"github.com/emer/etable/etable"
	"github.com/emer/etable/etensor"
	"github.com/emer/etable/minmax"
)

// ErrNoData is returned when too few frames were recorded to compute
// meaningful miss statistics.
var ErrNoData = errors.New("frametime: too few frames recorded")

// MinFrames is the minimum number of recorded frames required before miss
// statistics are computed.
const MinFrames = 5

// Log is the frame timing log: a preallocated table with one write-once
// row per display swap.
type Log struct {

	// frame records: Tick, Requested, Presented, Acked, Delta, StimOn
	Table *etable.Table `view:"no-inline" desc:"frame records: Tick, Requested, Presented, Acked, Delta, StimOn"`

	// number of frames recorded so far
	NFrames int `inactive:"+" desc:"number of frames recorded so far"`

	// phase-name substrings recognized as stimulus-active
	StimPatterns []string `desc:"phase-name substrings recognized as stimulus-active"`

	// clip range applied to the masked delta sequence for plotting
	ClipRange minmax.F64 `desc:"clip range applied to the masked delta sequence for plotting"`
}

// New returns a Log preallocated for the estimated frame budget.
// Unused rows are dropped by Trim at session end.
func New(estFrames int) *Log {
	fl := &Log{}
	fl.StimPatterns = []string{"stim"}
	fl.ClipRange.Set(-0.005, 0.005)
	sch := etable.Schema{
		{"Tick", etensor.INT64, nil, nil},
		{"Requested", etensor.FLOAT64, nil, nil},
		{"Presented", etensor.FLOAT64, nil, nil},
		{"Acked", etensor.FLOAT64, nil, nil},
		{"Delta", etensor.FLOAT64, nil, nil},
		{"StimOn", etensor.FLOAT64, nil, nil},
	}
	fl.Table = &etable.Table{}
	fl.Table.SetFromSchema(sch, estFrames)
	mem := uint64(estFrames) * 6 * 8
	log.Printf("frametime.Log: preallocated %d frame records (%v)\n", estFrames, (datasize.ByteSize)(mem).HumanReadable())
	return fl
}

// Record appends the frame record for the given tick: requested and
// presented swap times, acknowledge time, and miss delta.  Rows are
// write-once: re-recording an earlier tick is rejected with a warning.
func (fl *Log) Record(tick int, req, pres, ack, delta float64) {
	if tick < fl.NFrames {
		log.Printf("frametime.Log: tick %d already recorded -- ignored\n", tick)
		return
	}
	if tick >= fl.Table.Rows {
		fl.Table.AddRows(tick + 1 - fl.Table.Rows)
	}
	fl.Table.SetCellFloat("Tick", tick, float64(tick))
	fl.Table.SetCellFloat("Requested", tick, req)
	fl.Table.SetCellFloat("Presented", tick, pres)
	fl.Table.SetCellFloat("Acked", tick, ack)
	fl.Table.SetCellFloat("Delta", tick, delta)
	fl.NFrames = tick + 1
}

// LogStim flags the given tick as stimulus-active (1) or not (0) by
// matching the phase name against the configured patterns.  Stored as a
// parallel per-tick value, not recomputed from phase history.
func (fl *Log) LogStim(phase string, tick int) {
	if tick >= fl.Table.Rows {
		fl.Table.AddRows(tick + 1 - fl.Table.Rows)
	}
	on := 0.0
	lp := strings.ToLower(phase)
	for _, pt := range fl.StimPatterns {
		if strings.Contains(lp, pt) {
			on = 1
			break
		}
	}
	fl.Table.SetCellFloat("StimOn", tick, on)
}

// Trim drops preallocated rows beyond the last recorded frame
func (fl *Log) Trim() {
	fl.Table.SetNumRows(fl.NFrames)
}

// Misses returns the number of genuine misses and the masked delta
// sequence clipped to ClipRange for plotting.  Clamping (not discarding)
// keeps the sequence length stable for paired comparison.  The first
// frame is force-excluded from the count even when its delta is positive.
// With MinFrames or fewer recorded frames it returns ErrNoData.
func (fl *Log) Misses() (int, []float64, error) {
	if fl.NFrames <= MinFrames {
		return 0, nil, fmt.Errorf("%w: have %d, need > %d", ErrNoData, fl.NFrames, MinFrames)
	}
	n := 0
	masked := make([]float64, fl.NFrames)
	for i := 0; i < fl.NFrames; i++ {
		d := fl.Table.CellFloat("Delta", i)
		on := fl.Table.CellFloat("StimOn", i) > 0
		if i > 0 && on && d > 0 {
			n++
		}
		masked[i] = fl.ClipRange.ClipVal(d)
	}
	return n, masked, nil
}

// Report returns a one-line summary of stimulus-active frame timing:
// miss count plus mean and max delta over active frames.
func (fl *Log) Report() string {
	n, _, err := fl.Misses()
	if err != nil {
		return "frametime: no data"
	}
	ix := etable.NewIdxView(fl.Table)
	ix.Filter(func(et *etable.Table, row int) bool {
		return row > 0 && row < fl.NFrames && et.CellFloat("StimOn", row) > 0
	})
	if ix.Len() == 0 {
		return fmt.Sprintf("frames: %d  misses: %d  no stimulus-active frames", fl.NFrames, n)
	}
	mean := agg.Mean(ix, "Delta")[0]
	max := agg.Max(ix, "Delta")[0]
	return fmt.Sprintf("frames: %d  misses: %d  stim delta mean: %.4f  max: %.4f", fl.NFrames, n, mean, max)
}
