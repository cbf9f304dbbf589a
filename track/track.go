// Copyright (c) 2026, The Stimline Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package track walks a generated design sequentially, recording responses
and timestamps per run, with operator rewind and within-block reshuffle.

All mutation of run state goes through Advance / Rewind /
ReshuffleRemaining, and only in the Running status: illegal calls are
no-ops that return ErrLogic, never corrupting recorded data.  The whole
core is single-threaded (mutation is confined to the scheduling loop), so
no locking is done here.
*/
package track

import (
	"errors"
	"log"
	"math/rand"
	"time"

	"github.com/emer/emergent/env"
	"github.com/emer/etable/etable"
	"github.com/emer/etable/etensor"
	"github.com/goki/ki/kit"
	"github.com/vispsy/stimline/design"
	"github.com/vispsy/stimline/factor"
)

// ErrLogic is returned by run-state operations called outside their legal
// status (e.g., advancing a finished tracker).  Such calls are no-ops.
var ErrLogic = errors.New("track: operation not legal in current run state")

// Status is the run-state lifecycle
type Status int

//go:generate stringer -type=Status

var KiT_Status = kit.Enums.AddEnum(StatusN, kit.NotBitFlag, nil)

func (ev Status) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *Status) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

const (
	// NotInit -- no design attached / Init not yet called
	NotInit Status = iota

	// Inited -- Init done, session not yet started
	Inited

	// Running -- session in progress: Advance / Rewind / Reshuffle legal
	Running

	// Finished -- all runs completed: mutations are rejected no-ops
	Finished

	StatusN
)

// Tracker tracks sequential position within a generated design, and owns
// the per-run response, timestamp and meta records plus the reshuffle
// audit log.
type Tracker struct {

	// the generated design being executed
	Seq *design.Sequence `desc:"the generated design being executed"`

	// run-state lifecycle status
	Status Status `inactive:"+" desc:"run-state lifecycle status"`

	// total number of completed runs
	TotalRuns int `inactive:"+" desc:"total number of completed runs"`

	// current block counter (1-based Cur)
	Block env.Ctr `view:"inline" desc:"current block counter (1-based Cur)"`

	// current run-within-block counter (1-based Cur)
	Run env.Ctr `view:"inline" desc:"current run-within-block counter (1-based Cur)"`

	// per-run recorded responses (NaN = no response)
	Responses []float64 `view:"-" desc:"per-run recorded responses (NaN = no response)"`

	// per-run response metadata strings
	RespMeta []string `view:"-" desc:"per-run response metadata strings"`

	// per-run completion timestamps (collaborator clock, seconds)
	RunTimes []float64 `view:"-" desc:"per-run completion timestamps (collaborator clock, seconds)"`

	// audit log of every reshuffle: positions and condition ids swapped
	Resets *etable.Table `view:"no-inline" desc:"audit log of every reshuffle: positions and condition ids swapped"`
}

// NewTracker returns an initialized Tracker on the given generated design
func NewTracker(sq *design.Sequence) *Tracker {
	tk := &Tracker{Seq: sq}
	tk.Init()
	return tk
}

// Init (re)initializes all run state for a fresh pass over the design:
// counters zeroed, record slices preallocated, audit log reset.
func (tk *Tracker) Init() {
	tk.Block.Scale = env.Block
	tk.Run.Scale = env.Trial
	tk.Block.Init()
	tk.Run.Init()
	tk.TotalRuns = 0
	if tk.Seq != nil && tk.Seq.NRuns > 0 {
		tk.Block.Max = tk.Seq.NBlocks
		tk.Run.Max = tk.Seq.NTrials
		tk.Responses = make([]float64, 0, tk.Seq.NRuns)
		tk.RespMeta = make([]string, 0, tk.Seq.NRuns)
		tk.RunTimes = make([]float64, 0, tk.Seq.NRuns)
		tk.ConfigResets()
		tk.Status = Inited
	} else {
		tk.Status = NotInit
	}
}

// ConfigResets configures the empty reshuffle audit table
func (tk *Tracker) ConfigResets() {
	sch := etable.Schema{
		{"TotalRuns", etensor.INT64, nil, nil},
		{"FromRun", etensor.INT64, nil, nil},
		{"ToRun", etensor.INT64, nil, nil},
		{"FromCond", etensor.INT64, nil, nil},
		{"ToCond", etensor.INT64, nil, nil},
		{"Time", etensor.FLOAT64, nil, nil},
	}
	tk.Resets = &etable.Table{}
	tk.Resets.SetFromSchema(sch, 0)
}

// Start moves an initialized tracker into Running
func (tk *Tracker) Start() error {
	if tk.Status != Inited {
		log.Printf("track.Tracker: Start called in status %v\n", tk.Status)
		return ErrLogic
	}
	tk.Status = Running
	tk.Block.Set(1)
	tk.Run.Set(1)
	return nil
}

// Finished returns true once all runs have completed
func (tk *Tracker) Finished() bool {
	return tk.Status == Finished
}

// Advance records the response, timestamp and meta for the current run
// and moves to the next one, recomputing block / run counters.  Called
// when not Running (including after finish) it is a no-op returning
// ErrLogic, so double-completion bugs cannot extend the response record.
func (tk *Tracker) Advance(resp, tstamp float64, meta string) error {
	if tk.Status != Running {
		log.Printf("track.Tracker: Advance called in status %v -- ignored\n", tk.Status)
		return ErrLogic
	}
	tk.Responses = append(tk.Responses, resp)
	tk.RunTimes = append(tk.RunTimes, tstamp)
	tk.RespMeta = append(tk.RespMeta, meta)
	tk.TotalRuns++
	tk.recount()
	if tk.TotalRuns >= tk.Seq.NRuns {
		tk.Status = Finished
	}
	return nil
}

// Rewind undoes the last Advance: the last response, timestamp and meta
// are removed and counters recomputed.  Operator-error correction only;
// legal only while Running with at least one completed run.
func (tk *Tracker) Rewind() error {
	if tk.Status != Running || tk.TotalRuns == 0 {
		log.Printf("track.Tracker: Rewind called in status %v with %d runs -- ignored\n", tk.Status, tk.TotalRuns)
		return ErrLogic
	}
	n := len(tk.Responses)
	tk.Responses = tk.Responses[:n-1]
	tk.RunTimes = tk.RunTimes[:n-1]
	tk.RespMeta = tk.RespMeta[:n-1]
	tk.TotalRuns--
	tk.recount()
	return nil
}

// recount recomputes the 1-based block / run counters from TotalRuns
func (tk *Tracker) recount() {
	if tk.TotalRuns == 0 {
		tk.Block.Set(1)
		tk.Run.Set(1)
		return
	}
	blk := (tk.TotalRuns-1)/tk.Seq.NTrials + 1
	tk.Block.Set(blk)
	tk.Run.Set(tk.TotalRuns - tk.Seq.NTrials*(blk-1))
}

// CurIndex returns the 0-based index of the next run to present
func (tk *Tracker) CurIndex() int {
	return tk.TotalRuns
}

// CurCond returns the condition id (strobe code) of the next run,
// or 0 when no runs remain.
func (tk *Tracker) CurCond() int {
	if tk.TotalRuns >= tk.Seq.NRuns {
		return 0
	}
	return tk.Seq.OutIndex[tk.TotalRuns]
}

// CurValues returns the assigned values of the next run, nil if none remain
func (tk *Tracker) CurValues() []factor.Value {
	if tk.TotalRuns >= tk.Seq.NRuns {
		return nil
	}
	return tk.Seq.OutValues[tk.TotalRuns]
}

// CurTrialLabel returns the trial-factor label of the next run
func (tk *Tracker) CurTrialLabel() string {
	if tk.TotalRuns >= tk.Seq.NRuns {
		return ""
	}
	return tk.Seq.OutTrial[tk.TotalRuns]
}

// CurBlockLabel returns the block-factor label of the next run's block
func (tk *Tracker) CurBlockLabel() string {
	if tk.TotalRuns >= tk.Seq.NRuns {
		return ""
	}
	return tk.Seq.OutBlock[tk.Seq.BlockOfRun(tk.TotalRuns)]
}

// BlockBoundaryNext returns true if the next run starts a new block
// (or the session), so the longer inter-block interval applies.
func (tk *Tracker) BlockBoundaryNext() bool {
	return tk.TotalRuns%tk.Seq.NTrials == 0
}

// ResponsesTable renders the per-run response records as a table for
// saving and aggregation
func (tk *Tracker) ResponsesTable() *etable.Table {
	sch := etable.Schema{
		{"Run", etensor.INT64, nil, nil},
		{"Response", etensor.FLOAT64, nil, nil},
		{"Time", etensor.FLOAT64, nil, nil},
		{"Meta", etensor.STRING, nil, nil},
	}
	dt := &etable.Table{}
	dt.SetFromSchema(sch, tk.TotalRuns)
	for i := 0; i < tk.TotalRuns; i++ {
		dt.SetCellFloat("Run", i, float64(i+1))
		dt.SetCellFloat("Response", i, tk.Responses[i])
		dt.SetCellFloat("Time", i, tk.RunTimes[i])
		dt.SetCellString("Meta", i, tk.RespMeta[i])
	}
	return dt
}

// ReshuffleRemaining swaps the next run's full row with one drawn
// uniformly from the remaining span of the current block (inclusive of
// the current position), so a condition can be re-presented later without
// breaking per-block balance.  Every call is recorded in the Resets audit
// log, including identity swaps.
func (tk *Tracker) ReshuffleRemaining() error {
	if tk.Status != Running || tk.TotalRuns >= tk.Seq.NRuns {
		log.Printf("track.Tracker: ReshuffleRemaining called in status %v -- ignored\n", tk.Status)
		return ErrLogic
	}
	cur := tk.TotalRuns
	blk := tk.Seq.BlockOfRun(cur)
	end := (blk+1)*tk.Seq.NTrials - 1
	to := cur + rand.Intn(end-cur+1)
	fmCond := tk.Seq.OutIndex[cur]
	toCond := tk.Seq.OutIndex[to]
	tk.Seq.SwapRuns(cur, to)
	row := tk.Resets.Rows
	tk.Resets.AddRows(1)
	tk.Resets.SetCellFloat("TotalRuns", row, float64(tk.TotalRuns))
	tk.Resets.SetCellFloat("FromRun", row, float64(cur))
	tk.Resets.SetCellFloat("ToRun", row, float64(to))
	tk.Resets.SetCellFloat("FromCond", row, float64(fmCond))
	tk.Resets.SetCellFloat("ToCond", row, float64(toCond))
	tk.Resets.SetCellFloat("Time", row, float64(time.Now().UnixNano())/float64(time.Second))
	return nil
}
