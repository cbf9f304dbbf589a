// Copyright (c) 2026, The Stimline Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package phase drives the alternating Blank / Stimulus presentation cycle
against discrete display swap events.

The loop contract is single-threaded and cooperative, with the swap as
the only blocking point:

	for !sc.Done {
		sc.StepTick(now)                    // phase logic, variable staging, strobe arming
		pres, req, miss := display.Swap()   // blocks until the refresh
		sc.PostSwap(pres, pres, req, miss)  // strobe fire + frame record
		now = pres
	}
	sc.Finish()

Dwell is controlled either by wall-clock deadlines (RealTime true: exact
under variable frame rate) or by tick counts (RealTime false: immune to
dwell creep from delayed deadlines).  Deadlines are checked with >=, so a
deadline already in the past switches the phase immediately on the next
check -- an overrun is never an error and never silently skipped.

Strobe ordering contract: the condition-id strobe is armed before the
swap that first shows the stimulus and fired immediately after that same
swap; the off sentinel is armed/fired the same way around the first blank
swap.  Per-trial variable updates are staged across successive blank
ticks, one stimulus per tick starting at the second blank tick, keeping
per-object update cost out of the time-critical stimulus phase.
*/
package phase

import (
	"math"

	"github.com/goki/ki/kit"
	"github.com/vispsy/stimline/frametime"
	"github.com/vispsy/stimline/stim"
	"github.com/vispsy/stimline/track"
)

// Phases are the two presentation phases
type Phases int

//go:generate stringer -type=Phases

var KiT_Phases = kit.Enums.AddEnum(PhasesN, kit.NotBitFlag, nil)

func (ev Phases) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *Phases) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

const (
	// Blank is the inter-stimulus interval: stimuli hidden, updates staged
	Blank Phases = iota

	// Stimulus is the presentation phase: stimuli shown and advanced per tick
	Stimulus

	PhasesN
)

// Scheduler owns all phase timing state and drives the stimulus,
// display and strobe collaborators for one session over a tracked design.
type Scheduler struct {

	// run-state tracker over the generated design
	Track *track.Tracker `desc:"run-state tracker over the generated design"`

	// stimulus objects, indexed by the design's target indexes
	Stims []stim.Stim `desc:"stimulus objects, indexed by the design's target indexes"`

	// display swap collaborator
	Display stim.Display `desc:"display swap collaborator"`

	// digital strobe collaborator
	Strobe stim.Strobe `desc:"digital strobe collaborator"`

	// frame timing log, one record per swap
	Log *frametime.Log `desc:"frame timing log, one record per swap"`

	// dwell by wall-clock deadlines if true, by tick counts if false
	RealTime bool `desc:"dwell by wall-clock deadlines if true, by tick counts if false"`

	// nominal display refresh rate, frames per second
	FPS float64 `def:"60" desc:"nominal display refresh rate, frames per second"`

	// stimulus dwell per trial, seconds
	TrialSec float64 `def:"2" desc:"stimulus dwell per trial, seconds"`

	// blank dwell between trials within a block, seconds
	InterTrialSec float64 `def:"1" desc:"blank dwell between trials within a block, seconds"`

	// blank dwell at block boundaries, seconds
	InterBlockSec float64 `def:"2" desc:"blank dwell at block boundaries, seconds"`

	// current phase
	Phase Phases `inactive:"+" desc:"current phase"`

	// display tick (swap) counter for the session
	Tick int `inactive:"+" desc:"display tick (swap) counter for the session"`

	// accumulated wall-clock dwell deadline (RealTime mode)
	SwitchTime float64 `inactive:"+" desc:"accumulated wall-clock dwell deadline (RealTime mode)"`

	// accumulated tick dwell target (tick mode)
	SwitchTick int `inactive:"+" desc:"accumulated tick dwell target (tick mode)"`

	// session complete: all runs presented or cancel requested
	Done bool `inactive:"+" desc:"session complete: all runs presented or cancel requested"`

	// optional cancel poll, checked once per blank tick only -- never
	// mid-stimulus, keeping the latency-critical path branch-free
	CancelPoll func() bool `view:"-" desc:"optional cancel poll, checked once per blank tick only"`

	// optional hook at stimulus offset; when nil the tracker auto-records
	// a NaN response so a behavioural layer can own response recording
	OnStimEnd func(now float64) `view:"-" desc:"optional hook at stimulus offset"`

	// tick counter within the current blank phase
	blankTick int

	// next stimulus index to receive staged variable updates
	applyFrom int

	// fire the armed strobe value after the next swap
	strobePend bool

	// shared per-tick context passed to all stimuli
	ctx stim.TickContext
}

// NewScheduler returns a scheduler over the given tracker and
// collaborators with default timing parameters.
func NewScheduler(tk *track.Tracker, stims []stim.Stim, dpy stim.Display, strobe stim.Strobe, fl *frametime.Log) *Scheduler {
	sc := &Scheduler{Track: tk, Stims: stims, Display: dpy, Strobe: strobe, Log: fl}
	sc.Defaults()
	return sc
}

// Defaults sets default timing parameters
func (sc *Scheduler) Defaults() {
	sc.RealTime = true
	sc.FPS = 60
	sc.TrialSec = 2
	sc.InterTrialSec = 1
	sc.InterBlockSec = 2
}

// Init resets phase state and starts the session in the initial blank,
// with the first trial's variable updates staged.  now is the current
// display-clock time.
func (sc *Scheduler) Init(now float64) error {
	if sc.FPS <= 0 {
		sc.Defaults()
	}
	if err := sc.Track.Start(); err != nil {
		return err
	}
	sc.Phase = Blank
	sc.Tick = 0
	sc.Done = false
	sc.blankTick = 0
	sc.applyFrom = 0
	sc.strobePend = false
	sc.ctx = stim.TickContext{DeltaSec: 1 / sc.FPS}
	for _, st := range sc.Stims {
		st.Reset()
		st.Hide()
	}
	sc.Strobe.Reset()
	sc.Strobe.Arm(stim.StrobeOff)
	sc.strobePend = true
	sc.SwitchTime = now + sc.InterBlockSec
	sc.SwitchTick = sc.Tick + sc.dwellTicks(sc.InterBlockSec)
	return nil
}

// dwellTicks converts a dwell duration to a whole tick count
func (sc *Scheduler) dwellTicks(sec float64) int {
	return int(math.Round(sec * sc.FPS))
}

// dwellElapsed reports whether the current phase's dwell has elapsed,
// under the configured policy
func (sc *Scheduler) dwellElapsed(now float64) bool {
	if sc.RealTime {
		return now >= sc.SwitchTime
	}
	return sc.Tick >= sc.SwitchTick
}

// StepTick runs all per-tick work for the upcoming swap: phase
// transitions, staged variable updates, per-frame stimulus advance, and
// strobe arming.  Call once per frame, before the swap.
func (sc *Scheduler) StepTick(now float64) {
	if sc.Done {
		return
	}
	sc.ctx.Tick = sc.Tick
	sc.ctx.Now = now
	switch sc.Phase {
	case Blank:
		if sc.CancelPoll != nil && sc.CancelPoll() {
			sc.Done = true
			return
		}
		if sc.dwellElapsed(now) {
			sc.enterStimulus(now)
			break
		}
		sc.blankTick++
		// second and subsequent blank ticks: apply the upcoming trial's
		// values one stimulus per tick
		if sc.blankTick >= 2 && sc.applyFrom < len(sc.Stims) {
			sc.applyUpcoming(sc.applyFrom)
			sc.applyFrom++
		}
	case Stimulus:
		if sc.dwellElapsed(now) {
			sc.enterBlank(now)
			break
		}
		for _, st := range sc.Stims {
			st.AdvanceFrame(&sc.ctx)
		}
	}
	sc.Display.DrawPhotodiode(sc.Phase == Stimulus)
}

// enterStimulus transitions Blank -> Stimulus: any not-yet-staged variable
// updates are flushed, stimuli shown, the condition-id strobe armed for
// the upcoming swap, and the stimulus dwell scheduled.
func (sc *Scheduler) enterStimulus(now float64) {
	for ; sc.applyFrom < len(sc.Stims); sc.applyFrom++ {
		sc.applyUpcoming(sc.applyFrom)
	}
	sc.Phase = Stimulus
	for _, st := range sc.Stims {
		st.Show()
	}
	sc.Strobe.Arm(sc.Track.CurCond())
	sc.strobePend = true
	sc.SwitchTime += sc.TrialSec
	sc.SwitchTick += sc.dwellTicks(sc.TrialSec)
}

// enterBlank transitions Stimulus -> Blank: stimuli hidden, the off
// sentinel strobed, the completed run recorded, and the inter-trial or
// inter-block dwell scheduled depending on whether the block boundary was
// crossed.
func (sc *Scheduler) enterBlank(now float64) {
	sc.Phase = Blank
	sc.blankTick = 0
	sc.applyFrom = 0
	for _, st := range sc.Stims {
		st.Hide()
	}
	sc.Strobe.Arm(stim.StrobeOff)
	sc.strobePend = true
	if sc.OnStimEnd != nil {
		sc.OnStimEnd(now)
	} else {
		sc.Track.Advance(math.NaN(), now, "")
	}
	if sc.Track.Finished() {
		sc.Done = true
		return
	}
	dwell := sc.InterTrialSec
	if sc.Track.BlockBoundaryNext() {
		dwell = sc.InterBlockSec
	}
	sc.SwitchTime += dwell
	sc.SwitchTick += sc.dwellTicks(dwell)
}

// applyUpcoming pushes the upcoming trial's values onto stimulus si,
// routed per assignment column targets
func (sc *Scheduler) applyUpcoming(si int) {
	vals := sc.Track.CurValues()
	if vals == nil {
		return
	}
	sq := sc.Track.Seq
	for c := range sq.Cols {
		cl := &sq.Cols[c]
		for _, tg := range cl.Targets {
			if tg == si {
				sc.Stims[si].ApplyVariable(sq.Model.Vars[cl.Var].Name, vals[c])
				break
			}
		}
	}
}

// PostSwap completes the tick after the swap returns: fires any armed
// strobe (so the code asserts on the frame that made it visible), logs
// the frame record and stimulus-active flag, and advances the tick
// counter.  now is the acknowledge time on the caller's clock.
func (sc *Scheduler) PostSwap(now, pres, req, missDelta float64) {
	if sc.strobePend {
		sc.Strobe.Fire()
		sc.strobePend = false
	}
	sc.Log.Record(sc.Tick, req, pres, now, missDelta)
	sc.Log.LogStim(sc.Phase.String(), sc.Tick)
	sc.Tick++
}

// Run executes a whole session headlessly against the display clock,
// then finishes.  Interactive hosts drive StepTick / PostSwap themselves.
func (sc *Scheduler) Run() error {
	now := 0.0
	if err := sc.Init(now); err != nil {
		return err
	}
	for !sc.Done {
		sc.StepTick(now)
		pres, req, miss := sc.Display.Swap()
		sc.PostSwap(pres, pres, req, miss)
		now = pres
	}
	sc.Finish()
	return nil
}

// Finish unwinds cleanly at session end: strobe lines idled and the frame
// log trimmed.  The design table and run state are left untouched so the
// session can be audited or resumed.
func (sc *Scheduler) Finish() {
	sc.Strobe.Reset()
	sc.Log.Trim()
}
