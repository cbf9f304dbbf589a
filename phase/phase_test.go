// Copyright (c) 2026, The Stimline Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package phase

import (
	"fmt"
	"testing"

	"github.com/vispsy/stimline/design"
	"github.com/vispsy/stimline/factor"
	"github.com/vispsy/stimline/frametime"
	"github.com/vispsy/stimline/stim"
	"github.com/vispsy/stimline/track"
)

// clkDisplay is a perfect fixed-rate display clock
type clkDisplay struct {
	fps   float64
	clock float64
	swaps int
}

func (d *clkDisplay) Swap() (pres, req, miss float64) {
	d.clock += 1 / d.fps
	d.swaps++
	return d.clock, d.clock, 0
}

func (d *clkDisplay) DrawPhotodiode(on bool) {}

// recStrobe records every arm / fire event in order
type recStrobe struct {
	armed  int
	events []string
	fired  []int
}

func (st *recStrobe) Arm(val int) {
	st.armed = val
	st.events = append(st.events, fmt.Sprintf("arm:%d", val))
}

func (st *recStrobe) Fire() {
	st.fired = append(st.fired, st.armed)
	st.events = append(st.events, fmt.Sprintf("fire:%d", st.armed))
}

func (st *recStrobe) Reset() {
	st.armed = stim.StrobeOff
	st.events = append(st.events, "reset")
}

// recStim records variable applications and per-frame advances
type recStim struct {
	nm       string
	applies  []string
	advances int
	visible  bool
}

func (rs *recStim) Name() string { return rs.nm }

func (rs *recStim) ApplyVariable(name string, vl factor.Value) {
	rs.applies = append(rs.applies, fmt.Sprintf("%s=%s", name, vl.String()))
}

func (rs *recStim) AdvanceFrame(ctx *stim.TickContext) { rs.advances++ }
func (rs *recStim) Show()                              { rs.visible = true }
func (rs *recStim) Hide()                              { rs.visible = false }
func (rs *recStim) Reset()                             { rs.applies = nil; rs.advances = 0 }

func testTracker(t *testing.T, nblocks int) *track.Tracker {
	md := &factor.Model{
		Vars: []factor.Variable{
			{Name: "contrast", Values: []factor.Value{factor.Num(0.1), factor.Num(0.9)}, Targets: []int{0}},
			{Name: "direction", Values: []factor.Value{factor.Num(0), factor.Num(180)}, Targets: []int{1}},
		},
	}
	sq := design.NewSequence(md, nblocks)
	sq.Seed = 3
	if err := sq.Generate(); err != nil {
		t.Fatal(err)
	}
	return track.NewTracker(sq)
}

// newTestSched returns a scheduler with short dwells over fake collaborators
func newTestSched(t *testing.T, nblocks int) (*Scheduler, *clkDisplay, *recStrobe, []*recStim) {
	tk := testTracker(t, nblocks)
	dpy := &clkDisplay{fps: 60}
	sb := &recStrobe{}
	sa := &recStim{nm: "a"}
	sbm := &recStim{nm: "b"}
	fl := frametime.New(8192)
	sc := NewScheduler(tk, []stim.Stim{sa, sbm}, dpy, sb, fl)
	sc.FPS = 60
	sc.TrialSec = 0.1
	sc.InterTrialSec = 0.1
	sc.InterBlockSec = 0.2
	return sc, dpy, sb, []*recStim{sa, sbm}
}

func TestSessionCompletes(t *testing.T) {
	sc, dpy, sb, stims := newTestSched(t, 2)
	if err := sc.Run(); err != nil {
		t.Fatal(err)
	}
	if !sc.Done {
		t.Error("scheduler should be done")
	}
	if !sc.Track.Finished() {
		t.Error("tracker should be finished")
	}
	if sc.Track.TotalRuns != sc.Track.Seq.NRuns {
		t.Errorf("expected %d completed runs, got %d", sc.Track.Seq.NRuns, sc.Track.TotalRuns)
	}
	if sc.Log.NFrames != sc.Tick {
		t.Errorf("one frame record per tick: %d vs %d", sc.Log.NFrames, sc.Tick)
	}
	if dpy.swaps != sc.Tick {
		t.Errorf("one swap per tick: %d vs %d", dpy.swaps, sc.Tick)
	}
	if stims[0].visible || stims[1].visible {
		t.Error("stimuli should end hidden")
	}
	if sb.events[len(sb.events)-1] != "reset" {
		t.Error("strobe should be reset at finish")
	}
}

func TestStrobeSequence(t *testing.T) {
	sc, _, sb, _ := newTestSched(t, 1)
	if err := sc.Run(); err != nil {
		t.Fatal(err)
	}
	// fired codes: off sentinel at session start, then per trial the
	// condition id followed by the off sentinel at stimulus offset
	want := []int{stim.StrobeOff}
	for _, ci := range sc.Track.Seq.OutIndex {
		want = append(want, ci)
		want = append(want, stim.StrobeOff)
	}
	// the final trial's off strobe is armed but the session ends at that
	// flank, so every armed value except possibly the last must fire in order
	if len(sb.fired) < len(want)-1 {
		t.Fatalf("expected at least %d fired strobes, got %d", len(want)-1, len(sb.fired))
	}
	for i := 0; i < len(sb.fired) && i < len(want); i++ {
		if sb.fired[i] != want[i] {
			t.Errorf("fired strobe %d: expected %d, got %d", i, want[i], sb.fired[i])
		}
	}
}

func TestTickModeDwell(t *testing.T) {
	sc, dpy, _, _ := newTestSched(t, 1)
	sc.RealTime = false
	sc.TrialSec = 2 // 120 ticks at 60 fps
	if err := sc.Init(0); err != nil {
		t.Fatal(err)
	}
	now := 0.0
	entries := 0
	for !sc.Done && sc.Tick < 10000 {
		prev := sc.Phase
		sc.StepTick(now)
		if prev == Blank && sc.Phase == Stimulus {
			entries++
			if got := sc.SwitchTick - sc.Tick; got != 120 {
				t.Errorf("stimulus entry %d: switch tick should advance by 120 ticks, got %d", entries, got)
			}
		}
		pres, req, miss := dpy.Swap()
		sc.PostSwap(pres, pres, req, miss)
		now = pres
	}
	if entries != sc.Track.Seq.NRuns {
		t.Errorf("expected %d stimulus entries, got %d", sc.Track.Seq.NRuns, entries)
	}
}

func TestOverrunSwitchesImmediately(t *testing.T) {
	sc, _, _, _ := newTestSched(t, 1)
	sc.RealTime = true
	if err := sc.Init(0); err != nil {
		t.Fatal(err)
	}
	// starve the scheduler: the first check happens long after the blank
	// deadline has elapsed -- it must switch on this check, not wait
	sc.StepTick(100)
	if sc.Phase != Stimulus {
		t.Errorf("elapsed deadline must switch immediately, still in %v", sc.Phase)
	}
}

func TestStagedVariableUpdates(t *testing.T) {
	sc, dpy, _, stims := newTestSched(t, 1)
	sc.RealTime = false
	sc.InterBlockSec = 0.2 // 12 blank ticks: plenty of room for staging
	if err := sc.Init(0); err != nil {
		t.Fatal(err)
	}
	now := 0.0
	step := func() {
		sc.StepTick(now)
		pres, req, miss := dpy.Swap()
		sc.PostSwap(pres, pres, req, miss)
		now = pres
	}
	step() // blank tick 1: no application yet
	if len(stims[0].applies) != 0 {
		t.Error("no variable application on the first blank tick")
	}
	step() // blank tick 2: first stimulus updated
	if len(stims[0].applies) != 1 || len(stims[1].applies) != 0 {
		t.Errorf("second blank tick should update only stimulus 0: %v %v", stims[0].applies, stims[1].applies)
	}
	step() // blank tick 3: second stimulus updated
	if len(stims[1].applies) != 1 {
		t.Errorf("third blank tick should update stimulus 1: %v", stims[1].applies)
	}
	// routing: each stimulus only receives its targeted variable
	if stims[0].applies[0][:8] != "contrast" {
		t.Errorf("stimulus 0 should receive contrast: %v", stims[0].applies)
	}
	if stims[1].applies[0][:9] != "direction" {
		t.Errorf("stimulus 1 should receive direction: %v", stims[1].applies)
	}
}

func TestCancelPolledInBlankOnly(t *testing.T) {
	sc, dpy, _, _ := newTestSched(t, 1)
	sc.RealTime = false
	polls := 0
	sc.CancelPoll = func() bool {
		polls++
		return polls > 3
	}
	if err := sc.Init(0); err != nil {
		t.Fatal(err)
	}
	now := 0.0
	for !sc.Done && sc.Tick < 1000 {
		sc.StepTick(now)
		pres, req, miss := dpy.Swap()
		sc.PostSwap(pres, pres, req, miss)
		now = pres
	}
	if !sc.Done {
		t.Fatal("cancel should end the session")
	}
	if polls != 4 {
		t.Errorf("cancel polled once per blank tick: expected 4 polls, got %d", polls)
	}
	if sc.Track.Finished() {
		t.Error("cancelled session must not mark the tracker finished")
	}
}

func TestStimulusAdvancePerTick(t *testing.T) {
	sc, _, _, stims := newTestSched(t, 1)
	sc.RealTime = false
	if err := sc.Run(); err != nil {
		t.Fatal(err)
	}
	// every stimulus tick except the entry tick advances each stimulus
	trialTicks := int(sc.TrialSec * sc.FPS)
	want := sc.Track.Seq.NRuns * (trialTicks - 1)
	if stims[0].advances != want {
		t.Errorf("expected %d per-frame advances, got %d", want, stims[0].advances)
	}
	if stims[0].advances != stims[1].advances {
		t.Error("all stimuli advance together")
	}
}
