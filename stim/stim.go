// Copyright (c) 2026, The Stimline Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package stim defines the narrow collaborator contracts the scheduling core
drives: stimulus objects, the display, the digital strobe, eye trackers,
and opaque adaptive value sources.  Drivers for real devices live outside
this module; the contracts assume blocking-but-fast calls -- a device that
hangs stalls the session, which is a deployment risk, not masked here.

It also provides a bounded retry helper for device opens, and simple
reference stimulus implementations (Grating, Dots) exercising the
capability interface.
*/
package stim

import (
	"github.com/goki/mat32"
	"github.com/vispsy/stimline/factor"
)

// StrobeOff is the "no condition" strobe sentinel.  Condition ids are
// 1-based, so 0 is never a valid condition code.
const StrobeOff = 0

// TickContext carries per-tick shared state computed once by the
// scheduling loop and reused across all stimulus objects, replacing
// hidden global caches.
type TickContext struct {

	// display tick (swap) counter
	Tick int `desc:"display tick (swap) counter"`

	// time of the last presented swap, seconds on the display clock
	Now float64 `desc:"time of the last presented swap, seconds on the display clock"`

	// nominal seconds per tick (1 / fps)
	DeltaSec float64 `desc:"nominal seconds per tick (1 / fps)"`

	// pointer / gaze position sampled once this tick, if available
	Mouse mat32.Vec2 `desc:"pointer / gaze position sampled once this tick, if available"`
}

// Stim is the capability interface every stimulus kind implements,
// consumed uniformly by the scheduler.  ApplyVariable must tolerate
// values outside the stimulus's last-used range: the scheduler does no
// pre-validation.
type Stim interface {
	// Name returns the stimulus name
	Name() string

	// ApplyVariable sets the named property from a design value.
	// Unknown names and blank values are ignored.
	ApplyVariable(name string, vl factor.Value)

	// AdvanceFrame updates per-frame state (drift phase, dot positions)
	// using the shared per-tick context.  Called every stimulus-phase tick
	// before the next swap.
	AdvanceFrame(ctx *TickContext)

	// Show makes the stimulus visible on subsequent frames
	Show()

	// Hide makes the stimulus invisible on subsequent frames
	Hide()

	// Reset restores initial parameter state
	Reset()
}

// Display is the swap contract: Swap blocks until the next refresh and is
// the only blocking call in the scheduling loop.  It returns the
// presented and requested swap times (display clock, seconds) and the
// miss delta (presented - requested; > 0 indicates a delayed swap).
type Display interface {
	Swap() (presented, requested, missDelta float64)

	// DrawPhotodiode draws the optional visual sync marker for the
	// upcoming frame
	DrawPhotodiode(on bool)
}

// Strobe is the digital I/O contract for condition / event codes.  Arm
// loads a value into the I/O subsystem; Fire physically asserts it;
// Reset returns the lines to idle.  The scheduler guarantees ordering
// relative to its phase transitions only, not absolute latency.
type Strobe interface {
	Arm(val int)
	Fire()
	Reset()
}

// Window is a circular eye-position window specification
type Window struct {

	// window center in display coordinates
	Center mat32.Vec2 `desc:"window center in display coordinates"`

	// window radius
	Radius float32 `desc:"window radius"`
}

// Contains returns true if the position is within the window
func (wn *Window) Contains(pos mat32.Vec2) bool {
	return pos.DistTo(wn.Center) <= wn.Radius
}

// EyeTracker is the gaze sampling contract, consumed by behavioural
// transition logic, not by the core scheduler.
type EyeTracker interface {
	// Sample returns the current gaze position
	Sample() mat32.Vec2

	// Within reports whether the current gaze is inside the window
	Within(wn Window) bool
}

// ValueSource is an opaque provider of adaptive values (e.g., a staircase
// threshold estimator or reward magnitude source).  Treated strictly as a
// black box.
type ValueSource interface {
	NextValue() float64
}
