// Copyright (c) 2026, The Stimline Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stim

import (
	"math"

	"github.com/goki/mat32"
	"github.com/vispsy/stimline/factor"
)

// Grating is a reference drifting-grating stimulus: it carries the
// standard parameter set and advances its drift phase per tick.  Rendering
// is the display collaborator's job; this object only owns parameter
// state, which is what the design variables drive.
type Grating struct {

	// stimulus name
	Nm string `desc:"stimulus name"`

	// contrast, 0..1
	Contrast float64 `desc:"contrast, 0..1"`

	// spatial frequency, cycles per degree
	SF float64 `desc:"spatial frequency, cycles per degree"`

	// temporal (drift) frequency, cycles per second
	TF float64 `desc:"temporal (drift) frequency, cycles per second"`

	// orientation, degrees
	Angle float64 `desc:"orientation, degrees"`

	// current drift phase, degrees
	Phase float64 `inactive:"+" desc:"current drift phase, degrees"`

	// center position in display coordinates
	Pos mat32.Vec2 `desc:"center position in display coordinates"`

	// visible on upcoming frames
	Visible bool `inactive:"+" desc:"visible on upcoming frames"`

	// initial parameter state restored by Reset
	Def *Grating `view:"-" desc:"initial parameter state restored by Reset"`
}

// NewGrating returns a grating with the given name and sensible defaults
func NewGrating(name string) *Grating {
	gr := &Grating{Nm: name, Contrast: 0.5, SF: 1, TF: 2}
	def := *gr
	gr.Def = &def
	return gr
}

func (gr *Grating) Name() string { return gr.Nm }

func (gr *Grating) ApplyVariable(name string, vl factor.Value) {
	if vl.IsBlank() {
		return
	}
	switch name {
	case "contrast":
		gr.Contrast = vl.Num
	case "sf":
		gr.SF = vl.Num
	case "tf":
		gr.TF = vl.Num
	case "angle":
		gr.Angle = vl.Num
	case "xy":
		gr.Pos = vl.Vec
	}
}

// AdvanceFrame drifts the phase by TF cycles per second
func (gr *Grating) AdvanceFrame(ctx *TickContext) {
	gr.Phase = math.Mod(gr.Phase+360*gr.TF*ctx.DeltaSec, 360)
}

func (gr *Grating) Show() { gr.Visible = true }
func (gr *Grating) Hide() { gr.Visible = false }

// Reset restores the initial parameter state and zeros the drift phase
func (gr *Grating) Reset() {
	def := gr.Def
	*gr = *def
	gr.Def = def
}
