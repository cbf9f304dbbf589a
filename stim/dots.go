// Copyright (c) 2026, The Stimline Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stim

import (
	"math"
	"math/rand"

	"github.com/goki/mat32"
	"github.com/vispsy/stimline/factor"
)

// Dots is a reference random-dot-kinematogram stimulus: a field of dots
// of which a Coherence fraction moves in Dir each tick and the rest move
// in random directions.  Per-frame dot motion draws from the global
// random source after design generation has completed, so it does not
// perturb design reproducibility.
type Dots struct {

	// stimulus name
	Nm string `desc:"stimulus name"`

	// fraction of dots moving coherently, 0..1
	Coherence float64 `desc:"fraction of dots moving coherently, 0..1"`

	// coherent motion direction, degrees
	Dir float64 `desc:"coherent motion direction, degrees"`

	// dot speed, display units per second
	Speed float64 `desc:"dot speed, display units per second"`

	// number of dots in the field
	NDots int `desc:"number of dots in the field"`

	// field half-width: dots wrap at +/- this extent
	Extent float32 `desc:"field half-width: dots wrap at +/- this extent"`

	// current dot positions
	Pts []mat32.Vec2 `view:"-" desc:"current dot positions"`

	// visible on upcoming frames
	Visible bool `inactive:"+" desc:"visible on upcoming frames"`
}

// NewDots returns a dot field with the given name and size
func NewDots(name string, ndots int) *Dots {
	dt := &Dots{Nm: name, Coherence: 0.5, Speed: 2, NDots: ndots, Extent: 5}
	dt.Reset()
	return dt
}

func (dt *Dots) Name() string { return dt.Nm }

func (dt *Dots) ApplyVariable(name string, vl factor.Value) {
	if vl.IsBlank() {
		return
	}
	switch name {
	case "coherence":
		dt.Coherence = vl.Num
	case "direction":
		dt.Dir = vl.Num
	case "speed":
		dt.Speed = vl.Num
	}
}

// AdvanceFrame moves every dot one tick: coherent dots along Dir, the
// rest in per-dot random directions, wrapping at the field extent.
func (dt *Dots) AdvanceFrame(ctx *TickContext) {
	step := float32(dt.Speed * ctx.DeltaSec)
	for i := range dt.Pts {
		ang := dt.Dir
		if rand.Float64() >= dt.Coherence {
			ang = rand.Float64() * 360
		}
		rad := ang * math.Pi / 180
		dt.Pts[i].X = wrap(dt.Pts[i].X+step*float32(math.Cos(rad)), dt.Extent)
		dt.Pts[i].Y = wrap(dt.Pts[i].Y+step*float32(math.Sin(rad)), dt.Extent)
	}
}

// wrap folds a coordinate back into [-ext, ext]
func wrap(v, ext float32) float32 {
	if v > ext {
		return v - 2*ext
	}
	if v < -ext {
		return v + 2*ext
	}
	return v
}

func (dt *Dots) Show() { dt.Visible = true }
func (dt *Dots) Hide() { dt.Visible = false }

// Reset redraws all dot positions uniformly within the field
func (dt *Dots) Reset() {
	dt.Pts = make([]mat32.Vec2, dt.NDots)
	for i := range dt.Pts {
		dt.Pts[i].X = dt.Extent * float32(2*rand.Float64()-1)
		dt.Pts[i].Y = dt.Extent * float32(2*rand.Float64()-1)
	}
	dt.Visible = false
}
