// Copyright (c) 2026, The Stimline Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stim

import (
	"errors"
	"math"
	"testing"

	"github.com/goki/mat32"
	"github.com/vispsy/stimline/factor"
)

func TestOpenWithRetryBounded(t *testing.T) {
	tries := 0
	fail := errors.New("device busy")
	err := OpenWithRetry("strobe", 3, 0, func() error {
		tries++
		return fail
	})
	if err == nil {
		t.Fatal("expected failure after exhausting attempts")
	}
	if !errors.Is(err, fail) {
		t.Errorf("final error should wrap the last attempt's error: %v", err)
	}
	if tries != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", tries)
	}
}

func TestOpenWithRetryEventualSuccess(t *testing.T) {
	tries := 0
	err := OpenWithRetry("tracker", 5, 0, func() error {
		tries++
		if tries < 3 {
			return errors.New("not ready")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success on attempt 3: %v", err)
	}
	if tries != 3 {
		t.Errorf("should stop at the first success, got %d attempts", tries)
	}
}

func TestGratingApply(t *testing.T) {
	gr := NewGrating("g")
	gr.ApplyVariable("contrast", factor.Num(0.8))
	gr.ApplyVariable("angle", factor.Num(45))
	gr.ApplyVariable("xy", factor.Vec(1, -2))
	gr.ApplyVariable("nosuch", factor.Num(99)) // unknown names ignored
	gr.ApplyVariable("contrast", factor.Blank())
	if gr.Contrast != 0.8 {
		t.Errorf("contrast: blank must not overwrite, got %g", gr.Contrast)
	}
	if gr.Angle != 45 {
		t.Errorf("angle: got %g", gr.Angle)
	}
	if gr.Pos.X != 1 || gr.Pos.Y != -2 {
		t.Errorf("position: got %v", gr.Pos)
	}
}

func TestGratingDriftAndReset(t *testing.T) {
	gr := NewGrating("g")
	gr.TF = 2
	ctx := &TickContext{DeltaSec: 1.0 / 60}
	for i := 0; i < 30; i++ { // half a second at 2 Hz = one full cycle
		gr.AdvanceFrame(ctx)
	}
	if math.Abs(gr.Phase-360) > 1e-6 && math.Abs(gr.Phase) > 1e-6 {
		t.Errorf("30 ticks at 2 Hz should complete one cycle, phase %g", gr.Phase)
	}
	gr.ApplyVariable("contrast", factor.Num(0.9))
	gr.Show()
	gr.Reset()
	if gr.Contrast != 0.5 || gr.Phase != 0 || gr.Visible {
		t.Errorf("reset should restore defaults: %+v", gr)
	}
	// the default snapshot must survive the reset so it can repeat
	gr.ApplyVariable("sf", factor.Num(4))
	gr.Reset()
	if gr.Def == nil || gr.SF != 1 {
		t.Errorf("defaults must survive repeated resets: sf %g", gr.SF)
	}
}

func TestDotsApply(t *testing.T) {
	dt := NewDots("d", 50)
	dt.ApplyVariable("coherence", factor.Num(0.7))
	dt.ApplyVariable("direction", factor.Num(180))
	if dt.Coherence != 0.7 || dt.Dir != 180 {
		t.Errorf("dots params: %+v", dt)
	}
	before := make([]mat32.Vec2, len(dt.Pts))
	copy(before, dt.Pts)
	dt.AdvanceFrame(&TickContext{DeltaSec: 1.0 / 60})
	moved := false
	for i := range dt.Pts {
		if dt.Pts[i] != before[i] {
			moved = true
			break
		}
	}
	if !moved {
		t.Error("dots should move on advance")
	}
}

func TestWindowContains(t *testing.T) {
	wn := &Window{Center: mat32.Vec2{X: 10, Y: 10}, Radius: 5}
	if !wn.Contains(mat32.Vec2{X: 12, Y: 13}) {
		t.Error("point inside radius should be contained")
	}
	if !wn.Contains(mat32.Vec2{X: 10, Y: 15}) {
		t.Error("point on the boundary should be contained")
	}
	if wn.Contains(mat32.Vec2{X: 20, Y: 20}) {
		t.Error("point outside radius should not be contained")
	}
}
