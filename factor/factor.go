// Copyright (c) 2026, The Stimline Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package factor defines the Factor Model for experimental designs:
independent Variables with ordered level values routed to target stimuli,
and weighted block-level / trial-level Factors, with validation.

The model is authored before a session and is read-only during execution --
the design generator consumes a validated model and never mutates it.
*/
package factor

import (
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/emer/emergent/erand"
	"github.com/goki/ki/kit"
)

// ErrConfig is wrapped by all configuration validation errors, which are
// fatal at initialization, before any trial runs.
var ErrConfig = errors.New("factor: invalid configuration")

// ProbTol is the tolerance for a Factor's probabilities summing to 1.
const ProbTol = 1.0e-6

// OffsetKinds are the rules for deriving a secondary offset value from a
// Variable's base value, routed to the Variable's OffsetTargets.
type OffsetKinds int

//go:generate stringer -type=OffsetKinds

var KiT_OffsetKinds = kit.Enums.AddEnum(OffsetKindsN, kit.NotBitFlag, nil)

func (ev OffsetKinds) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *OffsetKinds) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

const (
	// NoOffset means no offset value is derived for this Variable
	NoOffset OffsetKinds = iota

	// NegOffset negates the base value (vector values negate both components)
	NegOffset

	// MirrorOffset jitters the base value by +/- the offset magnitude,
	// with the sign drawn at random per trial
	MirrorOffset

	// AddOffset adds the offset magnitude to the base value
	AddOffset

	OffsetKindsN
)

// Variable is one independent experimental dimension (factor): an ordered
// set of level Values, applied to the stimulus objects listed in Targets.
// An optional offset rule derives a secondary per-trial value routed to
// OffsetTargets.
type Variable struct {

	// name of the variable, used as the stimulus property name in ApplyVariable
	Name string `desc:"name of the variable, used as the stimulus property name in ApplyVariable"`

	// ordered sequence of level values -- every combination across variables appears exactly once per block
	Values []Value `desc:"ordered sequence of level values -- every combination across variables appears exactly once per block"`

	// indexes of the stimulus objects this variable applies to
	Targets []int `desc:"indexes of the stimulus objects this variable applies to"`

	// indexes of stimulus objects receiving the derived offset value, if any
	OffsetTargets []int `desc:"indexes of stimulus objects receiving the derived offset value, if any"`

	// rule for deriving the offset value
	Offset OffsetKinds `desc:"rule for deriving the offset value"`

	// magnitude used by the Mirror and Add offset rules
	OffsetMag float64 `desc:"magnitude used by the Mirror and Add offset rules"`
}

// NLevels returns the number of levels of this variable
func (vr *Variable) NLevels() int {
	return len(vr.Values)
}

// Usable returns true if the variable can contribute trials: it has a
// name, at least one value, and at least one target.
func (vr *Variable) Usable() bool {
	return vr.Name != "" && len(vr.Values) > 0 && len(vr.Targets) > 0
}

// HasOffset returns true if an offset rule is configured
func (vr *Variable) HasOffset() bool {
	return vr.Offset != NoOffset && len(vr.OffsetTargets) > 0
}

// LevelIndex returns the 1-based index of the given value within this
// variable's declared Values, or 0 if no declared level matches.  The 0
// sentinel is intentional: offset-derived values legitimately may not
// equal any declared level.
func (vr *Variable) LevelIndex(vl Value) int {
	for i, dv := range vr.Values {
		if dv.Equal(vl) {
			return i + 1
		}
	}
	return 0
}

// Factor is a weighted categorical factor drawn independently per block
// (block factor) or per trial (trial factor), outside the balanced
// factorial structure of the Variables.
type Factor struct {

	// ordered label values
	Values []string `desc:"ordered label values"`

	// per-label probabilities, must sum to 1
	Probs []float64 `desc:"per-label probabilities, must sum to 1"`
}

// Validate checks that labels and probabilities are consistent and that
// probabilities sum to 1 within ProbTol.  A bad sum is reported, not
// renormalized, because renormalizing would silently change sampling
// semantics.
func (fc *Factor) Validate() error {
	if len(fc.Values) == 0 {
		return fmt.Errorf("%w: factor has no values", ErrConfig)
	}
	if len(fc.Values) != len(fc.Probs) {
		return fmt.Errorf("%w: factor has %d values but %d probabilities", ErrConfig, len(fc.Values), len(fc.Probs))
	}
	sum := 0.0
	for _, p := range fc.Probs {
		sum += p
	}
	if math.Abs(sum-1) > ProbTol {
		return fmt.Errorf("%w: factor probabilities sum to %g, not 1", ErrConfig, sum)
	}
	return nil
}

// Draw returns one label drawn by cumulative-probability inversion
// from the global random source.
func (fc *Factor) Draw() string {
	return fc.Values[erand.PChoose64(fc.Probs, -1)]
}

// Model is the complete factor model for a session: the balanced Variables
// plus optional weighted Block and Trial factors.  Immutable during
// execution once validated.
type Model struct {

	// independent variables forming the balanced factorial design
	Vars []Variable `desc:"independent variables forming the balanced factorial design"`

	// optional weighted factor assigned independently to each block
	Block *Factor `desc:"optional weighted factor assigned independently to each block"`

	// optional weighted factor assigned independently to each trial
	Trial *Factor `desc:"optional weighted factor assigned independently to each trial"`

	// add one extra blank placeholder condition per block
	AddBlank bool `desc:"add one extra blank placeholder condition per block"`
}

// Validate prunes unusable Variables (empty name, values, or targets --
// each is logged) and validates the Block / Trial factors.  It returns a
// ConfigError only when validation would leave zero usable trials or when
// a factor's probabilities are malformed.
func (md *Model) Validate() error {
	kept := md.Vars[:0]
	for i := range md.Vars {
		vr := &md.Vars[i]
		if !vr.Usable() {
			log.Printf("factor.Model: pruning unusable variable %d (%q): needs name, values, and targets\n", i, vr.Name)
			continue
		}
		kept = append(kept, *vr)
	}
	md.Vars = kept
	if len(md.Vars) == 0 {
		return fmt.Errorf("%w: no usable variables remain after validation", ErrConfig)
	}
	if md.Block != nil {
		if err := md.Block.Validate(); err != nil {
			return fmt.Errorf("block factor: %w", err)
		}
	}
	if md.Trial != nil {
		if err := md.Trial.Validate(); err != nil {
			return fmt.Errorf("trial factor: %w", err)
		}
	}
	return nil
}

// NTrials returns the minimum number of trials per block: the product of
// level counts across all variables, +1 if the blank placeholder condition
// is requested.
func (md *Model) NTrials() int {
	n := 1
	for i := range md.Vars {
		n *= md.Vars[i].NLevels()
	}
	if md.AddBlank {
		n++
	}
	return n
}
