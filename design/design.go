// Copyright (c) 2026, The Stimline Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package design generates balanced, reproducible pseudorandom experimental
designs from a validated factor.Model.

Within every block, each full combination of variable levels appears
exactly once (full factorial balance): level sequences are tiled so that
variable i repeats each level over the product of the level counts of the
variables after it, and one random permutation per block is applied
identically across all variables, so only trial order is randomized --
factor combinations stay intact.

A design is fully determined by the model, the block count, and the
recorded Seed: regenerating with the same seed reproduces the identical
sequence, which is what session replay verification relies on.
*/
package design

import (
	"fmt"
	"log"
	"math/rand"

	"github.com/emer/emergent/erand"
	"github.com/emer/etable/etensor"
	"github.com/vispsy/stimline/factor"
)

// GeneratorID identifies the generation algorithm, persisted with the seed
// so a session records exactly how its randomization was produced.
const GeneratorID = "permute-rand-v1"

// StrobeCodeMax is the largest condition id representable on the digital
// strobe lines.  Designs with more conditions per block generate fine but
// are warned about: clipping is a deployment decision for the I/O layer.
const StrobeCodeMax = 255

// AssignCol describes one per-trial assignment column of the design: a
// variable's base value, or an offset-derived value routed to the
// variable's offset targets.
type AssignCol struct {

	// column name: the variable name, with an Off suffix for offset columns
	Name string `desc:"column name: the variable name, with an Off suffix for offset columns"`

	// index of the source variable in the model
	Var int `desc:"index of the source variable in the model"`

	// true if this column holds the offset-derived value
	Offset bool `desc:"true if this column holds the offset-derived value"`

	// stimulus indexes this column's values are applied to
	Targets []int `desc:"stimulus indexes this column's values are applied to"`
}

// Sequence is a generated design: the randomized assignment of factor
// levels to every trial of every block, plus the per-block and per-trial
// weighted factor labels.  Generate fills all Out* fields; afterwards the
// only permitted mutation is SwapRuns (used by within-block reshuffle).
type Sequence struct {

	// name of this design, used in saved file names
	Nm string `desc:"name of this design, used in saved file names"`

	// the validated factor model (read-only here)
	Model *factor.Model `desc:"the validated factor model (read-only here)"`

	// number of blocks to generate
	NBlocks int `desc:"number of blocks to generate"`

	// randomize trial order within each block -- off yields the raw tiled order
	Randomize bool `desc:"randomize trial order within each block -- off yields the raw tiled order"`

	// random seed recorded for exact replay
	Seed int64 `desc:"random seed recorded for exact replay"`

	// generation algorithm identifier, persisted with the seed
	GenID string `view:"-" desc:"generation algorithm identifier, persisted with the seed"`

	// number of trials per block = product of level counts (+1 if blank)
	NTrials int `inactive:"+" desc:"number of trials per block = product of level counts (+1 if blank)"`

	// total number of runs = NTrials * NBlocks
	NRuns int `inactive:"+" desc:"total number of runs = NTrials * NBlocks"`

	// assignment column metadata: one per variable, then one per offset rule
	Cols []AssignCol `desc:"assignment column metadata: one per variable, then one per offset rule"`

	// per-run assigned values, indexed [run][column]
	OutValues [][]factor.Value `view:"-" desc:"per-run assigned values, indexed [run][column]"`

	// per-run condition id: 1-based pre-shuffle position within the block, used as the strobe code
	OutIndex []int `view:"-" desc:"per-run condition id: 1-based pre-shuffle position within the block, used as the strobe code"`

	// per-run, per-column 1-based level index of the assigned value, 0 = no matching declared level
	OutMap etensor.Int `view:"no-inline" desc:"per-run, per-column 1-based level index of the assigned value, 0 = no matching declared level"`

	// per-block weighted factor label (empty if no block factor)
	OutBlock []string `view:"-" desc:"per-block weighted factor label (empty if no block factor)"`

	// per-run weighted factor label (empty if no trial factor)
	OutTrial []string `view:"-" desc:"per-run weighted factor label (empty if no trial factor)"`
}

// NewSequence returns a new Sequence on the given model with default
// settings: randomized order, seed 1.
func NewSequence(md *factor.Model, nblocks int) *Sequence {
	sq := &Sequence{Nm: "design", Model: md, NBlocks: nblocks}
	sq.Randomize = true
	sq.Seed = 1
	return sq
}

// Generate validates the model and fills all output fields.  It seeds the
// global random source from Seed, so a Sequence with the same model and
// seed always produces the identical design.
func (sq *Sequence) Generate() error {
	if sq.Model == nil || sq.NBlocks <= 0 {
		return fmt.Errorf("design.Sequence %s: needs a model and NBlocks > 0: %w", sq.Nm, factor.ErrConfig)
	}
	if err := sq.Model.Validate(); err != nil {
		return err
	}
	md := sq.Model
	nv := len(md.Vars)
	sq.NTrials = md.NTrials()
	sq.NRuns = sq.NTrials * sq.NBlocks
	sq.GenID = GeneratorID
	if sq.NTrials > StrobeCodeMax {
		log.Printf("design.Sequence %s: %d conditions per block exceeds the strobe code range (%d) -- condition ids will clip at the I/O layer\n", sq.Nm, sq.NTrials, StrobeCodeMax)
	}
	rand.Seed(sq.Seed)

	base := sq.baseSequences()
	sq.configCols()
	nc := len(sq.Cols)

	sq.OutValues = make([][]factor.Value, sq.NRuns)
	sq.OutIndex = make([]int, sq.NRuns)
	sq.OutBlock = make([]string, sq.NBlocks)
	sq.OutTrial = make([]string, sq.NRuns)
	sq.OutMap.SetShape([]int{sq.NRuns, nc}, nil, []string{"Run", "Col"})

	ord := make([]int, sq.NTrials)
	for blk := 0; blk < sq.NBlocks; blk++ {
		for i := range ord {
			ord[i] = i
		}
		if sq.Randomize {
			erand.PermuteInts(ord)
		}
		if md.Block != nil {
			sq.OutBlock[blk] = md.Block.Draw()
		}
		for t := 0; t < sq.NTrials; t++ {
			run := blk*sq.NTrials + t
			ci := ord[t]
			row := make([]factor.Value, nc)
			for vi := 0; vi < nv; vi++ {
				row[vi] = base[vi][ci]
			}
			ai := nv
			for vi := 0; vi < nv; vi++ {
				vr := &md.Vars[vi]
				if !vr.HasOffset() {
					continue
				}
				row[ai] = offsetValue(vr, row[vi])
				ai++
			}
			sq.OutValues[run] = row
			sq.OutIndex[run] = ci + 1
			if md.Trial != nil {
				sq.OutTrial[run] = md.Trial.Draw()
			}
			for c := range sq.Cols {
				vr := &md.Vars[sq.Cols[c].Var]
				sq.OutMap.Set([]int{run, c}, vr.LevelIndex(row[c]))
			}
		}
	}
	return nil
}

// baseSequences builds the balanced tiled level sequence for each
// variable, length NTrials: variable i's repetition count is the product
// of the level counts of the variables after it, tiled to fill the block.
// The blank placeholder condition, if requested, is the final trial.
func (sq *Sequence) baseSequences() [][]factor.Value {
	md := sq.Model
	nv := len(md.Vars)
	prod := sq.NTrials
	if md.AddBlank {
		prod--
	}
	base := make([][]factor.Value, nv)
	rep := 1 // runs fastest for the last variable
	for vi := nv - 1; vi >= 0; vi-- {
		vr := &md.Vars[vi]
		n := vr.NLevels()
		seq := make([]factor.Value, sq.NTrials)
		for t := 0; t < prod; t++ {
			seq[t] = vr.Values[(t/rep)%n]
		}
		if md.AddBlank {
			seq[prod] = factor.Blank()
		}
		base[vi] = seq
		rep *= n
	}
	return base
}

// configCols builds the assignment column metadata: one column per
// variable in declared order, then one per offset-bearing variable.
func (sq *Sequence) configCols() {
	md := sq.Model
	sq.Cols = sq.Cols[:0]
	for vi := range md.Vars {
		vr := &md.Vars[vi]
		sq.Cols = append(sq.Cols, AssignCol{Name: vr.Name, Var: vi, Targets: vr.Targets})
	}
	for vi := range md.Vars {
		vr := &md.Vars[vi]
		if !vr.HasOffset() {
			continue
		}
		sq.Cols = append(sq.Cols, AssignCol{Name: vr.Name + "Off", Var: vi, Offset: true, Targets: vr.OffsetTargets})
	}
}

// offsetValue derives the secondary value from a base value per the
// variable's offset rule.  Blank placeholders pass through unchanged.
func offsetValue(vr *factor.Variable, vl factor.Value) factor.Value {
	if vl.IsBlank() {
		return vl
	}
	switch vr.Offset {
	case factor.NegOffset:
		switch vl.Kind {
		case factor.Vector:
			return factor.Vec(-vl.Vec.X, -vl.Vec.Y)
		case factor.Number:
			return factor.Num(-vl.Num)
		}
	case factor.MirrorOffset:
		mag := vr.OffsetMag
		if rand.Float64() < 0.5 {
			mag = -mag
		}
		if vl.Kind == factor.Number {
			return factor.Num(vl.Num + mag)
		}
	case factor.AddOffset:
		if vl.Kind == factor.Number {
			return factor.Num(vl.Num + vr.OffsetMag)
		}
	}
	return vl
}

// BlockOfRun returns the 0-based block index containing the given run
func (sq *Sequence) BlockOfRun(run int) int {
	return run / sq.NTrials
}

// SwapRuns exchanges the full rows of runs i and j: assigned values,
// condition id, map row, and trial-factor label.  Block labels are
// block-scoped and unaffected.  Swapping within one block preserves the
// block's balanced multiset of conditions, only permuting order.
func (sq *Sequence) SwapRuns(i, j int) {
	if i == j {
		return
	}
	sq.OutValues[i], sq.OutValues[j] = sq.OutValues[j], sq.OutValues[i]
	sq.OutIndex[i], sq.OutIndex[j] = sq.OutIndex[j], sq.OutIndex[i]
	sq.OutTrial[i], sq.OutTrial[j] = sq.OutTrial[j], sq.OutTrial[i]
	nc := len(sq.Cols)
	for c := 0; c < nc; c++ {
		iv := sq.OutMap.Value([]int{i, c})
		jv := sq.OutMap.Value([]int{j, c})
		sq.OutMap.Set([]int{i, c}, jv)
		sq.OutMap.Set([]int{j, c}, iv)
	}
}
