// Copyright (c) 2026, The Stimline Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package track

import (
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vispsy/stimline/design"
	"github.com/vispsy/stimline/factor"
)

func testSeq(t *testing.T, nblocks int) *design.Sequence {
	md := &factor.Model{
		Vars: []factor.Variable{
			{Name: "contrast", Values: []factor.Value{factor.Num(0.1), factor.Num(0.3), factor.Num(0.9)}, Targets: []int{0}},
			{Name: "direction", Values: []factor.Value{factor.Num(0), factor.Num(180)}, Targets: []int{0}},
		},
		Trial: &factor.Factor{Values: []string{"go", "nogo"}, Probs: []float64{0.5, 0.5}},
	}
	sq := design.NewSequence(md, nblocks)
	sq.Seed = 11
	require.NoError(t, sq.Generate())
	return sq
}

func TestAdvanceCounters(t *testing.T) {
	tk := NewTracker(testSeq(t, 4))
	require.Equal(t, Inited, tk.Status)
	require.NoError(t, tk.Start())
	require.Equal(t, Running, tk.Status)

	for i := 0; i < 7; i++ {
		require.NoError(t, tk.Advance(1, float64(i), "resp"))
	}
	require.Equal(t, 7, tk.TotalRuns)
	require.Equal(t, 2, tk.Block.Cur, "run 7 of 6-per-block is block 2")
	require.Equal(t, 1, tk.Run.Cur, "run 7 is the first run of block 2")
	require.Len(t, tk.Responses, 7)
}

func TestAdvanceAfterFinish(t *testing.T) {
	tk := NewTracker(testSeq(t, 1))
	require.NoError(t, tk.Start())
	for i := 0; i < tk.Seq.NRuns; i++ {
		require.NoError(t, tk.Advance(0, float64(i), ""))
	}
	require.True(t, tk.Finished())
	n := len(tk.Responses)
	err := tk.Advance(9, 99, "late")
	require.ErrorIs(t, err, ErrLogic)
	require.Len(t, tk.Responses, n, "finished tracker must not record further responses")
}

func TestAdvanceBeforeStart(t *testing.T) {
	tk := NewTracker(testSeq(t, 1))
	err := tk.Advance(1, 0, "")
	require.ErrorIs(t, err, ErrLogic)
	require.Empty(t, tk.Responses)
}

func TestRewind(t *testing.T) {
	tk := NewTracker(testSeq(t, 2))
	require.NoError(t, tk.Start())
	require.NoError(t, tk.Advance(1, 1, "a"))
	require.NoError(t, tk.Advance(2, 2, "b"))
	require.NoError(t, tk.Rewind())
	require.Equal(t, 1, tk.TotalRuns)
	require.Len(t, tk.Responses, 1)
	require.Equal(t, 1.0, tk.Responses[0])
	require.Equal(t, 1, tk.Block.Cur)
	require.Equal(t, 1, tk.Run.Cur)

	// rewind at zero is a no-op
	require.NoError(t, tk.Rewind())
	require.ErrorIs(t, tk.Rewind(), ErrLogic)
}

func TestReshuffleMultiset(t *testing.T) {
	tk := NewTracker(testSeq(t, 3))
	require.NoError(t, tk.Start())
	// advance partway into block 2
	for i := 0; i < 8; i++ {
		require.NoError(t, tk.Advance(0, 0, ""))
	}
	nt := tk.Seq.NTrials
	blockConds := func(blk int) []int {
		cs := append([]int{}, tk.Seq.OutIndex[blk*nt:(blk+1)*nt]...)
		sort.Ints(cs)
		return cs
	}
	before0, before1, before2 := blockConds(0), blockConds(1), blockConds(2)
	beforeTrials := append([]string{}, tk.Seq.OutTrial...)

	for i := 0; i < 20; i++ {
		require.NoError(t, tk.ReshuffleRemaining())
	}
	require.Equal(t, before0, blockConds(0), "completed block untouched")
	require.Equal(t, before1, blockConds(1), "reshuffle preserves the block's condition multiset")
	require.Equal(t, before2, blockConds(2), "future blocks untouched")

	// trial labels travel with their rows
	sort.Strings(beforeTrials)
	afterTrials := append([]string{}, tk.Seq.OutTrial...)
	sort.Strings(afterTrials)
	require.Equal(t, beforeTrials, afterTrials)

	require.Equal(t, 20, tk.Resets.Rows, "every reshuffle is audited")
	for row := 0; row < tk.Resets.Rows; row++ {
		require.Equal(t, 8.0, tk.Resets.CellFloat("TotalRuns", row))
		require.Equal(t, 8.0, tk.Resets.CellFloat("FromRun", row))
		to := tk.Resets.CellFloat("ToRun", row)
		require.GreaterOrEqual(t, to, 8.0)
		require.Less(t, to, float64(2*nt))
	}
}

func TestReshuffleOutsideRunning(t *testing.T) {
	tk := NewTracker(testSeq(t, 1))
	require.ErrorIs(t, tk.ReshuffleRemaining(), ErrLogic)
	require.NoError(t, tk.Start())
	for i := 0; i < tk.Seq.NRuns; i++ {
		require.NoError(t, tk.Advance(0, 0, ""))
	}
	require.ErrorIs(t, tk.ReshuffleRemaining(), ErrLogic)
	require.Equal(t, 0, tk.Resets.Rows)
}

func TestCurAccessors(t *testing.T) {
	tk := NewTracker(testSeq(t, 2))
	require.NoError(t, tk.Start())
	require.Equal(t, 0, tk.CurIndex())
	require.Equal(t, tk.Seq.OutIndex[0], tk.CurCond())
	require.True(t, tk.BlockBoundaryNext(), "first run starts a block")
	require.NoError(t, tk.Advance(math.NaN(), 0, ""))
	require.False(t, tk.BlockBoundaryNext())
	require.NotNil(t, tk.CurValues())
	require.NotEmpty(t, tk.CurTrialLabel())
}
