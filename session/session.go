// Copyright (c) 2026, The Stimline Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package session persists everything needed to reconstruct and audit a
session without re-running randomization: the manifest (session id, seed,
generator id, design dimensions), the full design table, responses,
reshuffle audit log, and frame timing log, as a directory of JSON + TSV
files.

VerifyReplay is the audit path: it regenerates the design from the stored
seed and model and checks the outputs match what was executed.
*/
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/emer/etable/etable"
	"github.com/goki/gi/gi"
	"github.com/google/uuid"
	"github.com/vispsy/stimline/design"
	"github.com/vispsy/stimline/frametime"
	"github.com/vispsy/stimline/track"
)

// Manifest is the flat session metadata record saved as manifest.json
type Manifest struct {

	// unique session identifier
	ID string `desc:"unique session identifier"`

	// session creation time
	Created time.Time `desc:"session creation time"`

	// design name
	Design string `desc:"design name"`

	// random seed the design was generated with
	Seed int64 `desc:"random seed the design was generated with"`

	// generation algorithm identifier
	GeneratorID string `desc:"generation algorithm identifier"`

	// whether trial order was randomized
	Randomize bool `desc:"whether trial order was randomized"`

	// number of blocks
	NBlocks int `desc:"number of blocks"`

	// trials per block
	NTrials int `desc:"trials per block"`

	// total runs
	NRuns int `desc:"total runs"`

	// runs actually completed when saved
	Completed int `desc:"runs actually completed when saved"`
}

// NewManifest builds a manifest for the given design and tracker state,
// assigning a fresh session id.
func NewManifest(sq *design.Sequence, tk *track.Tracker) *Manifest {
	mf := &Manifest{
		ID:          uuid.New().String(),
		Created:     time.Now(),
		Design:      sq.Nm,
		Seed:        sq.Seed,
		GeneratorID: sq.GenID,
		Randomize:   sq.Randomize,
		NBlocks:     sq.NBlocks,
		NTrials:     sq.NTrials,
		NRuns:       sq.NRuns,
	}
	if tk != nil {
		mf.Completed = tk.TotalRuns
	}
	return mf
}

// Save writes the complete session record into dir: manifest.json,
// design.tsv, responses.tsv, resets.tsv, and frames.tsv.  The frame log
// may be nil for design-only saves.
func Save(dir string, sq *design.Sequence, tk *track.Tracker, fl *frametime.Log) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	mf := NewManifest(sq, tk)
	b, err := json.MarshalIndent(mf, "", "\t")
	if err != nil {
		return err
	}
	if err = os.WriteFile(filepath.Join(dir, "manifest.json"), b, 0644); err != nil {
		return err
	}
	if err = sq.Table().SaveCSV(gi.FileName(filepath.Join(dir, "design.tsv")), etable.Tab, etable.Headers); err != nil {
		return err
	}
	if tk != nil {
		if err = tk.ResponsesTable().SaveCSV(gi.FileName(filepath.Join(dir, "responses.tsv")), etable.Tab, etable.Headers); err != nil {
			return err
		}
		if err = tk.Resets.SaveCSV(gi.FileName(filepath.Join(dir, "resets.tsv")), etable.Tab, etable.Headers); err != nil {
			return err
		}
	}
	if fl != nil {
		if err = fl.Table.SaveCSV(gi.FileName(filepath.Join(dir, "frames.tsv")), etable.Tab, etable.Headers); err != nil {
			return err
		}
	}
	return nil
}

// OpenManifest reads a saved manifest.json from dir
func OpenManifest(dir string) (*Manifest, error) {
	b, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
	if err != nil {
		return nil, err
	}
	mf := &Manifest{}
	if err = json.Unmarshal(b, mf); err != nil {
		return nil, err
	}
	return mf, nil
}

// VerifyReplay regenerates the design from its recorded seed and model
// and checks that condition ids and factor labels match the executed
// sequence exactly.  A reshuffled session will differ at the swapped
// positions: pass the pre-execution sequence (or re-apply the reset log)
// for a strict check.  Regeneration reseeds the global random source from
// the design seed, so this is a post-session audit call only -- invoked
// mid-session it would make subsequent reshuffle and stimulus draws
// replay the design stream.
func VerifyReplay(sq *design.Sequence) error {
	re := design.NewSequence(sq.Model, sq.NBlocks)
	re.Nm = sq.Nm
	re.Randomize = sq.Randomize
	re.Seed = sq.Seed
	if err := re.Generate(); err != nil {
		return err
	}
	if re.NRuns != sq.NRuns || re.NTrials != sq.NTrials {
		return fmt.Errorf("session: replay dimensions differ: %d x %d vs %d x %d", re.NBlocks, re.NTrials, sq.NBlocks, sq.NTrials)
	}
	for i := 0; i < sq.NRuns; i++ {
		if re.OutIndex[i] != sq.OutIndex[i] {
			return fmt.Errorf("session: replay condition mismatch at run %d: %d vs %d", i, re.OutIndex[i], sq.OutIndex[i])
		}
		if re.OutTrial[i] != sq.OutTrial[i] {
			return fmt.Errorf("session: replay trial label mismatch at run %d: %s vs %s", i, re.OutTrial[i], sq.OutTrial[i])
		}
	}
	for b := 0; b < sq.NBlocks; b++ {
		if re.OutBlock[b] != sq.OutBlock[b] {
			return fmt.Errorf("session: replay block label mismatch at block %d: %s vs %s", b, re.OutBlock[b], sq.OutBlock[b])
		}
	}
	return nil
}
