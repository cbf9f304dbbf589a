// Copyright (c) 2026, The Stimline Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stim

import (
	"fmt"
	"log"
	"time"
)

// OpenWithRetry calls open up to maxTries times with a fixed backoff
// between attempts, returning nil on the first success.  Device and
// socket opens flake on fresh connections, so a bounded, explicit retry
// policy is part of the collaborator contract -- errors are values here,
// not control flow.
func OpenWithRetry(name string, maxTries int, backoff time.Duration, open func() error) error {
	if maxTries < 1 {
		maxTries = 1
	}
	var err error
	for try := 1; try <= maxTries; try++ {
		err = open()
		if err == nil {
			return nil
		}
		log.Printf("stim: open %s attempt %d/%d failed: %v\n", name, try, maxTries, err)
		if try < maxTries {
			time.Sleep(backoff)
		}
	}
	return fmt.Errorf("stim: open %s failed after %d attempts: %w", name, maxTries, err)
}
