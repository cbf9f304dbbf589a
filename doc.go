// Copyright (c) 2026, The Stimline Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package stimline is the overall repository for the stimline experiment
sequencing and timing core, implemented in the Go language (golang).

This top-level of the repository has no functional code -- everything is
organized into the following sub-packages:

* factor: the Factor Model -- typed definitions of independent experimental
variables (factors) with ordered level values, plus block-level and
trial-level weighted factors, and validation of all of it.

* design: the Design Generator -- builds a balanced, reproducible
pseudorandom assignment of factor levels to blocks and trials (the design
table), with per-block permutation, weighted label sampling, and offset
variable derivation.

* track: the Run State Tracker -- sequential walk over a generated design,
recording responses, with rewind and within-block reshuffle that preserves
the balanced multiset of conditions.

* phase: the Real-Time Phase Scheduler -- drives the alternating blank /
stimulus presentation cycle against display swap ticks, in either wall-clock
or tick-counting dwell mode, sequencing hardware strobes relative to each
swap.

* frametime: the Frame Timing Log -- one record per display swap, with
post-hoc missed-frame statistics that exclude warm-up and blank-phase
jitter.

* stim: narrow collaborator contracts for stimulus objects, the display,
digital strobe I/O, eye trackers and opaque adaptive value sources, plus
simple reference stimulus implementations.

* session: session persistence -- manifest, design, response and frame-log
tables sufficient to exactly replay and audit a session.

* examples/present: a complete headless demo session against simulated
collaborators.
*/
package stimline
