// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spike

import (
	"cogentcore.org/core/math32"
)

// StimulusSource drives the input neurons.
type StimulusSource interface {

	// SpikesAt sets spikes[i] = true for every input neuron i that fires
	// at time step t, for step size dt in seconds.
	// spikes is cleared by the caller.
	SpikesAt(t uint32, dt float32, spikes []bool)
}

// GenStim is one stimulus: explicit lists of input neuron indexes
// and their spike times.
type GenStim struct {

	// input neuron index, per spike
	Neurons []int

	// spike time in seconds, per spike
	Times []float32

	// time of the last spike
	Length float32
}

// GeneratorStimulus plays back explicit (neuron, time) spike lists,
// one selected stimulus at a time.
type GeneratorStimulus struct {

	// all stimuli
	Stims []GenStim

	// currently selected stimulus
	Cur int

	// stimulus time zero relative to simulation time, in seconds
	Onset float32

	// spike step -> neurons, for the selected stimulus at dt
	steps map[uint32][]int
	dt    float32
}

// AddStimulus adds a stimulus given parallel neuron index and spike time
// lists, returning its index.
func (gs *GeneratorStimulus) AddStimulus(nrns []int, times []float32) (int, error) {
	if len(nrns) != len(times) {
		return -1, configErrorf("stimulus has %d neurons but %d times", len(nrns), len(times))
	}
	st := GenStim{Neurons: append([]int(nil), nrns...), Times: append([]float32(nil), times...)}
	for i, tm := range times {
		if nrns[i] < 0 {
			return -1, configErrorf("stimulus neuron index %d is negative", nrns[i])
		}
		if tm < 0 {
			return -1, configErrorf("stimulus spike time %g is negative", tm)
		}
		st.Length = math32.Max(st.Length, tm)
	}
	gs.Stims = append(gs.Stims, st)
	gs.steps = nil
	return len(gs.Stims) - 1, nil
}

// Select makes stimulus idx current, with time zero at onset seconds.
func (gs *GeneratorStimulus) Select(idx int, onset float32) error {
	if idx < 0 || idx >= len(gs.Stims) {
		return configErrorf("stimulus %d out of range [0, %d)", idx, len(gs.Stims))
	}
	gs.Cur = idx
	gs.Onset = onset
	gs.steps = nil
	return nil
}

func (gs *GeneratorStimulus) build(dt float32) {
	gs.dt = dt
	gs.steps = make(map[uint32][]int)
	if gs.Cur >= len(gs.Stims) {
		return
	}
	st := &gs.Stims[gs.Cur]
	for i, tm := range st.Times {
		stp := uint32(math32.Round((tm + gs.Onset) / dt))
		gs.steps[stp] = append(gs.steps[stp], st.Neurons[i])
	}
}

func (gs *GeneratorStimulus) SpikesAt(t uint32, dt float32, spikes []bool) {
	if gs.steps == nil || gs.dt != dt {
		gs.build(dt)
	}
	for _, ni := range gs.steps[t] {
		if ni < len(spikes) {
			spikes[ni] = true
		}
	}
}
