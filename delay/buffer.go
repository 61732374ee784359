// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package delay provides the circular buffer that carries the effect of a
presynaptic spike forward in time to the step at which it arrives at the
postsynaptic neuron.

The buffer is organized as TemporalSize time slots, each holding InputSize
accumulators (one per postsynaptic neuron x synapse label).  A spike emitted
at time t along a synapse with delay d is added into slot (t+d) mod
TemporalSize, and the slot for time t is read and zeroed exactly once, when
the neuron integrates its input for step t.
*/
package delay

import (
	"fmt"
	"math"
	"sync/atomic"
	"unsafe"
)

// Buffer is a time-indexed circular accumulator of delayed synaptic input.
type Buffer struct {

	// number of time slots in the circular buffer.
	// Must exceed the maximum axonal delay plus the timestep grouping
	// so that a write for a future slot never aliases a slot being read.
	TemporalSize int

	// number of accumulators per time slot (neurons x labels).
	InputSize int

	// number of synapse labels per neuron.
	NLabels int

	// accumulator values, TemporalSize * InputSize, slot-major.
	Values []float32
}

// New returns a new buffer able to hold spikes with delays up to maxDelay
// timesteps while grouping timesteps per dispatch.
func New(maxDelay, grouping, nNeurons, nLabels int) *Buffer {
	bf := &Buffer{}
	bf.Config(maxDelay, grouping, nNeurons, nLabels)
	return bf
}

// WindowSize returns the number of temporal slots required for
// given maximum delay and grouping.
func WindowSize(maxDelay, grouping int) int {
	return maxDelay + grouping + 1
}

// Config (re)allocates the buffer for given sizes, zeroing all values.
func (bf *Buffer) Config(maxDelay, grouping, nNeurons, nLabels int) {
	if grouping < 1 {
		grouping = 1
	}
	if nLabels < 1 {
		nLabels = 1
	}
	bf.TemporalSize = WindowSize(maxDelay, grouping)
	bf.NLabels = nLabels
	bf.InputSize = nNeurons * nLabels
	bf.Values = make([]float32, bf.TemporalSize*bf.InputSize)
}

// Index returns the accumulator index within a slot for neuron, label.
func (bf *Buffer) Index(nrn, label int) int {
	return nrn*bf.NLabels + label
}

// Loc returns the flat location into Values for time t and slot index idx.
func (bf *Buffer) Loc(t uint32, idx int) int {
	return int(t%uint32(bf.TemporalSize))*bf.InputSize + idx
}

// Add adds v into the slot for time t at index idx.
// Not safe for concurrent use: see AddAtomic.
func (bf *Buffer) Add(t uint32, idx int, v float32) {
	bf.Values[bf.Loc(t, idx)] += v
}

// AddAtomic adds v into the slot for time t at index idx, using a
// compare-and-swap loop so that any number of lanes can accumulate
// into the same location within one dispatch.
func (bf *Buffer) AddAtomic(t uint32, idx int, v float32) {
	addr := (*uint32)(unsafe.Pointer(&bf.Values[bf.Loc(t, idx)]))
	for {
		old := atomic.LoadUint32(addr)
		nv := math.Float32bits(math.Float32frombits(old) + v)
		if atomic.CompareAndSwapUint32(addr, old, nv) {
			return
		}
	}
}

// Peek returns the value for time t at index idx without consuming it.
func (bf *Buffer) Peek(t uint32, idx int) float32 {
	return bf.Values[bf.Loc(t, idx)]
}

// Consume returns the value for time t at index idx and zeroes it,
// so that each slot is read exactly once.
func (bf *Buffer) Consume(t uint32, idx int) float32 {
	li := bf.Loc(t, idx)
	v := bf.Values[li]
	if v != 0 {
		bf.Values[li] = 0
	}
	return v
}

// Reset zeroes all accumulators.
func (bf *Buffer) Reset() {
	clear(bf.Values)
}

// CheckWindow returns an error if a spike with delay up to maxDelay,
// emitted anywhere within a group of grouping steps, could wrap around
// into a slot that is still to be read within the same group.
func (bf *Buffer) CheckWindow(maxDelay, grouping int) error {
	if bf.TemporalSize <= maxDelay+grouping {
		return fmt.Errorf("delay.Buffer: temporal size %d must exceed max delay %d + grouping %d", bf.TemporalSize, maxDelay, grouping)
	}
	return nil
}

// Bytes returns the memory used by the accumulators.
func (bf *Buffer) Bytes() int {
	return len(bf.Values) * 4
}
