// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spike

import (
	"github.com/pkg/errors"
)

// SynapseBackend is the Synapses backend, which also serves the neuron
// and plasticity backends of the same target.
type SynapseBackend interface {
	Backend

	// Weights returns the weights the backend computes with, in sorted
	// order: a device copy for the Parallel target.
	Weights() []float32

	// Labels returns the label constants, updated for the current dt.
	Labels() []SynLabel

	// Injected returns the label state, neuron-major by label, for step g
	// of the current group.
	Injected(g int) []float32

	// Deliver adds the efferent synapses of presynaptic bucket b, spiking
	// at time t, into the delay buffer at t + delay.
	Deliver(t uint32, b int)
}

func init() {
	RegisterBackend(Serial, SynapsesKind, func(ctx *Context, front any) (Backend, error) {
		return newSynEngine(ctx, front, false)
	})
	RegisterBackend(Parallel, SynapsesKind, func(ctx *Context, front any) (Backend, error) {
		return newSynEngine(ctx, front, true)
	})
}

// synEngine consumes the delay buffer into per-label state and
// delivers spikes.  With device set, it computes on its own copies of
// the store slices, delivering with atomic adds.
type synEngine struct {
	sy     *Synapses
	exec   Exec
	device bool

	wt    []float32
	scale []float32
	delay []int32
	post  []int32
	label []int32

	labels []SynLabel
	dt     float32
	nl     int

	// label state, per neuron x label
	state []float32

	// snapshot of state per step: grouping x neuron x label
	snap []float32
}

func newSynEngine(ctx *Context, front any, device bool) (*synEngine, error) {
	sy, ok := front.(*Synapses)
	if !ok {
		return nil, errors.Errorf("spike: Synapses backend for %T", front)
	}
	return &synEngine{sy: sy, exec: ctx.Exec, device: device}, nil
}

func (se *synEngine) Prepare() error {
	sy := se.sy
	if !sy.Sorted {
		return configErrorf("Synapses must be sorted before Prepare")
	}
	if sy.Buf == nil || sy.Nrns == nil {
		return configErrorf("Synapses has no delay buffer or neurons")
	}
	se.nl = sy.NLabels()
	se.labels = make([]SynLabel, se.nl)
	if len(sy.Labels) == 0 {
		se.labels[0].Kind = Voltage
	} else {
		copy(se.labels, sy.Labels)
	}
	se.dt = 0
	m := sy.Nrns.N * se.nl
	se.state = make([]float32, m)
	se.snap = make([]float32, max(sy.Nrns.Grouping, 1)*m)
	if se.device {
		se.wt = make([]float32, sy.N())
		se.scale = make([]float32, sy.N())
		se.delay = make([]int32, sy.N())
		se.post = make([]int32, sy.N())
		se.label = make([]int32, sy.N())
		se.CopyToBackend()
	} else {
		se.alias()
	}
	return nil
}

// alias points the engine at the frontend slices.
func (se *synEngine) alias() {
	sy := se.sy
	se.wt = sy.Wt
	se.scale = sy.Scale
	se.delay = sy.Delay
	se.post = sy.Post
	se.label = sy.Label
}

func (se *synEngine) ResetState() {
	clear(se.state)
	clear(se.snap)
	se.sy.Buf.Reset()
}

func (se *synEngine) updateLabels(dt float32) {
	if dt == se.dt {
		return
	}
	for i := range se.labels {
		se.labels[i].Update(dt)
	}
	se.dt = dt
}

func (se *synEngine) StateUpdate(t uint32, dt float32, grouping int) {
	se.updateLabels(dt)
	m := len(se.state)
	if len(se.snap) < grouping*m {
		se.snap = make([]float32, grouping*m)
	}
	buf := se.sy.Buf
	nl := se.nl
	for g := 0; g < grouping; g++ {
		tg := t + uint32(g)
		snap := se.snap[g*m : (g+1)*m]
		se.exec.Run(m, func(st, ed int) {
			for i := st; i < ed; i++ {
				lb := &se.labels[i%nl]
				se.state[i] = lb.Integrate(se.state[i], buf.Consume(tg, i))
				snap[i] = se.state[i]
			}
		})
	}
}

func (se *synEngine) Weights() []float32 { return se.wt }

func (se *synEngine) Labels() []SynLabel { return se.labels }

func (se *synEngine) Injected(g int) []float32 {
	m := len(se.state)
	return se.snap[g*m : (g+1)*m]
}

func (se *synEngine) Deliver(t uint32, b int) {
	st, ed := se.sy.Efferents(b)
	buf := se.sy.Buf
	nl := se.nl
	for s := st; s < ed; s++ {
		idx := int(se.post[s])*nl + int(se.label[s])
		v := se.wt[s] * se.scale[s]
		if se.device {
			buf.AddAtomic(t+uint32(se.delay[s]), idx, v)
		} else {
			buf.Add(t+uint32(se.delay[s]), idx, v)
		}
	}
}

func (se *synEngine) CopyToFrontend() {
	if !se.device {
		return
	}
	copy(se.sy.Wt, se.wt)
}

func (se *synEngine) CopyToBackend() {
	if !se.device {
		se.alias()
		return
	}
	sy := se.sy
	copy(se.wt, sy.Wt)
	copy(se.scale, sy.Scale)
	copy(se.delay, sy.Delay)
	copy(se.post, sy.Post)
	copy(se.label, sy.Label)
}
