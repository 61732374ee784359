// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spike

import (
	"github.com/emer/spike/lif"
	"github.com/pkg/errors"
)

func init() {
	RegisterBackend(Serial, NeuronsKind, func(ctx *Context, front any) (Backend, error) {
		return newNrnEngine(ctx, front, false)
	})
	RegisterBackend(Parallel, NeuronsKind, func(ctx *Context, front any) (Backend, error) {
		return newNrnEngine(ctx, front, true)
	})
	RegisterBackend(Serial, InputNeuronsKind, func(ctx *Context, front any) (Backend, error) {
		return newInputEngine(ctx, front)
	})
	RegisterBackend(Parallel, InputNeuronsKind, func(ctx *Context, front any) (Backend, error) {
		return newInputEngine(ctx, front)
	})
}

// synBackend returns the Synapses backend of the store.
func synBackend(sy *Synapses) (SynapseBackend, error) {
	if sy == nil {
		return nil, configErrorf("no Synapses store")
	}
	sb, ok := sy.Back.(SynapseBackend)
	if !ok || !sy.Prepared() {
		return nil, configErrorf("Synapses backend must be bound and prepared first")
	}
	return sb, nil
}

// nrnEngine integrates the LIF membrane of the regular neurons and
// delivers their spikes.  With device set, it computes on its own copies
// of the membrane state.
type nrnEngine struct {
	nr     *Neurons
	exec   Exec
	device bool
	sb     SynapseBackend

	params []lif.Params
	vm     []float32
	last   []int32
}

func newNrnEngine(ctx *Context, front any, device bool) (*nrnEngine, error) {
	nr, ok := front.(*Neurons)
	if !ok {
		return nil, errors.Errorf("spike: Neurons backend for %T", front)
	}
	return &nrnEngine{nr: nr, exec: ctx.Exec, device: device}, nil
}

func (ne *nrnEngine) Prepare() error {
	nr := ne.nr
	sb, err := synBackend(nr.Syn)
	if err != nil {
		return err
	}
	if nr.Dt <= 0 {
		return configErrorf("Neurons step size %g must be positive", nr.Dt)
	}
	ne.sb = sb
	ne.params = make([]lif.Params, len(nr.Params))
	for i := range nr.Params {
		ne.params[i] = nr.Params[i]
		ne.params[i].Update(nr.Dt)
	}
	if ne.device {
		ne.vm = make([]float32, nr.N)
		ne.last = make([]int32, nr.N)
	} else {
		ne.vm = nr.Vm
		ne.last = nr.LastSpike
	}
	ne.ResetState()
	return nil
}

func (ne *nrnEngine) ResetState() {
	nr := ne.nr
	for i := range ne.vm {
		ne.params[nr.GroupIndex[i]].Init(&ne.vm[i], &ne.last[i])
	}
	clear(nr.Spikes)
	ne.CopyToFrontend()
}

func (ne *nrnEngine) StateUpdate(t uint32, dt float32, grouping int) {
	nr := ne.nr
	labels := ne.sb.Labels()
	nl := len(labels)
	nin := nr.Syn.NInput
	for g := 0; g < grouping; g++ {
		tg := t + uint32(g)
		inj := ne.sb.Injected(g)
		spk := nr.SpikesStep(g)
		ne.exec.Run(nr.N, func(st, ed int) {
			for i := st; i < ed; i++ {
				var cur, volts float32
				for l := 0; l < nl; l++ {
					c, v := labels[l].Inject(inj[i*nl+l], ne.vm[i])
					cur += c
					volts += v
				}
				lp := &ne.params[nr.GroupIndex[i]]
				spk[i] = lp.Step(int32(tg), &ne.vm[i], &ne.last[i], cur, volts)
				if spk[i] {
					ne.sb.Deliver(tg, nin+i)
				}
			}
		})
	}
}

func (ne *nrnEngine) CopyToFrontend() {
	if !ne.device {
		return
	}
	copy(ne.nr.Vm, ne.vm)
	copy(ne.nr.LastSpike, ne.last)
}

func (ne *nrnEngine) CopyToBackend() {
	if !ne.device {
		return
	}
	copy(ne.vm, ne.nr.Vm)
	copy(ne.last, ne.nr.LastSpike)
}

// inputEngine delivers the spikes set by the stimulus.
type inputEngine struct {
	in   *InputNeurons
	exec Exec
	sb   SynapseBackend
}

func newInputEngine(ctx *Context, front any) (*inputEngine, error) {
	in, ok := front.(*InputNeurons)
	if !ok {
		return nil, errors.Errorf("spike: InputNeurons backend for %T", front)
	}
	return &inputEngine{in: in, exec: ctx.Exec}, nil
}

func (ie *inputEngine) Prepare() error {
	sb, err := synBackend(ie.in.Syn)
	if err != nil {
		return err
	}
	ie.sb = sb
	return nil
}

func (ie *inputEngine) ResetState() {
	ie.in.InitSpikes()
}

func (ie *inputEngine) StateUpdate(t uint32, dt float32, grouping int) {
	in := ie.in
	for g := 0; g < grouping; g++ {
		tg := t + uint32(g)
		spk := in.SpikesStep(g)
		ie.exec.Run(in.N, func(st, ed int) {
			for i := st; i < ed; i++ {
				if spk[i] {
					ie.sb.Deliver(tg, i)
				}
			}
		})
	}
}

func (ie *inputEngine) CopyToFrontend() {}

func (ie *inputEngine) CopyToBackend() {}
