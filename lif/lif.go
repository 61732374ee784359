// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package lif provides the leaky integrate-and-fire membrane kernel:
per-neuron integration of injected synaptic input, threshold crossing,
reset and absolute refractory period.

Units are SI: seconds, volts, ohms and amperes.
*/
package lif

import (
	"cogentcore.org/core/math32"
)

// Params are the leaky integrate-and-fire membrane parameters.
type Params struct {

	// membrane time constant, in seconds.
	TauM float32 `def:"0.02" min:"0"`

	// membrane resistance, in ohms.
	R float32 `def:"1e8"`

	// resting potential, in volts.
	Vrest float32 `def:"-0.074"`

	// potential immediately after a spike, in volts.
	Vreset float32 `def:"-0.074"`

	// firing threshold, in volts.
	Thr float32 `def:"-0.053"`

	// absolute refractory period, in seconds.
	Refractory float32 `def:"0.002"`

	// constant background current, in amperes.
	Bg float32 `def:"0"`

	// membrane leak factor per step, dt / TauM.
	Decay float32 `view:"-"`

	// factor converting injected current to volts per step, R * dt / TauM.
	ToVolts float32 `view:"-"`

	// refractory period in whole steps.
	RefractSteps int32 `view:"-"`

	// step size the derived factors were computed for.
	Dt float32 `view:"-"`
}

func (lp *Params) Defaults() {
	lp.TauM = 0.02
	lp.R = 1e8
	lp.Vrest = -0.074
	lp.Vreset = -0.074
	lp.Thr = -0.053
	lp.Refractory = 0.002
	lp.Bg = 0
	lp.Update(0.0001)
}

// Update must be called after any changes to parameters,
// with the simulation step size dt in seconds.
func (lp *Params) Update(dt float32) {
	lp.Dt = dt
	if lp.TauM <= 0 {
		lp.TauM = 0.02
	}
	lp.Decay = dt / lp.TauM
	lp.ToVolts = lp.R * dt / lp.TauM
	lp.RefractSteps = int32(math32.Round(lp.Refractory / dt))
}

// Init sets the initial membrane state.
func (lp *Params) Init(vm *float32, lastSpike *int32) {
	*vm = lp.Vrest
	*lastSpike = -1 << 30
}

// InRefractory returns true if a neuron that last fired at lastSpike is
// still refractory at time t.
func (lp *Params) InRefractory(t, lastSpike int32) bool {
	return t-lastSpike < lp.RefractSteps
}

// VmFromInput integrates one step given the summed injected current
// (amperes) and injected voltage (volts), returning the new potential.
func (lp *Params) VmFromInput(vm, current, volts float32) float32 {
	vm += lp.Decay*(lp.Vrest-vm) + lp.ToVolts*(current+lp.Bg) + volts
	return vm
}

// Step advances one neuron by one step at time t, returning true if it
// spiked. vm and lastSpike are updated in place.
func (lp *Params) Step(t int32, vm *float32, lastSpike *int32, current, volts float32) bool {
	if lp.InRefractory(t, *lastSpike) {
		*vm = lp.Vreset
		return false
	}
	v := lp.VmFromInput(*vm, current, volts)
	if v >= lp.Thr {
		*vm = lp.Vreset
		*lastSpike = t
		return true
	}
	*vm = v
	return false
}
