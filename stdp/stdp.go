// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package stdp provides the numerical parameters and per-synapse update
functions for the spike-timing-dependent plasticity rules: a weight
dependent pair rule, the Evans rule with per-synapse presynaptic traces,
and the Vogels inhibitory homeostatic rule.

All functions operate on plain float32 values so the same code serves
the serial and the parallel engines.
*/
package stdp

import (
	"cogentcore.org/core/math32"
)

// TraceParams are the parameters for one exponentially decaying trace.
type TraceParams struct {

	// decay time constant, in seconds.
	Tau float32 `def:"0.02" min:"0"`

	// per-step multiplicative decay: exp(-dt / Tau).
	Decay float32 `view:"-"`
}

func (tp *TraceParams) Defaults() {
	tp.Tau = 0.02
}

// Update computes the per-step decay for step size dt.
func (tp *TraceParams) Update(dt float32) {
	if tp.Tau <= 0 {
		tp.Decay = 0
		return
	}
	tp.Decay = math32.Exp(-dt / tp.Tau)
}

// DecayN returns the trace value after n steps of decay.
func (tp *TraceParams) DecayN(tr float32, n int) float32 {
	for i := 0; i < n; i++ {
		tr *= tp.Decay
	}
	return tr
}

//////////////////////////////////////////////////////////////////////////////////////
//  WeightDep

// WeightDepParams are the parameters for the multiplicative,
// weight-dependent pair STDP rule.  Potentiation is proportional to the
// distance from WMax and depression is proportional to the weight itself,
// so weights stay in [0, WMax].
type WeightDepParams struct {

	// presynaptic trace, driving potentiation on postsynaptic spikes.
	Pre TraceParams `display:"inline"`

	// postsynaptic trace, driving depression on presynaptic spikes.
	Post TraceParams `display:"inline"`

	// potentiation rate.
	APlus float32 `def:"0.005"`

	// depression rate.
	AMinus float32 `def:"0.005"`

	// maximum weight.
	WMax float32 `def:"1"`

	// if true, a spike sets its trace to 1 instead of adding 1,
	// so only the nearest spike pair contributes.
	Nearest bool `def:"false"`
}

func (wp *WeightDepParams) Defaults() {
	wp.Pre.Defaults()
	wp.Post.Defaults()
	wp.APlus = 0.005
	wp.AMinus = 0.005
	wp.WMax = 1
	wp.Nearest = false
}

func (wp *WeightDepParams) Update(dt float32) {
	wp.Pre.Update(dt)
	wp.Post.Update(dt)
}

// Bump returns the trace after a spike.
func (wp *WeightDepParams) Bump(tr float32) float32 {
	if wp.Nearest {
		return 1
	}
	return tr + 1
}

// LTP returns the potentiated weight given the decayed presynaptic trace.
func (wp *WeightDepParams) LTP(wt, preTr float32) float32 {
	return wt + wp.APlus*(wp.WMax-wt)*preTr
}

// LTD returns the depressed weight given the decayed postsynaptic trace.
func (wp *WeightDepParams) LTD(wt, postTr float32) float32 {
	return wt - wp.AMinus*wt*postTr
}

// Clamp returns wt within [0, WMax].
func (wp *WeightDepParams) Clamp(wt float32) float32 {
	return math32.Clamp(wt, 0, wp.WMax)
}

//////////////////////////////////////////////////////////////////////////////////////
//  Evans

// EvansParams are the parameters for the Evans STDP rule: a saturating
// per-synapse presynaptic trace C, a saturating per-neuron postsynaptic
// trace D, and learning rate Rho.  Weights are bounded in [0, 1].
type EvansParams struct {

	// presynaptic C trace, one per synapse.
	C TraceParams `display:"inline"`

	// postsynaptic D trace, one per neuron.
	D TraceParams `display:"inline"`

	// fraction of remaining distance to 1 that C jumps on a presynaptic spike.
	AlphaC float32 `def:"0.5" min:"0" max:"1"`

	// fraction of remaining distance to 1 that D jumps on a postsynaptic spike.
	AlphaD float32 `def:"0.5" min:"0" max:"1"`

	// learning rate.
	Rho float32 `def:"0.1"`
}

func (ep *EvansParams) Defaults() {
	ep.C.Tau = 0.015
	ep.D.Tau = 0.025
	ep.AlphaC = 0.5
	ep.AlphaD = 0.5
	ep.Rho = 0.1
}

func (ep *EvansParams) Update(dt float32) {
	ep.C.Update(dt)
	ep.D.Update(dt)
}

// BumpC returns the C trace after a presynaptic spike.
func (ep *EvansParams) BumpC(c float32) float32 {
	return c + ep.AlphaC*(1-c)
}

// BumpD returns the D trace after a postsynaptic spike.
func (ep *EvansParams) BumpD(d float32) float32 {
	return d + ep.AlphaD*(1-d)
}

// LTP returns the weight after a postsynaptic spike given decayed C.
func (ep *EvansParams) LTP(wt, c float32) float32 {
	return wt + ep.Rho*c*(1-wt)
}

// LTD returns the weight after a presynaptic spike given decayed D.
func (ep *EvansParams) LTD(wt, d float32) float32 {
	return wt - ep.Rho*d*wt
}

// Clamp returns wt within [0, 1].
func (ep *EvansParams) Clamp(wt float32) float32 {
	return math32.Clamp(wt, 0, 1)
}

//////////////////////////////////////////////////////////////////////////////////////
//  Inhib

// InhibParams are the parameters for the Vogels et al. (2011) inhibitory
// plasticity rule, which drives postsynaptic firing toward TargetRate.
type InhibParams struct {

	// pre and post trace time constant, in seconds.
	Trace TraceParams `display:"inline"`

	// learning rate.
	Lrate float32 `def:"0.0004"`

	// target postsynaptic firing rate, in Hz.
	TargetRate float32 `def:"10"`

	// momentum: fraction of the previous weight change carried into the next.
	Momentum float32 `def:"0" min:"0" max:"1"`

	// maximum weight.
	WMax float32 `def:"1000"`

	// depression offset: 2 * TargetRate * Tau.
	Alpha float32 `view:"-"`
}

func (ip *InhibParams) Defaults() {
	ip.Trace.Tau = 0.02
	ip.Lrate = 0.0004
	ip.TargetRate = 10
	ip.Momentum = 0
	ip.WMax = 1000
}

func (ip *InhibParams) Update(dt float32) {
	ip.Trace.Update(dt)
	ip.Alpha = 2 * ip.TargetRate * ip.Trace.Tau
}

// PreDelta returns the weight change on a presynaptic spike
// given the decayed postsynaptic trace.
func (ip *InhibParams) PreDelta(xPost float32) float32 {
	return ip.Lrate * (xPost - ip.Alpha)
}

// PostDelta returns the weight change on a postsynaptic spike
// given the decayed presynaptic trace.
func (ip *InhibParams) PostDelta(xPre float32) float32 {
	return ip.Lrate * xPre
}

// Apply adds delta to the weight through the momentum term mom,
// returning the new weight and momentum.
func (ip *InhibParams) Apply(wt, mom, delta float32) (float32, float32) {
	mom = ip.Momentum*mom + delta
	return wt + mom, mom
}

// Clamp returns wt within [0, WMax].
func (ip *InhibParams) Clamp(wt float32) float32 {
	return math32.Clamp(wt, 0, ip.WMax)
}
