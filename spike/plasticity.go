// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spike

import (
	"github.com/emer/spike/stdp"
)

// Plasticity is a weight update rule applied to a set of synapses.
// Rules are registered with the Synapses store by AddGroup, which
// assigns the rule id on first use.
type Plasticity interface {

	// RuleID returns the rule id, -1 if not registered.
	RuleID() int

	// SetRuleID sets the rule id.
	SetRuleID(id int)

	// SetSynapses sets the store the rule is registered with.
	SetSynapses(sy *Synapses)

	// AddSynapseIndices adds n synapses starting at creation index st.
	AddSynapseIndices(st, n int)

	// Indices returns the creation indexes of all the rule's synapses.
	Indices() []int32

	// InitBackend binds the backend for ctx.
	InitBackend(ctx *Context) error

	// Backend returns the bound backend.
	Backend() Backend

	// Prepare prepares the bound backend.
	Prepare() error

	// Prepared returns true if Prepare has succeeded.
	Prepared() bool

	// ResetState resets traces.
	ResetState()

	// StateUpdate applies the rule to the spikes of the previous
	// timestep group.
	StateUpdate(t uint32, dt float32, grouping int)
}

// RuleBase has the state shared by all rules.
type RuleBase struct {
	BackendBase

	// rule id
	ID int

	// creation indexes of the rule's synapses
	Idxs []int32

	// store the rule is registered with
	Syn *Synapses `display:"-"`
}

func (rb *RuleBase) initRule() {
	rb.ID = -1
}

func (rb *RuleBase) RuleID() int              { return rb.ID }
func (rb *RuleBase) SetRuleID(id int)         { rb.ID = id }
func (rb *RuleBase) SetSynapses(sy *Synapses) { rb.Syn = sy }
func (rb *RuleBase) Indices() []int32         { return rb.Idxs }

func (rb *RuleBase) AddSynapseIndices(st, n int) {
	for i := 0; i < n; i++ {
		rb.Idxs = append(rb.Idxs, int32(st+i))
	}
}

// WeightDependentSTDP is the multiplicative pair rule, with per-neuron
// pre and post traces.
type WeightDependentSTDP struct {
	RuleBase

	// parameters
	Params stdp.WeightDepParams `display:"inline"`
}

// NewWeightDependentSTDP returns a new rule with default parameters.
func NewWeightDependentSTDP() *WeightDependentSTDP {
	rl := &WeightDependentSTDP{}
	rl.initRule()
	rl.Params.Defaults()
	return rl
}

func (rl *WeightDependentSTDP) InitBackend(ctx *Context) error {
	return rl.initBackend(ctx, WeightDepSTDPKind, rl)
}

// EvansSTDP is the Evans rule, with per-synapse presynaptic C traces
// and per-neuron postsynaptic D traces.
type EvansSTDP struct {
	RuleBase

	// parameters
	Params stdp.EvansParams `display:"inline"`
}

// NewEvansSTDP returns a new rule with default parameters.
func NewEvansSTDP() *EvansSTDP {
	rl := &EvansSTDP{}
	rl.initRule()
	rl.Params.Defaults()
	return rl
}

func (rl *EvansSTDP) InitBackend(ctx *Context) error {
	return rl.initBackend(ctx, EvansSTDPKind, rl)
}

// InhibitorySTDP is the Vogels homeostatic rule for inhibitory synapses.
type InhibitorySTDP struct {
	RuleBase

	// parameters
	Params stdp.InhibParams `display:"inline"`
}

// NewInhibitorySTDP returns a new rule with default parameters.
func NewInhibitorySTDP() *InhibitorySTDP {
	rl := &InhibitorySTDP{}
	rl.initRule()
	rl.Params.Defaults()
	return rl
}

func (rl *InhibitorySTDP) InitBackend(ctx *Context) error {
	return rl.initBackend(ctx, InhibitorySTDPKind, rl)
}
