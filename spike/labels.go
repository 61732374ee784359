// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spike

import (
	"fmt"

	"cogentcore.org/core/math32"
)

// LabelKinds are the ways a synapse label injects its input into
// the postsynaptic neuron.
type LabelKinds int32

const (
	// Conductance labels integrate a decaying conductance g, injecting
	// the current g * (Erev - Vm).
	Conductance LabelKinds = iota

	// Current labels integrate a decaying current, injected as is.
	Current

	// Voltage labels add the delivered value directly to Vm, without decay.
	Voltage

	LabelKindsN
)

var labelKindNames = [LabelKindsN]string{"Conductance", "Current", "Voltage"}

func (lk LabelKinds) String() string {
	if lk < 0 || lk >= LabelKindsN {
		return fmt.Sprintf("LabelKinds(%d)", int32(lk))
	}
	return labelKindNames[lk]
}

func (lk LabelKinds) MarshalText() ([]byte, error) { return []byte(lk.String()), nil }

func (lk *LabelKinds) UnmarshalText(text []byte) error {
	for i, nm := range labelKindNames {
		if nm == string(text) {
			*lk = LabelKinds(i)
			return nil
		}
	}
	return configErrorf("unknown synapse label kind %q", text)
}

// SynLabel holds the constants shared by every synapse with the same label,
// so they are stored once rather than per synapse.
type SynLabel struct {

	// how input is injected
	Kind LabelKinds

	// decay time constant in seconds, for Conductance and Current kinds
	Tau float32 `def:"0.002"`

	// reversal potential in volts, for the Conductance kind
	Erev float32 `def:"0"`

	// per-step decay factor exp(-dt / Tau)
	Decay float32 `view:"-" toml:"-"`
}

// Normalize zeroes constants the kind does not use, so equal labels compare equal.
func (sl *SynLabel) Normalize() {
	switch sl.Kind {
	case Current:
		sl.Erev = 0
	case Voltage:
		sl.Erev = 0
		sl.Tau = 0
	}
	sl.Decay = 0
}

// Same returns true if the two labels share all constants.
func (sl *SynLabel) Same(ol *SynLabel) bool {
	return sl.Kind == ol.Kind && sl.Tau == ol.Tau && sl.Erev == ol.Erev
}

// Validate returns an ErrConfig error if the constants are unusable.
func (sl *SynLabel) Validate() error {
	if sl.Kind < 0 || sl.Kind >= LabelKindsN {
		return configErrorf("invalid synapse label kind %d", sl.Kind)
	}
	if sl.Kind != Voltage && sl.Tau <= 0 {
		return configErrorf("%s synapse label needs Tau > 0, got %g", sl.Kind, sl.Tau)
	}
	return nil
}

// Update computes the decay factor for step size dt.
func (sl *SynLabel) Update(dt float32) {
	if sl.Kind == Voltage || sl.Tau <= 0 {
		sl.Decay = 0
		return
	}
	sl.Decay = math32.Exp(-dt / sl.Tau)
}

// Integrate returns the label state after one step with delivered input inc.
func (sl *SynLabel) Integrate(st, inc float32) float32 {
	if sl.Kind == Voltage {
		return inc
	}
	return st*sl.Decay + inc
}

// Inject returns the current (amperes) and direct voltage (volts)
// that label state st injects into a neuron at potential vm.
func (sl *SynLabel) Inject(st, vm float32) (cur, volts float32) {
	switch sl.Kind {
	case Conductance:
		return st * (sl.Erev - vm), 0
	case Current:
		return st, 0
	default:
		return 0, st
	}
}

// LabelID returns the id of the label with the same constants,
// adding a new label if there is none.
func (sy *Synapses) LabelID(lbl SynLabel) int32 {
	lbl.Normalize()
	for i := range sy.Labels {
		if sy.Labels[i].Same(&lbl) {
			return int32(i)
		}
	}
	sy.Labels = append(sy.Labels, lbl)
	return int32(len(sy.Labels) - 1)
}

// NLabels returns the number of labels, at least 1.
func (sy *Synapses) NLabels() int {
	return max(len(sy.Labels), 1)
}
