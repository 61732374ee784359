// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spike

import (
	"fmt"
	"log"
	"strings"

	"cogentcore.org/core/math32/minmax"
	"github.com/c2h5oh/datasize"
	"github.com/emer/spike/delay"
)

// SynapseGroup records the store range made by one AddGroup call,
// and the corrections that recover group-relative neuron ids.
type SynapseGroup struct {

	// presynaptic neuron group id (negative for input groups)
	Pre int

	// postsynaptic neuron group id
	Post int

	// first synapse index, in creation order
	St int

	// one past the last synapse index, in creation order
	Ed int

	// first neuron index of the presynaptic group in its population
	PreStart int

	// first neuron index of the postsynaptic group
	PostStart int

	// presynaptic group is an input group
	PreIsInput bool

	// label of all synapses in the group
	Label int32
}

// Len returns the number of synapses in the group.
func (sg *SynapseGroup) Len() int {
	return sg.Ed - sg.St
}

// Synapses is the synapse store: parallel slices with one entry per
// synapse.  Entries are appended by AddGroup in creation order, and
// reordered once by presynaptic neuron in Sort.
type Synapses struct {
	BackendBase

	// presynaptic neuron id: index in the regular population,
	// or -1 - index for input neurons
	Pre []int32

	// postsynaptic neuron index in the regular population
	Post []int32

	// efficacy
	Wt []float32

	// weight scaling constant: delivered value is Wt * Scale
	Scale []float32

	// axonal delay in timesteps, >= 1
	Delay []int32

	// parameter label id
	Label []int32

	// plasticity rule id, -1 for fixed synapses
	Rule []int32

	// ordinal of the synapse among its postsynaptic neuron's afferents
	PostCountIndex []int32

	// one entry per AddGroup call
	Groups []SynapseGroup

	// shared constants, indexed by Label
	Labels []SynLabel

	// registered plasticity rules, indexed by rule id
	Rules []Plasticity `display:"-"`

	// number of afferent synapses, per regular neuron
	AffN []int32

	// stats over AffN
	AffNAvgMax minmax.AvgMax32 `edit:"-" display:"inline"`

	// smallest delay in timesteps
	MinDelay int32

	// largest delay in timesteps
	MaxDelay int32

	// largest number of synapses made by one AddGroup call
	MaxGroupSize int

	// SortIndex[new] = old creation index, after Sort
	SortIndex []int32 `display:"-"`

	// RevSortIndex[old] = new sorted index, after Sort
	RevSortIndex []int32 `display:"-"`

	// store has been sorted by presynaptic id
	Sorted bool

	// number of input neurons, as sorted
	NInput int

	// number of regular neurons, as sorted
	NRegular int

	// first sorted synapse, per presynaptic bucket: input neurons then regular
	EffSt []int32 `display:"-"`

	// number of efferent synapses, per presynaptic bucket
	EffN []int32 `display:"-"`

	// stats over EffN
	EffNAvgMax minmax.AvgMax32 `edit:"-" display:"inline"`

	// populations, set by the model
	Nrns   *Neurons      `display:"-"`
	Inputs *InputNeurons `display:"-"`
	Buf    *delay.Buffer `display:"-"`
}

// N returns the number of synapses.
func (sy *Synapses) N() int {
	return len(sy.Pre)
}

// Grow appends n zeroed entries to every slice, preserving existing
// entries, and returns the new range [st, ed).  It never shrinks.
func (sy *Synapses) Grow(n int) (st, ed int) {
	st = sy.N()
	if n <= 0 {
		return st, st
	}
	ed = st + n
	sy.Pre = growSlice(sy.Pre, ed)
	sy.Post = growSlice(sy.Post, ed)
	sy.Wt = growSlice(sy.Wt, ed)
	sy.Scale = growSlice(sy.Scale, ed)
	sy.Delay = growSlice(sy.Delay, ed)
	sy.Label = growSlice(sy.Label, ed)
	sy.Rule = growSlice(sy.Rule, ed)
	sy.PostCountIndex = growSlice(sy.PostCountIndex, ed)
	for i := st; i < ed; i++ {
		sy.Rule[i] = -1
	}
	return st, ed
}

// growSlice reallocates s to exactly n entries, keeping its contents.
func growSlice[T any](s []T, n int) []T {
	if n <= len(s) {
		return s
	}
	ns := make([]T, n)
	copy(ns, s)
	return ns
}

// PreBucket returns the efferent bucket for a stored presynaptic id:
// input neurons first, then regular neurons.
func (sy *Synapses) PreBucket(pre int32) int {
	if pre < 0 {
		return int(-1 - pre)
	}
	return sy.NInput + int(pre)
}

// Sort reorders all synapses by presynaptic bucket, keeping creation
// order within a bucket, and builds the efferent index.
// SortIndex and RevSortIndex record the permutation.
// Calling Sort again is a no-op.
func (sy *Synapses) Sort(nInput, nRegular int) {
	if sy.Sorted {
		return
	}
	n := sy.N()
	sy.NInput = nInput
	sy.NRegular = nRegular
	nb := nInput + nRegular
	sy.EffN = make([]int32, nb)
	for i := 0; i < n; i++ {
		b := sy.PreBucket(sy.Pre[i])
		if b < 0 || b >= nb {
			log.Printf("spike.Synapses Sort: programmer error: synapse %d presynaptic id %d out of range\n", i, sy.Pre[i])
			continue
		}
		sy.EffN[b]++
	}
	sy.EffSt = make([]int32, nb)
	sy.EffNAvgMax.Init()
	idx := int32(0)
	for b := 0; b < nb; b++ {
		sy.EffSt[b] = idx
		idx += sy.EffN[b]
		sy.EffNAvgMax.UpdateValue(float32(sy.EffN[b]), int32(b))
	}
	sy.EffNAvgMax.CalcAvg()

	sy.SortIndex = make([]int32, n)
	sy.RevSortIndex = make([]int32, n)
	next := make([]int32, nb)
	copy(next, sy.EffSt)
	for i := 0; i < n; i++ {
		b := sy.PreBucket(sy.Pre[i])
		if b < 0 || b >= nb {
			continue
		}
		ni := next[b]
		next[b]++
		sy.SortIndex[ni] = int32(i)
		sy.RevSortIndex[i] = ni
	}
	sy.Pre = permute(sy.Pre, sy.SortIndex)
	sy.Post = permute(sy.Post, sy.SortIndex)
	sy.Wt = permute(sy.Wt, sy.SortIndex)
	sy.Scale = permute(sy.Scale, sy.SortIndex)
	sy.Delay = permute(sy.Delay, sy.SortIndex)
	sy.Label = permute(sy.Label, sy.SortIndex)
	sy.Rule = permute(sy.Rule, sy.SortIndex)
	sy.PostCountIndex = permute(sy.PostCountIndex, sy.SortIndex)
	sy.Sorted = true
}

// permute returns s reordered so that out[i] = s[idx[i]].
func permute[T any](s []T, idx []int32) []T {
	out := make([]T, len(s))
	for i, oi := range idx {
		out[i] = s[oi]
	}
	return out
}

// SortedIndex returns the current index of the synapse with given
// creation index.
func (sy *Synapses) SortedIndex(ci int) int {
	if !sy.Sorted {
		return ci
	}
	return int(sy.RevSortIndex[ci])
}

// Efferents returns the sorted range [st, ed) of synapses sent by the
// given presynaptic bucket.
func (sy *Synapses) Efferents(bucket int) (st, ed int) {
	st = int(sy.EffSt[bucket])
	return st, st + int(sy.EffN[bucket])
}

// GroupRange returns the creation-order range of synapse group gi,
// or the whole store for gi < 0.
func (sy *Synapses) GroupRange(gi int) (st, ed int, err error) {
	if gi < 0 {
		return 0, sy.N(), nil
	}
	if gi >= len(sy.Groups) {
		return 0, 0, configErrorf("synapse group %d out of range [0, %d)", gi, len(sy.Groups))
	}
	sg := &sy.Groups[gi]
	return sg.St, sg.Ed, nil
}

// Weights returns the current weights, in sorted order,
// copying them from the backend first if needed.
func (sy *Synapses) Weights() []float32 {
	sy.SyncFrontend()
	return sy.Wt
}

// InitBackend binds the backend for ctx.
func (sy *Synapses) InitBackend(ctx *Context) error {
	return sy.initBackend(ctx, SynapsesKind, sy)
}

// RegisterRule returns the id of the rule, registering it if new.
func (sy *Synapses) RegisterRule(rl Plasticity) int {
	for i, r := range sy.Rules {
		if r == rl {
			return i
		}
	}
	id := len(sy.Rules)
	sy.Rules = append(sy.Rules, rl)
	rl.SetRuleID(id)
	rl.SetSynapses(sy)
	return id
}

// UpdateAffStats computes the afferent count stats.
func (sy *Synapses) UpdateAffStats() {
	sy.AffNAvgMax.Init()
	for i, n := range sy.AffN {
		sy.AffNAvgMax.UpdateValue(float32(n), int32(i))
	}
	sy.AffNAvgMax.CalcAvg()
}

// SizeReport returns a string reporting the memory used by the store.
func (sy *Synapses) SizeReport() string {
	var b strings.Builder
	n := sy.N()
	// 8 slices of 4 bytes
	synMem := n * 8 * 4
	idxMem := 4 * (len(sy.SortIndex) + len(sy.RevSortIndex) + len(sy.EffSt) + len(sy.EffN) + len(sy.AffN))
	fmt.Fprintf(&b, "Synapses: %d\t Groups: %d\t Labels: %d\t Rules: %d\n", n, len(sy.Groups), len(sy.Labels), len(sy.Rules))
	for gi := range sy.Groups {
		sg := &sy.Groups[gi]
		fmt.Fprintf(&b, "\t%4d: %4d -> %4d\t Syns: %d\t SynMem: %v\n", gi, sg.Pre, sg.Post, sg.Len(), (datasize.ByteSize)(sg.Len()*8*4).HumanReadable())
	}
	fmt.Fprintf(&b, "SynMem: %v\t IndexMem: %v\n", (datasize.ByteSize)(synMem).HumanReadable(), (datasize.ByteSize)(idxMem).HumanReadable())
	if sy.Buf != nil {
		fmt.Fprintf(&b, "DelayBuffer: %d x %d\t Mem: %v\n", sy.Buf.TemporalSize, sy.Buf.InputSize, (datasize.ByteSize)(sy.Buf.Bytes()).HumanReadable())
	}
	return b.String()
}

// String returns a summary of the store.
func (sy *Synapses) String() string {
	return fmt.Sprintf("Synapses: N: %d Groups: %d Delay: [%d, %d] Sorted: %v", sy.N(), len(sy.Groups), sy.MinDelay, sy.MaxDelay, sy.Sorted)
}
