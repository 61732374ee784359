// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spike

import (
	"github.com/pkg/errors"
)

func init() {
	for _, tg := range []Targets{Serial, Parallel} {
		RegisterBackend(tg, WeightDepSTDPKind, func(ctx *Context, front any) (Backend, error) {
			rl, ok := front.(*WeightDependentSTDP)
			if !ok {
				return nil, errors.Errorf("spike: WeightDependentSTDP backend for %T", front)
			}
			return &weightDepEngine{ruleEngine: ruleEngine{rb: &rl.RuleBase, exec: ctx.Exec}, rl: rl}, nil
		})
		RegisterBackend(tg, EvansSTDPKind, func(ctx *Context, front any) (Backend, error) {
			rl, ok := front.(*EvansSTDP)
			if !ok {
				return nil, errors.Errorf("spike: EvansSTDP backend for %T", front)
			}
			return &evansEngine{ruleEngine: ruleEngine{rb: &rl.RuleBase, exec: ctx.Exec}, rl: rl}, nil
		})
		RegisterBackend(tg, InhibitorySTDPKind, func(ctx *Context, front any) (Backend, error) {
			rl, ok := front.(*InhibitorySTDP)
			if !ok {
				return nil, errors.Errorf("spike: InhibitorySTDP backend for %T", front)
			}
			return &inhibEngine{ruleEngine: ruleEngine{rb: &rl.RuleBase, exec: ctx.Exec}, rl: rl}, nil
		})
	}
}

// ruleEngine has the state shared by the rule backends: the rule's
// synapses in sorted order, with their pre buckets and post neurons,
// and per-neuron traces.  Weights are those of the Synapses backend,
// so the Parallel target updates the device copy.
type ruleEngine struct {
	rb   *RuleBase
	exec Exec
	sb   SynapseBackend

	// sorted synapse index, per rule synapse
	syn []int32

	// presynaptic bucket, per rule synapse
	pre []int32

	// postsynaptic neuron, per rule synapse
	post []int32

	// presynaptic trace, per bucket: input neurons then regular
	preTr []float32

	// postsynaptic trace, per regular neuron
	postTr []float32

	// step size the parameters were updated for
	dt float32
}

func (re *ruleEngine) prepare() error {
	sy := re.rb.Syn
	if sy == nil {
		return configErrorf("plasticity rule is not registered with a Synapses store")
	}
	sb, err := synBackend(sy)
	if err != nil {
		return err
	}
	re.sb = sb
	n := len(re.rb.Idxs)
	re.syn = make([]int32, n)
	re.pre = make([]int32, n)
	re.post = make([]int32, n)
	for k, ci := range re.rb.Idxs {
		si := sy.SortedIndex(int(ci))
		re.syn[k] = int32(si)
		re.pre[k] = int32(sy.PreBucket(sy.Pre[si]))
		re.post[k] = sy.Post[si]
	}
	re.preTr = make([]float32, sy.NInput+sy.NRegular)
	re.postTr = make([]float32, sy.NRegular)
	re.dt = 0
	return nil
}

func (re *ruleEngine) reset() {
	clear(re.preTr)
	clear(re.postTr)
}

// preSpiked returns true if presynaptic bucket b spiked at step g of the
// previous group.
func (re *ruleEngine) preSpiked(g, b int) bool {
	sy := re.rb.Syn
	if b < sy.NInput {
		return sy.Inputs.PrevSpiked(g, b)
	}
	return sy.Nrns.Spiked(g, b-sy.NInput)
}

// postSpiked returns true if regular neuron ni spiked at step g of the
// previous group.
func (re *ruleEngine) postSpiked(g, ni int) bool {
	return re.rb.Syn.Nrns.Spiked(g, ni)
}

// decay multiplies all neuron traces by their per-step decay.
func (re *ruleEngine) decay(preDecay, postDecay float32) {
	re.exec.Run(len(re.preTr), func(st, ed int) {
		for b := st; b < ed; b++ {
			re.preTr[b] *= preDecay
		}
	})
	re.exec.Run(len(re.postTr), func(st, ed int) {
		for i := st; i < ed; i++ {
			re.postTr[i] *= postDecay
		}
	})
}

// bump applies the spike function to the traces of neurons that spiked.
func (re *ruleEngine) bump(g int, preFun, postFun func(tr float32) float32) {
	if preFun != nil {
		re.exec.Run(len(re.preTr), func(st, ed int) {
			for b := st; b < ed; b++ {
				if re.preSpiked(g, b) {
					re.preTr[b] = preFun(re.preTr[b])
				}
			}
		})
	}
	if postFun != nil {
		re.exec.Run(len(re.postTr), func(st, ed int) {
			for i := st; i < ed; i++ {
				if re.postSpiked(g, i) {
					re.postTr[i] = postFun(re.postTr[i])
				}
			}
		})
	}
}

func (re *ruleEngine) CopyToFrontend() {}

func (re *ruleEngine) CopyToBackend() {}

// ruleGrouping returns the number of steps in the previous group.
func (re *ruleEngine) ruleGrouping(grouping int) int {
	return min(grouping, re.rb.Syn.Nrns.Grouping)
}

//////////////////////////////////////////////////////////////////////////////////////
//  WeightDependentSTDP

type weightDepEngine struct {
	ruleEngine
	rl *WeightDependentSTDP
}

func (we *weightDepEngine) Prepare() error {
	return we.prepare()
}

func (we *weightDepEngine) ResetState() {
	we.reset()
}

func (we *weightDepEngine) StateUpdate(t uint32, dt float32, grouping int) {
	wp := &we.rl.Params
	if dt != we.dt {
		wp.Update(dt)
		we.dt = dt
	}
	wt := we.sb.Weights()
	for g := 0; g < we.ruleGrouping(grouping); g++ {
		we.decay(wp.Pre.Decay, wp.Post.Decay)
		we.exec.Run(len(we.syn), func(st, ed int) {
			for k := st; k < ed; k++ {
				b := int(we.pre[k])
				p := int(we.post[k])
				s := we.syn[k]
				prs := we.preSpiked(g, b)
				pos := we.postSpiked(g, p)
				if !prs && !pos {
					continue
				}
				w := wt[s]
				if prs {
					w = wp.LTD(w, we.postTr[p])
				}
				if pos {
					w = wp.LTP(w, we.preTr[b])
				}
				wt[s] = wp.Clamp(w)
			}
		})
		we.bump(g, wp.Bump, wp.Bump)
	}
}

//////////////////////////////////////////////////////////////////////////////////////
//  EvansSTDP

type evansEngine struct {
	ruleEngine
	rl *EvansSTDP

	// presynaptic C trace, per rule synapse
	c []float32
}

func (ee *evansEngine) Prepare() error {
	if err := ee.prepare(); err != nil {
		return err
	}
	ee.c = make([]float32, len(ee.syn))
	return nil
}

func (ee *evansEngine) ResetState() {
	ee.reset()
	clear(ee.c)
}

func (ee *evansEngine) StateUpdate(t uint32, dt float32, grouping int) {
	ep := &ee.rl.Params
	if dt != ee.dt {
		ep.Update(dt)
		ee.dt = dt
	}
	wt := ee.sb.Weights()
	for g := 0; g < ee.ruleGrouping(grouping); g++ {
		// D lives in postTr; preTr is unused
		ee.decay(0, ep.D.Decay)
		ee.exec.Run(len(ee.syn), func(st, ed int) {
			for k := st; k < ed; k++ {
				b := int(ee.pre[k])
				p := int(ee.post[k])
				s := ee.syn[k]
				c := ee.c[k] * ep.C.Decay
				prs := ee.preSpiked(g, b)
				pos := ee.postSpiked(g, p)
				if prs || pos {
					w := wt[s]
					if prs {
						w = ep.LTD(w, ee.postTr[p])
					}
					if pos {
						w = ep.LTP(w, c)
					}
					wt[s] = ep.Clamp(w)
				}
				if prs {
					c = ep.BumpC(c)
				}
				ee.c[k] = c
			}
		})
		ee.bump(g, nil, ep.BumpD)
	}
}

//////////////////////////////////////////////////////////////////////////////////////
//  InhibitorySTDP

type inhibEngine struct {
	ruleEngine
	rl *InhibitorySTDP

	// weight change momentum, per rule synapse
	mom []float32
}

func (ie *inhibEngine) Prepare() error {
	if err := ie.prepare(); err != nil {
		return err
	}
	ie.mom = make([]float32, len(ie.syn))
	return nil
}

func (ie *inhibEngine) ResetState() {
	ie.reset()
	clear(ie.mom)
}

func inhibBump(tr float32) float32 { return tr + 1 }

func (ie *inhibEngine) StateUpdate(t uint32, dt float32, grouping int) {
	ip := &ie.rl.Params
	if dt != ie.dt {
		ip.Update(dt)
		ie.dt = dt
	}
	wt := ie.sb.Weights()
	for g := 0; g < ie.ruleGrouping(grouping); g++ {
		ie.decay(ip.Trace.Decay, ip.Trace.Decay)
		ie.exec.Run(len(ie.syn), func(st, ed int) {
			for k := st; k < ed; k++ {
				b := int(ie.pre[k])
				p := int(ie.post[k])
				s := ie.syn[k]
				var dw float32
				upd := false
				if ie.preSpiked(g, b) {
					dw += ip.PreDelta(ie.postTr[p])
					upd = true
				}
				if ie.postSpiked(g, p) {
					dw += ip.PostDelta(ie.preTr[b])
					upd = true
				}
				if !upd {
					continue
				}
				w, m := ip.Apply(wt[s], ie.mom[k], dw)
				ie.mom[k] = m
				wt[s] = ip.Clamp(w)
			}
		})
		ie.bump(g, inhibBump, inhibBump)
	}
}
