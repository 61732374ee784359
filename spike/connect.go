// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spike

import (
	"fmt"

	"cogentcore.org/core/base/randx"
	"cogentcore.org/core/math32"
	"cogentcore.org/core/math32/minmax"
	"github.com/emer/spike/sampling"
)

// ConnectTypes are the connectivity patterns made by AddGroup.
type ConnectTypes int32

const (
	// AllToAll connects every presynaptic neuron to every postsynaptic neuron.
	AllToAll ConnectTypes = iota

	// OneToOne connects neurons at matching offsets in equal sized groups.
	OneToOne

	// Random connects each pair independently with probability Prob.
	Random

	// GaussianSample connects each postsynaptic neuron to PerPost distinct
	// presynaptic neurons drawn with a 2D Gaussian weighting (Sigma) around
	// the point of the presynaptic grid matching its own grid position.
	GaussianSample

	// Pairwise connects explicit lists of group-relative pre and post indexes.
	Pairwise

	ConnectTypesN
)

var connectTypeNames = [ConnectTypesN]string{"AllToAll", "OneToOne", "Random", "GaussianSample", "Pairwise"}

func (ct ConnectTypes) String() string {
	if ct < 0 || ct >= ConnectTypesN {
		return fmt.Sprintf("ConnectTypes(%d)", int32(ct))
	}
	return connectTypeNames[ct]
}

func (ct ConnectTypes) MarshalText() ([]byte, error) { return []byte(ct.String()), nil }

func (ct *ConnectTypes) UnmarshalText(text []byte) error {
	for i, nm := range connectTypeNames {
		if nm == string(text) {
			*ct = ConnectTypes(i)
			return nil
		}
	}
	return configErrorf("unknown connectivity type %q", text)
}

// SynParams are the parameters for one AddGroup call.
type SynParams struct {

	// connectivity pattern
	Type ConnectTypes

	// connection probability, for Random
	Prob float32 `min:"0" max:"1"`

	// Gaussian width in presynaptic grid units, for GaussianSample
	Sigma float32 `min:"0"`

	// number of presynaptic partners per postsynaptic neuron, for GaussianSample
	PerPost int

	// group-relative presynaptic indexes, for Pairwise
	PairPre []int

	// group-relative postsynaptic indexes, for Pairwise
	PairPost []int

	// optional explicit weights, for Pairwise: empty or one per pair
	PairWts []float32

	// optional explicit delays in seconds, for Pairwise: empty or one per pair
	PairDelays []float32

	// initial weights are uniform in this range
	WtRange minmax.F32 `display:"inline"`

	// weight scaling constant
	WtScale float32 `def:"1"`

	// axonal delays in seconds are uniform in this range,
	// rounded to whole timesteps
	DelayRange minmax.F32 `display:"inline"`

	// shared constants for the group
	Label SynLabel `display:"inline"`

	// plasticity rules applied to the group
	Rules []Plasticity `display:"-" toml:"-"`
}

func (sp *SynParams) Defaults() {
	sp.Type = AllToAll
	sp.Prob = 0.1
	sp.Sigma = 1
	sp.PerPost = 1
	sp.WtRange.Set(1, 1)
	sp.WtScale = 1
	sp.DelayRange.Set(0.0001, 0.0001)
	sp.Label.Kind = Conductance
	sp.Label.Tau = 0.002
	sp.Label.Erev = 0
}

// conPair is one connection, as group-relative indexes and its position
// in the pattern list.
type conPair struct {
	pre, post int
	pi        int
}

// AddGroup connects presynaptic group pre (an input group if negative)
// to regular postsynaptic group post with the pattern in pars, appending
// the new synapses to the store.  rnd supplies all random draws.
// Returns the new synapse group id.  On error the store is unchanged.
func (sy *Synapses) AddGroup(pre, post int, nrns *Neurons, inputs *InputNeurons, dt float32, pars *SynParams, rnd randx.Rand) (int, error) {
	if sy.Sorted {
		return -1, configErrorf("cannot add synapse groups after Sort")
	}
	if pars == nil || nrns == nil {
		return -1, configErrorf("AddGroup needs params and neurons")
	}
	if rnd == nil {
		return -1, configErrorf("AddGroup needs a random generator")
	}
	if dt <= 0 {
		return -1, configErrorf("timestep %g must be positive", dt)
	}
	if post < 0 {
		return -1, configErrorf("postsynaptic group %d is an input group", post)
	}
	pog := nrns.Group(post)
	if pog == nil {
		return -1, configErrorf("postsynaptic group %d does not exist", post)
	}
	var prg *NeuronGroup
	preIsInput := pre < 0
	if preIsInput {
		if inputs == nil {
			return -1, configErrorf("presynaptic input group %d with no input neurons", pre)
		}
		prg = inputs.Group(pre)
	} else {
		prg = nrns.Group(pre)
	}
	if prg == nil {
		return -1, configErrorf("presynaptic group %d does not exist", pre)
	}
	if err := pars.Label.Validate(); err != nil {
		return -1, err
	}
	if pars.WtRange.Max < pars.WtRange.Min {
		return -1, configErrorf("weight range [%g, %g] is inverted", pars.WtRange.Min, pars.WtRange.Max)
	}
	if pars.DelayRange.Max < pars.DelayRange.Min {
		return -1, configErrorf("delay range [%g, %g] is inverted", pars.DelayRange.Min, pars.DelayRange.Max)
	}

	pairs, err := sy.connectPairs(prg, pog, pars, rnd)
	if err != nil {
		return -1, err
	}
	if pars.Type == Pairwise {
		for _, d := range pars.PairDelays {
			if delaySteps(d, dt) < 1 {
				return -1, configErrorf("pairwise delay %g is less than one timestep of %g", d, dt)
			}
		}
	}
	if pars.Type != Pairwise || len(pars.PairDelays) == 0 {
		if delaySteps(pars.DelayRange.Min, dt) < 1 {
			return -1, configErrorf("delay %g is less than one timestep of %g", pars.DelayRange.Min, dt)
		}
	}

	lbl := sy.LabelID(pars.Label)
	ns := len(pairs)
	st, ed := sy.Grow(ns)
	if len(sy.AffN) < nrns.N {
		sy.AffN = growSlice(sy.AffN, nrns.N)
	}
	ruleID := int32(-1)
	for _, rl := range pars.Rules {
		if rl == nil {
			continue
		}
		id := sy.RegisterRule(rl)
		if ruleID < 0 {
			ruleID = int32(id)
		}
		rl.AddSynapseIndices(st, ns)
	}
	for k, pr := range pairs {
		si := st + k
		sy.Pre[si] = int32(CorrectedPreID(prg.St+pr.pre, preIsInput))
		pi := pog.St + pr.post
		sy.Post[si] = int32(pi)
		if pars.Type == Pairwise && len(pars.PairWts) > 0 {
			sy.Wt[si] = pars.PairWts[pr.pi]
		} else {
			sy.Wt[si] = uniform(pars.WtRange, rnd)
		}
		sy.Scale[si] = pars.WtScale
		var d int32
		if pars.Type == Pairwise && len(pars.PairDelays) > 0 {
			d = delaySteps(pars.PairDelays[pr.pi], dt)
		} else {
			d = max(delaySteps(uniform(pars.DelayRange, rnd), dt), 1)
		}
		sy.Delay[si] = d
		if sy.MinDelay == 0 || d < sy.MinDelay {
			sy.MinDelay = d
		}
		sy.MaxDelay = max(sy.MaxDelay, d)
		sy.Label[si] = lbl
		sy.Rule[si] = ruleID
		sy.PostCountIndex[si] = sy.AffN[pi]
		sy.AffN[pi]++
	}
	sy.MaxGroupSize = max(sy.MaxGroupSize, ns)
	sy.Groups = append(sy.Groups, SynapseGroup{Pre: pre, Post: post, St: st, Ed: ed, PreStart: prg.St, PostStart: pog.St, PreIsInput: preIsInput, Label: lbl})
	sy.UpdateAffStats()
	return len(sy.Groups) - 1, nil
}

// connectPairs expands the pattern into group-relative pairs,
// validating all pattern parameters.
func (sy *Synapses) connectPairs(prg, pog *NeuronGroup, pars *SynParams, rnd randx.Rand) ([]conPair, error) {
	npre := prg.Len()
	npost := pog.Len()
	var pairs []conPair
	switch pars.Type {
	case AllToAll:
		pairs = make([]conPair, 0, npre*npost)
		for i := 0; i < npre; i++ {
			for j := 0; j < npost; j++ {
				pairs = append(pairs, conPair{pre: i, post: j})
			}
		}
	case OneToOne:
		if npre != npost {
			return nil, configErrorf("OneToOne needs equal group sizes, pre: %d post: %d", npre, npost)
		}
		pairs = make([]conPair, npre)
		for i := range pairs {
			pairs[i] = conPair{pre: i, post: i}
		}
	case Random:
		if pars.Prob < 0 || pars.Prob > 1 {
			return nil, configErrorf("Random connection probability %g outside [0, 1]", pars.Prob)
		}
		for i := 0; i < npre; i++ {
			for j := 0; j < npost; j++ {
				if rnd.Float32() < pars.Prob {
					pairs = append(pairs, conPair{pre: i, post: j})
				}
			}
		}
	case GaussianSample:
		return gaussianPairs(prg, pog, pars, rnd)
	case Pairwise:
		np := len(pars.PairPre)
		if len(pars.PairPost) != np {
			return nil, configErrorf("Pairwise has %d pre but %d post indexes", np, len(pars.PairPost))
		}
		if len(pars.PairWts) > 0 && len(pars.PairWts) != np {
			return nil, configErrorf("Pairwise has %d weights for %d pairs", len(pars.PairWts), np)
		}
		if len(pars.PairDelays) > 0 && len(pars.PairDelays) != np {
			return nil, configErrorf("Pairwise has %d delays for %d pairs", len(pars.PairDelays), np)
		}
		pairs = make([]conPair, np)
		for k := 0; k < np; k++ {
			pi, pj := pars.PairPre[k], pars.PairPost[k]
			if pi < 0 || pi >= npre {
				return nil, configErrorf("Pairwise pre index %d outside [0, %d)", pi, npre)
			}
			if pj < 0 || pj >= npost {
				return nil, configErrorf("Pairwise post index %d outside [0, %d)", pj, npost)
			}
			pairs[k] = conPair{pre: pi, post: pj, pi: k}
		}
	default:
		return nil, configErrorf("unknown connectivity type %d", pars.Type)
	}
	return pairs, nil
}

// gaussianPairs draws PerPost distinct presynaptic partners for each
// postsynaptic neuron, weighted by an unnormalized 2D Gaussian of the
// distance to the point on the presynaptic grid that corresponds to the
// postsynaptic neuron's relative grid position.
func gaussianPairs(prg, pog *NeuronGroup, pars *SynParams, rnd randx.Rand) ([]conPair, error) {
	npre := prg.Len()
	npost := pog.Len()
	k := pars.PerPost
	if k < 0 || k > npre {
		return nil, configErrorf("GaussianSample PerPost %d outside [0, %d]", k, npre)
	}
	if pars.Sigma <= 0 {
		return nil, configErrorf("GaussianSample Sigma %g must be positive", pars.Sigma)
	}
	px, py := prg.XY()
	qx, qy := pog.XY()
	norm := 2 * pars.Sigma * pars.Sigma
	var sm sampling.Sampler
	pairs := make([]conPair, 0, k*npost)
	out := make([]int, 0, k)
	for j := 0; j < npost; j++ {
		fx := float32(j%qx) / float32(qx)
		fy := float32(j/qx) / float32(qy)
		cx := float32(int(float32(px) * fx))
		cy := float32(int(float32(py) * fy))
		sm.Reset()
		for i := 0; i < npre; i++ {
			dx := float32(i%px) - cx
			dy := float32(i/px) - cy
			sm.Add(i, math32.Exp(-(dx*dx)/norm)*math32.Exp(-(dy*dy)/norm))
		}
		var err error
		out, err = sm.Sample(rnd, k, out[:0])
		if err != nil {
			return nil, configErrorf("GaussianSample could not draw %d partners for post %d with Sigma %g: %v", k, j, pars.Sigma, err)
		}
		for _, i := range out {
			pairs = append(pairs, conPair{pre: i, post: j})
		}
	}
	return pairs, nil
}

// uniform returns a value uniform in rng, or Min if the range is empty.
func uniform(rng minmax.F32, rnd randx.Rand) float32 {
	if rng.Max == rng.Min {
		return rng.Min
	}
	return rng.Min + rnd.Float32()*(rng.Max-rng.Min)
}

// delaySteps converts a delay in seconds to whole timesteps.
func delaySteps(d, dt float32) int32 {
	return int32(math32.Round(d / dt))
}
