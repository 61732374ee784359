// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spike

import (
	"testing"

	"cogentcore.org/core/base/randx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDt = float32(0.001)

// testPops makes an input group and two regular groups of given shapes.
func testPops(t *testing.T, inShape, aShape, bShape []int) (*InputNeurons, *Neurons, int, int, int) {
	in := &InputNeurons{}
	nr := &Neurons{}
	ig, err := in.AddGroup(inShape)
	require.NoError(t, err)
	ga, err := nr.AddGroup(aShape, nil)
	require.NoError(t, err)
	gb, err := nr.AddGroup(bShape, nil)
	require.NoError(t, err)
	return in, nr, ig, ga, gb
}

func testParams(typ ConnectTypes) *SynParams {
	sp := &SynParams{}
	sp.Defaults()
	sp.Type = typ
	sp.DelayRange.Set(0.001, 0.003)
	sp.WtRange.Set(0.2, 0.8)
	return sp
}

func TestAllToAllCount(t *testing.T) {
	in, nr, ig, ga, gb := testPops(t, []int{3, 2}, []int{4}, []int{5})
	rnd := randx.NewSysRand(1)
	sy := &Synapses{}
	g0, err := sy.AddGroup(ig, ga, nr, in, testDt, testParams(AllToAll), rnd)
	require.NoError(t, err)
	assert.Equal(t, 0, g0)
	assert.Equal(t, 6*4, sy.N())
	g1, err := sy.AddGroup(ga, gb, nr, in, testDt, testParams(AllToAll), rnd)
	require.NoError(t, err)
	assert.Equal(t, 1, g1)
	assert.Equal(t, 6*4+4*5, sy.N())
	assert.Equal(t, 4*5, sy.Groups[1].Len())
	assert.Equal(t, 24, sy.MaxGroupSize)

	// pre-major order and id encoding
	assert.Equal(t, int32(-1), sy.Pre[0])
	assert.Equal(t, int32(0), sy.Post[0])
	assert.Equal(t, int32(-1), sy.Pre[3])
	assert.Equal(t, int32(3), sy.Post[3])
	assert.Equal(t, int32(-2), sy.Pre[4])
	assert.Equal(t, int32(0), sy.Pre[24])
	assert.Equal(t, int32(4), sy.Post[24])

	for i := 0; i < sy.N(); i++ {
		assert.GreaterOrEqual(t, sy.Wt[i], float32(0.2))
		assert.LessOrEqual(t, sy.Wt[i], float32(0.8))
		assert.GreaterOrEqual(t, sy.Delay[i], int32(1))
		assert.LessOrEqual(t, sy.Delay[i], int32(3))
		assert.Equal(t, int32(-1), sy.Rule[i])
	}
	// every post neuron of group a gets 6 afferents, numbered 0..5
	for i := 0; i < 4; i++ {
		assert.Equal(t, int32(6), sy.AffN[i])
	}
	assert.Equal(t, int32(5), sy.PostCountIndex[23])
	assert.Equal(t, float32(6), sy.AffNAvgMax.Max)
}

func TestOneToOne(t *testing.T) {
	in, nr, ig, ga, gb := testPops(t, []int{4}, []int{4}, []int{5})
	rnd := randx.NewSysRand(1)
	sy := &Synapses{}
	_, err := sy.AddGroup(ig, ga, nr, in, testDt, testParams(OneToOne), rnd)
	require.NoError(t, err)
	assert.Equal(t, 4, sy.N())
	for i := 0; i < 4; i++ {
		assert.Equal(t, int32(-1-i), sy.Pre[i])
		assert.Equal(t, int32(i), sy.Post[i])
	}
	_, err = sy.AddGroup(ig, gb, nr, in, testDt, testParams(OneToOne), rnd)
	assert.ErrorIs(t, err, ErrConfig)
	assert.Equal(t, 4, sy.N())
	assert.Len(t, sy.Groups, 1)
}

func TestRandomReproducible(t *testing.T) {
	count := func(seed int64) []int32 {
		in, nr, ig, ga, _ := testPops(t, []int{20}, []int{30}, []int{1})
		sy := &Synapses{}
		sp := testParams(Random)
		sp.Prob = 0.25
		_, err := sy.AddGroup(ig, ga, nr, in, testDt, sp, randx.NewSysRand(seed))
		require.NoError(t, err)
		return sy.Post
	}
	a := count(5)
	b := count(5)
	assert.Equal(t, a, b)
	assert.InDelta(t, 150, len(a), 60)

	in, nr, ig, ga, _ := testPops(t, []int{2}, []int{2}, []int{1})
	sp := testParams(Random)
	sp.Prob = 1.5
	sy := &Synapses{}
	_, err := sy.AddGroup(ig, ga, nr, in, testDt, sp, randx.NewSysRand(1))
	assert.ErrorIs(t, err, ErrConfig)
}

func TestGaussianSampleDistinct(t *testing.T) {
	in, nr, ig, ga, _ := testPops(t, []int{8, 8}, []int{4, 4}, []int{1})
	sy := &Synapses{}
	sp := testParams(GaussianSample)
	sp.Sigma = 1.5
	sp.PerPost = 20
	_, err := sy.AddGroup(ig, ga, nr, in, testDt, sp, randx.NewSysRand(3))
	require.NoError(t, err)
	assert.Equal(t, 16*20, sy.N())
	pres := map[int32]map[int32]bool{}
	for i := 0; i < sy.N(); i++ {
		po := sy.Post[i]
		if pres[po] == nil {
			pres[po] = map[int32]bool{}
		}
		assert.False(t, pres[po][sy.Pre[i]], "post %d has pre %d twice", po, sy.Pre[i])
		pres[po][sy.Pre[i]] = true
	}
	assert.Len(t, pres, 16)

	// all candidates
	sy2 := &Synapses{}
	sp.PerPost = 64
	_, err = sy2.AddGroup(ig, ga, nr, in, testDt, sp, randx.NewSysRand(3))
	require.NoError(t, err)
	assert.Equal(t, 16*64, sy2.N())

	sp.PerPost = 65
	_, err = sy2.AddGroup(ig, ga, nr, in, testDt, sp, randx.NewSysRand(3))
	assert.ErrorIs(t, err, ErrConfig)
	assert.Equal(t, 16*64, sy2.N())
}

func TestGaussianSampleLocal(t *testing.T) {
	in, nr, ig, ga, _ := testPops(t, []int{10, 10}, []int{10, 10}, []int{1})
	sy := &Synapses{}
	sp := testParams(GaussianSample)
	sp.Sigma = 0.5
	sp.PerPost = 1
	_, err := sy.AddGroup(ig, ga, nr, in, testDt, sp, randx.NewSysRand(9))
	require.NoError(t, err)
	// with a narrow Gaussian over equal grids, partners are mostly the
	// matching neuron or its immediate neighbors
	near := 0
	for i := 0; i < sy.N(); i++ {
		pre := int(CorrectedPreID(int(sy.Pre[i]), true))
		post := int(sy.Post[i])
		dx := pre%10 - post%10
		dy := pre/10 - post/10
		if dx*dx+dy*dy <= 2 {
			near++
		}
	}
	assert.Greater(t, near, 90)
}

func TestPairwise(t *testing.T) {
	in, nr, ig, ga, _ := testPops(t, []int{3}, []int{4}, []int{1})
	rnd := randx.NewSysRand(1)
	sy := &Synapses{}
	sp := testParams(Pairwise)
	sp.PairPre = []int{0, 2, 1}
	sp.PairPost = []int{3, 0, 0}
	sp.PairWts = []float32{0.1, 0.2, 0.3}
	sp.PairDelays = []float32{0.001, 0.002, 0.005}
	_, err := sy.AddGroup(ig, ga, nr, in, testDt, sp, rnd)
	require.NoError(t, err)
	assert.Equal(t, []int32{-1, -3, -2}, sy.Pre)
	assert.Equal(t, []int32{3, 0, 0}, sy.Post)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, sy.Wt)
	assert.Equal(t, []int32{1, 2, 5}, sy.Delay)
	assert.Equal(t, int32(1), sy.MinDelay)
	assert.Equal(t, int32(5), sy.MaxDelay)

	bad := []struct {
		name      string
		pre, post []int
		wts       []float32
		delays    []float32
	}{
		{"negative pre", []int{-1}, []int{0}, nil, nil},
		{"pre out of range", []int{3}, []int{0}, nil, nil},
		{"negative post", []int{0}, []int{-1}, nil, nil},
		{"post out of range", []int{0}, []int{4}, nil, nil},
		{"length mismatch", []int{0, 1}, []int{0}, nil, nil},
		{"weight count", []int{0, 1}, []int{0, 1}, []float32{1}, nil},
		{"delay count", []int{0, 1}, []int{0, 1}, nil, []float32{0.001}},
		{"delay too short", []int{0}, []int{0}, nil, []float32{0.0001}},
	}
	for _, tc := range bad {
		sp := testParams(Pairwise)
		sp.PairPre = tc.pre
		sp.PairPost = tc.post
		sp.PairWts = tc.wts
		sp.PairDelays = tc.delays
		_, err := sy.AddGroup(ig, ga, nr, in, testDt, sp, rnd)
		assert.ErrorIs(t, err, ErrConfig, tc.name)
		assert.Equal(t, 3, sy.N(), tc.name)
		assert.Len(t, sy.Groups, 1, tc.name)
	}
}

func TestAddGroupErrors(t *testing.T) {
	in, nr, ig, ga, _ := testPops(t, []int{3}, []int{4}, []int{1})
	rnd := randx.NewSysRand(1)
	sy := &Synapses{}

	_, err := sy.AddGroup(ga, ig, nr, in, testDt, testParams(AllToAll), rnd)
	assert.ErrorIs(t, err, ErrConfig, "post is input")

	_, err = sy.AddGroup(ig, 7, nr, in, testDt, testParams(AllToAll), rnd)
	assert.ErrorIs(t, err, ErrConfig, "no post group")

	_, err = sy.AddGroup(InputGroupID(4), ga, nr, in, testDt, testParams(AllToAll), rnd)
	assert.ErrorIs(t, err, ErrConfig, "no pre group")

	sp := testParams(AllToAll)
	sp.DelayRange.Set(0.0001, 0.0001)
	_, err = sy.AddGroup(ig, ga, nr, in, testDt, sp, rnd)
	assert.ErrorIs(t, err, ErrConfig, "delay below one step")

	_, err = sy.AddGroup(ig, ga, nr, in, testDt, testParams(AllToAll), nil)
	assert.ErrorIs(t, err, ErrConfig, "nil rand")

	sp = testParams(AllToAll)
	sp.Label.Tau = 0
	_, err = sy.AddGroup(ig, ga, nr, in, testDt, sp, rnd)
	assert.ErrorIs(t, err, ErrConfig, "bad label")

	assert.Zero(t, sy.N())
	assert.Empty(t, sy.Labels)
}

func TestLabelDedupe(t *testing.T) {
	in, nr, ig, ga, gb := testPops(t, []int{3}, []int{4}, []int{2})
	rnd := randx.NewSysRand(1)
	sy := &Synapses{}
	sp := testParams(AllToAll)
	sp.Label = SynLabel{Kind: Conductance, Tau: 0.002, Erev: 0}
	_, err := sy.AddGroup(ig, ga, nr, in, testDt, sp, rnd)
	require.NoError(t, err)
	sp.Label = SynLabel{Kind: Conductance, Tau: 0.005, Erev: -0.07}
	_, err = sy.AddGroup(ga, gb, nr, in, testDt, sp, rnd)
	require.NoError(t, err)
	sp.Label = SynLabel{Kind: Conductance, Tau: 0.002, Erev: 0}
	_, err = sy.AddGroup(ig, gb, nr, in, testDt, sp, rnd)
	require.NoError(t, err)
	// voltage labels ignore Tau and Erev
	sp.Label = SynLabel{Kind: Voltage, Tau: 0.01}
	_, err = sy.AddGroup(gb, ga, nr, in, testDt, sp, rnd)
	require.NoError(t, err)
	sp.Label = SynLabel{Kind: Voltage, Tau: 0.03, Erev: 1}
	_, err = sy.AddGroup(gb, gb, nr, in, testDt, sp, rnd)
	require.NoError(t, err)

	assert.Len(t, sy.Labels, 3)
	assert.Equal(t, int32(0), sy.Groups[0].Label)
	assert.Equal(t, int32(1), sy.Groups[1].Label)
	assert.Equal(t, int32(0), sy.Groups[2].Label)
	assert.Equal(t, int32(2), sy.Groups[3].Label)
	assert.Equal(t, int32(2), sy.Groups[4].Label)
}

func TestRuleRegistration(t *testing.T) {
	in, nr, ig, ga, gb := testPops(t, []int{3}, []int{4}, []int{2})
	rnd := randx.NewSysRand(1)
	sy := &Synapses{}
	rl := NewWeightDependentSTDP()
	assert.Equal(t, -1, rl.RuleID())
	sp := testParams(AllToAll)
	sp.Rules = []Plasticity{rl}
	_, err := sy.AddGroup(ig, ga, nr, in, testDt, sp, rnd)
	require.NoError(t, err)
	_, err = sy.AddGroup(ga, gb, nr, in, testDt, testParams(AllToAll), rnd)
	require.NoError(t, err)
	_, err = sy.AddGroup(ig, gb, nr, in, testDt, sp, rnd)
	require.NoError(t, err)

	assert.Equal(t, 0, rl.RuleID())
	assert.Len(t, sy.Rules, 1)
	assert.Len(t, rl.Indices(), 12+6)
	for _, ci := range rl.Indices() {
		assert.Equal(t, int32(0), sy.Rule[ci])
	}
	for ci := 12; ci < 20; ci++ {
		assert.Equal(t, int32(-1), sy.Rule[ci])
	}
}
