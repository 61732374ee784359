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

func TestGrowPreserves(t *testing.T) {
	sy := &Synapses{}
	st, ed := sy.Grow(3)
	assert.Equal(t, 0, st)
	assert.Equal(t, 3, ed)
	sy.Wt[1] = 0.5
	sy.Pre[2] = -4
	st, ed = sy.Grow(2)
	assert.Equal(t, 3, st)
	assert.Equal(t, 5, ed)
	assert.Equal(t, float32(0.5), sy.Wt[1])
	assert.Equal(t, int32(-4), sy.Pre[2])
	assert.Equal(t, int32(-1), sy.Rule[4])
	st, ed = sy.Grow(0)
	assert.Equal(t, st, ed)
	assert.Equal(t, 5, sy.N())
	for _, n := range []int{len(sy.Post), len(sy.Scale), len(sy.Delay), len(sy.Label), len(sy.PostCountIndex)} {
		assert.Equal(t, 5, n)
	}
}

// mixedStore connects input and regular groups in an interleaved order.
func mixedStore(t *testing.T) (*Synapses, *InputNeurons, *Neurons) {
	in, nr, ig, ga, gb := testPops(t, []int{5}, []int{4}, []int{3})
	rnd := randx.NewSysRand(2)
	sy := &Synapses{}
	sp := testParams(Random)
	sp.Prob = 0.5
	_, err := sy.AddGroup(ga, gb, nr, in, testDt, sp, rnd)
	require.NoError(t, err)
	_, err = sy.AddGroup(ig, ga, nr, in, testDt, sp, rnd)
	require.NoError(t, err)
	_, err = sy.AddGroup(gb, ga, nr, in, testDt, testParams(AllToAll), rnd)
	require.NoError(t, err)
	_, err = sy.AddGroup(ig, gb, nr, in, testDt, testParams(AllToAll), rnd)
	require.NoError(t, err)
	return sy, in, nr
}

func TestSortOrder(t *testing.T) {
	sy, in, nr := mixedStore(t)
	n := sy.N()
	origPre := append([]int32(nil), sy.Pre...)
	origPost := append([]int32(nil), sy.Post...)
	origWt := append([]float32(nil), sy.Wt...)

	sy.Sort(in.N, nr.N)
	require.True(t, sy.Sorted)
	assert.Equal(t, n, sy.N())

	// nondecreasing bucket, stable within a bucket
	for i := 1; i < n; i++ {
		b0 := sy.PreBucket(sy.Pre[i-1])
		b1 := sy.PreBucket(sy.Pre[i])
		assert.LessOrEqual(t, b0, b1)
		if b0 == b1 {
			assert.Less(t, sy.SortIndex[i-1], sy.SortIndex[i])
		}
	}
	// permutation and its inverse
	for ci := 0; ci < n; ci++ {
		si := sy.RevSortIndex[ci]
		assert.Equal(t, int32(ci), sy.SortIndex[si])
		assert.Equal(t, origPre[ci], sy.Pre[si])
		assert.Equal(t, origPost[ci], sy.Post[si])
		assert.Equal(t, origWt[ci], sy.Wt[si])
		assert.Equal(t, int(si), sy.SortedIndex(ci))
	}
	// efferent index covers every synapse once
	tot := 0
	for b := 0; b < in.N+nr.N; b++ {
		st, ed := sy.Efferents(b)
		for s := st; s < ed; s++ {
			assert.Equal(t, b, sy.PreBucket(sy.Pre[s]))
		}
		tot += ed - st
	}
	assert.Equal(t, n, tot)
	// input 0 projects to all 3 of group b
	assert.GreaterOrEqual(t, sy.EffN[0], int32(3))
	assert.Len(t, sy.EffN, in.N+nr.N)

	// idempotent
	pre := append([]int32(nil), sy.Pre...)
	sidx := append([]int32(nil), sy.SortIndex...)
	sy.Sort(in.N, nr.N)
	assert.Equal(t, pre, sy.Pre)
	assert.Equal(t, sidx, sy.SortIndex)
}

func TestSortEmpty(t *testing.T) {
	sy := &Synapses{}
	sy.Sort(3, 2)
	assert.True(t, sy.Sorted)
	assert.Len(t, sy.EffN, 5)
	st, ed := sy.Efferents(4)
	assert.Equal(t, st, ed)
}

func TestSizeReport(t *testing.T) {
	sy, in, nr := mixedStore(t)
	sy.Sort(in.N, nr.N)
	rep := sy.SizeReport()
	assert.Contains(t, rep, "Synapses:")
	assert.Contains(t, rep, "SynMem:")
	assert.Contains(t, sy.String(), "Sorted: true")
}

func TestGroupRange(t *testing.T) {
	sy, _, _ := mixedStore(t)
	st, ed, err := sy.GroupRange(2)
	require.NoError(t, err)
	assert.Equal(t, 3*4, ed-st)
	st, ed, err = sy.GroupRange(-1)
	require.NoError(t, err)
	assert.Equal(t, 0, st)
	assert.Equal(t, sy.N(), ed)
	_, _, err = sy.GroupRange(4)
	assert.ErrorIs(t, err, ErrConfig)
}
