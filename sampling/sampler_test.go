// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sampling

import (
	"testing"

	"cogentcore.org/core/base/randx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleDistinct(t *testing.T) {
	rnd := randx.NewSysRand(42)
	var sm Sampler
	for trial := 0; trial < 50; trial++ {
		sm.Reset()
		for i := 0; i < 20; i++ {
			sm.Add(i, float32(i%5)+0.1)
		}
		out, err := sm.Sample(rnd, 20, nil)
		require.NoError(t, err)
		seen := map[int]bool{}
		for _, c := range out {
			assert.False(t, seen[c], "duplicate candidate %d", c)
			seen[c] = true
		}
		assert.Len(t, seen, 20)
		assert.Zero(t, sm.Len())
	}
}

func TestSampleExhausted(t *testing.T) {
	rnd := randx.NewSysRand(1)
	var sm Sampler
	sm.Add(0, 1)
	sm.Add(1, 0)
	sm.Add(2, 1)
	out, err := sm.Sample(rnd, 3, nil)
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Len(t, out, 2)
	assert.NotContains(t, out, 1)
}

func TestSampleBias(t *testing.T) {
	rnd := randx.NewSysRand(7)
	var sm Sampler
	n0 := 0
	for trial := 0; trial < 2000; trial++ {
		sm.Reset()
		sm.Add(0, 9)
		sm.Add(1, 1)
		c, err := sm.Draw(rnd)
		require.NoError(t, err)
		if c == 0 {
			n0++
		}
	}
	assert.InDelta(t, 0.9, float64(n0)/2000, 0.05)
}
