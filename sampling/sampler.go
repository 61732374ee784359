// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sampling provides weighted sampling without replacement.
package sampling

import (
	"errors"

	"cogentcore.org/core/base/randx"
)

// ErrExhausted is returned when more items are requested than remain.
var ErrExhausted = errors.New("sampling: not enough candidates with nonzero weight")

// Sampler draws candidates proportional to their weight, removing each
// chosen candidate (and its weight) before the next draw.
// It maintains parallel candidate and weight lists and can be reused
// across calls to avoid reallocation.
type Sampler struct {

	// remaining candidate ids
	Cands []int

	// weight of each remaining candidate
	Wts []float32

	// sum of remaining weights
	Total float32
}

// Reset clears the candidate lists, keeping capacity.
func (sm *Sampler) Reset() {
	sm.Cands = sm.Cands[:0]
	sm.Wts = sm.Wts[:0]
	sm.Total = 0
}

// Add adds a candidate with given weight. Non-positive weights
// are recorded but can never be drawn.
func (sm *Sampler) Add(cand int, wt float32) {
	if wt < 0 {
		wt = 0
	}
	sm.Cands = append(sm.Cands, cand)
	sm.Wts = append(sm.Wts, wt)
	sm.Total += wt
}

// Len returns the number of remaining candidates.
func (sm *Sampler) Len() int {
	return len(sm.Cands)
}

// Draw selects one candidate proportional to weight using a roulette
// draw against the remaining total, removes it, and returns its id.
func (sm *Sampler) Draw(rnd randx.Rand) (int, error) {
	n := len(sm.Cands)
	if n > 0 && sm.Total <= 0 {
		sm.recompute()
	}
	if n == 0 || sm.Total <= 0 {
		return -1, ErrExhausted
	}
	r := rnd.Float32() * sm.Total
	ci := -1
	var cum float32
	for i, w := range sm.Wts {
		if w <= 0 {
			continue
		}
		cum += w
		ci = i
		if r < cum {
			break
		}
	}
	if ci < 0 {
		return -1, ErrExhausted
	}
	cand := sm.Cands[ci]
	sm.remove(ci)
	return cand, nil
}

// remove deletes candidate at position i, renormalizing the total.
func (sm *Sampler) remove(i int) {
	last := len(sm.Cands) - 1
	sm.Total -= sm.Wts[i]
	sm.Cands[i] = sm.Cands[last]
	sm.Wts[i] = sm.Wts[last]
	sm.Cands = sm.Cands[:last]
	sm.Wts = sm.Wts[:last]
	if last == 0 || sm.Total < 0 {
		sm.recompute()
	}
}

// recompute re-sums the remaining weights, which removes
// accumulated float rounding from repeated subtraction.
func (sm *Sampler) recompute() {
	sm.Total = 0
	for _, w := range sm.Wts {
		sm.Total += w
	}
}

// Sample draws k distinct candidates, appending them to out.
// Returns ErrExhausted if fewer than k candidates have nonzero weight.
func (sm *Sampler) Sample(rnd randx.Rand, k int, out []int) ([]int, error) {
	for i := 0; i < k; i++ {
		c, err := sm.Draw(rnd)
		if err != nil {
			return out, err
		}
		out = append(out, c)
	}
	return out, nil
}
