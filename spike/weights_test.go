// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spike

import (
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readLines(t *testing.T, fn string) []string {
	b, err := os.ReadFile(fn)
	require.NoError(t, err)
	return strings.Fields(string(b))
}

func TestWeightsBinaryBits(t *testing.T) {
	sy, in, nr := mixedStore(t)
	sy.Sort(in.N, nr.N)
	// awkward values survive exactly
	sy.Wt[0] = math.Float32frombits(0x3f9e0419)
	sy.Wt[1] = math.SmallestNonzeroFloat32
	orig := append([]float32(nil), sy.Wt...)

	dir := t.TempDir()
	require.NoError(t, sy.SaveWeightsBinary(dir, "all_", -1))
	fn := filepath.Join(dir, "all_"+WeightsFile+".bin")
	fi, err := os.Stat(fn)
	require.NoError(t, err)
	assert.Equal(t, int64(4*sy.N()), fi.Size())

	for i := range sy.Wt {
		sy.Wt[i] = -1
	}
	require.NoError(t, sy.LoadWeightsBinary(fn, -1))
	for i := range orig {
		assert.Equal(t, math.Float32bits(orig[i]), math.Float32bits(sy.Wt[i]), "synapse %d", i)
	}
}

func TestWeightsTextRoundTrip(t *testing.T) {
	sy, in, nr := mixedStore(t)
	sy.Sort(in.N, nr.N)
	sy.Wt[sy.SortedIndex(0)] = 0.1
	orig := append([]float32(nil), sy.Wt...)
	dir := t.TempDir()
	require.NoError(t, sy.SaveWeightsText(dir, "", -1))
	fn := filepath.Join(dir, WeightsFile+".txt")
	lines := readLines(t, fn)
	require.Len(t, lines, sy.N())
	assert.Equal(t, "0.1", lines[0])

	for i := range sy.Wt {
		sy.Wt[i] = 0
	}
	require.NoError(t, sy.LoadWeightsText(fn, -1))
	assert.Equal(t, orig, sy.Wt)
}

func TestGroupWeights(t *testing.T) {
	sy, in, nr := mixedStore(t)
	sy.Sort(in.N, nr.N)
	st, ed, _ := sy.GroupRange(3)
	vals := make([]float32, ed-st)
	for i := range vals {
		vals[i] = float32(i) / 8
	}
	require.NoError(t, sy.LoadWeights(vals, 3))
	for ci := st; ci < ed; ci++ {
		assert.Equal(t, vals[ci-st], sy.Wt[sy.SortedIndex(ci)])
	}
	got, err := sy.exportWeights(3)
	require.NoError(t, err)
	assert.Equal(t, vals, got)

	err = sy.LoadWeights(vals[:2], 3)
	assert.ErrorIs(t, err, ErrConfig)
	err = sy.LoadWeights(vals, 9)
	assert.ErrorIs(t, err, ErrConfig)

	dir := t.TempDir()
	require.NoError(t, sy.SaveWeightsBinary(dir, "g3_", 3))
	// group 2 has a different size
	err = sy.LoadWeightsBinary(filepath.Join(dir, "g3_"+WeightsFile+".bin"), 2)
	assert.ErrorIs(t, err, ErrConfig)
	assert.Error(t, sy.LoadWeightsText(filepath.Join(dir, "missing.txt"), 3))
}

func TestConnectivityExport(t *testing.T) {
	sy, in, nr := mixedStore(t)
	sy.Sort(in.N, nr.N)
	dir := t.TempDir()

	// group 2: regular b (neurons 4..6) to a (0..3), all to all
	require.NoError(t, sy.SaveConnectivityText(dir, "g2_", 2))
	pre := readLines(t, filepath.Join(dir, "g2_"+PreIDsFile+".txt"))
	post := readLines(t, filepath.Join(dir, "g2_"+PostIDsFile+".txt"))
	wts := readLines(t, filepath.Join(dir, "g2_"+WeightsFile+".txt"))
	require.Len(t, pre, 12)
	require.Len(t, post, 12)
	require.Len(t, wts, 12)
	for k := 0; k < 12; k++ {
		assert.Equal(t, strconv.Itoa(k/4), pre[k])
		assert.Equal(t, strconv.Itoa(k%4), post[k])
	}

	// group 3: input (0..4) to regular b, all to all
	require.NoError(t, sy.SaveConnectivityBinary(dir, "g3_", 3))
	b, err := os.ReadFile(filepath.Join(dir, "g3_"+PreIDsFile+".bin"))
	require.NoError(t, err)
	require.Len(t, b, 4*15)
	// last pre id is input neuron 4, stored little-endian
	assert.Equal(t, []byte{4, 0, 0, 0}, b[4*14:])

	// whole store keeps the stored encoding
	require.NoError(t, sy.SaveConnectivityText(dir, "all_", -1))
	pre = readLines(t, filepath.Join(dir, "all_"+PreIDsFile+".txt"))
	require.Len(t, pre, sy.N())
	st, _, _ := sy.GroupRange(3)
	assert.Equal(t, "-1", pre[st])
}
