// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spike

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
)

// File name suffixes, appended to the caller's prefix.
const (
	PreIDsFile  = "PresynapticIDs"
	PostIDsFile = "PostsynapticIDs"
	WeightsFile = "SynapticWeights"
)

// exportIDs returns the presynaptic and postsynaptic ids of creation
// index ci, relative to group gi if gi >= 0, and as stored otherwise.
func (sy *Synapses) exportIDs(ci, gi int) (pre, post int32) {
	si := sy.SortedIndex(ci)
	pre = sy.Pre[si]
	post = sy.Post[si]
	if gi < 0 {
		return
	}
	sg := &sy.Groups[gi]
	pre = int32(CorrectedPreID(int(pre), sg.PreIsInput) - sg.PreStart)
	post -= int32(sg.PostStart)
	return
}

// exportWeights returns the weights of group gi (all if < 0) in
// creation order.
func (sy *Synapses) exportWeights(gi int) ([]float32, error) {
	st, ed, err := sy.GroupRange(gi)
	if err != nil {
		return nil, err
	}
	wt := sy.Weights()
	vals := make([]float32, ed-st)
	for ci := st; ci < ed; ci++ {
		vals[ci-st] = wt[sy.SortedIndex(ci)]
	}
	return vals, nil
}

func (sy *Synapses) exportConnectivity(gi int) (pre, post []int32, wts []float32, err error) {
	wts, err = sy.exportWeights(gi)
	if err != nil {
		return
	}
	st, ed, _ := sy.GroupRange(gi)
	pre = make([]int32, ed-st)
	post = make([]int32, ed-st)
	for ci := st; ci < ed; ci++ {
		pre[ci-st], post[ci-st] = sy.exportIDs(ci, gi)
	}
	return
}

// SaveConnectivityText writes the presynaptic ids, postsynaptic ids and
// weights of group gi (all if < 0) in creation order, one value per line,
// to files in dir named prefix + PresynapticIDs.txt etc.
// Ids are group-relative when gi >= 0.
func (sy *Synapses) SaveConnectivityText(dir, prefix string, gi int) error {
	pre, post, wts, err := sy.exportConnectivity(gi)
	if err != nil {
		return err
	}
	if err := writeText(filepath.Join(dir, prefix+PreIDsFile+".txt"), pre); err != nil {
		return err
	}
	if err := writeText(filepath.Join(dir, prefix+PostIDsFile+".txt"), post); err != nil {
		return err
	}
	return writeText(filepath.Join(dir, prefix+WeightsFile+".txt"), wts)
}

// SaveConnectivityBinary is SaveConnectivityText with little-endian
// 4 byte values, in .bin files.
func (sy *Synapses) SaveConnectivityBinary(dir, prefix string, gi int) error {
	pre, post, wts, err := sy.exportConnectivity(gi)
	if err != nil {
		return err
	}
	if err := writeBinary(filepath.Join(dir, prefix+PreIDsFile+".bin"), pre); err != nil {
		return err
	}
	if err := writeBinary(filepath.Join(dir, prefix+PostIDsFile+".bin"), post); err != nil {
		return err
	}
	return writeBinary(filepath.Join(dir, prefix+WeightsFile+".bin"), wts)
}

// SaveWeightsText writes the weights of group gi (all if < 0) in
// creation order to dir/prefix + SynapticWeights.txt.
func (sy *Synapses) SaveWeightsText(dir, prefix string, gi int) error {
	wts, err := sy.exportWeights(gi)
	if err != nil {
		return err
	}
	return writeText(filepath.Join(dir, prefix+WeightsFile+".txt"), wts)
}

// SaveWeightsBinary writes the weights of group gi (all if < 0) in
// creation order to dir/prefix + SynapticWeights.bin.
func (sy *Synapses) SaveWeightsBinary(dir, prefix string, gi int) error {
	wts, err := sy.exportWeights(gi)
	if err != nil {
		return err
	}
	return writeBinary(filepath.Join(dir, prefix+WeightsFile+".bin"), wts)
}

// LoadWeights sets the weights of group gi (all if < 0) from vals, in
// creation order, and copies them to the backend.
func (sy *Synapses) LoadWeights(vals []float32, gi int) error {
	st, ed, err := sy.GroupRange(gi)
	if err != nil {
		return err
	}
	if len(vals) != ed-st {
		return configErrorf("loading %d weights into %d synapses", len(vals), ed-st)
	}
	sy.SyncFrontend()
	for ci := st; ci < ed; ci++ {
		sy.Wt[sy.SortedIndex(ci)] = vals[ci-st]
	}
	sy.SyncBackend()
	return nil
}

// LoadWeightsText loads weights for group gi from a text file with one
// value per line (or any white space separation).
func (sy *Synapses) LoadWeightsText(file string, gi int) error {
	f, err := os.Open(file)
	if err != nil {
		return errors.Wrap(err, "spike: LoadWeightsText")
	}
	defer f.Close()
	var vals []float32
	sc := bufio.NewScanner(f)
	sc.Split(bufio.ScanWords)
	for sc.Scan() {
		v, err := strconv.ParseFloat(sc.Text(), 32)
		if err != nil {
			return errors.Wrapf(err, "spike: LoadWeightsText %s", file)
		}
		vals = append(vals, float32(v))
	}
	if err := sc.Err(); err != nil {
		return errors.Wrapf(err, "spike: LoadWeightsText %s", file)
	}
	return sy.LoadWeights(vals, gi)
}

// LoadWeightsBinary loads weights for group gi from a file of
// little-endian float32 values.
func (sy *Synapses) LoadWeightsBinary(file string, gi int) error {
	f, err := os.Open(file)
	if err != nil {
		return errors.Wrap(err, "spike: LoadWeightsBinary")
	}
	defer f.Close()
	var vals []float32
	br := bufio.NewReader(f)
	for {
		var v float32
		err := binary.Read(br, binary.LittleEndian, &v)
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrapf(err, "spike: LoadWeightsBinary %s", file)
		}
		vals = append(vals, v)
	}
	return sy.LoadWeights(vals, gi)
}

func formatValue[T int32 | float32](v T) string {
	switch x := any(v).(type) {
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	}
	return ""
}

func writeText[T int32 | float32](file string, vals []T) error {
	f, err := os.Create(file)
	if err != nil {
		return errors.Wrap(err, "spike: save")
	}
	bw := bufio.NewWriter(f)
	for _, v := range vals {
		bw.WriteString(formatValue(v))
		bw.WriteByte('\n')
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return errors.Wrapf(err, "spike: writing %s", file)
	}
	return errors.Wrapf(f.Close(), "spike: closing %s", file)
}

func writeBinary[T int32 | float32](file string, vals []T) error {
	f, err := os.Create(file)
	if err != nil {
		return errors.Wrap(err, "spike: save")
	}
	bw := bufio.NewWriter(f)
	if err := binary.Write(bw, binary.LittleEndian, vals); err != nil {
		f.Close()
		return errors.Wrapf(err, "spike: writing %s", file)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return errors.Wrapf(err, "spike: writing %s", file)
	}
	return errors.Wrapf(f.Close(), "spike: closing %s", file)
}
