// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spike

import (
	"fmt"

	"github.com/emer/spike/delay"
	"github.com/emer/spike/lif"
)

// NeuronGroup is a contiguous range of neurons within a population,
// with a 2D shape.
type NeuronGroup struct {

	// group id: 0.. for regular groups, -1, -2, .. for input groups
	ID int

	// shape: X, Y
	Shape []int

	// first neuron index in the population
	St int

	// one past the last neuron index in the population
	Ed int
}

// Len returns the number of neurons in the group.
func (ng *NeuronGroup) Len() int {
	return ng.Ed - ng.St
}

// XY returns the X and Y sizes of the group shape.
func (ng *NeuronGroup) XY() (x, y int) {
	switch len(ng.Shape) {
	case 0:
		return ng.Len(), 1
	case 1:
		return ng.Shape[0], 1
	default:
		return ng.Shape[0], ng.Shape[1]
	}
}

// IsInput returns true for input groups.
func (ng *NeuronGroup) IsInput() bool {
	return ng.ID < 0
}

func (ng *NeuronGroup) String() string {
	return fmt.Sprintf("group %d %v [%d, %d)", ng.ID, ng.Shape, ng.St, ng.Ed)
}

// InputGroupID returns the group id of the i-th input group.
func InputGroupID(i int) int {
	return -1 - i
}

// InputGroupIndex returns the index of the input group with given id.
func InputGroupIndex(id int) int {
	return -1 - id
}

// CorrectedPreID returns the stored presynaptic id for neuron index ni
// of the input (input = true) or the regular population.
// Input neurons are stored as -1 - ni.  The mapping is its own inverse.
func CorrectedPreID(ni int, input bool) int {
	if input {
		return -1 - ni
	}
	return ni
}

// shapeLen returns the number of units in shape.
func shapeLen(shape []int) (int, error) {
	if len(shape) == 0 || len(shape) > 2 {
		return 0, configErrorf("neuron group shape must have 1 or 2 dimensions, got %v", shape)
	}
	n := 1
	for _, s := range shape {
		if s <= 0 {
			return 0, configErrorf("neuron group shape %v has a non-positive size", shape)
		}
		n *= s
	}
	return n, nil
}

// pop is the part of a population shared by regular and input neurons.
type pop struct {
	BackendBase

	// neuron groups
	Groups []NeuronGroup

	// total number of neurons
	N int

	// spike flags for the current timestep group: Grouping x N, step-major
	Spikes []bool

	// steps per group the spike flags are sized for
	Grouping int

	// step size in seconds
	Dt float32

	// store the neurons send over
	Syn *Synapses `display:"-"`

	// buffer the neurons deliver into
	Buf *delay.Buffer `display:"-"`
}

func (pp *pop) addGroup(id int, shape []int) (*NeuronGroup, error) {
	n, err := shapeLen(shape)
	if err != nil {
		return nil, err
	}
	pp.Groups = append(pp.Groups, NeuronGroup{ID: id, Shape: append([]int(nil), shape...), St: pp.N, Ed: pp.N + n})
	pp.N += n
	return &pp.Groups[len(pp.Groups)-1], nil
}

// SpikesStep returns the N spike flags for step g within the group.
func (pp *pop) SpikesStep(g int) []bool {
	return pp.Spikes[g*pp.N : (g+1)*pp.N]
}

// Spiked returns true if neuron ni spiked at step g of the last group.
func (pp *pop) Spiked(g, ni int) bool {
	return pp.Spikes[g*pp.N+ni]
}

func (pp *pop) allocSpikes(grouping int) {
	pp.Grouping = max(grouping, 1)
	pp.Spikes = make([]bool, pp.Grouping*pp.N)
}

// Neurons is the population of regular (model-driven) neurons,
// each group with its own LIF parameters.
type Neurons struct {
	pop

	// membrane parameters, per group
	Params []lif.Params

	// group index, per neuron
	GroupIndex []int32

	// membrane potential in volts, per neuron
	Vm []float32

	// time step of the last spike, per neuron
	LastSpike []int32
}

// AddGroup adds a group of given shape with membrane parameters pars
// (Defaults if nil), returning its id.
func (nr *Neurons) AddGroup(shape []int, pars *lif.Params) (int, error) {
	id := len(nr.Groups)
	ng, err := nr.addGroup(id, shape)
	if err != nil {
		return -1, err
	}
	var lp lif.Params
	if pars != nil {
		lp = *pars
	} else {
		lp.Defaults()
	}
	nr.Params = append(nr.Params, lp)
	for i := ng.St; i < ng.Ed; i++ {
		nr.GroupIndex = append(nr.GroupIndex, int32(id))
	}
	nr.Vm = append(nr.Vm, make([]float32, ng.Len())...)
	nr.LastSpike = append(nr.LastSpike, make([]int32, ng.Len())...)
	return id, nil
}

// Group returns the group with given id, or nil.
func (nr *Neurons) Group(id int) *NeuronGroup {
	if id < 0 || id >= len(nr.Groups) {
		return nil
	}
	return &nr.Groups[id]
}

// InitBackend binds the backend for ctx.
func (nr *Neurons) InitBackend(ctx *Context) error {
	return nr.initBackend(ctx, NeuronsKind, nr)
}

// InputNeurons is the population of stimulus-driven neurons.
// Input neurons have no membrane: they spike when the stimulus says so.
type InputNeurons struct {
	pop

	// source of input spikes
	Stim StimulusSource `display:"-"`

	// spike flags of the previous timestep group, for plasticity
	Prev []bool
}

// AddGroup adds an input group of given shape, returning its (negative) id.
func (in *InputNeurons) AddGroup(shape []int) (int, error) {
	id := InputGroupID(len(in.Groups))
	if _, err := in.addGroup(id, shape); err != nil {
		return 0, err
	}
	return id, nil
}

// Group returns the group with given (negative) id, or nil.
func (in *InputNeurons) Group(id int) *NeuronGroup {
	gi := InputGroupIndex(id)
	if gi < 0 || gi >= len(in.Groups) {
		return nil
	}
	return &in.Groups[gi]
}

// InitBackend binds the backend for ctx.
func (in *InputNeurons) InitBackend(ctx *Context) error {
	return in.initBackend(ctx, InputNeuronsKind, in)
}

// InitSpikes clears all spike flags.
func (in *InputNeurons) InitSpikes() {
	clear(in.Spikes)
	clear(in.Prev)
}

func (in *InputNeurons) allocSpikes(grouping int) {
	in.pop.allocSpikes(grouping)
	in.Prev = make([]bool, len(in.Spikes))
}

// PrevSpiked returns true if neuron ni spiked at step g of the
// previous group.
func (in *InputNeurons) PrevSpiked(g, ni int) bool {
	return in.Prev[g*in.N+ni]
}

// ApplyStimulus fills the spike flags for the grouping steps from t,
// keeping the flags of the previous group in Prev.
func (in *InputNeurons) ApplyStimulus(t uint32, dt float32, grouping int) {
	in.Prev, in.Spikes = in.Spikes, in.Prev
	clear(in.Spikes)
	if in.Stim == nil {
		return
	}
	for g := 0; g < grouping; g++ {
		in.Stim.SpikesAt(t+uint32(g), dt, in.SpikesStep(g))
	}
}
