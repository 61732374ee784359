// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spike

import (
	"fmt"
	"sort"

	"cogentcore.org/core/base/randx"
	"github.com/emer/emergent/v2/timer"
	"github.com/emer/spike/delay"
	"github.com/pkg/errors"
)

// Model owns the populations, the synapse store and the delay buffer,
// and steps them in a fixed order.
type Model struct {

	// simulation settings
	Config Config

	// stimulus-driven neurons
	Inputs *InputNeurons

	// regular neurons
	Neurons *Neurons

	// synapse store
	Synapses *Synapses

	// delayed spike delivery buffer, made by Build
	Buffer *delay.Buffer

	// execution context, made by Build
	Ctx *Context `display:"-"`

	// current time step: start of the next group
	T uint32

	// random generator for connectivity, seeded from Config.Seed
	Rand randx.Rand `display:"-"`

	// Build has succeeded
	Built bool

	// timers for each phase of Step
	FunTimes map[string]*timer.Time `display:"-"`
}

// NewModel returns a new empty model with given settings
// (Defaults if nil).
func NewModel(cfg *Config) *Model {
	md := &Model{}
	if cfg != nil {
		md.Config = *cfg
	} else {
		md.Config.Defaults()
	}
	md.Inputs = &InputNeurons{}
	md.Neurons = &Neurons{}
	md.Synapses = &Synapses{}
	md.Rand = randx.NewSysRand(md.Config.Seed)
	md.FunTimes = make(map[string]*timer.Time)
	return md
}

// Connect adds a synapse group from pre to post with the model's
// timestep and random generator.
func (md *Model) Connect(pre, post int, pars *SynParams) (int, error) {
	return md.Synapses.AddGroup(pre, post, md.Neurons, md.Inputs, md.Config.Dt, pars, md.Rand)
}

// Rules returns the registered plasticity rules.
func (md *Model) Rules() []Plasticity {
	return md.Synapses.Rules
}

// Build sorts the synapse store, sizes the delay buffer, and binds and
// prepares every backend.  It can only be called once.
func (md *Model) Build() error {
	if md.Built {
		return errors.New("spike: Model already built")
	}
	cf := &md.Config
	if err := cf.Validate(); err != nil {
		return err
	}
	sy := md.Synapses
	if sy.N() > 0 && int32(cf.Grouping) > sy.MinDelay {
		return configErrorf("Grouping %d exceeds the smallest delay of %d steps", cf.Grouping, sy.MinDelay)
	}
	sy.Sort(md.Inputs.N, md.Neurons.N)
	if len(sy.AffN) < md.Neurons.N {
		sy.AffN = growSlice(sy.AffN, md.Neurons.N)
		sy.UpdateAffStats()
	}
	md.Buffer = delay.New(int(sy.MaxDelay), cf.Grouping, md.Neurons.N, sy.NLabels())
	if err := md.Buffer.CheckWindow(int(sy.MaxDelay), cf.Grouping); err != nil {
		return errors.Wrap(ErrConfig, err.Error())
	}

	sy.Nrns = md.Neurons
	sy.Inputs = md.Inputs
	sy.Buf = md.Buffer
	md.Neurons.Syn = sy
	md.Neurons.Buf = md.Buffer
	md.Neurons.Dt = cf.Dt
	md.Neurons.allocSpikes(cf.Grouping)
	md.Inputs.Syn = sy
	md.Inputs.Buf = md.Buffer
	md.Inputs.Dt = cf.Dt
	md.Inputs.allocSpikes(cf.Grouping)

	md.Ctx = NewContext(cf.Target, cf.NThreads)
	if err := md.prepareBackends(); err != nil {
		md.Ctx.Close()
		return err
	}
	md.Built = true
	md.Reset()
	return nil
}

// prepareBackends binds and prepares the backends of all objects for md.Ctx.
func (md *Model) prepareBackends() error {
	sy := md.Synapses
	if err := sy.InitBackend(md.Ctx); err != nil {
		return err
	}
	if err := md.Neurons.InitBackend(md.Ctx); err != nil {
		return err
	}
	if err := md.Inputs.InitBackend(md.Ctx); err != nil {
		return err
	}
	for _, rl := range sy.Rules {
		if err := rl.InitBackend(md.Ctx); err != nil {
			return err
		}
	}
	// synapses first: the others compute with its backend
	if err := sy.Prepare(); err != nil {
		return err
	}
	if err := md.Neurons.Prepare(); err != nil {
		return err
	}
	if err := md.Inputs.Prepare(); err != nil {
		return err
	}
	for _, rl := range sy.Rules {
		if err := rl.Prepare(); err != nil {
			return err
		}
	}
	return nil
}

// Close stops any parallel lanes.
func (md *Model) Close() {
	if md.Ctx != nil {
		md.Ctx.Close()
	}
}

// Reset returns time to 0 and all dynamic state to its initial values.
// Weights are not changed.
func (md *Model) Reset() {
	md.T = 0
	md.Synapses.ResetState()
	md.Neurons.ResetState()
	md.Inputs.ResetState()
	for _, rl := range md.Synapses.Rules {
		rl.ResetState()
	}
	for _, ft := range md.FunTimes {
		ft.Reset()
	}
}

// Step advances the model by one group of Config.Grouping timesteps.
func (md *Model) Step() {
	cf := &md.Config
	g := cf.Grouping
	t := md.T

	md.FunTimerStart("Stimulus")
	md.Inputs.ApplyStimulus(t, cf.Dt, g)
	md.FunTimerStop("Stimulus")

	md.FunTimerStart("Synapses")
	md.Synapses.StateUpdate(t, cf.Dt, g)
	md.FunTimerStop("Synapses")

	md.FunTimerStart("Plasticity")
	for _, rl := range md.Synapses.Rules {
		rl.StateUpdate(t, cf.Dt, g)
	}
	md.FunTimerStop("Plasticity")

	md.FunTimerStart("Neurons")
	md.Inputs.StateUpdate(t, cf.Dt, g)
	md.Neurons.StateUpdate(t, cf.Dt, g)
	md.FunTimerStop("Neurons")

	md.T += uint32(g)
}

// Run steps the model for at least nsteps timesteps, stopping at the
// first group boundary at or after T + nsteps.
func (md *Model) Run(nsteps int) {
	g := md.Config.Grouping
	ngp := (nsteps + g - 1) / g
	for i := 0; i < ngp; i++ {
		md.Step()
	}
}

// Time returns the current time in seconds.
func (md *Model) Time() float32 {
	return float32(md.T) * md.Config.Dt
}

// FunTimerStart starts function timer for given function name,
// creating it if needed.
func (md *Model) FunTimerStart(fun string) {
	ft, ok := md.FunTimes[fun]
	if !ok {
		ft = &timer.Time{}
		md.FunTimes[fun] = ft
	}
	ft.Start()
}

// FunTimerStop stops function timer -- timer must already exist
func (md *Model) FunTimerStop(fun string) {
	md.FunTimes[fun].Stop()
}

// TimerReport reports the amount of time spent in each phase,
// and in each lane for the Parallel target.
func (md *Model) TimerReport() {
	nthr := 1
	if md.Ctx != nil {
		nthr = md.Ctx.NThreads
	}
	fmt.Printf("TimerReport: Target: %v, NThreads: %v\n", md.Config.Target, nthr)
	fmt.Printf("\t%13s \t%7s\t%7s\n", "Function Name", "Secs", "Pct")
	fnms := make([]string, 0, len(md.FunTimes))
	for k := range md.FunTimes {
		fnms = append(fnms, k)
	}
	sort.Strings(fnms)
	pcts := make([]float64, len(fnms))
	tot := 0.0
	for i, fn := range fnms {
		pcts[i] = md.FunTimes[fn].TotalSecs()
		tot += pcts[i]
	}
	for i, fn := range fnms {
		pct := 0.0
		if tot > 0 {
			pct = 100 * (pcts[i] / tot)
		}
		fmt.Printf("\t%13s \t%7.3f\t%7.1f\n", fn, pcts[i], pct)
	}
	fmt.Printf("\t%13s \t%7.3f\n", "Total", tot)
	if md.Ctx == nil {
		return
	}
	if ln, ok := md.Ctx.Exec.(*Lanes); ok {
		ln.TimerReport()
	}
}
