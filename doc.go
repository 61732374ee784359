// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package spike is the overall repository for a spiking neural network simulation
engine with axonal delays and spike-timing-dependent plasticity, implemented in
the Go language (golang).

This top-level of the repository has no functional code -- everything is organized
into the following sub-repositories:

* spike: the core engine: neuron and input populations, the synapse store with its
connectivity patterns (all-to-all, one-to-one, random, Gaussian sampling, pairwise),
the plasticity rules, and the Model that steps them in a fixed order.  Numeric work
is done by backends selected at runtime for a Serial or Parallel execution target.

* delay: the circular delay buffer that holds spikes in transit until their
arrival timestep, with atomic accumulation for parallel delivery.

* lif: leaky integrate-and-fire membrane parameters and update kernel.

* stdp: trace and weight update equations for the weight-dependent, Evans,
and inhibitory (homeostatic) STDP rules.

* sampling: weighted sampling without replacement, used for Gaussian connectivity.

* examples: these actually compile into runnable programs and provide the starting
point for your own simulations.  examples/spikesim runs a TOML-configured network
from the command line.
*/
package spike
