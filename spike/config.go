// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spike

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Config has the simulation-wide settings of a Model.
type Config struct {

	// timestep in seconds
	Dt float32 `def:"0.0001" min:"0"`

	// number of timesteps processed per dispatch; must not exceed the
	// smallest synaptic delay
	Grouping int `def:"1" min:"1"`

	// execution target of all backends
	Target Targets `def:"Serial"`

	// number of lanes for the Parallel target; 0 = number of CPUs
	NThreads int `def:"0"`

	// random seed for connectivity
	Seed int64 `def:"1"`
}

func (cf *Config) Defaults() {
	cf.Dt = 0.0001
	cf.Grouping = 1
	cf.Target = Serial
	cf.NThreads = 0
	cf.Seed = 1
}

// Validate returns an ErrConfig error for unusable settings.
func (cf *Config) Validate() error {
	if cf.Dt <= 0 {
		return configErrorf("Dt %g must be positive", cf.Dt)
	}
	if cf.Grouping < 1 {
		return configErrorf("Grouping %d must be at least 1", cf.Grouping)
	}
	if cf.Target < 0 || cf.Target >= TargetsN {
		return configErrorf("invalid Target %d", cf.Target)
	}
	return nil
}

// OpenConfig reads TOML settings from file into cfg, which is
// typically a struct with Defaults already applied.
func OpenConfig(cfg any, file string) error {
	md, err := toml.DecodeFile(file, cfg)
	if err != nil {
		return errors.Wrapf(err, "spike: reading config %s", file)
	}
	if und := md.Undecoded(); len(und) > 0 {
		return configErrorf("unknown config keys in %s: %v", file, und)
	}
	return nil
}

// SaveConfig writes cfg as TOML to file.
func SaveConfig(cfg any, file string) error {
	f, err := os.Create(file)
	if err != nil {
		return errors.Wrap(err, "spike: saving config")
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return errors.Wrapf(err, "spike: encoding config %s", file)
	}
	return nil
}
