// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spike

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// Targets are the execution targets that a backend can be built for.
type Targets int32

const (
	// Serial runs every kernel in the calling goroutine, deterministically.
	Serial Targets = iota

	// Parallel runs kernels over independent lanes, one per index,
	// on backend-owned device copies of the data.
	Parallel

	TargetsN
)

var targetNames = [TargetsN]string{"Serial", "Parallel"}

func (tg Targets) String() string {
	if tg < 0 || tg >= TargetsN {
		return fmt.Sprintf("Targets(%d)", int32(tg))
	}
	return targetNames[tg]
}

// SetString sets the target from its name, case insensitive.
func (tg *Targets) SetString(s string) error {
	for i, nm := range targetNames {
		if strings.EqualFold(nm, s) {
			*tg = Targets(i)
			return nil
		}
	}
	return configErrorf("unknown execution target %q", s)
}

func (tg Targets) MarshalText() ([]byte, error) { return []byte(tg.String()), nil }

func (tg *Targets) UnmarshalText(text []byte) error { return tg.SetString(string(text)) }

// Kinds name the frontend object types that have backends.
type Kinds string

const (
	NeuronsKind        Kinds = "Neurons"
	InputNeuronsKind   Kinds = "InputNeurons"
	SynapsesKind       Kinds = "Synapses"
	WeightDepSTDPKind  Kinds = "WeightDependentSTDP"
	EvansSTDPKind      Kinds = "EvansSTDP"
	InhibitorySTDPKind Kinds = "InhibitorySTDP"
)

// Backend is the numeric execution engine bound to one frontend object.
// A frontend binds exactly one backend, once, at initialization.
type Backend interface {

	// Prepare allocates backend state from the (complete) frontend data.
	Prepare() error

	// ResetState returns all dynamic state to its initial values.
	ResetState()

	// StateUpdate advances the object over the grouping steps
	// starting at time step t, with step size dt in seconds.
	StateUpdate(t uint32, dt float32, grouping int)

	// CopyToFrontend copies backend-owned state back into the frontend.
	CopyToFrontend()

	// CopyToBackend copies frontend state into backend-owned storage.
	CopyToBackend()
}

// Context selects the execution target for all the backends of one model.
type Context struct {

	// execution target
	Target Targets

	// number of lanes for the Parallel target; 0 = runtime.NumCPU
	NThreads int

	// executor running kernels
	Exec Exec `display:"-"`
}

// NewContext returns a context for given target, with its executor.
// Parallel lanes are started and must be stopped with Close.
func NewContext(target Targets, nthreads int) *Context {
	ctx := &Context{Target: target, NThreads: nthreads}
	if target == Parallel {
		ln := NewLanes(nthreads)
		ln.Start()
		ctx.NThreads = ln.NThreads
		ctx.Exec = ln
	} else {
		ctx.Exec = SerialExec{}
	}
	return ctx
}

// Close stops any lanes.
func (ctx *Context) Close() {
	if ln, ok := ctx.Exec.(*Lanes); ok {
		ln.Stop()
	}
}

// BackendFactory makes a new backend for the given frontend object.
type BackendFactory func(ctx *Context, front any) (Backend, error)

type factoryKey struct {
	target Targets
	kind   Kinds
}

var (
	factoriesMu sync.RWMutex
	factories   = map[factoryKey]BackendFactory{}
)

// RegisterBackend registers the factory for given target and kind,
// replacing any existing registration.
func RegisterBackend(target Targets, kind Kinds, fact BackendFactory) {
	factoriesMu.Lock()
	factories[factoryKey{target, kind}] = fact
	factoriesMu.Unlock()
}

// NewBackend makes the backend registered for the context target and kind.
func NewBackend(ctx *Context, kind Kinds, front any) (Backend, error) {
	if ctx == nil {
		return nil, configErrorf("nil context for %s backend", kind)
	}
	factoriesMu.RLock()
	fact, ok := factories[factoryKey{ctx.Target, kind}]
	factoriesMu.RUnlock()
	if !ok {
		return nil, configErrorf("no %s backend registered for %s", kind, ctx.Target)
	}
	return fact(ctx, front)
}

// BackendBase is embedded in every frontend object to hold its backend.
type BackendBase struct {

	// bound context
	Ctx *Context `display:"-"`

	// bound backend
	Back Backend `display:"-"`

	// kind of this frontend
	Kind Kinds

	// Prepare has succeeded on the bound backend
	prepared bool

	// backend state is newer than the frontend copy
	dirty bool
}

// initBackend binds a backend for front of given kind.
// Binding is immutable: a second call returns an error.
func (bb *BackendBase) initBackend(ctx *Context, kind Kinds, front any) error {
	if bb.Back != nil {
		return errors.Errorf("spike: %s backend already bound", kind)
	}
	be, err := NewBackend(ctx, kind, front)
	if err != nil {
		return err
	}
	bb.Ctx = ctx
	bb.Back = be
	bb.Kind = kind
	return nil
}

// Backend returns the bound backend, or nil.
func (bb *BackendBase) Backend() Backend {
	return bb.Back
}

// Prepared returns true if Prepare has succeeded.
func (bb *BackendBase) Prepared() bool {
	return bb.prepared
}

// Prepare calls Prepare on the bound backend.
func (bb *BackendBase) Prepare() error {
	if bb.Back == nil {
		return errors.Errorf("spike: %s Prepare with no backend bound", bb.Kind)
	}
	if err := bb.Back.Prepare(); err != nil {
		return errors.Wrapf(err, "%s Prepare", bb.Kind)
	}
	bb.prepared = true
	bb.dirty = false
	return nil
}

// MustPrepared panics if Prepare has not succeeded.
func (bb *BackendBase) MustPrepared() {
	if !bb.prepared {
		log.Panicf("spike: %s StateUpdate called before Prepare\n", bb.Kind)
	}
}

// StateUpdate runs the backend StateUpdate, which must be prepared.
func (bb *BackendBase) StateUpdate(t uint32, dt float32, grouping int) {
	bb.MustPrepared()
	bb.Back.StateUpdate(t, dt, grouping)
	bb.dirty = true
}

// ResetState resets the backend state, if bound.
func (bb *BackendBase) ResetState() {
	if bb.Back == nil {
		return
	}
	bb.Back.ResetState()
}

// SetDirty records that backend state has changed.
func (bb *BackendBase) SetDirty() {
	bb.dirty = true
}

// SyncFrontend copies backend state into the frontend if it has changed
// since the last copy.
func (bb *BackendBase) SyncFrontend() {
	if bb.Back == nil || !bb.dirty {
		return
	}
	bb.Back.CopyToFrontend()
	bb.dirty = false
}

// SyncBackend pushes frontend changes into the backend.
func (bb *BackendBase) SyncBackend() {
	if bb.Back == nil || !bb.prepared {
		return
	}
	bb.Back.CopyToBackend()
	bb.dirty = false
}
