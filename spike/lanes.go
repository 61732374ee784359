// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spike

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/emer/emergent/v2/timer"
)

// LaneFun is a kernel run over the index range [st, ed).
// Each index is an independent lane.
type LaneFun func(st, ed int)

// Exec runs a kernel over n indexes.
type Exec interface {
	Run(n int, fun LaneFun)
}

// SerialExec runs kernels in the calling goroutine.
type SerialExec struct{}

func (SerialExec) Run(n int, fun LaneFun) {
	if n > 0 {
		fun(0, n)
	}
}

type laneJob struct {
	fun    LaneFun
	st, ed int
}

// Lanes runs kernels over contiguous chunks of indexes on a fixed set of
// worker goroutines, each fed by its own channel.
type Lanes struct {

	// number of worker threads
	NThreads int

	// if set, runtime.LockOSThread() is called on the workers
	LockThreads bool

	// one channel per worker
	Chans []chan laneJob `display:"-"`

	// time spent in each worker
	ThrTimes []timer.Time `display:"-"`

	// waits on all workers for each Run
	WaitGp sync.WaitGroup `display:"-"`

	running bool
}

// NewLanes returns lanes for nthreads workers; nthreads <= 0 uses NumCPU.
func NewLanes(nthreads int) *Lanes {
	if nthreads <= 0 {
		nthreads = runtime.NumCPU()
	}
	ln := &Lanes{NThreads: nthreads}
	ln.Chans = make([]chan laneJob, nthreads)
	ln.ThrTimes = make([]timer.Time, nthreads)
	for th := range ln.Chans {
		ln.Chans[th] = make(chan laneJob)
	}
	return ln
}

// Start starts the worker goroutines.
func (ln *Lanes) Start() {
	if ln.running {
		return
	}
	for th := 0; th < ln.NThreads; th++ {
		go ln.worker(th)
	}
	ln.running = true
}

// Stop stops the worker goroutines.  The lanes cannot be restarted.
func (ln *Lanes) Stop() {
	if !ln.running {
		return
	}
	for th := 0; th < ln.NThreads; th++ {
		close(ln.Chans[th])
	}
	ln.running = false
}

// Running returns true if the workers are started.
func (ln *Lanes) Running() bool {
	return ln.running
}

func (ln *Lanes) worker(th int) {
	if ln.LockThreads {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}
	for job := range ln.Chans[th] {
		ln.ThrTimes[th].Start()
		job.fun(job.st, job.ed)
		ln.ThrTimes[th].Stop()
		ln.WaitGp.Done()
	}
}

// Run splits [0, n) into one contiguous chunk per worker and waits
// for all of them.  Small n is run directly.
func (ln *Lanes) Run(n int, fun LaneFun) {
	if n <= 0 {
		return
	}
	if !ln.running || ln.NThreads <= 1 || n < ln.NThreads {
		fun(0, n)
		return
	}
	chunk := (n + ln.NThreads - 1) / ln.NThreads
	for th := 0; th < ln.NThreads; th++ {
		st := th * chunk
		if st >= n {
			break
		}
		ed := min(st+chunk, n)
		ln.WaitGp.Add(1)
		ln.Chans[th] <- laneJob{fun: fun, st: st, ed: ed}
	}
	ln.WaitGp.Wait()
}

// TimerReport prints the time spent in each worker.
func (ln *Lanes) TimerReport() {
	fmt.Printf("\n\tThr\tSecs\tPct\n")
	pcts := make([]float64, ln.NThreads)
	tot := 0.0
	for th := 0; th < ln.NThreads; th++ {
		pcts[th] = ln.ThrTimes[th].TotalSecs()
		tot += pcts[th]
	}
	if tot == 0 {
		return
	}
	for th := 0; th < ln.NThreads; th++ {
		fmt.Printf("\t%v \t%7.3f\t%7.1f\n", th, pcts[th], 100*(pcts[th]/tot))
	}
}

// ThrTimerReset resets the per-thread timers.
func (ln *Lanes) ThrTimerReset() {
	for th := 0; th < ln.NThreads; th++ {
		ln.ThrTimes[th].Reset()
	}
}
