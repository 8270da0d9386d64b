package main

import (
	"sync"
	"time"

	uuid "github.com/satori/go.uuid"

	"spinlock/common/lock"
	"spinlock/common/logger"
	"spinlock/common/utils/sys"
)

// counterLock lives in static storage and is never initialised explicitly.
var counterLock lock.SpinLock

type Result struct {
	RunID      string
	Kind       string
	Workers    int
	Iterations int
	Expected   uint64
	Got        uint64
	Elapsed    time.Duration
}

func (r Result) OK() bool { return r.Expected == r.Got }

func (r Result) PerOp() time.Duration {
	if r.Expected == 0 {
		return 0
	}
	return r.Elapsed / time.Duration(r.Expected)
}

// runLocker starts workers goroutines that each increment a shared counter
// iterations times under l.
func runLocker(kind string, l sync.Locker, workers, iterations int) Result {
	var (
		counter uint64
		wg      sync.WaitGroup
		start   = make(chan struct{})
	)

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			defer sys.CatchPanic()
			<-start
			for n := 0; n < iterations; n++ {
				l.Lock()
				counter++
				l.Unlock()
			}
		}()
	}

	begin := time.Now()
	close(start)
	wg.Wait()

	r := Result{
		RunID:      uuid.NewV4().String(),
		Kind:       kind,
		Workers:    workers,
		Iterations: iterations,
		Expected:   uint64(workers) * uint64(iterations),
		Got:        counter,
		Elapsed:    time.Since(begin),
	}
	logger.Infof("run %s kind=%s workers=%d iterations=%d counter=%d/%d elapsed=%s",
		r.RunID, r.Kind, r.Workers, r.Iterations, r.Got, r.Expected, r.Elapsed)
	return r
}

type Probe struct {
	Hold    time.Duration
	Waited  time.Duration
	Blocked bool
}

// probeExclusion holds l for hold and checks that a contender could not get
// it before the release.
func probeExclusion(l *lock.SpinLock, hold time.Duration) Probe {
	acquired := make(chan time.Time, 1)

	l.Lock()
	begin := time.Now()
	go func() {
		defer sys.CatchPanic()
		l.Lock()
		acquired <- time.Now()
		l.Unlock()
	}()

	var early bool
	select {
	case <-acquired:
		early = true
	case <-time.After(hold):
	}
	l.Unlock()

	p := Probe{Hold: hold, Blocked: !early}
	if !early {
		p.Waited = (<-acquired).Sub(begin)
	} else {
		p.Waited = time.Since(begin)
	}
	return p
}
