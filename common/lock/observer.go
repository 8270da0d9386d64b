package lock

import (
	"sync/atomic"

	"spinlock/common/logger"
	"spinlock/common/utils/sys"
)

// Observer receives lock events, identified by the address of the lock.
// Implementations must be safe for concurrent use; they run on the hot path
// of every Lock and Unlock.
type Observer interface {
	Acquired(addr uintptr)
	Releasing(addr uintptr)
}

type observerHolder struct {
	o Observer
}

// nil until SetObserver installs something, so no init step is needed.
var current atomic.Pointer[observerHolder]

// SetObserver installs o as the process-wide lock observer and returns the
// previous one. A nil o restores the no-op default.
func SetObserver(o Observer) Observer {
	var h *observerHolder
	if o != nil {
		h = &observerHolder{o: o}
	}
	prev := current.Swap(h)
	if prev == nil {
		return NopObserver{}
	}
	return prev.o
}

// CurrentObserver returns the installed observer, NopObserver if none.
func CurrentObserver() Observer {
	if h := current.Load(); h != nil {
		return h.o
	}
	return NopObserver{}
}

func notifyAcquired(addr uintptr) {
	if h := current.Load(); h != nil {
		safeNotify(h.o.Acquired, addr)
	}
}

func notifyReleasing(addr uintptr) {
	if h := current.Load(); h != nil {
		safeNotify(h.o.Releasing, addr)
	}
}

// an observer panic must never leave the lock half-transitioned
func safeNotify(fn func(uintptr), addr uintptr) {
	defer func() {
		if err := recover(); err != nil {
			logger.Errorf("lock observer panic: gid=%d addr=%#x err=%v", sys.GetGID(), addr, err)
		}
	}()
	fn(addr)
}

// NopObserver discards every event.
type NopObserver struct{}

func (NopObserver) Acquired(uintptr)  {}
func (NopObserver) Releasing(uintptr) {}

type multiObserver []Observer

// MultiObserver fans events out to every non-nil observer, in order.
func MultiObserver(obs ...Observer) Observer {
	m := make(multiObserver, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			m = append(m, o)
		}
	}
	return m
}

func (m multiObserver) Acquired(addr uintptr) {
	for _, o := range m {
		safeNotify(o.Acquired, addr)
	}
}

func (m multiObserver) Releasing(addr uintptr) {
	for _, o := range m {
		safeNotify(o.Releasing, addr)
	}
}
