package lock

import (
	"runtime"
	"sync/atomic"
	"unsafe"
)

// yield gives up the processor once per failed acquisition attempt.
var yield = runtime.Gosched

// SpinLock is a mutual exclusion lock that busy-waits instead of parking the
// goroutine. The zero value is an unlocked lock, so a SpinLock may live in a
// package-level variable that is used before any init function has run.
//
// A SpinLock is not re-entrant: locking it twice from the same goroutine
// spins forever. Unlocking a lock that is not held is not detected.
// A SpinLock must not be copied after first use.
type SpinLock uint32

// Lock acquires the lock, yielding the processor between attempts until the
// flag can be flipped from free to held.
func (sl *SpinLock) Lock() {
	for atomic.SwapUint32((*uint32)(sl), 1) != 0 {
		yield()
	}
	notifyAcquired(sl.addr())
}

// TryLock makes a single attempt to acquire the lock and reports whether it
// succeeded. It never yields.
func (sl *SpinLock) TryLock() bool {
	if atomic.SwapUint32((*uint32)(sl), 1) != 0 {
		return false
	}
	notifyAcquired(sl.addr())
	return true
}

// Unlock releases the lock. The observer sees the release before the flag is
// cleared, while the caller still owns the lock.
func (sl *SpinLock) Unlock() {
	notifyReleasing(sl.addr())
	atomic.StoreUint32((*uint32)(sl), 0)
}

// Locked reports whether the lock is currently held by someone.
// The answer may be stale by the time the caller looks at it.
func (sl *SpinLock) Locked() bool {
	return atomic.LoadUint32((*uint32)(sl)) != 0
}

func (sl *SpinLock) addr() uintptr {
	return uintptr(unsafe.Pointer(sl))
}
