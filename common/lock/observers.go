package lock

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"spinlock/common/logger"
	"spinlock/common/utils/sys"
)

// LogObserver writes every lock event to the debug log.
type LogObserver struct{}

func (LogObserver) Acquired(addr uintptr) {
	logEvent("lock acquired", addr)
}

func (LogObserver) Releasing(addr uintptr) {
	logEvent("lock releasing", addr)
}

func logEvent(msg string, addr uintptr) {
	if !logger.Enabled(logger.DebugLevel) {
		return
	}
	logger.Logger.Debug(msg,
		zap.Uintptr("addr", addr),
		zap.Uint64("gid", sys.GetGID()))
}

// LockCounts is the number of events seen for one lock.
type LockCounts struct {
	Acquired  uint64
	Releasing uint64
}

// Held is the number of acquisitions that have not been released yet.
func (c LockCounts) Held() int64 {
	return int64(c.Acquired) - int64(c.Releasing)
}

func (c LockCounts) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddUint64("acquired", c.Acquired)
	enc.AddUint64("releasing", c.Releasing)
	return nil
}

type counter struct {
	acquired  atomic.Uint64
	releasing atomic.Uint64
}

// CountingObserver counts events per lock address. The zero value is ready
// to use.
type CountingObserver struct {
	locks sync.Map // uintptr -> *counter
}

func (c *CountingObserver) get(addr uintptr) *counter {
	if v, ok := c.locks.Load(addr); ok {
		return v.(*counter)
	}
	v, _ := c.locks.LoadOrStore(addr, &counter{})
	return v.(*counter)
}

func (c *CountingObserver) Acquired(addr uintptr) {
	c.get(addr).acquired.Add(1)
}

func (c *CountingObserver) Releasing(addr uintptr) {
	c.get(addr).releasing.Add(1)
}

// Counts returns the counters of a single lock.
func (c *CountingObserver) Counts(sl *SpinLock) LockCounts {
	v, ok := c.locks.Load(sl.addr())
	if !ok {
		return LockCounts{}
	}
	ct := v.(*counter)
	return LockCounts{Acquired: ct.acquired.Load(), Releasing: ct.releasing.Load()}
}

// Snapshot copies the counters of every lock seen so far.
func (c *CountingObserver) Snapshot() map[uintptr]LockCounts {
	out := make(map[uintptr]LockCounts)
	c.locks.Range(func(k, v interface{}) bool {
		ct := v.(*counter)
		out[k.(uintptr)] = LockCounts{Acquired: ct.acquired.Load(), Releasing: ct.releasing.Load()}
		return true
	})
	return out
}

// Reset forgets every counter.
func (c *CountingObserver) Reset() {
	c.locks.Range(func(k, _ interface{}) bool {
		c.locks.Delete(k)
		return true
	})
}
