package lock

import (
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"spinlock/common/logger"
)

type recordingObserver struct {
	mu     sync.Mutex
	events []string
	addrs  []uintptr
	onRel  func(addr uintptr)
}

func (r *recordingObserver) Acquired(addr uintptr) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "acquired")
	r.addrs = append(r.addrs, addr)
}

func (r *recordingObserver) Releasing(addr uintptr) {
	if r.onRel != nil {
		r.onRel(addr)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "releasing")
	r.addrs = append(r.addrs, addr)
}

type panickingObserver struct{}

func (panickingObserver) Acquired(uintptr)  { panic("acquired") }
func (panickingObserver) Releasing(uintptr) { panic("releasing") }

func withObserver(t *testing.T, o Observer) {
	prev := SetObserver(o)
	t.Cleanup(func() { SetObserver(prev) })
}

func TestDefaultObserverIsNop(t *testing.T) {
	if _, ok := CurrentObserver().(NopObserver); !ok {
		t.Fatalf("expected NopObserver by default, got %T", CurrentObserver())
	}
}

func TestSetObserverReturnsPrevious(t *testing.T) {
	rec := &recordingObserver{}
	prev := SetObserver(rec)
	if _, ok := prev.(NopObserver); !ok {
		t.Fatalf("expected NopObserver as previous, got %T", prev)
	}
	if got := SetObserver(nil); got != rec {
		t.Fatalf("expected recording observer back, got %T", got)
	}
}

func TestObserverSeesEventsWithLockAddress(t *testing.T) {
	var sl SpinLock
	rec := &recordingObserver{}
	rec.onRel = func(addr uintptr) {
		if !sl.Locked() {
			t.Errorf("Releasing must be reported while the lock is still held")
		}
	}
	withObserver(t, rec)

	sl.Lock()
	sl.Unlock()
	if !sl.TryLock() {
		t.Fatalf("TryLock should succeed")
	}
	sl.Unlock()

	want := []string{"acquired", "releasing", "acquired", "releasing"}
	if len(rec.events) != len(want) {
		t.Fatalf("expected events %v, got %v", want, rec.events)
	}
	for i := range want {
		if rec.events[i] != want[i] {
			t.Fatalf("expected events %v, got %v", want, rec.events)
		}
		if rec.addrs[i] != sl.addr() {
			t.Fatalf("event %d: expected addr %#x, got %#x", i, sl.addr(), rec.addrs[i])
		}
	}
}

func TestFailedTryLockIsNotReported(t *testing.T) {
	var sl SpinLock
	counts := &CountingObserver{}
	sl.Lock()
	withObserver(t, counts)

	if sl.TryLock() {
		t.Fatalf("TryLock on a held lock should fail")
	}
	if c := counts.Counts(&sl); c.Acquired != 0 {
		t.Fatalf("expected no acquired events, got %d", c.Acquired)
	}
	sl.Unlock()
}

func TestPanickingObserverDoesNotBreakLock(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	defer func(orig *zap.Logger) { logger.Use(orig) }(logger.Logger)
	logger.Use(zap.New(core))
	withObserver(t, panickingObserver{})

	var sl SpinLock
	sl.Lock()
	if !sl.Locked() {
		t.Fatalf("expected lock to be held")
	}
	sl.Unlock()
	if sl.Locked() {
		t.Fatalf("expected lock to be free")
	}

	if n := logs.FilterMessageSnippet("lock observer panic").Len(); n != 2 {
		t.Fatalf("expected 2 logged observer panics, got %d", n)
	}
}

func TestCountingObserverConcurrent(t *testing.T) {
	const (
		workers    = 4
		iterations = 5000
	)
	counts := &CountingObserver{}
	withObserver(t, counts)

	var (
		a, b SpinLock
		wg   sync.WaitGroup
	)
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for n := 0; n < iterations; n++ {
				a.Lock()
				a.Unlock()
			}
			b.Lock()
			b.Unlock()
		}()
	}
	wg.Wait()

	ca := counts.Counts(&a)
	if ca.Acquired != workers*iterations || ca.Releasing != workers*iterations || ca.Held() != 0 {
		t.Fatalf("unexpected counts for a: %+v", ca)
	}
	if cb := counts.Counts(&b); cb.Acquired != workers || cb.Held() != 0 {
		t.Fatalf("unexpected counts for b: %+v", cb)
	}
	if snap := counts.Snapshot(); len(snap) != 2 {
		t.Fatalf("expected 2 locks in snapshot, got %d", len(snap))
	}

	counts.Reset()
	if snap := counts.Snapshot(); len(snap) != 0 {
		t.Fatalf("expected empty snapshot after Reset, got %d", len(snap))
	}
}

type namedObserver struct {
	name string
	log  *[]string
}

func (n namedObserver) Acquired(uintptr)  { *n.log = append(*n.log, n.name+" acquired") }
func (n namedObserver) Releasing(uintptr) { *n.log = append(*n.log, n.name+" releasing") }

func TestMultiObserverFansOutInOrder(t *testing.T) {
	var seen []string
	first := namedObserver{name: "first", log: &seen}
	second := namedObserver{name: "second", log: &seen}
	counts := &CountingObserver{}
	withObserver(t, MultiObserver(first, nil, panickingObserver{}, second, counts))

	var sl SpinLock
	sl.Lock()
	sl.Unlock()

	want := []string{"first acquired", "second acquired", "first releasing", "second releasing"}
	if len(seen) != len(want) {
		t.Fatalf("expected %v, got %v", want, seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, seen)
		}
	}
	if c := counts.Counts(&sl); c.Acquired != 1 || c.Releasing != 1 {
		t.Fatalf("unexpected counts: %+v", c)
	}
}

func TestLogObserverWritesDebugEvents(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	defer func(orig *zap.Logger) { logger.Use(orig) }(logger.Logger)
	logger.Use(zap.New(core))
	withObserver(t, LogObserver{})

	var sl SpinLock
	sl.Lock()
	sl.Unlock()

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(entries))
	}
	if entries[0].Message != "lock acquired" || entries[1].Message != "lock releasing" {
		t.Fatalf("unexpected messages: %q, %q", entries[0].Message, entries[1].Message)
	}
	for _, e := range entries {
		fields := e.ContextMap()
		if fields["addr"] != sl.addr() {
			t.Fatalf("expected addr %#x, got %v", sl.addr(), fields["addr"])
		}
		if _, ok := fields["gid"]; !ok {
			t.Fatalf("expected gid field in %v", fields)
		}
	}
}

func TestLogObserverSkipsWhenDebugDisabled(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	defer func(orig *zap.Logger) { logger.Use(orig) }(logger.Logger)
	logger.Use(zap.New(core))
	withObserver(t, LogObserver{})

	var sl SpinLock
	sl.Lock()
	sl.Unlock()

	if logs.Len() != 0 {
		t.Fatalf("expected no entries at info level, got %d", logs.Len())
	}
}
