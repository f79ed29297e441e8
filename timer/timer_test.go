package timer

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTimerManager_OneShot(t *testing.T) {
	m := NewTimerManager()
	defer m.Stop()

	var fired int32
	m.AddTimer(10*time.Millisecond, 0, func() {
		atomic.AddInt32(&fired, 1)
	})

	// The tick granularity is 100ms; give it a few ticks.
	time.Sleep(350 * time.Millisecond)

	if n := atomic.LoadInt32(&fired); n != 1 {
		t.Fatalf("Expected one-shot task to fire exactly once, fired %d times", n)
	}
}

func TestTimerManager_RemoveTimer(t *testing.T) {
	m := NewTimerManager()
	defer m.Stop()

	var fired int32
	id := m.AddTimer(time.Second, 0, func() {
		atomic.AddInt32(&fired, 1)
	})
	m.RemoveTimer(id)

	time.Sleep(250 * time.Millisecond)

	if n := atomic.LoadInt32(&fired); n != 0 {
		t.Fatalf("Removed task must not fire, fired %d times", n)
	}
}
