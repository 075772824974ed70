package debounce

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer_Coalesces(t *testing.T) {
	var calls atomic.Int32

	d := New(50*time.Millisecond, func() {
		calls.Add(1)
	})

	for i := 0; i < 10; i++ {
		d.Trigger()
	}
	if !d.Pending() {
		t.Error("Pending() = false after Trigger, want true")
	}

	time.Sleep(150 * time.Millisecond)

	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
	if d.Pending() {
		t.Error("Pending() = true after the call fired")
	}
}

func TestDebouncer_RestartsWindow(t *testing.T) {
	var calls atomic.Int32

	d := New(80*time.Millisecond, func() {
		calls.Add(1)
	})

	d.Trigger()
	time.Sleep(40 * time.Millisecond)
	d.Trigger()
	time.Sleep(50 * time.Millisecond)

	// 90ms after the first trigger but only 50ms after the second.
	if calls.Load() != 0 {
		t.Errorf("calls = %d, want 0 before the restarted window ends", calls.Load())
	}

	time.Sleep(100 * time.Millisecond)
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestDebouncer_SpacedTriggers(t *testing.T) {
	var calls atomic.Int32

	d := New(30*time.Millisecond, func() {
		calls.Add(1)
	})

	for i := 0; i < 3; i++ {
		d.Trigger()
		time.Sleep(80 * time.Millisecond)
	}

	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestDebouncer_ZeroDelayIsSynchronous(t *testing.T) {
	calls := 0
	d := New(0, func() {
		calls++
	})

	d.Trigger()
	if calls != 1 {
		t.Errorf("calls = %d, want 1 immediately", calls)
	}
	d.Trigger()
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if d.Pending() {
		t.Error("zero delay should never leave a call pending")
	}

	neg := New(-time.Second, func() {})
	if neg.Delay() != 0 {
		t.Errorf("Delay() = %v, want 0 for negative input", neg.Delay())
	}
}

func TestDebouncer_Cancel(t *testing.T) {
	var calls atomic.Int32

	d := New(50*time.Millisecond, func() {
		calls.Add(1)
	})

	d.Trigger()
	d.Cancel()
	time.Sleep(100 * time.Millisecond)

	if calls.Load() != 0 {
		t.Errorf("calls = %d, want 0 (canceled)", calls.Load())
	}

	d.Trigger()
	time.Sleep(100 * time.Millisecond)
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1 after triggering again", calls.Load())
	}
}

func TestDebouncer_Stop(t *testing.T) {
	var calls atomic.Int32

	d := New(50*time.Millisecond, func() {
		calls.Add(1)
	})

	d.Trigger()
	d.Stop()
	d.Trigger()
	time.Sleep(100 * time.Millisecond)

	if calls.Load() != 0 {
		t.Errorf("calls = %d, want 0 after Stop", calls.Load())
	}
	if d.Flush() {
		t.Error("Flush() after Stop should report nothing pending")
	}
}

func TestDebouncer_Flush(t *testing.T) {
	var calls atomic.Int32

	d := New(time.Hour, func() {
		calls.Add(1)
	})

	if d.Flush() {
		t.Error("Flush() with nothing pending = true, want false")
	}

	d.Trigger()
	if !d.Flush() {
		t.Error("Flush() with a pending call = false, want true")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
	if d.Pending() {
		t.Error("Pending() after Flush = true")
	}
}
