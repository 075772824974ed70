package notify

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dshills/highlighter/internal/geom"
)

func TestChangeType_String(t *testing.T) {
	tests := []struct {
		ct   ChangeType
		want string
	}{
		{ChangeAdded, "added"},
		{ChangeDeleted, "deleted"},
		{ChangeCleared, "cleared"},
		{ChangeResized, "resized"},
		{ChangeType(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.ct.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.ct, got, tt.want)
		}
	}
}

func TestNotifier_Subscribe(t *testing.T) {
	n := New()
	defer n.Close()

	var got []Change
	sub := n.Subscribe(func(change Change) {
		got = append(got, change)
	})

	n.Notify(Change{Type: ChangeAdded, ID: "h1", Bounds: geom.NewRect(0, 0, 10, 10)})
	if len(got) != 1 || got[0].ID != "h1" || got[0].Type != ChangeAdded {
		t.Fatalf("received %v", got)
	}

	sub.Unsubscribe()
	sub.Unsubscribe()
	n.Notify(Change{Type: ChangeDeleted, ID: "h1"})
	if len(got) != 1 {
		t.Error("unsubscribed observer should not be called")
	}
}

func TestNotifier_SubscribeRange(t *testing.T) {
	n := New()
	defer n.Close()

	var mine, global int
	n.SubscribeRange("h1", func(Change) { mine++ })
	n.Subscribe(func(Change) { global++ })

	n.Notify(Change{Type: ChangeAdded, ID: "h1"})
	n.Notify(Change{Type: ChangeAdded, ID: "h2"})
	n.Notify(Change{Type: ChangeCleared})
	n.Notify(Change{Type: ChangeResized, Size: geom.Size{Width: 10, Height: 10}})

	if mine != 3 {
		t.Errorf("range observer calls = %d, want 3 (own add, clear, resize)", mine)
	}
	if global != 4 {
		t.Errorf("global observer calls = %d, want 4", global)
	}
}

func TestNotifier_UnsubscribeRange(t *testing.T) {
	n := New()
	defer n.Close()

	sub := n.SubscribeRange("h1", func(Change) {})
	sub.Unsubscribe()

	n.mu.RLock()
	defer n.mu.RUnlock()
	if len(n.rangeObservers) != 0 {
		t.Errorf("rangeObservers = %v, want empty", n.rangeObservers)
	}
}

func TestNotifier_Async(t *testing.T) {
	n := New(WithAsync(16))

	var count atomic.Int32
	var wg sync.WaitGroup
	wg.Add(5)
	n.Subscribe(func(Change) {
		count.Add(1)
		wg.Done()
	})

	for i := 0; i < 5; i++ {
		n.Notify(Change{Type: ChangeAdded, ID: "x"})
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("async delivery timed out")
	}

	n.Close()
	if count.Load() != 5 {
		t.Errorf("count = %d, want 5", count.Load())
	}
}

func TestNotifier_Close(t *testing.T) {
	n := New()
	called := false
	n.Subscribe(func(Change) { called = true })

	n.Close()
	n.Close()
	n.Notify(Change{Type: ChangeCleared})

	if called {
		t.Error("Notify after Close should not deliver")
	}
}
