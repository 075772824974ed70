// Package notify delivers highlight change events to subscribers.
//
// Observers can subscribe to every change or only to changes of one range
// id. Delivery is synchronous by default; WithAsync moves it to a
// background goroutine fed by a buffered channel.
package notify

import (
	"sync"

	"github.com/dshills/highlighter/internal/geom"
)

// ChangeType represents the kind of highlight change.
type ChangeType int

const (
	// ChangeAdded indicates a range was added and painted.
	ChangeAdded ChangeType = iota

	// ChangeDeleted indicates a range was removed.
	ChangeDeleted

	// ChangeCleared indicates every range was removed.
	ChangeCleared

	// ChangeResized indicates the container was resized and all ranges
	// were re-rendered.
	ChangeResized
)

// String returns the change type name.
func (c ChangeType) String() string {
	switch c {
	case ChangeAdded:
		return "added"
	case ChangeDeleted:
		return "deleted"
	case ChangeCleared:
		return "cleared"
	case ChangeResized:
		return "resized"
	default:
		return "unknown"
	}
}

// Change is one highlight change event.
type Change struct {
	// Type is the kind of change.
	Type ChangeType

	// ID is the affected range id. Empty for cleared and resized events.
	ID string

	// Bounds is the union of the range's rectangles for added events.
	Bounds geom.Rect

	// Size is the new container size for resized events.
	Size geom.Size
}

// Observer is called when a change occurs.
type Observer func(change Change)

// Subscription represents an active observer subscription.
type Subscription struct {
	id       uint64
	rangeID  string
	notifier *Notifier
}

// Unsubscribe removes this subscription. It is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s != nil && s.notifier != nil {
		s.notifier.unsubscribe(s.id)
	}
}

// Notifier manages change subscriptions.
type Notifier struct {
	mu sync.RWMutex

	// Observers that receive all changes
	globalObservers map[uint64]Observer

	// Observers keyed by range id
	rangeObservers map[string]map[uint64]Observer

	nextID uint64

	async  bool
	buffer chan Change
	done   chan struct{}
	wg     sync.WaitGroup
	closed bool
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithAsync enables asynchronous delivery through a buffer of the given
// size. Notify blocks when the buffer is full.
func WithAsync(bufferSize int) Option {
	return func(n *Notifier) {
		if bufferSize > 0 {
			n.async = true
			n.buffer = make(chan Change, bufferSize)
		}
	}
}

// New creates a Notifier.
func New(opts ...Option) *Notifier {
	n := &Notifier{
		globalObservers: make(map[uint64]Observer),
		rangeObservers:  make(map[string]map[uint64]Observer),
		done:            make(chan struct{}),
	}

	for _, opt := range opts {
		opt(n)
	}

	if n.async {
		n.wg.Add(1)
		go n.processAsync()
	}

	return n
}

// Subscribe registers an observer for all changes.
func (n *Notifier) Subscribe(observer Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.globalObservers[id] = observer

	return &Subscription{id: id, notifier: n}
}

// SubscribeRange registers an observer for changes to one range id.
// Cleared and resized events affect every range and are delivered too.
func (n *Notifier) SubscribeRange(rangeID string, observer Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++

	if n.rangeObservers[rangeID] == nil {
		n.rangeObservers[rangeID] = make(map[uint64]Observer)
	}
	n.rangeObservers[rangeID][id] = observer

	return &Subscription{id: id, rangeID: rangeID, notifier: n}
}

// Notify sends a change to all relevant observers. It does nothing after
// Close.
func (n *Notifier) Notify(change Change) {
	n.mu.RLock()
	if n.closed {
		n.mu.RUnlock()
		return
	}
	n.mu.RUnlock()

	if n.async {
		select {
		case n.buffer <- change:
		case <-n.done:
		}
		return
	}

	n.deliver(change)
}

// Close shuts down the notifier, draining buffered changes first. It is
// safe to call Close multiple times.
func (n *Notifier) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	n.mu.Unlock()

	close(n.done)
	n.wg.Wait()
}

func (n *Notifier) unsubscribe(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	delete(n.globalObservers, id)

	for rangeID, observers := range n.rangeObservers {
		delete(observers, id)
		if len(observers) == 0 {
			delete(n.rangeObservers, rangeID)
		}
	}
}

// deliver calls every matching observer outside the lock.
func (n *Notifier) deliver(change Change) {
	n.mu.RLock()

	var observers []Observer
	for _, obs := range n.globalObservers {
		observers = append(observers, obs)
	}

	if change.ID != "" {
		for _, obs := range n.rangeObservers[change.ID] {
			observers = append(observers, obs)
		}
	} else {
		for _, byRange := range n.rangeObservers {
			for _, obs := range byRange {
				observers = append(observers, obs)
			}
		}
	}

	n.mu.RUnlock()

	for _, obs := range observers {
		obs(change)
	}
}

func (n *Notifier) processAsync() {
	defer n.wg.Done()

	for {
		select {
		case change := <-n.buffer:
			n.deliver(change)
		case <-n.done:
			for {
				select {
				case change := <-n.buffer:
					n.deliver(change)
				default:
					return
				}
			}
		}
	}
}
