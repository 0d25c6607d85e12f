package listfilter

import (
	"sync"
	"time"
)

// Timer is the part of *time.Timer the debouncer needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc is the default.
type AfterFunc func(d time.Duration, f func()) Timer

type debounceOptions struct {
	afterFunc AfterFunc
}

type DebounceOption func(*debounceOptions)

func WithAfterFunc(fn AfterFunc) DebounceOption {
	return func(o *debounceOptions) { o.afterFunc = fn }
}

// Debouncer tracks a live value that changes on every keystroke and an
// effective value that only settles once the input has been quiet for delay.
// Each Set restarts the wait.
type Debouncer[T any] struct {
	mu        sync.Mutex
	delay     time.Duration
	afterFunc AfterFunc
	onSettle  func(T)

	live      T
	effective T
	timer     Timer
	pending   bool
	gen       uint64
}

func NewDebouncer[T any](delay time.Duration, onSettle func(T), opts ...DebounceOption) *Debouncer[T] {
	o := debounceOptions{
		afterFunc: func(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) },
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Debouncer[T]{delay: delay, afterFunc: o.afterFunc, onSettle: onSettle}
}

func (d *Debouncer[T]) Set(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.live = v
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.pending = true
	d.timer = d.afterFunc(d.delay, func() { d.settle(gen, v) })
}

// settle ignores callbacks from timers that a later Set or Stop superseded.
func (d *Debouncer[T]) settle(gen uint64, v T) {
	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.effective = v
	d.timer = nil
	d.pending = false
	cb := d.onSettle
	d.mu.Unlock()

	if cb != nil {
		cb(v)
	}
}

// Flush settles a pending value immediately.
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	// A timer callback already in flight still holds the old generation.
	d.gen++
	gen, v := d.gen, d.live
	d.mu.Unlock()

	d.settle(gen, v)
}

// Stop drops any pending value without settling it.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = false
	d.gen++
}

func (d *Debouncer[T]) Live() T {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.live
}

func (d *Debouncer[T]) Effective() T {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.effective
}

func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}
