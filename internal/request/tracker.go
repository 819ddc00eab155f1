// Package request tracks the lifecycle of a single remote read: the last data
// received, whether a fetch is in flight, and the last error.
package request

import (
	"context"
	"sync"
)

// FetchFunc performs one fetch of url.
type FetchFunc[T any] func(ctx context.Context, url string) (T, error)

// State is a snapshot of a Tracker.
// Data stays populated while a refetch is loading and is cleared on failure.
type State[T any] struct {
	Data    *T
	Loading bool
	Err     error
}

// Option configures a Tracker.
type Option[T any] func(*Tracker[T])

// WithOnChange registers fn to be called after every state transition.
// Calls are delivered one at a time in the order the transitions happened.
// fn may call State but must not call Refetch.
func WithOnChange[T any](fn func(State[T])) Option[T] {
	return func(t *Tracker[T]) { t.onChange = fn }
}

// WithContext sets the context used for the fetch started by New.
func WithContext[T any](ctx context.Context) Option[T] {
	return func(t *Tracker[T]) { t.initCtx = ctx }
}

// Tracker holds the state of a fetchable resource.
type Tracker[T any] struct {
	url   string
	fetch FetchFunc[T]

	// notifyMu is held from a transition until its callback returns.
	notifyMu sync.Mutex

	mu      sync.Mutex
	data    *T
	loading bool
	err     error

	onChange func(State[T])
	initCtx  context.Context
	initDone chan struct{}
}

// New creates a tracker for url. With a non-empty url a fetch is started in the
// background right away and the tracker reports Loading from the start; with an
// empty url the tracker is in manual mode and waits for Refetch.
func New[T any](url string, fetch FetchFunc[T], opts ...Option[T]) *Tracker[T] {
	t := &Tracker[T]{
		url:      url,
		fetch:    fetch,
		initCtx:  context.Background(),
		initDone: make(chan struct{}),
	}
	for _, o := range opts {
		o(t)
	}
	if url == "" {
		close(t.initDone)
		return t
	}
	t.loading = true
	go func() {
		defer close(t.initDone)
		_, _ = t.Refetch(t.initCtx, "")
	}()
	return t
}

// Ready is closed once the fetch started by New has completed.
// In manual mode it is closed immediately.
func (t *Tracker[T]) Ready() <-chan struct{} {
	return t.initDone
}

// State returns the current snapshot.
func (t *Tracker[T]) State() State[T] {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Tracker[T]) snapshotLocked() State[T] {
	s := State[T]{Loading: t.loading, Err: t.err}
	if t.data != nil {
		d := *t.data
		s.Data = &d
	}
	return s
}

// Refetch fetches overrideURL, or the tracker's own url when overrideURL is
// empty. With neither it returns the zero value and leaves the state alone.
// The result is returned to the caller as well as recorded. Overlapping
// refetches are not ordered: whichever finishes last determines the state.
func (t *Tracker[T]) Refetch(ctx context.Context, overrideURL string) (T, error) {
	var zero T
	url := overrideURL
	if url == "" {
		url = t.url
	}
	if url == "" {
		return zero, nil
	}

	t.update(func() {
		t.loading = true
		t.err = nil
	})

	v, err := t.fetch(ctx, url)
	if err != nil {
		t.update(func() {
			t.data = nil
			t.err = err
			t.loading = false
		})
		return zero, err
	}
	t.update(func() {
		t.data = &v
		t.loading = false
	})
	return v, nil
}

func (t *Tracker[T]) update(fn func()) {
	t.notifyMu.Lock()
	defer t.notifyMu.Unlock()

	t.mu.Lock()
	fn()
	snap := t.snapshotLocked()
	t.mu.Unlock()
	if t.onChange != nil {
		t.onChange(snap)
	}
}
