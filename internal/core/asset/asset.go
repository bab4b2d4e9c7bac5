package asset

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/novaengine/nova/internal/core/errs"
)

const (
	statePending int32 = iota
	stateDecoding
	stateDone
)

// entry is the per-key in-flight marker. Exactly one goroutine wins claim and
// runs the decode; everyone else waits on done.
type entry struct {
	state  atomic.Int32
	done   chan struct{}
	decode func() (Data, error)
	hold   func() (release func())
	data   Data
	err    error
}

func newEntry(decode func() (Data, error), hold func() (release func())) *entry {
	return &entry{
		done:   make(chan struct{}),
		decode: decode,
		hold:   hold,
	}
}

func (e *entry) claim() bool {
	return e.state.CompareAndSwap(statePending, stateDecoding)
}

func (e *entry) run() {
	defer func() {
		if rec := recover(); rec != nil {
			e.err = fmt.Errorf("decoder panic: %v", rec)
		}
		e.decode = nil
		e.state.Store(stateDone)
		close(e.done)
	}()
	e.data, e.err = e.decode()
}

// runInline runs a decode claimed outside the scheduled task.
func (e *entry) runInline() {
	if e.hold != nil {
		defer e.hold()()
	}
	e.run()
}

// resolve decodes on the caller's goroutine if nobody has started yet,
// otherwise blocks until the decode in flight finishes.
func (e *entry) resolve() {
	if e.claim() {
		e.runInline()
		return
	}
	<-e.done
}

func (e *entry) wait(ctx context.Context) error {
	if e.claim() {
		e.runInline()
		return nil
	}
	select {
	case <-e.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Handle is the type-erased view of an Asset used for bookkeeping.
type Handle interface {
	Path() string
	Kind() Kind
	Ready() bool
	Wait(ctx context.Context) error
}

// Asset is a shared handle to decoded data of type T. The cache hands out one
// Asset per (path, kind); every holder sees the same object.
type Asset[T Data] struct {
	path string
	kind Kind
	e    *entry
}

// Path returns the resolved path relative to the asset root.
func (a *Asset[T]) Path() string { return a.path }

// Kind returns the kind requested when the asset was loaded.
func (a *Asset[T]) Kind() Kind { return a.kind }

// Ready reports whether decoding has finished, successfully or not.
func (a *Asset[T]) Ready() bool { return a.e.state.Load() == stateDone }

// Wait blocks until the decode has finished or ctx ends. A failed decode is
// not reported here; Get returns it.
func (a *Asset[T]) Wait(ctx context.Context) error { return a.e.wait(ctx) }

// Get returns the decoded data, blocking until it is available. It fails if
// decoding failed or the file decoded to a different kind than requested.
func (a *Asset[T]) Get() (T, error) {
	var zero T
	a.e.resolve()
	if a.e.err != nil {
		if errs.KindOf(a.e.err) == errs.KindAssetLoad {
			return zero, a.e.err
		}
		return zero, errs.AssetLoad("asset.get", a.e.err, "decode %s", a.path)
	}
	d, ok := a.e.data.(T)
	if !ok {
		return zero, errs.AssetLoad("asset.get", nil, "%s decoded as %s, requested %s",
			a.path, a.e.data.Kind(), a.kind)
	}
	return d, nil
}

// MustGet is Get for assets known to be valid; it panics on error.
func (a *Asset[T]) MustGet() T {
	d, err := a.Get()
	if err != nil {
		panic(err)
	}
	return d
}
