// Package errs defines the error kinds surfaced by the engine core.
//
// Every failure the core reports to callers is an *Error carrying one of three
// kinds. Callers match on kind with errors.Is against the package sentinels:
//
//	if errors.Is(err, errs.ErrCore) { ... }
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an engine error.
type Kind int

const (
	// KindCore is engine misuse: starting before configuration, unknown
	// scene names, job submissions over the cap.
	KindCore Kind = iota + 1
	// KindAssetLoad covers missing paths, decode failures and type mismatches.
	KindAssetLoad
	// KindComponent covers illegal component attach/detach operations.
	KindComponent
)

func (k Kind) String() string {
	switch k {
	case KindCore:
		return "CoreException"
	case KindAssetLoad:
		return "AssetLoadError"
	case KindComponent:
		return "ComponentError"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is the concrete error type returned by the core packages.
type Error struct {
	Kind Kind
	Op   string // operation that failed, e.g. "scene.start"
	Msg  string
	Err  error // optional cause
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = msg + ": " + e.Err.Error()
		}
	}
	if e.Op == "" {
		return fmt.Sprintf("%s: %s", e.Kind, msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Op, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is a kind sentinel matching e.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Op == "" && t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrCore      = &Error{Kind: KindCore}
	ErrAssetLoad = &Error{Kind: KindAssetLoad}
	ErrComponent = &Error{Kind: KindComponent}
)

// Core returns a KindCore error.
func Core(op, format string, args ...any) error {
	return &Error{Kind: KindCore, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// AssetLoad returns a KindAssetLoad error wrapping cause (which may be nil).
func AssetLoad(op string, cause error, format string, args ...any) error {
	return &Error{Kind: KindAssetLoad, Op: op, Msg: fmt.Sprintf(format, args...), Err: cause}
}

// Component returns a KindComponent error.
func Component(op, format string, args ...any) error {
	return &Error{Kind: KindComponent, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
