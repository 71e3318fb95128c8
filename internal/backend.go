// internal/backend.go
package internal

import (
	"errors"
	"fmt"
)

// ErrDefer is the control-flow signal a backend returns when it cannot
// satisfy this specific request and the next backend in the chain should be
// tried. It is not an error condition and must never be logged as one.
var ErrDefer = errors.New("defer to next backend")

// Backend is a polymorphic provider of package-management capabilities over
// one package source. A backend declares its supported capabilities as a
// bitmask and exposes one operation per action; any operation may return
// ErrDefer to decline at runtime even if declared supported.
type Backend interface {
	// Name is the symbolic name the backend is registered under.
	Name() string

	// Capabilities returns the fixed capability mask for this variant.
	Capabilities() Capability

	// Query returns installed/known packages. An empty name enumerates
	// everything the source knows; a named lookup that finds nothing
	// returns ErrDefer so the chain can try alternate sources.
	Query(name string) ([]*Package, error)

	// Search matches name and/or description against the ANDed terms,
	// case-insensitively.
	Search(terms ...string) ([]*Package, error)

	// Sync resolves, fetches and installs a package, recursively resolving
	// unmet dependencies through the owning frontend.
	Sync(name string) error

	Remove(name string) error
	Upgrade() error
}

// BackendError carries the backend name alongside the underlying cause.
type BackendError struct {
	Backend string
	Message string
	Err     error
}

func (e *BackendError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Backend, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Backend, e.Message)
}

func (e *BackendError) Unwrap() error { return e.Err }

// backendConstructor builds a backend bound to its owning frontend. The
// constructor runs once per process, in configured priority order, and may
// perform idempotent setup; an error drops the backend from the chain.
type backendConstructor func(f *Frontend) (Backend, error)

// backendRegistry maps the symbolic names used in backend_order
// configuration to constructors. New variants register here; the dispatcher
// never changes.
var backendRegistry = map[string]backendConstructor{
	"pacman": newPacmanBackend,
	"alpm":   newALPMBackend,
	"aur":    newAURBackend,
}

// boundMethod is an action operation bound to a backend, normalized to a
// uniform shape for the dispatch loop.
type boundMethod func(args []string) ([]*Package, error)

// method returns the operation implementing capability on b, or nil when the
// backend's declared mask excludes it. A nil return is static incapability,
// distinct from a supported operation that defers or fails at runtime.
func method(b Backend, capability Capability) boundMethod {
	if !Test(b.Capabilities(), capability) {
		return nil
	}
	switch capability {
	case Query:
		return func(args []string) ([]*Package, error) {
			name := ""
			if len(args) > 0 {
				name = args[0]
			}
			return b.Query(name)
		}
	case Search:
		return func(args []string) ([]*Package, error) {
			return b.Search(args...)
		}
	case Sync:
		return func(args []string) ([]*Package, error) {
			return nil, b.Sync(args[0])
		}
	case Remove:
		return func(args []string) ([]*Package, error) {
			return nil, b.Remove(args[0])
		}
	case Upgrade:
		return func(args []string) ([]*Package, error) {
			return nil, b.Upgrade()
		}
	}
	return nil
}
