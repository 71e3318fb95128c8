// internal/dispatcher.go
package internal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Frontend routes actions across the ordered backend chain and renders the
// aggregated results. Backends hold a reference back to it so an operation
// can re-enter the chain, e.g. to resolve a dependency through a different
// backend.
type Frontend struct {
	cfg      *Config
	backends []Backend
	action   Capability
	out      io.Writer
}

// NewFrontend constructs the backend chain in configured priority order. A
// backend whose constructor fails is dropped from the chain; an empty chain
// is fatal.
func NewFrontend(cfg *Config) (*Frontend, error) {
	f := &Frontend{cfg: cfg, out: os.Stdout}
	for _, name := range cfg.BackendOrder {
		name = strings.TrimSpace(name)
		constructor, ok := backendRegistry[name]
		if !ok {
			logger.Errorf("failed to load backend %s: not registered", name)
			continue
		}
		backend, err := constructor(f)
		if err != nil {
			logger.Errorf("failed to load backend %s: %v", name, err)
			continue
		}
		f.backends = append(f.backends, backend)
	}
	if len(f.backends) == 0 {
		return nil, errors.New("no backends enabled")
	}
	return f, nil
}

// Backends returns the active chain in priority order.
func (f *Frontend) Backends() []Backend {
	return f.backends
}

// Dispatch routes an action across the backend chain. Search is invoked once
// per backend with all names as a combined term list; every other action is
// invoked once per name. A deferring backend falls through to the next one;
// a backend whose declared capabilities exclude the action is skipped with a
// warning. Results keep encounter order, backends outermost, names
// innermost. Producing nothing at all is a clean outcome, not an error.
func (f *Frontend) Dispatch(action Capability, names []string) error {
	actionName := action.Name()
	f.action = action

	var results []*Package
	sideEffects := 0
	succeeded := false
	deferred := false
	produces := action == Query || action == Search

	for i, backend := range f.backends {
		bound := method(backend, action)
		if bound == nil {
			logger.Warnf("backend %s does not support method %s", backend.Name(), actionName)
			continue
		}

		argLists := [][]string{names}
		if action != Search {
			argLists = make([][]string, 0, len(names))
			for _, name := range names {
				argLists = append(argLists, []string{name})
			}
		}

		for _, args := range argLists {
			packages, err := bound(args)
			if errors.Is(err, ErrDefer) {
				deferred = true
				if i < len(f.backends)-1 {
					logger.Infof("deferring to %s", f.backends[i+1].Name())
				}
				// Remaining names move on to the next backend too.
				break
			}
			if err != nil {
				return fmt.Errorf("%s failed: %w", actionName, err)
			}
			succeeded = true
			results = append(results, packages...)
			if !produces {
				sideEffects++
			}
		}
	}

	if len(results) == 0 && sideEffects == 0 {
		if deferred && !succeeded {
			logger.Info("no backend could satisfy the request")
		} else {
			logger.Info("no results")
		}
		return nil
	}
	if hook := f.postHook(actionName); hook != nil {
		return hook(results)
	}
	return nil
}

// postHook returns the post-processing hook registered for an action's
// symbolic name, or nil when the action has none.
func (f *Frontend) postHook(actionName string) func([]*Package) error {
	switch actionName {
	case "query":
		return f.postQuery
	case "search":
		return f.postSearch
	case "sync":
		return f.postSync
	}
	return nil
}

func (f *Frontend) postQuery(packages []*Package) error {
	return f.postSearch(packages)
}

func (f *Frontend) postSearch(packages []*Package) error {
	for index, pkg := range packages {
		if err := f.printPackage(pkg, index+1); err != nil {
			return err
		}
	}
	return nil
}

// postSync is a no-op: the side effects already happened in the backend.
func (f *Frontend) postSync([]*Package) error {
	return nil
}

// printPackage renders one result line pair: an indexed, colorized header
// and a wrapped description. Outside query output, a package that is also
// installed locally gets a marker showing whether the candidate is newer or
// older than the installed version.
func (f *Frontend) printPackage(pkg *Package, index int) error {
	header := fmt.Sprintf("%4d› %s/%s %s",
		index,
		color.MagentaString(pkg.Meta.Repo),
		color.New(color.FgWhite, color.Bold).Sprint(pkg.Name()),
		color.GreenString(f.displayVersion(pkg)))

	if marker := f.installedMarker(pkg); marker != "" {
		header += " " + marker
	}

	description := pkg.Meta.Description
	if f.cfg.Output.DescWrap != -1 {
		description = wrapText(description, f.cfg.Output.DescWrap, f.cfg.Output.DescIndent)
	}

	if _, err := fmt.Fprintln(f.out, header); err != nil {
		return err
	}
	_, err := fmt.Fprintln(f.out, description)
	return err
}

func (f *Frontend) displayVersion(pkg *Package) string {
	if pkg.Meta.Pkgver != "" {
		version := pkg.Meta.Pkgver
		if pkg.Meta.Pkgrel != "" {
			version += "-" + pkg.Meta.Pkgrel
		}
		return version
	}
	if pkg.Version() != nil {
		return pkg.Version().String()
	}
	return ""
}

func (f *Frontend) installedMarker(pkg *Package) string {
	if f.action == Query || pkg.Version() == nil {
		return ""
	}
	installed := installedVersion(pkg.Name())
	if installed == nil {
		return ""
	}
	switch pkg.Version().Compare(installed) {
	case 1:
		return color.GreenString("↑")
	case -1:
		return color.RedString("↓")
	}
	return ""
}
