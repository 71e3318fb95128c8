// internal/pacman.go
package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// pacmanSwitches maps actions to the manager's command-line switches.
var pacmanSwitches = map[Capability]string{
	Query:   "-Q",
	Remove:  "-R",
	Sync:    "-S",
	Search:  "-Ss",
	Upgrade: "-Su",
}

// pacmanOutputRE parses the manager's search output:
// repo/name version [group] [flags], description indented on the next line.
var pacmanOutputRE = regexp.MustCompile(
	`(?m)^([\w.\-]+)/([\w.@+\-]+) (\S+)` +
		`(?: \((.+?)\))?` +
		`(?: \[[^\]]+\])?\n {4}(.*)$`)

// targetNotFound is the manager's recognizable "package doesn't exist here"
// stderr signal, which reinterprets a failure as a defer.
const targetNotFound = "target not found"

// PacmanBackend proxies every operation to the system package manager
// binary, parsing its tabular output back into the common package model.
type PacmanBackend struct {
	frontend *Frontend
	opts     *PacmanOptions
}

func newPacmanBackend(f *Frontend) (Backend, error) {
	return &PacmanBackend{frontend: f, opts: &f.cfg.Pacman}, nil
}

func (b *PacmanBackend) Name() string { return "pacman" }

func (b *PacmanBackend) Capabilities() Capability {
	return All ^ SearchPattern
}

// Query lists installed packages, or looks one up by name. A named lookup
// the manager doesn't know defers to the next backend.
func (b *PacmanBackend) Query(name string) ([]*Package, error) {
	args := []string{pacmanSwitches[Query]}
	if name != "" {
		args = append(args, name)
	}
	result, err := runCapture(b.opts.Binary, args...)
	if err != nil {
		return nil, err
	}
	if result.code != 0 {
		if name != "" {
			return nil, ErrDefer
		}
		return nil, &BackendError{Backend: b.Name(), Message: "query failed",
			Err: fmt.Errorf("%s", strings.TrimSpace(result.stderr))}
	}

	var packages []*Package
	for _, line := range strings.Split(result.stdout, "\n") {
		if line == "" {
			continue
		}
		pkgName, version, found := strings.Cut(line, " ")
		if !found {
			continue
		}
		pkg, err := b.queriedPackage(pkgName, version)
		if err != nil {
			return nil, err
		}
		packages = append(packages, pkg)
	}
	return packages, nil
}

func (b *PacmanBackend) queriedPackage(name, version string) (*Package, error) {
	if b.opts.ParseDescOnQuery {
		desc, err := os.ReadFile(filepath.Join(alpmDBPath, "local",
			name+"-"+version, "desc"))
		if err == nil {
			fields := parseDesc(string(desc))
			fields["name"] = name
			return NewPackage(false, fields)
		}
		logger.Debugf("no local desc for %s-%s: %v", name, version, err)
	}
	return NewPackage(true, map[string]any{"name": name, "version": version})
}

// Search runs the manager's repository search with all terms combined. A
// nonzero exit means no match here and defers to the next backend.
func (b *PacmanBackend) Search(terms ...string) ([]*Package, error) {
	args := append([]string{pacmanSwitches[Search]}, terms...)
	if !b.opts.ParseOutput {
		result, err := runInteractive("", b.opts.Binary, args...)
		if err != nil {
			return nil, err
		}
		if result.code != 0 {
			return nil, ErrDefer
		}
		return nil, nil
	}
	result, err := runCapture(b.opts.Binary, args...)
	if err != nil {
		return nil, err
	}
	if result.code != 0 {
		return nil, ErrDefer
	}
	packages, err := parsePacmanSearch(result.stdout)
	if err != nil {
		return nil, &BackendError{Backend: b.Name(), Message: "malformed search output", Err: err}
	}
	return packages, nil
}

// parsePacmanSearch parses the manager's two-line-per-package search output.
func parsePacmanSearch(output string) ([]*Package, error) {
	var packages []*Package
	for _, match := range pacmanOutputRE.FindAllStringSubmatch(output, -1) {
		fields := map[string]any{
			"repo":        match[1],
			"name":        match[2],
			"version":     match[3],
			"description": match[5],
		}
		if match[4] != "" {
			fields["groups"] = strings.Split(match[4], " ")
		}
		pkg, err := NewPackage(false, fields)
		if err != nil {
			return nil, err
		}
		packages = append(packages, pkg)
	}
	return packages, nil
}

// Sync installs a package from the manager's repositories. An unknown target
// defers so another backend may recognize it.
func (b *PacmanBackend) Sync(name string) error {
	if b.opts.SyncPrecheck {
		result, err := runCapture(b.opts.Binary, "-Si", name)
		if err != nil {
			return err
		}
		if result.code != 0 {
			logger.Debugf("sync database does not know %s", name)
			return ErrDefer
		}
	}

	bin, args := asRoot(b.opts.Binary, pacmanSwitches[Sync], name)
	result, err := runInteractive("", bin, args...)
	if err != nil {
		return err
	}
	if !strings.Contains(result.stderr, targetNotFound) {
		os.Stderr.WriteString(result.stderr)
	}
	if result.code != 0 {
		return ErrDefer
	}
	return nil
}

func (b *PacmanBackend) Remove(name string) error {
	bin, args := asRoot(b.opts.Binary, pacmanSwitches[Remove], name)
	result, err := runInteractive("", bin, args...)
	if err != nil {
		return err
	}
	if result.code != 0 {
		return &BackendError{Backend: b.Name(), Message: "removal failed",
			Err: fmt.Errorf("%s", strings.TrimSpace(result.stderr))}
	}
	return nil
}

func (b *PacmanBackend) Upgrade() error {
	bin, args := asRoot(b.opts.Binary, pacmanSwitches[Upgrade])
	result, err := runInteractive("", bin, args...)
	if err != nil {
		return err
	}
	if result.code != 0 {
		return &BackendError{Backend: b.Name(), Message: "upgrade failed",
			Err: fmt.Errorf("%s", strings.TrimSpace(result.stderr))}
	}
	return nil
}
