// internal/alpm.go
package internal

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ALPMBackend reads the local package manager's database files directly.
// Only query and search are in scope here; everything else belongs to the
// proxy backend, which can let the manager do the work.
//
// Search has to open every sync database and scan each package's metadata,
// which is expensive. Query against the local database is the capability
// actually worth having.
type ALPMBackend struct {
	frontend   *Frontend
	pacmanConf string
}

func newALPMBackend(f *Frontend) (Backend, error) {
	return &ALPMBackend{frontend: f, pacmanConf: "/etc/pacman.conf"}, nil
}

func (b *ALPMBackend) Name() string { return "alpm" }

func (b *ALPMBackend) Capabilities() Capability {
	return All ^ (SearchRegex | Sync | Remove | Upgrade)
}

// Query reads package metadata from the local database. Without a name the
// whole database is enumerated with identifying metadata only.
func (b *ALPMBackend) Query(name string) ([]*Package, error) {
	localDB := filepath.Join(alpmDBPath, "local")
	if name == "" {
		entries, err := os.ReadDir(localDB)
		if err != nil {
			return nil, &BackendError{Backend: b.Name(), Message: "cannot read local database", Err: err}
		}
		var packages []*Package
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			pkg, err := b.readLocalEntry(filepath.Join(localDB, entry.Name()), true)
			if err != nil {
				logger.Debugf("skipping %s: %v", entry.Name(), err)
				continue
			}
			packages = append(packages, pkg)
		}
		return packages, nil
	}

	matches, err := filepath.Glob(filepath.Join(localDB, name+"-[0-9]*"))
	if err != nil || len(matches) == 0 {
		return nil, ErrDefer
	}
	var packages []*Package
	for _, dir := range matches {
		pkg, err := b.readLocalEntry(dir, false)
		if err != nil {
			return nil, err
		}
		packages = append(packages, pkg)
	}
	return packages, nil
}

func (b *ALPMBackend) readLocalEntry(dir string, lazy bool) (*Package, error) {
	desc, err := os.ReadFile(filepath.Join(dir, "desc"))
	if err != nil {
		return nil, fmt.Errorf("failed to read desc: %w", err)
	}
	fields := parseDesc(string(desc))
	if _, ok := fields["name"]; !ok {
		// Local entry directories are name-pkgver-pkgrel.
		base := filepath.Base(dir)
		if i := strings.LastIndex(base, "-"); i > 0 {
			if j := strings.LastIndex(base[:i], "-"); j > 0 {
				fields["name"] = base[:j]
			}
		}
	}
	return NewPackage(lazy, fields)
}

// Search scans the enabled repositories' sync databases for packages whose
// name or description contains every term, case-insensitively.
func (b *ALPMBackend) Search(terms ...string) ([]*Package, error) {
	repos, err := b.enabledRepositories()
	if err != nil {
		return nil, err
	}

	lowered := make([]string, len(terms))
	for i, term := range terms {
		lowered[i] = strings.ToLower(term)
	}

	dbs, err := filepath.Glob(filepath.Join(alpmDBPath, "sync", "*.db"))
	if err != nil {
		return nil, err
	}
	var packages []*Package
	for _, db := range dbs {
		repo := strings.TrimSuffix(filepath.Base(db), ".db")
		if !repos[repo] {
			continue
		}
		found, err := b.searchDB(db, repo, lowered)
		if err != nil {
			logger.Errorf("could not read db file %s: %v", db, err)
			continue
		}
		packages = append(packages, found...)
	}
	return packages, nil
}

func (b *ALPMBackend) searchDB(dbPath, repo string, terms []string) ([]*Package, error) {
	file, err := os.Open(dbPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	// Sync databases are compressed tars; the extension doesn't say which
	// compressor, so sniff the magic bytes.
	reader, err := sniffCompression(file)
	if err != nil {
		return nil, err
	}

	var packages []*Package
	seen := make(map[string]bool)
	tr := tar.NewReader(reader)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if path.Base(header.Name) != "desc" {
			continue
		}
		entry := path.Base(path.Dir(header.Name))
		if seen[entry] {
			continue
		}
		desc, err := io.ReadAll(tr)
		if err != nil {
			return nil, err
		}
		fields := parseDesc(string(desc))
		fields["repo"] = repo
		if !matchesTerms(toString(fields["name"]), toString(fields["desc"]), terms) {
			continue
		}
		seen[entry] = true
		pkg, err := NewPackage(false, fields)
		if err != nil {
			logger.Debugf("skipping %s: %v", entry, err)
			continue
		}
		packages = append(packages, pkg)
	}
	return packages, nil
}

// matchesTerms reports whether every lowercased term occurs in the package
// name or description.
func matchesTerms(name, description string, terms []string) bool {
	haystack := strings.ToLower(name) + " " + strings.ToLower(description)
	for _, term := range terms {
		if !strings.Contains(haystack, term) {
			return false
		}
	}
	return true
}

// The remaining operations are outside this backend's declared mask; the
// dispatcher never binds them.
func (b *ALPMBackend) Sync(string) error   { return ErrDefer }
func (b *ALPMBackend) Remove(string) error { return ErrDefer }
func (b *ALPMBackend) Upgrade() error      { return ErrDefer }

// enabledRepositories reads the section headers of the manager's own
// configuration; every section except "options" names a repository.
func (b *ALPMBackend) enabledRepositories() (map[string]bool, error) {
	data, err := os.ReadFile(b.pacmanConf)
	if err != nil {
		return nil, &BackendError{Backend: b.Name(), Message: "cannot read pacman.conf", Err: err}
	}
	repos := make(map[string]bool)
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if len(line) > 2 && line[0] == '[' && line[len(line)-1] == ']' {
			section := line[1 : len(line)-1]
			if section != "options" {
				repos[section] = true
			}
		}
	}
	return repos, nil
}

// parseDesc reads the %FIELD% block format of database desc files into a raw
// field map. A combined version value is split into pkgver and pkgrel.
func parseDesc(desc string) map[string]any {
	fields := make(map[string]any)
	var current string
	var values []string
	flush := func() {
		if current == "" {
			return
		}
		if len(values) == 1 {
			fields[current] = values[0]
		} else if len(values) > 1 {
			fields[current] = append([]string(nil), values...)
		}
		values = values[:0]
	}
	for _, line := range strings.Split(desc, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.HasPrefix(line, "%") && strings.HasSuffix(line, "%") {
			flush()
			current = strings.ToLower(line[1 : len(line)-1])
			continue
		}
		if current == "version" {
			pkgver, pkgrel, found := strings.Cut(line, "-")
			if found {
				fields["pkgver"] = pkgver
				fields["pkgrel"] = pkgrel
			} else {
				fields["pkgver"] = line
			}
			current = ""
			continue
		}
		values = append(values, line)
	}
	flush()
	return fields
}
