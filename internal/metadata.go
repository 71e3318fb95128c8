// internal/metadata.go
package internal

import (
	"fmt"
	"strconv"
	"strings"
)

// fieldAliases maps accepted synonym keys to their canonical field. The
// rewrite happens once, at construction; after that only canonical fields
// exist.
var fieldAliases = map[string]string{
	"desc":       "description",
	"pkgname":    "name",
	"url":        "pkgsite",
	"repository": "repo",
	"size":       "tarsize",
}

// requiredFields must be present (or derivable from a combined version
// string) unless the metadata is constructed lazily.
var requiredFields = []string{"name", "pkgver", "pkgrel"}

// Metadata is the normalized in-memory representation of a package's
// attributes, independent of which backend produced it.
type Metadata struct {
	Name        string
	Pkgver      string
	Pkgrel      string
	Version     *Version
	Description string
	URL         string // canonical key "pkgsite"
	URLPath     string
	Repo        string
	Category    string
	Arch        string
	License     string
	Maintainer  string
	Packager    string
	Groups      []string
	Provides    []string
	Conflicts   []string
	Depends     []*Dependency
	MakeDepends []string
	RequiredBy  []string
	Source      []string
	MD5Sums     []string
	SHA1Sums    []string
	SHA256Sums  []string
	SHA384Sums  []string
	SHA512Sums  []string
	Votes       int
	OutOfDate   bool
	Size        int64 // canonical key "tarsize"
}

// NewMetadata builds a Metadata from a raw field map as produced by a
// backend's source (command output, JSON results, recipe variables). Keys are
// case-insensitive and synonym keys are rewritten to their canonical field.
// Unless lazy, name, pkgver and pkgrel must be present or derivable from a
// combined "version" value; lazy construction requires only a name.
func NewMetadata(lazy bool, fields map[string]any) (*Metadata, error) {
	m := &Metadata{}
	var combined string
	for key, value := range fields {
		key = strings.ToLower(key)
		if canonical, ok := fieldAliases[key]; ok {
			key = canonical
		}
		if key == "version" {
			combined = toString(value)
			continue
		}
		if err := m.set(key, value); err != nil {
			return nil, err
		}
	}

	if combined != "" {
		v, err := ParseVersion(combined)
		if err != nil {
			return nil, err
		}
		m.Version = v
		m.Pkgver = v.Version
		m.Pkgrel = strconv.Itoa(v.Release)
	} else if m.Pkgver != "" && m.Pkgrel != "" {
		v, err := ParseVersion(m.Pkgver + "-" + m.Pkgrel)
		if err != nil {
			return nil, err
		}
		m.Version = v
	}

	if !lazy {
		for _, field := range requiredFields {
			if m.get(field) == "" {
				return nil, fmt.Errorf("required metadata is missing: %s", field)
			}
		}
	} else if m.Name == "" {
		return nil, fmt.Errorf("package metadata must at least have a name")
	}
	return m, nil
}

func (m *Metadata) set(key string, value any) error {
	switch key {
	case "name":
		m.Name = toString(value)
	case "pkgver":
		m.Pkgver = toString(value)
	case "pkgrel":
		m.Pkgrel = toString(value)
	case "description":
		m.Description = toString(value)
	case "pkgsite":
		m.URL = toString(value)
	case "urlpath":
		m.URLPath = toString(value)
	case "repo":
		m.Repo = toString(value)
	case "category":
		m.Category = toString(value)
	case "arch":
		m.Arch = toString(value)
	case "license":
		m.License = strings.Join(toStrings(value), ", ")
	case "maintainer":
		m.Maintainer = toString(value)
	case "packager":
		m.Packager = toString(value)
	case "groups":
		m.Groups = toStrings(value)
	case "provides":
		m.Provides = toStrings(value)
	case "conflicts":
		m.Conflicts = toStrings(value)
	case "depends":
		deps, err := toDependencies(value)
		if err != nil {
			return err
		}
		m.Depends = deps
	case "makedepends":
		m.MakeDepends = toStrings(value)
	case "required_by":
		m.RequiredBy = toStrings(value)
	case "source":
		m.Source = toStrings(value)
	case "md5sums":
		m.MD5Sums = toStrings(value)
	case "sha1sums":
		m.SHA1Sums = toStrings(value)
	case "sha256sums":
		m.SHA256Sums = toStrings(value)
	case "sha384sums":
		m.SHA384Sums = toStrings(value)
	case "sha512sums":
		m.SHA512Sums = toStrings(value)
	case "votes", "numvotes":
		m.Votes = int(toInt64(value))
	case "outofdate":
		m.OutOfDate = toInt64(value) != 0 || toString(value) == "true"
	case "tarsize":
		m.Size = toInt64(value)
	}
	// Unrecognized keys are ignored; sources carry fields the model does
	// not track.
	return nil
}

func (m *Metadata) get(field string) string {
	switch field {
	case "name":
		return m.Name
	case "pkgver":
		return m.Pkgver
	case "pkgrel":
		return m.Pkgrel
	}
	return ""
}

// Checksum returns the first digest list present, probing the same algorithm
// order for every package regardless of source.
func (m *Metadata) Checksum() []string {
	for _, sums := range [][]string{m.SHA1Sums, m.SHA256Sums, m.SHA384Sums, m.SHA512Sums, m.MD5Sums} {
		if len(sums) > 0 {
			return sums
		}
	}
	return nil
}

func toString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []string:
		if len(v) > 0 {
			return v[0]
		}
		return ""
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

func toStrings(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, toString(item))
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	default:
		return []string{toString(v)}
	}
}

func toInt64(value any) int64 {
	switch v := value.(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	case string:
		n, _ := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n
	case bool:
		if v {
			return 1
		}
	}
	return 0
}

func toDependencies(value any) ([]*Dependency, error) {
	if deps, ok := value.([]*Dependency); ok {
		return deps, nil
	}
	raw := toStrings(value)
	deps := make([]*Dependency, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		dep, err := ParseDependency(s)
		if err != nil {
			return nil, err
		}
		deps = append(deps, dep)
	}
	return deps, nil
}

// Package wraps a Metadata with a lazy flag. A lazy package carries only
// partial, identifying metadata pending a full fetch. Two packages are the
// same logical package when their names match, regardless of source backend.
type Package struct {
	Lazy bool
	Meta *Metadata
}

// NewPackage builds a Package from raw metadata fields.
func NewPackage(lazy bool, fields map[string]any) (*Package, error) {
	meta, err := NewMetadata(lazy, fields)
	if err != nil {
		return nil, err
	}
	return &Package{Lazy: lazy, Meta: meta}, nil
}

func (p *Package) Name() string      { return p.Meta.Name }
func (p *Package) Version() *Version { return p.Meta.Version }

// SameAs reports whether o refers to the same logical package.
func (p *Package) SameAs(o *Package) bool {
	return o != nil && p.Name() == o.Name()
}

func (p *Package) String() string {
	if p.Lazy || p.Meta.Pkgver == "" {
		return p.Meta.Name
	}
	return fmt.Sprintf("%s %s-%s", p.Meta.Name, p.Meta.Pkgver, p.Meta.Pkgrel)
}
