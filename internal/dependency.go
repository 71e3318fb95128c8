// internal/dependency.go
package internal

import (
	"fmt"
	"strings"
)

// CompareOp is the comparison operator of a version-constrained dependency.
type CompareOp int

const (
	OpAny CompareOp = iota
	OpGreater
	OpLess
	OpEqual
	OpGreaterEqual
	OpLessEqual
)

var compareOpStrings = map[string]CompareOp{
	">":  OpGreater,
	"<":  OpLess,
	"=":  OpEqual,
	">=": OpGreaterEqual,
	"<=": OpLessEqual,
}

func (op CompareOp) String() string {
	for s, o := range compareOpStrings {
		if o == op {
			return s
		}
	}
	return ""
}

// Dependency is a named, optionally version-constrained reference to a
// package. An unconstrained dependency is satisfied by any version of the
// named package.
type Dependency struct {
	Name   string
	Op     CompareOp
	Target *Version
}

// ParseDependency parses a dependency string of the form name[<op>version],
// e.g. "foo>=1.2-1". Package names never contain comparison characters, so
// the first run of <, > or = separates the name from the constraint.
func ParseDependency(s string) (*Dependency, error) {
	i := strings.IndexAny(s, "<>=")
	if i < 0 {
		if s == "" {
			return nil, fmt.Errorf("empty dependency string")
		}
		return &Dependency{Name: s}, nil
	}
	j := i
	for j < len(s) && strings.ContainsRune("<>=", rune(s[j])) {
		j++
	}
	name, opString := s[:i], s[i:j]
	op, ok := compareOpStrings[opString]
	if !ok {
		return nil, fmt.Errorf("invalid dependency operator %q in %q", opString, s)
	}
	if name == "" {
		return nil, fmt.Errorf("dependency %q has no package name", s)
	}
	target, err := ParseVersion(s[j:])
	if err != nil {
		return nil, fmt.Errorf("dependency %q: %w", s, err)
	}
	return &Dependency{Name: name, Op: op, Target: target}, nil
}

// SatisfiedBy reports whether the candidate package satisfies this
// dependency: the name must match, and any version constraint must hold
// against the candidate's version.
func (d *Dependency) SatisfiedBy(p *Package) bool {
	if p == nil || p.Name() != d.Name {
		return false
	}
	if d.Op == OpAny {
		return true
	}
	v := p.Version()
	if v == nil {
		return false
	}
	c := v.Compare(d.Target)
	switch d.Op {
	case OpGreater:
		return c > 0
	case OpLess:
		return c < 0
	case OpEqual:
		return c == 0
	case OpGreaterEqual:
		return c >= 0
	case OpLessEqual:
		return c <= 0
	}
	return false
}

// String renders the dependency back to its name[<op>version] form.
func (d *Dependency) String() string {
	if d.Op == OpAny || d.Target == nil {
		return d.Name
	}
	return d.Name + d.Op.String() + d.Target.String()
}
