// internal/version.go
package internal

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// versionRE matches [epoch:]version[-release]. The release token may be the
// letter "o", which some packagers have shipped in place of zero.
var versionRE = regexp.MustCompile(`^(?:([0-9]+):)?([^:\-]+)(?:-([0-9]+|o))?$`)

// Version is a package version of the form epoch:version-release. Values are
// immutable after construction.
type Version struct {
	Epoch   int
	Version string
	Release int
}

// ParseVersion parses a version string of the form [epoch:]version[-release].
// Epoch defaults to 0 and release to 1 when absent.
func ParseVersion(s string) (*Version, error) {
	match := versionRE.FindStringSubmatch(s)
	if match == nil {
		return nil, fmt.Errorf("invalid version string format: %q", s)
	}
	v := &Version{Version: match[2], Release: 1}
	if match[1] != "" {
		epoch, err := strconv.Atoi(match[1])
		if err != nil {
			return nil, fmt.Errorf("invalid version epoch: %q", s)
		}
		v.Epoch = epoch
	}
	switch match[3] {
	case "":
	case "o":
		// foobnix once shipped a release of "o". Treat it as zero.
		v.Release = 0
	default:
		release, err := strconv.Atoi(match[3])
		if err != nil {
			return nil, fmt.Errorf("invalid version release: %q", s)
		}
		v.Release = release
	}
	return v, nil
}

// Compare returns -1, 0 or 1. Ordering is lexicographic over the
// (epoch, version, release) triple, with the version part compared
// component-wise: numeric runs compare numerically, alphabetic runs compare
// lexically, and a numeric component always sorts before a non-numeric one.
func (v *Version) Compare(o *Version) int {
	if v.Epoch != o.Epoch {
		if v.Epoch < o.Epoch {
			return -1
		}
		return 1
	}
	if c := compareLoose(v.Version, o.Version); c != 0 {
		return c
	}
	if v.Release != o.Release {
		if v.Release < o.Release {
			return -1
		}
		return 1
	}
	return 0
}

// Equal reports whether two versions compare the same.
func (v *Version) Equal(o *Version) bool {
	return v.Compare(o) == 0
}

// String returns the canonical epoch:version-release form.
func (v *Version) String() string {
	return fmt.Sprintf("%d:%s-%d", v.Epoch, v.Version, v.Release)
}

type versionComponent struct {
	number  int
	text    string
	numeric bool
}

// looseComponents splits a version into numeric and textual runs. Dot
// separators are dropped; any other punctuation starts a textual run.
func looseComponents(s string) []versionComponent {
	var components []versionComponent
	for i := 0; i < len(s); {
		switch {
		case s[i] == '.':
			i++
		case s[i] >= '0' && s[i] <= '9':
			j := i
			for j < len(s) && s[j] >= '0' && s[j] <= '9' {
				j++
			}
			n, _ := strconv.Atoi(s[i:j])
			components = append(components, versionComponent{number: n, numeric: true})
			i = j
		default:
			j := i
			for j < len(s) && s[j] != '.' && (s[j] < '0' || s[j] > '9') {
				j++
			}
			components = append(components, versionComponent{text: s[i:j]})
			i = j
		}
	}
	return components
}

// compareLoose compares two version strings component-wise. When a numeric
// component meets a textual one the numeric side sorts first; a version that
// is a strict prefix of another sorts first.
func compareLoose(a, b string) int {
	as, bs := looseComponents(a), looseComponents(b)
	for i := 0; i < len(as) && i < len(bs); i++ {
		x, y := as[i], bs[i]
		switch {
		case x.numeric && y.numeric:
			if x.number != y.number {
				if x.number < y.number {
					return -1
				}
				return 1
			}
		case !x.numeric && !y.numeric:
			if c := strings.Compare(x.text, y.text); c != 0 {
				return c
			}
		case x.numeric:
			return -1
		default:
			return 1
		}
	}
	switch {
	case len(as) < len(bs):
		return -1
	case len(as) > len(bs):
		return 1
	}
	return 0
}
