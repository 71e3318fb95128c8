// internal/capability.go
package internal

// Capability is a bit-addressable operation or search modifier a backend may
// support. Action bits and search-modifier bits occupy disjoint positions;
// nothing outside this file should ever need to know a bit's position.
type Capability uint

const (
	SearchRegex Capability = 1 << iota
	SearchPattern
	SearchDescription
	SearchName

	Query
	Remove
	Sync
	Search
	Upgrade
)

// All is the union of every defined capability.
const All = SearchRegex | SearchPattern | SearchDescription | SearchName |
	Query | Remove | Sync | Search | Upgrade

// Actions lists the dispatchable operations, in declaration order.
var Actions = []Capability{Query, Remove, Sync, Search, Upgrade}

var capabilityNames = map[Capability]string{
	SearchRegex:       "search_regex",
	SearchPattern:     "search_pattern",
	SearchDescription: "search_description",
	SearchName:        "search_name",
	Query:             "query",
	Remove:            "remove",
	Sync:              "sync",
	Search:            "search",
	Upgrade:           "upgrade",
}

var capabilitiesByName = make(map[string]Capability, len(capabilityNames))

func init() {
	for capability, name := range capabilityNames {
		capabilitiesByName[name] = capability
	}
}

// Test reports whether every bit set in capability is also set in mask.
func Test(mask, capability Capability) bool {
	return mask&capability == capability
}

// IsAction reports whether c is a dispatchable operation rather than a
// search modifier.
func (c Capability) IsAction() bool {
	return Test(Query|Remove|Sync|Search|Upgrade, c) && c != 0
}

// Name returns the symbolic name of a single capability. Looking up an
// undefined value is a usage error and panics.
func (c Capability) Name() string {
	name, ok := capabilityNames[c]
	if !ok {
		panic("internal: undefined capability")
	}
	return name
}

// CapabilityByName returns the capability registered under name. Looking up
// an undefined name is a usage error and panics.
func CapabilityByName(name string) Capability {
	capability, ok := capabilitiesByName[name]
	if !ok {
		panic("internal: undefined capability name: " + name)
	}
	return capability
}
