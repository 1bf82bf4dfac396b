// Package flags provides feature flag support.
// Flags are read-only after initialization and unknown flags are disabled.
package flags

import (
	"maps"
	"slices"

	"github.com/zjrosen/rulebook/internal/log"
)

const (
	// FlagEagerDescriptions makes search bring stale provider and group
	// descriptions up to date before matching.
	FlagEagerDescriptions = "eager-descriptions"

	// FlagConfirmRemove makes 'remove' refuse to run without --yes.
	FlagConfirmRemove = "confirm-remove"
)

// Definition describes a flag rulebook knows about.
type Definition struct {
	Name        string
	Description string
}

var known = []Definition{
	{Name: FlagEagerDescriptions, Description: "search refreshes stale descriptions before matching"},
	{Name: FlagConfirmRemove, Description: "remove requires --yes"},
}

// Known returns the flags rulebook reads, in a stable order.
func Known() []Definition {
	return slices.Clone(known)
}

// IsKnown reports whether name is one of Known.
func IsKnown(name string) bool {
	return slices.ContainsFunc(known, func(d Definition) bool { return d.Name == name })
}

// Registry holds feature flag state loaded from configuration.
type Registry struct {
	flags map[string]bool
}

// New creates a Registry from a config map.
// If flags is nil, an empty registry is created (all flags disabled).
func New(flags map[string]bool) *Registry {
	if flags == nil {
		flags = make(map[string]bool)
	}
	r := &Registry{flags: flags}
	log.Debug(log.CatConfig, "Feature flags initialized", "count", len(flags), "flags", r.All())
	return r
}

// Enabled returns true if the named flag is enabled.
// Unknown flags and a nil registry report false.
func (r *Registry) Enabled(name string) bool {
	if r == nil || r.flags == nil {
		return false
	}
	value, exists := r.flags[name]
	if !exists {
		log.Debug(log.CatConfig, "Unknown flag accessed", "flag", name, "result", false)
		return false
	}
	return value
}

// All returns a copy of all flags.
func (r *Registry) All() map[string]bool {
	if r == nil || r.flags == nil {
		return make(map[string]bool)
	}
	result := make(map[string]bool, len(r.flags))
	maps.Copy(result, r.flags)
	return result
}
