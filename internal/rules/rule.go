package rules

import (
	"strings"

	"github.com/zjrosen/rulebook/internal/provider"
)

// NoProviderDescription is shown for rules without a provider instance.
const NoProviderDescription = "<none>"

// GroupResolver turns an asset group key into its display name.
type GroupResolver interface {
	GroupName(key string) string
}

// cachedText is a derived string and the source generation it reflects.
type cachedText struct {
	value      string
	generation uint64
	valid      bool
}

func (c cachedText) fresh(generation uint64) bool {
	return c.valid && c.generation == generation
}

// Rule is one named version rule. It owns exactly one provider instance (or
// none, when its type could not be restored) and a list of asset group keys.
// The id is assigned by the Tree and never changes; the GUID is the
// persisted identity.
type Rule struct {
	id       int
	guid     string
	name     string
	provider provider.Provider
	groups   []string

	providerGeneration uint64
	groupGeneration    uint64
	providerDesc       cachedText
	groupDesc          cachedText
}

func newRule(id int, guid, name string, p provider.Provider, groups []string) *Rule {
	return &Rule{
		id:       id,
		guid:     guid,
		name:     name,
		provider: p,
		groups:   cloneStrings(groups),
	}
}

// ID returns the session id.
func (r *Rule) ID() int { return r.id }

// GUID returns the persisted identity.
func (r *Rule) GUID() string { return r.guid }

// Name returns the display name.
func (r *Rule) Name() string { return r.name }

// Provider returns the owned provider instance; nil when there is none.
func (r *Rule) Provider() provider.Provider { return r.provider }

// Groups returns a copy of the asset group keys.
func (r *Rule) Groups() []string { return cloneStrings(r.groups) }

// Rename sets the display name. Names are not validated and need not be
// unique.
func (r *Rule) Rename(name string) {
	r.name = name
}

// SetProvider replaces the provider instance wholesale. The previous
// instance is dropped.
func (r *Rule) SetProvider(p provider.Provider) {
	r.provider = p
	r.providerGeneration++
}

// MarkProviderEdited records an in-place mutation of the provider.
func (r *Rule) MarkProviderEdited() {
	r.providerGeneration++
}

// SetGroups replaces the asset group keys.
func (r *Rule) SetGroups(groups []string) {
	r.groups = cloneStrings(groups)
	r.groupGeneration++
}

// ProviderDescription returns the cached provider summary without
// recomputing it.
func (r *Rule) ProviderDescription() string { return r.providerDesc.value }

// GroupDescription returns the cached group summary without recomputing it.
func (r *Rule) GroupDescription() string { return r.groupDesc.value }

// ProviderStale reports whether the provider summary is behind the rule.
func (r *Rule) ProviderStale() bool { return !r.providerDesc.fresh(r.providerGeneration) }

// GroupStale reports whether the group summary is behind the rule.
func (r *Rule) GroupStale() bool { return !r.groupDesc.fresh(r.groupGeneration) }

// RefreshProviderDescription recomputes the provider summary.
func (r *Rule) RefreshProviderDescription() string {
	desc := NoProviderDescription
	if r.provider != nil {
		desc = r.provider.Description()
	}
	r.providerDesc = cachedText{value: desc, generation: r.providerGeneration, valid: true}
	return desc
}

// RefreshGroupDescription recomputes the group summary, resolving each key
// through resolver. A nil resolver shows the raw keys.
func (r *Rule) RefreshGroupDescription(resolver GroupResolver) string {
	names := make([]string, len(r.groups))
	for i, key := range r.groups {
		names[i] = key
		if resolver != nil {
			names[i] = resolver.GroupName(key)
		}
	}
	desc := strings.Join(names, ", ")
	r.groupDesc = cachedText{value: desc, generation: r.groupGeneration, valid: true}
	return desc
}

// EnsureProviderDescription recomputes the provider summary only if stale.
func (r *Rule) EnsureProviderDescription() string {
	if r.ProviderStale() {
		return r.RefreshProviderDescription()
	}
	return r.providerDesc.value
}

// EnsureGroupDescription recomputes the group summary only if stale.
func (r *Rule) EnsureGroupDescription(resolver GroupResolver) string {
	if r.GroupStale() {
		return r.RefreshGroupDescription(resolver)
	}
	return r.groupDesc.value
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
