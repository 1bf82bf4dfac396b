// Package rules implements the version rule collection: rule entries, the
// per-rule provider selection controller, and the flat tree that presents
// the collection as selectable, searchable and sortable rows.
//
// # Derived descriptions
//
// Each Rule caches two human-readable summaries: the provider description
// and the asset group description. Every mutation of the underlying state
// bumps a generation counter, and each cache remembers the generation it was
// computed at, so staleness is explicit:
//
//   - Refresh* always recomputes.
//   - Ensure* recomputes only when the cache generation is behind.
//   - ProviderDescription / GroupDescription return the cached text as is.
//
// The Tree force-refreshes the active selection before reading its text,
// ensures every row is fresh before sorting by a description column, and
// reads cached text when searching (unless eager descriptions are enabled).
// Group names come from a GroupResolver and can change without a local
// mutation; only the forced refresh of the active row picks that up.
//
// # Concurrency
//
// Tree, Rule and SelectionController are single-threaded: all operations run
// synchronously within one interaction turn and notifications are delivered
// in order on the caller's goroutine. Callers that share them across
// goroutines must serialise access.
package rules
