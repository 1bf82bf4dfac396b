// Package testutil seeds rule stores for tests.
package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/rulebook/internal/store"
)

// Builder accumulates rules and saves them in insertion order.
type Builder struct {
	t     *testing.T
	store store.Store
	rules []ruleData
}

// NewBuilder creates a builder for the given store.
func NewBuilder(t *testing.T, s store.Store) *Builder {
	t.Helper()
	return &Builder{t: t, store: s}
}

// WithRule adds a rule with optional configuration. Without options the
// rule gets a deterministic GUID and a constant provider at 1.0.0.
func (b *Builder) WithRule(name string, opts ...RuleOption) *Builder {
	rule := defaultRule(len(b.rules)+1, name)
	for _, opt := range opts {
		opt(&rule)
	}
	b.rules = append(b.rules, rule)
	return b
}

// Records returns the accumulated rules as store records.
func (b *Builder) Records() []store.Record {
	records := make([]store.Record, len(b.rules))
	for i, r := range b.rules {
		records[i] = store.Record{
			GUID:           r.guid,
			Name:           r.name,
			Position:       i,
			ProviderType:   r.providerType,
			ProviderParams: r.params,
			Groups:         r.groups,
		}
	}
	return records
}

// Build replaces the store contents with the accumulated rules.
func (b *Builder) Build() []store.Record {
	b.t.Helper()
	records := b.Records()
	require.NoError(b.t, b.store.Save(context.Background(), records))
	return records
}
