// Package store persists rule collections.
//
// A Store only moves Records. Snapshot and Restore convert between Records
// and a rules.Tree, constructing providers through the registry so that
// missing or broken provider types degrade into diagnostics instead of
// failing the load.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/zjrosen/rulebook/internal/diag"
	"github.com/zjrosen/rulebook/internal/log"
	"github.com/zjrosen/rulebook/internal/provider"
	"github.com/zjrosen/rulebook/internal/rules"
)

// Record is the persisted form of one rule.
type Record struct {
	GUID           string          `json:"guid" yaml:"guid"`
	Name           string          `json:"name" yaml:"name"`
	Position       int             `json:"position" yaml:"position"`
	ProviderType   string          `json:"provider_type,omitempty" yaml:"provider_type,omitempty"`
	ProviderParams json.RawMessage `json:"provider_params,omitempty" yaml:"-"`
	Groups         []string        `json:"groups,omitempty" yaml:"groups,omitempty"`
}

// Store loads and saves the full rule collection.
type Store interface {
	// Load returns every record ordered by Position.
	Load(ctx context.Context) ([]Record, error)
	// Save replaces the stored collection with records.
	Save(ctx context.Context, records []Record) error
	Close() error
}

// Orphans holds the records whose provider could not be restored, keyed by
// GUID. Passing them back to Snapshot keeps their provider configuration
// on disk until the rule gets a new provider.
type Orphans map[string]Record

// Restore adds one rule per record to tree, in Position order.
// Records whose provider type is not registered become rules without an
// instance and are reported as ConfigurationMismatch. Records whose
// parameters cannot be decoded are reported as ConstructionFailure.
// Restore never fails.
func Restore(tree *rules.Tree, records []Record, registry *provider.Registry, reporter diag.Reporter) Orphans {
	reporter = diag.OrDiscard(reporter)
	orphans := make(Orphans)

	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })

	for _, rec := range sorted {
		p, err := restoreProvider(rec, registry)
		// Keyed by the restored rule's GUID; records without one get a fresh id.
		r := tree.Restore(rec.GUID, rec.Name, p, rec.Groups)
		if err != nil {
			var unknown *provider.UnknownTypeError
			kind := diag.ConstructionFailure
			if errors.As(err, &unknown) {
				kind = diag.ConfigurationMismatch
			}
			reporter.Report(diag.Diagnostic{Kind: kind, TypeID: rec.ProviderType, RuleGUID: r.GUID(), Err: err})
			orphans[r.GUID()] = rec
		}
	}

	log.Debug(log.CatStore, "Restored rules", "count", len(sorted), "orphans", len(orphans))
	return orphans
}

func restoreProvider(rec Record, registry *provider.Registry) (provider.Provider, error) {
	if rec.ProviderType == "" {
		return nil, nil
	}
	id := provider.TypeID(rec.ProviderType)
	p, err := registry.New(id)
	if err != nil {
		return nil, err
	}
	if len(rec.ProviderParams) > 0 {
		if err := json.Unmarshal(rec.ProviderParams, p); err != nil {
			return nil, &provider.ConstructionError{TypeID: id, Err: fmt.Errorf("decoding params: %w", err)}
		}
	}
	return p, nil
}

// Snapshot converts tree into records in insertion order.
// Rules without a provider keep the type and parameters from orphans, if
// present.
func Snapshot(tree *rules.Tree, orphans Orphans) ([]Record, error) {
	rs := tree.Rules()
	records := make([]Record, 0, len(rs))
	for i, r := range rs {
		rec := Record{
			GUID:     r.GUID(),
			Name:     r.Name(),
			Position: i,
			Groups:   r.Groups(),
		}
		if p := r.Provider(); p != nil {
			params, err := json.Marshal(p)
			if err != nil {
				return nil, fmt.Errorf("encoding provider of rule %s: %w", r.GUID(), err)
			}
			rec.ProviderType = string(p.TypeID())
			rec.ProviderParams = params
		} else if orphan, ok := orphans[r.GUID()]; ok {
			rec.ProviderType = orphan.ProviderType
			rec.ProviderParams = orphan.ProviderParams
		}
		records = append(records, rec)
	}
	return records, nil
}
