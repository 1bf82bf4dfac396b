package sqlite

import (
	"encoding/json"

	"github.com/zjrosen/rulebook/internal/store"
)

// RuleModel represents the database row for the rules table.
type RuleModel struct {
	ID             int64
	GUID           string
	Name           string
	Position       int
	ProviderType   *string // nullable
	ProviderParams *string // nullable, JSON encoded
	UpdatedAt      int64   // Unix timestamp
}

func toRuleModel(rec store.Record, updatedAt int64) RuleModel {
	m := RuleModel{
		GUID:      rec.GUID,
		Name:      rec.Name,
		Position:  rec.Position,
		UpdatedAt: updatedAt,
	}
	if rec.ProviderType != "" {
		m.ProviderType = &rec.ProviderType
	}
	if len(rec.ProviderParams) > 0 {
		params := string(rec.ProviderParams)
		m.ProviderParams = &params
	}
	return m
}

func (m RuleModel) toRecord(groups []string) store.Record {
	rec := store.Record{
		GUID:     m.GUID,
		Name:     m.Name,
		Position: m.Position,
		Groups:   groups,
	}
	if m.ProviderType != nil {
		rec.ProviderType = *m.ProviderType
	}
	if m.ProviderParams != nil {
		rec.ProviderParams = json.RawMessage(*m.ProviderParams)
	}
	return rec
}
