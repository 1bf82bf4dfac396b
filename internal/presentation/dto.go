package presentation

import (
	"github.com/zjrosen/rulebook/internal/provider"
	"github.com/zjrosen/rulebook/internal/rules"
)

// RuleDTO represents one displayed rule for presentation
type RuleDTO struct {
	Position     int      `json:"position"` // 1-based, as accepted by rule references
	GUID         string   `json:"guid"`
	Name         string   `json:"name"`
	Groups       []string `json:"groups"`
	GroupNames   string   `json:"group_names"`
	ProviderType string   `json:"provider_type"`
	Provider     string   `json:"provider"`
	Selected     bool     `json:"selected,omitempty"`
}

// ProviderDTO represents a selectable provider type
type ProviderDTO struct {
	Index    int    `json:"index"`
	Name     string `json:"name"`
	TypeID   string `json:"type_id"`
	Editable bool   `json:"editable"`
}

// FieldDTO represents one editable provider field
type FieldDTO struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Required bool   `json:"required"`
}

// PreviewDTO is the version a provider derived for one asset
type PreviewDTO struct {
	Asset   string `json:"asset"`
	Version string `json:"version"`
	Matched bool   `json:"matched"`
}

// FromRow converts a tree row to a DTO. Group keys and the provider type
// come from the row's rule.
func FromRow(tree *rules.Tree, row rules.Row) RuleDTO {
	dto := RuleDTO{
		Position:   tree.Position(row.ID) + 1,
		GUID:       row.GUID,
		Name:       row.Name,
		Groups:     []string{},
		GroupNames: row.Groups,
		Provider:   row.Provider,
		Selected:   row.Selected,
	}
	if r, ok := tree.ByID(row.ID); ok {
		if groups := r.Groups(); groups != nil {
			dto.Groups = groups
		}
		if p := r.Provider(); p != nil {
			dto.ProviderType = p.TypeID().String()
		}
	}
	return dto
}

// FromRows converts rows in display order.
func FromRows(tree *rules.Tree, rows []rules.Row) []RuleDTO {
	dtos := make([]RuleDTO, len(rows))
	for i, row := range rows {
		dtos[i] = FromRow(tree, row)
	}
	return dtos
}

// FromRegistry lists the selectable provider types in registry order.
func FromRegistry(registry *provider.Registry, editors *provider.EditorResolver) []ProviderDTO {
	descriptors := registry.List()
	dtos := make([]ProviderDTO, len(descriptors))
	for i, d := range descriptors {
		dtos[i] = ProviderDTO{
			Index:    i,
			Name:     d.Name,
			TypeID:   d.TypeID.String(),
			Editable: editors != nil && editors.HasEditor(d.TypeID),
		}
	}
	return dtos
}

// FromFields converts editor fields.
func FromFields(fields []provider.Field) []FieldDTO {
	dtos := make([]FieldDTO, len(fields))
	for i, f := range fields {
		dtos[i] = FieldDTO{Name: f.Name, Value: f.Value, Required: f.Required}
	}
	return dtos
}
