package builtin

import (
	"github.com/zjrosen/rulebook/internal/provider"
)

// Manual is the legacy per-rule version string. It is registered hidden.
type Manual struct {
	Version string `json:"version"`
}

func (m *Manual) TypeID() provider.TypeID { return ManualTypeID }

func (m *Manual) Description() string {
	if m.Version == "" {
		return "Manual"
	}
	return "Manual: " + m.Version
}

func (m *Manual) Provide(string) (string, bool) {
	return m.Version, m.Version != ""
}
