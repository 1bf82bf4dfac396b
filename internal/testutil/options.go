package testutil

import (
	"encoding/json"
	"fmt"
)

// ruleData holds all data for a rule to be stored.
type ruleData struct {
	guid         string
	name         string
	providerType string
	params       json.RawMessage
	groups       []string
}

// RuleOption configures a rule added with Builder.WithRule.
type RuleOption func(*ruleData)

func defaultRule(seq int, name string) ruleData {
	return ruleData{
		guid:         fmt.Sprintf("00000000-0000-4000-8000-%012d", seq),
		name:         name,
		providerType: "constant",
		params:       json.RawMessage(`{"version":"1.0.0"}`),
	}
}

// GUID sets the persisted identity.
func GUID(guid string) RuleOption {
	return func(r *ruleData) { r.guid = guid }
}

// Provider sets the provider type and its JSON params.
func Provider(typeID, params string) RuleOption {
	return func(r *ruleData) {
		r.providerType = typeID
		r.params = nil
		if params != "" {
			r.params = json.RawMessage(params)
		}
	}
}

// NoProvider stores the rule without a provider.
func NoProvider() RuleOption {
	return Provider("", "")
}

// Groups sets the asset group keys.
func Groups(keys ...string) RuleOption {
	return func(r *ruleData) { r.groups = keys }
}
