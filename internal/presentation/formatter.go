package presentation

import (
	"encoding/json"
	"io"
)

// Formatter handles JSON output
type Formatter struct {
	writer io.Writer
}

// NewFormatter creates a new formatter
func NewFormatter(writer io.Writer) *Formatter {
	return &Formatter{
		writer: writer,
	}
}

// FormatRules formats a list of rules as JSON
func (f *Formatter) FormatRules(rules []RuleDTO) error {
	return f.encode(rules)
}

// FormatProviders formats the provider type list as JSON
func (f *Formatter) FormatProviders(providers []ProviderDTO) error {
	return f.encode(providers)
}

// FormatFields formats editable fields as JSON
func (f *Formatter) FormatFields(fields []FieldDTO) error {
	return f.encode(fields)
}

// FormatPreview formats provider results as JSON
func (f *Formatter) FormatPreview(results []PreviewDTO) error {
	return f.encode(results)
}

func (f *Formatter) encode(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
