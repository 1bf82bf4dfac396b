package builtin

import (
	"fmt"
	"regexp"

	"github.com/zjrosen/rulebook/internal/provider"
)

// PathPattern extracts a version from the asset path with a regular
// expression. Replacement is expanded like regexp.Regexp.Expand, so "$1"
// is the first capture group.
type PathPattern struct {
	Pattern     string `json:"pattern" validate:"required,regexp"`
	Replacement string `json:"replacement"`

	compiled *regexp.Regexp
	source   string
}

// NewPathPattern returns a provider matching a "_v<digits>" suffix.
func NewPathPattern() *PathPattern {
	return &PathPattern{
		Pattern:     `_v(\d+)`,
		Replacement: "$1",
	}
}

func (p *PathPattern) TypeID() provider.TypeID { return PathPatternTypeID }

func (p *PathPattern) Description() string {
	return fmt.Sprintf("Path pattern: %s -> %s", p.Pattern, p.Replacement)
}

func (p *PathPattern) Provide(assetPath string) (string, bool) {
	re, err := p.regexp()
	if err != nil {
		return "", false
	}
	match := re.FindStringSubmatchIndex(assetPath)
	if match == nil {
		return "", false
	}
	return string(re.ExpandString(nil, p.Replacement, assetPath, match)), true
}

// regexp compiles Pattern once per distinct value.
func (p *PathPattern) regexp() (*regexp.Regexp, error) {
	if p.compiled != nil && p.source == p.Pattern {
		return p.compiled, nil
	}
	re, err := regexp.Compile(p.Pattern)
	if err != nil {
		return nil, err
	}
	p.compiled, p.source = re, p.Pattern
	return re, nil
}
