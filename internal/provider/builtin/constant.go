package builtin

import (
	"github.com/zjrosen/rulebook/internal/provider"
)

// DefaultConstantVersion is the version a new constant provider returns.
const DefaultConstantVersion = "1.0.0"

// Constant returns the same version for every asset.
type Constant struct {
	Version string `json:"version" validate:"required"`
}

// NewConstant returns a constant provider with the default version.
func NewConstant() *Constant {
	return &Constant{Version: DefaultConstantVersion}
}

func (c *Constant) TypeID() provider.TypeID { return ConstantTypeID }

func (c *Constant) Description() string {
	return "Constant: " + c.Version
}

func (c *Constant) Provide(string) (string, bool) {
	return c.Version, c.Version != ""
}
