package rules

import (
	"errors"
	"fmt"
)

var (
	// ErrNestingNotAllowed is returned for any attempt to parent one rule
	// under another; the tree is always one level deep.
	ErrNestingNotAllowed = errors.New("rules cannot be nested")

	// ErrIndexOutOfRange is returned by SelectType for an index outside the
	// registry's selectable list.
	ErrIndexOutOfRange = errors.New("provider index out of range")

	// ErrNoInstance is returned when editing a rule that has no provider.
	ErrNoInstance = errors.New("rule has no provider instance")

	// ErrAmbiguousRef is returned when a reference matches several rules.
	ErrAmbiguousRef = errors.New("ambiguous rule reference")
)

// RuleNotFoundError is returned when a rule id or reference does not exist.
type RuleNotFoundError struct {
	Ref string
}

func (e *RuleNotFoundError) Error() string {
	return fmt.Sprintf("rule not found: %s", e.Ref)
}
