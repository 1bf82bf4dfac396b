// Package provider defines the version provider capability and the static
// tables that list the available provider types and their field editors.
//
// Provider types are registered explicitly at startup (see package builtin)
// rather than discovered. Each Registration carries a Hidden flag: hidden
// types can still be constructed and looked up, so persisted rules that
// reference them keep loading, but they are never offered for selection.
package provider

import (
	"fmt"
)

// TypeID is the stable identifier of a concrete provider type.
type TypeID string

// String returns the identifier.
func (id TypeID) String() string {
	return string(id)
}

// Provider derives a version string for an asset.
// Every concrete provider reports its own TypeID so callers can match an
// instance against the registry without reflection.
type Provider interface {
	// TypeID returns the registered identifier of the concrete type.
	TypeID() TypeID

	// Description returns a short human-readable summary of the configuration.
	Description() string

	// Provide returns the version for assetPath; ok is false when the
	// provider has no opinion about the asset.
	Provide(assetPath string) (version string, ok bool)
}

// Constructor builds a default-configured instance of one provider type.
type Constructor func() (Provider, error)

// Descriptor describes one registered provider type.
type Descriptor struct {
	Name   string
	TypeID TypeID
	Hidden bool
}

// Registration is one row of the provider type table.
type Registration struct {
	Descriptor
	New Constructor
}

// UnknownTypeError is returned when a TypeID is not registered.
type UnknownTypeError struct {
	TypeID TypeID
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("provider type %q is not registered", string(e.TypeID))
}

// ConstructionError wraps a failed or panicking constructor.
type ConstructionError struct {
	TypeID TypeID
	Err    error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("constructing provider %q: %v", string(e.TypeID), e.Err)
}

func (e *ConstructionError) Unwrap() error {
	return e.Err
}

// MissingEditorError is returned when no editor is registered for a type.
type MissingEditorError struct {
	TypeID TypeID
}

func (e *MissingEditorError) Error() string {
	return fmt.Sprintf("editor of %s is not found", string(e.TypeID))
}
