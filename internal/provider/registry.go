package provider

import (
	"errors"
	"fmt"

	"github.com/zjrosen/rulebook/internal/log"
)

// Registry errors
var (
	ErrEmptyTypeID    = errors.New("provider type id cannot be empty")
	ErrNilConstructor = errors.New("provider constructor cannot be nil")
	ErrDuplicateType  = errors.New("duplicate provider type id")
)

// Registry holds the provider type table in registration order.
// It is built once at startup; List output and indices stay the same for
// the life of the registry as long as nothing new is registered.
type Registry struct {
	registrations []Registration
	byID          map[TypeID]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		registrations: make([]Registration, 0),
		byID:          make(map[TypeID]int),
	}
}

// Register adds a provider type.
func (r *Registry) Register(reg Registration) error {
	if reg.TypeID == "" {
		return ErrEmptyTypeID
	}
	if reg.New == nil {
		return fmt.Errorf("%w: %s", ErrNilConstructor, reg.TypeID)
	}
	if _, exists := r.byID[reg.TypeID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateType, reg.TypeID)
	}
	if reg.Name == "" {
		reg.Name = string(reg.TypeID)
	}

	r.byID[reg.TypeID] = len(r.registrations)
	r.registrations = append(r.registrations, reg)
	log.Debug(log.CatRegistry, "Registered provider type", "type", reg.TypeID, "hidden", reg.Hidden)
	return nil
}

// MustRegister is Register for static tables; it panics on error.
func (r *Registry) MustRegister(reg Registration) {
	if err := r.Register(reg); err != nil {
		panic(fmt.Sprintf("failed to register %s provider: %v", reg.TypeID, err))
	}
}

// List returns the selectable provider types: every registration that is
// not hidden, in registration order.
func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, 0, len(r.registrations))
	for _, reg := range r.registrations {
		if reg.Hidden {
			continue
		}
		out = append(out, reg.Descriptor)
	}
	return out
}

// Names returns the display names of List, index for index.
func (r *Registry) Names() []string {
	list := r.List()
	names := make([]string, len(list))
	for i, d := range list {
		names[i] = d.Name
	}
	return names
}

// IndexOf returns the index of id in List, or -1.
// Hidden types are never in List, so they report -1.
func (r *Registry) IndexOf(id TypeID) int {
	for i, d := range r.List() {
		if d.TypeID == id {
			return i
		}
	}
	return -1
}

// At returns the descriptor at index i of List.
func (r *Registry) At(i int) (Descriptor, bool) {
	list := r.List()
	if i < 0 || i >= len(list) {
		return Descriptor{}, false
	}
	return list[i], true
}

// Lookup finds any registration by id, hidden ones included.
func (r *Registry) Lookup(id TypeID) (Descriptor, bool) {
	idx, ok := r.byID[id]
	if !ok {
		return Descriptor{}, false
	}
	return r.registrations[idx].Descriptor, true
}

// New constructs a default instance of id.
// Unknown ids return *UnknownTypeError. Constructor errors, panics and
// instances that misreport their TypeID return *ConstructionError; the
// returned Provider is always nil in those cases.
func (r *Registry) New(id TypeID) (p Provider, err error) {
	idx, ok := r.byID[id]
	if !ok {
		return nil, &UnknownTypeError{TypeID: id}
	}

	defer func() {
		if rec := recover(); rec != nil {
			p = nil
			err = &ConstructionError{TypeID: id, Err: fmt.Errorf("panic: %v", rec)}
		}
		if err != nil {
			// Reporters surface the failure; this only traces it.
			log.Debug(log.CatRegistry, "Failed to construct provider", "type", id, "error", err)
		}
	}()

	p, err = r.registrations[idx].New()
	if err != nil {
		return nil, &ConstructionError{TypeID: id, Err: err}
	}
	if p == nil {
		return nil, &ConstructionError{TypeID: id, Err: errors.New("constructor returned nil")}
	}
	if p.TypeID() != id {
		return nil, &ConstructionError{TypeID: id, Err: fmt.Errorf("constructor built %q", p.TypeID())}
	}
	return p, nil
}

// Len returns the number of registrations, hidden ones included.
func (r *Registry) Len() int {
	return len(r.registrations)
}
