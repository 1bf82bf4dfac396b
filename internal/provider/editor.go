package provider

import (
	"errors"
	"fmt"

	"github.com/zjrosen/rulebook/internal/log"
)

// ErrUnknownField is returned when an edit names a field the provider lacks.
var ErrUnknownField = errors.New("unknown provider field")

// Field is one editable value of a provider instance.
type Field struct {
	Name     string
	Value    string
	Required bool
}

// Editor edits provider instances of one concrete type in place.
type Editor interface {
	// Fields lists the editable values of p with their current contents.
	Fields(p Provider) []Field

	// Edit applies values to p. changed reports whether p differs from its
	// state before the call. On error p is left unmodified.
	Edit(p Provider, values map[string]string) (changed bool, err error)
}

// EditorResolver maps concrete provider types to their editors.
type EditorResolver struct {
	editors map[TypeID]Editor
}

// NewEditorResolver creates an empty resolver.
func NewEditorResolver() *EditorResolver {
	return &EditorResolver{editors: make(map[TypeID]Editor)}
}

// Register associates an editor with exactly one provider type.
func (r *EditorResolver) Register(id TypeID, e Editor) error {
	if id == "" {
		return ErrEmptyTypeID
	}
	if e == nil {
		return fmt.Errorf("editor for %s cannot be nil", id)
	}
	if _, exists := r.editors[id]; exists {
		return fmt.Errorf("%w: editor for %s", ErrDuplicateType, id)
	}
	r.editors[id] = e
	return nil
}

// MustRegister is Register for static tables; it panics on error.
func (r *EditorResolver) MustRegister(id TypeID, e Editor) {
	if err := r.Register(id, e); err != nil {
		panic(fmt.Sprintf("failed to register editor: %v", err))
	}
}

// Resolve returns the editor registered for id.
// A missing editor is reported as *MissingEditorError, never a panic.
func (r *EditorResolver) Resolve(id TypeID) (Editor, error) {
	e, ok := r.editors[id]
	if !ok {
		log.Debug(log.CatEditor, "No editor registered", "type", id)
		return nil, &MissingEditorError{TypeID: id}
	}
	return e, nil
}

// HasEditor reports whether an editor is registered for id.
func (r *EditorResolver) HasEditor(id TypeID) bool {
	_, ok := r.editors[id]
	return ok
}
