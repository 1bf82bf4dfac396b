package rules

import (
	"errors"
	"fmt"

	"github.com/zjrosen/rulebook/internal/diag"
	"github.com/zjrosen/rulebook/internal/log"
	"github.com/zjrosen/rulebook/internal/provider"
	"github.com/zjrosen/rulebook/internal/pubsub"
)

// Binding is the rule slot a SelectionController edits. *Rule implements it.
type Binding interface {
	Provider() provider.Provider
	SetProvider(p provider.Provider)
	MarkProviderEdited()
}

// SelectionState is the provider choice of one rule slot.
// Index points into the registry's selectable list; it is -1 when Instance
// is nil or is not a selectable type (hidden or unregistered).
type SelectionState struct {
	Index    int
	Instance provider.Provider
}

// SelectionController tracks the chosen provider type of one rule slot and
// notifies subscribers when the type is switched, when fields are edited,
// and when the slot is activated.
type SelectionController struct {
	registry *provider.Registry
	editors  *provider.EditorResolver
	binding  Binding
	reporter diag.Reporter

	state  SelectionState
	editor provider.Editor

	typeChanged  *pubsub.Subject[provider.TypeID]
	valueChanged *pubsub.Subject[struct{}]
	activated    *pubsub.Subject[struct{}]
}

// NewSelectionController creates a controller for binding. Call Initialize
// before use.
func NewSelectionController(registry *provider.Registry, editors *provider.EditorResolver, binding Binding, reporter diag.Reporter) *SelectionController {
	if editors == nil {
		editors = provider.NewEditorResolver()
	}
	return &SelectionController{
		registry:     registry,
		editors:      editors,
		binding:      binding,
		reporter:     diag.OrDiscard(reporter),
		state:        SelectionState{Index: -1},
		typeChanged:  pubsub.NewSubject[provider.TypeID](),
		valueChanged: pubsub.NewSubject[struct{}](),
		activated:    pubsub.NewSubject[struct{}](),
	}
}

// Initialize reads the binding's current provider and finds its index.
// A provider whose type is not registered at all is reported as a
// ConfigurationMismatch; the slot stays usable.
func (c *SelectionController) Initialize() {
	c.Sync()
}

// Sync re-reads the binding after its provider was replaced externally.
func (c *SelectionController) Sync() {
	p := c.binding.Provider()
	c.state = SelectionState{Index: -1, Instance: p}
	c.editor = nil
	if p == nil {
		return
	}

	id := p.TypeID()
	c.state.Index = c.registry.IndexOf(id)
	if _, registered := c.registry.Lookup(id); !registered {
		c.report(diag.ConfigurationMismatch, id, &provider.UnknownTypeError{TypeID: id})
	}
	c.resolveEditor()
}

// State returns the current selection.
func (c *SelectionController) State() SelectionState {
	return c.state
}

// Choices returns the display names offered for selection, index for index.
func (c *SelectionController) Choices() []string {
	return c.registry.Names()
}

// SelectType switches the slot to the provider type at index.
// Selecting the current index is a no-op. Otherwise a fresh default instance
// replaces the old one and TypeChanged fires. If construction fails the slot
// is left with no instance and a ConstructionFailure is reported; no error
// is returned for that case.
func (c *SelectionController) SelectType(index int) error {
	d, ok := c.registry.At(index)
	if !ok {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	if index == c.state.Index {
		return nil
	}

	p, err := c.registry.New(d.TypeID)
	if err != nil {
		c.binding.SetProvider(nil)
		c.state = SelectionState{Index: -1}
		c.editor = nil
		c.report(diag.ConstructionFailure, d.TypeID, err)
		return nil
	}

	c.binding.SetProvider(p)
	c.state = SelectionState{Index: index, Instance: p}
	c.resolveEditor()
	log.Debug(log.CatRules, "Provider type changed", "type", d.TypeID, "index", index)
	c.typeChanged.Publish(pubsub.TypeChangedEvent, d.TypeID)
	return nil
}

// SelectTypeID is SelectType by identifier.
func (c *SelectionController) SelectTypeID(id provider.TypeID) error {
	index := c.registry.IndexOf(id)
	if index < 0 {
		return fmt.Errorf("%w: %s is not selectable", ErrIndexOutOfRange, id)
	}
	return c.SelectType(index)
}

// HasEditor reports whether the current instance has a field editor.
func (c *SelectionController) HasEditor() bool {
	return c.editor != nil
}

// EditableFields lists the current instance's fields. It is empty when there
// is no instance or no editor for its type.
func (c *SelectionController) EditableFields() []provider.Field {
	if c.state.Instance == nil || c.editor == nil {
		return nil
	}
	return c.editor.Fields(c.state.Instance)
}

// EditFields applies values through the type's editor and fires
// ValueChanged when the instance changed.
func (c *SelectionController) EditFields(values map[string]string) (bool, error) {
	if c.state.Instance == nil {
		return false, ErrNoInstance
	}
	if c.editor == nil {
		return false, &provider.MissingEditorError{TypeID: c.state.Instance.TypeID()}
	}

	changed, err := c.editor.Edit(c.state.Instance, values)
	if err != nil {
		return false, err
	}
	if changed {
		c.OnFieldsEdited()
	}
	return changed, nil
}

// OnFieldsEdited is called after the current instance was mutated in place.
// Observers re-read the instance to see what changed.
func (c *SelectionController) OnFieldsEdited() {
	c.binding.MarkProviderEdited()
	c.valueChanged.Publish(pubsub.ValueChangedEvent, struct{}{})
}

// OnActivated forwards a click or focus on the slot. It has no effect on
// the controller's state.
func (c *SelectionController) OnActivated() {
	c.activated.Publish(pubsub.ActivatedEvent, struct{}{})
}

// OnTypeChanged subscribes to provider type switches.
func (c *SelectionController) OnTypeChanged(fn func(provider.TypeID)) func() {
	return c.typeChanged.Subscribe(func(e pubsub.Event[provider.TypeID]) { fn(e.Payload) })
}

// OnValueChanged subscribes to in-place field edits.
func (c *SelectionController) OnValueChanged(fn func()) func() {
	return c.valueChanged.Subscribe(func(pubsub.Event[struct{}]) { fn() })
}

// OnActivatedSignal subscribes to activation.
func (c *SelectionController) OnActivatedSignal(fn func()) func() {
	return c.activated.Subscribe(func(pubsub.Event[struct{}]) { fn() })
}

// Close drops every subscription. The controller must not be used after.
func (c *SelectionController) Close() {
	c.typeChanged.Close()
	c.valueChanged.Close()
	c.activated.Close()
}

func (c *SelectionController) resolveEditor() {
	c.editor = nil
	if c.state.Instance == nil {
		return
	}
	id := c.state.Instance.TypeID()
	editor, err := c.editors.Resolve(id)
	if err != nil {
		var missing *provider.MissingEditorError
		if errors.As(err, &missing) {
			c.report(diag.MissingEditorCapability, id, err)
		}
		return
	}
	c.editor = editor
}

func (c *SelectionController) report(kind diag.Kind, id provider.TypeID, err error) {
	d := diag.Diagnostic{Kind: kind, TypeID: string(id), Err: err}
	if r, ok := c.binding.(*Rule); ok {
		d.RuleGUID = r.GUID()
	}
	c.reporter.Report(d)
}
