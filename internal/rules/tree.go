package rules

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/maruel/natural"

	"github.com/zjrosen/rulebook/internal/diag"
	"github.com/zjrosen/rulebook/internal/log"
	"github.com/zjrosen/rulebook/internal/provider"
	"github.com/zjrosen/rulebook/internal/pubsub"
)

// Column is one display column of the rule list.
type Column int

const (
	ColumnName Column = iota
	ColumnGroups
	ColumnProvider
)

// AllColumns lists the columns in display order.
var AllColumns = []Column{ColumnName, ColumnGroups, ColumnProvider}

func (c Column) String() string {
	switch c {
	case ColumnName:
		return "name"
	case ColumnGroups:
		return "groups"
	case ColumnProvider:
		return "provider"
	default:
		return "unknown"
	}
}

// Title is the column header.
func (c Column) Title() string {
	switch c {
	case ColumnName:
		return "Name"
	case ColumnGroups:
		return "Asset Groups"
	case ColumnProvider:
		return "Version Rule"
	default:
		return "?"
	}
}

// ParseColumn parses a column name as accepted on the command line.
func ParseColumn(s string) (Column, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "name":
		return ColumnName, nil
	case "groups", "group", "asset_groups":
		return ColumnGroups, nil
	case "provider", "rule", "version_rule":
		return ColumnProvider, nil
	default:
		return 0, fmt.Errorf("unknown column %q (valid: name, groups, provider)", s)
	}
}

// Row is one displayed line of the collection.
type Row struct {
	ID       int
	GUID     string
	Name     string
	Groups   string
	Provider string
	Selected bool
}

// Text returns the cell text for col.
func (r Row) Text(col Column) string {
	switch col {
	case ColumnGroups:
		return r.Groups
	case ColumnProvider:
		return r.Provider
	default:
		return r.Name
	}
}

// RenameEvent is published when a rename commits with a new name.
type RenameEvent struct {
	ID   int
	Name string
}

// SortState is the active sort, if any.
type SortState struct {
	Column    Column
	Ascending bool
	Active    bool
}

// TreeOption configures a Tree.
type TreeOption func(*Tree)

// WithGroupResolver sets the resolver used for group descriptions.
func WithGroupResolver(resolver GroupResolver) TreeOption {
	return func(t *Tree) { t.resolver = resolver }
}

// WithEagerDescriptions makes search refresh stale descriptions before
// matching. Without it search matches the cached text.
func WithEagerDescriptions(enabled bool) TreeOption {
	return func(t *Tree) { t.eager = enabled }
}

// AddOption configures Add.
type AddOption func(*addOptions)

type addOptions struct {
	index int
}

// AtIndex inserts the new rule at index instead of appending. Indexes
// outside the collection append.
func AtIndex(index int) AddOption {
	return func(o *addOptions) { o.index = index }
}

// Tree is the flat, ordered collection of rules. Rules are never nested.
// Session ids start at 1 and are never reused within one Tree.
type Tree struct {
	rules    []*Rule
	nextID   int
	resolver GroupResolver
	eager    bool

	selection []int
	renaming  int

	sort          SortState
	search        string
	searchColumns []Column

	controller   *SelectionController
	controllerID int
	unsubscribe  []func()

	renamed          *pubsub.Subject[RenameEvent]
	selectionChanged *pubsub.Subject[[]int]
}

// NewTree creates an empty collection.
func NewTree(opts ...TreeOption) *Tree {
	t := &Tree{
		nextID:           1,
		renamed:          pubsub.NewSubject[RenameEvent](),
		selectionChanged: pubsub.NewSubject[[]int](),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Add creates a rule with a fresh GUID and returns it. Both descriptions
// are computed before it is first displayed.
func (t *Tree) Add(name string, p provider.Provider, groups []string, opts ...AddOption) *Rule {
	return t.insert(uuid.NewString(), name, p, groups, opts...)
}

// Restore adds a rule that already has a persisted identity.
func (t *Tree) Restore(guid, name string, p provider.Provider, groups []string) *Rule {
	if guid == "" {
		guid = uuid.NewString()
	}
	return t.insert(guid, name, p, groups)
}

func (t *Tree) insert(guid, name string, p provider.Provider, groups []string, opts ...AddOption) *Rule {
	o := addOptions{index: -1}
	for _, opt := range opts {
		opt(&o)
	}

	r := newRule(t.nextID, guid, name, p, groups)
	t.nextID++
	r.RefreshProviderDescription()
	r.RefreshGroupDescription(t.resolver)

	if o.index < 0 || o.index >= len(t.rules) {
		t.rules = append(t.rules, r)
	} else {
		t.rules = slices.Insert(t.rules, o.index, r)
	}
	log.Debug(log.CatRules, "Added rule", "id", r.id, "name", name)
	return r
}

// Remove deletes the rule with id. Its id is retired and it is dropped
// from the selection.
func (t *Tree) Remove(id int) bool {
	i := t.indexOf(id)
	if i < 0 {
		return false
	}
	t.rules = slices.Delete(t.rules, i, i+1)

	if t.controllerID == id {
		t.CloseSelection()
	}
	if t.renaming == id {
		t.renaming = 0
	}
	if slices.Contains(t.selection, id) {
		t.setSelection(slices.DeleteFunc(slices.Clone(t.selection), func(s int) bool { return s == id }))
	}
	log.Debug(log.CatRules, "Removed rule", "id", id)
	return true
}

// Move reorders the rule with id to index, clamped to the collection.
func (t *Tree) Move(id, index int) {
	i := t.indexOf(id)
	if i < 0 {
		return
	}
	r := t.rules[i]
	t.rules = slices.Delete(t.rules, i, i+1)
	index = max(0, min(index, len(t.rules)))
	t.rules = slices.Insert(t.rules, index, r)
}

// SetParent always fails; the collection is one level deep.
func (t *Tree) SetParent(child, parent int) error {
	return ErrNestingNotAllowed
}

// CanBeParent reports whether a rule may hold children. It never can.
func (t *Tree) CanBeParent(int) bool {
	return false
}

// Rules returns the rules in insertion order.
func (t *Tree) Rules() []*Rule {
	return slices.Clone(t.rules)
}

// Len returns the number of rules.
func (t *Tree) Len() int {
	return len(t.rules)
}

// ByID returns the rule with session id.
func (t *Tree) ByID(id int) (*Rule, bool) {
	i := t.indexOf(id)
	if i < 0 {
		return nil, false
	}
	return t.rules[i], true
}

// ByGUID returns the rule with the persisted identity guid.
func (t *Tree) ByGUID(guid string) (*Rule, bool) {
	for _, r := range t.rules {
		if r.guid == guid {
			return r, true
		}
	}
	return nil, false
}

// Position returns the 0-based position of the rule with id, or -1.
func (t *Tree) Position(id int) int {
	return t.indexOf(id)
}

// Resolve finds a rule from a user reference: a 1-based position, a full
// GUID, a GUID prefix of at least four characters, or an exact name.
// References matching several rules return ErrAmbiguousRef.
func (t *Tree) Resolve(ref string) (*Rule, error) {
	ref = strings.TrimSpace(ref)
	if pos, err := strconv.Atoi(ref); err == nil {
		if pos >= 1 && pos <= len(t.rules) {
			return t.rules[pos-1], nil
		}
		return nil, &RuleNotFoundError{Ref: ref}
	}
	if r, ok := t.ByGUID(ref); ok {
		return r, nil
	}

	var matches []*Rule
	if len(ref) >= 4 {
		for _, r := range t.rules {
			if strings.HasPrefix(r.guid, ref) {
				matches = append(matches, r)
			}
		}
	}
	if len(matches) == 0 {
		for _, r := range t.rules {
			if r.name == ref {
				matches = append(matches, r)
			}
		}
	}

	switch len(matches) {
	case 0:
		return nil, &RuleNotFoundError{Ref: ref}
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("%w: %q matches %d rules", ErrAmbiguousRef, ref, len(matches))
	}
}

// BeginRename starts an inline rename of the name column.
func (t *Tree) BeginRename(id int) bool {
	if t.indexOf(id) < 0 {
		return false
	}
	t.renaming = id
	return true
}

// Renaming returns the id being renamed, or 0.
func (t *Tree) Renaming() int {
	return t.renaming
}

// CommitRename applies name to the rule. RenameCommitted fires only when
// the name actually changed.
func (t *Tree) CommitRename(id int, name string) error {
	r, ok := t.ByID(id)
	if !ok {
		return &RuleNotFoundError{Ref: strconv.Itoa(id)}
	}
	if t.renaming == id {
		t.renaming = 0
	}
	if r.name == name {
		return nil
	}
	r.Rename(name)
	log.Debug(log.CatRules, "Renamed rule", "id", id, "name", name)
	t.renamed.Publish(pubsub.RenameCommittedEvent, RenameEvent{ID: id, Name: name})
	return nil
}

// CancelRename ends an inline rename without changing anything.
func (t *Tree) CancelRename(id int) {
	if t.renaming == id {
		t.renaming = 0
	}
}

// Select replaces the selection. Unknown ids are dropped and duplicates
// collapsed. The first id is the active one.
func (t *Tree) Select(ids ...int) {
	selected := make([]int, 0, len(ids))
	for _, id := range ids {
		if t.indexOf(id) >= 0 && !slices.Contains(selected, id) {
			selected = append(selected, id)
		}
	}
	t.setSelection(selected)
}

func (t *Tree) setSelection(ids []int) {
	if slices.Equal(ids, t.selection) {
		return
	}
	t.selection = ids
	t.selectionChanged.Publish(pubsub.SelectionChangedEvent, slices.Clone(ids))
}

// Selection returns the selected ids in selection order.
func (t *Tree) Selection() []int {
	return slices.Clone(t.selection)
}

// ActiveID returns the first selected id, or 0 when nothing is selected.
func (t *Tree) ActiveID() int {
	if len(t.selection) == 0 {
		return 0
	}
	return t.selection[0]
}

// SetSort orders Rows by column.
func (t *Tree) SetSort(column Column, ascending bool) {
	t.sort = SortState{Column: column, Ascending: ascending, Active: true}
}

// ClearSort restores insertion order.
func (t *Tree) ClearSort() {
	t.sort = SortState{}
}

// Sort returns the current sort state.
func (t *Tree) Sort() SortState {
	return t.sort
}

// SetSearch filters Rows to those containing text, case-insensitively.
// Empty text shows everything.
func (t *Tree) SetSearch(text string) {
	t.search = text
}

// SetSearchColumns limits which columns search looks at. No columns means
// all of them.
func (t *Tree) SetSearchColumns(cols ...Column) {
	t.searchColumns = slices.Clone(cols)
}

// SetGroupResolver replaces the group resolver and marks every group
// description stale.
func (t *Tree) SetGroupResolver(resolver GroupResolver) {
	t.resolver = resolver
	for _, r := range t.rules {
		r.groupGeneration++
	}
}

// Refresh recomputes the descriptions of the rule with id.
func (t *Tree) Refresh(id int) {
	if r, ok := t.ByID(id); ok {
		r.RefreshProviderDescription()
		r.RefreshGroupDescription(t.resolver)
	}
}

// Rows returns the presentation: filtered by search and ordered by sort.
// The active rule is always refreshed. Sorting by a description column
// brings every stale description up to date first. Search matches cached
// text unless eager descriptions are enabled.
func (t *Tree) Rows() []Row {
	t.Refresh(t.ActiveID())

	if t.eager || (t.sort.Active && t.sort.Column != ColumnName) {
		t.ensureAll()
	}

	rows := make([]Row, 0, len(t.rules))
	for _, r := range t.rules {
		row := Row{
			ID:       r.id,
			GUID:     r.guid,
			Name:     r.name,
			Groups:   r.GroupDescription(),
			Provider: r.ProviderDescription(),
			Selected: slices.Contains(t.selection, r.id),
		}
		if t.matches(row) {
			rows = append(rows, row)
		}
	}

	if t.sort.Active {
		col, asc := t.sort.Column, t.sort.Ascending
		sort.SliceStable(rows, func(i, j int) bool {
			a, b := rows[i].Text(col), rows[j].Text(col)
			if asc {
				return natural.Less(a, b)
			}
			return natural.Less(b, a)
		})
	}
	return rows
}

func (t *Tree) ensureAll() {
	for _, r := range t.rules {
		r.EnsureProviderDescription()
		r.EnsureGroupDescription(t.resolver)
	}
}

func (t *Tree) matches(row Row) bool {
	if t.search == "" {
		return true
	}
	cols := t.searchColumns
	if len(cols) == 0 {
		cols = AllColumns
	}
	needle := strings.ToLower(t.search)
	for _, col := range cols {
		if strings.Contains(strings.ToLower(row.Text(col)), needle) {
			return true
		}
	}
	return false
}

// OpenSelection opens the provider panel for the rule with id, replacing
// any open one. Activating the panel selects its rule; switching the type
// or editing fields refreshes the rule's provider description.
func (t *Tree) OpenSelection(id int, registry *provider.Registry, editors *provider.EditorResolver, reporter diag.Reporter) (*SelectionController, error) {
	r, ok := t.ByID(id)
	if !ok {
		return nil, &RuleNotFoundError{Ref: strconv.Itoa(id)}
	}
	t.CloseSelection()

	c := NewSelectionController(registry, editors, r, reporter)
	c.Initialize()
	t.controller = c
	t.controllerID = id
	t.unsubscribe = []func(){
		c.OnActivatedSignal(func() { t.Select(id) }),
		c.OnTypeChanged(func(provider.TypeID) { r.RefreshProviderDescription() }),
		c.OnValueChanged(func() { r.RefreshProviderDescription() }),
	}
	return c, nil
}

// Controller returns the open provider panel and its rule id, if any.
func (t *Tree) Controller() (*SelectionController, int) {
	return t.controller, t.controllerID
}

// CloseSelection destroys the open provider panel.
func (t *Tree) CloseSelection() {
	if t.controller == nil {
		return
	}
	for _, unsub := range t.unsubscribe {
		unsub()
	}
	t.controller.Close()
	t.controller = nil
	t.controllerID = 0
	t.unsubscribe = nil
}

// OnRenameCommitted subscribes to committed renames.
func (t *Tree) OnRenameCommitted(fn func(RenameEvent)) func() {
	return t.renamed.Subscribe(func(e pubsub.Event[RenameEvent]) { fn(e.Payload) })
}

// OnSelectionChanged subscribes to selection changes.
func (t *Tree) OnSelectionChanged(fn func([]int)) func() {
	return t.selectionChanged.Subscribe(func(e pubsub.Event[[]int]) { fn(e.Payload) })
}

func (t *Tree) indexOf(id int) int {
	return slices.IndexFunc(t.rules, func(r *Rule) bool { return r.id == id })
}
