// Package diag carries the recoverable, non-fatal conditions raised while
// loading and editing rules. Each one is reported to a Reporter at the
// component that detects it and never aborts the collection.
package diag

import (
	"fmt"
	"sync"

	"github.com/zjrosen/rulebook/internal/log"
)

// Kind classifies a diagnostic.
type Kind string

const (
	// ConfigurationMismatch: persisted data references a provider type that
	// is not registered. The rule degrades to "no instance".
	ConfigurationMismatch Kind = "configuration_mismatch"

	// MissingEditorCapability: no field editor is registered for a concrete
	// provider type. The rule degrades to "no editable fields".
	MissingEditorCapability Kind = "missing_editor"

	// ConstructionFailure: building a provider instance failed. The
	// selection reverts to "no instance".
	ConstructionFailure Kind = "construction_failure"
)

// Diagnostic is one reported condition.
type Diagnostic struct {
	Kind     Kind
	TypeID   string
	RuleGUID string
	Err      error
}

func (d Diagnostic) String() string {
	msg := fmt.Sprintf("%s: provider type %q", d.Kind, d.TypeID)
	if d.RuleGUID != "" {
		msg += fmt.Sprintf(" (rule %s)", d.RuleGUID)
	}
	if d.Err != nil {
		msg += ": " + d.Err.Error()
	}
	return msg
}

// Reporter receives diagnostics.
type Reporter interface {
	Report(d Diagnostic)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(d Diagnostic)

// Report calls f(d).
func (f ReporterFunc) Report(d Diagnostic) { f(d) }

// Discard drops every diagnostic.
var Discard Reporter = ReporterFunc(func(Diagnostic) {})

// LogReporter writes diagnostics through the package logger.
// Construction failures log at error level, the rest at warn.
type LogReporter struct{}

// Report implements Reporter.
func (LogReporter) Report(d Diagnostic) {
	fields := []any{"kind", string(d.Kind), "type", d.TypeID}
	if d.RuleGUID != "" {
		fields = append(fields, "rule", d.RuleGUID)
	}

	switch d.Kind {
	case ConstructionFailure:
		log.ErrorErr(log.CatRegistry, "Provider construction failed", d.Err, fields...)
	case MissingEditorCapability:
		log.Error(log.CatEditor, fmt.Sprintf("Editor of %s is not found", d.TypeID), fields...)
	default:
		if d.Err != nil {
			fields = append(fields, "error", d.Err.Error())
		}
		log.Warn(log.CatStore, "Unknown provider type", fields...)
	}
}

// Recorder keeps every diagnostic it receives.
type Recorder struct {
	mu    sync.Mutex
	items []Diagnostic
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Report implements Reporter.
func (r *Recorder) Report(d Diagnostic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, d)
}

// All returns a copy of the recorded diagnostics in report order.
func (r *Recorder) All() []Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Diagnostic, len(r.items))
	copy(out, r.items)
	return out
}

// OfKind returns the recorded diagnostics of one kind.
func (r *Recorder) OfKind(kind Kind) []Diagnostic {
	var out []Diagnostic
	for _, d := range r.All() {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

// Len returns the number of recorded diagnostics.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Reset clears the recorder.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = nil
}

// Multi fans a diagnostic out to several reporters. Nil entries are skipped.
func Multi(reporters ...Reporter) Reporter {
	return ReporterFunc(func(d Diagnostic) {
		for _, r := range reporters {
			if r != nil {
				r.Report(d)
			}
		}
	})
}

// OrDiscard returns r, or Discard when r is nil.
func OrDiscard(r Reporter) Reporter {
	if r == nil {
		return Discard
	}
	return r
}
