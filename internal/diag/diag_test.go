package diag

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/rulebook/internal/log"
)

func TestDiagnosticString(t *testing.T) {
	tests := []struct {
		name string
		d    Diagnostic
		want string
	}{
		{
			name: "type only",
			d:    Diagnostic{Kind: MissingEditorCapability, TypeID: "constant"},
			want: `missing_editor: provider type "constant"`,
		},
		{
			name: "with rule and error",
			d: Diagnostic{
				Kind:     ConfigurationMismatch,
				TypeID:   "gone",
				RuleGUID: "abc",
				Err:      errors.New("not registered"),
			},
			want: `configuration_mismatch: provider type "gone" (rule abc): not registered`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.d.String())
		})
	}
}

func TestRecorder(t *testing.T) {
	rec := NewRecorder()
	rec.Report(Diagnostic{Kind: ConfigurationMismatch, TypeID: "a"})
	rec.Report(Diagnostic{Kind: ConstructionFailure, TypeID: "b"})
	rec.Report(Diagnostic{Kind: ConfigurationMismatch, TypeID: "c"})

	require.Equal(t, 3, rec.Len())
	require.Len(t, rec.OfKind(ConfigurationMismatch), 2)
	require.Equal(t, "b", rec.OfKind(ConstructionFailure)[0].TypeID)

	all := rec.All()
	all[0].TypeID = "mutated"
	require.Equal(t, "a", rec.All()[0].TypeID, "All returns a copy")

	rec.Reset()
	require.Equal(t, 0, rec.Len())
}

func TestMulti(t *testing.T) {
	a, b := NewRecorder(), NewRecorder()
	r := Multi(a, nil, b)

	r.Report(Diagnostic{Kind: MissingEditorCapability, TypeID: "x"})

	require.Equal(t, 1, a.Len())
	require.Equal(t, 1, b.Len())
}

func TestOrDiscard(t *testing.T) {
	require.Equal(t, Discard, OrDiscard(nil))
	rec := NewRecorder()
	require.Equal(t, Reporter(rec), OrDiscard(rec))
}

func TestLogReporter(t *testing.T) {
	var buf bytes.Buffer
	log.InitWriter(&buf)

	LogReporter{}.Report(Diagnostic{Kind: MissingEditorCapability, TypeID: "file_hash"})
	LogReporter{}.Report(Diagnostic{Kind: ConstructionFailure, TypeID: "broken", Err: errors.New("boom")})
	LogReporter{}.Report(Diagnostic{Kind: ConfigurationMismatch, TypeID: "gone", RuleGUID: "r1"})

	out := buf.String()
	require.Contains(t, out, "[ERROR] [editor] Editor of file_hash is not found")
	require.Contains(t, out, "[ERROR] [registry] Provider construction failed")
	require.Contains(t, out, "error=boom")
	require.Contains(t, out, "[WARN] [store] Unknown provider type kind=configuration_mismatch type=gone rule=r1")
}
