package store

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/rulebook/internal/diag"
	"github.com/zjrosen/rulebook/internal/provider/builtin"
	"github.com/zjrosen/rulebook/internal/rules"
)

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	reg, _ := builtin.NewRegistry()
	tree := rules.NewTree()
	tree.Add("textures", &builtin.Constant{Version: "2.1.0"}, []string{"tex"})
	tree.Add("audio", &builtin.FileHash{Length: 12}, nil)
	tree.Add("empty", nil, []string{"a", "b"})

	records, err := Snapshot(tree, nil)
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, "constant", records[0].ProviderType)
	require.JSONEq(t, `{"version":"2.1.0"}`, string(records[0].ProviderParams))
	require.Equal(t, 2, records[2].Position)
	require.Empty(t, records[2].ProviderType)

	rec := diag.NewRecorder()
	restored := rules.NewTree()
	orphans := Restore(restored, records, reg, rec)
	require.Empty(t, orphans)
	require.Zero(t, rec.Len())

	again, err := Snapshot(restored, orphans)
	require.NoError(t, err)
	require.Equal(t, records, again)
}

func TestRestoreOrdersByPosition(t *testing.T) {
	reg, _ := builtin.NewRegistry()
	tree := rules.NewTree()
	Restore(tree, []Record{
		{GUID: "c", Name: "third", Position: 2},
		{GUID: "a", Name: "first", Position: 0},
		{GUID: "b", Name: "second", Position: 1},
	}, reg, nil)

	var names []string
	for _, r := range tree.Rules() {
		names = append(names, r.Name())
	}
	require.Equal(t, []string{"first", "second", "third"}, names)
	require.Equal(t, 1, tree.Rules()[0].ID(), "session ids are assigned fresh")
}

func TestRestoreDegradesBrokenProviders(t *testing.T) {
	reg, _ := builtin.NewRegistry()
	records := []Record{
		{GUID: "unknown", Name: "legacy", Position: 0, ProviderType: "removed_plugin", ProviderParams: json.RawMessage(`{"x":1}`)},
		{GUID: "bad", Name: "broken", Position: 1, ProviderType: "file_hash", ProviderParams: json.RawMessage(`{"length":"many"}`)},
		{GUID: "hidden", Name: "manual", Position: 2, ProviderType: "manual", ProviderParams: json.RawMessage(`{"version":"4"}`)},
	}

	rec := diag.NewRecorder()
	tree := rules.NewTree()
	orphans := Restore(tree, records, reg, rec)

	require.Equal(t, 3, tree.Len())
	legacy, _ := tree.ByGUID("unknown")
	require.Nil(t, legacy.Provider())
	require.Equal(t, rules.NoProviderDescription, legacy.ProviderDescription())

	broken, _ := tree.ByGUID("bad")
	require.Nil(t, broken.Provider())

	manual, _ := tree.ByGUID("hidden")
	require.Equal(t, "Manual: 4", manual.ProviderDescription())

	require.Len(t, rec.OfKind(diag.ConfigurationMismatch), 1)
	require.Equal(t, "unknown", rec.OfKind(diag.ConfigurationMismatch)[0].RuleGUID)
	require.Len(t, rec.OfKind(diag.ConstructionFailure), 1)
	require.Len(t, orphans, 2)

	require.NoError(t, tree.CommitRename(legacy.ID(), "still works"))
	snap, err := Snapshot(tree, orphans)
	require.NoError(t, err)
	require.Equal(t, "removed_plugin", snap[0].ProviderType)
	require.JSONEq(t, `{"x":1}`, string(snap[0].ProviderParams))
	require.Equal(t, "still works", snap[0].Name)

	require.True(t, tree.Remove(legacy.ID()))
	require.Equal(t, 2, tree.Len())
}

func TestRestoreKeepsOrphansWithoutGUID(t *testing.T) {
	reg, _ := builtin.NewRegistry()
	records := []Record{
		{Name: "legacy", Position: 0, ProviderType: "removed_plugin", ProviderParams: json.RawMessage(`{"x":1}`)},
		{Name: "older", Position: 1, ProviderType: "gone_plugin", ProviderParams: json.RawMessage(`{"y":2}`)},
	}

	rec := diag.NewRecorder()
	tree := rules.NewTree()
	orphans := Restore(tree, records, reg, rec)
	require.Len(t, orphans, 2)

	mismatches := rec.OfKind(diag.ConfigurationMismatch)
	require.Len(t, mismatches, 2)
	require.Equal(t, tree.Rules()[0].GUID(), mismatches[0].RuleGUID)

	snap, err := Snapshot(tree, orphans)
	require.NoError(t, err)
	require.Len(t, snap, 2)
	require.NotEmpty(t, snap[0].GUID)
	require.Equal(t, "removed_plugin", snap[0].ProviderType)
	require.JSONEq(t, `{"x":1}`, string(snap[0].ProviderParams))
	require.Equal(t, "gone_plugin", snap[1].ProviderType)
	require.JSONEq(t, `{"y":2}`, string(snap[1].ProviderParams))
}
