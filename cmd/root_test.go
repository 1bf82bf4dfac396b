package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/rulebook/internal/infrastructure/sqlite"
	"github.com/zjrosen/rulebook/internal/presentation"
	"github.com/zjrosen/rulebook/internal/rules"
	"github.com/zjrosen/rulebook/internal/store"
	"github.com/zjrosen/rulebook/internal/store/yamlfile"
	"github.com/zjrosen/rulebook/internal/testutil"
)

// lockedBuffer lets a test read output while a command is still writing.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type testEnv struct {
	configPath string
	storePath  string
}

func newTestEnv(t *testing.T, driver, extra string) testEnv {
	t.Helper()
	dir := t.TempDir()
	ext := "db"
	if driver == "yaml" {
		ext = "yaml"
	}
	env := testEnv{
		configPath: filepath.Join(dir, "config.yaml"),
		storePath:  filepath.Join(dir, "data", "rules."+ext),
	}
	body := fmt.Sprintf("store:\n  driver: %s\n  path: %s\nui:\n  no_color: true\n  max_column_width: 0\n%s",
		driver, env.storePath, extra)
	require.NoError(t, os.WriteFile(env.configPath, []byte(body), 0o600))
	return env
}

// resetFlags restores every flag to its default so global commands can be
// executed repeatedly.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func (env testEnv) run(ctx context.Context, stdout, stderr *lockedBuffer, args ...string) error {
	resetFlags(rootCmd)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(append(args, "--config", env.configPath))
	return rootCmd.ExecuteContext(ctx)
}

func (env testEnv) exec(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr lockedBuffer
	err := env.run(context.Background(), &stdout, &stderr, args...)
	return ansi.Strip(stdout.String()), stderr.String(), err
}

func (env testEnv) mustExec(t *testing.T, args ...string) string {
	t.Helper()
	stdout, stderr, err := env.exec(t, args...)
	require.NoError(t, err, "stderr: %s", stderr)
	return stdout
}

func (env testEnv) listJSON(t *testing.T, args ...string) []presentation.RuleDTO {
	t.Helper()
	out := env.mustExec(t, append([]string{"list", "--json"}, args...)...)
	var dtos []presentation.RuleDTO
	require.NoError(t, json.Unmarshal([]byte(out), &dtos))
	return dtos
}

func ruleNames(dtos []presentation.RuleDTO) []string {
	out := make([]string, len(dtos))
	for i, d := range dtos {
		out[i] = d.Name
	}
	return out
}

func TestList_EmptyStore(t *testing.T) {
	for _, driver := range []string{"sqlite", "yaml"} {
		t.Run(driver, func(t *testing.T) {
			env := newTestEnv(t, driver, "")
			require.Contains(t, env.mustExec(t, "list"), "No rules.")
		})
	}
}

func TestAddAndList_NaturalSort(t *testing.T) {
	for _, driver := range []string{"sqlite", "yaml"} {
		t.Run(driver, func(t *testing.T) {
			env := newTestEnv(t, driver, "")
			env.mustExec(t, "add", "item2")
			env.mustExec(t, "add", "item10")
			env.mustExec(t, "add", "item1")

			require.Equal(t, []string{"item1", "item2", "item10"}, ruleNames(env.listJSON(t)))
			require.Equal(t, []string{"item10", "item2", "item1"}, ruleNames(env.listJSON(t, "--desc")))
			require.Equal(t, []string{"item2", "item10", "item1"}, ruleNames(env.listJSON(t, "--sort", "none")))

			out := env.mustExec(t, "list")
			require.Contains(t, out, "Name ▲")
			require.Contains(t, out, "Constant: 1.0.0")
		})
	}
}

func TestAdd_Options(t *testing.T) {
	env := newTestEnv(t, "sqlite", "")
	env.mustExec(t, "add", "first")
	out := env.mustExec(t, "add", "textures", "--provider", "path_pattern", "--group", "core", "--group", "ui", "--at", "1")
	require.Contains(t, out, "Added rule 1: textures")
	env.mustExec(t, "add", "bare", "--provider", "none")

	dtos := env.listJSON(t, "--sort", "none")
	require.Equal(t, []string{"textures", "first", "bare"}, ruleNames(dtos))
	require.Equal(t, "path_pattern", dtos[0].ProviderType)
	require.Equal(t, []string{"core", "ui"}, dtos[0].Groups)
	require.Equal(t, rules.NoProviderDescription, dtos[2].Provider)

	_, _, err := env.exec(t, "add", "hidden", "--provider", "manual")
	require.ErrorIs(t, err, rules.ErrIndexOutOfRange)
	require.Len(t, env.listJSON(t), 3)
}

func TestList_SearchAndSelect(t *testing.T) {
	env := newTestEnv(t, "yaml", "groups:\n  core: Core Group\n")
	env.mustExec(t, "add", "r1", "--group", "core")
	env.mustExec(t, "add", "r2")
	env.mustExec(t, "add", "r3", "--group", "core")

	require.Equal(t, []string{"r1", "r3"}, ruleNames(env.listJSON(t, "--search", "group")))
	require.Empty(t, env.listJSON(t, "--search", "group", "--in", "name"))
	require.Contains(t, env.mustExec(t, "list", "--search", "nothing"), "No matching rules.")

	dtos := env.listJSON(t, "--select", "2")
	require.False(t, dtos[0].Selected)
	require.True(t, dtos[1].Selected)

	_, _, err := env.exec(t, "list", "--sort", "bogus")
	require.Error(t, err)
}

func TestRename(t *testing.T) {
	env := newTestEnv(t, "sqlite", "")
	env.mustExec(t, "add", "old")

	require.Contains(t, env.mustExec(t, "rename", "1", "new"), "Renamed rule 1 to new")
	require.Equal(t, []string{"new"}, ruleNames(env.listJSON(t)))
	require.Contains(t, env.mustExec(t, "rename", "new", "new"), "Name unchanged")

	var notFound *rules.RuleNotFoundError
	_, _, err := env.exec(t, "rename", "7", "x")
	require.ErrorAs(t, err, &notFound)
}

func TestRemove(t *testing.T) {
	env := newTestEnv(t, "sqlite", "")
	env.mustExec(t, "add", "a")
	env.mustExec(t, "add", "b")
	env.mustExec(t, "add", "c")

	out := env.mustExec(t, "remove", "1", "3")
	require.Contains(t, out, "Removed a")
	require.Contains(t, out, "Removed c")
	require.Equal(t, []string{"b"}, ruleNames(env.listJSON(t)))
}

func TestRemove_ConfirmFlag(t *testing.T) {
	env := newTestEnv(t, "yaml", "flags:\n  confirm-remove: true\n")
	env.mustExec(t, "add", "a")

	_, _, err := env.exec(t, "remove", "a")
	require.ErrorIs(t, err, ErrRemoveNotConfirmed)
	require.Len(t, env.listJSON(t), 1)

	env.mustExec(t, "remove", "a", "--yes")
	require.Empty(t, env.listJSON(t))
}

func TestSetProvider(t *testing.T) {
	env := newTestEnv(t, "sqlite", "")
	env.mustExec(t, "add", "a")

	require.Contains(t, env.mustExec(t, "set-provider", "1", "file_hash"), "now uses file_hash")
	require.Equal(t, "file_hash", env.listJSON(t)[0].ProviderType)

	require.Contains(t, env.mustExec(t, "set-provider", "1", "file_hash"), "already uses file_hash")

	env.mustExec(t, "set-provider", "1", "1")
	require.Equal(t, "path_pattern", env.listJSON(t)[0].ProviderType)

	_, _, err := env.exec(t, "set-provider", "1", "99")
	require.ErrorIs(t, err, rules.ErrIndexOutOfRange)
	_, _, err = env.exec(t, "set-provider", "1", "manual")
	require.ErrorIs(t, err, rules.ErrIndexOutOfRange)
}

func TestEdit(t *testing.T) {
	env := newTestEnv(t, "sqlite", "")
	env.mustExec(t, "add", "a")

	out := env.mustExec(t, "edit", "1", "--set", "version=2.0.0", "--dry-run")
	require.Contains(t, out, `-   "version": "1.0.0"`)
	require.Contains(t, out, `+   "version": "2.0.0"`)
	require.Contains(t, out, "Dry run")
	require.Equal(t, "Constant: 1.0.0", env.listJSON(t)[0].Provider)

	env.mustExec(t, "edit", "1", "--set", "version=2.0.0")
	require.Equal(t, "Constant: 2.0.0", env.listJSON(t)[0].Provider)
	require.Contains(t, env.mustExec(t, "edit", "1", "--set", "version=2.0.0"), "No changes")

	_, _, err := env.exec(t, "edit", "1", "--set", "novalue")
	require.Error(t, err)
	_, _, err = env.exec(t, "edit", "1", "--set", "version=")
	require.Error(t, err)
	require.Equal(t, "Constant: 2.0.0", env.listJSON(t)[0].Provider)
}

func TestFieldsAndPreview(t *testing.T) {
	env := newTestEnv(t, "yaml", "")
	env.mustExec(t, "add", "a")
	env.mustExec(t, "add", "b", "--provider", "none")

	out := env.mustExec(t, "fields", "a")
	require.Contains(t, out, "version")
	require.Contains(t, out, "required")
	require.Contains(t, env.mustExec(t, "fields", "b"), "No editable fields")

	out = env.mustExec(t, "preview", "a", "icons/play.png")
	require.Contains(t, out, "icons/play.png")
	require.Contains(t, out, "1.0.0")

	_, _, err := env.exec(t, "preview", "b", "x.png")
	require.ErrorIs(t, err, rules.ErrNoInstance)
}

func TestProviders(t *testing.T) {
	env := newTestEnv(t, "yaml", "")
	out := env.mustExec(t, "providers", "--json")

	var dtos []presentation.ProviderDTO
	require.NoError(t, json.Unmarshal([]byte(out), &dtos))
	require.Len(t, dtos, 3)
	require.Equal(t, "constant", dtos[0].TypeID)

	require.Contains(t, env.mustExec(t, "providers"), "PathPatternVersionProvider")
}

func TestGroupsSet(t *testing.T) {
	env := newTestEnv(t, "sqlite", "groups:\n  core: Core\n")
	env.mustExec(t, "add", "a", "--group", "core", "--group", "ui")

	out := env.mustExec(t, "groups", "set", "ui", "User Interface")
	require.Contains(t, out, "Core, User Interface")

	data, err := os.ReadFile(env.configPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "ui: User Interface")
	require.Equal(t, "Core, User Interface", env.listJSON(t)[0].GroupNames)
	require.Contains(t, env.mustExec(t, "groups"), "User Interface")
}

func TestFlags(t *testing.T) {
	env := newTestEnv(t, "yaml", "")
	require.Contains(t, env.mustExec(t, "flags"), "confirm-remove")

	env.mustExec(t, "flags", "set", "confirm-remove", "true")
	out := env.mustExec(t, "flags")
	require.Regexp(t, `confirm-remove\s+on`, out)

	_, _, err := env.exec(t, "flags", "set", "nope", "true")
	require.Error(t, err)
	_, _, err = env.exec(t, "flags", "set", "confirm-remove", "maybe")
	require.Error(t, err)
}

func TestList_StandardRules(t *testing.T) {
	env := newTestEnv(t, "sqlite", "")
	db, err := sqlite.NewDB(env.storePath)
	require.NoError(t, err)
	testutil.NewBuilder(t, db).WithStandardRules().Build()
	require.NoError(t, db.Close())

	require.Equal(t, []string{"item1", "item2", "item10", "unset"}, ruleNames(env.listJSON(t)))
	require.Equal(t, []string{"unset", "item2", "item1", "item10"}, ruleNames(env.listJSON(t, "--sort", "provider")))
	require.Equal(t, []string{"item1", "unset", "item2", "item10"}, ruleNames(env.listJSON(t, "--sort", "groups")))

	out := env.mustExec(t, "preview", "item10", "assets/v12/icon.png")
	require.Contains(t, out, "12.0")
}

func TestUnknownProviderIsKeptAndReported(t *testing.T) {
	env := newTestEnv(t, "yaml", "")
	testutil.NewBuilder(t, yamlfile.New(env.storePath)).WithOrphanRule("legacy").Build()

	stdout, stderr, err := env.exec(t, "rename", "legacy", "renamed")
	require.NoError(t, err)
	require.Contains(t, stdout, "Renamed")
	require.Contains(t, stderr, "warning:")
	require.Contains(t, stderr, "removed_plugin")

	records, err := yamlfile.New(env.storePath).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "renamed", records[0].Name)
	require.Equal(t, "removed_plugin", records[0].ProviderType)
	require.JSONEq(t, `{"channel":"beta"}`, string(records[0].ProviderParams))

	stdout, _, err = env.exec(t, "set-provider", "renamed", "constant")
	require.NoError(t, err)
	require.Contains(t, stdout, "now uses constant")
	records, err = yamlfile.New(env.storePath).Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, "constant", records[0].ProviderType)
}

func TestInvalidConfig(t *testing.T) {
	env := newTestEnv(t, "postgres", "")
	_, _, err := env.exec(t, "list")
	require.ErrorContains(t, err, "invalid configuration")
}

func TestConfigFileCreatedWhenMissing(t *testing.T) {
	dir := t.TempDir()
	env := testEnv{configPath: filepath.Join(dir, "nested", "config.yaml")}
	env.mustExec(t, "flags")

	data, err := os.ReadFile(env.configPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "# Rulebook Configuration")
}

func TestWatch_ReprintsOnChange(t *testing.T) {
	env := newTestEnv(t, "yaml", "")
	env.mustExec(t, "add", "before")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var stdout, stderr lockedBuffer
	done := make(chan error, 1)
	go func() { done <- env.run(ctx, &stdout, &stderr, "watch") }()

	require.Eventually(t, func() bool {
		return strings.Contains(stdout.String(), "before")
	}, 5*time.Second, 20*time.Millisecond)

	s := yamlfile.New(env.storePath)
	records, err := s.Load(context.Background())
	require.NoError(t, err)
	records = append(records, store.Record{GUID: "9f1c2c9e-0000-4000-8000-000000000002", Name: "after", Position: 1})
	require.NoError(t, s.Save(context.Background(), records))

	require.Eventually(t, func() bool {
		return strings.Contains(stdout.String(), "after")
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}
