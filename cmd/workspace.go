package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/zjrosen/rulebook/internal/config"
	"github.com/zjrosen/rulebook/internal/diag"
	"github.com/zjrosen/rulebook/internal/flags"
	"github.com/zjrosen/rulebook/internal/groups"
	"github.com/zjrosen/rulebook/internal/infrastructure/sqlite"
	"github.com/zjrosen/rulebook/internal/log"
	"github.com/zjrosen/rulebook/internal/presentation"
	"github.com/zjrosen/rulebook/internal/provider"
	"github.com/zjrosen/rulebook/internal/provider/builtin"
	"github.com/zjrosen/rulebook/internal/rules"
	"github.com/zjrosen/rulebook/internal/store"
	"github.com/zjrosen/rulebook/internal/store/yamlfile"
	"github.com/zjrosen/rulebook/internal/tracing"
)

const shutdownTimeout = 5 * time.Second

// workspace is the loaded state one command operates on.
type workspace struct {
	cfg       config.Config
	registry  *provider.Registry
	editors   *provider.EditorResolver
	flags     *flags.Registry
	groupSrc  *groups.MapSource
	groups    *groups.Directory
	store     store.Store
	storePath string
	tree      *rules.Tree
	orphans   store.Orphans
	diags     *diag.Recorder
	reporter  diag.Reporter
}

// runWorkspace loads the configured store, runs fn inside a command span
// and prints any diagnostics to stderr. Diagnostics never fail a command.
func runWorkspace(cmd *cobra.Command, args []string, fn func(ctx context.Context, ws *workspace) error) (err error) {
	tp, err := tracing.NewProvider(tracingConfig(cfg.Tracing))
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if shutdownErr := tp.Shutdown(ctx); shutdownErr != nil {
			log.ErrorErr(log.CatTrace, "Failed to shut down tracing", shutdownErr)
		}
	}()

	ctx, span := tracing.StartCommand(cmd.Context(), tp.Tracer(), cmd.Name(), args)
	defer func() { tracing.EndCommand(span, err) }()

	ws, err := openWorkspace(cfg, tp)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := ws.store.Close(); closeErr != nil {
			log.ErrorErr(log.CatStore, "Failed to close store", closeErr)
		}
	}()

	if err := ws.load(ctx); err != nil {
		return err
	}
	defer ws.printDiagnostics(cmd.ErrOrStderr())
	return fn(ctx, ws)
}

func openWorkspace(c config.Config, tp *tracing.Provider) (*workspace, error) {
	registry, editors := builtin.NewRegistry()
	diags := diag.NewRecorder()

	groupSrc := groups.NewMapSource(c.Groups)
	ws := &workspace{
		cfg:       c,
		registry:  registry,
		editors:   editors,
		flags:     flags.New(c.Flags),
		groupSrc:  groupSrc,
		groups:    groups.NewDirectory(groupSrc.Lookup, groups.DefaultExpiration),
		storePath: c.Store.ResolvedPath(),
		diags:     diags,
		reporter:  diag.Multi(diag.LogReporter{}, diags),
	}

	s, err := openStore(c.Store.Driver, ws.storePath)
	if err != nil {
		return nil, err
	}
	ws.store = tracing.WrapStore(s, tp.Tracer(), driverName(c.Store.Driver))
	return ws, nil
}

func openStore(driver, path string) (store.Store, error) {
	switch driverName(driver) {
	case config.DriverYAML:
		return yamlfile.New(path), nil
	default:
		db, err := sqlite.NewDB(path)
		if err != nil {
			return nil, fmt.Errorf("opening rule database %s: %w", path, err)
		}
		return db, nil
	}
}

func driverName(driver string) string {
	if driver == "" {
		return config.DriverSQLite
	}
	return driver
}

// load replaces the tree with the store's current contents.
func (ws *workspace) load(ctx context.Context) error {
	records, err := ws.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading rules: %w", err)
	}
	ws.tree = rules.NewTree(
		rules.WithGroupResolver(ws.groups),
		rules.WithEagerDescriptions(ws.flags.Enabled(flags.FlagEagerDescriptions)),
	)
	ws.orphans = store.Restore(ws.tree, records, ws.registry, ws.reporter)
	return nil
}

// save writes the tree back, keeping records whose provider could not be
// restored.
func (ws *workspace) save(ctx context.Context) error {
	records, err := store.Snapshot(ws.tree, ws.orphans)
	if err != nil {
		return fmt.Errorf("snapshotting rules: %w", err)
	}
	if err := ws.store.Save(ctx, records); err != nil {
		return fmt.Errorf("saving rules: %w", err)
	}
	return nil
}

// openSelection opens the provider panel for r.
func (ws *workspace) openSelection(r *rules.Rule) (*rules.SelectionController, error) {
	return ws.tree.OpenSelection(r.ID(), ws.registry, ws.editors, ws.reporter)
}

func (ws *workspace) renderer() *presentation.Renderer {
	return presentation.NewRenderer(ws.cfg.UI.MaxColumnWidth)
}

func (ws *workspace) printDiagnostics(w io.Writer) {
	for _, d := range ws.diags.All() {
		fmt.Fprintln(w, presentation.WarningStyle.Render("warning: "+d.String()))
	}
}

func tracingConfig(t config.TracingConfig) tracing.Config {
	filePath := t.FilePath
	if filePath == "" {
		filePath = config.DefaultTracesFilePath()
	}
	return tracing.Config{
		Enabled:      t.Enabled,
		Exporter:     t.Exporter,
		FilePath:     filePath,
		OTLPEndpoint: t.OTLPEndpoint,
		SampleRate:   t.SampleRate,
	}
}
