package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zjrosen/rulebook/internal/log"
	"github.com/zjrosen/rulebook/internal/watcher"
)

var watchVerbose bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Reprint the rule list whenever the store changes",
	Long: `Print the rule list, then print it again each time the store file is
written by another rulebook process. Accepts the same display flags as
'list'. Stop with Ctrl+C.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWorkspace(cmd, args, func(ctx context.Context, ws *workspace) error {
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			if watchVerbose {
				if !debugLogging {
					log.InitWriter(io.Discard)
				}
				unsubscribe := log.Subscribe(func(entry string) {
					fmt.Fprint(cmd.ErrOrStderr(), entry)
				})
				defer unsubscribe()
			}

			if err := os.MkdirAll(filepath.Dir(ws.storePath), 0o750); err != nil {
				return fmt.Errorf("creating store directory: %w", err)
			}
			w, err := watcher.New(watcher.DefaultConfig(ws.storePath))
			if err != nil {
				return err
			}
			defer func() { _ = w.Stop() }()
			onChange, err := w.Start()
			if err != nil {
				return err
			}

			render := func() error {
				if err := applyListOptions(cmd, ws.tree); err != nil {
					return err
				}
				return printRules(cmd.OutOrStdout(), ws, false)
			}
			if err := render(); err != nil {
				return err
			}

			for {
				select {
				case <-ctx.Done():
					return nil
				case <-onChange:
					ws.diags.Reset()
					if err := ws.load(ctx); err != nil {
						log.ErrorErr(log.CatWatcher, "Reload failed", err, "path", ws.storePath)
						fmt.Fprintln(cmd.ErrOrStderr(), "reload failed:", err)
						continue
					}
					fmt.Fprintln(cmd.OutOrStdout())
					if err := render(); err != nil {
						return err
					}
					ws.printDiagnostics(cmd.ErrOrStderr())
					ws.diags.Reset()
				}
			}
		})
	},
}

func init() {
	watchCmd.Flags().BoolVar(&watchVerbose, "verbose", false, "Print log entries to stderr")
	watchCmd.Flags().AddFlagSet(listDisplayFlags())
	rootCmd.AddCommand(watchCmd)
}
