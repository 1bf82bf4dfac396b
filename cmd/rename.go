package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/rulebook/internal/rules"
)

var renameCmd = &cobra.Command{
	Use:   "rename REF NEW_NAME",
	Short: "Rename a version rule",
	Long: `Rename a version rule. Any name is accepted, including one another
rule already has.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWorkspace(cmd, args, func(ctx context.Context, ws *workspace) error {
			r, err := ws.tree.Resolve(args[0])
			if err != nil {
				return err
			}

			renamed := false
			unsubscribe := ws.tree.OnRenameCommitted(func(e rules.RenameEvent) {
				renamed = true
				fmt.Fprintf(cmd.OutOrStdout(), "Renamed rule %d to %s\n", ws.tree.Position(e.ID)+1, e.Name)
			})
			defer unsubscribe()

			ws.tree.BeginRename(r.ID())
			if err := ws.tree.CommitRename(r.ID(), args[1]); err != nil {
				return err
			}
			if !renamed {
				fmt.Fprintln(cmd.OutOrStdout(), "Name unchanged")
				return nil
			}
			return ws.save(ctx)
		})
	},
}

func init() {
	rootCmd.AddCommand(renameCmd)
}
