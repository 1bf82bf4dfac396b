package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/rulebook/internal/flags"
	"github.com/zjrosen/rulebook/internal/rules"
)

// ErrRemoveNotConfirmed is returned when confirm-remove is on and --yes is missing.
var ErrRemoveNotConfirmed = errors.New("remove needs --yes while the confirm-remove flag is enabled")

var removeYes bool

var removeCmd = &cobra.Command{
	Use:     "remove REF...",
	Aliases: []string{"rm"},
	Short:   "Remove version rules",
	Long: `Remove one or more version rules.

REF is a 1-based position, a GUID or GUID prefix, or an exact name. All
references are resolved before anything is removed, so positions refer
to the list as it was when the command started.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWorkspace(cmd, args, func(ctx context.Context, ws *workspace) error {
			if ws.flags.Enabled(flags.FlagConfirmRemove) && !removeYes {
				return ErrRemoveNotConfirmed
			}

			targets := make([]*rules.Rule, 0, len(args))
			for _, ref := range args {
				r, err := ws.tree.Resolve(ref)
				if err != nil {
					return err
				}
				targets = append(targets, r)
			}

			for _, r := range targets {
				if ws.tree.Remove(r.ID()) {
					fmt.Fprintf(cmd.OutOrStdout(), "Removed %s (%s)\n", r.Name(), r.GUID())
				}
			}
			return ws.save(ctx)
		})
	},
}

func init() {
	removeCmd.Flags().BoolVarP(&removeYes, "yes", "y", false, "Confirm removal")
	rootCmd.AddCommand(removeCmd)
}
