package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/zjrosen/rulebook/internal/provider"
)

var setProviderCmd = &cobra.Command{
	Use:   "set-provider REF TYPE",
	Short: "Switch the provider type of a rule",
	Long: `Replace a rule's provider with a default-configured instance of TYPE.

TYPE is a type id or an index as printed by 'rulebook providers'.
Choosing the type the rule already has keeps its current settings.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWorkspace(cmd, args, func(ctx context.Context, ws *workspace) error {
			r, err := ws.tree.Resolve(args[0])
			if err != nil {
				return err
			}
			ctrl, err := ws.openSelection(r)
			if err != nil {
				return err
			}
			defer ws.tree.CloseSelection()

			changed := false
			ctrl.OnTypeChanged(func(id provider.TypeID) {
				changed = true
				fmt.Fprintf(cmd.OutOrStdout(), "Rule %s now uses %s: %s\n", r.Name(), id, r.ProviderDescription())
			})

			if index, convErr := strconv.Atoi(args[1]); convErr == nil {
				err = ctrl.SelectType(index)
			} else {
				err = ctrl.SelectTypeID(provider.TypeID(args[1]))
			}
			if err != nil {
				return err
			}

			if !changed {
				if ctrl.State().Instance == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "Rule %s has no provider\n", r.Name())
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Rule %s already uses %s\n", r.Name(), ctrl.State().Instance.TypeID())
					return nil
				}
			}
			return ws.save(ctx)
		})
	},
}

func init() {
	rootCmd.AddCommand(setProviderCmd)
}
