package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/rulebook/internal/provider"
	"github.com/zjrosen/rulebook/internal/provider/builtin"
	"github.com/zjrosen/rulebook/internal/rules"
)

var (
	addProvider string
	addGroups   []string
	addAt       int
)

var addCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Add a version rule",
	Long: `Add a version rule with a default-configured provider.

Names need not be unique. --at inserts at a 1-based position; positions
past the end append. Use --provider none to add a rule without a
provider.

Examples:
  rulebook add "UI icons" --group icons --group ui
  rulebook add textures --provider path_pattern --at 1`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWorkspace(cmd, args, func(ctx context.Context, ws *workspace) error {
			var opts []rules.AddOption
			if addAt > 0 {
				opts = append(opts, rules.AtIndex(addAt-1))
			}
			r := ws.tree.Add(args[0], nil, addGroups, opts...)

			if addProvider != "none" {
				ctrl, err := ws.openSelection(r)
				if err != nil {
					return err
				}
				if err := ctrl.SelectTypeID(provider.TypeID(addProvider)); err != nil {
					ws.tree.Remove(r.ID())
					return fmt.Errorf("provider %q: %w", addProvider, err)
				}
				ws.tree.CloseSelection()
			}

			if err := ws.save(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added rule %d: %s (%s) %s\n",
				ws.tree.Position(r.ID())+1, r.Name(), r.GUID(), r.ProviderDescription())
			return nil
		})
	},
}

func init() {
	addCmd.Flags().StringVarP(&addProvider, "provider", "p", string(builtin.ConstantTypeID), "Provider type id, or none")
	addCmd.Flags().StringArrayVarP(&addGroups, "group", "g", nil, "Asset group key (can be repeated)")
	addCmd.Flags().IntVar(&addAt, "at", 0, "Insert at this 1-based position (default: append)")
	rootCmd.AddCommand(addCmd)
}
