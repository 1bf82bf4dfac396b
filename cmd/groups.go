package cmd

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjrosen/rulebook/internal/config"
)

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "List asset group display names",
	Long: `List the asset group keys configured in the groups section of the
config file and the names rules display for them. Keys without a
configured name display as the key itself.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWorkspace(cmd, args, func(_ context.Context, ws *workspace) error {
			keys := ws.groupSrc.Keys()
			if len(keys) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No groups configured. Add one with 'rulebook groups set KEY NAME'.")
				return nil
			}
			for _, key := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", key, ws.groups.GroupName(key))
			}
			return nil
		})
	},
}

var groupsSetCmd = &cobra.Command{
	Use:   "set KEY NAME",
	Short: "Set the display name of an asset group",
	Long: `Set the display name of an asset group in the config file and show
the refreshed group column of every rule that references it.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, name := strings.TrimSpace(args[0]), args[1]
		if key == "" {
			return fmt.Errorf("group key must not be blank")
		}

		return runWorkspace(cmd, args, func(_ context.Context, ws *workspace) error {
			ws.groupSrc.Set(key, name)
			if err := config.SaveGroups(configPath(), ws.groupSrc.Names()); err != nil {
				return fmt.Errorf("saving groups: %w", err)
			}
			ws.groups.Invalidate(key)
			ws.tree.SetGroupResolver(ws.groups)

			fmt.Fprintf(cmd.OutOrStdout(), "Group %s is now %q\n", key, name)
			for _, r := range ws.tree.Rules() {
				if !slices.Contains(r.Groups(), key) {
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "  %d %s: %s\n",
					ws.tree.Position(r.ID())+1, r.Name(), r.EnsureGroupDescription(ws.groups))
			}
			return nil
		})
	},
}

func init() {
	groupsCmd.AddCommand(groupsSetCmd)
	rootCmd.AddCommand(groupsCmd)
}
