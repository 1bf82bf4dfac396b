package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjrosen/rulebook/internal/presentation"
	"github.com/zjrosen/rulebook/internal/provider"
	"github.com/zjrosen/rulebook/internal/rules"
)

var (
	editSet    []string
	editDryRun bool
)

var editCmd = &cobra.Command{
	Use:   "edit REF --set key=value...",
	Short: "Edit the provider fields of a rule",
	Long: `Change provider fields in place and print a diff of the settings.

Field names are those listed by 'rulebook fields REF'. Values are
validated before anything changes; an invalid value leaves the provider
as it was.

Examples:
  rulebook edit 1 --set version=2.1.0
  rulebook edit textures --set pattern='v(\d+)' --set replacement='$1.0' --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		values, err := parseAssignments(editSet)
		if err != nil {
			return err
		}

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

			before, err := providerParams(r.Provider())
			if err != nil {
				return err
			}
			changed, err := ctrl.EditFields(values)
			if err != nil {
				return err
			}
			if !changed {
				fmt.Fprintln(cmd.OutOrStdout(), "No changes")
				return nil
			}

			after, err := providerParams(r.Provider())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), presentation.LineDiff(before, after))
			if editDryRun {
				fmt.Fprintln(cmd.OutOrStdout(), "Dry run: not saved")
				return nil
			}
			return ws.save(ctx)
		})
	},
}

func init() {
	editCmd.Flags().StringArrayVar(&editSet, "set", nil, "Field assignment key=value (can be repeated)")
	editCmd.Flags().BoolVar(&editDryRun, "dry-run", false, "Show the diff without saving")
	_ = editCmd.MarkFlagRequired("set")
	rootCmd.AddCommand(editCmd)
}

// parseAssignments splits key=value pairs. Later keys win.
func parseAssignments(pairs []string) (map[string]string, error) {
	values := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q (want key=value)", pair)
		}
		values[key] = value
	}
	return values, nil
}

func providerParams(p provider.Provider) (string, error) {
	if p == nil {
		return "", rules.ErrNoInstance
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encoding %s params: %w", p.TypeID(), err)
	}
	return presentation.IndentParams(raw), nil
}
