package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/rulebook/internal/presentation"
	"github.com/zjrosen/rulebook/internal/provider/builtin"
)

var providersJSON bool

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List the selectable provider types",
	Long: `List the provider types a rule can use, in the order they are offered.

The index is what 'rulebook set-provider' accepts besides the type id.
Legacy types that only exist so old rules keep loading are not listed.

Examples:
  rulebook providers
  rulebook providers --json | jq '.[].type_id'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, editors := builtin.NewRegistry()
		dtos := presentation.FromRegistry(registry, editors)

		if providersJSON {
			return presentation.NewFormatter(cmd.OutOrStdout()).FormatProviders(dtos)
		}
		fmt.Fprintln(cmd.OutOrStdout(), presentation.NewRenderer(cfg.UI.MaxColumnWidth).RenderProviders(dtos))
		return nil
	},
}

func init() {
	providersCmd.Flags().BoolVar(&providersJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(providersCmd)
}
