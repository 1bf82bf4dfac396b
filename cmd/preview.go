package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/rulebook/internal/presentation"
	"github.com/zjrosen/rulebook/internal/rules"
)

var previewJSON bool

var previewCmd = &cobra.Command{
	Use:   "preview REF ASSET_PATH...",
	Short: "Show the versions a rule derives for assets",
	Long: `Run a rule's provider against asset paths. The files need not exist;
providers only look at the path unless they say otherwise.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWorkspace(cmd, args, func(_ context.Context, ws *workspace) error {
			r, err := ws.tree.Resolve(args[0])
			if err != nil {
				return err
			}
			p := r.Provider()
			if p == nil {
				return fmt.Errorf("%s: %w", r.Name(), rules.ErrNoInstance)
			}

			results := make([]presentation.PreviewDTO, 0, len(args)-1)
			for _, asset := range args[1:] {
				version, ok := p.Provide(asset)
				results = append(results, presentation.PreviewDTO{Asset: asset, Version: version, Matched: ok})
			}

			if previewJSON {
				return presentation.NewFormatter(cmd.OutOrStdout()).FormatPreview(results)
			}
			fmt.Fprintln(cmd.OutOrStdout(), ws.renderer().RenderPreview(results))
			return nil
		})
	},
}

func init() {
	previewCmd.Flags().BoolVar(&previewJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(previewCmd)
}
