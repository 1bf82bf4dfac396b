package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/rulebook/internal/presentation"
)

var fieldsJSON bool

var fieldsCmd = &cobra.Command{
	Use:   "fields REF",
	Short: "Show the editable provider fields of a rule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWorkspace(cmd, args, func(_ context.Context, ws *workspace) error {
			r, err := ws.tree.Resolve(args[0])
			if err != nil {
				return err
			}
			ctrl, err := ws.openSelection(r)
			if err != nil {
				return err
			}
			defer ws.tree.CloseSelection()

			dtos := presentation.FromFields(ctrl.EditableFields())
			if fieldsJSON {
				return presentation.NewFormatter(cmd.OutOrStdout()).FormatFields(dtos)
			}
			if len(dtos) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No editable fields")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), ws.renderer().RenderFields(dtos))
			return nil
		})
	},
}

func init() {
	fieldsCmd.Flags().BoolVar(&fieldsJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(fieldsCmd)
}
