package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/zjrosen/rulebook/internal/presentation"
	"github.com/zjrosen/rulebook/internal/rules"
)

var (
	listSort    string
	listDesc    bool
	listSearch  string
	listColumns []string
	listSelect  []string
	listJSON    bool
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List version rules",
	Long: `List version rules with their asset groups and version provider.

Rows keep their stored order unless a sort column is given; the default
comes from ui.default_sort. Sorting is natural, so "item2" sorts before
"item10". --search keeps rows whose text contains the value, ignoring
case, in the columns named by --in (default: all).

Examples:
  rulebook list
  rulebook list --sort provider --desc
  rulebook list --search core --in groups
  rulebook list --select 2 --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWorkspace(cmd, args, func(_ context.Context, ws *workspace) error {
			if err := applyListOptions(cmd, ws.tree); err != nil {
				return err
			}
			return printRules(cmd.OutOrStdout(), ws, listJSON)
		})
	},
}

// displayFlags are shared by list and watch.
var displayFlags = newDisplayFlags()

func newDisplayFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("display", pflag.ContinueOnError)
	fs.StringVar(&listSort, "sort", "", "Sort column: name, groups, provider or none (default from ui.default_sort)")
	fs.BoolVar(&listDesc, "desc", false, "Sort descending")
	fs.StringVarP(&listSearch, "search", "s", "", "Only show rows containing this text")
	fs.StringSliceVar(&listColumns, "in", nil, "Columns searched (name,groups,provider)")
	fs.StringSliceVar(&listSelect, "select", nil, "Rules to highlight (position, GUID prefix or name)")
	return fs
}

func listDisplayFlags() *pflag.FlagSet {
	return displayFlags
}

func init() {
	listCmd.Flags().AddFlagSet(listDisplayFlags())
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(listCmd)
}

func applyListOptions(cmd *cobra.Command, tree *rules.Tree) error {
	sortBy := cfg.UI.DefaultSort
	if cmd.Flags().Changed("sort") {
		sortBy = listSort
	}
	if sortBy != "" && sortBy != "none" {
		col, err := rules.ParseColumn(sortBy)
		if err != nil {
			return err
		}
		tree.SetSort(col, !listDesc)
	}

	if len(listColumns) > 0 {
		cols := make([]rules.Column, 0, len(listColumns))
		for _, name := range listColumns {
			col, err := rules.ParseColumn(name)
			if err != nil {
				return err
			}
			cols = append(cols, col)
		}
		tree.SetSearchColumns(cols...)
	}
	tree.SetSearch(listSearch)

	if len(listSelect) > 0 {
		ids := make([]int, 0, len(listSelect))
		for _, ref := range listSelect {
			r, err := tree.Resolve(ref)
			if err != nil {
				return err
			}
			ids = append(ids, r.ID())
		}
		tree.Select(ids...)
	}
	return nil
}

// printRules writes the tree's current rows as a table or JSON.
func printRules(w io.Writer, ws *workspace, asJSON bool) error {
	dtos := presentation.FromRows(ws.tree, ws.tree.Rows())
	if asJSON {
		return presentation.NewFormatter(w).FormatRules(dtos)
	}
	if len(dtos) == 0 {
		if ws.tree.Len() == 0 {
			fmt.Fprintln(w, "No rules. Add one with 'rulebook add NAME'.")
		} else {
			fmt.Fprintln(w, "No matching rules.")
		}
		return nil
	}
	fmt.Fprintln(w, ws.renderer().RenderRules(dtos, ws.tree.Sort()))
	return nil
}
