package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/zjrosen/rulebook/internal/config"
	"github.com/zjrosen/rulebook/internal/flags"
)

var flagsCmd = &cobra.Command{
	Use:   "flags",
	Short: "List feature flags",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		registry := flags.New(cfg.Flags)
		for _, def := range flags.Known() {
			state := "off"
			if registry.Enabled(def.Name) {
				state = "on"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-20s %-3s  %s\n", def.Name, state, def.Description)
		}
		return nil
	},
}

var flagsSetCmd = &cobra.Command{
	Use:   "set NAME true|false",
	Short: "Turn a feature flag on or off in the config file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if !flags.IsKnown(name) {
			return fmt.Errorf("unknown flag %q", name)
		}
		enabled, err := strconv.ParseBool(args[1])
		if err != nil {
			return fmt.Errorf("flag value must be true or false, got %q", args[1])
		}
		if err := config.SaveFlag(configPath(), name, enabled); err != nil {
			return fmt.Errorf("saving flag: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s = %t\n", name, enabled)
		return nil
	},
}

func init() {
	flagsCmd.AddCommand(flagsSetCmd)
	rootCmd.AddCommand(flagsCmd)
}
