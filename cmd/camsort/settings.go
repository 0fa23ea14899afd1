package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"camsort/internal/config"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or write the effective settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the settings after files, environment and flags are applied",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		for _, kv := range settings.Snapshot() {
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", kv.Key, kv.Value)
		}
		return nil
	},
}

var settingsWriteCmd = &cobra.Command{
	Use:   "write <file>",
	Short: "Write the effective settings to a .json, .toml or .yaml file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		if err := config.Save(settings, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Settings written to %s\n", args[0])
		return nil
	},
}

var settingsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the effective settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		result := config.ValidateSettings(settings)
		for _, w := range result.Warnings {
			fmt.Fprintf(cmd.OutOrStdout(), "warning: %s: %s\n", w.Field, w.Message)
		}
		for _, e := range result.Errors {
			fmt.Fprintf(cmd.OutOrStdout(), "error: %s: %s\n", e.Field, e.Message)
		}
		if err := result.Err(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Settings are valid.")
		return nil
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd, settingsWriteCmd, settingsCheckCmd)
	rootCmd.AddCommand(settingsCmd)
}
