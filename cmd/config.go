package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/youhavemail/yhm/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show application settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		values := activeSettings.Values()
		metadata := config.GetSettingsMetadata()

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, category := range config.CategoryOrder() {
			fmt.Fprintf(w, "[%s]\n", category)
			for _, meta := range metadata[category] {
				fmt.Fprintf(w, "  %s\t%v\t%s\n", meta.Key, values[meta.Key], meta.Description)
			}
		}
		fmt.Fprintf(w, "\nFile: %s\n", config.GetSettingsPath())
		return w.Flush()
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings := *activeSettings
		if err := settings.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := config.SaveSettings(&settings); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		activeSettings = &settings

		fmt.Fprintf(cmd.OutOrStdout(), "%s = %v\n", args[0], settings.Values()[args[0]])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configSetCmd)
}
