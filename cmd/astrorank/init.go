package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lewtec/astrorank/ranking"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init [folder]",
	Short: "Write a sample configuration file",
	Long: `Write an annotated astrorank.yaml with the default key bindings, rank scale
and secondary survey provider. An existing file is left untouched.

Example:
  astrorank init
  astrorank init ./project
  astrorank init -c custom.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configFile, _ := cmd.Flags().GetString("config")
		if len(args) == 1 {
			if err := os.MkdirAll(args[0], 0755); err != nil {
				return fmt.Errorf("failed to create folder: %w", err)
			}
			configFile = filepath.Join(args[0], filepath.Base(configFile))
		}
		out := cmd.OutOrStdout()

		if _, err := os.Stat(configFile); err == nil {
			fmt.Fprintf(out, "Configuration file already exists: %s\n", configFile)
		} else if os.IsNotExist(err) {
			fmt.Fprintf(out, "Creating sample configuration file: %s\n", configFile)
			if err := os.WriteFile(configFile, []byte(ranking.SampleConfig), 0644); err != nil {
				return fmt.Errorf("failed to create config file: %w", err)
			}
			fmt.Fprintf(out, "✓ Configuration file created successfully\n\n")
		} else {
			return err
		}

		if _, err := ranking.LoadConfig(configFile); err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		fmt.Fprintln(out, "Next steps:")
		fmt.Fprintln(out, "  1. Review and customize your config file:", configFile)
		fmt.Fprintln(out, "  2. Check the key bindings:")
		fmt.Fprintf(out, "     astrorank keys -c %s\n", configFile)
		fmt.Fprintln(out, "  3. Rank your images:")
		fmt.Fprintf(out, "     astrorank status <images> -c %s\n", configFile)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
