package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lewtec/astrorank/ranking"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Print the key bindings of the configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		asHTML, _ := cmd.Flags().GetBool("html")
		config, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		resolver, err := config.Resolver()
		if err != nil {
			return err
		}
		// help does not need a session
		app := &ranking.App{Config: config, Resolver: resolver}
		if asHTML {
			fmt.Fprint(cmd.OutOrStdout(), app.HelpHTML())
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), app.HelpMarkdown())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keysCmd)

	keysCmd.Flags().Bool("html", false, "Render the bindings as HTML")
}
