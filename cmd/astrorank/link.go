package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var linkCmd = &cobra.Command{
	Use:   "link <images-dir> <filename>",
	Short: "Print the survey viewer links of one image",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd, args[0])
		if err != nil {
			return err
		}
		index, err := findImage(app, args[1])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		printed := false
		if app.Config.Browser.Enabled {
			url, err := app.BrowserURL(index)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "browser\t%s\n", url)
			printed = true
		}
		if app.Config.Secondary.ViewerURLTemplate != "" {
			url, err := app.ViewerURL(index)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s\t%s\n", app.Config.Secondary.Name, url)
			printed = true
		}
		if !printed {
			return fmt.Errorf("no viewer is configured")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(linkCmd)
}
