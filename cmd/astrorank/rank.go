package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rankCmd = &cobra.Command{
	Use:   "rank <images-dir> <filename> <rank|key>",
	Short: "Rank one image",
	Long: `Append a rank for one image to the rankings file. The rank may be given as a
key bound in the configuration (for example "backtick") or as a literal value
of the rank scale.

Example:
  astrorank rank ./cutouts obj_150.1_2.2.jpg 3
  astrorank rank ./cutouts obj_150.1_2.2.jpg 1 -m "faint ring"`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd, args[0])
		if err != nil {
			return err
		}
		index, err := findImage(app, args[1])
		if err != nil {
			return err
		}
		rank, err := app.ParseRank(args[2])
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("comment") {
			comment, _ := cmd.Flags().GetString("comment")
			if err := app.Session.SetComment(index, comment); err != nil {
				return err
			}
		}
		next, err := app.Session.Submit(index, rank)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✓ %s ranked %s\n", args[1], rank)
		ranked, total := app.Session.Progress()
		if rec, err := app.Session.Record(next); err == nil {
			fmt.Fprintf(out, "  %d/%d ranked, next: %s\n", ranked, total, rec.Filename)
		} else {
			fmt.Fprintf(out, "  %d/%d ranked\n", ranked, total)
		}
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear <images-dir> <filename>",
	Short: "Remove the rank of one image",
	Long: `Append a clear marker for one image. Earlier ranks stay in the rankings file
but no longer count.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd, args[0])
		if err != nil {
			return err
		}
		index, err := findImage(app, args[1])
		if err != nil {
			return err
		}
		if err := app.Session.Clear(index); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s cleared\n", args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rankCmd)
	rootCmd.AddCommand(clearCmd)

	rankCmd.Flags().StringP("comment", "m", "", "Comment stored alongside the rank")
}
