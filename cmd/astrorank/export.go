package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lewtec/astrorank/ranking"
)

var exportCmd = &cobra.Command{
	Use:   "export <images-dir> <database>",
	Short: "Export the rankings of a folder into a SQLite database",
	Long: `Write one row per image (hash, coordinates, current rank and comment) and
every event of the rankings file into a SQLite database. An existing export in
the same database is replaced.

Example:
  astrorank export ./cutouts rankings.db
  astrorank query rankings.db 3`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd, args[0])
		if err != nil {
			return err
		}
		db, err := ranking.GetDatabase(args[1])
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		if err := app.Export(cmd.Context(), db); err != nil {
			return err
		}
		ranked, total := app.Session.Progress()
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %d images (%d ranked) to %s\n", total, ranked, args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
