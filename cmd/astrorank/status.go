package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/lewtec/astrorank/internal/coords"
	"github.com/lewtec/astrorank/internal/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status <images-dir>",
	Short: "Show ranking progress for a folder",
	Long: `Rebuild the session from the rankings file and print the progress, the
rank histogram and one row per image.

Example:
  astrorank status ./cutouts
  astrorank status ./cutouts --unranked -o my_rankings.txt`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		unrankedOnly, _ := cmd.Flags().GetBool("unranked")
		app, err := openApp(cmd, args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		session := app.Session

		ranked, total := session.Progress()
		fmt.Fprintf(out, "Images: %s\n", app.ImagesDir)
		fmt.Fprintf(out, "Ranked: %d/%d\n", ranked, total)
		if rec, err := session.Record(session.Cursor()); err == nil {
			fmt.Fprintf(out, "Resume at: %s\n", rec.Filename)
		}
		fmt.Fprintln(out)

		histogram := session.Histogram()
		var counts [][]string
		for _, rank := range session.Scale().Sorted() {
			counts = append(counts, []string{rank.String(), strconv.Itoa(histogram[rank])})
			delete(histogram, rank)
		}
		// ranks written by an older configuration
		var stale []domain.Rank
		for rank := range histogram {
			stale = append(stale, rank)
		}
		for _, rank := range domain.NewRankScale(stale...).Sorted() {
			counts = append(counts, []string{rank.String() + " (not in scale)", strconv.Itoa(histogram[rank])})
		}
		writeListing(out, []column{{title: "Rank"}, {title: "Images", numeric: true}}, counts)
		fmt.Fprintln(out)

		var rows [][]string
		for i, rec := range session.Records() {
			if unrankedOnly && rec.Ranked() {
				continue
			}
			rows = append(rows, recordRow(i, rec, app.Config.Secondary.Precision))
		}
		writeListing(out, recordColumns, rows)
		return nil
	},
}

func recordRow(index int, rec domain.ImageRecord, precision int) []string {
	ra, dec := "-", "-"
	if rec.Coords != nil {
		ra, dec = coords.Format(*rec.Coords, precision)
	}
	secondary := "no"
	if rec.SecondaryFetched {
		secondary = "yes"
	}
	rank := rec.Rank.String()
	if !rec.Ranked() {
		rank = "-"
	}
	return []string{strconv.Itoa(index + 1), rec.Filename, rank, ra, dec, secondary, rec.Comment}
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolP("unranked", "u", false, "Only list images without a rank")
}
