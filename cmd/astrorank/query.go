/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lewtec/astrorank/ranking"
)

// PrintQuery writes the rows of query as tab separated values. NULL is
// printed as "-".
func PrintQuery(ctx context.Context, w io.Writer, db *sql.Tx, query string, args ...interface{}) error {
	stmt, err := db.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()
	result, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return err
	}
	defer result.Close()
	columns, err := result.Columns()
	if err != nil {
		return err
	}
	if len(columns) > 1 {
		fmt.Fprintln(w, strings.Join(columns, "\t"))
	}
	pointers := make([]interface{}, len(columns))
	container := make([]sql.NullString, len(columns))
	for i := 0; i < len(columns); i++ {
		pointers[i] = &container[i]
	}
	values := make([]string, len(columns))
	for result.Next() {
		if err := result.Scan(pointers...); err != nil {
			return err
		}
		for i, v := range container {
			values[i] = "-"
			if v.Valid {
				values[i] = v.String
			}
		}
		fmt.Fprintln(w, strings.Join(values, "\t"))
	}
	return result.Err()
}

// queryCmd represents the query command
var queryCmd = &cobra.Command{
	Use:   "query [flags] database [rank] [image]",
	Short: "Queries an exported rankings database",
	Long: `Without a rank, print how many images carry each rank ("-" counts the
unranked ones). With a rank, list the images carrying it; "-" lists the
unranked images. An image, given by filename or hash, narrows the list down.
With --history, print every rank event of one image instead.

Example:
  astrorank query rankings.db
  astrorank query rankings.db 3
  astrorank query --history rankings.db obj_150.1_2.2.jpg`,
	Args: cobra.RangeArgs(1, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		fetchHash, err := cmd.Flags().GetBool("show-hashes")
		if err != nil {
			return err
		}
		history, err := cmd.Flags().GetBool("history")
		if err != nil {
			return err
		}
		db, err := ranking.GetDatabase(args[0])
		if err != nil {
			return err
		}
		defer db.Close()

		tx, err := db.BeginTx(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		ctx, out := cmd.Context(), cmd.OutOrStdout()
		if history {
			if len(args) != 2 {
				return fmt.Errorf("--history takes the database and one image")
			}
			return PrintQuery(ctx, out, tx, "select seq, rank, comment from rank_events where filename = ? order by seq", args[1])
		}
		if len(args) < 2 {
			return PrintQuery(ctx, out, tx, "select rank, count(*) as images from images group by rank order by rank")
		}

		queryArgs := []interface{}{}
		query := ""
		if fetchHash {
			query += "select sha256 "
		} else {
			query += "select filename "
		}
		query += "from images "
		if args[1] == "-" {
			query += "where rank is null "
		} else {
			query += "where rank = ? "
			queryArgs = append(queryArgs, args[1])
		}
		if len(args) >= 3 {
			query += "and (sha256 = ? or filename = ?) "
			queryArgs = append(queryArgs, args[2], args[2])
		}
		query += "order by filename"

		return PrintQuery(ctx, out, tx, query, queryArgs...)
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().BoolP("show-hashes", "i", false, "Show hash of file instead of file name")
	queryCmd.Flags().Bool("history", false, "Print the rank events of one image")
}
