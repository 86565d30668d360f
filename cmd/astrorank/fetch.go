package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v6/osfs"
	"github.com/spf13/cobra"

	"github.com/lewtec/astrorank/internal/coords"
	"github.com/lewtec/astrorank/internal/domain"
	"github.com/lewtec/astrorank/ranking"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [images-dir] [filename...]",
	Short: "Download secondary survey composites into the cache",
	Long: `Fill the composite cache for every image of a folder, for some of its images,
or for the sources of a CSV file whose first two columns are RA and Dec.
Images without coordinates and sources the provider cannot serve are counted
and skipped.

Example:
  astrorank fetch ./cutouts -j 8
  astrorank fetch ./cutouts obj_150.1_2.2.jpg
  astrorank fetch --csv sources.csv --skip-first-column`,
	RunE: func(cmd *cobra.Command, args []string) error {
		jobs, _ := cmd.Flags().GetUint("jobs")
		csvFile, _ := cmd.Flags().GetString("csv")

		var (
			service *ranking.SecondaryService
			records []domain.ImageRecord
			config  *ranking.Config
		)
		if csvFile != "" {
			if len(args) > 0 {
				return fmt.Errorf("--csv does not take an images folder")
			}
			var err error
			if config, err = loadConfig(cmd); err != nil {
				return err
			}
			skipFirst, _ := cmd.Flags().GetBool("skip-first-column")
			if records, err = readSources(csvFile, skipFirst); err != nil {
				return err
			}
			service = ranking.NewSecondaryService(osfs.New(config.Secondary.CacheDir), nil)
		} else {
			if len(args) < 1 {
				return cmd.Help()
			}
			app, err := openApp(cmd, args[0])
			if err != nil {
				return err
			}
			config = app.Config
			service = app.Secondary
			records = app.Session.Records()
			if len(args) > 1 {
				records = records[:0:0]
				for _, filename := range args[1:] {
					index, err := findImage(app, filename)
					if err != nil {
						return err
					}
					rec, _ := app.Session.Record(index)
					records = append(records, rec)
				}
			}
		}
		if !config.Secondary.Enabled {
			return ranking.ErrProviderDisabled
		}

		out := cmd.OutOrStdout()
		var mu sync.Mutex
		log.Printf("Fetching %d composites from %s with %d jobs", len(records), config.Secondary.Name, jobs)
		report, err := service.Prefetch(cmd.Context(), records, config.Secondary, int(jobs), func(rec domain.ImageRecord, res *ranking.Result) {
			mu.Lock()
			defer mu.Unlock()
			fmt.Fprintf(out, "✓ %s -> %s\n", rec.Filename, res.Path)
		})
		if report != nil {
			fmt.Fprintf(out, "fetched: %d, cached: %d, unavailable: %d, skipped: %d\n",
				report.Fetched, report.Cached, report.Unavailable, report.Skipped)
		}
		return err
	},
}

// readSources reads RA and Dec from the first two columns of a CSV file, or
// from the second and third when the first holds a source name. The header
// row is skipped and so are rows whose coordinates cannot be parsed.
func readSources(filename string, skipFirstColumn bool) ([]domain.ImageRecord, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	if _, err := r.Read(); err != nil {
		return nil, fmt.Errorf("while reading header of '%s': %w", filename, err)
	}
	raCol, decCol := 0, 1
	if skipFirstColumn {
		raCol, decCol = 1, 2
	}

	var ret []domain.ImageRecord
	for row := 1; ; row++ {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("while reading '%s': %w", filename, err)
		}
		if len(fields) <= decCol {
			log.Printf("fetch: %s row %d: expected at least %d columns", filename, row, decCol+1)
			continue
		}
		ra, raErr := strconv.ParseFloat(strings.TrimSpace(fields[raCol]), 64)
		dec, decErr := strconv.ParseFloat(strings.TrimSpace(fields[decCol]), 64)
		at := domain.Coordinates{RA: ra, Dec: dec}
		if raErr != nil || decErr != nil || !coords.Valid(at) {
			log.Printf("fetch: %s row %d: invalid coordinates %q, %q", filename, row, fields[raCol], fields[decCol])
			continue
		}
		name := fmt.Sprintf("source_%d", row)
		if skipFirstColumn && strings.TrimSpace(fields[0]) != "" {
			name = strings.TrimSpace(fields[0])
		}
		ret = append(ret, domain.ImageRecord{Filename: name, Coords: &at})
	}
	return ret, nil
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().UintP("jobs", "j", 4, "Amount of concurrent downloads")
	fetchCmd.Flags().String("csv", "", "CSV file of sources instead of an images folder")
	fetchCmd.Flags().Bool("skip-first-column", false, "The first CSV column is a source name")
}
