/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lewtec/astrorank/ranking"
)

const defaultConfigFile = "astrorank.yaml"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "astrorank",
	Short: "Rank astronomical images and fetch survey composites",
	Long: strings.TrimSpace(`
Walk a folder of sky images, give each one a rank from a configurable scale and
keep the decisions in an append-only rankings file that survives restarts.
Survey composites for the same coordinates can be downloaded and cached.
    `),
	SilenceUsage: true,
}

func main() {
	err := rootCmd.Execute()
	if err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", defaultConfigFile, "Config file (yaml, json or toml)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Rankings file, overrides output.rankings")
}

// loadConfig reads the config flag. The default file may be missing, in which
// case the built-in defaults apply; an explicit one may not.
func loadConfig(cmd *cobra.Command) (*ranking.Config, error) {
	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(configFile); errors.Is(err, os.ErrNotExist) && !cmd.Flags().Changed("config") {
		log.Printf("Config file %s not found, using defaults", configFile)
		return ranking.LoadConfig("")
	}
	config, err := ranking.LoadConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return config, nil
}

// openApp loads the configuration and opens a session over imagesDir.
func openApp(cmd *cobra.Command, imagesDir string) (*ranking.App, error) {
	config, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}
	app, err := ranking.NewApp(config, imagesDir, ranking.AppOptions{Output: output})
	if err != nil {
		return nil, err
	}
	log.Printf("Rankings: %s", app.RankLog.Path())
	return app, nil
}

// findImage resolves a filename argument to a session index.
func findImage(app *ranking.App, filename string) (int, error) {
	index, ok := app.Session.Find(filename)
	if !ok {
		return 0, fmt.Errorf("image %q is not in %s", filename, app.ImagesDir)
	}
	return index, nil
}
