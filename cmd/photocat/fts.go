package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zenithphoto/photocat/internal/util"
)

var ftsCmd = &cobra.Command{
	Use:   "fts",
	Short: "Manage the full-text search index",
}

var ftsRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the search index from current catalog rows",
	RunE:  runFTSRebuild,
}

func init() {
	rootCmd.AddCommand(ftsCmd)
	ftsCmd.AddCommand(ftsRebuildCmd)
}

func runFTSRebuild(cmd *cobra.Command, args []string) error {
	applyLogLevel()

	db, err := openCatalog()
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer db.Close()

	start := time.Now()
	if err := db.RebuildFTS(); err != nil {
		return fmt.Errorf("rebuild failed: %w", err)
	}
	util.SuccessLog("Search index rebuilt in %v", time.Since(start).Round(time.Millisecond))
	return nil
}
