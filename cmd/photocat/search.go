package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zenithphoto/photocat/internal/catalog"
	"github.com/zenithphoto/photocat/internal/util"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over filenames, folders and keywords",
	Long: `Full-text search the catalog.

Every term matches as a prefix, so "icel" finds "iceland". Results come
back in relevance order. The index reflects the last rebuild; run
"photocat fts rebuild" after changing keywords outside an import.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().IntP("limit", "n", 50, "maximum number of results")
	viper.BindPFlag("search-limit", searchCmd.Flags().Lookup("limit"))
}

func runSearch(cmd *cobra.Command, args []string) error {
	applyLogLevel()

	query := strings.Join(args, " ")
	limit := viper.GetInt("search-limit")

	db, err := openCatalog()
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer db.Close()

	images, err := catalog.SearchImages(db.Handle(), query, limit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	for _, img := range images {
		rating := "-"
		if img.Rating != nil {
			rating = strings.Repeat("*", int(*img.Rating))
		}
		fmt.Printf("%6d  %-5s  %s\n", img.ID, rating, img.OriginalPath)
	}
	if len(images) == 0 {
		util.InfoLog("No matches for %q", query)
		return nil
	}
	util.InfoLog("%d matches", len(images))
	return nil
}
