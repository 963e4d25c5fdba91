package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/zenithphoto/photocat/internal/catalog"
	"github.com/zenithphoto/photocat/internal/service"
	"github.com/zenithphoto/photocat/internal/util"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show catalog statistics and health",
	Long: `Show catalog statistics: row counts, schema version, SQLite version
and an integrity check result.`,
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	applyLogLevel()

	db, err := openCatalog()
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer db.Close()

	meta, err := catalog.GetMetadata(db.Handle())
	if err != nil {
		return err
	}

	svc := service.New(db)
	counts, err := svc.CatalogCounts()
	if err != nil {
		return err
	}

	fmt.Printf("Catalog:        %s\n", db.Path())
	fmt.Printf("Schema version: %d (target %d)\n", meta.SchemaVersion, catalog.TargetSchemaVersion)
	fmt.Printf("SQLite version: %s\n", catalog.SQLiteVersion())
	fmt.Printf("Created:        %s\n", humanize.Time(meta.CreatedAt))
	if meta.LastOpened != nil {
		fmt.Printf("Last opened:    %s\n", humanize.Time(*meta.LastOpened))
	}
	fmt.Println()
	fmt.Printf("Images:         %d (%s)\n", counts.Images, humanize.Bytes(uint64(counts.TotalBytes)))
	fmt.Printf("Folders:        %d\n", counts.Folders)
	fmt.Printf("Keywords:       %d\n", counts.Keywords)
	fmt.Printf("Collections:    %d\n", counts.Collections)

	if last, err := catalog.LastImportTimestamp(db.Handle()); err == nil && last != nil {
		fmt.Printf("Last import:    %s\n", humanize.Time(*last))
	}

	cameras, err := catalog.CountByCamera(db.Handle())
	if err != nil {
		return err
	}
	if len(cameras) > 0 {
		fmt.Println()
		fmt.Println("Cameras:")
		for _, c := range cameras {
			name := "unknown"
			if c.Make != nil || c.Model != nil {
				name = strings.TrimSpace(strDeref(c.Make) + " " + strDeref(c.Model))
			}
			fmt.Printf("  %6d  %s\n", c.Count, name)
		}
	}

	if err := db.CheckIntegrity(); err != nil {
		util.ErrorLog("Integrity check failed: %v", err)
		return err
	}
	util.SuccessLog("Integrity check passed")
	return nil
}
