package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zenithphoto/photocat/internal/ingest"
	"github.com/zenithphoto/photocat/internal/util"
)

var scanCmd = &cobra.Command{
	Use:   "scan <folder>",
	Short: "Scan a folder and list import candidates",
	Long: `Scan a folder recursively and list what an import would pick up.

RAW and raster files sharing a filename stem in the same directory are
paired into a single candidate. Nothing is written to the catalog.`,
	Args: cobra.ExactArgs(1),
	RunE: runScanCmd,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScanCmd(cmd *cobra.Command, args []string) error {
	applyLogLevel()

	source := args[0]
	if _, err := os.Stat(source); os.IsNotExist(err) {
		return fmt.Errorf("source directory does not exist: %s", source)
	}

	var raws, jpegs, pairs int
	candidates, err := ingest.ScanFolder(source, func(c *ingest.Candidate) {
		switch c.Type {
		case ingest.RawOnly:
			raws++
		case ingest.JpegOnly:
			jpegs++
		case ingest.RawWithJpeg:
			pairs++
		}
		util.InfoLog("%-8s %s", c.Type, c.PrimaryPath())
	}, nil)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	util.InfoLog("")
	util.SuccessLog("Found %d candidates", len(candidates))
	util.InfoLog("  RAW only:   %d", raws)
	util.InfoLog("  JPEG/raster: %d", jpegs)
	util.InfoLog("  RAW+JPEG:   %d", pairs)
	return nil
}
