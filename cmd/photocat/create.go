package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zenithphoto/photocat/internal/util"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new catalog",
	Long: `Create a new catalog database at the --catalog path.

Opening an existing catalog upgrades its schema in place, so create is
only needed for a brand-new library. It refuses to touch a file that
already exists.`,
	RunE: runCreate,
}

func init() {
	rootCmd.AddCommand(createCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	applyLogLevel()

	path := GetConfigString("catalog", "photocat.db")
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("catalog already exists: %s", path)
	}

	db, err := openCatalog()
	if err != nil {
		return fmt.Errorf("failed to create catalog: %w", err)
	}
	defer db.Close()

	version, err := db.SchemaVersion()
	if err != nil {
		return err
	}

	util.SuccessLog("Created catalog %s (schema version %d)", path, version)
	util.InfoLog("Next step: photocat import <folder> --method copy --dest <library>")
	return nil
}
