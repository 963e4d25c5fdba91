package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zenithphoto/photocat/internal/ingest"
	"github.com/zenithphoto/photocat/internal/service"
	"github.com/zenithphoto/photocat/internal/util"
	"github.com/zenithphoto/photocat/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch <folder>",
	Short: "Watch a folder and import new files automatically",
	Long: `Watch a folder recursively and import new files as they appear.

Filesystem events are debounced so a camera card copy triggers one
import per directory, not one per file. Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().Duration("debounce", 2*time.Second, "settle time before a changed directory is imported")
	watchCmd.Flags().StringP("keywords", "k", "", "comma-separated keywords applied to every import")

	viper.BindPFlag("debounce", watchCmd.Flags().Lookup("debounce"))
	viper.BindPFlag("watch-keywords", watchCmd.Flags().Lookup("keywords"))
}

func runWatch(cmd *cobra.Command, args []string) error {
	applyLogLevel()

	root := args[0]
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return fmt.Errorf("watch directory does not exist: %s", root)
	}

	db, err := openCatalog()
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer db.Close()

	logger := importEventLogger()
	defer logger.Close()

	svc := service.New(db)
	importer := ingest.New(svc, logger)
	keywords := ingest.ParseKeywords(viper.GetString("watch-keywords"))

	cancel := ingest.NewCancelFlag()
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		<-sigs
		util.WarnLog("stopping watcher")
		cancel.Cancel()
	}()

	importDir := func(dir string) error {
		candidates, err := ingest.ScanFolder(dir, nil, cancel)
		if err != nil {
			return err
		}
		rep, err := importer.Import(candidates, ingest.Options{
			Method:   ingest.MethodAdd,
			Keywords: keywords,
		}, nil, cancel)
		if err != nil {
			return err
		}
		if rep.Imported > 0 {
			util.SuccessLog("Imported %d from %s", rep.Imported, dir)
			if err := svc.RebuildSearchIndex(); err != nil {
				util.WarnLog("search index rebuild failed: %v", err)
			}
		}
		return nil
	}

	w, err := watch.New(root, viper.GetDuration("debounce"), importDir, cancel)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", root, err)
	}

	util.InfoLog("Watching %s (Ctrl-C to stop)", root)
	if err := w.Run(); err != nil && !errors.Is(err, util.ErrCanceled) {
		return fmt.Errorf("watcher failed: %w", err)
	}
	return nil
}
