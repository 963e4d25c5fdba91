package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zenithphoto/photocat/internal/ingest"
	"github.com/zenithphoto/photocat/internal/report"
	"github.com/zenithphoto/photocat/internal/service"
	"github.com/zenithphoto/photocat/internal/util"
)

var importCmd = &cobra.Command{
	Use:   "import <folder>",
	Short: "Import photos from a folder into the catalog",
	Long: `Import photos from a folder into the catalog.

Files are scanned, paired (RAW + camera JPEG), deduplicated by content
hash, placed according to --method, catalogued with their EXIF metadata,
and rendered into thumbnails and a screen preview. Ctrl-C cancels the
batch cleanly; everything already imported stays imported.

Methods:
  add   catalog files where they are
  copy  copy files into --dest, catalog the copies
  move  copy into --dest, catalog, then delete the sources`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringP("method", "m", "add", "import method: add, copy or move")
	importCmd.Flags().StringP("dest", "d", "", "destination directory for copy/move")
	importCmd.Flags().StringP("keywords", "k", "", "comma-separated keywords applied to every import")
	importCmd.Flags().String("duplicates", "skip", "duplicate policy: skip or import")
	importCmd.Flags().String("events-dir", "artifacts", "directory for the JSONL event log")

	viper.BindPFlag("method", importCmd.Flags().Lookup("method"))
	viper.BindPFlag("dest", importCmd.Flags().Lookup("dest"))
	viper.BindPFlag("keywords", importCmd.Flags().Lookup("keywords"))
	viper.BindPFlag("duplicates", importCmd.Flags().Lookup("duplicates"))
	viper.BindPFlag("events-dir", importCmd.Flags().Lookup("events-dir"))
}

func runImport(cmd *cobra.Command, args []string) error {
	applyLogLevel()

	source := args[0]
	if _, err := os.Stat(source); os.IsNotExist(err) {
		return fmt.Errorf("source directory does not exist: %s", source)
	}

	method, err := ingest.ParseMethod(viper.GetString("method"))
	if err != nil {
		return err
	}
	policy, err := ingest.ParseDuplicatePolicy(viper.GetString("duplicates"))
	if err != nil {
		return err
	}
	keywords := ingest.ParseKeywords(viper.GetString("keywords"))

	db, err := openCatalog()
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer db.Close()

	logger := importEventLogger()
	defer logger.Close()

	// Ctrl-C flips the cancel flag; the pipeline finishes the current
	// candidate and stops.
	cancel := ingest.NewCancelFlag()
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		<-sigs
		util.WarnLog("cancellation requested, finishing current file")
		cancel.Cancel()
	}()

	util.InfoLog("Scanning %s", source)
	candidates, err := scanSource(source, cancel)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	util.InfoLog("Found %d candidates", len(candidates))

	svc := service.New(db)
	importer := ingest.New(svc, logger)

	bar := importProgressBar(len(candidates))
	callbacks := &ingest.Callbacks{
		OnProgress: func(p ingest.Progress) {
			if bar == nil {
				return
			}
			bar.Describe(string(p.Stage))
			bar.Set64(int64(p.Completed))
		},
		OnError: func(path string, err error) {
			util.DebugLog("%s: %v", path, err)
		},
	}

	start := time.Now()
	rep, err := importer.Import(candidates, ingest.Options{
		Method:      method,
		Destination: viper.GetString("dest"),
		Keywords:    keywords,
		Duplicates:  policy,
	}, callbacks, cancel)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	if bar != nil {
		bar.Finish()
	}

	if rep.Imported > 0 {
		util.InfoLog("Rebuilding search index")
		if err := svc.RebuildSearchIndex(); err != nil {
			util.WarnLog("search index rebuild failed: %v", err)
		}
	}

	summary := &report.Summary{
		BatchID:         logger.BatchID(),
		GeneratedAt:     time.Now(),
		Duration:        time.Since(start),
		CandidatesFound: len(candidates),
		Imported:        rep.Imported,
		Duplicates:      rep.Duplicates,
		Failed:          rep.Failed,
		Canceled:        rep.Canceled,
		BytesImported:   rep.BytesImported,
		SourcePath:      source,
		DestinationPath: viper.GetString("dest"),
		Method:          method.String(),
		CatalogPath:     db.Path(),
		EventLogPath:    logger.Path(),
	}
	fmt.Print(summary.Render())

	if len(rep.Failed) > 0 {
		return fmt.Errorf("%d files failed to import", len(rep.Failed))
	}
	return nil
}

// scanSource walks the import source. Cancellation during the scan is not
// an error: the partial candidate list flows into a canceled batch report.
func scanSource(source string, cancel *ingest.CancelFlag) ([]*ingest.Candidate, error) {
	candidates, err := ingest.ScanFolder(source, nil, cancel)
	if err != nil && !errors.Is(err, util.ErrCanceled) {
		return nil, err
	}
	return candidates, nil
}

// importEventLogger opens the batch JSONL log, falling back to a null
// logger when the directory is unusable.
func importEventLogger() *report.EventLogger {
	level := report.LevelInfo
	if viper.GetBool("quiet") {
		level = report.LevelWarning
	} else if viper.GetBool("verbose") {
		level = report.LevelDebug
	}

	logger, err := report.NewEventLogger(viper.GetString("events-dir"), level)
	if err != nil {
		util.WarnLog("Failed to create event logger: %v", err)
		return report.NullLogger()
	}
	if logger.Path() != "" {
		util.InfoLog("Event log: %s", logger.Path())
	}
	return logger
}

// importProgressBar builds the batch progress bar, or nil when output is
// not a terminal.
func importProgressBar(total int) *progressbar.ProgressBar {
	if !util.IsTerminal(os.Stdout.Fd()) || util.IsQuiet() {
		return nil
	}
	width := util.GetTerminalWidth() / 3
	if width > 40 {
		width = 40
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription("importing"),
		progressbar.OptionSetWidth(width),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files"),
		progressbar.OptionThrottle(200*time.Millisecond),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}
