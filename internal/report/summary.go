package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Summary aggregates one import batch for human-readable output.
type Summary struct {
	BatchID     string
	GeneratedAt time.Time
	Duration    time.Duration

	CandidatesFound int
	Imported        int
	Duplicates      []string
	Failed          []Failure
	Canceled        bool

	BytesImported int64

	SourcePath      string
	DestinationPath string
	Method          string
	CatalogPath     string
	EventLogPath    string
}

// Failure pairs an input path with why it could not be imported.
type Failure struct {
	Path   string
	Reason string
}

// Render formats the summary as a terminal report.
func (s *Summary) Render() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString("Import Summary\n")
	b.WriteString("==============\n")
	fmt.Fprintf(&b, "Source:      %s\n", s.SourcePath)
	if s.DestinationPath != "" {
		fmt.Fprintf(&b, "Destination: %s\n", s.DestinationPath)
	}
	fmt.Fprintf(&b, "Method:      %s\n", s.Method)
	fmt.Fprintf(&b, "Catalog:     %s\n", s.CatalogPath)
	b.WriteString("\n")

	fmt.Fprintf(&b, "Candidates:  %d\n", s.CandidatesFound)
	fmt.Fprintf(&b, "Imported:    %d (%s)\n", s.Imported, humanize.Bytes(uint64(s.BytesImported)))
	fmt.Fprintf(&b, "Duplicates:  %d\n", len(s.Duplicates))
	fmt.Fprintf(&b, "Failed:      %d\n", len(s.Failed))
	fmt.Fprintf(&b, "Duration:    %s\n", s.Duration.Round(time.Millisecond))

	if s.Canceled {
		b.WriteString("\nBatch was canceled before completion.\n")
	}

	if len(s.Failed) > 0 {
		b.WriteString("\nFailures:\n")
		for _, f := range topFailures(s.Failed, 10) {
			fmt.Fprintf(&b, "  %s: %s\n", f.Path, f.Reason)
		}
		if len(s.Failed) > 10 {
			fmt.Fprintf(&b, "  ... and %d more\n", len(s.Failed)-10)
		}
	}

	if s.EventLogPath != "" {
		fmt.Fprintf(&b, "\nEvent log: %s\n", s.EventLogPath)
	}

	return b.String()
}

// topFailures returns up to n failures in stable path order.
func topFailures(failed []Failure, n int) []Failure {
	sorted := make([]Failure, len(failed))
	copy(sorted, failed)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Path < sorted[j].Path
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
