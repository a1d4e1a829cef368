package runs

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/dyluth/wikisync/internal/filter"
	"github.com/dyluth/wikisync/pkg/journal"
)

// OutputFormat specifies how to format the run list output.
type OutputFormat string

const (
	// OutputFormatDefault uses a table with one line per run
	OutputFormatDefault OutputFormat = "default"

	// OutputFormatJSONL outputs complete runs as line-delimited JSON
	OutputFormatJSONL OutputFormat = "jsonl"
)

// ParseOutputFormat validates an --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputFormatDefault, OutputFormatJSONL:
		return OutputFormat(s), nil
	default:
		return "", fmt.Errorf("unknown output format: %s (valid: default, jsonl)", s)
	}
}

// ListRuns writes every journaled run matching filters to w.
// Runs are read through the journal index, oldest first.
func ListRuns(ctx context.Context, client *journal.Client, format OutputFormat, filters *filter.Criteria, w io.Writer) error {
	all, err := client.ListRuns(ctx)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	var runs []*journal.Run
	for _, r := range all {
		if filters != nil && !filters.Matches(r) {
			continue
		}
		runs = append(runs, r)
	}

	// The index is ordered by creation time already; keep equal timestamps stable.
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].CreatedAtMs < runs[j].CreatedAtMs
	})

	switch format {
	case OutputFormatDefault:
		FormatTable(w, runs, client.Namespace())
	case OutputFormatJSONL:
		if err := FormatJSONL(w, runs); err != nil {
			return fmt.Errorf("failed to format JSONL output: %w", err)
		}
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
	return nil
}
