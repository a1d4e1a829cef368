package runs

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dyluth/wikisync/pkg/journal"
)

// FormatTable writes runs as a table with columns ID, KIND, MODE, STATUS,
// EDITS, REVIEW and AGE. Returns the number of runs written.
func FormatTable(w io.Writer, runs []*journal.Run, namespace string) int {
	if len(runs) == 0 {
		fmt.Fprintf(w, "No runs found for wiki '%s'\n", namespace)
		return 0
	}

	fmt.Fprintf(w, "Runs for wiki '%s':\n\n", namespace)
	fmt.Fprintf(w, "%-10s %-16s %-9s %-10s %-6s %-7s %s\n",
		"ID", "KIND", "MODE", "STATUS", "EDITS", "REVIEW", "AGE")
	fmt.Fprintf(w, "%-10s %-16s %-9s %-10s %-6s %-7s %s\n",
		"----------", "----------------", "---------", "----------", "------", "-------", "--------")

	for _, r := range runs {
		fmt.Fprintf(w, "%-10s %-16s %-9s %-10s %-6d %-7s %s\n",
			formatID(r.ID),
			formatKind(r.Kind),
			r.Mode,
			r.Status,
			r.Changed,
			formatReview(len(r.NeedsReview())),
			formatAge(r.CreatedAtMs, time.Now()),
		)
	}

	noun := "run"
	if len(runs) != 1 {
		noun = "runs"
	}
	fmt.Fprintf(w, "\n%d %s found\n", len(runs), noun)
	return len(runs)
}

// FormatJSONL writes each run as one JSON object per line.
func FormatJSONL(w io.Writer, runs []*journal.Run) error {
	for _, r := range runs {
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to marshal run to JSON: %w", err)
		}
		if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
			return fmt.Errorf("failed to write JSONL output: %w", err)
		}
	}
	return nil
}

// FormatSingleJSON writes one run as indented JSON.
func FormatSingleJSON(w io.Writer, r *journal.Run) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run to JSON: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}
	fmt.Fprintln(w)
	return nil
}

// formatID truncates the run ID to its first 8 characters.
func formatID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatKind(kind string) string {
	if len(kind) > 16 {
		return kind[:13] + "..."
	}
	return kind
}

func formatReview(n int) string {
	if n == 0 {
		return "-"
	}
	return fmt.Sprintf("%d", n)
}

// formatAge renders a Unix millisecond timestamp relative to now,
// like "2m ago".
func formatAge(timestampMs int64, now time.Time) string {
	if timestampMs == 0 {
		return "-"
	}

	diff := now.Sub(time.UnixMilli(timestampMs))
	switch {
	case diff < time.Minute:
		return fmt.Sprintf("%ds ago", int(diff.Seconds()))
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	}
}
