package runs

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/dyluth/wikisync/internal/diffview"
	"github.com/dyluth/wikisync/pkg/journal"
)

// GetRun retrieves a single run by ID and writes it as indented JSON.
// With showDiff set it writes the diff of every page flagged for review
// instead.
func GetRun(ctx context.Context, client *journal.Client, runID string, showDiff bool, w io.Writer) error {
	run, err := loadRun(ctx, client, runID)
	if err != nil {
		return err
	}

	if showDiff {
		return WriteReviewDiffs(w, run)
	}
	if err := FormatSingleJSON(w, run); err != nil {
		return fmt.Errorf("failed to format run: %w", err)
	}
	return nil
}

// WriteReviewDiffs writes the live-versus-proposed diff of every page in
// the run that needs a human review.
func WriteReviewDiffs(w io.Writer, run *journal.Run) error {
	review := run.NeedsReview()
	if len(review) == 0 {
		_, err := fmt.Fprintf(w, "Run %s has no pages flagged for review\n", formatID(run.ID))
		return err
	}

	for _, o := range review {
		proposed, ok := proposedText(run, o.Title)
		if !ok {
			fmt.Fprintf(w, "%s: no full-page edit recorded\n", o.Title)
			continue
		}
		if err := diffview.Write(w, o.Title, o.Before, proposed); err != nil {
			return fmt.Errorf("failed to write diff for %s: %w", o.Title, err)
		}
	}
	return nil
}

// proposedText finds the full-page edit for title.
func proposedText(run *journal.Run, title string) (string, bool) {
	for _, e := range run.Edits {
		if e.Name == title && e.Section == nil {
			return e.Content, true
		}
	}
	return "", false
}

func loadRun(ctx context.Context, client *journal.Client, runID string) (*journal.Run, error) {
	if _, err := uuid.Parse(runID); err != nil {
		return nil, fmt.Errorf("invalid run ID format: must be a valid UUID")
	}

	run, err := client.GetRun(ctx, runID)
	if err != nil {
		if journal.IsNotFound(err) {
			return nil, &RunNotFoundError{RunID: runID}
		}
		return nil, fmt.Errorf("failed to fetch run: %w", err)
	}
	return run, nil
}

// RunNotFoundError reports a run ID with no journal record.
type RunNotFoundError struct {
	RunID string
}

func (e *RunNotFoundError) Error() string {
	return fmt.Sprintf("run with ID '%s' not found", e.RunID)
}

// IsNotFound returns true if the error is a RunNotFoundError.
func IsNotFound(err error) bool {
	_, ok := err.(*RunNotFoundError)
	return ok
}
