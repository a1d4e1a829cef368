package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dyluth/wikisync/internal/filter"
	"github.com/dyluth/wikisync/internal/printer"
	"github.com/dyluth/wikisync/internal/resolver"
	"github.com/dyluth/wikisync/internal/runs"
	"github.com/dyluth/wikisync/internal/timespec"
	"github.com/dyluth/wikisync/pkg/journal"
)

var (
	runsOutputFormat string
	runsSince        string
	runsUntil        string
	runsKind         string
	runsStatus       string
	runsNeedsReview  bool
	runsDiff         bool
)

var runsCmd = &cobra.Command{
	Use:   "runs [RUN_ID]",
	Short: "Inspect journaled runs with filtering",
	Long: `Inspect runs recorded in the run journal.

List Mode (no RUN_ID):
  Displays runs matching filters as a table or JSONL stream.

Get Mode (with RUN_ID):
  Displays the complete run as pretty-printed JSON, or with --diff the
  live-versus-proposed diff of every page flagged for review.
  Supports short IDs (e.g., "3f2a9c" instead of the full UUID).

Filters (list mode only):
  --since, --until - creation time (duration like 2h or 3d, or RFC3339)
  --kind           - page kind (glob pattern: "*Upgrades")
  --status         - pending, submitted, discarded or failed
  --needs-review   - only runs with pages flagged for review

Examples:
  # Pending runs of the last day
  wikisync runs --status=pending --since=1d

  # Review diffs of one run
  wikisync runs 3f2a9c --diff`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRuns,
}

var runsSubmitCmd = &cobra.Command{
	Use:   "submit RUN_ID",
	Short: "Submit the edits of a pending or failed run",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsSubmit,
}

var runsDiscardCmd = &cobra.Command{
	Use:   "discard RUN_ID",
	Short: "Discard a pending or failed run without submitting it",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsDiscard,
}

func init() {
	runsCmd.Flags().StringVarP(&runsOutputFormat, "output", "o", "default", "Output format: default or jsonl (ignored in get mode)")
	runsCmd.Flags().StringVar(&runsSince, "since", "", "Show runs after time (duration or RFC3339)")
	runsCmd.Flags().StringVar(&runsUntil, "until", "", "Show runs before time (duration or RFC3339)")
	runsCmd.Flags().StringVar(&runsKind, "kind", "", "Filter by page kind (glob pattern)")
	runsCmd.Flags().StringVar(&runsStatus, "status", "", "Filter by status")
	runsCmd.Flags().BoolVar(&runsNeedsReview, "needs-review", false, "Only runs with pages flagged for review")
	runsCmd.Flags().BoolVar(&runsDiff, "diff", false, "In get mode, show diffs of pages flagged for review")

	runsCmd.AddCommand(runsSubmitCmd, runsDiscardCmd)
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()
	isGetMode := len(args) > 0

	var format runs.OutputFormat
	var filters *filter.Criteria
	if !isGetMode {
		var err error
		format, err = runs.ParseOutputFormat(runsOutputFormat)
		if err != nil {
			return printer.Error("invalid output format", err.Error(), []string{"Valid formats: default, jsonl"})
		}
		filters, err = runFilters()
		if err != nil {
			return err
		}
	}

	s, closeSession, err := openSession(ctx, sessionNeeds{journal: true})
	defer closeSession()
	if err != nil {
		return err
	}

	if !isGetMode {
		return runs.ListRuns(ctx, s.journal, format, filters, cmd.OutOrStdout())
	}

	runID, err := resolveRun(ctx, s, args[0])
	if err != nil {
		return err
	}
	if err := runs.GetRun(ctx, s.journal, runID, runsDiff, cmd.OutOrStdout()); err != nil {
		if runs.IsNotFound(err) {
			return printer.Error(err.Error(), "The run is indexed but its record is gone.", []string{"List runs:\n  wikisync runs"})
		}
		return err
	}
	return nil
}

func runFilters() (*filter.Criteria, error) {
	since, until, err := timespec.ParseRange(runsSince, runsUntil)
	if err != nil {
		return nil, printer.Error("invalid time filter", err.Error(), []string{
			"Use a duration (2h, 30m, 3d) or an RFC3339 timestamp",
		})
	}
	status := journal.RunStatus(runsStatus)
	if status != "" {
		if err := status.Validate(); err != nil {
			return nil, printer.Error("invalid status filter", err.Error(), []string{
				"Valid statuses: pending, submitted, discarded, failed",
			})
		}
	}
	return &filter.Criteria{
		SinceTimestampMs: since,
		UntilTimestampMs: until,
		KindGlob:         runsKind,
		Status:           status,
		NeedsReview:      runsNeedsReview,
	}, nil
}

// resolveRun turns a short or full run ID into a full one.
func resolveRun(ctx context.Context, s *session, shortID string) (string, error) {
	runID, err := resolver.ResolveRunID(ctx, s.journal, shortID)
	if err == nil {
		return runID, nil
	}
	if resolver.IsNotFoundError(err) {
		return "", printer.Error(
			fmt.Sprintf("run with ID '%s' not found", shortID),
			"No journaled run matches this ID.",
			[]string{"List all runs:\n  wikisync runs"},
		)
	}
	if resolver.IsAmbiguousError(err) {
		amb := err.(*resolver.AmbiguousError)
		return "", printer.Error("ambiguous run ID", resolver.FormatAmbiguousError(amb), nil)
	}
	return "", err
}

func runRunsSubmit(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	s, closeSession, err := openSession(ctx, sessionNeeds{wiki: true, login: true, journal: true})
	defer closeSession()
	if err != nil {
		return err
	}
	runID, err := resolveRun(ctx, s, args[0])
	if err != nil {
		return err
	}

	run, err := runs.Submit(ctx, s.journal, s.wiki, runID, s.logger)
	if err != nil {
		return runError(err)
	}
	printer.Success("run %s submitted: %d pages edited\n", run.ID, run.Changed)
	return nil
}

func runRunsDiscard(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	s, closeSession, err := openSession(ctx, sessionNeeds{journal: true})
	defer closeSession()
	if err != nil {
		return err
	}
	runID, err := resolveRun(ctx, s, args[0])
	if err != nil {
		return err
	}
	if err := runs.Discard(ctx, s.journal, runID); err != nil {
		return err
	}
	printer.Success("run %s discarded\n", runID)
	return nil
}
