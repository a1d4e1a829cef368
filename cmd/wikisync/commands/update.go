package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/dyluth/wikisync/internal/diffview"
	"github.com/dyluth/wikisync/internal/markup"
	"github.com/dyluth/wikisync/internal/printer"
	"github.com/dyluth/wikisync/internal/reconcile"
)

const (
	kindItemsFull = "items-full"
	kindUpgrades  = "upgrades"
)

var (
	runStart    int
	runDryRun   bool
	runShowDiff bool
	runSubPages bool
)

var updateCmd = &cobra.Command{
	Use:   "update <kind>",
	Short: "Update the generated templates on every page of a kind",
	Long: `Update the auto-generated template region on every page of a kind.

Each page is fetched, its template region regenerated and the stale version
marker bumped. Changed pages are submitted together as one bulk edit. Pages
with hand-written content outside the template keep it and are flagged for
review; pages that cannot be read are skipped.

Special kinds:
  items-full - item pages with their stat templates, loot tables and sources
  upgrades   - all six upgrade kinds, one bulk edit each

Examples:
  # Preview monster changes with diffs of pages that need review
  wikisync update monsters --dry-run --show-diff

  # Resume an interrupted item run at entry 120, syncing sub-pages
  wikisync update items-full --start 120 --sub-pages`,
	Args: cobra.ExactArgs(1),
	RunE: runUpdate,
}

var versionsCmd = &cobra.Command{
	Use:   "versions <kind>",
	Short: "Bump stale version markers on pages that are otherwise current",
	Long: `Bump the version marker on every page of a kind whose text, apart from
the marker, is exactly the generated page. Pages with any other difference are
left alone.`,
	Args: cobra.ExactArgs(1),
	RunE: runVersions,
}

var createCmd = &cobra.Command{
	Use:   "create <kind>",
	Short: "Create the generated page for entities that have none",
	Long: `Create the generated page for every entity of a kind whose page does not
exist yet. Existing pages are never overwritten.`,
	Args: cobra.ExactArgs(1),
	RunE: runCreate,
}

func init() {
	updateCmd.Flags().IntVar(&runStart, "start", 0, "First entity index to process")
	updateCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Decide and report, but submit nothing")
	updateCmd.Flags().BoolVar(&runShowDiff, "show-diff", false, "Print diffs of pages flagged for review")
	updateCmd.Flags().BoolVar(&runSubPages, "sub-pages", false, "With items-full, also edit drifted loot table and source pages")

	versionsCmd.Flags().IntVar(&runStart, "start", 0, "First entity index to process")
	versionsCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Decide and report, but submit nothing")

	createCmd.Flags().IntVar(&runStart, "start", 0, "First entity index to process")
	createCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Decide and report, but submit nothing")

	rootCmd.AddCommand(updateCmd, versionsCmd, createCmd)
}

// signalContext is cancelled on Ctrl-C so a run stops before submitting.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runOptions() reconcile.Options {
	return reconcile.Options{Start: runStart, DryRun: runDryRun, SyncSubPages: runSubPages}
}

func runUpdate(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	s, closeSession, err := openSession(ctx, sessionNeeds{data: true, wiki: true, login: !runDryRun})
	defer closeSession()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	driver := s.driver()

	switch args[0] {
	case kindItemsFull:
		k, err := markup.ItemKind(s.renderer)
		if err != nil {
			return err
		}
		summary, err := driver.RunItems(ctx, k, runOptions())
		return finishRun(out, summary, err)

	case kindUpgrades:
		if runStart != 0 {
			return printer.Error("--start is not supported for upgrades", "Upgrades run six kinds in order.", []string{"Update one upgrade kind instead:\n  wikisync update axeUpgrades --start N"})
		}
		for _, name := range markup.UpgradeKinds {
			k, err := s.kind(name)
			if err != nil {
				return err
			}
			summary, err := driver.Run(ctx, k, runOptions())
			if err := finishRun(out, summary, err); err != nil {
				return err
			}
		}
		return nil

	default:
		k, err := s.kind(args[0])
		if err != nil {
			return err
		}
		summary, err := driver.Run(ctx, k, runOptions())
		return finishRun(out, summary, err)
	}
}

func runVersions(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	s, closeSession, err := openSession(ctx, sessionNeeds{data: true, wiki: true, login: !runDryRun})
	defer closeSession()
	if err != nil {
		return err
	}
	k, err := s.kind(args[0])
	if err != nil {
		return err
	}
	summary, err := s.driver().FixVersions(ctx, k, runOptions())
	return finishRun(cmd.OutOrStdout(), summary, err)
}

func runCreate(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	s, closeSession, err := openSession(ctx, sessionNeeds{data: true, wiki: true, login: !runDryRun})
	defer closeSession()
	if err != nil {
		return err
	}
	k, err := s.kind(args[0])
	if err != nil {
		return err
	}
	summary, err := s.driver().CreatePages(ctx, k, runOptions())
	return finishRun(cmd.OutOrStdout(), summary, err)
}

// finishRun reports a summary, even a partial one from an aborted run,
// and renders the run error.
func finishRun(w io.Writer, summary *reconcile.Summary, err error) error {
	if summary != nil {
		if rErr := reportSummary(w, summary, runShowDiff); rErr != nil {
			return rErr
		}
	}
	return runError(err)
}

var verdictOrder = []reconcile.Verdict{
	reconcile.NoChange,
	reconcile.VersionBumpOnly,
	reconcile.TemplateChangedMatchesDefault,
	reconcile.TemplateChangedManualDataPresent,
	reconcile.Created,
	reconcile.FetchFailed,
}

// reportSummary prints verdict counts, pages to review and the submit state.
func reportSummary(w io.Writer, s *reconcile.Summary, showDiff bool) error {
	labels := make([]string, 0, len(verdictOrder))
	counts := make(map[string]int, len(verdictOrder))
	for _, v := range verdictOrder {
		labels = append(labels, v.String())
		counts[v.String()] = s.Count(v)
	}

	printer.Step("%s (%s): %d pages checked\n", s.Kind, s.Mode, len(s.Outcomes))
	printer.Counts(labels, counts)

	for _, o := range s.Outcomes {
		if o.Verdict == reconcile.FetchFailed {
			printer.Warning("could not read %s: %s\n", o.Title, o.Reason)
		}
	}

	review := s.NeedsReview()
	if len(review) > 0 {
		printer.Warning("%d pages have manual content and need review\n", len(review))
		for _, o := range review {
			printer.Printf("  - %s\n", o.Title)
			if !showDiff {
				continue
			}
			if err := diffview.Write(w, o.Title, o.Before, proposedText(o)); err != nil {
				return err
			}
		}
	}

	switch {
	case s.Changed == 0:
		printer.Success("0 pages changed, nothing to update\n")
	case s.Submitted:
		printer.Success("%d pages changed and submitted\n", s.Changed)
	case s.DryRun:
		printer.Info("%d pages changed and ready to update (dry run, nothing submitted)\n", s.Changed)
	default:
		printer.Warning("%d pages changed but not submitted\n", s.Changed)
	}
	if s.Changed > 0 {
		printer.Info("Run %s\n", s.RunID)
	}
	return nil
}

func proposedText(o reconcile.Outcome) string {
	for _, e := range o.Edits {
		if e.Name == o.Title && e.Section == nil {
			return e.Content
		}
	}
	return fmt.Sprintf("(no edit for %s)", o.Title)
}
