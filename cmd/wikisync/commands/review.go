package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dyluth/wikisync/internal/diffview"
	"github.com/dyluth/wikisync/internal/printer"
	"github.com/dyluth/wikisync/internal/review"
)

var reviewCmd = &cobra.Command{
	Use:   "review <category>",
	Short: "Walk a category and bump version markers page by page",
	Long: `Walk every page of a wiki category and decide, page by page, whether to
bump its version marker. Use this where automatic reconciliation cannot decide
safely, for example during a large version migration.

Keys:
  y - queue the version bump and move on
  n - skip the page
  d - show the diff of the bump
  q - quit without submitting anything

Accepted pages are submitted together as one bulk edit after the last page.`,
	Args: cobra.ExactArgs(1),
	RunE: runReview,
}

func init() {
	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	s, closeSession, err := openSession(ctx, sessionNeeds{wiki: true, login: true})
	defer closeSession()
	if err != nil {
		return err
	}

	wf := review.New(s.wiki, s.version, s.logger)
	if err := wf.Start(ctx, args[0]); err != nil {
		return runError(err)
	}
	return driveReview(ctx, wf, cmd.InOrStdin(), cmd.OutOrStdout())
}

// driveReview reads one decision per line from in until the workflow is
// done or the operator quits.
func driveReview(ctx context.Context, wf *review.Workflow, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for !wf.Done() {
		i, n := wf.Position()
		fmt.Fprintf(out, "[%d/%d] %s (y/n/d/q): ", i+1, n, wf.Current())
		if !scanner.Scan() {
			fmt.Fprintln(out)
			printer.Warning("input closed, review abandoned with %d queued updates discarded\n", len(wf.Updates()))
			return scanner.Err()
		}

		var err error
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "y", "yes":
			err = wf.AcceptVersionBump(ctx)
		case "n", "no":
			err = wf.Advance(ctx)
		case "d", "diff":
			err = diffview.Write(out, wf.Current(), wf.Content(), wf.Proposed())
		case "q", "quit":
			printer.Warning("review abandoned, %d queued updates discarded\n", len(wf.Updates()))
			return nil
		default:
			fmt.Fprintln(out, "answer y, n, d or q")
		}
		if err != nil {
			return runError(err)
		}
	}

	if len(wf.Updates()) == 0 {
		printer.Success("review finished, nothing to update\n")
		return nil
	}
	printer.Success("%d reviewed pages submitted\n", len(wf.Updates()))
	return nil
}
