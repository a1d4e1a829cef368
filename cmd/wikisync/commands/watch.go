package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dyluth/wikisync/internal/filter"
	"github.com/dyluth/wikisync/internal/printer"
	"github.com/dyluth/wikisync/internal/watch"
)

var (
	watchOutputFormat string
	watchKind         string
	watchNeedsReview  bool
	watchRun          string
	watchTimeout      time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Monitor runs as they decide pages",
	Long: `Monitor run activity in real time.

Streams every page decision and every run status change published to the
run journal, so a long run can be followed from another terminal.

With --run, waits instead until that run leaves the pending state (someone
submitted or discarded it, or its submit failed) and prints the result.

Output Formats:
  default - Human-readable lines with timestamps
  json    - Line-delimited JSON for programmatic processing

Examples:
  # Follow everything
  wikisync watch

  # Only pages of upgrade kinds that need review
  wikisync watch --kind='*Upgrades' --needs-review

  # Export events as JSON
  wikisync watch --output=json > events.jsonl`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchOutputFormat, "output", "o", "default", "Output format (default or json)")
	watchCmd.Flags().StringVar(&watchKind, "kind", "", "Filter by page kind (glob pattern)")
	watchCmd.Flags().BoolVar(&watchNeedsReview, "needs-review", false, "Only pages flagged for review")
	watchCmd.Flags().StringVar(&watchRun, "run", "", "Wait for this run to be submitted, discarded or fail")
	watchCmd.Flags().DurationVar(&watchTimeout, "timeout", 10*time.Minute, "How long --run waits")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	var outputFormat watch.OutputFormat
	switch watchOutputFormat {
	case "default":
		outputFormat = watch.OutputFormatDefault
	case "json":
		outputFormat = watch.OutputFormatJSON
	default:
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", watchOutputFormat),
			[]string{"Valid formats: default, json"},
		)
	}

	ctx, cancel := signalContext()
	defer cancel()

	s, closeSession, err := openSession(ctx, sessionNeeds{journal: true})
	defer closeSession()
	if err != nil {
		return err
	}

	if watchRun != "" {
		runID, err := resolveRun(ctx, s, watchRun)
		if err != nil {
			return err
		}
		run, err := watch.PollForRun(ctx, s.journal, runID, watchTimeout)
		if err != nil {
			return err
		}
		if run.Error != "" {
			printer.Warning("run %s %s: %s\n", run.ID, run.Status, run.Error)
			return nil
		}
		printer.Success("run %s %s\n", run.ID, run.Status)
		return nil
	}

	filters := &filter.Criteria{KindGlob: watchKind, NeedsReview: watchNeedsReview}
	return watch.StreamActivity(ctx, s.journal, outputFormat, filters, cmd.OutOrStdout())
}
