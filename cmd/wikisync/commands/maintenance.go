package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dyluth/wikisync/internal/gamedata"
	"github.com/dyluth/wikisync/internal/maintenance"
	"github.com/dyluth/wikisync/internal/printer"
)

var (
	rollbackComment string
	rollbackDepth   int

	sectionsKind  string
	sectionsStart int
	sectionsEnd   int

	imagesStart       int
	imagesConcurrency int

	maintenanceDryRun bool
)

var rollbackCmd = &cobra.Command{
	Use:   "rollback <title>...",
	Short: "Undo the latest edits with a given summary",
	Long: `Undo, on each page, the newest edits whose summary matches --comment,
returning the page to the last revision before them. Only the newest --depth
revisions are inspected; pages with nothing earlier to return to are left
alone.

Example:
  wikisync rollback Chicken Cow --comment "Automatic update of monsters page."`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRollback,
}

var sectionsCmd = &cobra.Command{
	Use:   "sections",
	Short: "Section maintenance",
}

var sectionsRemoveCmd = &cobra.Command{
	Use:   "remove <heading>",
	Short: "Blank a section on every page of a kind",
	Long: `Blank the first section titled <heading> on every page of a kind, in
one bulk section edit. --start and --end select a range of entries; --end 0
means the last entry.`,
	Args: cobra.ExactArgs(1),
	RunE: runSectionsRemove,
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Item source template maintenance",
}

var sourcesRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Rewrite the source template of fishing-special and junk items",
	Args:  cobra.NoArgs,
	RunE:  runSourcesRefresh,
}

var imagesCmd = &cobra.Command{
	Use:   "images <kind>",
	Short: "Upload the images of a kind from the game assets",
	Long: `Download the image of every entity of a kind from uploads.base_url and
upload it to the wiki. Uploads run in parallel; a failed image is reported
and the rest continue.`,
	Args: cobra.ExactArgs(1),
	RunE: runImages,
}

func init() {
	rollbackCmd.Flags().StringVar(&rollbackComment, "comment", "", "Edit summary of the revisions to undo (required)")
	rollbackCmd.Flags().IntVar(&rollbackDepth, "depth", maintenance.DefaultDepth, "Number of newest revisions to inspect")
	rollbackCmd.Flags().BoolVar(&maintenanceDryRun, "dry-run", false, "Report, but change nothing")
	_ = rollbackCmd.MarkFlagRequired("comment")

	sectionsRemoveCmd.Flags().StringVar(&sectionsKind, "kind", gamedata.KindItems, "Page kind whose pages are edited")
	sectionsRemoveCmd.Flags().IntVar(&sectionsStart, "start", 0, "First entry")
	sectionsRemoveCmd.Flags().IntVar(&sectionsEnd, "end", 0, "Entry after the last one (0 = all)")
	sectionsRemoveCmd.Flags().BoolVar(&maintenanceDryRun, "dry-run", false, "Report, but change nothing")
	sectionsCmd.AddCommand(sectionsRemoveCmd)

	sourcesRefreshCmd.Flags().BoolVar(&maintenanceDryRun, "dry-run", false, "Report, but change nothing")
	sourcesCmd.AddCommand(sourcesRefreshCmd)

	imagesCmd.Flags().IntVar(&imagesStart, "start", 0, "First image to upload")
	imagesCmd.Flags().IntVar(&imagesConcurrency, "concurrency", 0, "Parallel uploads (default from uploads.concurrency)")
	imagesCmd.Flags().BoolVar(&maintenanceDryRun, "dry-run", false, "Report, but change nothing")

	rootCmd.AddCommand(rollbackCmd, sectionsCmd, sourcesCmd, imagesCmd)
}

func runRollback(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	s, closeSession, err := openSession(ctx, sessionNeeds{wiki: true, login: !maintenanceDryRun})
	defer closeSession()
	if err != nil {
		return err
	}

	runner := maintenance.NewRunner(s.logger, maintenanceDryRun)
	n, err := runner.RevertByComment(ctx, s.wiki, args, rollbackComment, rollbackDepth)
	if err != nil {
		printer.Warning("%d pages reverted before the error\n", n)
		return runError(err)
	}
	printer.Success("%d pages reverted\n", n)
	return nil
}

func runSectionsRemove(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	s, closeSession, err := openSession(ctx, sessionNeeds{data: true, wiki: true, login: !maintenanceDryRun})
	defer closeSession()
	if err != nil {
		return err
	}

	titles, err := s.data.Titles(sectionsKind)
	if err != nil {
		return printer.Failure("invalid --kind", err, nil)
	}
	end := sectionsEnd
	if end == 0 {
		end = len(titles)
	}
	if sectionsStart < 0 || sectionsStart > end || end > len(titles) {
		return printer.Error("invalid range",
			fmt.Sprintf("--start %d --end %d is outside %s (%d entries)", sectionsStart, sectionsEnd, sectionsKind, len(titles)),
			nil)
	}

	runner := maintenance.NewRunner(s.logger, maintenanceDryRun)
	n, err := runner.RemoveSections(ctx, s.wiki, titles[sectionsStart:end], args[0])
	if err != nil {
		return runError(err)
	}
	printer.Success("%d sections removed\n", n)
	return nil
}

func runSourcesRefresh(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	s, closeSession, err := openSession(ctx, sessionNeeds{data: true, wiki: true, login: !maintenanceDryRun})
	defer closeSession()
	if err != nil {
		return err
	}

	runner := maintenance.NewRunner(s.logger, maintenanceDryRun)
	n, err := runner.RefreshSources(ctx, s.wiki, s.renderer)
	if err != nil {
		return runError(err)
	}
	printer.Success("%d source templates refreshed\n", n)
	return nil
}

func runImages(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	s, closeSession, err := openSession(ctx, sessionNeeds{data: true, wiki: true, login: !maintenanceDryRun})
	defer closeSession()
	if err != nil {
		return err
	}
	if s.cfg.Uploads == nil {
		return printer.Error("no uploads configured",
			"Image uploads need the address of the game assets.",
			[]string{fmt.Sprintf("Add to %s:\n  uploads:\n    base_url: https://game.example.org/", configPath)})
	}

	set, err := maintenance.Images(s.data, args[0], s.cfg.Uploads.BaseURL)
	if err != nil {
		return printer.Failure("unknown image kind", err, nil)
	}
	if imagesStart < 0 || imagesStart > len(set.Images) {
		return printer.Error("invalid --start",
			fmt.Sprintf("--start %d is outside %s (%d images)", imagesStart, args[0], len(set.Images)), nil)
	}
	set.Images = set.Images[imagesStart:]

	concurrency := imagesConcurrency
	if concurrency == 0 {
		concurrency = s.cfg.Uploads.Concurrency
	}

	runner := maintenance.NewRunner(s.logger, maintenanceDryRun)
	res, err := runner.UploadImages(ctx, s.wiki, s.wiki, set, concurrency)
	if res != nil {
		printer.Success("%d images uploaded\n", res.Uploaded)
		for _, f := range res.Failed {
			printer.Warning("failed: %s\n", f)
		}
	}
	return runError(err)
}
