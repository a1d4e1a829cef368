// Package maintenance holds the one-off repair jobs that sit beside the
// reconciliation runs: reverting bad bot edits, removing stale sections,
// rebuilding source templates and uploading entity images.
package maintenance

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/dyluth/wikisync/internal/markup"
	"github.com/dyluth/wikisync/pkg/wiki"
)

// Edit summaries used by the maintenance jobs.
const (
	SectionRemovalComment = "Removal of old section."
	SourcesComment        = "Automatic Update of Item Source Template"
	UploadComment         = "Automatic image upload."
)

// DefaultDepth is how many revisions RevertByComment inspects per page.
const DefaultDepth = 2

// Reverter reads page history and undoes revisions.
type Reverter interface {
	FetchRevisions(ctx context.Context, title string, count int) ([]wiki.Revision, error)
	wiki.Undoer
}

// SectionRemover finds sections and blanks them.
type SectionRemover interface {
	wiki.SectionFinder
	SubmitSectionEdits(ctx context.Context, edits []wiki.Edit, comment string) error
}

// Runner executes maintenance jobs.
type Runner struct {
	logger *zap.Logger
	dryRun bool
}

// NewRunner creates a runner. With dryRun nothing is written to the wiki.
func NewRunner(logger *zap.Logger, dryRun bool) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{logger: logger, dryRun: dryRun}
}

// RevertByComment undoes, on every page in titles, the newest run of
// revisions whose summary equals comment. Only the newest depth revisions
// are inspected, and a page is left alone when no earlier revision within
// that window is left to return to. It returns the number of pages reverted.
func (r *Runner) RevertByComment(ctx context.Context, t Reverter, titles []string, comment string, depth int) (int, error) {
	if comment == "" {
		return 0, errors.New("comment cannot be empty")
	}
	if depth < 2 {
		return 0, fmt.Errorf("depth must be at least 2, got %d", depth)
	}

	var (
		reverted int
		errs     []error
	)
	for _, title := range titles {
		revs, err := t.FetchRevisions(ctx, title, depth)
		if err != nil {
			if fatal(err) {
				return reverted, fmt.Errorf("failed to read history of %s: %w", title, err)
			}
			r.logger.Warn("cannot read page history", zap.String("page", title), zap.Error(err))
			errs = append(errs, err)
			continue
		}

		n := 0
		for n < len(revs) && revs[n].Comment == comment {
			n++
		}
		switch {
		case n == 0:
			r.logger.Debug("newest revision does not match, skipping", zap.String("page", title))
			continue
		case n == len(revs):
			r.logger.Warn("no earlier revision within depth, skipping",
				zap.String("page", title), zap.Int("depth", depth))
			continue
		}

		undo, after := revs[0].RevID, revs[n].RevID
		r.logger.Info("reverting revisions",
			zap.String("page", title),
			zap.Int("revisions", n),
			zap.Int64("undo", undo),
			zap.Int64("undo_after", after))
		if r.dryRun {
			reverted++
			continue
		}
		if err := t.Undo(ctx, title, undo, after, "Reverting: "+comment); err != nil {
			if fatal(err) {
				return reverted, fmt.Errorf("failed to revert %s: %w", title, err)
			}
			r.logger.Warn("cannot revert page", zap.String("page", title), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		reverted++
	}
	return reverted, errors.Join(errs...)
}

// RemoveSections blanks the first section titled heading on each page that
// has one, as one bulk section edit. It returns the number of sections removed.
func (r *Runner) RemoveSections(ctx context.Context, t SectionRemover, titles []string, heading string) (int, error) {
	if heading == "" {
		return 0, errors.New("section heading cannot be empty")
	}

	var edits []wiki.Edit
	for _, title := range titles {
		ids, err := t.SectionIDs(ctx, title, heading)
		if err != nil {
			if fatal(err) {
				return 0, fmt.Errorf("failed to list sections of %s: %w", title, err)
			}
			r.logger.Warn("cannot list sections", zap.String("page", title), zap.Error(err))
			continue
		}
		if len(ids) == 0 {
			continue
		}
		edits = append(edits, wiki.SectionEdit(title, "", ids[0]))
	}

	if len(edits) == 0 {
		r.logger.Info("no sections to remove")
		return 0, nil
	}
	r.logger.Info(fmt.Sprintf("%d sections ready to remove", len(edits)))
	if r.dryRun {
		return len(edits), nil
	}
	if err := t.SubmitSectionEdits(ctx, edits, SectionRemovalComment); err != nil {
		return 0, fmt.Errorf("failed to remove %d sections: %w", len(edits), err)
	}
	return len(edits), nil
}

// RefreshSources rewrites the source template page of every fishing
// special and junk item from game data, without comparing first.
func (r *Runner) RefreshSources(ctx context.Context, w wiki.Writer, m *markup.Renderer) (int, error) {
	ids := markup.SourceRefreshTargets(m.Data())
	if len(ids) == 0 {
		r.logger.Info("no source templates to refresh")
		return 0, nil
	}

	edits := make([]wiki.Edit, 0, len(ids))
	for _, i := range ids {
		edits = append(edits, wiki.Edit{Name: m.SourcesTitle(i), Content: m.SourcesPage(i)})
	}
	r.logger.Info(fmt.Sprintf("%d source templates ready to update", len(edits)))
	if r.dryRun {
		return len(edits), nil
	}
	if err := w.SubmitEdits(ctx, edits, SourcesComment); err != nil {
		return 0, fmt.Errorf("failed to refresh %d source templates: %w", len(edits), err)
	}
	return len(edits), nil
}

// fatal reports whether err should stop a maintenance job.
func fatal(err error) bool {
	return wiki.IsAuthFailure(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
