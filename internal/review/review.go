// Package review walks an operator through the pages of a category one at
// a time, collecting version bumps for pages they accept and submitting
// them together once the list is exhausted.
package review

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/dyluth/wikisync/internal/reconcile"
	"github.com/dyluth/wikisync/pkg/wiki"
)

// Comment is the edit summary of the bulk submit at the end of a review.
const Comment = "Manual Review: No Changes. Updating Version."

// ErrReviewDone is returned by operations on a finished workflow.
var ErrReviewDone = errors.New("review is already finished")

// Transport is what a review needs from the wiki.
type Transport interface {
	wiki.Reader
	wiki.Writer
	wiki.CategoryLister
}

// Workflow is a linear state machine: Reviewing(i) for each page of the
// category in order, then Done. Only Start, Advance and AcceptVersionBump
// change its state.
type Workflow struct {
	wiki    Transport
	version reconcile.VersionMarker
	logger  *zap.Logger

	pages   []string
	current int
	content string
	updates []wiki.Edit
	done    bool
}

// New creates a workflow. A nil logger discards output.
func New(t Transport, version reconcile.VersionMarker, logger *zap.Logger) *Workflow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Workflow{wiki: t, version: version, logger: logger, done: true}
}

// Start loads the members of category and the first page. An empty
// category finishes immediately without submitting anything.
func (w *Workflow) Start(ctx context.Context, category string) error {
	pages, err := w.wiki.CategoryMembers(ctx, category)
	if err != nil {
		return fmt.Errorf("failed to list category %s: %w", category, err)
	}

	w.pages = pages
	w.current = 0
	w.content = ""
	w.updates = nil
	w.done = false

	w.logger.Info("starting manual review",
		zap.String("category", category),
		zap.Int("pages", len(pages)))
	return w.load(ctx)
}

// Done reports whether the workflow reached its terminal state.
func (w *Workflow) Done() bool {
	return w.done
}

// Current returns the title of the page under review.
func (w *Workflow) Current() string {
	if w.done {
		return ""
	}
	return w.pages[w.current]
}

// Content returns the text of the page under review.
func (w *Workflow) Content() string {
	return w.content
}

// Proposed returns the page text with its version marker bumped.
func (w *Workflow) Proposed() string {
	return w.version.Bump(w.content)
}

// Position returns the zero-based index of the current page and the page count.
func (w *Workflow) Position() (int, int) {
	return w.current, len(w.pages)
}

// Updates returns the edits accepted so far.
func (w *Workflow) Updates() []wiki.Edit {
	return w.updates
}

// Advance skips the current page. After the last page it submits every
// accepted update as one bulk edit and finishes.
func (w *Workflow) Advance(ctx context.Context) error {
	if w.done {
		return ErrReviewDone
	}
	w.current++
	return w.load(ctx)
}

// AcceptVersionBump queues the current page with only its version marker
// replaced, then advances.
func (w *Workflow) AcceptVersionBump(ctx context.Context) error {
	if w.done {
		return ErrReviewDone
	}

	title := w.pages[w.current]
	proposed := w.Proposed()
	if proposed == w.content {
		w.logger.Info("page has no stale version marker, nothing to queue", zap.String("page", title))
	} else {
		w.updates = append(w.updates, wiki.Edit{Name: title, Content: proposed})
		w.logger.Debug("queued version bump", zap.String("page", title))
	}
	return w.Advance(ctx)
}

// load fetches the current page, skipping pages that cannot be read, and
// finishes the workflow when no pages remain.
func (w *Workflow) load(ctx context.Context) error {
	for ; w.current < len(w.pages); w.current++ {
		title := w.pages[w.current]
		snap, err := w.wiki.FetchPage(ctx, title)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", title, err)
		}
		if !snap.OK() {
			w.logger.Warn("cannot review page", zap.String("page", title), zap.String("reason", snap.Failure()))
			continue
		}
		w.content = snap.Text
		return nil
	}
	return w.finish(ctx)
}

func (w *Workflow) finish(ctx context.Context) error {
	w.done = true
	w.content = ""

	if len(w.updates) == 0 {
		w.logger.Info("manual review finished, nothing to update")
		return nil
	}

	w.logger.Info(fmt.Sprintf("%d pages reviewed and ready to update", len(w.updates)))
	if err := w.wiki.SubmitEdits(ctx, w.updates, Comment); err != nil {
		return fmt.Errorf("failed to submit %d reviewed pages: %w", len(w.updates), err)
	}
	return nil
}
