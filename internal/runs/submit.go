package runs

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/dyluth/wikisync/internal/reconcile"
	"github.com/dyluth/wikisync/pkg/journal"
	"github.com/dyluth/wikisync/pkg/wiki"
)

// ErrRunClosed is returned when submitting or discarding a run that was
// already submitted or discarded.
var ErrRunClosed = errors.New("run is not open")

// Submit sends the edits of a pending or failed run to the wiki as one
// bulk edit. Create runs go through the create-only call and need w to
// implement wiki.PageCreator.
func Submit(ctx context.Context, client *journal.Client, w wiki.Writer, runID string, logger *zap.Logger) (*journal.Run, error) {
	run, err := loadRun(ctx, client, runID)
	if err != nil {
		return nil, err
	}
	if !run.Status.Open() {
		return run, fmt.Errorf("cannot submit run %s: %w (status %s)", formatID(run.ID), ErrRunClosed, run.Status)
	}

	submit, err := submitterFor(run.Mode, w)
	if err != nil {
		return run, err
	}

	log := logger.With(zap.String("run_id", run.ID), zap.String("kind", run.Kind))
	if err := submit(ctx, run.Edits, run.Comment); err != nil {
		if mErr := client.UpdateStatus(ctx, run.ID, journal.RunStatusFailed, err.Error()); mErr != nil {
			log.Warn("failed to mark run failed", zap.Error(mErr))
		}
		return run, fmt.Errorf("failed to submit %d edits: %w", run.Changed, err)
	}
	log.Info("edits submitted", zap.Int("edits", run.Changed))

	if err := client.UpdateStatus(ctx, run.ID, journal.RunStatusSubmitted, ""); err != nil {
		return run, fmt.Errorf("edits submitted but run status not updated: %w", err)
	}
	run.Status = journal.RunStatusSubmitted
	run.Error = ""
	return run, nil
}

// Discard marks an open run as discarded. Its edits are never sent.
func Discard(ctx context.Context, client *journal.Client, runID string) error {
	run, err := loadRun(ctx, client, runID)
	if err != nil {
		return err
	}
	if !run.Status.Open() {
		return fmt.Errorf("cannot discard run %s: %w (status %s)", formatID(run.ID), ErrRunClosed, run.Status)
	}
	if err := client.UpdateStatus(ctx, run.ID, journal.RunStatusDiscarded, ""); err != nil {
		return fmt.Errorf("failed to discard run: %w", err)
	}
	return nil
}

type submitFunc func(ctx context.Context, edits []wiki.Edit, comment string) error

func submitterFor(mode string, w wiki.Writer) (submitFunc, error) {
	switch mode {
	case reconcile.ModeUpdate, reconcile.ModeVersions:
		return w.SubmitEdits, nil
	case reconcile.ModeCreate:
		creator, ok := w.(wiki.PageCreator)
		if !ok {
			return nil, errors.New("wiki transport does not support page creation")
		}
		return creator.CreatePages, nil
	default:
		return nil, fmt.Errorf("unknown run mode: %s", mode)
	}
}
