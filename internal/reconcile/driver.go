package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dyluth/wikisync/pkg/wiki"
)

// ErrStartOutOfRange is returned when a run is asked to start outside the entity table.
var ErrStartOutOfRange = errors.New("start index out of range")

// Options control one batch run.
type Options struct {
	Start        int    // First entity to process
	DryRun       bool   // Decide and record, but submit nothing
	Comment      string // Overrides the default edit summary
	SyncSubPages bool   // Item runs also edit drifted sub-pages
}

// Recorder persists runs and streams outcomes as they are decided.
// Outcome recording failures never stop a run; SaveRun failures do.
type Recorder interface {
	RecordOutcome(ctx context.Context, s *Summary, o Outcome) error
	SaveRun(ctx context.Context, s *Summary) error
	MarkSubmitted(ctx context.Context, runID string) error
	MarkFailed(ctx context.Context, runID string, cause error) error
}

// Driver runs the engine over every entity of a kind and submits the
// collected edits as one bulk edit.
//
// A Driver runs one batch at a time; concurrent runs are not supported.
type Driver struct {
	engine   *Engine
	writer   wiki.Writer
	recorder Recorder
	logger   *zap.Logger
	newID    func() string
}

// NewDriver creates a driver. A nil logger discards output.
func NewDriver(engine *Engine, writer wiki.Writer, logger *zap.Logger) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{
		engine: engine,
		writer: writer,
		logger: logger,
		newID:  uuid.NewString,
	}
}

// SetRecorder attaches a run journal.
func (d *Driver) SetRecorder(r Recorder) {
	d.recorder = r
}

type stepFunc func(ctx context.Context, i int) (Outcome, error)
type submitFunc func(ctx context.Context, edits []wiki.Edit, comment string) error

// Run reconciles the template region of every page of kind k.
func (d *Driver) Run(ctx context.Context, k *Kind, opts Options) (*Summary, error) {
	if err := k.validate(); err != nil {
		return nil, err
	}
	step := func(ctx context.Context, i int) (Outcome, error) {
		return d.engine.Reconcile(ctx, k, i)
	}
	return d.run(ctx, k, opts, ModeUpdate, "Automatic update of %s page.", step, d.writer.SubmitEdits)
}

// RunItems reconciles item pages with all their templates and sub-pages.
func (d *Driver) RunItems(ctx context.Context, k *ItemKind, opts Options) (*Summary, error) {
	if k == nil {
		return nil, errors.New("kind is nil")
	}
	if err := k.Kind.validate(); err != nil {
		return nil, err
	}
	step := func(ctx context.Context, i int) (Outcome, error) {
		return d.engine.ReconcileItem(ctx, k, i, opts.SyncSubPages)
	}
	return d.run(ctx, &k.Kind, opts, ModeUpdate, "Automatic update of %s page.", step, d.writer.SubmitEdits)
}

// FixVersions bumps the version marker on pages that already match the
// generated page apart from the marker.
func (d *Driver) FixVersions(ctx context.Context, k *Kind, opts Options) (*Summary, error) {
	if err := k.validate(); err != nil {
		return nil, err
	}
	step := func(ctx context.Context, i int) (Outcome, error) {
		return d.engine.FixVersion(ctx, k, i)
	}
	return d.run(ctx, k, opts, ModeVersions, "Automatic version update of %s page.", step, d.writer.SubmitEdits)
}

// CreatePages creates the generated page for every entity whose page is
// missing. Existing pages are never overwritten.
func (d *Driver) CreatePages(ctx context.Context, k *Kind, opts Options) (*Summary, error) {
	if err := k.validate(); err != nil {
		return nil, err
	}
	creator, ok := d.writer.(wiki.PageCreator)
	if !ok {
		return nil, errors.New("wiki transport does not support page creation")
	}
	step := func(ctx context.Context, i int) (Outcome, error) {
		return d.engine.Create(ctx, k, i)
	}
	return d.run(ctx, k, opts, ModeCreate, "Page autogenerated for %s.", step, creator.CreatePages)
}

func (d *Driver) run(ctx context.Context, k *Kind, opts Options, mode, commentFormat string, step stepFunc, submit submitFunc) (*Summary, error) {
	start, err := startIndex(k, opts.Start)
	if err != nil {
		return nil, err
	}

	comment := opts.Comment
	if comment == "" {
		comment = fmt.Sprintf(commentFormat, k.Key)
	}
	summary := &Summary{
		RunID:   d.newID(),
		Kind:    k.Key,
		Mode:    mode,
		Comment: comment,
		DryRun:  opts.DryRun,
	}
	log := d.logger.With(zap.String("run_id", summary.RunID), zap.String("kind", k.Key))
	log.Debug("run started", zap.Int("start", start), zap.Int("count", k.Count))

	for i := start; i < k.Count; i++ {
		if !k.included(i) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("%s run aborted at index %d: %w", k.Key, i, err)
		}

		out, err := step(ctx, i)
		if err != nil {
			return summary, fmt.Errorf("%s run aborted at index %d: %w", k.Key, i, err)
		}
		summary.Outcomes = append(summary.Outcomes, out)
		summary.Edits = append(summary.Edits, out.Edits...)

		if d.recorder != nil {
			if err := d.recorder.RecordOutcome(ctx, summary, out); err != nil {
				log.Warn("failed to record outcome", zap.String("page", out.Title), zap.Error(err))
			}
		}
	}

	summary.Changed = len(summary.Edits)
	log.Info(fmt.Sprintf("%d pages changed and ready to update", summary.Changed))
	if summary.Changed == 0 {
		return summary, nil
	}

	if d.recorder != nil {
		if err := d.recorder.SaveRun(ctx, summary); err != nil {
			return summary, fmt.Errorf("failed to save run %s: %w", summary.RunID, err)
		}
	}

	if opts.DryRun {
		log.Info("dry run, nothing submitted")
		return summary, nil
	}

	if err := submit(ctx, summary.Edits, summary.Comment); err != nil {
		if d.recorder != nil {
			if mErr := d.recorder.MarkFailed(ctx, summary.RunID, err); mErr != nil {
				log.Warn("failed to mark run failed", zap.Error(mErr))
			}
		}
		return summary, fmt.Errorf("failed to submit %d edits: %w", summary.Changed, err)
	}

	summary.Submitted = true
	log.Info("edits submitted", zap.Int("edits", summary.Changed))
	if d.recorder != nil {
		if err := d.recorder.MarkSubmitted(ctx, summary.RunID); err != nil {
			log.Warn("failed to mark run submitted", zap.Error(err))
		}
	}
	return summary, nil
}

// startIndex validates the requested start against the kind.
// Starting at Count is allowed and processes nothing.
func startIndex(k *Kind, start int) (int, error) {
	if start < 0 || start > k.Count {
		return 0, fmt.Errorf("%w: %d (%s has %d entries)", ErrStartOutOfRange, start, k.Key, k.Count)
	}
	if start < k.Start {
		start = k.Start
	}
	return start, nil
}
