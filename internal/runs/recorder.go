package runs

import (
	"context"

	"github.com/dyluth/wikisync/internal/reconcile"
	"github.com/dyluth/wikisync/pkg/journal"
)

// Recorder journals batch runs. It implements reconcile.Recorder.
type Recorder struct {
	client *journal.Client
}

// NewRecorder creates a recorder writing to client.
func NewRecorder(client *journal.Client) *Recorder {
	return &Recorder{client: client}
}

// RecordOutcome publishes the outcome of one page.
func (r *Recorder) RecordOutcome(ctx context.Context, s *reconcile.Summary, o reconcile.Outcome) error {
	return r.client.PublishOutcome(ctx, &journal.OutcomeEvent{
		RunID:   s.RunID,
		Kind:    s.Kind,
		Outcome: toOutcome(o),
	})
}

// SaveRun stores the summary as a pending run.
func (r *Recorder) SaveRun(ctx context.Context, s *reconcile.Summary) error {
	return r.client.SaveRun(ctx, ToRun(s))
}

// MarkSubmitted records that the run's edits reached the wiki.
func (r *Recorder) MarkSubmitted(ctx context.Context, runID string) error {
	return r.client.UpdateStatus(ctx, runID, journal.RunStatusSubmitted, "")
}

// MarkFailed records a failed bulk submit.
func (r *Recorder) MarkFailed(ctx context.Context, runID string, cause error) error {
	return r.client.UpdateStatus(ctx, runID, journal.RunStatusFailed, cause.Error())
}

// ToRun converts a run summary to its journal record.
func ToRun(s *reconcile.Summary) *journal.Run {
	run := &journal.Run{
		ID:      s.RunID,
		Kind:    s.Kind,
		Mode:    s.Mode,
		Comment: s.Comment,
		Status:  journal.RunStatusPending,
		Changed: s.Changed,
		Edits:   s.Edits,
	}
	if s.Submitted {
		run.Status = journal.RunStatusSubmitted
	}
	for _, o := range s.Outcomes {
		run.Outcomes = append(run.Outcomes, toOutcome(o))
	}
	return run
}

func toOutcome(o reconcile.Outcome) journal.Outcome {
	return journal.Outcome{
		Index:   o.Index,
		Title:   o.Title,
		Verdict: o.Verdict.String(),
		Reason:  o.Reason,
		Edits:   len(o.Edits),
		Before:  o.Before,
	}
}

var _ reconcile.Recorder = (*Recorder)(nil)
