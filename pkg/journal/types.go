package journal

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/dyluth/wikisync/pkg/wiki"
)

// Run is the journaled record of one batch run: every edit it decided on
// and the per-page outcomes behind them. A pending run can be inspected
// and then submitted or discarded.
type Run struct {
	ID          string      `json:"id"`              // UUID of the run
	Kind        string      `json:"kind"`            // Page kind key, e.g. "monsters"
	Mode        string      `json:"mode"`            // How the run submits: update, versions or create
	Comment     string      `json:"comment"`         // Edit summary
	Status      RunStatus   `json:"status"`          // Current lifecycle state
	Changed     int         `json:"changed"`         // Number of edits
	Edits       []wiki.Edit `json:"edits"`           // Edits in submit order
	Outcomes    []Outcome   `json:"outcomes"`        // One outcome per processed page
	Error       string      `json:"error,omitempty"` // Submit failure, when Status is failed
	CreatedAtMs int64       `json:"created_at_ms"`   // Unix milliseconds when the run was saved
	UpdatedAtMs int64       `json:"updated_at_ms"`   // Unix milliseconds of the last status change
}

// RunStatus is the lifecycle state of a journaled run.
// Runs start pending and end submitted, discarded or failed. A failed
// run may be submitted again.
type RunStatus string

const (
	// RunStatusPending indicates the edits have not been sent to the wiki
	RunStatusPending RunStatus = "pending"

	// RunStatusSubmitted indicates the edits were accepted by the wiki
	RunStatusSubmitted RunStatus = "submitted"

	// RunStatusDiscarded indicates an operator threw the run away
	RunStatusDiscarded RunStatus = "discarded"

	// RunStatusFailed indicates the bulk submit returned an error
	RunStatusFailed RunStatus = "failed"
)

// Outcome is the journaled decision for one page.
type Outcome struct {
	Index   int    `json:"index"`
	Title   string `json:"title"`
	Verdict string `json:"verdict"`
	Reason  string `json:"reason,omitempty"`
	Edits   int    `json:"edits"`
	Before  string `json:"before,omitempty"` // Page text before the edit, kept when review is needed
}

// OutcomeEvent is published for every page as a run decides it.
type OutcomeEvent struct {
	RunID   string  `json:"run_id"`
	Kind    string  `json:"kind"`
	Outcome Outcome `json:"outcome"`
	AtMs    int64   `json:"at_ms"`
}

// RunEvent is published whenever a run is saved or changes status.
type RunEvent struct {
	RunID   string    `json:"run_id"`
	Kind    string    `json:"kind"`
	Status  RunStatus `json:"status"`
	Changed int       `json:"changed"`
	AtMs    int64     `json:"at_ms"`
}

// Validate checks that the run has all required fields.
func (r *Run) Validate() error {
	if _, err := uuid.Parse(r.ID); err != nil {
		return fmt.Errorf("invalid run ID: %w", err)
	}
	if r.Kind == "" {
		return fmt.Errorf("kind is required")
	}
	if r.Mode == "" {
		return fmt.Errorf("mode is required")
	}
	if err := r.Status.Validate(); err != nil {
		return err
	}
	if r.Changed != len(r.Edits) {
		return fmt.Errorf("changed count %d does not match %d edits", r.Changed, len(r.Edits))
	}
	return nil
}

// Validate checks that the status is one of the defined values.
func (s RunStatus) Validate() error {
	switch s {
	case RunStatusPending, RunStatusSubmitted, RunStatusDiscarded, RunStatusFailed:
		return nil
	default:
		return fmt.Errorf("invalid run status: %q", s)
	}
}

// Open reports whether the run can still be submitted.
func (s RunStatus) Open() bool {
	return s == RunStatusPending || s == RunStatusFailed
}

// NeedsReview returns the outcomes flagged for human review.
func (r *Run) NeedsReview() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Before != "" {
			out = append(out, o)
		}
	}
	return out
}
