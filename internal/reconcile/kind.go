package reconcile

import (
	"errors"
	"fmt"

	"github.com/dyluth/wikisync/pkg/wiki"
)

// Kind is everything the engine needs to reconcile one kind of page.
type Kind struct {
	Key      string             // Page kind key, used in titles lists and edit comments
	Count    int                // Number of entities
	Title    func(i int) string // Page title of entity i
	Region   Matcher            // Auto-generated region on the page
	Fill     func(i int) string // Region markup for entity i
	Generate func(i int) string // Canonical page for entity i
	Include  func(i int) bool   // Optional entity filter
	Start    int                // First entity that has a page
}

func (k *Kind) validate() error {
	switch {
	case k == nil:
		return errors.New("kind is nil")
	case k.Key == "":
		return errors.New("kind key cannot be empty")
	case k.Title == nil:
		return fmt.Errorf("kind %s: title lookup is required", k.Key)
	case k.Region == nil:
		return fmt.Errorf("kind %s: region matcher is required", k.Key)
	case k.Fill == nil:
		return fmt.Errorf("kind %s: fill function is required", k.Key)
	case k.Generate == nil:
		return fmt.Errorf("kind %s: page generator is required", k.Key)
	}
	return nil
}

func (k *Kind) included(i int) bool {
	return k.Include == nil || k.Include(i)
}

// Outcome is the decision for one entity.
type Outcome struct {
	Index   int         `json:"index"`
	Title   string      `json:"title"`
	Verdict Verdict     `json:"verdict"`
	Edits   []wiki.Edit `json:"edits,omitempty"`
	Reason  string      `json:"reason,omitempty"`
	Before  string      `json:"before,omitempty"` // Page text before the edit, kept when review is needed
}

// Changed reports whether the outcome produced edits.
func (o Outcome) Changed() bool {
	return len(o.Edits) > 0
}

// Run modes. The mode decides how a journaled run is submitted later.
const (
	ModeUpdate   = "update"
	ModeVersions = "versions"
	ModeCreate   = "create"
)

// Summary is the result of one batch run.
type Summary struct {
	RunID     string      `json:"run_id"`
	Kind      string      `json:"kind"`
	Mode      string      `json:"mode"`
	Comment   string      `json:"comment"`
	Changed   int         `json:"changed"`
	Edits     []wiki.Edit `json:"edits"`
	Outcomes  []Outcome   `json:"outcomes"`
	DryRun    bool        `json:"dry_run"`
	Submitted bool        `json:"submitted"`
}

// Count returns the number of outcomes with verdict v.
func (s *Summary) Count(v Verdict) int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Verdict == v {
			n++
		}
	}
	return n
}

// NeedsReview returns the outcomes flagged for human review.
func (s *Summary) NeedsReview() []Outcome {
	var out []Outcome
	for _, o := range s.Outcomes {
		if o.Verdict.NeedsReview() {
			out = append(out, o)
		}
	}
	return out
}
