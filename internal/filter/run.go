package filter

import (
	"path/filepath"

	"github.com/dyluth/wikisync/pkg/journal"
)

// Criteria defines filtering criteria for journaled runs.
// All filters are ANDed together - a run must match ALL criteria to pass.
type Criteria struct {
	SinceTimestampMs int64             // Unix timestamp in milliseconds, 0 = no filter
	UntilTimestampMs int64             // Unix timestamp in milliseconds, 0 = no filter
	KindGlob         string            // Glob pattern for the page kind, empty = no filter
	Status           journal.RunStatus // Exact status match, empty = no filter
	NeedsReview      bool              // Only runs with pages flagged for review
}

// Matches returns true if the run matches all filter criteria.
// Empty/zero criteria values are treated as "match all" for that criterion.
func (c *Criteria) Matches(r *journal.Run) bool {
	if c.SinceTimestampMs > 0 && r.CreatedAtMs < c.SinceTimestampMs {
		return false
	}
	if c.UntilTimestampMs > 0 && r.CreatedAtMs > c.UntilTimestampMs {
		return false
	}

	if !c.MatchesKind(r.Kind) {
		return false
	}

	if c.Status != "" && r.Status != c.Status {
		return false
	}

	if c.NeedsReview && len(r.NeedsReview()) == 0 {
		return false
	}

	return true
}

// MatchesOutcome applies the kind filter to a live outcome event.
// Time and status filters do not apply to single outcomes.
func (c *Criteria) MatchesOutcome(ev *journal.OutcomeEvent) bool {
	if !c.MatchesKind(ev.Kind) {
		return false
	}
	if c.NeedsReview && ev.Outcome.Before == "" {
		return false
	}
	return true
}

// MatchesKind applies the kind glob alone.
func (c *Criteria) MatchesKind(kind string) bool {
	if c.KindGlob == "" {
		return true
	}
	matched, err := filepath.Match(c.KindGlob, kind)
	return err == nil && matched
}

// HasFilters returns true if any filters are active.
func (c *Criteria) HasFilters() bool {
	return c.SinceTimestampMs > 0 ||
		c.UntilTimestampMs > 0 ||
		c.KindGlob != "" ||
		c.Status != "" ||
		c.NeedsReview
}
