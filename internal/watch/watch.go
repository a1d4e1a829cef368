// Package watch follows run activity published to the journal.
package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dyluth/wikisync/internal/filter"
	"github.com/dyluth/wikisync/pkg/journal"
)

// OutputFormat specifies how streamed events are written.
type OutputFormat string

const (
	// OutputFormatDefault writes one human-readable line per event
	OutputFormatDefault OutputFormat = "default"

	// OutputFormatJSON writes line-delimited JSON
	OutputFormatJSON OutputFormat = "json"
)

// Follower holds live subscriptions to outcome and run events.
type Follower struct {
	outcomes *journal.Subscription[journal.OutcomeEvent]
	runs     *journal.Subscription[journal.RunEvent]
}

// Follow subscribes to both event channels. Events published after Follow
// returns are delivered.
func Follow(ctx context.Context, client *journal.Client) (*Follower, error) {
	outcomes, err := client.SubscribeOutcomes(ctx)
	if err != nil {
		return nil, err
	}
	runs, err := client.SubscribeRuns(ctx)
	if err != nil {
		outcomes.Close()
		return nil, err
	}
	return &Follower{outcomes: outcomes, runs: runs}, nil
}

// Close releases both subscriptions. Safe to call multiple times.
func (f *Follower) Close() error {
	f.outcomes.Close()
	f.runs.Close()
	return nil
}

// Stream writes events to w until ctx is cancelled or a subscription ends.
// Outcome events are filtered with filters when it is non-nil. Malformed
// events are reported inline and skipped.
func (f *Follower) Stream(ctx context.Context, format OutputFormat, filters *filter.Criteria, w io.Writer) error {
	defer f.Close()

	outcomes, runs := f.outcomes.Events(), f.runs.Events()
	outcomeErrs, runErrs := f.outcomes.Errors(), f.runs.Errors()

	for {
		var err error
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-outcomes:
			if !ok {
				return nil
			}
			if filters != nil && !filters.MatchesOutcome(ev) {
				continue
			}
			err = writeEvent(w, format, "outcome", ev, formatOutcome(ev))

		case ev, ok := <-runs:
			if !ok {
				return nil
			}
			if filters != nil && !filters.MatchesKind(ev.Kind) {
				continue
			}
			err = writeEvent(w, format, "run", ev, formatRun(ev))

		case subErr, ok := <-outcomeErrs:
			if !ok {
				outcomeErrs = nil
				continue
			}
			_, err = fmt.Fprintf(w, "⚠️  %v\n", subErr)
		case subErr, ok := <-runErrs:
			if !ok {
				runErrs = nil
				continue
			}
			_, err = fmt.Fprintf(w, "⚠️  %v\n", subErr)
		}
		if err != nil {
			return fmt.Errorf("failed to write event: %w", err)
		}
	}
}

// StreamActivity subscribes and streams until ctx is cancelled.
func StreamActivity(ctx context.Context, client *journal.Client, format OutputFormat, filters *filter.Criteria, w io.Writer) error {
	f, err := Follow(ctx, client)
	if err != nil {
		return err
	}
	return f.Stream(ctx, format, filters, w)
}

type jsonEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

func writeEvent(w io.Writer, format OutputFormat, name string, data any, line string) error {
	if format == OutputFormatJSON {
		b, err := json.Marshal(jsonEvent{Event: name, Data: data})
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", b)
		return err
	}
	_, err := fmt.Fprintln(w, line)
	return err
}

func formatOutcome(ev *journal.OutcomeEvent) string {
	o := ev.Outcome
	icon := "✅"
	switch {
	case o.Verdict == "FetchFailed":
		icon = "❌"
	case o.Before != "":
		icon = "⚠️ "
	case o.Edits == 0:
		icon = "·"
	}

	line := fmt.Sprintf("[%s] %s %s %s: %s", clock(ev.AtMs), icon, ev.Kind, o.Title, o.Verdict)
	if o.Reason != "" {
		line += " (" + o.Reason + ")"
	}
	if o.Edits > 0 {
		line += fmt.Sprintf(" [%d %s]", o.Edits, plural(o.Edits, "edit", "edits"))
	}
	return line
}

func formatRun(ev *journal.RunEvent) string {
	id := ev.RunID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("[%s] 📦 Run %s (%s) %s: %d %s",
		clock(ev.AtMs), id, ev.Kind, ev.Status, ev.Changed, plural(ev.Changed, "edit", "edits"))
}

func clock(ms int64) string {
	if ms == 0 {
		return "--:--:--"
	}
	return time.UnixMilli(ms).Format("15:04:05")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// PollForRun polls until the run exists and has left the pending state,
// then returns it. Polls every 200ms until timeout.
func PollForRun(ctx context.Context, client *journal.Client, runID string, timeout time.Duration) (*journal.Run, error) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	timeoutCh := time.After(timeout)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case <-timeoutCh:
			return nil, fmt.Errorf("timeout waiting for run %s after %v", runID, timeout)

		case <-ticker.C:
			run, err := client.GetRun(ctx, runID)
			if err != nil {
				if journal.IsNotFound(err) {
					continue
				}
				return nil, fmt.Errorf("failed to query run: %w", err)
			}
			if run.Status == journal.RunStatusPending {
				continue
			}
			return run, nil
		}
	}
}
