package reconcile

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dyluth/wikisync/pkg/wiki/wikitest"
)

const currentMarker = "{{V|1.2}}"

func testVersion(t *testing.T) VersionMarker {
	t.Helper()
	v, err := NewVersionMarker(`\{\{V\|[\d.]+\}\}`, currentMarker)
	require.NoError(t, err)
	return v
}

func observedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

// tierKind builds a kind of n entities "P0".."Pn-1" whose template is
// {{Item|Name=Pi|Tier=<tier>}} and whose canonical page is the template
// followed by the current marker.
func tierKind(n, tier int) *Kind {
	fill := func(i int) string { return fmt.Sprintf("{{Item|Name=P%d|Tier=%d}}", i, tier) }
	return &Kind{
		Key:      "items",
		Count:    n,
		Title:    func(i int) string { return fmt.Sprintf("P%d", i) },
		Region:   TemplateRegion{Name: "Item"},
		Fill:     fill,
		Generate: func(i int) string { return fill(i) + "\n" + currentMarker },
	}
}

// seedTier stores every page of a tierKind at an older tier and marker.
func seedTier(w *wikitest.Wiki, n, tier int, marker string) {
	for i := 0; i < n; i++ {
		w.SetPage(fmt.Sprintf("P%d", i), fmt.Sprintf("{{Item|Name=P%d|Tier=%d}}\n%s", i, tier, marker))
	}
}

// fakeRecorder records every call in order.
type fakeRecorder struct {
	mu        sync.Mutex
	calls     []string
	outcomes  []Outcome
	saved     *Summary
	saveErr   error
	recordErr error
	failCause error
}

func (r *fakeRecorder) RecordOutcome(ctx context.Context, s *Summary, o Outcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "outcome")
	r.outcomes = append(r.outcomes, o)
	return r.recordErr
}

func (r *fakeRecorder) SaveRun(ctx context.Context, s *Summary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "save")
	if r.saveErr != nil {
		return r.saveErr
	}
	copied := *s
	r.saved = &copied
	return nil
}

func (r *fakeRecorder) MarkSubmitted(ctx context.Context, runID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "submitted")
	return nil
}

func (r *fakeRecorder) MarkFailed(ctx context.Context, runID string, cause error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "failed")
	r.failCause = cause
	return nil
}
