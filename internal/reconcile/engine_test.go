package reconcile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyluth/wikisync/pkg/wiki"
	"github.com/dyluth/wikisync/pkg/wiki/wikitest"
)

// singleKind is a one-entity kind over page "X".
func singleKind(fill, generated string) *Kind {
	return &Kind{
		Key:      "items",
		Count:    1,
		Title:    func(int) string { return "X" },
		Region:   TemplateRegion{Name: "Item"},
		Fill:     func(int) string { return fill },
		Generate: func(int) string { return generated },
	}
}

func TestReconcileScenarios(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		page        string
		fill        string
		generated   string
		wantVerdict Verdict
		wantContent string // empty means no edit
	}{
		{
			name:        "manual data outside the template is preserved",
			page:        "Old intro.\n{{Item|Name=X|Tier=1}}\nFooter.",
			fill:        "{{Item|Name=X|Tier=2}}",
			generated:   "{{Item|Name=X|Tier=2}}",
			wantVerdict: TemplateChangedManualDataPresent,
			wantContent: "Old intro.\n{{Item|Name=X|Tier=2}}\nFooter.",
		},
		{
			name:        "page equals canonical output",
			page:        "{{Item|Name=X|Tier=2}}\n{{V|1.2}}",
			fill:        "{{Item|Name=X|Tier=2}}",
			generated:   "{{Item|Name=X|Tier=2}}\n{{V|1.2}}",
			wantVerdict: NoChange,
		},
		{
			name:        "only the version marker is stale",
			page:        "{{Item|Name=X|Tier=2}}\n{{V|1.0}}",
			fill:        "{{Item|Name=X|Tier=2}}",
			generated:   "{{Item|Name=X|Tier=2}}\n{{V|1.2}}",
			wantVerdict: VersionBumpOnly,
			wantContent: "{{Item|Name=X|Tier=2}}\n{{V|1.2}}",
		},
		{
			name:        "template changed and page matches default",
			page:        "{{Item|Name=X|Tier=1}}\n{{V|1.0}}",
			fill:        "{{Item|Name=X|Tier=2}}",
			generated:   "{{Item|Name=X|Tier=2}}\n{{V|1.2}}",
			wantVerdict: TemplateChangedMatchesDefault,
			wantContent: "{{Item|Name=X|Tier=2}}\n{{V|1.2}}",
		},
		{
			name:        "template changed with manual data bumps version too",
			page:        "Notes.\n{{Item|Name=X|Tier=1}}\n{{V|1.0}}",
			fill:        "{{Item|Name=X|Tier=2}}",
			generated:   "{{Item|Name=X|Tier=2}}\n{{V|1.2}}",
			wantVerdict: TemplateChangedManualDataPresent,
			wantContent: "Notes.\n{{Item|Name=X|Tier=2}}\n{{V|1.2}}",
		},
		{
			name:        "page without template region is left alone",
			page:        "Just prose.",
			fill:        "{{Item|Name=X|Tier=2}}",
			generated:   "{{Item|Name=X|Tier=2}}",
			wantVerdict: NoChange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := wikitest.New()
			w.SetPage("X", tt.page)
			engine := NewEngine(w, testVersion(t), nil)

			out, err := engine.Reconcile(ctx, singleKind(tt.fill, tt.generated), 0)
			require.NoError(t, err)
			assert.Equal(t, tt.wantVerdict, out.Verdict)

			if tt.wantContent == "" {
				assert.Empty(t, out.Edits)
				return
			}
			require.Len(t, out.Edits, 1)
			assert.Equal(t, wiki.Edit{Name: "X", Content: tt.wantContent}, out.Edits[0])
		})
	}
}

func TestReconcileKeepsBeforeTextOnlyForReview(t *testing.T) {
	ctx := context.Background()
	w := wikitest.New()
	engine := NewEngine(w, testVersion(t), nil)

	w.SetPage("X", "Intro\n{{Item|Tier=1}}")
	out, err := engine.Reconcile(ctx, singleKind("{{Item|Tier=2}}", "{{Item|Tier=2}}"), 0)
	require.NoError(t, err)
	assert.Equal(t, "Intro\n{{Item|Tier=1}}", out.Before)

	w.SetPage("X", "{{Item|Tier=1}}")
	out, err = engine.Reconcile(ctx, singleKind("{{Item|Tier=2}}", "{{Item|Tier=2}}"), 0)
	require.NoError(t, err)
	assert.Equal(t, TemplateChangedMatchesDefault, out.Verdict)
	assert.Empty(t, out.Before)
}

func TestReconcileFetchFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("transport failure", func(t *testing.T) {
		w := wikitest.New()
		w.FailFetch("X", "timeout")
		logger, logs := observedLogger()
		engine := NewEngine(w, testVersion(t), logger)

		out, err := engine.Reconcile(ctx, singleKind("{{Item}}", "{{Item}}"), 0)
		require.NoError(t, err)
		assert.Equal(t, FetchFailed, out.Verdict)
		assert.Equal(t, "timeout", out.Reason)
		assert.Empty(t, out.Edits)
		assert.Equal(t, 1, logs.FilterMessage("cannot update page").Len())
	})

	t.Run("missing page", func(t *testing.T) {
		engine := NewEngine(wikitest.New(), testVersion(t), nil)
		out, err := engine.Reconcile(ctx, singleKind("{{Item}}", "{{Item}}"), 0)
		require.NoError(t, err)
		assert.Equal(t, FetchFailed, out.Verdict)
		assert.Equal(t, "page does not exist", out.Reason)
	})

	t.Run("empty title", func(t *testing.T) {
		w := wikitest.New()
		engine := NewEngine(w, testVersion(t), nil)
		k := singleKind("{{Item}}", "{{Item}}")
		k.Title = func(int) string { return "" }

		out, err := engine.Reconcile(ctx, k, 0)
		require.NoError(t, err)
		assert.Equal(t, FetchFailed, out.Verdict)
		assert.Equal(t, "no page title", out.Reason)
		assert.Empty(t, w.Fetches)
	})

	t.Run("auth failure is returned", func(t *testing.T) {
		w := wikitest.New()
		w.FailAuth(nil)
		engine := NewEngine(w, testVersion(t), nil)

		_, err := engine.Reconcile(ctx, singleKind("{{Item}}", "{{Item}}"), 0)
		require.Error(t, err)
		assert.True(t, wiki.IsAuthFailure(err))
	})
}

func TestReconcileLogsReviewAtWarn(t *testing.T) {
	w := wikitest.New()
	w.SetPage("X", "Intro\n{{Item|Tier=1}}")
	logger, logs := observedLogger()
	engine := NewEngine(w, testVersion(t), logger)

	_, err := engine.Reconcile(context.Background(), singleKind("{{Item|Tier=2}}", "{{Item|Tier=2}}"), 0)
	require.NoError(t, err)

	entries := logs.FilterMessage("template changed, manual review required").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "X", entries[0].ContextMap()["page"])
	assert.Equal(t, "TemplateChangedManualDataPresent", entries[0].ContextMap()["verdict"])
}

func TestFixVersion(t *testing.T) {
	ctx := context.Background()
	generated := "{{Item|Tier=2}}\n{{V|1.2}}"

	tests := []struct {
		name        string
		page        string
		wantVerdict Verdict
		wantReason  string
	}{
		{"matches after bump", "{{Item|Tier=2}}\n{{V|1.0}}", VersionBumpOnly, ""},
		{"already current", generated, NoChange, "already up to date"},
		{"still out of date", "{{Item|Tier=1}}\n{{V|1.0}}", NoChange, "cannot update version, page is still out of date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := wikitest.New()
			w.SetPage("X", tt.page)
			engine := NewEngine(w, testVersion(t), nil)

			out, err := engine.FixVersion(ctx, singleKind("{{Item|Tier=2}}", generated), 0)
			require.NoError(t, err)
			assert.Equal(t, tt.wantVerdict, out.Verdict)
			assert.Equal(t, tt.wantReason, out.Reason)
			if tt.wantVerdict == VersionBumpOnly {
				require.Len(t, out.Edits, 1)
				assert.Equal(t, generated, out.Edits[0].Content)
			} else {
				assert.Empty(t, out.Edits)
			}
		})
	}
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	k := singleKind("{{Item}}", "{{Item}}\n{{V|1.2}}")

	t.Run("missing page is created", func(t *testing.T) {
		engine := NewEngine(wikitest.New(), testVersion(t), nil)
		out, err := engine.Create(ctx, k, 0)
		require.NoError(t, err)
		assert.Equal(t, Created, out.Verdict)
		assert.Equal(t, []wiki.Edit{{Name: "X", Content: "{{Item}}\n{{V|1.2}}"}}, out.Edits)
	})

	t.Run("existing page is never overwritten", func(t *testing.T) {
		w := wikitest.New()
		w.SetPage("X", "hand written")
		engine := NewEngine(w, testVersion(t), nil)

		out, err := engine.Create(ctx, k, 0)
		require.NoError(t, err)
		assert.Equal(t, NoChange, out.Verdict)
		assert.Empty(t, out.Edits)
	})

	t.Run("fetch failure", func(t *testing.T) {
		w := wikitest.New()
		w.FailFetch("X", "boom")
		engine := NewEngine(w, testVersion(t), nil)

		out, err := engine.Create(ctx, k, 0)
		require.NoError(t, err)
		assert.Equal(t, FetchFailed, out.Verdict)
	})
}
