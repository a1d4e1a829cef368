package reconcile

import (
	"context"
	"fmt"
	"regexp"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyluth/wikisync/pkg/wiki"
	"github.com/dyluth/wikisync/pkg/wiki/wikitest"
)

var itemNames = []string{"Dagger", "Helmet", "Chest", "Feather"}

const (
	chestIndex   = 2
	featherIndex = 3
)

var staleCategory = regexp.MustCompile(`\[\[Category:v[\d.]+\]\]`)

func itemTemplate(i, tier int) string {
	return fmt.Sprintf("{{Item|Name=%s|Tier=%d}}", itemNames[i], tier)
}

func statTemplate(i, tier int) (Matcher, string, bool) {
	switch i {
	case 0:
		return TemplateRegion{Name: "WeaponStats"}, fmt.Sprintf("{{WeaponStats|Speed=%d}}", tier), true
	case 1:
		return TemplateRegion{Name: "ArmourStats"}, fmt.Sprintf("{{ArmourStats|Defence=%d}}", tier), true
	}
	return nil, "", false
}

func itemPage(i, tier int, marker string) string {
	s := itemTemplate(i, tier) + "\n"
	if _, stats, ok := statTemplate(i, tier); ok {
		s += stats + "\n"
	}
	return s + marker
}

func lootPage(coins int) string {
	return fmt.Sprintf("<noinclude>Loot</noinclude>\n{|\n| Coins || %d\n|}", coins)
}

func sourcesPage(i int, category string) string {
	return fmt.Sprintf("{{ItemSources|%s}}\n%s", itemNames[i], category)
}

func testItemKind() *ItemKind {
	return &ItemKind{
		Kind: Kind{
			Key:      "items",
			Count:    len(itemNames),
			Title:    func(i int) string { return itemNames[i] },
			Region:   TemplateRegion{Name: "Item"},
			Fill:     func(i int) string { return itemTemplate(i, 2) },
			Generate: func(i int) string { return itemPage(i, 2, currentMarker) },
		},
		Stats: func(i int) (Matcher, string, bool) { return statTemplate(i, 2) },
		SubPages: []SubPage{
			{
				Name:    "loot table",
				Title:   func(i int) string { return "Template:" + itemNames[i] + "LootTable" },
				Applies: func(i int) bool { return i == chestIndex },
				Region:  WikiTable,
				Render:  func(int) string { return "{|\n| Coins || 10\n|}" },
			},
			{
				Name:   "sources",
				Title:  func(i int) string { return "Template:" + itemNames[i] + " Sources" },
				Render: func(i int) string { return sourcesPage(i, "[[Category:v1.2]]") },
				Normalize: func(text string) string {
					return Replace(PatternRegion{Pattern: staleCategory}, text, "[[Category:v1.2]]")
				},
			},
		},
	}
}

// seedItems stores every item page and sub-page.
func seedItems(w *wikitest.Wiki, tier int, marker string, coins int, category string) {
	for i, name := range itemNames {
		w.SetPage(name, itemPage(i, tier, marker))
		w.SetPage("Template:"+name+" Sources", sourcesPage(i, category))
	}
	w.SetPage("Template:ChestLootTable", lootPage(coins))
}

func TestReconcileItemCurrentPages(t *testing.T) {
	w := wikitest.New()
	seedItems(w, 2, currentMarker, 10, "[[Category:v1.2]]")
	engine := NewEngine(w, testVersion(t), nil)
	k := testItemKind()

	for i := range itemNames {
		out, err := engine.ReconcileItem(context.Background(), k, i, true)
		require.NoError(t, err)
		assert.Equal(t, NoChange, out.Verdict, itemNames[i])
		assert.Empty(t, out.Edits)
	}

	assert.Contains(t, w.Fetches, "Template:ChestLootTable")
	assert.NotContains(t, w.Fetches, "Template:DaggerLootTable")
	assert.Contains(t, w.Fetches, "Template:Feather Sources")
}

func TestReconcileItemStatTemplates(t *testing.T) {
	w := wikitest.New()
	seedItems(w, 2, currentMarker, 10, "[[Category:v1.2]]")
	w.SetPage("Dagger", "{{Item|Name=Dagger|Tier=2}}\n{{WeaponStats|Speed=1}}\n"+currentMarker)
	w.SetPage("Helmet", "Trivia.\n{{Item|Name=Helmet|Tier=2}}\n{{ArmourStats|Defence=1}}\n{{V|1.0}}")
	engine := NewEngine(w, testVersion(t), nil)
	k := testItemKind()

	out, err := engine.ReconcileItem(context.Background(), k, 0, false)
	require.NoError(t, err)
	assert.Equal(t, TemplateChangedMatchesDefault, out.Verdict)
	assert.Equal(t, []wiki.Edit{{Name: "Dagger", Content: itemPage(0, 2, currentMarker)}}, out.Edits)

	out, err = engine.ReconcileItem(context.Background(), k, 1, false)
	require.NoError(t, err)
	assert.Equal(t, TemplateChangedManualDataPresent, out.Verdict)
	require.Len(t, out.Edits, 1)
	assert.Equal(t, "Trivia.\n{{Item|Name=Helmet|Tier=2}}\n{{ArmourStats|Defence=2}}\n"+currentMarker, out.Edits[0].Content)
}

func TestReconcileItemSubPageDrift(t *testing.T) {
	ctx := context.Background()

	t.Run("loot drift without sync only reports", func(t *testing.T) {
		w := wikitest.New()
		seedItems(w, 2, currentMarker, 5, "[[Category:v1.2]]")
		engine := NewEngine(w, testVersion(t), nil)

		out, err := engine.ReconcileItem(ctx, testItemKind(), chestIndex, false)
		require.NoError(t, err)
		assert.Equal(t, NoChange, out.Verdict)
		assert.Equal(t, subPageDriftReason, out.Reason)
		assert.Empty(t, out.Edits)
	})

	t.Run("loot drift with sync edits the sub-page", func(t *testing.T) {
		w := wikitest.New()
		seedItems(w, 2, currentMarker, 5, "[[Category:v1.2]]")
		engine := NewEngine(w, testVersion(t), nil)

		out, err := engine.ReconcileItem(ctx, testItemKind(), chestIndex, true)
		require.NoError(t, err)
		assert.Equal(t, TemplateChangedMatchesDefault, out.Verdict)
		assert.Equal(t, []wiki.Edit{{Name: "Template:ChestLootTable", Content: lootPage(10)}}, out.Edits)
	})

	t.Run("main edit comes before sub-page edits", func(t *testing.T) {
		w := wikitest.New()
		seedItems(w, 1, "{{V|1.0}}", 5, "[[Category:v1.2]]")
		engine := NewEngine(w, testVersion(t), nil)

		out, err := engine.ReconcileItem(ctx, testItemKind(), chestIndex, true)
		require.NoError(t, err)
		want := []wiki.Edit{
			{Name: "Chest", Content: itemPage(chestIndex, 2, currentMarker)},
			{Name: "Template:ChestLootTable", Content: lootPage(10)},
		}
		if diff := cmp.Diff(want, out.Edits); diff != "" {
			t.Errorf("edits mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("stale source category alone is not drift", func(t *testing.T) {
		w := wikitest.New()
		seedItems(w, 2, currentMarker, 10, "[[Category:v1.0]]")
		engine := NewEngine(w, testVersion(t), nil)

		out, err := engine.ReconcileItem(ctx, testItemKind(), featherIndex, true)
		require.NoError(t, err)
		assert.Equal(t, NoChange, out.Verdict)
		assert.Empty(t, out.Reason)
	})

	t.Run("source drift is detected", func(t *testing.T) {
		w := wikitest.New()
		seedItems(w, 2, currentMarker, 10, "[[Category:v1.2]]")
		w.SetPage("Template:Feather Sources", "{{ItemSources|Chicken}}\n[[Category:v1.0]]")
		engine := NewEngine(w, testVersion(t), nil)

		out, err := engine.ReconcileItem(ctx, testItemKind(), featherIndex, true)
		require.NoError(t, err)
		assert.Equal(t, []wiki.Edit{{Name: "Template:Feather Sources", Content: sourcesPage(featherIndex, "[[Category:v1.2]]")}}, out.Edits)
	})
}

func TestReconcileItemSubFetchFailure(t *testing.T) {
	w := wikitest.New()
	seedItems(w, 1, "{{V|1.0}}", 10, "[[Category:v1.2]]")
	w.FailFetch("Template:ChestLootTable", "timeout")
	w.SetPage("Template:Chest Sources", "outdated")
	logger, logs := observedLogger()
	engine := NewEngine(w, testVersion(t), logger)

	out, err := engine.ReconcileItem(context.Background(), testItemKind(), chestIndex, true)
	require.NoError(t, err)

	assert.Equal(t, FetchFailed, out.Verdict)
	assert.Equal(t, "loot table: timeout", out.Reason)
	assert.Empty(t, out.Edits)

	// the remaining sub-page was still checked and its drift logged
	assert.Contains(t, w.Fetches, "Template:Chest Sources")
	assert.Equal(t, 1, logs.FilterMessage("sub-page changed").Len())
	assert.Equal(t, 1, logs.FilterMessage("cannot check sub-page").Len())
}

func TestReconcileItemLineBreakCorrection(t *testing.T) {
	ctx := context.Background()
	k := testItemKind()
	k.Generate = func(i int) string { return itemTemplate(i, 2) + "\n\nDescription.\n" + currentMarker }

	t.Run("missing line break is added", func(t *testing.T) {
		w := wikitest.New()
		seedItems(w, 2, currentMarker, 10, "[[Category:v1.2]]")
		w.SetPage("Feather", itemTemplate(featherIndex, 1)+"\nDescription.\n{{V|1.0}}")
		logger, logs := observedLogger()
		engine := NewEngine(w, testVersion(t), logger)

		out, err := engine.ReconcileItem(ctx, k, featherIndex, false)
		require.NoError(t, err)
		assert.Equal(t, TemplateChangedMatchesDefault, out.Verdict)
		require.Len(t, out.Edits, 1)
		assert.Equal(t, k.Generate(featherIndex), out.Edits[0].Content)
		assert.Equal(t, 1, logs.FilterMessage("adding line break after item template").Len())
	})

	t.Run("other whitespace differences are not corrected", func(t *testing.T) {
		w := wikitest.New()
		seedItems(w, 2, currentMarker, 10, "[[Category:v1.2]]")
		w.SetPage("Feather", itemTemplate(featherIndex, 1)+"\nDescription. \n{{V|1.0}}")
		engine := NewEngine(w, testVersion(t), nil)

		out, err := engine.ReconcileItem(ctx, k, featherIndex, false)
		require.NoError(t, err)
		assert.Equal(t, TemplateChangedManualDataPresent, out.Verdict)
		require.Len(t, out.Edits, 1)
		assert.Equal(t, itemTemplate(featherIndex, 2)+"\nDescription. \n"+currentMarker, out.Edits[0].Content)
	})
}
