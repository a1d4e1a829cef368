package maintenance

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyluth/wikisync/internal/gamedata"
	"github.com/dyluth/wikisync/internal/markup"
	"github.com/dyluth/wikisync/pkg/wiki"
	"github.com/dyluth/wikisync/pkg/wiki/wikitest"
)

func TestRevertByComment(t *testing.T) {
	ctx := context.Background()

	setup := func() *wikitest.Wiki {
		w := wikitest.New()
		w.SetRevisions("Bad", wiki.Revision{RevID: 30, Comment: SectionRemovalComment}, wiki.Revision{RevID: 20, Comment: "manual fix"})
		w.SetRevisions("Twice",
			wiki.Revision{RevID: 50, Comment: SectionRemovalComment},
			wiki.Revision{RevID: 40, Comment: SectionRemovalComment},
			wiki.Revision{RevID: 10, Comment: "created"})
		w.SetRevisions("Fine", wiki.Revision{RevID: 60, Comment: "manual fix"}, wiki.Revision{RevID: 55, Comment: SectionRemovalComment})
		return w
	}

	t.Run("undoes the newest matching revisions", func(t *testing.T) {
		w := setup()
		n, err := NewRunner(nil, false).RevertByComment(ctx, w, []string{"Bad", "Fine"}, SectionRemovalComment, DefaultDepth)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		require.Len(t, w.Undos, 1)
		assert.Equal(t, wikitest.Undo{Title: "Bad", Undo: 30, UndoAfter: 20, Comment: "Reverting: " + SectionRemovalComment}, w.Undos[0])
	})

	t.Run("deeper window covers repeated edits", func(t *testing.T) {
		w := setup()
		n, err := NewRunner(nil, false).RevertByComment(ctx, w, []string{"Twice"}, SectionRemovalComment, 3)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.Equal(t, int64(50), w.Undos[0].Undo)
		assert.Equal(t, int64(10), w.Undos[0].UndoAfter)
	})

	t.Run("skips pages without an earlier revision in the window", func(t *testing.T) {
		w := setup()
		n, err := NewRunner(nil, false).RevertByComment(ctx, w, []string{"Twice"}, SectionRemovalComment, 2)
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Empty(t, w.Undos)
	})

	t.Run("dry run writes nothing", func(t *testing.T) {
		w := setup()
		n, err := NewRunner(nil, true).RevertByComment(ctx, w, []string{"Bad"}, SectionRemovalComment, DefaultDepth)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.Empty(t, w.Undos)
	})

	t.Run("missing pages are reported but do not stop the job", func(t *testing.T) {
		w := setup()
		n, err := NewRunner(nil, false).RevertByComment(ctx, w, []string{"Nowhere", "Bad"}, SectionRemovalComment, DefaultDepth)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `page "Nowhere" does not exist`)
		assert.Equal(t, 1, n)
	})

	t.Run("auth failure stops the job", func(t *testing.T) {
		w := setup()
		w.FailAuth(nil)
		_, err := NewRunner(nil, false).RevertByComment(ctx, w, []string{"Bad"}, SectionRemovalComment, DefaultDepth)
		assert.ErrorIs(t, err, wiki.ErrAuth)
	})

	t.Run("invalid arguments", func(t *testing.T) {
		r := NewRunner(nil, false)
		_, err := r.RevertByComment(ctx, setup(), nil, "", DefaultDepth)
		assert.EqualError(t, err, "comment cannot be empty")
		_, err = r.RevertByComment(ctx, setup(), nil, "x", 1)
		assert.EqualError(t, err, "depth must be at least 2, got 1")
	})
}

func TestRemoveSections(t *testing.T) {
	ctx := context.Background()

	setup := func() *wikitest.Wiki {
		w := wikitest.New()
		w.SetSections("Dagger", "Old Stats", 3, 7)
		w.SetSections("Helmet", "Old Stats", 2)
		return w
	}

	t.Run("blanks the first matching section", func(t *testing.T) {
		w := setup()
		n, err := NewRunner(nil, false).RemoveSections(ctx, w, []string{"Dagger", "Chest", "Helmet"}, "Old Stats")
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		require.Len(t, w.Submits, 1)
		s := w.Submits[0]
		assert.True(t, s.Sections)
		assert.Equal(t, SectionRemovalComment, s.Comment)
		assert.Equal(t, []wiki.Edit{wiki.SectionEdit("Dagger", "", 3), wiki.SectionEdit("Helmet", "", 2)}, s.Edits)
	})

	t.Run("nothing to remove submits nothing", func(t *testing.T) {
		w := setup()
		n, err := NewRunner(nil, false).RemoveSections(ctx, w, []string{"Chest"}, "Old Stats")
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Empty(t, w.Submits)
	})

	t.Run("submit failure", func(t *testing.T) {
		w := setup()
		w.SubmitErr = errors.New("protected")
		_, err := NewRunner(nil, false).RemoveSections(ctx, w, []string{"Dagger"}, "Old Stats")
		assert.EqualError(t, err, "failed to remove 1 sections: protected")
	})

	t.Run("empty heading", func(t *testing.T) {
		_, err := NewRunner(nil, false).RemoveSections(ctx, setup(), []string{"Dagger"}, "")
		assert.Error(t, err)
	})
}

func testData() *gamedata.Dataset {
	return &gamedata.Dataset{
		Items: []gamedata.Item{
			{Name: "Bronze Dagger", Media: "assets/media/bank/dagger_bronze.png"},
			{Name: "Old Boot", Media: "assets/media/bank/old_boot.svg", IsJunk: true, Sources: []string{"Fishing"}},
			{Name: "Treasure Chest", Media: "assets/media/bank/chest.svg", IsFishingSpecial: true},
		},
		Monsters: []gamedata.Monster{
			{Name: "Chicken", Media: "assets/media/monsters/chicken.svg"},
			{Name: "Cow", Media: "assets/media/monsters/cow.svg"},
			{Name: "Unused", Media: "assets/media/monsters/unused.svg"},
		},
		CombatAreas: []gamedata.Area{{Name: "Farmlands", Media: "assets/farm.svg", Monsters: []int{1, 0}}},
		SlayerAreas: []gamedata.Area{{Name: "Dark Cave", Media: "assets/cave.svg"}},
		Dungeons:    []gamedata.Dungeon{{Name: "Coop", Media: "assets/coop.svg", Monsters: []int{0, 0}}},
		Upgrades: gamedata.Upgrades{
			Tiers:   []gamedata.ToolTier{{Name: "iron"}, {Name: "steel"}},
			AutoEat: []gamedata.AutoEat{{Title: "Auto Eat - Tier I"}},
		},
	}
}

func TestRefreshSources(t *testing.T) {
	ctx := context.Background()
	r := markup.NewRenderer(testData(), markup.Options{
		Version:         "{{V|0.18}}",
		VersionCategory: "[[Category:v0.18]]",
		StaleCategory:   regexp.MustCompile(`\[\[Category:v[\d.]+\]\]`),
	})

	w := wikitest.New()
	n, err := NewRunner(nil, false).RefreshSources(ctx, w, r)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.Len(t, w.Submits, 1)
	assert.Equal(t, SourcesComment, w.Submits[0].Comment)
	text, ok := w.Page("Template:Old Boot Sources")
	require.True(t, ok)
	assert.Equal(t, r.SourcesPage(1), text)
	_, ok = w.Page("Template:Treasure Chest Sources")
	assert.True(t, ok)
	_, ok = w.Page("Template:Bronze Dagger Sources")
	assert.False(t, ok)
}

func TestImages(t *testing.T) {
	data := testData()

	t.Run("items keep their media extension", func(t *testing.T) {
		set, err := Images(data, gamedata.KindItems, "https://game.example/")
		require.NoError(t, err)
		assert.Equal(t, "[[Category:Items]]", set.Category)
		assert.Equal(t, Image{
			Filename: "Bronze Dagger (item).png",
			Source:   "https://game.example/assets/media/bank/dagger_bronze.png",
		}, set.Images[0])
	})

	t.Run("monsters are listed once in area order", func(t *testing.T) {
		set, err := Images(data, gamedata.KindMonsters, "https://game.example")
		require.NoError(t, err)
		var names []string
		for _, img := range set.Images {
			names = append(names, img.Filename)
		}
		assert.Equal(t, []string{"Cow (monster).svg", "Chicken (monster).svg"}, names)
	})

	t.Run("combat areas include slayer areas", func(t *testing.T) {
		set, err := Images(data, gamedata.KindCombatAreas, "https://game.example")
		require.NoError(t, err)
		require.Len(t, set.Images, 2)
		assert.Equal(t, "Dark Cave (combatArea).svg", set.Images[1].Filename)
	})

	t.Run("upgrades skip the starting tool tier", func(t *testing.T) {
		set, err := Images(data, KindUpgrades, "https://game.example")
		require.NoError(t, err)
		var names []string
		for _, img := range set.Images {
			names = append(names, img.Filename)
		}
		assert.Equal(t, []string{
			"Steel Axe (upgrade).svg",
			"Steel Fishing Rod (upgrade).svg",
			"Steel Pickaxe (upgrade).svg",
			"Auto Eat - Tier I (upgrade).svg",
		}, names)
		assert.Equal(t, "https://game.example/assets/media/shop/axe_steel.svg", set.Images[0].Source)
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := Images(data, "bosses", "https://game.example")
		assert.ErrorContains(t, err, "no images for kind: bosses")
	})
}

type fakeFetcher struct {
	fail map[string]error
}

func (f fakeFetcher) Download(ctx context.Context, url string) ([]byte, error) {
	if err := f.fail[url]; err != nil {
		return nil, err
	}
	return []byte("<svg>" + url + "</svg>"), nil
}

func TestUploadImages(t *testing.T) {
	ctx := context.Background()
	set := &ImageSet{
		Kind:     gamedata.KindItems,
		Category: "[[Category:Items]]",
		Images: []Image{
			{Filename: "A (item).svg", Source: "https://game.example/a.svg"},
			{Filename: "B (item).svg", Source: "https://game.example/b.svg"},
			{Filename: "C (item).svg", Source: "https://game.example/c.svg"},
		},
	}

	t.Run("uploads every image", func(t *testing.T) {
		w := wikitest.New()
		res, err := NewRunner(nil, false).UploadImages(ctx, w, fakeFetcher{}, set, 2)
		require.NoError(t, err)
		assert.Equal(t, 3, res.Uploaded)
		assert.Empty(t, res.Failed)

		require.Len(t, w.Uploads, 3)
		for _, u := range w.Uploads {
			assert.Equal(t, UploadComment, u.Comment)
			assert.Equal(t, "[[Category:Items]]", u.Text)
			assert.NotEmpty(t, u.Data)
		}
	})

	t.Run("failed images do not stop the batch", func(t *testing.T) {
		w := wikitest.New()
		w.FailUpload("B (item).svg", errors.New("fileexists-no-change"))
		fetch := fakeFetcher{fail: map[string]error{"https://game.example/c.svg": errors.New("HTTP 404")}}

		res, err := NewRunner(nil, false).UploadImages(ctx, w, fetch, set, 1)
		require.Error(t, err)
		assert.Equal(t, 1, res.Uploaded)
		assert.ElementsMatch(t, []string{"B (item).svg", "C (item).svg"}, res.Failed)
	})

	t.Run("auth failure aborts", func(t *testing.T) {
		w := wikitest.New()
		w.FailAuth(nil)
		_, err := NewRunner(nil, false).UploadImages(ctx, w, fakeFetcher{}, set, 2)
		assert.ErrorIs(t, err, wiki.ErrAuth)
		assert.ErrorContains(t, err, "image upload aborted")
	})

	t.Run("dry run uploads nothing", func(t *testing.T) {
		w := wikitest.New()
		res, err := NewRunner(nil, true).UploadImages(ctx, w, fakeFetcher{}, set, 0)
		require.NoError(t, err)
		assert.Zero(t, res.Uploaded)
		assert.Empty(t, w.Uploads)
	})
}
