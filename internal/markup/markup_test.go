package markup

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyluth/wikisync/internal/gamedata"
	"github.com/dyluth/wikisync/internal/reconcile"
)

func testData() *gamedata.Dataset {
	return &gamedata.Dataset{
		Items: []gamedata.Item{
			{Name: "Bronze Dagger", Media: "assets/bronze_dagger.svg", SellsFor: 5, EquipmentSlot: gamedata.SlotWeapon,
				Stats: gamedata.Stats{AttackSpeed: 2200, StabBonus: 4}},
			{Name: "Bronze Helmet", Media: "assets/bronze_helmet.png", EquipmentSlot: gamedata.SlotHelmet,
				Stats: gamedata.Stats{DefenceBonus: 2}},
			{Name: "Egg Chest", Media: "assets/egg_chest.svg", CanOpen: true,
				DropTable: []gamedata.Drop{{Item: "Egg", Weight: 3, Min: 1, Max: 4}, {Item: "Feather", Weight: 1}}},
			{Name: "Old Boot", Media: "assets/old_boot.svg", IsJunk: true, Sources: []string{"Fishing"}},
			{Name: "Bronze Javelin", Media: "assets/bronze_javelin.svg", EquipmentSlot: gamedata.SlotQuiver,
				AmmoType: gamedata.AmmoJavelins},
		},
		Monsters: []gamedata.Monster{
			{Name: "Chicken", Media: "assets/chicken.svg", Hitpoints: 3,
				Drops: []gamedata.Drop{{Item: "Feather", Weight: 1}}},
			{Name: "Cow", Page: "Cow (monster)", Media: "assets/cow.svg", Hitpoints: 8},
		},
		Dungeons: []gamedata.Dungeon{
			{Name: "Chicken Coop", Media: "assets/coop.svg", Monsters: []int{0, 0}, Rewards: []string{"Egg Chest"}},
		},
		Spells:      []gamedata.Spell{{Name: "Wind Strike", Media: "assets/wind.svg", Level: 1, MaxHit: 20, Runes: []gamedata.RuneCost{{Rune: "Air Rune", Qty: 2}}}},
		Prayers:     []gamedata.Prayer{{Name: "Thick Skin", Media: "assets/skin.svg", Level: 1, Cost: 3}},
		CombatAreas: []gamedata.Area{{Name: "Farmlands", Media: "assets/farm.svg", Monsters: []int{1}}},
		SlayerAreas: []gamedata.Area{{Name: "Dark Cave", Media: "assets/cave.svg", SlayerLevel: 15}},
		ThievingTargets: []gamedata.ThievingTarget{
			{Name: "Farmer", Media: "assets/farmer.svg", Level: 1, XP: 8, MaxCoins: 10},
		},
		Upgrades: gamedata.Upgrades{
			Tiers:        []gamedata.ToolTier{{Name: "iron"}, {Name: "steel", Cost: 750, Level: 10}},
			CookingFires: []gamedata.CookingFire{{Tier: "normal", Media: "assets/fire.svg", Cost: 100, Bonus: 5}},
			AutoEat:      []gamedata.AutoEat{{Title: "Auto Eat - Tier I", Cost: 1000000, Efficiency: 40, Threshold: 20}},
			God:          []gamedata.GodUpgrade{{Name: "Bobs Rake", Media: "assets/rake.svg", Cost: 10, Dungeon: "Chicken Coop"}},
		},
	}
}

func testRenderer() *Renderer {
	return NewRenderer(testData(), Options{
		Version:         "{{V|0.18}}",
		VersionCategory: "[[Category:v0.18]]",
		StaleCategory:   regexp.MustCompile(`\[\[Category:v[\d.]+\]\]`),
	})
}

func TestItemTemplate(t *testing.T) {
	r := testRenderer()

	t.Run("equippable item carries its slot", func(t *testing.T) {
		want := "{{Item\n|name=Bronze Dagger\n|id=0\n|image=Bronze Dagger (item).svg\n|sellsfor=5\n|equipmentslot=Weapon\n}}"
		assert.Equal(t, want, r.ItemTemplate(0))
	})

	t.Run("image extension follows the media file", func(t *testing.T) {
		assert.Contains(t, r.ItemTemplate(1), "|image=Bronze Helmet (item).png")
	})

	t.Run("unequippable item has no slot", func(t *testing.T) {
		assert.NotContains(t, r.ItemTemplate(2), "equipmentslot")
	})
}

func TestStatsTemplate(t *testing.T) {
	r := testRenderer()

	tests := []struct {
		name string
		item int
		want string
		ok   bool
	}{
		{"weapon", 0, "WeaponStats", true},
		{"helmet", 1, "ArmourStats", true},
		{"container", 2, "", false},
		{"javelin", 4, "WeaponStats", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, fill, ok := r.StatsTemplate(tt.item)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, name)
			if ok {
				assert.True(t, strings.HasPrefix(fill, "{{"+tt.want+"\n"))
			}
		})
	}
}

func TestItemPage(t *testing.T) {
	r := testRenderer()

	page := r.ItemPage(0)
	assert.True(t, strings.HasPrefix(page, r.ItemTemplate(0)+"\n"+r.WeaponStatsTemplate(0)+"\n"))
	assert.Contains(t, page, "{{Bronze Dagger Sources}}")
	assert.NotContains(t, page, "LootTable")
	assert.True(t, strings.HasSuffix(page, "{{V|0.18}}"))

	assert.Contains(t, r.ItemPage(2), "==Loot Table==\n{{Egg ChestLootTable}}")
}

func TestLootTable(t *testing.T) {
	r := testRenderer()

	want := "{| class=\"wikitable sortable\"\n" +
		"!Item!!Quantity!!Chance\n" +
		"|-\n|{{ItemIcon|Egg}}||1-4||75.00%\n" +
		"|-\n|{{ItemIcon|Feather}}||1||25.00%\n" +
		"|}"
	assert.Equal(t, want, r.LootTable(2))
	assert.Equal(t, "Template:Egg ChestLootTable", r.LootTableTitle(2))

	start, end, ok := reconcile.WikiTable.Find(r.LootTablePage(2))
	require.True(t, ok)
	assert.Equal(t, want, r.LootTablePage(2)[start:end])
}

func TestSourcesPage(t *testing.T) {
	r := testRenderer()

	page := r.SourcesPage(3)
	assert.Equal(t, "Template:Old Boot Sources", r.SourcesTitle(3))
	assert.Contains(t, page, "|source1=Fishing")
	assert.Contains(t, page, "|junk=yes")
	assert.True(t, strings.HasSuffix(page, "[[Category:v0.18]]</noinclude>"))

	t.Run("stale category is normalized", func(t *testing.T) {
		stale := strings.Replace(page, "[[Category:v0.18]]", "[[Category:v0.17]]", 1)
		assert.Equal(t, page, r.NormalizeSources(stale))
	})

	t.Run("refresh targets are fishing specials and junk", func(t *testing.T) {
		assert.Equal(t, []int{3}, SourceRefreshTargets(r.Data()))
	})
}

func TestMonsterPage(t *testing.T) {
	r := testRenderer()

	chicken := r.MonsterPage(0)
	assert.Contains(t, chicken, "==Locations==\n* [[Chicken Coop]]")
	assert.Contains(t, chicken, "==Loot Table==")

	cow := r.MonsterPage(1)
	assert.Contains(t, cow, "* [[Farmlands]]")
	assert.NotContains(t, cow, "Loot Table")
}

func TestDungeonPage(t *testing.T) {
	r := testRenderer()

	page := r.DungeonPage(0)
	assert.Contains(t, page, "|floors=2")
	assert.Contains(t, page, "==Monsters==\n* [[Chicken]]\n* [[Chicken]]")
	assert.Contains(t, page, "==Rewards==\n* {{ItemIcon|Egg Chest}}")
}

func TestUpgradeTemplates(t *testing.T) {
	r := testRenderer()

	t.Run("tool tiers name the previous tier", func(t *testing.T) {
		got := r.ToolUpgradeTemplate("Axe", 1)
		assert.Contains(t, got, "|name=Steel Axe")
		assert.Contains(t, got, "|requires=Iron Axe")
	})

	t.Run("first tier has no requirement", func(t *testing.T) {
		assert.NotContains(t, r.ToolUpgradeTemplate("Pickaxe", 0), "requires")
	})

	t.Run("percentages", func(t *testing.T) {
		assert.Contains(t, r.FireUpgradeTemplate(0), "|bonus=5%")
		assert.Contains(t, r.EatUpgradeTemplate(0), "|efficiency=40%\n|threshold=20%")
	})

	t.Run("pages carry the upgrade category", func(t *testing.T) {
		assert.Contains(t, r.UpgradePage(r.GodUpgradeTemplate(0)), "[[Category:Upgrades]]\n{{V|0.18}}")
	})
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "Cow (monster).svg", FileName("Cow", "monster", ""))
	assert.Equal(t, "Cow (monster).png", FileName("Cow", "monster", "assets/cow.png"))
}

func TestKinds(t *testing.T) {
	r := testRenderer()
	kinds, err := Kinds(r)
	require.NoError(t, err)

	for _, key := range append(gamedata.Kinds(), gamedata.KindWeaponStats, gamedata.KindArmourStats) {
		assert.Contains(t, kinds, key)
	}

	t.Run("tool upgrades skip the starting tier", func(t *testing.T) {
		for _, key := range []string{gamedata.KindAxeUpgrades, gamedata.KindPickUpgrades, gamedata.KindRodUpgrades} {
			assert.Equal(t, 1, kinds[key].Start, key)
		}
		assert.Equal(t, 0, kinds[gamedata.KindFireUpgrades].Start)
	})

	t.Run("stat kinds filter by template", func(t *testing.T) {
		weapons := kinds[gamedata.KindWeaponStats].Include
		armour := kinds[gamedata.KindArmourStats].Include
		assert.True(t, weapons(0))
		assert.True(t, weapons(4))
		assert.False(t, weapons(1))
		assert.True(t, armour(1))
		assert.False(t, armour(4))
		assert.False(t, armour(2))
	})

	t.Run("titles honour explicit pages", func(t *testing.T) {
		assert.Equal(t, "Cow (monster)", kinds[gamedata.KindMonsters].Title(1))
		assert.Equal(t, "", kinds[gamedata.KindMonsters].Title(7))
	})

	t.Run("fill is found by the region", func(t *testing.T) {
		k := kinds[gamedata.KindSpells]
		page := k.Generate(0)
		start, end, ok := k.Region.Find(page)
		require.True(t, ok)
		assert.Equal(t, k.Fill(0), page[start:end])
	})

	t.Run("upgrade kinds are all registered", func(t *testing.T) {
		for _, key := range UpgradeKinds {
			assert.Contains(t, kinds, key)
		}
	})
}

func TestItemKind(t *testing.T) {
	r := testRenderer()
	k, err := ItemKind(r)
	require.NoError(t, err)

	region, fill, ok := k.Stats(1)
	require.True(t, ok)
	assert.Equal(t, reconcile.TemplateRegion{Name: "ArmourStats"}, region)
	assert.Equal(t, r.ArmourStatsTemplate(1), fill)

	_, _, ok = k.Stats(2)
	assert.False(t, ok)

	require.Len(t, k.SubPages, 2)
	loot := k.SubPages[0]
	assert.False(t, loot.Applies(0))
	assert.True(t, loot.Applies(2))
	assert.Nil(t, k.SubPages[1].Applies)
}
