package markup

import (
	"fmt"

	"github.com/dyluth/wikisync/internal/gamedata"
	"github.com/dyluth/wikisync/internal/reconcile"
)

// UpgradeKinds lists the upgrade kinds in the order "update upgrades" runs them.
var UpgradeKinds = []string{
	gamedata.KindAxeUpgrades,
	gamedata.KindPickUpgrades,
	gamedata.KindRodUpgrades,
	gamedata.KindFireUpgrades,
	gamedata.KindEatUpgrades,
	gamedata.KindGodUpgrades,
}

// Kinds builds every named page kind over the renderer's dataset.
func Kinds(r *Renderer) (map[string]*reconcile.Kind, error) {
	kinds := make(map[string]*reconcile.Kind)

	add := func(key, template string, count int, fill, generate func(int) string) error {
		titles, err := r.data.Titles(key)
		if err != nil {
			return err
		}
		kinds[key] = &reconcile.Kind{
			Key:      key,
			Count:    count,
			Title:    lookup(titles),
			Region:   reconcile.TemplateRegion{Name: template},
			Fill:     fill,
			Generate: generate,
		}
		return nil
	}
	upgrade := func(fill func(int) string) func(int) string {
		return func(i int) string { return r.UpgradePage(fill(i)) }
	}
	tool := func(name string) func(int) string {
		return func(i int) string { return r.ToolUpgradeTemplate(name, i) }
	}

	d := r.data
	specs := []struct {
		key, template string
		count         int
		fill, page    func(int) string
	}{
		{gamedata.KindItems, "Item", len(d.Items), r.ItemTemplate, r.ItemPage},
		{gamedata.KindMonsters, "Monster", len(d.Monsters), r.MonsterTemplate, r.MonsterPage},
		{gamedata.KindDungeons, "Dungeon", len(d.Dungeons), r.DungeonTemplate, r.DungeonPage},
		{gamedata.KindSpells, "Spell", len(d.Spells), r.SpellTemplate, r.SpellPage},
		{gamedata.KindPrayers, "Prayer", len(d.Prayers), r.PrayerTemplate, r.PrayerPage},
		{gamedata.KindCombatAreas, "CombatArea", len(d.CombatAreas), r.CombatAreaTemplate, r.CombatAreaPage},
		{gamedata.KindSlayerAreas, "SlayerArea", len(d.SlayerAreas), r.SlayerAreaTemplate, r.SlayerAreaPage},
		{gamedata.KindThievingTargets, "ThievingTarget", len(d.ThievingTargets), r.ThievingTemplate, r.ThievingPage},
		{gamedata.KindAxeUpgrades, "Upgrade", len(d.Upgrades.Tiers), tool("Axe"), upgrade(tool("Axe"))},
		{gamedata.KindPickUpgrades, "Upgrade", len(d.Upgrades.Tiers), tool("Pickaxe"), upgrade(tool("Pickaxe"))},
		{gamedata.KindRodUpgrades, "Upgrade", len(d.Upgrades.Tiers), tool("Fishing Rod"), upgrade(tool("Fishing Rod"))},
		{gamedata.KindFireUpgrades, "Upgrade", len(d.Upgrades.CookingFires), r.FireUpgradeTemplate, upgrade(r.FireUpgradeTemplate)},
		{gamedata.KindEatUpgrades, "Upgrade", len(d.Upgrades.AutoEat), r.EatUpgradeTemplate, upgrade(r.EatUpgradeTemplate)},
		{gamedata.KindGodUpgrades, "Upgrade", len(d.Upgrades.God), r.GodUpgradeTemplate, upgrade(r.GodUpgradeTemplate)},
		{gamedata.KindWeaponStats, "WeaponStats", len(d.Items), r.WeaponStatsTemplate, r.ItemPage},
		{gamedata.KindArmourStats, "ArmourStats", len(d.Items), r.ArmourStatsTemplate, r.ItemPage},
	}
	for _, s := range specs {
		if err := add(s.key, s.template, s.count, s.fill, s.page); err != nil {
			return nil, fmt.Errorf("failed to build kind %s: %w", s.key, err)
		}
	}

	// Tier 0 is the starting tool and has no upgrade page.
	for _, key := range []string{gamedata.KindAxeUpgrades, gamedata.KindPickUpgrades, gamedata.KindRodUpgrades} {
		kinds[key].Start = 1
	}
	kinds[gamedata.KindWeaponStats].Include = func(i int) bool { return d.Items[i].UsesWeaponStats() }
	kinds[gamedata.KindArmourStats].Include = func(i int) bool { return d.Items[i].UsesArmourStats() }

	return kinds, nil
}

// ItemKind builds the multi-template item kind: item infobox, stat block,
// loot table and item sources.
func ItemKind(r *Renderer) (*reconcile.ItemKind, error) {
	titles, err := r.data.Titles(gamedata.KindItems)
	if err != nil {
		return nil, err
	}

	return &reconcile.ItemKind{
		Kind: reconcile.Kind{
			Key:      gamedata.KindItems,
			Count:    len(r.data.Items),
			Title:    lookup(titles),
			Region:   reconcile.TemplateRegion{Name: "Item"},
			Fill:     r.ItemTemplate,
			Generate: r.ItemPage,
		},
		Stats: func(i int) (reconcile.Matcher, string, bool) {
			name, fill, ok := r.StatsTemplate(i)
			if !ok {
				return nil, "", false
			}
			return reconcile.TemplateRegion{Name: name}, fill, true
		},
		SubPages: []reconcile.SubPage{
			{
				Name:    "loot table",
				Title:   r.LootTableTitle,
				Applies: func(i int) bool { return r.data.Items[i].CanOpen },
				Region:  reconcile.WikiTable,
				Render:  r.LootTable,
			},
			{
				Name:      "sources",
				Title:     r.SourcesTitle,
				Render:    r.SourcesPage,
				Normalize: r.NormalizeSources,
			},
		},
	}, nil
}

func lookup(titles []string) func(int) string {
	return func(i int) string {
		if i < 0 || i >= len(titles) {
			return ""
		}
		return titles[i]
	}
}
