package markup

import (
	"strconv"

	"github.com/dyluth/wikisync/internal/gamedata"
	"github.com/dyluth/wikisync/internal/reconcile"
)

// ItemTemplate renders the {{Item}} infobox of item i.
func (r *Renderer) ItemTemplate(i int) string {
	it := r.data.Items[i]
	c := newTemplate("Item").
		param("name", it.Name).
		param("id", i).
		param("image", FileName(it.Name, "item", it.Media)).
		optional("description", it.Description).
		optional("category", it.Category).
		optional("type", it.Type).
		param("sellsfor", it.SellsFor)
	if it.Equippable() {
		c.param("equipmentslot", string(it.EquipmentSlot))
	}
	return c.String()
}

// WeaponStatsTemplate renders the {{WeaponStats}} block of item i.
func (r *Renderer) WeaponStatsTemplate(i int) string {
	s := r.data.Items[i].Stats
	return newTemplate("WeaponStats").
		param("attackspeed", s.AttackSpeed).
		param("stabbonus", s.StabBonus).
		param("slashbonus", s.SlashBonus).
		param("blockbonus", s.BlockBonus).
		param("strengthbonus", s.StrengthBonus).
		param("rangedattackbonus", s.RangedAttackBonus).
		param("rangedstrengthbonus", s.RangedStrengthBonus).
		param("magicattackbonus", s.MagicAttackBonus).
		param("magicdamagebonus", s.MagicDamageBonus).
		optional("attacklevel", s.AttackLevel).
		optional("rangedlevel", s.RangedLevel).
		optional("magiclevel", s.MagicLevel).
		String()
}

// ArmourStatsTemplate renders the {{ArmourStats}} block of item i.
func (r *Renderer) ArmourStatsTemplate(i int) string {
	s := r.data.Items[i].Stats
	return newTemplate("ArmourStats").
		param("strengthbonus", s.StrengthBonus).
		param("rangedstrengthbonus", s.RangedStrengthBonus).
		param("magicdamagebonus", s.MagicDamageBonus).
		param("defencebonus", s.DefenceBonus).
		param("rangeddefencebonus", s.RangedDefenceBonus).
		param("magicdefencebonus", s.MagicDefenceBonus).
		param("damagereduction", s.DamageReduction).
		optional("defencelevel", s.DefenceLevel).
		optional("rangedlevel", s.RangedLevel).
		optional("magiclevel", s.MagicLevel).
		String()
}

// StatsTemplate returns the stat template item i carries and its name,
// or ok=false when the item is not equippable.
func (r *Renderer) StatsTemplate(i int) (name, markup string, ok bool) {
	it := r.data.Items[i]
	switch {
	case it.UsesWeaponStats():
		return "WeaponStats", r.WeaponStatsTemplate(i), true
	case it.UsesArmourStats():
		return "ArmourStats", r.ArmourStatsTemplate(i), true
	}
	return "", "", false
}

// LootTableTitle is the template page that holds the loot table of item i.
func (r *Renderer) LootTableTitle(i int) string {
	return "Template:" + r.data.Items[i].Name + "LootTable"
}

// LootTable renders the drop table of an openable item.
func (r *Renderer) LootTable(i int) string {
	return r.dropTable(r.data.Items[i].DropTable)
}

// SourcesTitle is the template page listing where item i comes from.
func (r *Renderer) SourcesTitle(i int) string {
	return "Template:" + r.data.Items[i].Name + " Sources"
}

// SourcesPage renders the complete source template page of item i.
func (r *Renderer) SourcesPage(i int) string {
	it := r.data.Items[i]
	c := newTemplate("ItemSources")
	for n, src := range it.Sources {
		c.param(sourceKey(n), src)
	}
	if it.IsFishingSpecial {
		c.param("fishingspecial", "yes")
	}
	if it.IsJunk {
		c.param("junk", "yes")
	}
	return c.String() + "<noinclude>[[Category:Item Source Templates]]" + r.opts.VersionCategory + "</noinclude>"
}

func sourceKey(n int) string {
	return "source" + strconv.Itoa(n+1)
}

// NormalizeSources rewrites a stale version category so that a sources
// page that only differs by category is not treated as drift.
func (r *Renderer) NormalizeSources(text string) string {
	return reconcile.VersionMarker{Stale: r.opts.StaleCategory, Current: r.opts.VersionCategory}.Bump(text)
}

// ItemPage renders the canonical page of item i.
func (r *Renderer) ItemPage(i int) string {
	it := r.data.Items[i]
	_, stats, _ := r.StatsTemplate(i)

	sections := []string{
		r.ItemTemplate(i),
		stats,
		heading("Item Sources"),
		"{{" + it.Name + " Sources}}",
	}
	if it.CanOpen {
		sections = append(sections, heading("Loot Table"), "{{"+it.Name+"LootTable}}")
	}
	return r.page(sections...)
}

// LootTablePage renders a fresh loot table template page.
func (r *Renderer) LootTablePage(i int) string {
	return "<noinclude>[[Category:Loot Table Templates]]</noinclude>\n" + r.LootTable(i)
}

// SourceRefreshTargets returns the items whose source templates are
// rebuilt wholesale: fishing specials and junk.
func SourceRefreshTargets(data *gamedata.Dataset) []int {
	var ids []int
	for i, it := range data.Items {
		if it.IsFishingSpecial || it.IsJunk {
			ids = append(ids, i)
		}
	}
	return ids
}
