package markup

import (
	"strconv"
	"strings"

	"github.com/dyluth/wikisync/internal/gamedata"
)

// MonsterTemplate renders the {{Monster}} infobox of monster i.
func (r *Renderer) MonsterTemplate(i int) string {
	m := r.data.Monsters[i]
	return newTemplate("Monster").
		param("name", m.Name).
		param("id", i).
		param("image", FileName(m.Name, "monster", m.Media)).
		optional("description", m.Description).
		param("hitpoints", m.Hitpoints).
		optional("attacktype", m.AttackType).
		param("attacklevel", m.AttackLevel).
		param("strengthlevel", m.StrengthLevel).
		param("defencelevel", m.DefenceLevel).
		param("rangedlevel", m.RangedLevel).
		param("magiclevel", m.MagicLevel).
		optional("bones", m.Bones).
		String()
}

// MonsterPage renders the canonical page of monster i.
func (r *Renderer) MonsterPage(i int) string {
	m := r.data.Monsters[i]
	sections := []string{r.MonsterTemplate(i), heading("Locations"), r.monsterLocations(i)}
	if len(m.Drops) > 0 {
		sections = append(sections, heading("Loot Table"), r.dropTable(m.Drops))
	}
	return r.page(sections...)
}

// monsterLocations lists every area and dungeon monster i appears in.
func (r *Renderer) monsterLocations(i int) string {
	var lines []string
	add := func(title string, ids []int) {
		for _, id := range ids {
			if id == i {
				lines = append(lines, "* [["+title+"]]")
				return
			}
		}
	}
	for _, a := range r.data.CombatAreas {
		add(titleOf(a.Page, a.Name), a.Monsters)
	}
	for _, a := range r.data.SlayerAreas {
		add(titleOf(a.Page, a.Name), a.Monsters)
	}
	for _, d := range r.data.Dungeons {
		add(titleOf(d.Page, d.Name), d.Monsters)
	}
	if len(lines) == 0 {
		return "None"
	}
	return strings.Join(lines, "\n")
}

// DungeonTemplate renders the {{Dungeon}} infobox of dungeon i.
func (r *Renderer) DungeonTemplate(i int) string {
	d := r.data.Dungeons[i]
	return newTemplate("Dungeon").
		param("name", d.Name).
		param("id", i).
		param("image", FileName(d.Name, "dungeon", d.Media)).
		optional("difficulty", d.Difficulty).
		param("floors", len(d.Monsters)).
		String()
}

// DungeonPage renders the canonical page of dungeon i.
func (r *Renderer) DungeonPage(i int) string {
	d := r.data.Dungeons[i]
	sections := []string{r.DungeonTemplate(i), heading("Monsters"), r.monsterList(d.Monsters)}
	if len(d.Rewards) > 0 {
		rewards := make([]string, 0, len(d.Rewards))
		for _, item := range d.Rewards {
			rewards = append(rewards, "* {{ItemIcon|"+item+"}}")
		}
		sections = append(sections, heading("Rewards"), strings.Join(rewards, "\n"))
	}
	return r.page(sections...)
}

// SpellTemplate renders the {{Spell}} infobox of spell i.
func (r *Renderer) SpellTemplate(i int) string {
	s := r.data.Spells[i]
	runes := make([]string, 0, len(s.Runes))
	for _, rc := range s.Runes {
		runes = append(runes, "{{ItemIcon|"+rc.Rune+"|qty="+strconv.Itoa(rc.Qty)+"}}")
	}
	return newTemplate("Spell").
		param("name", s.Name).
		param("id", i).
		param("image", FileName(s.Name, "spell", s.Media)).
		param("level", s.Level).
		param("maxhit", s.MaxHit).
		param("runes", strings.Join(runes, ", ")).
		String()
}

// SpellPage renders the canonical page of spell i.
func (r *Renderer) SpellPage(i int) string {
	return r.page(r.SpellTemplate(i))
}

// PrayerTemplate renders the {{Prayer}} infobox of prayer i.
func (r *Renderer) PrayerTemplate(i int) string {
	p := r.data.Prayers[i]
	return newTemplate("Prayer").
		param("name", p.Name).
		param("id", i).
		param("image", FileName(p.Name, "prayer", p.Media)).
		param("level", p.Level).
		param("cost", p.Cost).
		optional("description", p.Description).
		String()
}

// PrayerPage renders the canonical page of prayer i.
func (r *Renderer) PrayerPage(i int) string {
	return r.page(r.PrayerTemplate(i))
}

// CombatAreaTemplate renders the {{CombatArea}} infobox of combat area i.
func (r *Renderer) CombatAreaTemplate(i int) string {
	a := r.data.CombatAreas[i]
	return newTemplate("CombatArea").
		param("name", a.Name).
		param("id", i).
		param("image", FileName(a.Name, "combatArea", a.Media)).
		optional("difficulty", a.Difficulty).
		String()
}

// CombatAreaPage renders the canonical page of combat area i.
func (r *Renderer) CombatAreaPage(i int) string {
	return r.page(r.CombatAreaTemplate(i), heading("Monsters"), r.monsterList(r.data.CombatAreas[i].Monsters))
}

// SlayerAreaTemplate renders the {{SlayerArea}} infobox of slayer area i.
func (r *Renderer) SlayerAreaTemplate(i int) string {
	a := r.data.SlayerAreas[i]
	return newTemplate("SlayerArea").
		param("name", a.Name).
		param("id", i).
		param("image", FileName(a.Name, "combatArea", a.Media)).
		optional("difficulty", a.Difficulty).
		param("slayerlevel", a.SlayerLevel).
		optional("requirements", a.Requirements).
		String()
}

// SlayerAreaPage renders the canonical page of slayer area i.
func (r *Renderer) SlayerAreaPage(i int) string {
	return r.page(r.SlayerAreaTemplate(i), heading("Monsters"), r.monsterList(r.data.SlayerAreas[i].Monsters))
}

// ThievingTemplate renders the {{ThievingTarget}} infobox of target i.
func (r *Renderer) ThievingTemplate(i int) string {
	t := r.data.ThievingTargets[i]
	return newTemplate("ThievingTarget").
		param("name", t.Name).
		param("id", i).
		param("image", FileName(t.Name, "thieving", t.Media)).
		param("level", t.Level).
		param("xp", t.XP).
		param("maxcoins", t.MaxCoins).
		String()
}

// ThievingPage renders the canonical page of thieving target i.
func (r *Renderer) ThievingPage(i int) string {
	t := r.data.ThievingTargets[i]
	sections := []string{r.ThievingTemplate(i)}
	if len(t.Loot) > 0 {
		sections = append(sections, heading("Loot Table"), r.dropTable(t.Loot))
	}
	return r.page(sections...)
}

// ToolUpgradeTemplate renders the {{Upgrade}} infobox of tool tier i.
// tool is "Axe", "Pickaxe" or "Fishing Rod".
func (r *Renderer) ToolUpgradeTemplate(tool string, i int) string {
	t := r.data.Upgrades.Tiers[i]
	name := gamedata.UpperFirst(t.Name) + " " + tool
	c := newTemplate("Upgrade").
		param("name", name).
		param("image", name+" (upgrade).svg").
		param("cost", t.Cost).
		param("level", t.Level)
	if i > 0 {
		c.param("requires", gamedata.UpperFirst(r.data.Upgrades.Tiers[i-1].Name)+" "+tool)
	}
	return c.String()
}

// FireUpgradeTemplate renders the {{Upgrade}} infobox of cooking fire i.
func (r *Renderer) FireUpgradeTemplate(i int) string {
	f := r.data.Upgrades.CookingFires[i]
	name := gamedata.UpperFirst(f.Tier) + " Cooking Fire"
	return newTemplate("Upgrade").
		param("name", name).
		param("image", FileName(name, "upgrade", f.Media)).
		param("cost", f.Cost).
		param("level", f.Level).
		param("bonus", strconv.Itoa(f.Bonus)+"%").
		String()
}

// EatUpgradeTemplate renders the {{Upgrade}} infobox of auto eat tier i.
func (r *Renderer) EatUpgradeTemplate(i int) string {
	a := r.data.Upgrades.AutoEat[i]
	return newTemplate("Upgrade").
		param("name", a.Title).
		param("image", a.Title+" (upgrade).svg").
		param("cost", a.Cost).
		param("efficiency", strconv.Itoa(a.Efficiency)+"%").
		param("threshold", strconv.Itoa(a.Threshold)+"%").
		String()
}

// GodUpgradeTemplate renders the {{Upgrade}} infobox of god upgrade i.
func (r *Renderer) GodUpgradeTemplate(i int) string {
	g := r.data.Upgrades.God[i]
	return newTemplate("Upgrade").
		param("name", g.Name).
		param("image", FileName(g.Name, "upgrade", g.Media)).
		param("cost", g.Cost).
		param("dungeon", "[["+g.Dungeon+"]]").
		optional("description", g.Description).
		String()
}

// UpgradePage wraps an upgrade infobox into its canonical page.
func (r *Renderer) UpgradePage(template string) string {
	return r.page(template, "[[Category:Upgrades]]")
}

func titleOf(page, name string) string {
	if page != "" {
		return page
	}
	return name
}
