package gamedata

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Page kind keys. They name both the entity table and the page title list.
const (
	KindItems           = "items"
	KindMonsters        = "monsters"
	KindDungeons        = "dungeons"
	KindSpells          = "spells"
	KindPrayers         = "prayers"
	KindCombatAreas     = "combatAreas"
	KindSlayerAreas     = "slayerAreas"
	KindThievingTargets = "thievingTargets"
	KindAxeUpgrades     = "axeUpgrades"
	KindPickUpgrades    = "pickUpgrades"
	KindRodUpgrades     = "rodUpgrades"
	KindFireUpgrades    = "fireUpgrades"
	KindEatUpgrades     = "eatUpgrades"
	KindGodUpgrades     = "godUpgrades"
	KindWeaponStats     = "weaponStats"
	KindArmourStats     = "armourStats"
)

// Load reads and validates a game data file.
func Load(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read game data: %w", err)
	}

	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := ds.Validate(); err != nil {
		return nil, fmt.Errorf("invalid game data: %w", err)
	}

	return &ds, nil
}

// Validate checks names, cross references and title uniqueness.
func (d *Dataset) Validate() error {
	for i, item := range d.Items {
		if item.Name == "" {
			return fmt.Errorf("items[%d]: name is required", i)
		}
		if !validSlots[item.EquipmentSlot] {
			return fmt.Errorf("items[%d] (%s): invalid equipment_slot: %s", i, item.Name, item.EquipmentSlot)
		}
		if item.AmmoType < AmmoArrows || item.AmmoType > AmmoThrowingKnives {
			return fmt.Errorf("items[%d] (%s): invalid ammo_type: %d (must be 0-3)", i, item.Name, item.AmmoType)
		}
		if item.CanOpen && len(item.DropTable) == 0 {
			return fmt.Errorf("items[%d] (%s): can_open requires a drop_table", i, item.Name)
		}
		for _, drop := range item.DropTable {
			if drop.Weight < 0 {
				return fmt.Errorf("items[%d] (%s): drop %s has negative weight", i, item.Name, drop.Item)
			}
		}
	}

	for i, m := range d.Monsters {
		if m.Name == "" {
			return fmt.Errorf("monsters[%d]: name is required", i)
		}
	}
	for i, dungeon := range d.Dungeons {
		if dungeon.Name == "" {
			return fmt.Errorf("dungeons[%d]: name is required", i)
		}
		if err := d.checkMonsters("dungeons", i, dungeon.Monsters); err != nil {
			return err
		}
	}
	for i, s := range d.Spells {
		if s.Name == "" {
			return fmt.Errorf("spells[%d]: name is required", i)
		}
	}
	for i, p := range d.Prayers {
		if p.Name == "" {
			return fmt.Errorf("prayers[%d]: name is required", i)
		}
	}
	for i, a := range d.CombatAreas {
		if a.Name == "" {
			return fmt.Errorf("combat_areas[%d]: name is required", i)
		}
		if err := d.checkMonsters("combat_areas", i, a.Monsters); err != nil {
			return err
		}
	}
	for i, a := range d.SlayerAreas {
		if a.Name == "" {
			return fmt.Errorf("slayer_areas[%d]: name is required", i)
		}
		if err := d.checkMonsters("slayer_areas", i, a.Monsters); err != nil {
			return err
		}
	}
	for i, t := range d.ThievingTargets {
		if t.Name == "" {
			return fmt.Errorf("thieving_targets[%d]: name is required", i)
		}
	}
	for i, t := range d.Upgrades.Tiers {
		if t.Name == "" {
			return fmt.Errorf("upgrades.tiers[%d]: name is required", i)
		}
	}

	for _, kind := range Kinds() {
		titles, _ := d.Titles(kind)
		seen := make(map[string]int, len(titles))
		for i, title := range titles {
			if prev, ok := seen[title]; ok {
				return fmt.Errorf("%s: duplicate page title %q (entries %d and %d)", kind, title, prev, i)
			}
			seen[title] = i
		}
	}

	return nil
}

func (d *Dataset) checkMonsters(table string, index int, ids []int) error {
	for _, id := range ids {
		if id < 0 || id >= len(d.Monsters) {
			return fmt.Errorf("%s[%d]: monster index %d out of range (have %d monsters)", table, index, id, len(d.Monsters))
		}
	}
	return nil
}

// Kinds returns every page kind key that has its own title list, in the
// order the update commands process them.
func Kinds() []string {
	return []string{
		KindItems, KindMonsters, KindDungeons, KindSpells, KindPrayers,
		KindCombatAreas, KindSlayerAreas, KindThievingTargets,
		KindAxeUpgrades, KindPickUpgrades, KindRodUpgrades,
		KindFireUpgrades, KindEatUpgrades, KindGodUpgrades,
	}
}

// Titles returns the page title lookup table for kind: entry i is the wiki
// page of entity i. Stat kinds share the item titles.
func (d *Dataset) Titles(kind string) ([]string, error) {
	var titles []string
	switch kind {
	case KindItems, KindWeaponStats, KindArmourStats:
		for _, it := range d.Items {
			titles = append(titles, pageTitle(it.Page, it.Name))
		}
	case KindMonsters:
		for _, m := range d.Monsters {
			titles = append(titles, pageTitle(m.Page, m.Name))
		}
	case KindDungeons:
		for _, dg := range d.Dungeons {
			titles = append(titles, pageTitle(dg.Page, dg.Name))
		}
	case KindSpells:
		for _, s := range d.Spells {
			titles = append(titles, pageTitle(s.Page, s.Name))
		}
	case KindPrayers:
		for _, p := range d.Prayers {
			titles = append(titles, pageTitle(p.Page, p.Name))
		}
	case KindCombatAreas:
		for _, a := range d.CombatAreas {
			titles = append(titles, pageTitle(a.Page, a.Name))
		}
	case KindSlayerAreas:
		for _, a := range d.SlayerAreas {
			titles = append(titles, pageTitle(a.Page, a.Name))
		}
	case KindThievingTargets:
		for _, t := range d.ThievingTargets {
			titles = append(titles, pageTitle(t.Page, t.Name))
		}
	case KindAxeUpgrades:
		titles = d.toolTitles("Axe")
	case KindPickUpgrades:
		titles = d.toolTitles("Pickaxe")
	case KindRodUpgrades:
		titles = d.toolTitles("Fishing Rod")
	case KindFireUpgrades:
		for _, f := range d.Upgrades.CookingFires {
			titles = append(titles, UpperFirst(f.Tier)+" Cooking Fire")
		}
	case KindEatUpgrades:
		for _, a := range d.Upgrades.AutoEat {
			titles = append(titles, a.Title)
		}
	case KindGodUpgrades:
		for _, g := range d.Upgrades.God {
			titles = append(titles, g.Name)
		}
	default:
		return nil, fmt.Errorf("unknown page kind: %s", kind)
	}
	return titles, nil
}

func (d *Dataset) toolTitles(tool string) []string {
	titles := make([]string, 0, len(d.Upgrades.Tiers))
	for _, t := range d.Upgrades.Tiers {
		titles = append(titles, UpperFirst(t.Name)+" "+tool)
	}
	return titles
}

// ItemByName returns the index of the item called name, or -1.
func (d *Dataset) ItemByName(name string) int {
	for i, it := range d.Items {
		if it.Name == name {
			return i
		}
	}
	return -1
}

// UpperFirst upper-cases the first letter of s ("bronze" -> "Bronze").
func UpperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func pageTitle(page, name string) string {
	if page != "" {
		return page
	}
	return name
}

// Title is the wiki page title of the item.
func (i Item) Title() string {
	return pageTitle(i.Page, i.Name)
}

// Title is the wiki page title of the monster.
func (m Monster) Title() string {
	return pageTitle(m.Page, m.Name)
}
