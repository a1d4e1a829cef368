package gamedata

// EquipmentSlot names the slot an item is worn in. Empty means not equippable.
type EquipmentSlot string

const (
	SlotNone      EquipmentSlot = ""
	SlotHelmet    EquipmentSlot = "Helmet"
	SlotPlatebody EquipmentSlot = "Platebody"
	SlotPlatelegs EquipmentSlot = "Platelegs"
	SlotBoots     EquipmentSlot = "Boots"
	SlotWeapon    EquipmentSlot = "Weapon"
	SlotShield    EquipmentSlot = "Shield"
	SlotAmulet    EquipmentSlot = "Amulet"
	SlotRing      EquipmentSlot = "Ring"
	SlotGloves    EquipmentSlot = "Gloves"
	SlotQuiver    EquipmentSlot = "Quiver"
	SlotCape      EquipmentSlot = "Cape"
)

var validSlots = map[EquipmentSlot]bool{
	SlotNone: true, SlotHelmet: true, SlotPlatebody: true, SlotPlatelegs: true,
	SlotBoots: true, SlotWeapon: true, SlotShield: true, SlotAmulet: true,
	SlotRing: true, SlotGloves: true, SlotQuiver: true, SlotCape: true,
}

// Ammo types for Quiver items.
const (
	AmmoArrows         = 0
	AmmoBolts          = 1
	AmmoJavelins       = 2
	AmmoThrowingKnives = 3
)

// Dataset is the complete, read-only game data for one run.
type Dataset struct {
	Items           []Item           `yaml:"items"`
	Monsters        []Monster        `yaml:"monsters"`
	Dungeons        []Dungeon        `yaml:"dungeons"`
	Spells          []Spell          `yaml:"spells"`
	Prayers         []Prayer         `yaml:"prayers"`
	CombatAreas     []Area           `yaml:"combat_areas"`
	SlayerAreas     []Area           `yaml:"slayer_areas"`
	ThievingTargets []ThievingTarget `yaml:"thieving_targets"`
	Upgrades        Upgrades         `yaml:"upgrades"`
}

// Item is one row of the item table.
type Item struct {
	Name             string        `yaml:"name"`
	Page             string        `yaml:"page,omitempty"` // Overrides the page title
	Media            string        `yaml:"media"`
	Description      string        `yaml:"description,omitempty"`
	Category         string        `yaml:"category,omitempty"`
	Type             string        `yaml:"type,omitempty"`
	SellsFor         int           `yaml:"sells_for,omitempty"`
	EquipmentSlot    EquipmentSlot `yaml:"equipment_slot,omitempty"`
	AmmoType         int           `yaml:"ammo_type,omitempty"`
	CanOpen          bool          `yaml:"can_open,omitempty"`
	IsFishingSpecial bool          `yaml:"is_fishing_special,omitempty"`
	IsJunk           bool          `yaml:"is_junk,omitempty"`
	Stats            Stats         `yaml:"stats,omitempty"`
	DropTable        []Drop        `yaml:"drop_table,omitempty"`
	Sources          []string      `yaml:"sources,omitempty"`
}

// Equippable reports whether the item has an equipment slot.
func (i Item) Equippable() bool {
	return i.EquipmentSlot != SlotNone
}

// UsesWeaponStats reports whether the item page carries the weapon stats
// template. Javelins and throwing knives are quiver items that attack.
func (i Item) UsesWeaponStats() bool {
	switch i.EquipmentSlot {
	case SlotWeapon:
		return true
	case SlotQuiver:
		return i.AmmoType == AmmoJavelins || i.AmmoType == AmmoThrowingKnives
	}
	return false
}

// UsesArmourStats reports whether the item page carries the armour stats template.
func (i Item) UsesArmourStats() bool {
	return i.Equippable() && !i.UsesWeaponStats()
}

// Stats are the combat bonuses and requirements of an equippable item.
type Stats struct {
	AttackSpeed         int `yaml:"attack_speed,omitempty"`
	StabBonus           int `yaml:"stab_bonus,omitempty"`
	SlashBonus          int `yaml:"slash_bonus,omitempty"`
	BlockBonus          int `yaml:"block_bonus,omitempty"`
	StrengthBonus       int `yaml:"strength_bonus,omitempty"`
	RangedAttackBonus   int `yaml:"ranged_attack_bonus,omitempty"`
	RangedStrengthBonus int `yaml:"ranged_strength_bonus,omitempty"`
	MagicAttackBonus    int `yaml:"magic_attack_bonus,omitempty"`
	MagicDamageBonus    int `yaml:"magic_damage_bonus,omitempty"`
	DefenceBonus        int `yaml:"defence_bonus,omitempty"`
	RangedDefenceBonus  int `yaml:"ranged_defence_bonus,omitempty"`
	MagicDefenceBonus   int `yaml:"magic_defence_bonus,omitempty"`
	DamageReduction     int `yaml:"damage_reduction,omitempty"`
	AttackLevel         int `yaml:"attack_level,omitempty"`
	DefenceLevel        int `yaml:"defence_level,omitempty"`
	RangedLevel         int `yaml:"ranged_level,omitempty"`
	MagicLevel          int `yaml:"magic_level,omitempty"`
}

// Drop is one row of a loot table.
type Drop struct {
	Item   string `yaml:"item"`
	Weight int    `yaml:"weight"`
	Min    int    `yaml:"min,omitempty"`
	Max    int    `yaml:"max,omitempty"`
}

// Monster is one row of the monster table.
type Monster struct {
	Name          string `yaml:"name"`
	Page          string `yaml:"page,omitempty"`
	Media         string `yaml:"media"`
	Description   string `yaml:"description,omitempty"`
	Hitpoints     int    `yaml:"hitpoints"`
	AttackType    string `yaml:"attack_type,omitempty"`
	AttackLevel   int    `yaml:"attack_level,omitempty"`
	StrengthLevel int    `yaml:"strength_level,omitempty"`
	DefenceLevel  int    `yaml:"defence_level,omitempty"`
	RangedLevel   int    `yaml:"ranged_level,omitempty"`
	MagicLevel    int    `yaml:"magic_level,omitempty"`
	Bones         string `yaml:"bones,omitempty"`
	Drops         []Drop `yaml:"drops,omitempty"`
}

// Dungeon is one row of the dungeon table. Monsters are indexes into Dataset.Monsters.
type Dungeon struct {
	Name       string   `yaml:"name"`
	Page       string   `yaml:"page,omitempty"`
	Media      string   `yaml:"media"`
	Difficulty string   `yaml:"difficulty,omitempty"`
	Monsters   []int    `yaml:"monsters"`
	Rewards    []string `yaml:"rewards,omitempty"`
}

// Spell is one row of the spell table.
type Spell struct {
	Name   string     `yaml:"name"`
	Page   string     `yaml:"page,omitempty"`
	Media  string     `yaml:"media"`
	Level  int        `yaml:"level"`
	MaxHit int        `yaml:"max_hit"`
	Runes  []RuneCost `yaml:"runes,omitempty"`
}

// RuneCost is one rune requirement of a spell.
type RuneCost struct {
	Rune string `yaml:"rune"`
	Qty  int    `yaml:"qty"`
}

// Prayer is one row of the prayer table.
type Prayer struct {
	Name        string `yaml:"name"`
	Page        string `yaml:"page,omitempty"`
	Media       string `yaml:"media"`
	Level       int    `yaml:"level"`
	Cost        int    `yaml:"cost"`
	Description string `yaml:"description,omitempty"`
}

// Area is a combat or slayer area. Monsters are indexes into Dataset.Monsters.
type Area struct {
	Name         string `yaml:"name"`
	Page         string `yaml:"page,omitempty"`
	Media        string `yaml:"media"`
	Difficulty   string `yaml:"difficulty,omitempty"`
	SlayerLevel  int    `yaml:"slayer_level,omitempty"`
	Requirements string `yaml:"requirements,omitempty"`
	Monsters     []int  `yaml:"monsters"`
}

// ThievingTarget is one NPC that can be pickpocketed.
type ThievingTarget struct {
	Name     string `yaml:"name"`
	Page     string `yaml:"page,omitempty"`
	Media    string `yaml:"media"`
	Level    int    `yaml:"level"`
	XP       int    `yaml:"xp"`
	MaxCoins int    `yaml:"max_coins"`
	Loot     []Drop `yaml:"loot,omitempty"`
}

// Upgrades holds the shop upgrade tables.
type Upgrades struct {
	Tiers        []ToolTier    `yaml:"tiers"`
	CookingFires []CookingFire `yaml:"cooking_fires"`
	AutoEat      []AutoEat     `yaml:"auto_eat"`
	God          []GodUpgrade  `yaml:"god"`
}

// ToolTier is one tier shared by axes, pickaxes and fishing rods.
// Tier 0 is the starting tool and has no upgrade page.
type ToolTier struct {
	Name  string `yaml:"name"`
	Cost  int    `yaml:"cost"`
	Level int    `yaml:"level"`
}

// CookingFire is one cooking fire upgrade.
type CookingFire struct {
	Tier  string `yaml:"tier"`
	Media string `yaml:"media"`
	Cost  int    `yaml:"cost"`
	Level int    `yaml:"level"`
	Bonus int    `yaml:"bonus"`
}

// AutoEat is one auto-eat upgrade.
type AutoEat struct {
	Title      string `yaml:"title"`
	Cost       int    `yaml:"cost"`
	Efficiency int    `yaml:"efficiency"`
	Threshold  int    `yaml:"threshold"`
}

// GodUpgrade is one upgrade unlocked by completing a god dungeon.
type GodUpgrade struct {
	Name        string `yaml:"name"`
	Media       string `yaml:"media"`
	Cost        int    `yaml:"cost"`
	Dungeon     string `yaml:"dungeon"`
	Description string `yaml:"description,omitempty"`
}
