package gamedata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleData = `
items:
  - name: Bronze Dagger
    media: assets/media/bank/dagger_bronze.svg
    equipment_slot: Weapon
    stats:
      attack_speed: 2200
      stab_bonus: 4
  - name: Bronze Helmet
    media: assets/media/bank/helmet_bronze.svg
    equipment_slot: Helmet
  - name: Bronze Javelin
    media: assets/media/bank/javelin_bronze.svg
    equipment_slot: Quiver
    ammo_type: 2
  - name: Bronze Arrows
    media: assets/media/bank/arrows_bronze.svg
    equipment_slot: Quiver
    ammo_type: 0
  - name: Chest of Witwix
    page: Chest of Witwix (item)
    media: assets/media/bank/chest.svg
    can_open: true
    drop_table:
      - item: Bronze Dagger
        weight: 3
monsters:
  - name: Chicken
    media: assets/media/monsters/chicken.svg
    hitpoints: 3
dungeons:
  - name: Chicken Coop
    media: assets/media/skills/combat/chicken_coop.svg
    monsters: [0]
upgrades:
  tiers:
    - name: bronze
    - name: iron
      cost: 50
  cooking_fires:
    - tier: normal
      media: assets/media/skills/cooking/fire.svg
  auto_eat:
    - title: Auto Eat - Tier I
  god:
    - name: Bob's Rake
      media: assets/media/bank/bobs_rake.svg
`

func writeData(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gamedata.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("loads valid data", func(t *testing.T) {
		ds, err := Load(writeData(t, sampleData))
		require.NoError(t, err)
		assert.Len(t, ds.Items, 5)
		assert.Equal(t, 2200, ds.Items[0].Stats.AttackSpeed)
		assert.Equal(t, []int{0}, ds.Dungeons[0].Monsters)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read game data")
	})

	t.Run("invalid YAML", func(t *testing.T) {
		_, err := Load(writeData(t, "items: [\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse YAML")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		ds      Dataset
		wantErr string
	}{
		{
			name:    "item without name",
			ds:      Dataset{Items: []Item{{Media: "x.svg"}}},
			wantErr: "items[0]: name is required",
		},
		{
			name:    "unknown slot",
			ds:      Dataset{Items: []Item{{Name: "Hat", EquipmentSlot: "Head"}}},
			wantErr: "invalid equipment_slot: Head",
		},
		{
			name:    "ammo type out of range",
			ds:      Dataset{Items: []Item{{Name: "Dart", EquipmentSlot: SlotQuiver, AmmoType: 7}}},
			wantErr: "invalid ammo_type: 7",
		},
		{
			name:    "openable without drop table",
			ds:      Dataset{Items: []Item{{Name: "Chest", CanOpen: true}}},
			wantErr: "can_open requires a drop_table",
		},
		{
			name:    "dungeon references unknown monster",
			ds:      Dataset{Dungeons: []Dungeon{{Name: "Coop", Monsters: []int{2}}}},
			wantErr: "monster index 2 out of range",
		},
		{
			name:    "duplicate titles",
			ds:      Dataset{Items: []Item{{Name: "Feather"}, {Name: "Quill", Page: "Feather"}}},
			wantErr: `duplicate page title "Feather"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ds.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTitles(t *testing.T) {
	ds, err := Load(writeData(t, sampleData))
	require.NoError(t, err)

	tests := []struct {
		kind string
		want []string
	}{
		{KindItems, []string{"Bronze Dagger", "Bronze Helmet", "Bronze Javelin", "Bronze Arrows", "Chest of Witwix (item)"}},
		{KindWeaponStats, []string{"Bronze Dagger", "Bronze Helmet", "Bronze Javelin", "Bronze Arrows", "Chest of Witwix (item)"}},
		{KindMonsters, []string{"Chicken"}},
		{KindDungeons, []string{"Chicken Coop"}},
		{KindAxeUpgrades, []string{"Bronze Axe", "Iron Axe"}},
		{KindPickUpgrades, []string{"Bronze Pickaxe", "Iron Pickaxe"}},
		{KindRodUpgrades, []string{"Bronze Fishing Rod", "Iron Fishing Rod"}},
		{KindFireUpgrades, []string{"Normal Cooking Fire"}},
		{KindEatUpgrades, []string{"Auto Eat - Tier I"}},
		{KindGodUpgrades, []string{"Bob's Rake"}},
		{KindSpells, nil},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			titles, err := ds.Titles(tt.kind)
			require.NoError(t, err)
			assert.Equal(t, tt.want, titles)
		})
	}

	t.Run("unknown kind", func(t *testing.T) {
		_, err := ds.Titles("furniture")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown page kind")
	})
}

func TestStatTemplateSelection(t *testing.T) {
	tests := []struct {
		name       string
		item       Item
		wantWeapon bool
		wantArmour bool
	}{
		{"weapon", Item{EquipmentSlot: SlotWeapon}, true, false},
		{"javelins", Item{EquipmentSlot: SlotQuiver, AmmoType: AmmoJavelins}, true, false},
		{"throwing knives", Item{EquipmentSlot: SlotQuiver, AmmoType: AmmoThrowingKnives}, true, false},
		{"arrows", Item{EquipmentSlot: SlotQuiver, AmmoType: AmmoArrows}, false, true},
		{"helmet", Item{EquipmentSlot: SlotHelmet}, false, true},
		{"not equippable", Item{}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantWeapon, tt.item.UsesWeaponStats())
			assert.Equal(t, tt.wantArmour, tt.item.UsesArmourStats())
		})
	}
}

func TestItemByName(t *testing.T) {
	ds := &Dataset{Items: []Item{{Name: "Feather"}, {Name: "Logs"}}}
	assert.Equal(t, 1, ds.ItemByName("Logs"))
	assert.Equal(t, -1, ds.ItemByName("Gold"))
}

func TestUpperFirst(t *testing.T) {
	assert.Equal(t, "Bronze", UpperFirst("bronze"))
	assert.Equal(t, "", UpperFirst(""))
	assert.Equal(t, "Rune", UpperFirst("Rune"))
}
