package catalog_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/arena/internal/game/catalog"
)

func writeContent(t *testing.T, professions, races, items string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "professions.yaml"), []byte(professions), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "races.yaml"), []byte(races), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "items.yaml"), []byte(items), 0644))
	return dir
}

const professionsYAML = `
- name: Warrior
  damage_base: 10
  protection_base: 5
  health_base: 100
`

const racesYAML = `
- name: Human
  damage_modifier: 1
  protection_modifier: 1
  health_modifier: 1
  professions: [Warrior]
`

func TestLoadContent_Valid(t *testing.T) {
	dir := writeContent(t, professionsYAML, racesYAML, `
- name: Sword
  price: 11
  type: sword
  bonus_damage: 3
  professions: [Warrior]
`)
	c, err := catalog.LoadContent(dir)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 1, c.Items[0].LevelRequired, "level_required defaults to 1")
	assert.Equal(t, catalog.SlotWeapon, c.Items[0].Slot())
	assert.Equal(t, []string{"Warrior"}, c.Races[0].Professions)
}

func TestLoadContent_RepositoryContent(t *testing.T) {
	c, err := catalog.LoadContent(filepath.Join("..", "..", "..", "content"))
	require.NoError(t, err)
	assert.NotEmpty(t, c.Professions)
	assert.NotEmpty(t, c.Races)
	assert.NotEmpty(t, c.Items)
}

func TestLoadContent_UnknownProfessionReference(t *testing.T) {
	dir := writeContent(t, professionsYAML, `
- name: Elf
  damage_modifier: 1
  protection_modifier: 1
  health_modifier: 1
  professions: [Mage]
`, "[]")
	_, err := catalog.LoadContent(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown profession "Mage"`)
}

func TestLoadContent_UnknownItemType(t *testing.T) {
	dir := writeContent(t, professionsYAML, racesYAML, `
- name: Spoon
  price: 1
  type: spoon
`)
	_, err := catalog.LoadContent(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown item type "spoon"`)
}

func TestLoadContent_DuplicateName(t *testing.T) {
	dir := writeContent(t, professionsYAML+professionsYAML, racesYAML, "[]")
	_, err := catalog.LoadContent(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "defined twice")
}

func TestLoadContent_MissingFile(t *testing.T) {
	_, err := catalog.LoadContent(t.TempDir())
	assert.Error(t, err)
}

func TestItemDef_Validate_Negatives(t *testing.T) {
	d := &catalog.ItemDef{Name: "Bad", Price: -1, LevelRequired: -2, Type: catalog.TypeRing, BonusHealth: -1}
	err := d.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "price")
	assert.Contains(t, err.Error(), "level_required")
	assert.Contains(t, err.Error(), "bonuses")
}

func TestSlotFor_EveryTypeHasValidSlot(t *testing.T) {
	for _, typ := range []catalog.ItemType{
		catalog.TypeSword, catalog.TypeAxe, catalog.TypeMace, catalog.TypeDagger, catalog.TypeBow, catalog.TypeStaff,
		catalog.TypeLightArmor, catalog.TypeMediumArmor, catalog.TypeHeavyArmor, catalog.TypeRobe, catalog.TypeShield,
		catalog.TypeRing, catalog.TypeAmulet, catalog.TypeCloak, catalog.TypeTrinket,
		catalog.TypeMagicSword, catalog.TypeCrossbow, catalog.TypeAccessory,
	} {
		slot, ok := catalog.SlotFor(typ)
		require.True(t, ok, "type %q", typ)
		assert.True(t, slot.Valid())
	}
	_, ok := catalog.SlotFor("spoon")
	assert.False(t, ok)
}

// Property: SellPrice is floor(price/2) and never exceeds price.
func TestItem_SellPrice_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		price := rapid.IntRange(0, 1_000_000).Draw(rt, "price")
		it := &catalog.Item{Price: price}
		sp := it.SellPrice()
		if sp*2 > price || sp*2+1 < price {
			rt.Fatalf("SellPrice(%d) = %d", price, sp)
		}
	})
}

func TestIDSet_Sorted(t *testing.T) {
	s := catalog.NewIDSet(5, 1, 3)
	assert.Equal(t, []int64{1, 3, 5}, s.Sorted())
	assert.True(t, s.Contains(3))
	assert.False(t, s.Contains(2))
}
