// Package catalog defines the administrator-managed reference data of the
// arena: races, professions and items.
package catalog

import (
	"fmt"
	"sort"
)

// Slot identifies one of the three equipment slots of a character.
type Slot string

const (
	SlotWeapon    Slot = "weapon"
	SlotArmor     Slot = "armor"
	SlotAccessory Slot = "accessory"
)

// Slots lists every slot in display order.
var Slots = []Slot{SlotWeapon, SlotArmor, SlotAccessory}

// Valid reports whether s is a known slot.
func (s Slot) Valid() bool {
	switch s {
	case SlotWeapon, SlotArmor, SlotAccessory:
		return true
	}
	return false
}

// ItemType refines a slot, e.g. sword or heavy_armor.
type ItemType string

const (
	TypeSword       ItemType = "sword"
	TypeAxe         ItemType = "axe"
	TypeMace        ItemType = "mace"
	TypeDagger      ItemType = "dagger"
	TypeBow         ItemType = "bow"
	TypeStaff       ItemType = "staff"
	TypeMagicSword  ItemType = "magic_sword"
	TypeCrossbow    ItemType = "crossbow"
	TypeLightArmor  ItemType = "light_armor"
	TypeMediumArmor ItemType = "medium_armor"
	TypeHeavyArmor  ItemType = "heavy_armor"
	TypeRobe        ItemType = "robe"
	TypeShield      ItemType = "shield"
	TypeRing        ItemType = "ring"
	TypeAmulet      ItemType = "amulet"
	TypeCloak       ItemType = "cloak"
	TypeTrinket     ItemType = "trinket"
	TypeAccessory   ItemType = "accessory"
)

var typeSlots = map[ItemType]Slot{
	TypeSword:       SlotWeapon,
	TypeAxe:         SlotWeapon,
	TypeMace:        SlotWeapon,
	TypeDagger:      SlotWeapon,
	TypeBow:         SlotWeapon,
	TypeStaff:       SlotWeapon,
	TypeMagicSword:  SlotWeapon,
	TypeCrossbow:    SlotWeapon,
	TypeLightArmor:  SlotArmor,
	TypeMediumArmor: SlotArmor,
	TypeHeavyArmor:  SlotArmor,
	TypeRobe:        SlotArmor,
	TypeShield:      SlotArmor,
	TypeRing:        SlotAccessory,
	TypeAmulet:      SlotAccessory,
	TypeCloak:       SlotAccessory,
	TypeTrinket:     SlotAccessory,
	TypeAccessory:   SlotAccessory,
}

// SlotFor returns the slot an item type occupies.
//
// Postcondition: ok is false iff t is not a known type.
func SlotFor(t ItemType) (Slot, bool) {
	s, ok := typeSlots[t]
	return s, ok
}

// IDSet is a snapshot of a many-to-many relation, keyed by the related row ID.
type IDSet map[int64]struct{}

// NewIDSet builds a set from ids.
func NewIDSet(ids ...int64) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Contains reports membership.
func (s IDSet) Contains(id int64) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the members in ascending order.
func (s IDSet) Sorted() []int64 {
	out := make([]int64, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Profession is a character class with base combat values.
type Profession struct {
	ID             int64
	Name           string
	Description    string
	DamageBase     int
	ProtectionBase int
	HealthBase     int
}

// Race scales a character's stats and restricts which professions it may take.
type Race struct {
	ID                 int64
	Name               string
	Description        string
	DamageModifier     float64
	ProtectionModifier float64
	HealthModifier     float64
	Professions        IDSet
}

// Allows reports whether a character of this race may take profession p.
func (r *Race) Allows(professionID int64) bool {
	return r.Professions.Contains(professionID)
}

// Item is a piece of equipment that can be bought, sold and equipped.
type Item struct {
	ID              int64
	Name            string
	Price           int
	LevelRequired   int
	Slot            Slot
	Type            ItemType
	BonusDamage     int
	BonusProtection int
	BonusHealth     int
	Professions     IDSet
}

// SellPrice is half the purchase price, rounded down.
func (i *Item) SellPrice() int {
	return i.Price / 2
}

// Allows reports whether characters of profession p may equip the item.
func (i *Item) Allows(professionID int64) bool {
	return i.Professions.Contains(professionID)
}

// String returns "name (#id)".
func (i *Item) String() string {
	return fmt.Sprintf("%s (#%d)", i.Name, i.ID)
}

// Snapshot is the complete reference data at one point in time.
type Snapshot struct {
	Professions []*Profession
	Races       []*Race
	Items       []*Item
}
