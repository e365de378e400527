// Package character defines the character domain model: derived stats,
// experience and leveling, and validated creation.
package character

import (
	"sort"
	"time"

	"github.com/cory-johannsen/arena/internal/game/catalog"
)

// Player is an account that owns characters.
type Player struct {
	ID            int64
	Username      string
	MaxCharacters int
	CreatedAt     time.Time
}

// Stats holds the derived combat values of a character.
type Stats struct {
	Damage     int
	Protection int
	Health     int
}

// Equipment holds the item equipped in each slot, or nil when the slot is empty.
type Equipment struct {
	Weapon    *catalog.Item
	Armor     *catalog.Item
	Accessory *catalog.Item
}

// Get returns the item in slot, or nil.
func (e *Equipment) Get(slot catalog.Slot) *catalog.Item {
	switch slot {
	case catalog.SlotWeapon:
		return e.Weapon
	case catalog.SlotArmor:
		return e.Armor
	case catalog.SlotAccessory:
		return e.Accessory
	}
	return nil
}

// Set places item (which may be nil) in slot.
//
// Precondition: slot is valid.
func (e *Equipment) Set(slot catalog.Slot, item *catalog.Item) {
	switch slot {
	case catalog.SlotWeapon:
		e.Weapon = item
	case catalog.SlotArmor:
		e.Armor = item
	case catalog.SlotAccessory:
		e.Accessory = item
	}
}

// Items returns the equipped items in slot order, skipping empty slots.
func (e *Equipment) Items() []*catalog.Item {
	out := make([]*catalog.Item, 0, len(catalog.Slots))
	for _, s := range catalog.Slots {
		if it := e.Get(s); it != nil {
			out = append(out, it)
		}
	}
	return out
}

// Holds reports whether itemID is equipped in any slot.
func (e *Equipment) Holds(itemID int64) bool {
	for _, it := range e.Items() {
		if it.ID == itemID {
			return true
		}
	}
	return false
}

// Inventory is the set of owned, unequipped items keyed by item ID.
type Inventory map[int64]*catalog.Item

// Contains reports whether itemID is in the inventory.
func (inv Inventory) Contains(itemID int64) bool {
	_, ok := inv[itemID]
	return ok
}

// Items returns the inventory sorted by item ID.
func (inv Inventory) Items() []*catalog.Item {
	out := make([]*catalog.Item, 0, len(inv))
	for _, it := range inv {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Character is a player-owned combatant.
//
// ID and timestamps are set by the persistence layer; zero values indicate an unsaved character.
// Level and Experience change only through AddExp; Stats only through RecomputeStats.
type Character struct {
	ID       int64
	PlayerID int64

	Name       string
	Race       *catalog.Race
	Profession *catalog.Profession
	Level      int
	Experience int
	Gold       int

	Equipment Equipment
	Inventory Inventory
	Stats     Stats

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone returns a copy whose inventory can be mutated independently.
// Catalog entries are shared; they are immutable reference data.
func (c *Character) Clone() *Character {
	out := *c
	out.Inventory = make(Inventory, len(c.Inventory))
	for id, it := range c.Inventory {
		out.Inventory[id] = it
	}
	return &out
}

// Owns reports whether itemID is equipped or in the inventory.
func (c *Character) Owns(itemID int64) bool {
	return c.Inventory.Contains(itemID) || c.Equipment.Holds(itemID)
}
