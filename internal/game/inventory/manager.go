// Package inventory implements the validated mutations of a character's gold,
// inventory and equipment slots.
//
// Every operation checks all of its preconditions before touching the
// character: on error the character is unchanged. Persisting the result, and
// recomputing stats before the save, is the caller's responsibility.
package inventory

import (
	"github.com/cory-johannsen/arena/internal/game/catalog"
	"github.com/cory-johannsen/arena/internal/game/character"
	"github.com/cory-johannsen/arena/internal/game/violation"
)

// Equip moves item from the inventory into its slot. An item already in that
// slot goes back to the inventory and is returned.
//
// Precondition: c and item are non-nil.
// Postcondition: on success c.Equipment.Get(item.Slot) == item and item is not
// in the inventory.
func Equip(c *character.Character, item *catalog.Item) (displaced *catalog.Item, err error) {
	if !c.Inventory.Contains(item.ID) {
		return nil, violation.New(violation.KindOwnership, violation.MsgItemNotInInventory)
	}
	if !item.Allows(c.Profession.ID) {
		return nil, violation.New(violation.KindEligibility, violation.MsgProfessionNotForItem)
	}
	if item.LevelRequired > c.Level {
		return nil, violation.New(violation.KindEligibility, violation.MsgLevelTooLow)
	}

	displaced = c.Equipment.Get(item.Slot)
	if displaced != nil {
		c.Inventory[displaced.ID] = displaced
	}
	delete(c.Inventory, item.ID)
	c.Equipment.Set(item.Slot, item)
	return displaced, nil
}

// Unequip clears item's slot and puts item back in the inventory.
//
// Precondition: c and item are non-nil.
// Postcondition: on success the slot is empty and item is in the inventory.
func Unequip(c *character.Character, item *catalog.Item) error {
	if cur := c.Equipment.Get(item.Slot); cur == nil || cur.ID != item.ID {
		return violation.New(violation.KindOwnership, violation.MsgItemNotEquipped)
	}
	ensureInventory(c)
	c.Inventory[item.ID] = item
	c.Equipment.Set(item.Slot, nil)
	return nil
}

// Buy adds item to the inventory and charges its price.
//
// Precondition: c and item are non-nil.
// Postcondition: on success c.Gold decreased by item.Price and item is in the inventory.
func Buy(c *character.Character, item *catalog.Item) error {
	if c.Equipment.Holds(item.ID) {
		return violation.New(violation.KindStateConflict, violation.MsgItemAlreadyEquipped)
	}
	if c.Inventory.Contains(item.ID) {
		return violation.New(violation.KindStateConflict, violation.MsgItemAlreadyOwned)
	}
	if item.Price > c.Gold {
		return violation.New(violation.KindInsufficientResource, violation.MsgNotEnoughGold)
	}
	ensureInventory(c)
	c.Inventory[item.ID] = item
	c.Gold -= item.Price
	return nil
}

// Sell removes item from the inventory and pays its sell price.
//
// Precondition: c and item are non-nil.
// Postcondition: on success c.Gold increased by item.SellPrice() and item is gone.
func Sell(c *character.Character, item *catalog.Item) error {
	if !c.Inventory.Contains(item.ID) {
		return violation.New(violation.KindOwnership, violation.MsgItemNotInInventory)
	}
	delete(c.Inventory, item.ID)
	c.Gold += item.SellPrice()
	return nil
}

// Reslot moves every equipped item whose slot differs from the slot it
// occupies back into the inventory and returns the moved items in slot order.
// Such items appear when a catalog import changes an item's type.
//
// Postcondition: every equipped item c holds sits in its own slot.
func Reslot(c *character.Character) []*catalog.Item {
	var moved []*catalog.Item
	for _, slot := range catalog.Slots {
		it := c.Equipment.Get(slot)
		if it == nil || it.Slot == slot {
			continue
		}
		ensureInventory(c)
		c.Inventory[it.ID] = it
		c.Equipment.Set(slot, nil)
		moved = append(moved, it)
	}
	return moved
}

func ensureInventory(c *character.Character) {
	if c.Inventory == nil {
		c.Inventory = make(character.Inventory)
	}
}
