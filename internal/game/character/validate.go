package character

import (
	"fmt"

	"github.com/cory-johannsen/arena/internal/game/catalog"
)

// Validate checks the storage invariants of c before it is saved.
//
// A failure here means a domain operation was skipped or misused; it is
// returned as a plain error rather than a violation.
// Postcondition: returns nil iff level >= 1, experience and gold are
// non-negative, every equipped item matches its slot and no equipped item is
// also in the inventory, and Stats match ComputeStats.
func (c *Character) Validate() error {
	if c.Level < 1 {
		return fmt.Errorf("character %q: level %d < 1", c.Name, c.Level)
	}
	if c.Experience < 0 {
		return fmt.Errorf("character %q: experience %d < 0", c.Name, c.Experience)
	}
	if c.Gold < 0 {
		return fmt.Errorf("character %q: gold %d < 0", c.Name, c.Gold)
	}
	for _, slot := range catalog.Slots {
		it := c.Equipment.Get(slot)
		if it == nil {
			continue
		}
		if it.Slot != slot {
			return fmt.Errorf("character %q: %s equipped in %s slot", c.Name, it, slot)
		}
		if c.Inventory.Contains(it.ID) {
			return fmt.Errorf("character %q: %s both equipped and in inventory", c.Name, it)
		}
	}
	if want := ComputeStats(c.Race, c.Profession, c.Level, &c.Equipment); c.Stats != want {
		return fmt.Errorf("character %q: stale stats %+v, want %+v", c.Name, c.Stats, want)
	}
	return nil
}
