package catalog

import (
	"sort"
	"strings"
)

// ItemFilter narrows an item listing. Zero fields match everything.
type ItemFilter struct {
	Slot Slot
	Type ItemType
	// Name matches case-insensitively anywhere in the item name.
	Name   string
	Limit  int
	Offset int
}

// Matches reports whether it satisfies the slot, type and name criteria.
// Limit and Offset are ignored.
func (f ItemFilter) Matches(it *Item) bool {
	if f.Slot != "" && it.Slot != f.Slot {
		return false
	}
	if f.Type != "" && it.Type != f.Type {
		return false
	}
	if f.Name != "" && !strings.Contains(strings.ToLower(it.Name), strings.ToLower(f.Name)) {
		return false
	}
	return true
}

// Less orders items by slot, type, level requirement, then name.
func Less(a, b *Item) bool {
	if a.Slot != b.Slot {
		return a.Slot < b.Slot
	}
	if a.Type != b.Type {
		return a.Type < b.Type
	}
	if a.LevelRequired != b.LevelRequired {
		return a.LevelRequired < b.LevelRequired
	}
	return a.Name < b.Name
}

// Apply filters, orders and pages items.
//
// Postcondition: the input slice is not modified; a non-positive Limit means no limit.
func (f ItemFilter) Apply(items []*Item) []*Item {
	out := make([]*Item, 0, len(items))
	for _, it := range items {
		if f.Matches(it) {
			out = append(out, it)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return Less(out[i], out[j]) })
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return out[:0]
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}
