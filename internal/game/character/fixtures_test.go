package character_test

import (
	"github.com/cory-johannsen/arena/internal/game/catalog"
	"github.com/cory-johannsen/arena/internal/game/character"
)

func makeProfession(id int64, dmg, prot, hp int) *catalog.Profession {
	return &catalog.Profession{ID: id, Name: "Test Profession", DamageBase: dmg, ProtectionBase: prot, HealthBase: hp}
}

func makeRace(dmgMod, protMod, hpMod float64, professions ...int64) *catalog.Race {
	return &catalog.Race{
		ID:                 1,
		Name:               "Test Race",
		DamageModifier:     dmgMod,
		ProtectionModifier: protMod,
		HealthModifier:     hpMod,
		Professions:        catalog.NewIDSet(professions...),
	}
}

func makeItem(id int64, typ catalog.ItemType, dmg, prot, hp int) *catalog.Item {
	slot, _ := catalog.SlotFor(typ)
	return &catalog.Item{
		ID: id, Name: string(typ), Price: 10, LevelRequired: 1,
		Slot: slot, Type: typ,
		BonusDamage: dmg, BonusProtection: prot, BonusHealth: hp,
	}
}

func makePlayer(maxChars int) *character.Player {
	return &character.Player{ID: 7, Username: "tester", MaxCharacters: maxChars}
}
