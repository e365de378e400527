package character

import (
	"math"

	"github.com/cory-johannsen/arena/internal/game/catalog"
)

// Per-level growth of the base combat values.
const (
	damagePerLevel     = 0.5
	protectionPerLevel = 0.2
	healthPerLevel     = 5
)

// Round is the rounding rule for every derived value in the game:
// half-to-even, so 2.5 rounds to 2 and 3.5 rounds to 4.
func Round(v float64) int {
	return int(math.RoundToEven(v))
}

// ComputeStats derives damage, protection and health from the profession base
// values, the level, the equipped item bonuses and the race modifiers.
//
// Precondition: race and profession are non-nil.
// Postcondition: the result depends only on the arguments.
func ComputeStats(race *catalog.Race, profession *catalog.Profession, level int, eq *Equipment) Stats {
	damage := float64(profession.DamageBase) + float64(level)*damagePerLevel
	protection := float64(profession.ProtectionBase) + float64(level)*protectionPerLevel
	health := float64(profession.HealthBase) + float64(level)*healthPerLevel

	if eq != nil {
		for _, it := range eq.Items() {
			damage += float64(it.BonusDamage)
			protection += float64(it.BonusProtection)
			health += float64(it.BonusHealth)
		}
	}

	return Stats{
		Damage:     Round(damage * race.DamageModifier),
		Protection: Round(protection * race.ProtectionModifier),
		Health:     Round(health * race.HealthModifier),
	}
}

// RecomputeStats refreshes c.Stats from its current state.
//
// Precondition: c.Race and c.Profession are non-nil.
func (c *Character) RecomputeStats() {
	c.Stats = ComputeStats(c.Race, c.Profession, c.Level, &c.Equipment)
}
