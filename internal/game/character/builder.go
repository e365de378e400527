package character

import (
	"regexp"

	"github.com/cory-johannsen/arena/internal/game/catalog"
	"github.com/cory-johannsen/arena/internal/game/violation"
)

var namePattern = regexp.MustCompile(`^[A-Za-z]{2,12}$`)

// ValidName reports whether name is 2-12 latin letters.
func ValidName(name string) bool {
	return namePattern.MatchString(name)
}

// Build validates a character creation request and returns the unsaved character.
//
// owned is the number of characters the player already has.
// Precondition: player, race and profession are non-nil; startingGold >= 0.
// Postcondition: returns a level 1 character with zero experience, empty
// equipment and inventory, and computed stats; or a *violation.Error listing
// every broken rule.
func Build(player *Player, owned int, name string, race *catalog.Race, profession *catalog.Profession, startingGold int) (*Character, error) {
	var errs violation.List
	if !ValidName(name) {
		errs.Add(violation.KindFormat, violation.MsgInvalidName)
	}
	if !race.Allows(profession.ID) {
		errs.Add(violation.KindEligibility, violation.MsgProfessionNotForRace)
	}
	if owned >= player.MaxCharacters {
		errs.Add(violation.KindEligibility, violation.MsgCharacterLimit)
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	c := &Character{
		PlayerID:   player.ID,
		Name:       name,
		Race:       race,
		Profession: profession,
		Level:      1,
		Gold:       startingGold,
		Inventory:  make(Inventory),
	}
	c.RecomputeStats()
	return c, nil
}
