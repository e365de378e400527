// Package battle resolves a matched pair of characters into an immutable
// battle record and applies the winner's rewards.
package battle

import (
	"time"

	"github.com/google/uuid"

	"github.com/cory-johannsen/arena/internal/game/character"
	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/violation"
)

// Battle is a resolved fight between two characters.
//
// Participant references are nil once the referenced character is deleted.
// Names are filled by listings and are empty for deleted characters.
type Battle struct {
	ID         uuid.UUID
	AttackerID *int64
	DefenderID *int64
	WinnerID   *int64
	LoserID    *int64
	GoldReward int
	ExpReward  int
	CreatedAt  time.Time

	AttackerName string
	DefenderName string
	WinnerName   string
	LoserName    string
}

// Rewards returns the gold and experience granted for defeating a character
// of loserLevel.
//
// Postcondition: gold == round(loserLevel*1.4)+2 with ties to even; exp == loserLevel*7+5.
func Rewards(loserLevel int) (gold, exp int) {
	return character.Round(float64(loserLevel)*1.4) + 2, loserLevel*7 + 5
}

func ref(id int64) *int64 { return &id }

func sameRef(a, b *int64) bool {
	return a != nil && b != nil && *a == *b
}

// Validate checks the participant invariants of a new battle.
//
// Postcondition: returns nil iff attacker and defender are present and
// distinct, winner and loser are each one of them, and winner differs from loser.
func (b *Battle) Validate() error {
	if b.AttackerID == nil || b.DefenderID == nil {
		return violation.New(violation.KindStateConflict, violation.MsgNeedTwoParticipants)
	}
	var errs violation.List
	if *b.AttackerID == *b.DefenderID {
		errs.Add(violation.KindStateConflict, violation.MsgSelfBattle)
	}
	if !sameRef(b.WinnerID, b.AttackerID) && !sameRef(b.WinnerID, b.DefenderID) {
		errs.Add(violation.KindStateConflict, violation.MsgWinnerNotParticipant)
	}
	if !sameRef(b.LoserID, b.AttackerID) && !sameRef(b.LoserID, b.DefenderID) {
		errs.Add(violation.KindStateConflict, violation.MsgLoserNotParticipant)
	}
	if sameRef(b.WinnerID, b.LoserID) {
		errs.Add(violation.KindStateConflict, violation.MsgWinnerIsLoser)
	}
	return errs.Err()
}

// Outcome is the result of Resolve.
type Outcome struct {
	Battle *Battle
	Winner *character.Character
	Loser  *character.Character
	// LevelsGained is the number of levels the winner advanced.
	LevelsGained int
}

// Resolve picks a winner by coin flip, computes the rewards from the loser's
// level and grants them to the winner.
//
// Precondition: src is non-nil; now is the creation time to record.
// Postcondition: on success the winner's gold, experience, level and stats are
// updated and the returned battle passes Validate; on failure neither
// character is modified.
func Resolve(attacker, defender *character.Character, src dice.Source, now time.Time) (*Outcome, error) {
	if attacker == nil || defender == nil {
		return nil, violation.New(violation.KindStateConflict, violation.MsgNeedTwoParticipants)
	}
	if attacker.ID == defender.ID {
		return nil, violation.New(violation.KindStateConflict, violation.MsgSelfBattle)
	}

	winner, loser := attacker, defender
	if dice.Flip(src) {
		winner, loser = defender, attacker
	}
	gold, exp := Rewards(loser.Level)

	b := &Battle{
		ID:           uuid.New(),
		AttackerID:   ref(attacker.ID),
		DefenderID:   ref(defender.ID),
		WinnerID:     ref(winner.ID),
		LoserID:      ref(loser.ID),
		GoldReward:   gold,
		ExpReward:    exp,
		CreatedAt:    now,
		AttackerName: attacker.Name,
		DefenderName: defender.Name,
		WinnerName:   winner.Name,
		LoserName:    loser.Name,
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}

	winner.Gold += gold
	gained := character.AddExp(winner, exp)
	winner.RecomputeStats()
	return &Outcome{Battle: b, Winner: winner, Loser: loser, LevelsGained: gained}, nil
}
