// Package violation defines the user-facing rule violations raised by the
// arena domain. Every violation is recoverable: it aborts the enclosing
// transaction and is shown to the player as a message.
package violation

import (
	"errors"
	"strings"
)

// Kind categorizes a violation.
type Kind string

const (
	// KindOwnership covers items or opponents the character does not hold.
	KindOwnership Kind = "ownership"
	// KindEligibility covers race, profession, level and quota restrictions.
	KindEligibility Kind = "eligibility"
	// KindStateConflict covers operations that contradict current state.
	KindStateConflict Kind = "state_conflict"
	// KindInsufficientResource covers missing gold.
	KindInsufficientResource Kind = "insufficient_resource"
	// KindFormat covers malformed input.
	KindFormat Kind = "format"
)

// Messages shown to players.
const (
	MsgItemNotInInventory   = "item not in inventory"
	MsgItemNotEquipped      = "item not equipped"
	MsgOpponentNotOffered   = "opponent not from provided list"
	MsgCharacterNotOwned    = "character not owned by player"
	MsgProfessionNotForRace = "profession not allowed for race"
	MsgProfessionNotForItem = "profession not allowed to use item"
	MsgLevelTooLow          = "level requirement not met"
	MsgCharacterLimit       = "character limit reached"
	MsgItemAlreadyOwned     = "item already owned"
	MsgItemAlreadyEquipped  = "item already equipped"
	MsgSelfBattle           = "cannot battle yourself"
	MsgNeedTwoParticipants  = "need two participants"
	MsgWinnerNotParticipant = "winner must be a participant"
	MsgLoserNotParticipant  = "loser must be a participant"
	MsgWinnerIsLoser        = "winner and loser must differ"
	MsgNameTaken            = "character name already taken"
	MsgNotEnoughGold        = "not enough gold"
	MsgInvalidName          = "name must be 2-12 latin letters"
	MsgNegativeExperience   = "experience amount must not be negative"
	MsgUnknownRace          = "unknown race"
	MsgUnknownProfession    = "unknown profession"
	MsgUnknownItem          = "unknown item"
)

// Violation is a single broken rule.
type Violation struct {
	Kind    Kind
	Message string
}

// Error is a non-empty list of violations returned by a rejected operation.
type Error struct {
	Violations []Violation
}

// Error joins all messages.
func (e *Error) Error() string {
	return strings.Join(e.Messages(), "; ")
}

// Messages returns the human-readable message of every violation in order.
func (e *Error) Messages() []string {
	out := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		out[i] = v.Message
	}
	return out
}

// Has reports whether any violation is of the given kind.
func (e *Error) Has(kind Kind) bool {
	for _, v := range e.Violations {
		if v.Kind == kind {
			return true
		}
	}
	return false
}

// New returns an Error holding one violation.
func New(kind Kind, message string) *Error {
	return &Error{Violations: []Violation{{Kind: kind, Message: message}}}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var v *Error
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}

// Is reports whether err carries a violation with the given message.
func Is(err error, message string) bool {
	v, ok := As(err)
	if !ok {
		return false
	}
	for _, vv := range v.Violations {
		if vv.Message == message {
			return true
		}
	}
	return false
}

// List accumulates violations from a multi-field check.
type List struct {
	vs []Violation
}

// Add records a violation.
func (l *List) Add(kind Kind, message string) {
	l.vs = append(l.vs, Violation{Kind: kind, Message: message})
}

// Err returns nil when nothing was recorded, otherwise an *Error.
func (l *List) Err() error {
	if len(l.vs) == 0 {
		return nil
	}
	out := make([]Violation, len(l.vs))
	copy(out, l.vs)
	return &Error{Violations: out}
}
