package arena

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/cory-johannsen/arena/internal/game/battle"
	"github.com/cory-johannsen/arena/internal/game/catalog"
	"github.com/cory-johannsen/arena/internal/game/character"
	"github.com/cory-johannsen/arena/internal/game/matchmaking"
)

var (
	// ErrNotFound is returned by a Tx lookup when the row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNameTaken is returned when a unique name is already in use.
	ErrNameTaken = errors.New("name already taken")
)

// Store is the persistence collaborator of the Service.
type Store interface {
	// WithTransaction runs fn in one transaction, committing when fn returns
	// nil and rolling back otherwise. fn's error is returned unchanged.
	WithTransaction(ctx context.Context, fn func(Tx) error) error
	// Catalog loads all reference data.
	Catalog(ctx context.Context) (*catalog.Snapshot, error)
}

// BattleFilter narrows a battle history listing. Results are newest first.
type BattleFilter struct {
	// CharacterID restricts to battles the character attacked or defended in.
	CharacterID int64
	// Name matches attacker or defender names case-sensitively as a substring.
	Name   string
	Limit  int
	Offset int
}

// LadderQuery narrows the ranking of characters by level.
type LadderQuery struct {
	// Name matches character names case-insensitively as a substring.
	Name   string
	Limit  int
	Offset int
}

// Tx is the set of operations available inside a Store transaction.
//
// Characters returned by a Tx are fully loaded: race, profession, equipment,
// inventory and stored stats.
type Tx interface {
	// GetPlayer loads a player and locks it until the transaction ends.
	GetPlayer(ctx context.Context, id int64) (*character.Player, error)
	CountCharacters(ctx context.Context, playerID int64) (int, error)

	GetRace(ctx context.Context, id int64) (*catalog.Race, error)
	GetProfession(ctx context.Context, id int64) (*catalog.Profession, error)
	GetItem(ctx context.Context, id int64) (*catalog.Item, error)
	ListItems(ctx context.Context, f catalog.ItemFilter) ([]*catalog.Item, error)

	// LockCharacters locks the given character rows in ascending ID order.
	// Missing IDs are ignored.
	LockCharacters(ctx context.Context, ids ...int64) error
	GetCharacter(ctx context.Context, id int64) (*character.Character, error)
	ListCharacters(ctx context.Context, playerID int64) ([]*character.Character, error)
	Ladder(ctx context.Context, q LadderQuery) ([]*character.Character, error)
	// FindCandidates returns the ranked opponent pool described by q.
	FindCandidates(ctx context.Context, q matchmaking.Query) ([]*character.Character, error)
	// CreateCharacter inserts c and sets its ID and timestamps.
	// Returns ErrNameTaken when the name is in use.
	CreateCharacter(ctx context.Context, c *character.Character) error
	// UpdateCharacter persists every mutable field of c, including inventory.
	UpdateCharacter(ctx context.Context, c *character.Character) error
	DeleteCharacter(ctx context.Context, id int64) error

	CreateBattle(ctx context.Context, b *battle.Battle) error
	// GetBattle loads one battle with participant names, or returns ErrNotFound.
	GetBattle(ctx context.Context, id uuid.UUID) (*battle.Battle, error)
	ListBattles(ctx context.Context, f BattleFilter) ([]*battle.Battle, error)
}
