package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/cory-johannsen/arena/internal/game/character"
)

var (
	// ErrPlayerNotFound is returned when a player lookup yields no results.
	ErrPlayerNotFound = errors.New("player not found")
	// ErrPlayerExists is returned when registering a username that is taken.
	ErrPlayerExists = errors.New("player already exists")
	// ErrInvalidCredentials is returned when authentication fails.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidQuota is returned for a negative character quota.
	ErrInvalidQuota = errors.New("max characters must be >= 0")
)

// PlayerRepository registers and authenticates players.
type PlayerRepository struct {
	db *pgxpool.Pool
}

// NewPlayerRepository creates a PlayerRepository backed by db.
//
// Precondition: db must be a valid, open connection pool.
func NewPlayerRepository(db *pgxpool.Pool) *PlayerRepository {
	return &PlayerRepository{db: db}
}

const playerColumns = `id, username, max_characters, created_at`

func scanPlayer(row pgx.Row) (*character.Player, string, error) {
	var p character.Player
	var hash string
	err := row.Scan(&p.ID, &p.Username, &p.MaxCharacters, &p.CreatedAt, &hash)
	if err != nil {
		return nil, "", err
	}
	return &p, hash, nil
}

// Create registers a player with a bcrypt-hashed password and the given quota.
//
// Precondition: username and password must be non-empty; maxCharacters >= 0.
// Postcondition: Returns the created player, or ErrPlayerExists when the
// username is taken.
func (r *PlayerRepository) Create(ctx context.Context, username, password string, maxCharacters int) (*character.Player, error) {
	if maxCharacters < 0 {
		return nil, ErrInvalidQuota
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	p, _, err := scanPlayer(r.db.QueryRow(ctx,
		`INSERT INTO players (username, password_hash, max_characters)
		 VALUES ($1, $2, $3)
		 RETURNING `+playerColumns+`, password_hash`,
		username, hash, maxCharacters,
	))
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrPlayerExists
		}
		return nil, fmt.Errorf("inserting player: %w", err)
	}
	return p, nil
}

// Authenticate verifies credentials and returns the matching player.
//
// Postcondition: Returns ErrPlayerNotFound for an unknown username and
// ErrInvalidCredentials for a wrong password.
func (r *PlayerRepository) Authenticate(ctx context.Context, username, password string) (*character.Player, error) {
	p, hash, err := r.lookup(ctx, username)
	if err != nil {
		return nil, err
	}
	if !CheckPassword(password, hash) {
		return nil, ErrInvalidCredentials
	}
	return p, nil
}

// GetByUsername retrieves a player by username.
func (r *PlayerRepository) GetByUsername(ctx context.Context, username string) (*character.Player, error) {
	p, _, err := r.lookup(ctx, username)
	return p, err
}

func (r *PlayerRepository) lookup(ctx context.Context, username string) (*character.Player, string, error) {
	p, hash, err := scanPlayer(r.db.QueryRow(ctx,
		`SELECT `+playerColumns+`, password_hash FROM players WHERE username = $1`,
		username,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", ErrPlayerNotFound
		}
		return nil, "", fmt.Errorf("querying player: %w", err)
	}
	return p, hash, nil
}

// SetMaxCharacters changes a player's character quota. Existing characters
// above the new quota are kept.
//
// Postcondition: Returns ErrInvalidQuota or ErrPlayerNotFound on failure.
func (r *PlayerRepository) SetMaxCharacters(ctx context.Context, playerID int64, maxCharacters int) error {
	if maxCharacters < 0 {
		return ErrInvalidQuota
	}
	tag, err := r.db.Exec(ctx,
		`UPDATE players SET max_characters = $1 WHERE id = $2`,
		maxCharacters, playerID,
	)
	if err != nil {
		return fmt.Errorf("updating max characters: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPlayerNotFound
	}
	return nil
}

// HashPassword creates a bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the bcrypt hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
