package matchmaking

//go:generate mockgen -destination=mock/mock_store.go -package=mockmatchmaking -source=store.go

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/cory-johannsen/arena/internal/game/violation"
)

var (
	// ErrNoOpponents is returned by Recall and Claim when nothing is remembered for a key.
	ErrNoOpponents = errors.New("no remembered opponents")
	// ErrNotOffered is returned by Claim when the set does not contain the id.
	ErrNotOffered = errors.New("opponent not offered")
)

// Key scopes a remembered opponent set to one character of one player.
type Key struct {
	PlayerID    int64
	CharacterID int64
}

// String returns "<player>:<character>".
func (k Key) String() string {
	return fmt.Sprintf("%d:%d", k.PlayerID, k.CharacterID)
}

// OpponentStore remembers the opponents offered to a character.
//
// Implementations MUST be safe for concurrent use.
type OpponentStore interface {
	// Remember replaces the set stored under key.
	Remember(ctx context.Context, key Key, ids []int64) error
	// Recall returns the set stored under key, or ErrNoOpponents.
	Recall(ctx context.Context, key Key) ([]int64, error)
	// Forget deletes the set stored under key. Forgetting a missing key is not an error.
	Forget(ctx context.Context, key Key) error
	// Claim deletes the set stored under key if it contains id, as one atomic
	// step. It returns ErrNoOpponents or ErrNotOffered and leaves the set in
	// place otherwise.
	Claim(ctx context.Context, key Key, id int64) error
}

// Consume checks that defenderID was offered under key and discards the set.
// Two calls racing on one set cannot both succeed.
//
// Postcondition: on success the set is forgotten; a missing set or a defender
// outside it yields an ownership violation and leaves the store unchanged.
func Consume(ctx context.Context, store OpponentStore, key Key, defenderID int64) error {
	err := store.Claim(ctx, key, defenderID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNoOpponents), errors.Is(err, ErrNotOffered):
		return violation.New(violation.KindOwnership, violation.MsgOpponentNotOffered)
	default:
		return fmt.Errorf("claiming opponent %d for %s: %w", defenderID, key, err)
	}
}

type memoryEntry struct {
	ids     []int64
	expires time.Time
}

// MemoryStore is an in-process OpponentStore with per-entry expiry.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[Key]memoryEntry
}

// NewMemoryStore creates a MemoryStore whose entries expire after ttl.
// A nil now uses time.Now.
//
// Precondition: ttl > 0.
func NewMemoryStore(ttl time.Duration, now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{ttl: ttl, now: now, entries: make(map[Key]memoryEntry)}
}

// Remember implements OpponentStore.
func (s *MemoryStore) Remember(_ context.Context, key Key, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{ids: slices.Clone(ids), expires: s.now().Add(s.ttl)}
	return nil
}

// live returns the unexpired entry for key, dropping it when expired.
//
// Precondition: s.mu is held.
func (s *MemoryStore) live(key Key) (memoryEntry, bool) {
	e, ok := s.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !s.now().Before(e.expires) {
		delete(s.entries, key)
		return memoryEntry{}, false
	}
	return e, true
}

// Recall implements OpponentStore. Expired entries are dropped on access.
func (s *MemoryStore) Recall(_ context.Context, key Key) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(key)
	if !ok {
		return nil, ErrNoOpponents
	}
	return slices.Clone(e.ids), nil
}

// Claim implements OpponentStore.
func (s *MemoryStore) Claim(_ context.Context, key Key, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(key)
	if !ok {
		return ErrNoOpponents
	}
	if !slices.Contains(e.ids, id) {
		return ErrNotOffered
	}
	delete(s.entries, key)
	return nil
}

// Forget implements OpponentStore.
func (s *MemoryStore) Forget(_ context.Context, key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}
