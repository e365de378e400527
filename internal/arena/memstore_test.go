package arena_test

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/cory-johannsen/arena/internal/arena"
	"github.com/cory-johannsen/arena/internal/game/battle"
	"github.com/cory-johannsen/arena/internal/game/catalog"
	"github.com/cory-johannsen/arena/internal/game/character"
	"github.com/cory-johannsen/arena/internal/game/matchmaking"
)

var errInjected = errors.New("injected storage failure")

type memState struct {
	players     map[int64]*character.Player
	races       map[int64]*catalog.Race
	professions map[int64]*catalog.Profession
	items       map[int64]*catalog.Item
	characters  map[int64]*character.Character
	battles     []*battle.Battle
	nextID      int64
}

func (s *memState) clone() *memState {
	out := &memState{
		players:     maps.Clone(s.players),
		races:       s.races,
		professions: s.professions,
		items:       s.items,
		characters:  make(map[int64]*character.Character, len(s.characters)),
		battles:     slices.Clone(s.battles),
		nextID:      s.nextID,
	}
	for id, c := range s.characters {
		out.characters[id] = c.Clone()
	}
	return out
}

// memStore is an arena.Store whose transactions work on a copy of the state
// that replaces the original only on commit.
type memStore struct {
	mu     sync.Mutex
	state  *memState
	failOn string
}

func newMemStore() *memStore {
	return &memStore{state: &memState{
		players:     map[int64]*character.Player{},
		races:       map[int64]*catalog.Race{},
		professions: map[int64]*catalog.Profession{},
		items:       map[int64]*catalog.Item{},
		characters:  map[int64]*character.Character{},
		nextID:      1000,
	}}
}

func (m *memStore) WithTransaction(ctx context.Context, fn func(arena.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	work := m.state.clone()
	if err := fn(&memTx{st: work, failOn: m.failOn}); err != nil {
		return err
	}
	m.state = work
	return nil
}

func (m *memStore) Catalog(context.Context) (*catalog.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := &catalog.Snapshot{}
	for _, id := range slices.Sorted(maps.Keys(m.state.professions)) {
		snap.Professions = append(snap.Professions, m.state.professions[id])
	}
	for _, id := range slices.Sorted(maps.Keys(m.state.races)) {
		snap.Races = append(snap.Races, m.state.races[id])
	}
	snap.Items = catalog.ItemFilter{}.Apply(slices.Collect(maps.Values(m.state.items)))
	return snap, nil
}

// committed returns a copy of the committed character, or nil.
func (m *memStore) committed(id int64) *character.Character {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.state.characters[id]
	if !ok {
		return nil
	}
	return c.Clone()
}

func (m *memStore) battleCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.battles)
}

// seedCharacter stores a character directly, bypassing creation rules.
func (m *memStore) seedCharacter(playerID int64, name string, level int) *character.Character {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.nextID++
	c := &character.Character{
		ID:         m.state.nextID,
		PlayerID:   playerID,
		Name:       name,
		Race:       m.state.races[humanID],
		Profession: m.state.professions[warriorID],
		Level:      level,
		Inventory:  make(character.Inventory),
	}
	c.RecomputeStats()
	m.state.characters[c.ID] = c
	return c.Clone()
}

// reimportItem replaces an item the way a catalog import does: characters
// keep referencing it from whichever slot held it before.
func (m *memStore) reimportItem(it *catalog.Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.items[it.ID] = it
	for _, c := range m.state.characters {
		for _, slot := range catalog.Slots {
			if cur := c.Equipment.Get(slot); cur != nil && cur.ID == it.ID {
				c.Equipment.Set(slot, it)
			}
		}
		if c.Inventory.Contains(it.ID) {
			c.Inventory[it.ID] = it
		}
	}
}

type memTx struct {
	st     *memState
	failOn string
}

func (t *memTx) fail(op string) error {
	if t.failOn == op {
		return fmt.Errorf("%s: %w", op, errInjected)
	}
	return nil
}

func (t *memTx) GetPlayer(_ context.Context, id int64) (*character.Player, error) {
	p, ok := t.st.players[id]
	if !ok {
		return nil, arena.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (t *memTx) CountCharacters(_ context.Context, playerID int64) (int, error) {
	n := 0
	for _, c := range t.st.characters {
		if c.PlayerID == playerID {
			n++
		}
	}
	return n, nil
}

func (t *memTx) GetRace(_ context.Context, id int64) (*catalog.Race, error) {
	if r, ok := t.st.races[id]; ok {
		return r, nil
	}
	return nil, arena.ErrNotFound
}

func (t *memTx) GetProfession(_ context.Context, id int64) (*catalog.Profession, error) {
	if p, ok := t.st.professions[id]; ok {
		return p, nil
	}
	return nil, arena.ErrNotFound
}

func (t *memTx) GetItem(_ context.Context, id int64) (*catalog.Item, error) {
	if it, ok := t.st.items[id]; ok {
		return it, nil
	}
	return nil, arena.ErrNotFound
}

func (t *memTx) ListItems(_ context.Context, f catalog.ItemFilter) ([]*catalog.Item, error) {
	return f.Apply(slices.Collect(maps.Values(t.st.items))), nil
}

func (t *memTx) LockCharacters(context.Context, ...int64) error { return t.fail("LockCharacters") }

func (t *memTx) GetCharacter(_ context.Context, id int64) (*character.Character, error) {
	c, ok := t.st.characters[id]
	if !ok {
		return nil, arena.ErrNotFound
	}
	return c.Clone(), nil
}

func (t *memTx) sorted(keep func(*character.Character) bool, less func(a, b *character.Character) bool) []*character.Character {
	var out []*character.Character
	for _, c := range t.st.characters {
		if keep(c) {
			out = append(out, c.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func (t *memTx) ListCharacters(_ context.Context, playerID int64) ([]*character.Character, error) {
	return t.sorted(
		func(c *character.Character) bool { return c.PlayerID == playerID },
		func(a, b *character.Character) bool { return a.ID < b.ID },
	), nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

func (t *memTx) Ladder(_ context.Context, q arena.LadderQuery) ([]*character.Character, error) {
	out := t.sorted(
		func(c *character.Character) bool {
			return strings.Contains(strings.ToLower(c.Name), strings.ToLower(q.Name))
		},
		func(a, b *character.Character) bool {
			if a.Level != b.Level {
				return a.Level > b.Level
			}
			return a.ID < b.ID
		},
	)
	return page(out, q.Limit, q.Offset), nil
}

func (t *memTx) FindCandidates(_ context.Context, q matchmaking.Query) ([]*character.Character, error) {
	var cands []matchmaking.Candidate
	for _, c := range t.st.characters {
		cands = append(cands, matchmaking.Candidate{ID: c.ID, PlayerID: c.PlayerID, Name: c.Name, Level: c.Level})
	}
	var out []*character.Character
	for _, c := range matchmaking.Rank(q, cands) {
		out = append(out, t.st.characters[c.ID].Clone())
	}
	return out, nil
}

func (t *memTx) CreateCharacter(_ context.Context, c *character.Character) error {
	for _, other := range t.st.characters {
		if other.Name == c.Name {
			return arena.ErrNameTaken
		}
	}
	t.st.nextID++
	c.ID = t.st.nextID
	t.st.characters[c.ID] = c.Clone()
	return nil
}

func (t *memTx) UpdateCharacter(_ context.Context, c *character.Character) error {
	if err := t.fail("UpdateCharacter"); err != nil {
		return err
	}
	if _, ok := t.st.characters[c.ID]; !ok {
		return arena.ErrNotFound
	}
	t.st.characters[c.ID] = c.Clone()
	return nil
}

// clearRef drops a participant reference to a deleted character along with
// its name, as the SQL joins do.
func clearRef(ref **int64, name *string, id int64) {
	if *ref != nil && **ref == id {
		*ref = nil
		*name = ""
	}
}

func (t *memTx) DeleteCharacter(_ context.Context, id int64) error {
	delete(t.st.characters, id)
	for i, b := range t.st.battles {
		cp := *b
		clearRef(&cp.AttackerID, &cp.AttackerName, id)
		clearRef(&cp.DefenderID, &cp.DefenderName, id)
		clearRef(&cp.WinnerID, &cp.WinnerName, id)
		clearRef(&cp.LoserID, &cp.LoserName, id)
		t.st.battles[i] = &cp
	}
	return nil
}

func (t *memTx) CreateBattle(_ context.Context, b *battle.Battle) error {
	if err := t.fail("CreateBattle"); err != nil {
		return err
	}
	cp := *b
	t.st.battles = append(t.st.battles, &cp)
	return nil
}

func (t *memTx) GetBattle(_ context.Context, id uuid.UUID) (*battle.Battle, error) {
	for _, b := range t.st.battles {
		if b.ID == id {
			cp := *b
			return &cp, nil
		}
	}
	return nil, arena.ErrNotFound
}

func involves(b *battle.Battle, id int64) bool {
	return (b.AttackerID != nil && *b.AttackerID == id) || (b.DefenderID != nil && *b.DefenderID == id)
}

func (t *memTx) ListBattles(_ context.Context, f arena.BattleFilter) ([]*battle.Battle, error) {
	var out []*battle.Battle
	for i := len(t.st.battles) - 1; i >= 0; i-- {
		b := t.st.battles[i]
		if f.CharacterID != 0 && !involves(b, f.CharacterID) {
			continue
		}
		if f.Name != "" && !strings.Contains(b.AttackerName, f.Name) && !strings.Contains(b.DefenderName, f.Name) {
			continue
		}
		cp := *b
		out = append(out, &cp)
	}
	return page(out, f.Limit, f.Offset), nil
}
