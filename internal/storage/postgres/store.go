package postgres

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/arena/internal/arena"
	"github.com/cory-johannsen/arena/internal/game/battle"
	"github.com/cory-johannsen/arena/internal/game/catalog"
	"github.com/cory-johannsen/arena/internal/game/character"
	"github.com/cory-johannsen/arena/internal/game/matchmaking"
)

var _ arena.Store = (*Store)(nil)

// Store implements arena.Store on a PostgreSQL pool.
type Store struct {
	db      *pgxpool.Pool
	catalog *CatalogRepository
}

// NewStore creates a Store backed by db.
//
// Precondition: db must be a valid, open connection pool with the schema migrated.
func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db, catalog: NewCatalogRepository(db)}
}

// WithTransaction runs fn inside a read-committed transaction. Row locks taken
// through the Tx are held until fn returns.
func (s *Store) WithTransaction(ctx context.Context, fn func(arena.Tx) error) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		return fn(newTx(tx))
	})
}

// Catalog loads all reference data.
func (s *Store) Catalog(ctx context.Context) (*catalog.Snapshot, error) {
	return s.catalog.Load(ctx)
}

// txn implements arena.Tx. Catalog rows are cached for the lifetime of the
// transaction.
type txn struct {
	q           querier
	races       map[int64]*catalog.Race
	professions map[int64]*catalog.Profession
	items       map[int64]*catalog.Item
}

func newTx(q querier) *txn {
	return &txn{
		q:           q,
		races:       make(map[int64]*catalog.Race),
		professions: make(map[int64]*catalog.Profession),
		items:       make(map[int64]*catalog.Item),
	}
}

func (t *txn) GetPlayer(ctx context.Context, id int64) (*character.Player, error) {
	var p character.Player
	err := t.q.QueryRow(ctx,
		`SELECT id, username, max_characters, created_at FROM players WHERE id = $1 FOR UPDATE`,
		id,
	).Scan(&p.ID, &p.Username, &p.MaxCharacters, &p.CreatedAt)
	if err != nil {
		return nil, notFound(err, "player")
	}
	return &p, nil
}

func (t *txn) CountCharacters(ctx context.Context, playerID int64) (int, error) {
	var n int
	if err := t.q.QueryRow(ctx, `SELECT COUNT(*) FROM characters WHERE player_id = $1`, playerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting characters: %w", err)
	}
	return n, nil
}

func (t *txn) GetRace(ctx context.Context, id int64) (*catalog.Race, error) {
	if r, ok := t.races[id]; ok {
		return r, nil
	}
	r, err := getRace(ctx, t.q, id)
	if err != nil {
		return nil, err
	}
	t.races[id] = r
	return r, nil
}

func (t *txn) GetProfession(ctx context.Context, id int64) (*catalog.Profession, error) {
	if p, ok := t.professions[id]; ok {
		return p, nil
	}
	p, err := getProfession(ctx, t.q, id)
	if err != nil {
		return nil, err
	}
	t.professions[id] = p
	return p, nil
}

func (t *txn) GetItem(ctx context.Context, id int64) (*catalog.Item, error) {
	if it, ok := t.items[id]; ok {
		return it, nil
	}
	it, err := getItem(ctx, t.q, id)
	if err != nil {
		return nil, err
	}
	t.items[id] = it
	return it, nil
}

func (t *txn) ListItems(ctx context.Context, f catalog.ItemFilter) ([]*catalog.Item, error) {
	return listItems(ctx, t.q, f)
}

func (t *txn) LockCharacters(ctx context.Context, ids ...int64) error {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	_, err := t.q.Exec(ctx,
		`SELECT id FROM characters WHERE id = ANY($1) ORDER BY id FOR UPDATE`,
		sorted,
	)
	if err != nil {
		return fmt.Errorf("locking characters: %w", err)
	}
	return nil
}

const characterColumns = `c.id, c.player_id, c.name, c.race_id, c.profession_id, c.level, c.experience, c.gold,
	c.damage, c.protection, c.health, c.equipped_weapon_id, c.equipped_armor_id, c.equipped_accessory_id,
	c.created_at, c.updated_at`

// characterRow is a characters row before its catalog references are resolved.
type characterRow struct {
	c                        character.Character
	raceID, professionID     int64
	weapon, armor, accessory *int64
}

func scanCharacterRow(row pgx.Row) (*characterRow, error) {
	var r characterRow
	c := &r.c
	err := row.Scan(&c.ID, &c.PlayerID, &c.Name, &r.raceID, &r.professionID, &c.Level, &c.Experience, &c.Gold,
		&c.Stats.Damage, &c.Stats.Protection, &c.Stats.Health, &r.weapon, &r.armor, &r.accessory,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// resolve loads the race, profession, equipment and inventory of a row.
func (t *txn) resolve(ctx context.Context, r *characterRow) (*character.Character, error) {
	c := r.c
	var err error
	if c.Race, err = t.GetRace(ctx, r.raceID); err != nil {
		return nil, err
	}
	if c.Profession, err = t.GetProfession(ctx, r.professionID); err != nil {
		return nil, err
	}
	for slot, id := range map[catalog.Slot]*int64{
		catalog.SlotWeapon:    r.weapon,
		catalog.SlotArmor:     r.armor,
		catalog.SlotAccessory: r.accessory,
	} {
		if id == nil {
			continue
		}
		it, err := t.GetItem(ctx, *id)
		if err != nil {
			return nil, err
		}
		c.Equipment.Set(slot, it)
	}

	rows, err := t.q.Query(ctx, `SELECT item_id FROM character_inventory WHERE character_id = $1 ORDER BY item_id`, c.ID)
	if err != nil {
		return nil, fmt.Errorf("querying inventory: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("reading inventory: %w", err)
	}
	c.Inventory = make(character.Inventory, len(ids))
	for _, id := range ids {
		it, err := t.GetItem(ctx, id)
		if err != nil {
			return nil, err
		}
		c.Inventory[id] = it
	}
	return &c, nil
}

// characters runs a characters query and resolves every row.
func (t *txn) characters(ctx context.Context, sql string, args ...any) ([]*character.Character, error) {
	rows, err := t.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying characters: %w", err)
	}
	raw, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*characterRow, error) {
		return scanCharacterRow(row)
	})
	if err != nil {
		return nil, fmt.Errorf("reading characters: %w", err)
	}
	out := make([]*character.Character, 0, len(raw))
	for _, r := range raw {
		c, err := t.resolve(ctx, r)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (t *txn) GetCharacter(ctx context.Context, id int64) (*character.Character, error) {
	r, err := scanCharacterRow(t.q.QueryRow(ctx, `SELECT `+characterColumns+` FROM characters c WHERE c.id = $1`, id))
	if err != nil {
		return nil, notFound(err, "character")
	}
	return t.resolve(ctx, r)
}

func (t *txn) ListCharacters(ctx context.Context, playerID int64) ([]*character.Character, error) {
	return t.characters(ctx, `SELECT `+characterColumns+` FROM characters c WHERE c.player_id = $1 ORDER BY c.id`, playerID)
}

func (t *txn) Ladder(ctx context.Context, q arena.LadderQuery) ([]*character.Character, error) {
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	sql := `SELECT ` + characterColumns + ` FROM characters c`
	if q.Name != "" {
		sql += ` WHERE c.name ILIKE ` + arg("%"+escapeLike(q.Name)+"%")
	}
	sql += ` ORDER BY c.level DESC, c.id` + pageClause(q.Limit, q.Offset, arg)
	return t.characters(ctx, sql, args...)
}

func (t *txn) FindCandidates(ctx context.Context, q matchmaking.Query) ([]*character.Character, error) {
	return t.characters(ctx, `
		SELECT `+characterColumns+` FROM characters c
		WHERE c.player_id <> $1 AND c.level BETWEEN $2::int - $3::int AND $2::int + $3::int
		ORDER BY ABS(c.level - $2::int), c.level, c.id
		LIMIT $4`,
		q.PlayerID, q.Level, q.Window, max(q.Limit, 0),
	)
}

// equippedIDs returns the item id in each slot column, or nil.
func equippedIDs(c *character.Character) (weapon, armor, accessory *int64) {
	id := func(it *catalog.Item) *int64 {
		if it == nil {
			return nil
		}
		v := it.ID
		return &v
	}
	return id(c.Equipment.Weapon), id(c.Equipment.Armor), id(c.Equipment.Accessory)
}

func (t *txn) CreateCharacter(ctx context.Context, c *character.Character) error {
	weapon, armor, accessory := equippedIDs(c)
	err := t.q.QueryRow(ctx, `
		INSERT INTO characters
			(player_id, name, race_id, profession_id, level, experience, gold,
			 damage, protection, health, equipped_weapon_id, equipped_armor_id, equipped_accessory_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at`,
		c.PlayerID, c.Name, c.Race.ID, c.Profession.ID, c.Level, c.Experience, c.Gold,
		c.Stats.Damage, c.Stats.Protection, c.Stats.Health, weapon, armor, accessory,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return arena.ErrNameTaken
		}
		return fmt.Errorf("inserting character: %w", err)
	}
	return t.writeInventory(ctx, c)
}

func (t *txn) UpdateCharacter(ctx context.Context, c *character.Character) error {
	weapon, armor, accessory := equippedIDs(c)
	err := t.q.QueryRow(ctx, `
		UPDATE characters SET
			level = $2, experience = $3, gold = $4,
			damage = $5, protection = $6, health = $7,
			equipped_weapon_id = $8, equipped_armor_id = $9, equipped_accessory_id = $10,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		c.ID, c.Level, c.Experience, c.Gold,
		c.Stats.Damage, c.Stats.Protection, c.Stats.Health, weapon, armor, accessory,
	).Scan(&c.UpdatedAt)
	if err != nil {
		return notFound(err, "character")
	}
	if _, err := t.q.Exec(ctx, `DELETE FROM character_inventory WHERE character_id = $1`, c.ID); err != nil {
		return fmt.Errorf("clearing inventory: %w", err)
	}
	return t.writeInventory(ctx, c)
}

func (t *txn) writeInventory(ctx context.Context, c *character.Character) error {
	if len(c.Inventory) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(c.Inventory))
	for _, it := range c.Inventory.Items() {
		ids = append(ids, it.ID)
	}
	_, err := t.q.Exec(ctx,
		`INSERT INTO character_inventory (character_id, item_id) SELECT $1, UNNEST($2::bigint[])`,
		c.ID, ids,
	)
	if err != nil {
		return fmt.Errorf("writing inventory: %w", err)
	}
	return nil
}

func (t *txn) DeleteCharacter(ctx context.Context, id int64) error {
	tag, err := t.q.Exec(ctx, `DELETE FROM characters WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting character: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("character: %w", arena.ErrNotFound)
	}
	return nil
}

func (t *txn) CreateBattle(ctx context.Context, b *battle.Battle) error {
	_, err := t.q.Exec(ctx, `
		INSERT INTO battles (id, attacker_id, defender_id, winner_id, loser_id, gold_reward, exp_reward, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		b.ID, b.AttackerID, b.DefenderID, b.WinnerID, b.LoserID, b.GoldReward, b.ExpReward, b.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting battle: %w", err)
	}
	return nil
}

func (t *txn) ListBattles(ctx context.Context, f arena.BattleFilter) ([]*battle.Battle, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.CharacterID != 0 {
		p := arg(f.CharacterID)
		where = append(where, "(b.attacker_id = "+p+" OR b.defender_id = "+p+")")
	}
	if f.Name != "" {
		p := arg("%" + escapeLike(f.Name) + "%")
		where = append(where, "(a.name LIKE "+p+" OR d.name LIKE "+p+")")
	}
	sql := battleSelect
	if len(where) > 0 {
		sql += " WHERE " + strings.Join(where, " AND ")
	}
	sql += ` ORDER BY b.created_at DESC, b.id` + pageClause(f.Limit, f.Offset, arg)

	rows, err := t.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("listing battles: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*battle.Battle, error) {
		return scanBattle(row)
	})
}

func (t *txn) GetBattle(ctx context.Context, id uuid.UUID) (*battle.Battle, error) {
	b, err := scanBattle(t.q.QueryRow(ctx, battleSelect+` WHERE b.id = $1`, id))
	if err != nil {
		return nil, notFound(err, "battle")
	}
	return b, nil
}

// battleSelect joins participant names; deleted participants read as ''.
const battleSelect = `
	SELECT b.id, b.attacker_id, b.defender_id, b.winner_id, b.loser_id, b.gold_reward, b.exp_reward, b.created_at,
	       COALESCE(a.name, ''), COALESCE(d.name, ''), COALESCE(w.name, ''), COALESCE(l.name, '')
	FROM battles b
	LEFT JOIN characters a ON a.id = b.attacker_id
	LEFT JOIN characters d ON d.id = b.defender_id
	LEFT JOIN characters w ON w.id = b.winner_id
	LEFT JOIN characters l ON l.id = b.loser_id`

func scanBattle(row pgx.Row) (*battle.Battle, error) {
	var b battle.Battle
	err := row.Scan(&b.ID, &b.AttackerID, &b.DefenderID, &b.WinnerID, &b.LoserID, &b.GoldReward, &b.ExpReward, &b.CreatedAt,
		&b.AttackerName, &b.DefenderName, &b.WinnerName, &b.LoserName)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
