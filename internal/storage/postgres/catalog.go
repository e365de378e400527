package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/cory-johannsen/arena/internal/arena"
	"github.com/cory-johannsen/arena/internal/game/catalog"
	"github.com/cory-johannsen/arena/internal/game/inventory"
)

// CatalogRepository imports and loads reference data.
type CatalogRepository struct {
	db *pgxpool.Pool
}

// NewCatalogRepository creates a CatalogRepository backed by db.
func NewCatalogRepository(db *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ImportStats counts the rows written by Import.
type ImportStats struct {
	Professions int
	Races       int
	Items       int
	// Characters counts the characters whose equipment or stats the import changed.
	Characters int
}

// Import upserts content by name in one transaction. Relations of every
// imported race and item are replaced by the ones in content. Existing
// characters are then brought in line with the new catalog: an equipped item
// whose slot changed returns to the inventory and stored stats are recomputed.
//
// Precondition: content has passed Validate.
// Postcondition: on error nothing is written.
func (r *CatalogRepository) Import(ctx context.Context, content *catalog.Content) (ImportStats, error) {
	var stats ImportStats
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		professionIDs := make(map[string]int64, len(content.Professions))
		for _, p := range content.Professions {
			var id int64
			err := tx.QueryRow(ctx, `
				INSERT INTO professions (name, description, damage_base, protection_base, health_base)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (name) DO UPDATE SET
					description = EXCLUDED.description,
					damage_base = EXCLUDED.damage_base,
					protection_base = EXCLUDED.protection_base,
					health_base = EXCLUDED.health_base
				RETURNING id`,
				p.Name, p.Description, p.DamageBase, p.ProtectionBase, p.HealthBase,
			).Scan(&id)
			if err != nil {
				return fmt.Errorf("upserting profession %q: %w", p.Name, err)
			}
			professionIDs[p.Name] = id
			stats.Professions++
		}

		for _, rc := range content.Races {
			var id int64
			err := tx.QueryRow(ctx, `
				INSERT INTO races (name, description, damage_modifier, protection_modifier, health_modifier)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (name) DO UPDATE SET
					description = EXCLUDED.description,
					damage_modifier = EXCLUDED.damage_modifier,
					protection_modifier = EXCLUDED.protection_modifier,
					health_modifier = EXCLUDED.health_modifier
				RETURNING id`,
				rc.Name, rc.Description, rc.DamageModifier, rc.ProtectionModifier, rc.HealthModifier,
			).Scan(&id)
			if err != nil {
				return fmt.Errorf("upserting race %q: %w", rc.Name, err)
			}
			if err := replaceLinks(ctx, tx, "race_professions", "race_id", id, rc.Professions, professionIDs); err != nil {
				return fmt.Errorf("linking race %q: %w", rc.Name, err)
			}
			stats.Races++
		}

		for _, it := range content.Items {
			var id int64
			err := tx.QueryRow(ctx, `
				INSERT INTO items (name, price, level_required, slot, type, bonus_damage, bonus_protection, bonus_health)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				ON CONFLICT (name) DO UPDATE SET
					price = EXCLUDED.price,
					level_required = EXCLUDED.level_required,
					slot = EXCLUDED.slot,
					type = EXCLUDED.type,
					bonus_damage = EXCLUDED.bonus_damage,
					bonus_protection = EXCLUDED.bonus_protection,
					bonus_health = EXCLUDED.bonus_health
				RETURNING id`,
				it.Name, it.Price, it.LevelRequired, string(it.Slot()), string(it.Type),
				it.BonusDamage, it.BonusProtection, it.BonusHealth,
			).Scan(&id)
			if err != nil {
				return fmt.Errorf("upserting item %q: %w", it.Name, err)
			}
			if err := replaceLinks(ctx, tx, "item_professions", "item_id", id, it.Professions, professionIDs); err != nil {
				return fmt.Errorf("linking item %q: %w", it.Name, err)
			}
			stats.Items++
		}

		n, err := refreshCharacters(ctx, tx)
		if err != nil {
			return err
		}
		stats.Characters = n
		return nil
	})
	if err != nil {
		return ImportStats{}, err
	}
	return stats, nil
}

// replaceLinks rewrites the profession links of one owner row.
//
// Precondition: every name is a key of known; Content.Validate guarantees it.
func replaceLinks(ctx context.Context, tx pgx.Tx, table, ownerCol string, ownerID int64, names []string, known map[string]int64) error {
	if _, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE `+ownerCol+` = $1`, ownerID); err != nil {
		return err
	}
	for _, name := range names {
		id, ok := known[name]
		if !ok {
			return fmt.Errorf("profession %q is not part of this import", name)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO `+table+` (`+ownerCol+`, profession_id) VALUES ($1, $2)`,
			ownerID, id,
		); err != nil {
			return err
		}
	}
	return nil
}

// refreshCharacters locks every character, moves equipped items out of slots
// they no longer belong to and rewrites the characters whose equipment or
// stats changed. It returns the number of rewritten characters.
func refreshCharacters(ctx context.Context, tx pgx.Tx) (int, error) {
	t := newTx(tx)
	all, err := t.characters(ctx, `SELECT `+characterColumns+` FROM characters c ORDER BY c.id FOR UPDATE`)
	if err != nil {
		return 0, fmt.Errorf("loading characters: %w", err)
	}
	n := 0
	for _, c := range all {
		before := c.Stats
		moved := inventory.Reslot(c)
		c.RecomputeStats()
		if len(moved) == 0 && c.Stats == before {
			continue
		}
		if err := t.UpdateCharacter(ctx, c); err != nil {
			return n, fmt.Errorf("refreshing character %d: %w", c.ID, err)
		}
		n++
	}
	return n, nil
}

// Load reads every profession, race and item concurrently.
func (r *CatalogRepository) Load(ctx context.Context) (*catalog.Snapshot, error) {
	var snap catalog.Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap.Professions, err = listProfessions(gctx, r.db)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Races, err = listRaces(gctx, r.db)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Items, err = listItems(gctx, r.db, catalog.ItemFilter{})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	return &snap, nil
}

const professionColumns = `id, name, description, damage_base, protection_base, health_base`

func scanProfession(row pgx.Row) (*catalog.Profession, error) {
	var p catalog.Profession
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.DamageBase, &p.ProtectionBase, &p.HealthBase); err != nil {
		return nil, err
	}
	return &p, nil
}

func getProfession(ctx context.Context, q querier, id int64) (*catalog.Profession, error) {
	p, err := scanProfession(q.QueryRow(ctx, `SELECT `+professionColumns+` FROM professions WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "profession")
	}
	return p, nil
}

func listProfessions(ctx context.Context, q querier) ([]*catalog.Profession, error) {
	rows, err := q.Query(ctx, `SELECT `+professionColumns+` FROM professions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing professions: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*catalog.Profession, error) {
		return scanProfession(row)
	})
}

const raceSelect = `
	SELECT r.id, r.name, r.description, r.damage_modifier, r.protection_modifier, r.health_modifier,
	       COALESCE(ARRAY_AGG(rp.profession_id) FILTER (WHERE rp.profession_id IS NOT NULL), '{}')
	FROM races r
	LEFT JOIN race_professions rp ON rp.race_id = r.id`

func scanRace(row pgx.Row) (*catalog.Race, error) {
	var r catalog.Race
	var professions []int64
	if err := row.Scan(&r.ID, &r.Name, &r.Description, &r.DamageModifier, &r.ProtectionModifier, &r.HealthModifier, &professions); err != nil {
		return nil, err
	}
	r.Professions = catalog.NewIDSet(professions...)
	return &r, nil
}

func getRace(ctx context.Context, q querier, id int64) (*catalog.Race, error) {
	r, err := scanRace(q.QueryRow(ctx, raceSelect+` WHERE r.id = $1 GROUP BY r.id`, id))
	if err != nil {
		return nil, notFound(err, "race")
	}
	return r, nil
}

func listRaces(ctx context.Context, q querier) ([]*catalog.Race, error) {
	rows, err := q.Query(ctx, raceSelect+` GROUP BY r.id ORDER BY r.id`)
	if err != nil {
		return nil, fmt.Errorf("listing races: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*catalog.Race, error) {
		return scanRace(row)
	})
}

const itemSelect = `
	SELECT i.id, i.name, i.price, i.level_required, i.slot, i.type,
	       i.bonus_damage, i.bonus_protection, i.bonus_health,
	       COALESCE(ARRAY_AGG(ip.profession_id) FILTER (WHERE ip.profession_id IS NOT NULL), '{}')
	FROM items i
	LEFT JOIN item_professions ip ON ip.item_id = i.id`

func scanItem(row pgx.Row) (*catalog.Item, error) {
	var it catalog.Item
	var slot, typ string
	var professions []int64
	if err := row.Scan(&it.ID, &it.Name, &it.Price, &it.LevelRequired, &slot, &typ,
		&it.BonusDamage, &it.BonusProtection, &it.BonusHealth, &professions); err != nil {
		return nil, err
	}
	it.Slot = catalog.Slot(slot)
	it.Type = catalog.ItemType(typ)
	it.Professions = catalog.NewIDSet(professions...)
	return &it, nil
}

func getItem(ctx context.Context, q querier, id int64) (*catalog.Item, error) {
	it, err := scanItem(q.QueryRow(ctx, itemSelect+` WHERE i.id = $1 GROUP BY i.id`, id))
	if err != nil {
		return nil, notFound(err, "item")
	}
	return it, nil
}

// listItems applies f in SQL with the same ordering as catalog.Less.
func listItems(ctx context.Context, q querier, f catalog.ItemFilter) ([]*catalog.Item, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.Slot != "" {
		where = append(where, "i.slot = "+arg(string(f.Slot)))
	}
	if f.Type != "" {
		where = append(where, "i.type = "+arg(string(f.Type)))
	}
	if f.Name != "" {
		where = append(where, "i.name ILIKE "+arg("%"+escapeLike(f.Name)+"%"))
	}
	sql := itemSelect
	if len(where) > 0 {
		sql += " WHERE " + strings.Join(where, " AND ")
	}
	sql += ` GROUP BY i.id ORDER BY i.slot COLLATE "C", i.type COLLATE "C", i.level_required, i.name COLLATE "C"`
	sql += pageClause(f.Limit, f.Offset, arg)

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*catalog.Item, error) {
		return scanItem(row)
	})
}

// pageClause renders LIMIT/OFFSET. A non-positive limit means no limit.
func pageClause(limit, offset int, arg func(any) string) string {
	var s string
	if limit > 0 {
		s += " LIMIT " + arg(limit)
	}
	if offset > 0 {
		s += " OFFSET " + arg(offset)
	}
	return s
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// notFound maps pgx.ErrNoRows to arena.ErrNotFound.
func notFound(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, arena.ErrNotFound)
	}
	return fmt.Errorf("querying %s: %w", what, err)
}
