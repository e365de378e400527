// Package arena is the operation surface of the game: every player action is
// one Service call running in one Store transaction.
package arena

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/config"
	"github.com/cory-johannsen/arena/internal/game/battle"
	"github.com/cory-johannsen/arena/internal/game/catalog"
	"github.com/cory-johannsen/arena/internal/game/character"
	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/inventory"
	"github.com/cory-johannsen/arena/internal/game/matchmaking"
	"github.com/cory-johannsen/arena/internal/game/violation"
	"github.com/cory-johannsen/arena/internal/observability"
)

// Listing caps.
const (
	DefaultLadderLimit  = 100
	DefaultBattlesLimit = 25
	MaxListLimit        = 100
)

// NewCharacter is a character creation request.
type NewCharacter struct {
	Name         string
	RaceID       int64
	ProfessionID int64
}

// Service executes player actions against a Store.
type Service struct {
	store     Store
	opponents matchmaking.OpponentStore
	src       dice.Source
	game      config.GameConfig
	logger    *zap.Logger
	now       func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the time source used for battle timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service.
//
// Precondition: every argument is non-nil.
func NewService(store Store, opponents matchmaking.OpponentStore, src dice.Source, game config.GameConfig, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store:     store,
		opponents: opponents,
		src:       src,
		game:      game,
		logger:    logger,
		now:       time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) params() matchmaking.Params {
	return matchmaking.Params{
		LevelWindow:  s.game.LevelWindow,
		PoolSize:     s.game.CandidatePool,
		MinOpponents: s.game.MinOpponents,
	}
}

// done logs the outcome of op: successes at info, violations at debug and
// infrastructure failures at error.
func (s *Service) done(op string, err error, fields ...zap.Field) {
	fields = append(fields, observability.Outcome(err))
	var v *violation.Error
	switch {
	case err == nil:
		s.logger.Info(op, fields...)
	case errors.As(err, &v):
		s.logger.Debug(op, append(fields, zap.Strings("violations", v.Messages()))...)
	default:
		s.logger.Error(op, append(fields, zap.Error(err))...)
	}
}

func notOwned() error {
	return violation.New(violation.KindOwnership, violation.MsgCharacterNotOwned)
}

// ownedCharacter loads characterID and checks that playerID owns it.
func ownedCharacter(ctx context.Context, tx Tx, playerID, characterID int64) (*character.Character, error) {
	c, err := tx.GetCharacter(ctx, characterID)
	if errors.Is(err, ErrNotFound) {
		return nil, notOwned()
	}
	if err != nil {
		return nil, fmt.Errorf("loading character %d: %w", characterID, err)
	}
	if c.PlayerID != playerID {
		return nil, notOwned()
	}
	return c, nil
}

// reslot returns items left in a foreign slot by a catalog import to the
// inventory of c.
func (s *Service) reslot(c *character.Character) {
	for _, it := range inventory.Reslot(c) {
		s.logger.Warn("equipped item no longer fits its slot",
			zap.Int64("character_id", c.ID), zap.Int64("item_id", it.ID), zap.String("slot", string(it.Slot)))
	}
}

// save recomputes stats, checks invariants and persists c.
func (s *Service) save(ctx context.Context, tx Tx, c *character.Character) error {
	s.reslot(c)
	c.RecomputeStats()
	if err := c.Validate(); err != nil {
		return fmt.Errorf("character %d failed validation: %w", c.ID, err)
	}
	if err := tx.UpdateCharacter(ctx, c); err != nil {
		return fmt.Errorf("saving character %d: %w", c.ID, err)
	}
	return nil
}

// mutate runs fn against a locked, owned character and saves the result.
func (s *Service) mutate(ctx context.Context, playerID, characterID int64, fn func(Tx, *character.Character) error) (*character.Character, error) {
	var out *character.Character
	err := s.store.WithTransaction(ctx, func(tx Tx) error {
		if err := tx.LockCharacters(ctx, characterID); err != nil {
			return fmt.Errorf("locking character %d: %w", characterID, err)
		}
		c, err := ownedCharacter(ctx, tx, playerID, characterID)
		if err != nil {
			return err
		}
		s.reslot(c)
		if err := fn(tx, c); err != nil {
			return err
		}
		if err := s.save(ctx, tx, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func loadItem(ctx context.Context, tx Tx, itemID int64) (*catalog.Item, error) {
	it, err := tx.GetItem(ctx, itemID)
	if errors.Is(err, ErrNotFound) {
		return nil, violation.New(violation.KindFormat, violation.MsgUnknownItem)
	}
	if err != nil {
		return nil, fmt.Errorf("loading item %d: %w", itemID, err)
	}
	return it, nil
}

// CreateCharacter validates and stores a new level 1 character for playerID.
//
// Postcondition: on success the character is persisted with computed stats;
// otherwise nothing is written and a *violation.Error lists every broken rule.
func (s *Service) CreateCharacter(ctx context.Context, playerID int64, req NewCharacter) (*character.Character, error) {
	var out *character.Character
	err := s.store.WithTransaction(ctx, func(tx Tx) error {
		player, err := tx.GetPlayer(ctx, playerID)
		if err != nil {
			return fmt.Errorf("loading player %d: %w", playerID, err)
		}
		race, err := tx.GetRace(ctx, req.RaceID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("loading race %d: %w", req.RaceID, err)
		}
		profession, err := tx.GetProfession(ctx, req.ProfessionID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("loading profession %d: %w", req.ProfessionID, err)
		}
		if race == nil || profession == nil {
			var errs violation.List
			if !character.ValidName(req.Name) {
				errs.Add(violation.KindFormat, violation.MsgInvalidName)
			}
			if race == nil {
				errs.Add(violation.KindFormat, violation.MsgUnknownRace)
			}
			if profession == nil {
				errs.Add(violation.KindFormat, violation.MsgUnknownProfession)
			}
			return errs.Err()
		}
		owned, err := tx.CountCharacters(ctx, playerID)
		if err != nil {
			return fmt.Errorf("counting characters of player %d: %w", playerID, err)
		}
		c, err := character.Build(player, owned, req.Name, race, profession, s.game.StartingGold)
		if err != nil {
			return err
		}
		if err := c.Validate(); err != nil {
			return fmt.Errorf("new character failed validation: %w", err)
		}
		err = tx.CreateCharacter(ctx, c)
		if errors.Is(err, ErrNameTaken) {
			return violation.New(violation.KindStateConflict, violation.MsgNameTaken)
		}
		if err != nil {
			return fmt.Errorf("creating character: %w", err)
		}
		out = c
		return nil
	})
	fields := []zap.Field{zap.Int64("player_id", playerID), zap.String("name", req.Name)}
	if out != nil {
		fields = append(fields, zap.Int64("character_id", out.ID))
	}
	s.done("character created", err, fields...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) itemOp(ctx context.Context, op string, playerID, characterID, itemID int64, fn func(*character.Character, *catalog.Item) error) (*character.Character, error) {
	c, err := s.mutate(ctx, playerID, characterID, func(tx Tx, c *character.Character) error {
		it, err := loadItem(ctx, tx, itemID)
		if err != nil {
			return err
		}
		return fn(c, it)
	})
	fields := []zap.Field{zap.Int64("player_id", playerID), zap.Int64("character_id", characterID), zap.Int64("item_id", itemID)}
	if c != nil {
		fields = append(fields, zap.Int("gold", c.Gold))
	}
	s.done(op, err, fields...)
	return c, err
}

// EquipItem moves an inventory item into its slot, displacing any occupant
// back into the inventory.
func (s *Service) EquipItem(ctx context.Context, playerID, characterID, itemID int64) (*character.Character, error) {
	return s.itemOp(ctx, "item equipped", playerID, characterID, itemID, func(c *character.Character, it *catalog.Item) error {
		_, err := inventory.Equip(c, it)
		return err
	})
}

// UnequipItem moves an equipped item back into the inventory.
func (s *Service) UnequipItem(ctx context.Context, playerID, characterID, itemID int64) (*character.Character, error) {
	return s.itemOp(ctx, "item unequipped", playerID, characterID, itemID, inventory.Unequip)
}

// BuyItem purchases an item into the inventory.
func (s *Service) BuyItem(ctx context.Context, playerID, characterID, itemID int64) (*character.Character, error) {
	return s.itemOp(ctx, "item bought", playerID, characterID, itemID, inventory.Buy)
}

// SellItem sells an inventory item for its sell price.
func (s *Service) SellItem(ctx context.Context, playerID, characterID, itemID int64) (*character.Character, error) {
	return s.itemOp(ctx, "item sold", playerID, characterID, itemID, inventory.Sell)
}

// AddExperience grants experience through the progression ledger.
//
// Precondition: amount >= 0; a negative amount is a format violation.
func (s *Service) AddExperience(ctx context.Context, playerID, characterID int64, amount int) (*character.Character, error) {
	if amount < 0 {
		err := violation.New(violation.KindFormat, violation.MsgNegativeExperience)
		s.done("experience added", err, zap.Int64("character_id", characterID), zap.Int("amount", amount))
		return nil, err
	}
	gained := 0
	c, err := s.mutate(ctx, playerID, characterID, func(_ Tx, c *character.Character) error {
		gained = character.AddExp(c, amount)
		return nil
	})
	s.done("experience added", err,
		zap.Int64("character_id", characterID), zap.Int("amount", amount), zap.Int("levels_gained", gained))
	return c, err
}

// FindOpponents selects opponents for characterID and remembers the offer
// for CreateBattle, replacing any earlier offer.
func (s *Service) FindOpponents(ctx context.Context, playerID, characterID int64) ([]*character.Character, error) {
	var offered []*character.Character
	err := s.store.WithTransaction(ctx, func(tx Tx) error {
		c, err := ownedCharacter(ctx, tx, playerID, characterID)
		if err != nil {
			return err
		}
		q := matchmaking.NewQuery(playerID, c.Level, s.params())
		pool, err := tx.FindCandidates(ctx, q)
		if err != nil {
			return fmt.Errorf("finding candidates for character %d: %w", characterID, err)
		}
		byID := make(map[int64]*character.Character, len(pool))
		candidates := make([]matchmaking.Candidate, 0, len(pool))
		for _, p := range pool {
			byID[p.ID] = p
			candidates = append(candidates, matchmaking.Candidate{ID: p.ID, PlayerID: p.PlayerID, Name: p.Name, Level: p.Level})
		}
		for _, m := range matchmaking.Match(q, candidates, s.game.MinOpponents) {
			offered = append(offered, byID[m.ID])
		}
		return nil
	})
	if err == nil {
		ids := make([]int64, len(offered))
		for i, o := range offered {
			ids[i] = o.ID
		}
		key := matchmaking.Key{PlayerID: playerID, CharacterID: characterID}
		if rerr := s.opponents.Remember(ctx, key, ids); rerr != nil {
			err = fmt.Errorf("remembering opponents for %s: %w", key, rerr)
		}
	}
	s.done("opponents offered", err, zap.Int64("character_id", characterID), zap.Int("count", len(offered)))
	if err != nil {
		return nil, err
	}
	return offered, nil
}

// CreateBattle fights attackerID against a defender offered by the latest
// FindOpponents call. The offer is consumed once the defender is accepted.
//
// Postcondition: on success the winner's rewards and the battle record are
// committed together.
func (s *Service) CreateBattle(ctx context.Context, playerID, attackerID, defenderID int64) (*battle.Battle, error) {
	b, err := s.createBattle(ctx, playerID, attackerID, defenderID)
	fields := []zap.Field{zap.Int64("attacker_id", attackerID), zap.Int64("defender_id", defenderID)}
	if b != nil {
		fields = append(fields, zap.Stringer("battle_id", b.ID), zap.Int64("winner_id", *b.WinnerID),
			zap.Int("gold_reward", b.GoldReward), zap.Int("exp_reward", b.ExpReward))
	}
	s.done("battle resolved", err, fields...)
	return b, err
}

func (s *Service) createBattle(ctx context.Context, playerID, attackerID, defenderID int64) (*battle.Battle, error) {
	key := matchmaking.Key{PlayerID: playerID, CharacterID: attackerID}
	if err := matchmaking.Consume(ctx, s.opponents, key, defenderID); err != nil {
		return nil, err
	}
	if attackerID == defenderID {
		return nil, violation.New(violation.KindStateConflict, violation.MsgSelfBattle)
	}

	var out *battle.Battle
	err := s.store.WithTransaction(ctx, func(tx Tx) error {
		ids := []int64{attackerID, defenderID}
		slices.Sort(ids)
		if err := tx.LockCharacters(ctx, ids...); err != nil {
			return fmt.Errorf("locking battle participants: %w", err)
		}
		attacker, err := ownedCharacter(ctx, tx, playerID, attackerID)
		if err != nil {
			return err
		}
		defender, err := tx.GetCharacter(ctx, defenderID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("loading defender %d: %w", defenderID, err)
		}
		outcome, err := battle.Resolve(attacker, defender, s.src, s.now().UTC())
		if err != nil {
			return err
		}
		if err := s.save(ctx, tx, outcome.Winner); err != nil {
			return err
		}
		if err := outcome.Battle.Validate(); err != nil {
			return err
		}
		if err := tx.CreateBattle(ctx, outcome.Battle); err != nil {
			return fmt.Errorf("recording battle: %w", err)
		}
		out = outcome.Battle
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Character returns any character by ID.
func (s *Service) Character(ctx context.Context, characterID int64) (*character.Character, error) {
	var out *character.Character
	err := s.store.WithTransaction(ctx, func(tx Tx) error {
		c, err := tx.GetCharacter(ctx, characterID)
		if err != nil {
			return fmt.Errorf("loading character %d: %w", characterID, err)
		}
		out = c
		return nil
	})
	return out, err
}

// ListCharacters returns the characters owned by playerID ordered by ID.
func (s *Service) ListCharacters(ctx context.Context, playerID int64) ([]*character.Character, error) {
	var out []*character.Character
	err := s.store.WithTransaction(ctx, func(tx Tx) error {
		var err error
		out, err = tx.ListCharacters(ctx, playerID)
		if err != nil {
			return fmt.Errorf("listing characters of player %d: %w", playerID, err)
		}
		return nil
	})
	return out, err
}

// DeleteCharacter removes an owned character. Battles it took part in keep
// their record with the reference cleared.
func (s *Service) DeleteCharacter(ctx context.Context, playerID, characterID int64) error {
	err := s.store.WithTransaction(ctx, func(tx Tx) error {
		if err := tx.LockCharacters(ctx, characterID); err != nil {
			return fmt.Errorf("locking character %d: %w", characterID, err)
		}
		if _, err := ownedCharacter(ctx, tx, playerID, characterID); err != nil {
			return err
		}
		if err := tx.DeleteCharacter(ctx, characterID); err != nil {
			return fmt.Errorf("deleting character %d: %w", characterID, err)
		}
		return nil
	})
	if err == nil {
		key := matchmaking.Key{PlayerID: playerID, CharacterID: characterID}
		if ferr := s.opponents.Forget(ctx, key); ferr != nil {
			s.logger.Warn("forgetting opponents of deleted character", zap.Stringer("key", key), zap.Error(ferr))
		}
	}
	s.done("character deleted", err, zap.Int64("player_id", playerID), zap.Int64("character_id", characterID))
	return err
}

func clampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	return min(limit, MaxListLimit)
}

// Ladder ranks characters by level, highest first.
func (s *Service) Ladder(ctx context.Context, q LadderQuery) ([]*character.Character, error) {
	q.Limit = clampLimit(q.Limit, DefaultLadderLimit)
	q.Offset = max(q.Offset, 0)
	var out []*character.Character
	err := s.store.WithTransaction(ctx, func(tx Tx) error {
		var err error
		out, err = tx.Ladder(ctx, q)
		if err != nil {
			return fmt.Errorf("loading ladder: %w", err)
		}
		return nil
	})
	return out, err
}

// ListBattles returns battle history, newest first.
func (s *Service) ListBattles(ctx context.Context, f BattleFilter) ([]*battle.Battle, error) {
	f.Limit = clampLimit(f.Limit, DefaultBattlesLimit)
	f.Offset = max(f.Offset, 0)
	var out []*battle.Battle
	err := s.store.WithTransaction(ctx, func(tx Tx) error {
		var err error
		out, err = tx.ListBattles(ctx, f)
		if err != nil {
			return fmt.Errorf("listing battles: %w", err)
		}
		return nil
	})
	return out, err
}

// Battle returns one battle with its winner and loser.
func (s *Service) Battle(ctx context.Context, id uuid.UUID) (*battle.Battle, error) {
	var out *battle.Battle
	err := s.store.WithTransaction(ctx, func(tx Tx) error {
		b, err := tx.GetBattle(ctx, id)
		if err != nil {
			return fmt.Errorf("loading battle %s: %w", id, err)
		}
		out = b
		return nil
	})
	return out, err
}

// ListItems returns the shop listing.
func (s *Service) ListItems(ctx context.Context, f catalog.ItemFilter) ([]*catalog.Item, error) {
	f.Offset = max(f.Offset, 0)
	var out []*catalog.Item
	err := s.store.WithTransaction(ctx, func(tx Tx) error {
		var err error
		out, err = tx.ListItems(ctx, f)
		if err != nil {
			return fmt.Errorf("listing items: %w", err)
		}
		return nil
	})
	return out, err
}

// Inventory returns the owned character's unequipped items matching f.
func (s *Service) Inventory(ctx context.Context, playerID, characterID int64, f catalog.ItemFilter) ([]*catalog.Item, error) {
	var out []*catalog.Item
	err := s.store.WithTransaction(ctx, func(tx Tx) error {
		c, err := ownedCharacter(ctx, tx, playerID, characterID)
		if err != nil {
			return err
		}
		out = f.Apply(c.Inventory.Items())
		return nil
	})
	return out, err
}

// Catalog returns every race, profession and item.
func (s *Service) Catalog(ctx context.Context) (*catalog.Snapshot, error) {
	snap, err := s.store.Catalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	return snap, nil
}
