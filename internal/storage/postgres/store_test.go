package postgres_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/arena/internal/arena"
	"github.com/cory-johannsen/arena/internal/config"
	"github.com/cory-johannsen/arena/internal/game/battle"
	"github.com/cory-johannsen/arena/internal/game/catalog"
	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/matchmaking"
	"github.com/cory-johannsen/arena/internal/game/violation"
	"github.com/cory-johannsen/arena/internal/storage/postgres"
	"github.com/cory-johannsen/arena/internal/testutil"
)

func byName[T any](t *testing.T, items []T, name func(T) string, want string) T {
	t.Helper()
	for _, it := range items {
		if name(it) == want {
			return it
		}
	}
	t.Fatalf("%q not found", want)
	var zero T
	return zero
}

// TestStore shares one migrated container across subtests.
func TestStore(t *testing.T) {
	pool := testutil.NewPool(t)
	ctx := context.Background()

	content, err := catalog.LoadContent(filepath.Join("..", "..", "..", "content"))
	require.NoError(t, err)

	catalogs := postgres.NewCatalogRepository(pool)
	stats, err := catalogs.Import(ctx, content)
	require.NoError(t, err)
	assert.Equal(t, len(content.Items), stats.Items)

	snap, err := catalogs.Load(ctx)
	require.NoError(t, err)
	human := byName(t, snap.Races, func(r *catalog.Race) string { return r.Name }, "Human")
	elf := byName(t, snap.Races, func(r *catalog.Race) string { return r.Name }, "Elf")
	warrior := byName(t, snap.Professions, func(p *catalog.Profession) string { return p.Name }, "Warrior")
	sword := byName(t, snap.Items, func(i *catalog.Item) string { return i.Name }, "Rusty Sword")
	ring := byName(t, snap.Items, func(i *catalog.Item) string { return i.Name }, "Copper Ring")

	players := postgres.NewPlayerRepository(pool)
	alice, err := players.Create(ctx, "alice", "password123", 2)
	require.NoError(t, err)
	bob, err := players.Create(ctx, "bob", "hunter22", 6)
	require.NoError(t, err)

	game := config.GameConfig{
		DefaultMaxCharacters: 6,
		StartingGold:         100,
		LevelWindow:          25,
		CandidatePool:        10,
		MinOpponents:         3,
		OpponentTTL:          time.Minute,
		OpponentStore:        config.OpponentStoreMemory,
	}
	store := postgres.NewStore(pool)
	svc := arena.NewService(store, matchmaking.NewMemoryStore(game.OpponentTTL, nil), dice.NewSequence(0), game, zaptest.NewLogger(t))

	t.Run("import is idempotent", func(t *testing.T) {
		_, err := catalogs.Import(ctx, content)
		require.NoError(t, err)
		again, err := catalogs.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, snap.Items, again.Items)
		assert.Equal(t, snap.Races, again.Races)
	})

	t.Run("races keep their professions", func(t *testing.T) {
		assert.True(t, human.Allows(warrior.ID))
		assert.False(t, elf.Allows(warrior.ID))
	})

	t.Run("players", func(t *testing.T) {
		_, err := players.Create(ctx, "alice", "other", 6)
		assert.ErrorIs(t, err, postgres.ErrPlayerExists)

		got, err := players.Authenticate(ctx, "alice", "password123")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, got.ID)
		assert.Equal(t, 2, got.MaxCharacters)

		_, err = players.Authenticate(ctx, "alice", "nope")
		assert.ErrorIs(t, err, postgres.ErrInvalidCredentials)
		_, err = players.GetByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, postgres.ErrPlayerNotFound)
		assert.ErrorIs(t, players.SetMaxCharacters(ctx, 999999, 3), postgres.ErrPlayerNotFound)
		assert.ErrorIs(t, players.SetMaxCharacters(ctx, alice.ID, -1), postgres.ErrInvalidQuota)
	})

	var hero, rival int64

	t.Run("create character", func(t *testing.T) {
		c, err := svc.CreateCharacter(ctx, alice.ID, arena.NewCharacter{Name: "Hero", RaceID: human.ID, ProfessionID: warrior.ID})
		require.NoError(t, err)
		hero = c.ID
		assert.NotZero(t, c.CreatedAt)
		assert.Equal(t, 100, c.Gold)

		r, err := svc.CreateCharacter(ctx, bob.ID, arena.NewCharacter{Name: "Rival", RaceID: human.ID, ProfessionID: warrior.ID})
		require.NoError(t, err)
		rival = r.ID

		_, err = svc.CreateCharacter(ctx, bob.ID, arena.NewCharacter{Name: "Hero", RaceID: human.ID, ProfessionID: warrior.ID})
		assert.True(t, violation.Is(err, violation.MsgNameTaken))

		_, err = svc.CreateCharacter(ctx, bob.ID, arena.NewCharacter{Name: "Legolas", RaceID: elf.ID, ProfessionID: warrior.ID})
		assert.True(t, violation.Is(err, violation.MsgProfessionNotForRace))
	})

	t.Run("buy equip and reload", func(t *testing.T) {
		_, err := svc.BuyItem(ctx, alice.ID, hero, sword.ID)
		require.NoError(t, err)
		_, err = svc.BuyItem(ctx, alice.ID, hero, ring.ID)
		require.NoError(t, err)
		_, err = svc.EquipItem(ctx, alice.ID, hero, sword.ID)
		require.NoError(t, err)

		c, err := svc.Character(ctx, hero)
		require.NoError(t, err)
		require.NoError(t, c.Validate(), "stored stats match the recomputed ones")
		assert.Equal(t, 100-sword.Price-ring.Price, c.Gold)
		assert.Equal(t, sword.ID, c.Equipment.Weapon.ID)
		assert.True(t, c.Inventory.Contains(ring.ID))
		assert.False(t, c.Inventory.Contains(sword.ID))

		items, err := svc.Inventory(ctx, alice.ID, hero, catalog.ItemFilter{})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, ring.ID, items[0].ID)
	})

	t.Run("failed operation leaves row unchanged", func(t *testing.T) {
		before, err := svc.Character(ctx, hero)
		require.NoError(t, err)
		_, err = svc.BuyItem(ctx, alice.ID, hero, sword.ID)
		assert.True(t, violation.Is(err, violation.MsgItemAlreadyOwned))
		after, err := svc.Character(ctx, hero)
		require.NoError(t, err)
		assert.Equal(t, before.Gold, after.Gold)
		assert.Equal(t, before.UpdatedAt, after.UpdatedAt)
	})

	t.Run("list items filters in SQL", func(t *testing.T) {
		items, err := svc.ListItems(ctx, catalog.ItemFilter{Slot: catalog.SlotAccessory, Name: "RING"})
		require.NoError(t, err)
		require.NotEmpty(t, items)
		for _, it := range items {
			assert.Equal(t, catalog.SlotAccessory, it.Slot)
			assert.Contains(t, it.Name, "Ring")
		}

		all, err := svc.ListItems(ctx, catalog.ItemFilter{Limit: 100})
		require.NoError(t, err)
		assert.Equal(t, catalog.ItemFilter{}.Apply(snap.Items), all, "SQL ordering agrees with catalog.Less")
	})

	t.Run("matchmaking and battle", func(t *testing.T) {
		opponents, err := svc.FindOpponents(ctx, alice.ID, hero)
		require.NoError(t, err)
		require.Len(t, opponents, 1)
		assert.Equal(t, rival, opponents[0].ID)

		b, err := svc.CreateBattle(ctx, alice.ID, hero, rival)
		require.NoError(t, err)
		require.NotNil(t, b.WinnerID)
		assert.Equal(t, hero, *b.WinnerID)

		_, err = svc.CreateBattle(ctx, alice.ID, hero, rival)
		assert.True(t, violation.Is(err, violation.MsgOpponentNotOffered))

		history, err := svc.ListBattles(ctx, arena.BattleFilter{CharacterID: rival})
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, b.ID, history[0].ID)
		assert.Equal(t, "Hero", history[0].WinnerName)
		assert.Equal(t, "Rival", history[0].DefenderName)
		assert.Equal(t, "Rival", history[0].LoserName)

		got, err := svc.Battle(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, "Hero", got.WinnerName)
		assert.Equal(t, "Rival", got.LoserName)
		assert.Equal(t, b.GoldReward, got.GoldReward)
		_, err = svc.Battle(ctx, uuid.New())
		assert.ErrorIs(t, err, arena.ErrNotFound)

		winner, err := svc.Character(ctx, hero)
		require.NoError(t, err)
		gold, exp := battle.Rewards(1)
		assert.Equal(t, gold, b.GoldReward)
		assert.Equal(t, 100-sword.Price-ring.Price+gold, winner.Gold)
		assert.Equal(t, exp, winner.Experience)
		require.NoError(t, winner.Validate())
	})

	t.Run("ladder", func(t *testing.T) {
		ladder, err := svc.Ladder(ctx, arena.LadderQuery{})
		require.NoError(t, err)
		require.Len(t, ladder, 2)
		assert.Equal(t, "Hero", ladder[0].Name)

		filtered, err := svc.Ladder(ctx, arena.LadderQuery{Name: "riv"})
		require.NoError(t, err)
		require.Len(t, filtered, 1)
		assert.Equal(t, rival, filtered[0].ID)
	})

	t.Run("delete keeps battle history", func(t *testing.T) {
		require.NoError(t, svc.DeleteCharacter(ctx, bob.ID, rival))
		_, err := svc.Character(ctx, rival)
		assert.ErrorIs(t, err, arena.ErrNotFound)

		history, err := svc.ListBattles(ctx, arena.BattleFilter{CharacterID: hero})
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Nil(t, history[0].DefenderID)
		assert.Empty(t, history[0].DefenderName)
		assert.Empty(t, history[0].LoserName)
	})

	t.Run("re-import moves equipped items out of changed slots", func(t *testing.T) {
		items := make([]*catalog.ItemDef, len(content.Items))
		for i, def := range content.Items {
			cp := *def
			if cp.Name == sword.Name {
				cp.Type = catalog.TypeAmulet
			}
			items[i] = &cp
		}
		changed := *content
		changed.Items = items
		require.NoError(t, changed.Validate())

		stats, err := catalogs.Import(ctx, &changed)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Characters)

		c, err := svc.Character(ctx, hero)
		require.NoError(t, err)
		assert.Nil(t, c.Equipment.Weapon)
		assert.True(t, c.Inventory.Contains(sword.ID))
		require.NoError(t, c.Validate(), "stored stats follow the new catalog")

		_, err = svc.AddExperience(ctx, alice.ID, hero, 1)
		require.NoError(t, err)
		c, err = svc.EquipItem(ctx, alice.ID, hero, sword.ID)
		require.NoError(t, err)
		require.NotNil(t, c.Equipment.Accessory)
		assert.Equal(t, sword.ID, c.Equipment.Accessory.ID)

		stats, err = catalogs.Import(ctx, &changed)
		require.NoError(t, err)
		assert.Zero(t, stats.Characters, "an unchanged catalog rewrites nothing")
	})
}
