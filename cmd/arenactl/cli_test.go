package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/arena/internal/arena"
	"github.com/cory-johannsen/arena/internal/game/battle"
	"github.com/cory-johannsen/arena/internal/game/catalog"
	"github.com/cory-johannsen/arena/internal/game/character"
	"github.com/cory-johannsen/arena/internal/game/violation"
)

// fakeService embeds Service so unimplemented methods panic.
type fakeService struct {
	Service
	calls   []string
	ladder  arena.LadderQuery
	items   catalog.ItemFilter
	battles arena.BattleFilter
	fail    error
}

var (
	warrior = &catalog.Profession{ID: 1, Name: "Warrior"}
	human   = &catalog.Race{ID: 1, Name: "Human", Professions: catalog.NewIDSet(1)}
	sword   = &catalog.Item{ID: 9, Name: "Sword", Slot: catalog.SlotWeapon, Type: catalog.TypeSword, Price: 30}
)

func hero() *character.Character {
	return &character.Character{ID: 5, PlayerID: 1, Name: "Hero", Race: human, Profession: warrior, Level: 1,
		Inventory: character.Inventory{}}
}

func (f *fakeService) record(name string, args ...any) error {
	f.calls = append(f.calls, strings.TrimSpace(fmt.Sprintln(append([]any{name}, args...)...)))
	return f.fail
}

func (f *fakeService) BuyItem(_ context.Context, playerID, characterID, itemID int64) (*character.Character, error) {
	if err := f.record("buy", playerID, characterID, itemID); err != nil {
		return nil, err
	}
	c := hero()
	c.Inventory[sword.ID] = sword
	return c, nil
}

func (f *fakeService) CreateCharacter(_ context.Context, playerID int64, req arena.NewCharacter) (*character.Character, error) {
	if err := f.record("create", playerID, req.Name, req.RaceID, req.ProfessionID); err != nil {
		return nil, err
	}
	return hero(), nil
}

func (f *fakeService) CreateBattle(_ context.Context, playerID, attackerID, defenderID int64) (*battle.Battle, error) {
	if err := f.record("battle", playerID, attackerID, defenderID); err != nil {
		return nil, err
	}
	a, d := attackerID, defenderID
	return &battle.Battle{AttackerID: &a, DefenderID: &d, WinnerID: &d, LoserID: &a,
		AttackerName: "Hero", DefenderName: "Rival", WinnerName: "Rival", LoserName: "Hero", GoldReward: 3, ExpReward: 12}, nil
}

var reportID = uuid.MustParse("5f0c4a52-2a4e-4c4f-9a55-0d7f2f6e1b11")

func (f *fakeService) Battle(_ context.Context, id uuid.UUID) (*battle.Battle, error) {
	if err := f.record("report", id); err != nil {
		return nil, err
	}
	if id != reportID {
		return nil, arena.ErrNotFound
	}
	a, d := int64(5), int64(6)
	return &battle.Battle{ID: id, AttackerID: &a, DefenderID: &d, WinnerID: &a, LoserID: &d,
		AttackerName: "Hero", WinnerName: "Hero", GoldReward: 3, ExpReward: 12,
		CreatedAt: time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)}, nil
}

func (f *fakeService) Ladder(_ context.Context, q arena.LadderQuery) ([]*character.Character, error) {
	f.ladder = q
	return []*character.Character{hero()}, f.record("ladder")
}

func (f *fakeService) ListItems(_ context.Context, flt catalog.ItemFilter) ([]*catalog.Item, error) {
	f.items = flt
	return []*catalog.Item{sword}, f.record("items")
}

func (f *fakeService) ListBattles(_ context.Context, flt arena.BattleFilter) ([]*battle.Battle, error) {
	f.battles = flt
	return nil, f.record("history")
}

type fakePlayers struct {
	logins int
}

func (p *fakePlayers) Create(_ context.Context, username, _ string, maxCharacters int) (*character.Player, error) {
	return &character.Player{ID: 3, Username: username, MaxCharacters: maxCharacters}, nil
}

func (p *fakePlayers) Authenticate(_ context.Context, username, password string) (*character.Player, error) {
	p.logins++
	if password != "secret" {
		return nil, errors.New("invalid credentials")
	}
	return &character.Player{ID: 1, Username: username}, nil
}

func newCLI(svc *fakeService, in string) (*CLI, *bytes.Buffer, *fakePlayers) {
	out := &bytes.Buffer{}
	players := &fakePlayers{}
	return &CLI{
		Service:      svc,
		Players:      players,
		DefaultQuota: 6,
		Username:     "alice",
		Password:     "secret",
		Out:          out,
		In:           strings.NewReader(in),
	}, out, players
}

func TestRun_UnknownCommand(t *testing.T) {
	cli, _, _ := newCLI(&fakeService{}, "")
	assert.ErrorContains(t, cli.Run(context.Background(), []string{"dance"}), `unknown command "dance"`)
	assert.Error(t, cli.Run(context.Background(), nil))
}

func TestRun_Register(t *testing.T) {
	cli, out, _ := newCLI(&fakeService{}, "")
	require.NoError(t, cli.Run(context.Background(), []string{"register", "bob", "pw"}))
	assert.Contains(t, out.String(), "registered bob (#3), up to 6 characters")
}

func TestRun_BuyPrintsCharacter(t *testing.T) {
	svc := &fakeService{}
	cli, out, _ := newCLI(svc, "")
	require.NoError(t, cli.Run(context.Background(), []string{"buy", "5", "9"}))
	assert.Equal(t, []string{"buy 1 5 9"}, svc.calls)
	assert.Contains(t, out.String(), "bought item #9")
	assert.Contains(t, out.String(), "Sword (#9)")
}

func TestRun_RejectsBadIDs(t *testing.T) {
	svc := &fakeService{}
	cli, _, players := newCLI(svc, "")
	err := cli.Run(context.Background(), []string{"equip", "5", "x"})
	assert.ErrorContains(t, err, `item must be a positive integer, got "x"`)
	assert.ErrorContains(t, cli.Run(context.Background(), []string{"sell", "5"}), "expected character item")
	assert.Empty(t, svc.calls)
	assert.Zero(t, players.logins, "arguments are checked before logging in")
}

func TestRun_NeedsCredentials(t *testing.T) {
	cli, _, _ := newCLI(&fakeService{}, "")
	cli.Password = ""
	assert.ErrorContains(t, cli.Run(context.Background(), []string{"create", "Hero", "1", "1"}), "needs -user and -password")
}

func TestRun_Battle(t *testing.T) {
	cli, out, _ := newCLI(&fakeService{}, "")
	require.NoError(t, cli.Run(context.Background(), []string{"battle", "5", "6"}))
	assert.Equal(t, "Rival defeated Hero and earned 3 gold and 12 exp\n", out.String())
}

func TestRun_Report(t *testing.T) {
	svc := &fakeService{}
	cli, out, players := newCLI(svc, "")
	require.NoError(t, cli.Run(context.Background(), []string{"report", reportID.String()}))

	assert.Contains(t, out.String(), "2026-05-01 09:30")
	assert.Regexp(t, `winner\s+Hero`, out.String())
	assert.Regexp(t, `loser\s+\(deleted\)`, out.String())
	assert.Regexp(t, `rewards\s+3 gold, 12 exp`, out.String())
	assert.Zero(t, players.logins, "reports are public")

	assert.ErrorContains(t, cli.Run(context.Background(), []string{"report", "42"}), "must be a UUID")
	assert.ErrorIs(t, cli.Run(context.Background(), []string{"report", uuid.NewString()}), arena.ErrNotFound)
}

func TestRun_ListFlags(t *testing.T) {
	svc := &fakeService{}
	cli, _, _ := newCLI(svc, "")
	ctx := context.Background()

	require.NoError(t, cli.Run(ctx, []string{"ladder", "-name", "he", "-limit", "5"}))
	assert.Equal(t, arena.LadderQuery{Name: "he", Limit: 5}, svc.ladder)

	require.NoError(t, cli.Run(ctx, []string{"items", "-slot", "weapon", "-type", "sword", "-name", "sw"}))
	assert.Equal(t, catalog.ItemFilter{Slot: catalog.SlotWeapon, Type: catalog.TypeSword, Name: "sw"}, svc.items)

	require.NoError(t, cli.Run(ctx, []string{"history", "-character", "5"}))
	assert.Equal(t, arena.BattleFilter{CharacterID: 5, Limit: arena.DefaultBattlesLimit}, svc.battles)

	assert.Error(t, cli.Run(ctx, []string{"items", "-slot", "boots"}))
}

func TestShell_ContinuesAfterRejection(t *testing.T) {
	svc := &fakeService{fail: violation.New(violation.KindInsufficientResource, violation.MsgNotEnoughGold)}
	cli, out, players := newCLI(svc, "buy 5 9\n\nbogus\nbuy 5 9\nexit\nbuy 5 9\n")
	require.NoError(t, cli.Run(context.Background(), []string{"shell"}))

	assert.Len(t, svc.calls, 2, "commands after exit are not run")
	assert.Equal(t, 2, strings.Count(out.String(), "rejected: not enough gold"))
	assert.Contains(t, out.String(), `error: unknown command "bogus"`)
	assert.Equal(t, 1, players.logins, "the shell logs in once")
}
