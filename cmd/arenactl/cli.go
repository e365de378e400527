package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/cory-johannsen/arena/internal/arena"
	"github.com/cory-johannsen/arena/internal/game/battle"
	"github.com/cory-johannsen/arena/internal/game/catalog"
	"github.com/cory-johannsen/arena/internal/game/character"
	"github.com/cory-johannsen/arena/internal/game/violation"
)

// Service is the part of arena.Service the CLI drives.
type Service interface {
	CreateCharacter(ctx context.Context, playerID int64, req arena.NewCharacter) (*character.Character, error)
	EquipItem(ctx context.Context, playerID, characterID, itemID int64) (*character.Character, error)
	UnequipItem(ctx context.Context, playerID, characterID, itemID int64) (*character.Character, error)
	BuyItem(ctx context.Context, playerID, characterID, itemID int64) (*character.Character, error)
	SellItem(ctx context.Context, playerID, characterID, itemID int64) (*character.Character, error)
	AddExperience(ctx context.Context, playerID, characterID int64, amount int) (*character.Character, error)
	FindOpponents(ctx context.Context, playerID, characterID int64) ([]*character.Character, error)
	CreateBattle(ctx context.Context, playerID, attackerID, defenderID int64) (*battle.Battle, error)
	Character(ctx context.Context, characterID int64) (*character.Character, error)
	ListCharacters(ctx context.Context, playerID int64) ([]*character.Character, error)
	DeleteCharacter(ctx context.Context, playerID, characterID int64) error
	Ladder(ctx context.Context, q arena.LadderQuery) ([]*character.Character, error)
	ListBattles(ctx context.Context, f arena.BattleFilter) ([]*battle.Battle, error)
	Battle(ctx context.Context, id uuid.UUID) (*battle.Battle, error)
	ListItems(ctx context.Context, f catalog.ItemFilter) ([]*catalog.Item, error)
	Inventory(ctx context.Context, playerID, characterID int64, f catalog.ItemFilter) ([]*catalog.Item, error)
	Catalog(ctx context.Context) (*catalog.Snapshot, error)
}

// Players registers and authenticates players.
type Players interface {
	Create(ctx context.Context, username, password string, maxCharacters int) (*character.Player, error)
	Authenticate(ctx context.Context, username, password string) (*character.Player, error)
}

// CLI dispatches commands against a Service on behalf of one player.
type CLI struct {
	Service      Service
	Players      Players
	DefaultQuota int
	Username     string
	Password     string
	Out          io.Writer
	In           io.Reader

	player *character.Player
}

type command struct {
	usage string
	help  string
	run   func(c *CLI, ctx context.Context, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"register":   {"<username> <password>", "register a new player", (*CLI).register},
		"create":     {"<name> <race-id> <profession-id>", "create a character", (*CLI).create},
		"characters": {"", "list your characters", (*CLI).characters},
		"show":       {"<character>", "show any character", (*CLI).show},
		"delete":     {"<character>", "delete one of your characters", (*CLI).delete},
		"buy":        {"<character> <item>", "buy an item", itemCommand((Service).BuyItem, "bought")},
		"sell":       {"<character> <item>", "sell an item for half its price", itemCommand((Service).SellItem, "sold")},
		"equip":      {"<character> <item>", "equip an owned item", itemCommand((Service).EquipItem, "equipped")},
		"unequip":    {"<character> <item>", "return an equipped item to the inventory", itemCommand((Service).UnequipItem, "unequipped")},
		"add-exp":    {"<character> <amount>", "grant experience", (*CLI).addExp},
		"opponents":  {"<character>", "find opponents for a battle", (*CLI).opponents},
		"battle":     {"<attacker> <defender>", "fight one of the offered opponents", (*CLI).battle},
		"history":    {"[-character id] [-name s] [-limit n] [-offset n]", "list battles, newest first", (*CLI).history},
		"report":     {"<battle-id>", "show one battle with its winner and loser", (*CLI).report},
		"ladder":     {"[-name s] [-limit n] [-offset n]", "rank characters by level", (*CLI).ladder},
		"items":      {"[-slot s] [-type t] [-name s] [-limit n] [-offset n]", "browse the shop", (*CLI).items},
		"inventory":  {"<character> [-slot s] [-type t] [-name s]", "list unequipped items", (*CLI).inventory},
		"catalog":    {"", "list races and professions", (*CLI).catalog},
		"shell":      {"", "read commands from standard input", (*CLI).shell},
	}
}

func printCommands(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := commands[name]
		fmt.Fprintf(w, "  %-10s %-52s %s\n", name, c.usage, c.help)
	}
}

// Run executes one command line.
func (c *CLI) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("no command given")
	}
	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("unknown command %q", args[0])
	}
	return cmd.run(c, ctx, args[1:])
}

// login authenticates once and caches the player.
func (c *CLI) login(ctx context.Context) (int64, error) {
	if c.player != nil {
		return c.player.ID, nil
	}
	if c.Username == "" || c.Password == "" {
		return 0, errors.New("this command needs -user and -password")
	}
	p, err := c.Players.Authenticate(ctx, c.Username, c.Password)
	if err != nil {
		return 0, fmt.Errorf("logging in as %q: %w", c.Username, err)
	}
	c.player = p
	return p.ID, nil
}

func parseIDs(args []string, names ...string) ([]int64, error) {
	if len(args) != len(names) {
		return nil, fmt.Errorf("expected %s", strings.Join(names, " "))
	}
	out := make([]int64, len(args))
	for i, a := range args {
		id, err := strconv.ParseInt(a, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer, got %q", names[i], a)
		}
		out[i] = id
	}
	return out, nil
}

func (c *CLI) register(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("expected <username> <password>")
	}
	p, err := c.Players.Create(ctx, args[0], args[1], c.DefaultQuota)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "registered %s (#%d), up to %d characters\n", p.Username, p.ID, p.MaxCharacters)
	return nil
}

func (c *CLI) create(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return errors.New("expected <name> <race-id> <profession-id>")
	}
	ids, err := parseIDs(args[1:], "race-id", "profession-id")
	if err != nil {
		return err
	}
	playerID, err := c.login(ctx)
	if err != nil {
		return err
	}
	ch, err := c.Service.CreateCharacter(ctx, playerID, arena.NewCharacter{Name: args[0], RaceID: ids[0], ProfessionID: ids[1]})
	if err != nil {
		return err
	}
	printCharacter(c.Out, ch)
	return nil
}

func (c *CLI) characters(ctx context.Context, args []string) error {
	playerID, err := c.login(ctx)
	if err != nil {
		return err
	}
	list, err := c.Service.ListCharacters(ctx, playerID)
	if err != nil {
		return err
	}
	printCharacterTable(c.Out, list)
	return nil
}

func (c *CLI) show(ctx context.Context, args []string) error {
	ids, err := parseIDs(args, "character")
	if err != nil {
		return err
	}
	ch, err := c.Service.Character(ctx, ids[0])
	if err != nil {
		return err
	}
	printCharacter(c.Out, ch)
	return nil
}

func (c *CLI) delete(ctx context.Context, args []string) error {
	ids, err := parseIDs(args, "character")
	if err != nil {
		return err
	}
	playerID, err := c.login(ctx)
	if err != nil {
		return err
	}
	if err := c.Service.DeleteCharacter(ctx, playerID, ids[0]); err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "deleted character #%d\n", ids[0])
	return nil
}

type itemFunc func(s Service, ctx context.Context, playerID, characterID, itemID int64) (*character.Character, error)

func itemCommand(fn itemFunc, verb string) func(*CLI, context.Context, []string) error {
	return func(c *CLI, ctx context.Context, args []string) error {
		ids, err := parseIDs(args, "character", "item")
		if err != nil {
			return err
		}
		playerID, err := c.login(ctx)
		if err != nil {
			return err
		}
		ch, err := fn(c.Service, ctx, playerID, ids[0], ids[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(c.Out, "%s item #%d\n", verb, ids[1])
		printCharacter(c.Out, ch)
		return nil
	}
}

func (c *CLI) addExp(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("expected <character> <amount>")
	}
	ids, err := parseIDs(args[:1], "character")
	if err != nil {
		return err
	}
	amount, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("amount must be an integer, got %q", args[1])
	}
	playerID, err := c.login(ctx)
	if err != nil {
		return err
	}
	ch, err := c.Service.AddExperience(ctx, playerID, ids[0], amount)
	if err != nil {
		return err
	}
	printCharacter(c.Out, ch)
	return nil
}

func (c *CLI) opponents(ctx context.Context, args []string) error {
	ids, err := parseIDs(args, "character")
	if err != nil {
		return err
	}
	playerID, err := c.login(ctx)
	if err != nil {
		return err
	}
	list, err := c.Service.FindOpponents(ctx, playerID, ids[0])
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(c.Out, "no opponents in range")
		return nil
	}
	printCharacterTable(c.Out, list)
	return nil
}

func (c *CLI) battle(ctx context.Context, args []string) error {
	ids, err := parseIDs(args, "attacker", "defender")
	if err != nil {
		return err
	}
	playerID, err := c.login(ctx)
	if err != nil {
		return err
	}
	b, err := c.Service.CreateBattle(ctx, playerID, ids[0], ids[1])
	if err != nil {
		return err
	}
	printBattle(c.Out, b)
	return nil
}

func newFlags(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

func (c *CLI) history(ctx context.Context, args []string) error {
	var f arena.BattleFilter
	fs := newFlags("history", c.Out)
	fs.Int64Var(&f.CharacterID, "character", 0, "only battles of this character")
	fs.StringVar(&f.Name, "name", "", "attacker or defender name contains")
	fs.IntVar(&f.Limit, "limit", arena.DefaultBattlesLimit, "page size")
	fs.IntVar(&f.Offset, "offset", 0, "rows to skip")
	if err := fs.Parse(args); err != nil {
		return err
	}
	list, err := c.Service.ListBattles(ctx, f)
	if err != nil {
		return err
	}
	printBattleTable(c.Out, list)
	return nil
}

func (c *CLI) report(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("expected battle-id")
	}
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("battle-id must be a UUID, got %q", args[0])
	}
	b, err := c.Service.Battle(ctx, id)
	if err != nil {
		return err
	}
	printBattleReport(c.Out, b)
	return nil
}

func (c *CLI) ladder(ctx context.Context, args []string) error {
	var q arena.LadderQuery
	fs := newFlags("ladder", c.Out)
	fs.StringVar(&q.Name, "name", "", "name contains, case-insensitive")
	fs.IntVar(&q.Limit, "limit", arena.DefaultLadderLimit, "page size")
	fs.IntVar(&q.Offset, "offset", 0, "rows to skip")
	if err := fs.Parse(args); err != nil {
		return err
	}
	list, err := c.Service.Ladder(ctx, q)
	if err != nil {
		return err
	}
	printCharacterTable(c.Out, list)
	return nil
}

func itemFlags(name string, out io.Writer, f *catalog.ItemFilter) *flag.FlagSet {
	fs := newFlags(name, out)
	fs.Func("slot", "weapon, armor or accessory", func(s string) error {
		if !catalog.Slot(s).Valid() {
			return fmt.Errorf("unknown slot %q", s)
		}
		f.Slot = catalog.Slot(s)
		return nil
	})
	fs.Func("type", "item type, e.g. sword", func(s string) error {
		if _, ok := catalog.SlotFor(catalog.ItemType(s)); !ok {
			return fmt.Errorf("unknown item type %q", s)
		}
		f.Type = catalog.ItemType(s)
		return nil
	})
	fs.StringVar(&f.Name, "name", "", "name contains, case-insensitive")
	fs.IntVar(&f.Limit, "limit", 0, "page size, 0 for all")
	fs.IntVar(&f.Offset, "offset", 0, "rows to skip")
	return fs
}

func (c *CLI) items(ctx context.Context, args []string) error {
	var f catalog.ItemFilter
	if err := itemFlags("items", c.Out, &f).Parse(args); err != nil {
		return err
	}
	list, err := c.Service.ListItems(ctx, f)
	if err != nil {
		return err
	}
	printItemTable(c.Out, list)
	return nil
}

func (c *CLI) inventory(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("expected <character>")
	}
	ids, err := parseIDs(args[:1], "character")
	if err != nil {
		return err
	}
	var f catalog.ItemFilter
	if err := itemFlags("inventory", c.Out, &f).Parse(args[1:]); err != nil {
		return err
	}
	playerID, err := c.login(ctx)
	if err != nil {
		return err
	}
	list, err := c.Service.Inventory(ctx, playerID, ids[0], f)
	if err != nil {
		return err
	}
	printItemTable(c.Out, list)
	return nil
}

func (c *CLI) catalog(ctx context.Context, args []string) error {
	snap, err := c.Service.Catalog(ctx)
	if err != nil {
		return err
	}
	printCatalog(c.Out, snap)
	return nil
}

// shell runs one command per input line until EOF or "exit". Rejected and
// failed commands are reported and the loop continues.
func (c *CLI) shell(ctx context.Context, args []string) error {
	sc := bufio.NewScanner(c.In)
	fmt.Fprint(c.Out, "> ")
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		switch {
		case len(fields) == 0:
		case fields[0] == "exit" || fields[0] == "quit":
			return nil
		case fields[0] == "shell":
			fmt.Fprintln(c.Out, "already in a shell")
		case fields[0] == "help":
			printCommands(c.Out)
		default:
			if err := c.Run(ctx, fields); err != nil {
				reportError(c.Out, err)
			}
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fmt.Fprint(c.Out, "> ")
	}
	return sc.Err()
}

func reportError(w io.Writer, err error) {
	if v, ok := violation.As(err); ok {
		for _, m := range v.Messages() {
			fmt.Fprintf(w, "rejected: %s\n", m)
		}
		return
	}
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	fmt.Fprintf(w, "error: %v\n", err)
}
