package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/cory-johannsen/arena/internal/game/battle"
	"github.com/cory-johannsen/arena/internal/game/catalog"
	"github.com/cory-johannsen/arena/internal/game/character"
)

func table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func itemName(it *catalog.Item) string {
	if it == nil {
		return "-"
	}
	return it.String()
}

func printCharacter(w io.Writer, c *character.Character) {
	tw := table(w)
	fmt.Fprintf(tw, "character\t%s (#%d)\n", c.Name, c.ID)
	fmt.Fprintf(tw, "race / profession\t%s / %s\n", c.Race.Name, c.Profession.Name)
	fmt.Fprintf(tw, "level\t%d (%d/%d exp)\n", c.Level, c.Experience, character.ExpForLevel(c.Level))
	fmt.Fprintf(tw, "gold\t%d\n", c.Gold)
	fmt.Fprintf(tw, "damage / protection / health\t%d / %d / %d\n", c.Stats.Damage, c.Stats.Protection, c.Stats.Health)
	for _, s := range catalog.Slots {
		fmt.Fprintf(tw, "%s\t%s\n", s, itemName(c.Equipment.Get(s)))
	}
	names := make([]string, 0, len(c.Inventory))
	for _, it := range c.Inventory.Items() {
		names = append(names, it.String())
	}
	if len(names) == 0 {
		names = append(names, "-")
	}
	fmt.Fprintf(tw, "inventory\t%s\n", strings.Join(names, ", "))
	tw.Flush()
}

func printCharacterTable(w io.Writer, list []*character.Character) {
	tw := table(w)
	fmt.Fprintln(tw, "ID\tNAME\tRACE\tPROFESSION\tLEVEL\tDMG\tPROT\tHP")
	for _, c := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
			c.ID, c.Name, c.Race.Name, c.Profession.Name, c.Level, c.Stats.Damage, c.Stats.Protection, c.Stats.Health)
	}
	tw.Flush()
}

func orDeleted(name string) string {
	if name == "" {
		return "(deleted)"
	}
	return name
}

func printBattle(w io.Writer, b *battle.Battle) {
	fmt.Fprintf(w, "%s defeated %s and earned %d gold and %d exp\n", b.WinnerName, b.LoserName, b.GoldReward, b.ExpReward)
}

func printBattleReport(w io.Writer, b *battle.Battle) {
	tw := table(w)
	fmt.Fprintf(tw, "battle\t%s\n", b.ID)
	fmt.Fprintf(tw, "when\t%s\n", b.CreatedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(tw, "attacker / defender\t%s / %s\n", orDeleted(b.AttackerName), orDeleted(b.DefenderName))
	fmt.Fprintf(tw, "winner\t%s\n", orDeleted(b.WinnerName))
	fmt.Fprintf(tw, "loser\t%s\n", orDeleted(b.LoserName))
	fmt.Fprintf(tw, "rewards\t%d gold, %d exp\n", b.GoldReward, b.ExpReward)
	tw.Flush()
}

func printBattleTable(w io.Writer, list []*battle.Battle) {
	tw := table(w)
	fmt.Fprintln(tw, "WHEN\tATTACKER\tDEFENDER\tWINNER\tGOLD\tEXP")
	for _, b := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\n",
			b.CreatedAt.Format("2006-01-02 15:04"),
			orDeleted(b.AttackerName), orDeleted(b.DefenderName), orDeleted(b.WinnerName),
			b.GoldReward, b.ExpReward)
	}
	tw.Flush()
}

func printItemTable(w io.Writer, list []*catalog.Item) {
	tw := table(w)
	fmt.Fprintln(tw, "ID\tNAME\tSLOT\tTYPE\tLEVEL\tPRICE\tDMG\tPROT\tHP")
	for _, it := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\t+%d\t+%d\t+%d\n",
			it.ID, it.Name, it.Slot, it.Type, it.LevelRequired, it.Price,
			it.BonusDamage, it.BonusProtection, it.BonusHealth)
	}
	tw.Flush()
}

func printCatalog(w io.Writer, snap *catalog.Snapshot) {
	professions := make(map[int64]string, len(snap.Professions))
	tw := table(w)
	fmt.Fprintln(tw, "PROFESSION\tID\tDMG\tPROT\tHP\tDESCRIPTION")
	for _, p := range snap.Professions {
		professions[p.ID] = p.Name
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%s\n", p.Name, p.ID, p.DamageBase, p.ProtectionBase, p.HealthBase, p.Description)
	}
	tw.Flush()
	fmt.Fprintln(w)

	tw = table(w)
	fmt.Fprintln(tw, "RACE\tID\tDMG\tPROT\tHP\tPROFESSIONS")
	for _, r := range snap.Races {
		var allowed []string
		for _, id := range r.Professions.Sorted() {
			allowed = append(allowed, professions[id])
		}
		fmt.Fprintf(tw, "%s\t%d\tx%.2f\tx%.2f\tx%.2f\t%s\n",
			r.Name, r.ID, r.DamageModifier, r.ProtectionModifier, r.HealthModifier, strings.Join(allowed, ", "))
	}
	tw.Flush()
}
