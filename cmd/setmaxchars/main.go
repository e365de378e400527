// Package main changes the character quota of a player.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/cory-johannsen/arena/internal/app"
	"github.com/cory-johannsen/arena/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	username := flag.String("username", "", "target player username (required)")
	limit := flag.Int("max", -1, "new character quota, >= 0 (required)")
	flag.Parse()

	if *username == "" || *limit < 0 {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := app.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("connecting to database: %v", err)
	}
	defer pool.Close()

	repo := postgres.NewPlayerRepository(pool.DB())
	player, err := repo.GetByUsername(ctx, *username)
	if err != nil {
		log.Fatalf("looking up player %q: %v", *username, err)
	}
	if err := repo.SetMaxCharacters(ctx, player.ID, *limit); err != nil {
		log.Fatalf("setting max characters: %v", err)
	}

	fmt.Fprintf(os.Stdout, "set max characters for %s (#%d): %d -> %d [%s]\n",
		player.Username, player.ID, player.MaxCharacters, *limit, time.Since(start))
}
