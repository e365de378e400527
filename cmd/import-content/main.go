// Package main loads races, professions and items from YAML into the database.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/cory-johannsen/arena/internal/app"
	"github.com/cory-johannsen/arena/internal/game/catalog"
	"github.com/cory-johannsen/arena/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	contentDir := flag.String("content", "content", "directory holding professions.yaml, races.yaml and items.yaml")
	dryRun := flag.Bool("dry-run", false, "validate the content without writing it")
	flag.Parse()

	start := time.Now()
	content, err := catalog.LoadContent(*contentDir)
	if err != nil {
		log.Fatalf("loading content: %v", err)
	}
	if *dryRun {
		fmt.Fprintf(os.Stdout, "content valid: %d professions, %d races, %d items [%s]\n",
			len(content.Professions), len(content.Races), len(content.Items), time.Since(start))
		return
	}

	cfg, err := app.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("connecting to database: %v", err)
	}
	defer pool.Close()

	stats, err := postgres.NewCatalogRepository(pool.DB()).Import(ctx, content)
	if err != nil {
		log.Fatalf("importing content: %v", err)
	}
	fmt.Fprintf(os.Stdout, "imported %d professions, %d races, %d items; refreshed %d characters [%s]\n",
		stats.Professions, stats.Races, stats.Items, stats.Characters, time.Since(start))
}
