// Package main is the command-line client of the arena.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/cory-johannsen/arena/internal/app"
	"github.com/cory-johannsen/arena/internal/game/violation"
)

// Exit codes.
const (
	exitOK       = 0
	exitFailure  = 1
	exitRejected = 2
)

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	username := flag.String("user", os.Getenv("ARENA_USER"), "player username")
	password := flag.String("password", os.Getenv("ARENA_PASSWORD"), "player password")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: arenactl [-config path] [-user name -password secret] <command> [args]\n\ncommands:\n")
		printCommands(flag.CommandLine.Output())
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(exitFailure)
	}

	cfg, err := app.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, "arenactl")
	if err != nil {
		log.Fatalf("starting arena: %v", err)
	}

	cli := &CLI{
		Service:      a.Service,
		Players:      a.Players,
		DefaultQuota: cfg.Game.DefaultMaxCharacters,
		Username:     *username,
		Password:     *password,
		Out:          os.Stdout,
		In:           os.Stdin,
	}
	code := exitCode(cli.Run(ctx, flag.Args()))
	a.Close()
	os.Exit(code)
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	if v, ok := violation.As(err); ok {
		fmt.Fprintf(os.Stderr, "rejected: %s\n", v)
		return exitRejected
	}
	if errors.Is(err, flag.ErrHelp) {
		return exitFailure
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	return exitFailure
}
