// Command seed fills the database with generated users, posts, comments and likes.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"strings"
	"time"

	"inkpost/internal/app"
	"inkpost/internal/criteria"
	"inkpost/internal/observability"
	"inkpost/internal/seed"
	"inkpost/internal/service"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	presetName := flag.String("preset", "demo", "preset to apply")
	presetFile := flag.String("presets", "", "YAML file with presets (defaults to the built-in set)")
	clean := flag.Bool("clean", true, "clear existing rows before seeding")
	fast := flag.Bool("fast", false, "skip bcrypt for seeded passwords")
	randSeed := flag.Int64("seed", 0, "random seed (0 picks one)")
	flag.Parse()

	presets, err := seed.LoadPresets(*presetFile)
	if err != nil {
		return err
	}
	preset, ok := presets[*presetName]
	if !ok {
		return fmt.Errorf("unknown preset %q (available: %s)", *presetName, strings.Join(seed.Names(presets), ", "))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()
	ctx = observability.WithCorrelationID(ctx, observability.GenerateCorrelationID())

	a, err := app.Bootstrap(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			observability.Logger.Error("shutdown failed", slog.String("error", err.Error()))
		}
	}()

	if *clean {
		if err := seed.Clear(ctx, a.DB); err != nil {
			return err
		}
	}

	start := time.Now()
	sum, err := seed.Run(ctx, a.DB, preset, seed.Options{SkipBcrypt: *fast, Seed: *randSeed})
	if err != nil {
		return fmt.Errorf("seed %s: %w", *presetName, err)
	}

	// seeding bypasses the services, so the tag union is stale
	a.Posts.InvalidateTags(ctx)
	tags, err := a.Posts.Tags(ctx)
	if err != nil {
		return err
	}
	latest, err := a.Posts.List(ctx, service.ListPostsInput{
		Criteria: criteria.New().OrderBy("created_at", criteria.Desc).Page(1, 0),
	})
	if err != nil {
		return err
	}

	observability.Logger.InfoContext(ctx, "seeding finished",
		slog.String("preset", *presetName),
		slog.Int("users", sum.Users),
		slog.Int("posts", sum.Posts),
		slog.Int64("listed_posts", latest.Count),
		slog.Any("tags", tags),
		slog.Duration("took", time.Since(start)),
		slog.String("password", seed.DefaultPassword),
	)
	return nil
}
