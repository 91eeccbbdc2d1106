package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/joho/godotenv"

	"github.com/jp1309/cooperativas/internal/config"
	"github.com/jp1309/cooperativas/internal/logger"
	"github.com/jp1309/cooperativas/internal/mirror"
)

func main() {
	log := logger.New()

	configPath := flag.String("config", "config.yaml", "path to the pipeline configuration file")
	target := flag.String("target", "balance", "which container set to fetch: balance or indicators")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("configuration load failed")
	}
	if cfg.MirrorBucket == "" {
		log.Fatal().Msg("mirror_bucket is not configured")
	}

	dir := cfg.BalanceDir
	if *target == "indicators" {
		dir = cfg.IndicatorsDir
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	log.Info().Str("bucket", cfg.MirrorBucket).Str("dir", dir).Msg("syncing containers")

	fetched, err := mirror.New(cfg.MirrorBucket, cfg.MirrorPrefix, log).Sync(ctx, dir)
	if err != nil {
		log.Fatal().Err(err).Msg("mirror sync failed")
	}

	fmt.Printf("%d new containers fetched.\n", len(fetched))
}
