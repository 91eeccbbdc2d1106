package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/joho/godotenv"

	"github.com/jp1309/cooperativas/internal/config"
	"github.com/jp1309/cooperativas/internal/logger"
	"github.com/jp1309/cooperativas/internal/pipeline"
)

func main() {
	log := logger.New()

	configPath := flag.String("config", "config.yaml", "path to the pipeline configuration file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("configuration load failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	log.Info().Str("indicators_dir", cfg.IndicatorsDir).Str("output_dir", cfg.OutputDir).Msg("starting indicator extraction")

	res, err := pipeline.New(cfg, log).RunIndicators(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("indicator extraction failed")
	}

	fmt.Printf("Run %s: %d containers processed.\n", res.RunID, len(res.Containers))
}
