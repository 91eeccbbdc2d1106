package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/joho/godotenv"

	"github.com/jp1309/cooperativas/internal/config"
	"github.com/jp1309/cooperativas/internal/logger"
	"github.com/jp1309/cooperativas/internal/store"
	"github.com/jp1309/cooperativas/internal/warehouse"
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
	if cfg.BigQueryProject == "" {
		log.Fatal().Msg("bigquery_project is not configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	s := store.New(cfg.OutputDir, log)
	exp, err := warehouse.NewExporter(ctx, cfg.BigQueryProject, cfg.BigQueryDataset, log)
	if err != nil {
		log.Fatal().Err(err).Msg("exporter init failed")
	}
	defer exp.Close()

	// Balance is exported incrementally past the warehouse's newest month.
	rows, err := s.ReadBalance()
	if err != nil {
		log.Fatal().Err(err).Msg("read balance table failed")
	}
	since, ok, err := exp.LatestBalanceDate(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("latest exported date unavailable, exporting everything")
		ok = false
	}
	if err := exp.ExportBalance(ctx, rows, since, ok); err != nil {
		log.Fatal().Err(err).Msg("balance export failed")
	}

	recs, err := s.ReadIncome()
	if err != nil {
		log.Fatal().Err(err).Msg("read income table failed")
	}
	if err := exp.ExportIncome(ctx, recs); err != nil {
		log.Fatal().Err(err).Msg("income export failed")
	}

	inds, err := s.ReadIndicators()
	if err != nil {
		log.Fatal().Err(err).Msg("read indicators table failed")
	}
	if err := exp.ExportIndicators(ctx, inds); err != nil {
		log.Fatal().Err(err).Msg("indicators export failed")
	}

	fmt.Println("Export completed successfully.")
}
