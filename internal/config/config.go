// Package config loads the pipeline configuration from a YAML file with
// environment-variable overrides for deployment-specific values.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v2"
)

// Config carries everything the pipelines need to find their inputs and
// publish their outputs.
type Config struct {
	// BalanceDir holds the yearly balance containers (one zip per year).
	BalanceDir string `yaml:"balance_dir"`
	// IndicatorsDir holds the indicator workbook containers.
	IndicatorsDir string `yaml:"indicators_dir"`
	// OutputDir receives the published parquet tables and metadata.
	OutputDir string `yaml:"output_dir"`
	// DelimiterYearBreak is the first extract year using tab-delimited
	// files with the renamed column set.
	DelimiterYearBreak int `yaml:"delimiter_year_break"`

	// MirrorBucket, when set, is the GCS bucket the containers are
	// mirrored from before processing.
	MirrorBucket string `yaml:"mirror_bucket"`
	// MirrorPrefix narrows the mirrored objects.
	MirrorPrefix string `yaml:"mirror_prefix"`

	// BigQuery export destination; both empty disables the export.
	BigQueryProject string `yaml:"bigquery_project"`
	BigQueryDataset string `yaml:"bigquery_dataset"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		BalanceDir:         "data/balance",
		IndicatorsDir:      "data/indicadores",
		OutputDir:          "data/output",
		DelimiterYearBreak: 2022,
		BigQueryDataset:    "seps",
	}
}

// Load reads path, falling back to defaults when the file does not exist,
// then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults plus environment are enough for a local run.
	case err != nil:
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	if cfg.DelimiterYearBreak <= 0 {
		return cfg, fmt.Errorf("delimiter_year_break must be a positive year, got %d", cfg.DelimiterYearBreak)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString(&cfg.BalanceDir, "COOP_BALANCE_DIR")
	setString(&cfg.IndicatorsDir, "COOP_INDICATORS_DIR")
	setString(&cfg.OutputDir, "COOP_OUTPUT_DIR")
	setString(&cfg.MirrorBucket, "COOP_MIRROR_BUCKET")
	setString(&cfg.MirrorPrefix, "COOP_MIRROR_PREFIX")
	setString(&cfg.BigQueryProject, "COOP_BQ_PROJECT")
	setString(&cfg.BigQueryDataset, "COOP_BQ_DATASET")
	if v := os.Getenv("COOP_DELIMITER_YEAR_BREAK"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.DelimiterYearBreak = n
		}
	}
}
