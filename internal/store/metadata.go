package store

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// TableMeta summarizes one published table.
type TableMeta struct {
	Rows     int    `json:"rows"`
	MinDate  string `json:"min_date,omitempty"`
	MaxDate  string `json:"max_date,omitempty"`
	Months   int    `json:"distinct_months,omitempty"`
	Accounts int    `json:"distinct_codes,omitempty"`
}

// Metadata describes the run that produced the published tables. The
// dashboard reads it for freshness; the pre-aggregation step compares row
// counts and date ranges to decide whether to re-aggregate.
type Metadata struct {
	RunID             string               `json:"run_id"`
	ProcessedAt       time.Time            `json:"processed_at"`
	Containers        []string             `json:"containers"`
	SkippedContainers []string             `json:"skipped_containers,omitempty"`
	Institutions      int                  `json:"institutions"`
	Tiers             []string             `json:"tiers,omitempty"`
	Tables            map[string]TableMeta `json:"tables"`
	Diagnostics       map[string]int       `json:"diagnostics,omitempty"`
}

// WriteMetadata publishes the run document next to the tables, atomically
// like the tables themselves.
func (s *Store) WriteMetadata(m *Metadata) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	tmp := s.path(MetadataFile) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	if err := os.Rename(tmp, s.path(MetadataFile)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("publish metadata: %w", err)
	}
	return nil
}

// ReadMetadata loads the last run document, nil when none exists.
func (s *Store) ReadMetadata() (*Metadata, error) {
	data, err := os.ReadFile(s.path(MetadataFile))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return &m, nil
}
