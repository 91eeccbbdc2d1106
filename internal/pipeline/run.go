// Package pipeline orchestrates the two batch runs: balance consolidation
// over the yearly delimited containers, and indicator/income extraction over
// the workbook containers.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jp1309/cooperativas/internal/accounts"
	"github.com/jp1309/cooperativas/internal/balance"
	"github.com/jp1309/cooperativas/internal/catalog"
	"github.com/jp1309/cooperativas/internal/config"
	"github.com/jp1309/cooperativas/internal/entity"
	"github.com/jp1309/cooperativas/internal/income"
	"github.com/jp1309/cooperativas/internal/indicators"
	"github.com/jp1309/cooperativas/internal/source"
	"github.com/jp1309/cooperativas/internal/store"
)

// ErrNoData means no container could be read and no previously published
// table exists to fall back on.
var ErrNoData = errors.New("no readable containers and no published tables")

// Result summarizes one run.
type Result struct {
	RunID        string
	Containers   []string
	Skipped      []string
	Institutions int
	Tiers        []string
	Rows         map[string]int
	Diag         source.Diagnostics
	Restarts     int
	Orphans      int
}

// Pipeline wires the reader, extractor and store together under one
// configuration.
type Pipeline struct {
	cfg       config.Config
	log       zerolog.Logger
	store     *store.Store
	reader    *source.Reader
	extractor *indicators.Extractor
}

func New(cfg config.Config, log zerolog.Logger) *Pipeline {
	canon := entity.New(entity.Tables{
		LegalFormPrefixes: catalog.LegalFormPrefixes,
		Corrections:       catalog.NameCorrections,
		ShortNames:        catalog.MutualistNames,
		TierSignal:        catalog.MutualistTierSignal,
	})
	r := source.NewReader(canon, log)
	r.Ignored = catalog.IgnoredEntities
	r.TabYearBreak = cfg.DelimiterYearBreak
	r.TierFromName = catalog.TierFromFilename
	return &Pipeline{
		cfg:       cfg,
		log:       log,
		store:     store.New(cfg.OutputDir, log),
		reader:    r,
		extractor: indicators.New(canon, log),
	}
}

// listContainers returns the zip archives under dir, sorted by name so the
// yearly ordering is stable.
func listContainers(dir string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.zip"))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// RunBalance consolidates the yearly balance containers into the published
// balance table. Months already published are never re-read: containers for
// years entirely before the stored maximum are skipped, and merged rows only
// extend the history forward.
func (p *Pipeline) RunBalance(ctx context.Context) (*Result, error) {
	runID := uuid.NewString()
	log := p.log.With().Str("run_id", runID).Logger()

	// 1. Load the previously published history.
	prev, err := p.store.ReadBalance()
	if err != nil {
		return nil, fmt.Errorf("load published balance: %w", err)
	}
	cutoffYear := 0
	if max, ok := balance.MaxDate(prev); ok {
		cutoffYear = max.Year
		log.Info().Str("max_date", max.String()).Int("rows", len(prev)).Msg("resuming from published history")
	}

	// 2. Read every candidate container, best effort.
	paths, err := listContainers(p.cfg.BalanceDir)
	if err != nil {
		return nil, err
	}
	var fresh []source.Row
	var processed, skipped []string
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ctr, err := source.DetectContainer(path)
		if err != nil {
			log.Warn().Str("container", filepath.Base(path)).Err(err).Msg("container skipped")
			skipped = append(skipped, filepath.Base(path))
			continue
		}
		if ctr.Year != 0 && ctr.Year < cutoffYear {
			log.Debug().Str("container", ctr.Name).Msg("already consolidated")
			continue
		}
		rows, err := p.reader.Read(ctr)
		if err != nil {
			log.Warn().Str("container", ctr.Name).Err(err).Msg("container unreadable")
			skipped = append(skipped, ctr.Name)
			continue
		}
		fresh = append(fresh, rows...)
		processed = append(processed, ctr.Name)
		p.reader.Diag.Log(log, ctr.Name)
	}

	if len(processed) == 0 && len(prev) == 0 {
		return nil, ErrNoData
	}

	// 3. Consolidate and publish.
	rows := balance.Consolidate(prev, fresh)
	if err := p.store.WriteBalance(rows); err != nil {
		return nil, fmt.Errorf("publish balance: %w", err)
	}

	// 4. Rebuild the account tree over the consolidated codes; codes that
	// fit nowhere in the chart are a data-quality signal, not an error.
	hier := accounts.Build(accountLabels(rows), catalog.ValidLevel1())
	log.Info().Int("roots", len(hier.Roots)).Int("orphan_codes", hier.Dropped).Msg("account tree rebuilt")
	if missing := missingHeadlineAccounts(hier); len(missing) > 0 {
		log.Warn().Strs("concepts", missing).Msg("headline balance accounts absent from the chart")
	}

	res := &Result{
		RunID:        runID,
		Containers:   processed,
		Skipped:      skipped,
		Institutions: distinctInstitutions(rows),
		Tiers:        distinctTiers(rowTiers(rows)),
		Rows:         map[string]int{store.BalanceFile: len(rows)},
		Diag:         p.reader.Diag,
		Orphans:      hier.Dropped,
	}
	if err := p.writeMetadata(res, map[string]tableStats{
		store.BalanceFile: {dates: rowDates(rows), codes: rowCodes(rows)},
	}); err != nil {
		return nil, err
	}
	log.Info().Int("rows", len(rows)).Int("containers", len(processed)).Msg("balance published")
	return res, nil
}

// RunIndicators extracts the indicator panel and the income statement from
// the workbook containers and publishes both tables. Unlike the balance run
// this is a full reprocess: the caches are cheap to re-read and republished
// months override older extracts.
func (p *Pipeline) RunIndicators(ctx context.Context) (*Result, error) {
	runID := uuid.NewString()
	log := p.log.With().Str("run_id", runID).Logger()

	paths, err := listContainers(p.cfg.IndicatorsDir)
	if err != nil {
		return nil, err
	}

	var indicatorRecs []indicators.Record
	var statementRows []source.Row
	var processed, skipped []string
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ctr, err := source.DetectContainer(path)
		if err != nil {
			log.Warn().Str("container", filepath.Base(path)).Err(err).Msg("container skipped")
			skipped = append(skipped, filepath.Base(path))
			continue
		}
		books, err := p.reader.Workbooks(ctr)
		if err != nil {
			log.Warn().Str("container", ctr.Name).Err(err).Msg("container unreadable")
			skipped = append(skipped, ctr.Name)
			continue
		}
		readAny := false
		for _, wb := range books {
			recs, rows, err := p.extractWorkbook(ctr, wb)
			if err != nil {
				p.reader.Diag.SkippedWorkbooks++
				log.Warn().Str("container", ctr.Name).Str("workbook", wb.Name).Err(err).Msg("workbook skipped")
				continue
			}
			indicatorRecs = append(indicatorRecs, recs...)
			statementRows = append(statementRows, rows...)
			readAny = true
		}
		if readAny {
			processed = append(processed, ctr.Name)
		}
	}
	if len(processed) == 0 {
		prev, err := p.store.ReadIndicators()
		if err != nil {
			return nil, fmt.Errorf("load published indicators: %w", err)
		}
		if len(prev) == 0 {
			return nil, ErrNoData
		}
		log.Warn().Int("skipped", len(skipped)).Msg("no readable containers, published tables left untouched")
		return &Result{RunID: runID, Skipped: skipped, Rows: map[string]int{}}, nil
	}

	// Indicator panel: republished months override, tiers unified, stable
	// output order.
	indicatorRecs = indicators.Dedupe(indicatorRecs)
	indicators.UnifyTiers(indicatorRecs)
	indicators.Sort(indicatorRecs)
	if err := p.store.WriteIndicators(indicatorRecs); err != nil {
		return nil, fmt.Errorf("publish indicators: %w", err)
	}

	// Income statement: de-accumulate the year-to-date figures.
	incomeRows := income.FromRows(statementRows, catalog.IncomeStatementPrefixes)
	incomeRecs, stats := income.Derive(incomeRows)
	if err := p.store.WriteIncome(incomeRecs); err != nil {
		return nil, fmt.Errorf("publish income statement: %w", err)
	}

	res := &Result{
		RunID:        runID,
		Containers:   processed,
		Skipped:      skipped,
		Institutions: distinctIndicatorInstitutions(indicatorRecs),
		Tiers:        distinctTiers(indicatorTiers(indicatorRecs)),
		Rows: map[string]int{
			store.IndicatorsFile: len(indicatorRecs),
			store.IncomeFile:     len(incomeRecs),
		},
		Diag:     combineDiag(p.reader.Diag, p.extractor.Diag),
		Restarts: stats.Restarts,
	}
	if err := p.writeMetadata(res, map[string]tableStats{
		store.IndicatorsFile: {dates: indicatorDates(indicatorRecs), codes: indicatorCodes(indicatorRecs)},
		store.IncomeFile:     {dates: incomeDates(incomeRecs), codes: incomeCodes(incomeRecs)},
	}); err != nil {
		return nil, err
	}
	log.Info().
		Int("indicators", len(indicatorRecs)).
		Int("income_rows", len(incomeRecs)).
		Int("deaccumulation_restarts", stats.Restarts).
		Msg("indicator tables published")
	return res, nil
}

// extractWorkbook pulls the indicator panel and the statement block out of
// one workbook's pivot caches.
func (p *Pipeline) extractWorkbook(ctr *source.Container, wb source.Workbook) ([]indicators.Record, []source.Row, error) {
	zr, err := source.OpenWorkbookArchive(wb.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook archive: %w", err)
	}

	defFile, recFile, err := source.FindCacheByMarkers(zr, catalog.IndicatorMarkerFields, catalog.IndicatorMarkerMin)
	if err != nil {
		return nil, nil, err
	}
	table, err := source.ParseCacheTable(defFile, recFile)
	if err != nil {
		return nil, nil, err
	}
	recs := p.extractor.Extract(table, civil.Date{}, wb.Tier)

	rows, err := p.reader.StatementRows(ctr, wb)
	if err != nil {
		return nil, nil, err
	}
	return recs, rows, nil
}

func (p *Pipeline) writeMetadata(res *Result, stats map[string]tableStats) error {
	tables := make(map[string]store.TableMeta, len(res.Rows))
	for name, rows := range res.Rows {
		meta := store.TableMeta{Rows: rows}
		if st, ok := stats[name]; ok {
			if r := rangeOf(st.dates); r.ok {
				meta.MinDate = r.min.String()
				meta.MaxDate = r.max.String()
			}
			meta.Months = distinctMonths(st.dates)
			meta.Accounts = distinctStrings(st.codes)
		}
		tables[name] = meta
	}
	m := &store.Metadata{
		RunID:             res.RunID,
		ProcessedAt:       time.Now().UTC(),
		Containers:        res.Containers,
		SkippedContainers: res.Skipped,
		Institutions:      res.Institutions,
		Tiers:             res.Tiers,
		Tables:            tables,
		Diagnostics: map[string]int{
			"zero_coercions":          res.Diag.ZeroCoercions,
			"dropped_rows":            res.Diag.DroppedRows,
			"system_total_rows":       res.Diag.SystemTotalRows,
			"ignored_entities":        res.Diag.IgnoredEntities,
			"skipped_workbooks":       res.Diag.SkippedWorkbooks,
			"deaccumulation_restarts": res.Restarts,
			"orphan_account_codes":    res.Orphans,
		},
	}
	if err := p.store.WriteMetadata(m); err != nil {
		return fmt.Errorf("publish metadata: %w", err)
	}
	return nil
}
