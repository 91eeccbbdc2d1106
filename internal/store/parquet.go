// Package store persists the consolidated tables as parquet files under a
// single output directory: balance.parquet, pyg.parquet and
// indicadores.parquet, plus a metadata document describing the run.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/jp1309/cooperativas/internal/income"
	"github.com/jp1309/cooperativas/internal/indicators"
	"github.com/jp1309/cooperativas/internal/source"
)

// File names of the published tables.
const (
	BalanceFile    = "balance.parquet"
	IncomeFile     = "pyg.parquet"
	IndicatorsFile = "indicadores.parquet"
	MetadataFile   = "metadata.json"
)

type balanceRow struct {
	Fecha       string  `parquet:"name=fecha, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Segmento    string  `parquet:"name=segmento, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	RUC         string  `parquet:"name=ruc, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Cooperativa string  `parquet:"name=cooperativa, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Codigo      string  `parquet:"name=codigo, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Cuenta      string  `parquet:"name=cuenta, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Valor       float64 `parquet:"name=valor, type=DOUBLE"`
}

type incomeRow struct {
	Fecha          string   `parquet:"name=fecha, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Segmento       string   `parquet:"name=segmento, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Cooperativa    string   `parquet:"name=cooperativa, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Codigo         string   `parquet:"name=codigo, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Cuenta         string   `parquet:"name=cuenta, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	ValorAcumulado float64  `parquet:"name=valor_acumulado, type=DOUBLE"`
	ValorMes       float64  `parquet:"name=valor_mes, type=DOUBLE"`
	Valor12M       *float64 `parquet:"name=valor_12m, type=DOUBLE, repetitiontype=OPTIONAL"`
}

type indicatorRow struct {
	Fecha       string  `parquet:"name=fecha, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Segmento    string  `parquet:"name=segmento, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Cooperativa string  `parquet:"name=cooperativa, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Indicador   string  `parquet:"name=indicador, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Descripcion string  `parquet:"name=descripcion, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Categoria   string  `parquet:"name=categoria, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Valor       float64 `parquet:"name=valor, type=DOUBLE"`
}

// Store reads and writes the published tables under one directory. Writes
// are atomic: a temporary file is renamed into place only after a clean
// close, so a failed run never truncates the previous table.
type Store struct {
	dir string
	log zerolog.Logger
}

func New(dir string, log zerolog.Logger) *Store {
	return &Store{dir: dir, log: log}
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

// writeParquet serializes rows into path atomically. rows must be a slice of
// the tagged row structs.
func writeParquet[T any](s *Store, name string, rows []T) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmp := s.path(name) + ".tmp"
	fw, err := local.NewLocalFileWriter(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}
	pw, err := writer.NewParquetWriter(fw, new(T), 4)
	if err != nil {
		fw.Close()
		return fmt.Errorf("parquet schema for %s: %w", name, err)
	}
	pw.RowGroupSize = 128 * 1024 * 1024
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i := range rows {
		if err := pw.Write(rows[i]); err != nil {
			fw.Close()
			os.Remove(tmp)
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		fw.Close()
		os.Remove(tmp)
		return fmt.Errorf("finalize %s: %w", name, err)
	}
	if err := fw.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path(name)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("publish %s: %w", name, err)
	}
	s.log.Info().Str("file", name).Int("rows", len(rows)).Msg("table written")
	return nil
}

// readParquet loads every row of the named table. A missing file yields an
// empty slice, which is how a first run starts.
func readParquet[T any](s *Store, name string) ([]T, error) {
	p := s.path(name)
	if _, err := os.Stat(p); os.IsNotExist(err) {
		return nil, nil
	}
	fr, err := local.NewLocalFileReader(p)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(T), 4)
	if err != nil {
		return nil, fmt.Errorf("parquet schema for %s: %w", name, err)
	}
	defer pr.ReadStop()

	n := int(pr.GetNumRows())
	rows := make([]T, n)
	if err := pr.Read(&rows); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return rows, nil
}

// WriteBalance publishes the consolidated balance table.
func (s *Store) WriteBalance(rows []source.Row) error {
	out := make([]balanceRow, len(rows))
	for i, r := range rows {
		out[i] = balanceRow{
			Fecha:       r.Date.String(),
			Segmento:    r.Tier,
			RUC:         r.RUC,
			Cooperativa: r.Institution,
			Codigo:      r.Code,
			Cuenta:      r.Label,
			Valor:       r.Amount,
		}
	}
	return writeParquet(s, BalanceFile, out)
}

// ReadBalance loads the previously consolidated balance table, empty when no
// run has published one yet.
func (s *Store) ReadBalance() ([]source.Row, error) {
	raw, err := readParquet[balanceRow](s, BalanceFile)
	if err != nil || len(raw) == 0 {
		return nil, err
	}
	rows := make([]source.Row, 0, len(raw))
	for _, r := range raw {
		d, err := civil.ParseDate(r.Fecha)
		if err != nil {
			return nil, fmt.Errorf("%s: bad date %q: %w", BalanceFile, r.Fecha, err)
		}
		rows = append(rows, source.Row{
			Date:        d,
			Tier:        r.Segmento,
			RUC:         r.RUC,
			Institution: r.Cooperativa,
			Code:        r.Codigo,
			Label:       r.Cuenta,
			Amount:      r.Valor,
		})
	}
	return rows, nil
}

// WriteIncome publishes the de-accumulated income statement table.
func (s *Store) WriteIncome(recs []income.Record) error {
	out := make([]incomeRow, len(recs))
	for i, r := range recs {
		row := incomeRow{
			Fecha:          r.Date.String(),
			Segmento:       r.Tier,
			Cooperativa:    r.Institution,
			Codigo:         r.Code,
			Cuenta:         r.Label,
			ValorAcumulado: r.Accumulated,
			ValorMes:       r.Monthly,
		}
		if r.HasTrailing12 {
			v := r.Trailing12
			row.Valor12M = &v
		}
		out[i] = row
	}
	return writeParquet(s, IncomeFile, out)
}

// ReadIncome loads the published income statement table.
func (s *Store) ReadIncome() ([]income.Record, error) {
	raw, err := readParquet[incomeRow](s, IncomeFile)
	if err != nil || len(raw) == 0 {
		return nil, err
	}
	recs := make([]income.Record, 0, len(raw))
	for _, r := range raw {
		d, err := civil.ParseDate(r.Fecha)
		if err != nil {
			return nil, fmt.Errorf("%s: bad date %q: %w", IncomeFile, r.Fecha, err)
		}
		rec := income.Record{
			Date:        d,
			Tier:        r.Segmento,
			Institution: r.Cooperativa,
			Code:        r.Codigo,
			Label:       r.Cuenta,
			Accumulated: r.ValorAcumulado,
			Monthly:     r.ValorMes,
		}
		if r.Valor12M != nil {
			rec.Trailing12 = *r.Valor12M
			rec.HasTrailing12 = true
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// WriteIndicators publishes the indicator panel table.
func (s *Store) WriteIndicators(recs []indicators.Record) error {
	out := make([]indicatorRow, len(recs))
	for i, r := range recs {
		out[i] = indicatorRow{
			Fecha:       r.Date.String(),
			Segmento:    r.Tier,
			Cooperativa: r.Institution,
			Indicador:   r.Code,
			Descripcion: r.Label,
			Categoria:   r.Category,
			Valor:       r.Value,
		}
	}
	return writeParquet(s, IndicatorsFile, out)
}

// ReadIndicators loads the published indicator panel.
func (s *Store) ReadIndicators() ([]indicators.Record, error) {
	raw, err := readParquet[indicatorRow](s, IndicatorsFile)
	if err != nil || len(raw) == 0 {
		return nil, err
	}
	recs := make([]indicators.Record, 0, len(raw))
	for _, r := range raw {
		d, err := civil.ParseDate(r.Fecha)
		if err != nil {
			return nil, fmt.Errorf("%s: bad date %q: %w", IndicatorsFile, r.Fecha, err)
		}
		recs = append(recs, indicators.Record{
			Date:        d,
			Tier:        r.Segmento,
			Institution: r.Cooperativa,
			Code:        r.Indicador,
			Label:       r.Descripcion,
			Category:    r.Categoria,
			Value:       r.Valor,
		})
	}
	return recs, nil
}
