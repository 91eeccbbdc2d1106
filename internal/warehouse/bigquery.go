// Package warehouse exports the published tables to BigQuery so the
// dashboards can query them without touching the parquet files.
package warehouse

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"

	"github.com/jp1309/cooperativas/internal/income"
	"github.com/jp1309/cooperativas/internal/indicators"
	"github.com/jp1309/cooperativas/internal/source"
)

// Destination table names.
const (
	BalanceTable    = "balance"
	IncomeTable     = "pyg"
	IndicatorsTable = "indicadores"
)

type balanceRow struct {
	Fecha       civil.Date `bigquery:"fecha"`
	Segmento    string     `bigquery:"segmento"`
	RUC         string     `bigquery:"ruc"`
	Cooperativa string     `bigquery:"cooperativa"`
	Codigo      string     `bigquery:"codigo"`
	Cuenta      string     `bigquery:"cuenta"`
	Valor       float64    `bigquery:"valor"`
}

type incomeRow struct {
	Fecha          civil.Date           `bigquery:"fecha"`
	Segmento       string               `bigquery:"segmento"`
	Cooperativa    string               `bigquery:"cooperativa"`
	Codigo         string               `bigquery:"codigo"`
	Cuenta         string               `bigquery:"cuenta"`
	ValorAcumulado float64              `bigquery:"valor_acumulado"`
	ValorMes       float64              `bigquery:"valor_mes"`
	Valor12M       bigquery.NullFloat64 `bigquery:"valor_12m"`
}

type indicatorRow struct {
	Fecha       civil.Date `bigquery:"fecha"`
	Segmento    string     `bigquery:"segmento"`
	Cooperativa string     `bigquery:"cooperativa"`
	Indicador   string     `bigquery:"indicador"`
	Descripcion string     `bigquery:"descripcion"`
	Categoria   string     `bigquery:"categoria"`
	Valor       float64    `bigquery:"valor"`
}

// Exporter streams the published tables into one BigQuery dataset.
type Exporter struct {
	client  *bigquery.Client
	dataset string
	log     zerolog.Logger
}

// NewExporter connects to the project with Application Default Credentials.
func NewExporter(ctx context.Context, project, dataset string, log zerolog.Logger) (*Exporter, error) {
	client, err := bigquery.NewClient(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("create bigquery client: %w", err)
	}
	return &Exporter{client: client, dataset: dataset, log: log}, nil
}

func (e *Exporter) Close() error {
	return e.client.Close()
}

// LatestBalanceDate returns the newest fecha already exported, so callers
// can ship only the months BigQuery has not seen. ok is false on an empty
// or missing table.
func (e *Exporter) LatestBalanceDate(ctx context.Context) (civil.Date, bool, error) {
	q := e.client.Query(fmt.Sprintf(
		"SELECT MAX(fecha) AS max_fecha FROM `%s.%s`", e.dataset, BalanceTable))
	it, err := q.Read(ctx)
	if err != nil {
		return civil.Date{}, false, fmt.Errorf("query latest balance date: %w", err)
	}
	var row struct {
		MaxFecha bigquery.NullDate `bigquery:"max_fecha"`
	}
	err = it.Next(&row)
	if err == iterator.Done || !row.MaxFecha.Valid {
		return civil.Date{}, false, nil
	}
	if err != nil {
		return civil.Date{}, false, fmt.Errorf("read latest balance date: %w", err)
	}
	return row.MaxFecha.Date, true, nil
}

// ExportBalance streams balance rows dated after since (every row when ok is
// false) into the balance table.
func (e *Exporter) ExportBalance(ctx context.Context, rows []source.Row, since civil.Date, sinceOK bool) error {
	out := make([]*balanceRow, 0, len(rows))
	for _, r := range rows {
		if sinceOK && !r.Date.After(since) {
			continue
		}
		out = append(out, &balanceRow{
			Fecha:       r.Date,
			Segmento:    r.Tier,
			RUC:         r.RUC,
			Cooperativa: r.Institution,
			Codigo:      r.Code,
			Cuenta:      r.Label,
			Valor:       r.Amount,
		})
	}
	return insertAll(ctx, e, BalanceTable, out)
}

// ExportIncome replaces nothing: the income table is small and fully
// recomputed each run, so every record is streamed.
func (e *Exporter) ExportIncome(ctx context.Context, recs []income.Record) error {
	out := make([]*incomeRow, 0, len(recs))
	for _, r := range recs {
		row := &incomeRow{
			Fecha:          r.Date,
			Segmento:       r.Tier,
			Cooperativa:    r.Institution,
			Codigo:         r.Code,
			Cuenta:         r.Label,
			ValorAcumulado: r.Accumulated,
			ValorMes:       r.Monthly,
		}
		if r.HasTrailing12 {
			row.Valor12M = bigquery.NullFloat64{Float64: r.Trailing12, Valid: true}
		}
		out = append(out, row)
	}
	return insertAll(ctx, e, IncomeTable, out)
}

// ExportIndicators streams the indicator panel.
func (e *Exporter) ExportIndicators(ctx context.Context, recs []indicators.Record) error {
	out := make([]*indicatorRow, 0, len(recs))
	for _, r := range recs {
		out = append(out, &indicatorRow{
			Fecha:       r.Date,
			Segmento:    r.Tier,
			Cooperativa: r.Institution,
			Indicador:   r.Code,
			Descripcion: r.Label,
			Categoria:   r.Category,
			Valor:       r.Value,
		})
	}
	return insertAll(ctx, e, IndicatorsTable, out)
}

func insertAll[T any](ctx context.Context, e *Exporter, table string, rows []*T) error {
	if len(rows) == 0 {
		e.log.Info().Str("table", table).Msg("nothing to export")
		return nil
	}
	inserter := e.client.Dataset(e.dataset).Table(table).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("insert into %s.%s: %w", e.dataset, table, err)
	}
	e.log.Info().Str("table", table).Int("rows", len(rows)).Msg("exported")
	return nil
}
