package source

import "github.com/rs/zerolog"

// Diagnostics counts the data-quality degradations applied while reading.
// Unparseable amounts become zero and malformed rows are dropped instead of
// aborting the batch; these counters make that policy observable so
// regressions in source quality show up without changing output values.
type Diagnostics struct {
	ZeroCoercions    int // unparseable amounts coerced to 0
	DroppedRows      int // rows discarded (unparseable date, empty code)
	SystemTotalRows  int // system-wide total rows excluded
	IgnoredEntities  int // ignore-list rows and workbooks excluded
	SkippedWorkbooks int // workbooks with no usable sheet or cache
}

// Add accumulates another set of counters into d.
func (d *Diagnostics) Add(other Diagnostics) {
	d.ZeroCoercions += other.ZeroCoercions
	d.DroppedRows += other.DroppedRows
	d.SystemTotalRows += other.SystemTotalRows
	d.IgnoredEntities += other.IgnoredEntities
	d.SkippedWorkbooks += other.SkippedWorkbooks
}

// Log emits the counters as one structured event.
func (d *Diagnostics) Log(log zerolog.Logger, container string) {
	log.Info().
		Str("container", container).
		Int("zero_coercions", d.ZeroCoercions).
		Int("dropped_rows", d.DroppedRows).
		Int("system_total_rows", d.SystemTotalRows).
		Int("ignored_entities", d.IgnoredEntities).
		Int("skipped_workbooks", d.SkippedWorkbooks).
		Msg("read diagnostics")
}
