package score

import (
	"strconv"

	"github.com/KyungWonPark/StateSpace/internal/errs"
)

// LongRow is one score in long form.
type LongRow struct {
	Item      string  `csv:"Task_name"`
	Subject   string  `csv:"Subject"`
	Run       string  `csv:"Run"`
	Timepoint string  `csv:"Timepoint"`
	Reference string  `csv:"Reference"`
	Value     float64 `csv:"Value"`
}

func newLongRow(k Key, ref string, v float64) LongRow {
	return LongRow{
		Item:      k.Item,
		Subject:   k.Subject,
		Run:       k.Run,
		Timepoint: k.Timepoint,
		Reference: ref,
		Value:     v,
	}
}

// Key returns the identity part of the row.
func (r LongRow) Key() Key {
	return Key{Item: r.Item, Subject: r.Subject, Run: r.Run, Timepoint: r.Timepoint}
}

// WideRow is one key with one value per reference column. Present marks
// cells that were recorded; a missing cell is distinct from a NaN score.
type WideRow struct {
	Key     Key
	Values  []float64
	Present []bool
}

// Wide is the pivoted table: one row per key, one column per reference.
type Wide struct {
	Levels  []Level
	Columns []string
	Rows    []WideRow
}

// UsedLevels returns the levels that are set in at least one row, in column
// order. It recovers the index of a long table read back from disk.
func UsedLevels(rows []LongRow) []Level {
	var out []Level
	for _, l := range []Level{Item, Subject, Run, Timepoint} {
		for _, r := range rows {
			if r.Key().Get(l) != "" {
				out = append(out, l)
				break
			}
		}
	}
	return out
}

// Pivot turns long rows into a wide table indexed by levels. Two rows for the
// same (key, reference) fail with *errs.DuplicateError.
func Pivot(rows []LongRow, levels []Level) (*Wide, error) {
	w := &Wide{Levels: append([]Level(nil), levels...)}

	colIdx := make(map[string]int)
	rowIdx := make(map[Key]int)

	for _, r := range rows {
		if _, ok := colIdx[r.Reference]; !ok {
			colIdx[r.Reference] = len(w.Columns)
			w.Columns = append(w.Columns, r.Reference)
		}
	}

	for _, r := range rows {
		key := r.Key().Project(levels)
		i, ok := rowIdx[key]
		if !ok {
			i = len(w.Rows)
			rowIdx[key] = i
			w.Rows = append(w.Rows, WideRow{
				Key:     key,
				Values:  make([]float64, len(w.Columns)),
				Present: make([]bool, len(w.Columns)),
			})
		}

		c := colIdx[r.Reference]
		if w.Rows[i].Present[c] {
			return nil, &errs.DuplicateError{Key: key.String(), Reference: r.Reference}
		}
		w.Rows[i].Values[c] = r.Value
		w.Rows[i].Present[c] = true
	}

	return w, nil
}

// Get returns the cell for (key, reference).
func (w *Wide) Get(key Key, ref string) (float64, bool) {
	key = key.Project(w.Levels)
	for c, name := range w.Columns {
		if name != ref {
			continue
		}
		for _, row := range w.Rows {
			if row.Key == key {
				return row.Values[c], row.Present[c]
			}
		}
	}
	return 0, false
}

// Long undoes the pivot. Missing cells are skipped.
func (w *Wide) Long() []LongRow {
	var rows []LongRow
	for _, row := range w.Rows {
		for c, ref := range w.Columns {
			if row.Present[c] {
				rows = append(rows, newLongRow(row.Key, ref, row.Values[c]))
			}
		}
	}
	return rows
}

// Header is the index level columns followed by the reference columns.
func (w *Wide) Header() []string {
	header := make([]string, 0, len(w.Levels)+len(w.Columns))
	for _, l := range w.Levels {
		header = append(header, l.Column())
	}
	return append(header, w.Columns...)
}

// Records formats every row for CSV output. NaN is written as "NaN" and a
// missing cell as an empty field.
func (w *Wide) Records() [][]string {
	out := make([][]string, 0, len(w.Rows))
	for _, row := range w.Rows {
		rec := make([]string, 0, len(w.Levels)+len(w.Columns))
		for _, l := range w.Levels {
			rec = append(rec, row.Key.Get(l))
		}
		for c := range w.Columns {
			if !row.Present[c] {
				rec = append(rec, "")
				continue
			}
			rec = append(rec, strconv.FormatFloat(row.Values[c], 'g', -1, 64))
		}
		out = append(out, rec)
	}
	return out
}

// RenameColumns applies f to every reference column.
func (w *Wide) RenameColumns(f func(string) string) {
	for i, c := range w.Columns {
		w.Columns[i] = f(c)
	}
}
