// Package csvtab renders decoded samples as the sparse CSV table both the
// in-memory and streaming exporters emit: a "timestamp,<signal...>" header
// and one row per distinct sample timestamp, ascending, with empty cells
// where a signal has no sample.
package csvtab

import (
	"bytes"
	"encoding/csv"
	"sort"
	"strconv"
)

// Table accumulates samples keyed by timestamp and column.
type Table struct {
	columns []string
	index   map[string]int
	rows    map[uint64][]string
}

// New creates a table with the given signal columns, in order.
func New(columns []string) *Table {
	index := make(map[string]int, len(columns))
	for i, name := range columns {
		index[name] = i
	}

	return &Table{
		columns: columns,
		index:   index,
		rows:    make(map[uint64][]string),
	}
}

// Set records one sample. Signals outside the column set are ignored;
// a second sample for the same (timestamp, signal) overwrites the first.
func (t *Table) Set(timestampNs uint64, signal string, value float64) {
	col, ok := t.index[signal]
	if !ok {
		return
	}

	row, ok := t.rows[timestampNs]
	if !ok {
		row = make([]string, len(t.columns))
		t.rows[timestampNs] = row
	}
	row[col] = strconv.FormatFloat(value, 'g', -1, 64)
}

// Rows returns the number of distinct timestamps recorded.
func (t *Table) Rows() int {
	return len(t.rows)
}

// Render emits the table. Timestamps are seconds with nanosecond precision.
func (t *Table) Render() ([]byte, error) {
	timestamps := make([]uint64, 0, len(t.rows))
	for ts := range t.rows {
		timestamps = append(timestamps, ts)
	}
	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i] < timestamps[j] })

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(append([]string{"timestamp"}, t.columns...)); err != nil {
		return nil, err
	}
	record := make([]string, len(t.columns)+1)
	for _, ts := range timestamps {
		record[0] = strconv.FormatFloat(float64(ts)/1e9, 'f', 9, 64)
		copy(record[1:], t.rows[ts])
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
