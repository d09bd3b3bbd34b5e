package session

import (
	"github.com/canlab/blfview/blf"
	"github.com/canlab/blfview/internal/csvtab"
)

// ExportCSV decodes the capture restricted to the selected signals and
// renders one CSV table: a "timestamp,<signal...>" header, then one row per
// distinct sample timestamp in ascending order. Signals without a sample at
// a given timestamp leave their cell empty; timestamps are seconds with
// nanosecond precision.
//
// Returns:
//   - []byte: the rendered CSV
//   - error: errs.ErrEmptySelection when applied is empty, or an error
//     naming a signal the catalog does not define
func (s *Session) ExportCSV(applied []string) ([]byte, error) {
	columns, err := s.catalog.Select(applied)
	if err != nil {
		return nil, err
	}

	r, err := blf.NewReader(s.data)
	if err != nil {
		return nil, err
	}

	table := csvtab.New(columns)
	for frame, err := range r.All() {
		if err != nil {
			return nil, err
		}
		for _, sample := range s.decoder.Decode(frame) {
			table.Set(sample.TimestampNs, sample.Signal, sample.Value)
		}
	}

	return table.Render()
}
