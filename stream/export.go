package stream

import (
	"github.com/canlab/blfview/blf"
	"github.com/canlab/blfview/decimate"
	"github.com/canlab/blfview/decode"
	"github.com/canlab/blfview/internal/csvtab"
)

// ExportCSVStream renders the same CSV table as Session.ExportCSV without
// keeping decoded frames around: a counting pre-pass, then chunked decode
// with progress reporting. A Cancel decision discards everything and
// returns errs.ErrCancelled.
//
// Parameters:
//   - applied: signal selection; must be non-empty and known to the catalog
//   - progress: called after every chunk and at completion; nil disables
//     reporting and cancellation
//
// Returns:
//   - []byte: the rendered CSV, never partial
//   - error: errs.ErrEmptySelection, errs.ErrCancelled, or a parse failure
func ExportCSVStream(blfBytes []byte, dbcTexts []string, channelMap map[uint16]int, applied []string, progress ProgressFunc, opts ...Option) ([]byte, error) {
	cfg := newConfig(opts)

	catalog, decoder, err := buildDecoder(dbcTexts, channelMap)
	if err != nil {
		return nil, err
	}
	columns, err := catalog.Select(applied)
	if err != nil {
		return nil, err
	}

	total, err := blf.CountFrames(blfBytes)
	if err != nil {
		return nil, err
	}

	table := csvtab.New(columns)
	err = runChunked(blfBytes, total, cfg.chunkSize, progress, func(frame blf.Frame) {
		for _, sample := range decoder.Decode(frame) {
			table.Set(sample.TimestampNs, sample.Signal, sample.Value)
		}
	})
	if err != nil {
		return nil, err
	}

	return table.Render()
}

// DecimatedStream produces per-signal envelopes like Session.Decimated but
// with bounded memory: a decoding pre-pass records each selected signal's
// own timestamp range, so the fixed-bucket accumulators of the second pass
// partition exactly the span Session.Decimated would, even for signals
// confined to a fraction of the capture.
//
// An empty keep selects every decodable signal. Signals with no samples in
// the capture are omitted from the result.
//
// Returns:
//   - map[string][]decimate.Point: per-signal envelopes, each at most
//     maxPoints long, never partial
//   - error: errs.ErrInvalidMaxPoints, errs.ErrCancelled, or a parse
//     failure
func DecimatedStream(blfBytes []byte, dbcTexts []string, channelMap map[uint16]int, keep []string, maxPoints int, progress ProgressFunc, opts ...Option) (map[string][]decimate.Point, error) {
	cfg := newConfig(opts)

	catalog, decoder, err := buildDecoder(dbcTexts, channelMap)
	if err != nil {
		return nil, err
	}

	if len(keep) == 0 {
		keep = catalog.SignalNames()
	}
	selected := make(map[uint64]string, len(keep))
	for _, name := range keep {
		if id, ok := catalog.SignalID(name); ok {
			selected[id] = name
		}
	}

	// validate maxPoints before either pass commits to anything
	if _, err := decimate.NewAccumulator(0, 0, maxPoints); err != nil {
		return nil, err
	}

	total, ranges, err := signalRanges(blfBytes, decoder, selected)
	if err != nil {
		return nil, err
	}

	accs := make(map[uint64]*decimate.Accumulator, len(ranges))
	for id, rg := range ranges {
		acc, err := decimate.NewAccumulator(rg.startNs, rg.endNs, maxPoints)
		if err != nil {
			return nil, err
		}
		accs[id] = acc
	}

	err = runChunked(blfBytes, total, cfg.chunkSize, progress, func(frame blf.Frame) {
		for _, sample := range decoder.Decode(frame) {
			if acc, ok := accs[sample.ID]; ok {
				acc.Add(decimate.Point{Timestamp: sample.TimestampNs, Value: sample.Value})
			}
		}
	})
	if err != nil {
		return nil, err
	}

	out := make(map[string][]decimate.Point, len(accs))
	for id, acc := range accs {
		out[selected[id]] = acc.Points()
	}

	return out, nil
}

type signalRange struct {
	startNs, endNs uint64
}

// signalRanges decodes the capture once, counting frames and recording the
// first and last sample timestamp of every selected signal.
func signalRanges(blfBytes []byte, decoder *decode.Decoder, selected map[uint64]string) (int, map[uint64]signalRange, error) {
	r, err := blf.NewReader(blfBytes)
	if err != nil {
		return 0, nil, err
	}

	total := 0
	ranges := make(map[uint64]signalRange, len(selected))
	for frame, err := range r.All() {
		if err != nil {
			return 0, nil, err
		}
		total++
		for _, sample := range decoder.Decode(frame) {
			if _, ok := selected[sample.ID]; !ok {
				continue
			}
			rg, ok := ranges[sample.ID]
			if !ok {
				ranges[sample.ID] = signalRange{startNs: sample.TimestampNs, endNs: sample.TimestampNs}
				continue
			}
			if sample.TimestampNs < rg.startNs {
				rg.startNs = sample.TimestampNs
			}
			if sample.TimestampNs > rg.endNs {
				rg.endNs = sample.TimestampNs
			}
			ranges[sample.ID] = rg
		}
	}

	return total, ranges, nil
}
