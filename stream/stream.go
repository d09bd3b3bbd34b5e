// Package stream holds the one-shot export pipelines for captures too large
// to keep fully decoded in memory. Both pipelines make a pre-pass (a frame
// count for CSV export, a count plus per-signal time ranges for
// decimation), then decode in fixed-size frame chunks, reporting progress
// after each chunk; peak memory is bounded by the chunk, the catalog, and
// the output.
//
// Cancellation is an explicit result of the progress callback, not a
// panic or a context: returning Cancel makes the pipeline discard all
// partial state and return errs.ErrCancelled.
package stream

import (
	"errors"
	"fmt"
	"io"

	"github.com/canlab/blfview/blf"
	"github.com/canlab/blfview/dbc"
	"github.com/canlab/blfview/decode"
	"github.com/canlab/blfview/errs"
)

// Decision is the progress callback's verdict on whether to keep going.
type Decision int

const (
	Continue Decision = iota
	Cancel
)

// ProgressFunc observes pipeline progress. processed counts frames
// consumed so far out of total; the pipeline guarantees a final call with
// processed == total when it runs to completion.
type ProgressFunc func(processed, total int) Decision

// DefaultChunkSize is the number of frames decoded between progress calls.
const DefaultChunkSize = 10_000

// Option configures a streaming pipeline.
type Option func(*config)

// WithChunkSize overrides the frames-per-chunk granularity. Values below 1
// are ignored.
func WithChunkSize(n int) Option {
	return func(c *config) {
		if n >= 1 {
			c.chunkSize = n
		}
	}
}

type config struct {
	chunkSize int
}

func newConfig(opts []Option) config {
	cfg := config{chunkSize: DefaultChunkSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

func buildDecoder(dbcTexts []string, channelMap map[uint16]int) (*dbc.Catalog, *decode.Decoder, error) {
	dbs := make([]*dbc.Database, 0, len(dbcTexts))
	for i, text := range dbcTexts {
		db, err := dbc.Parse(text)
		if err != nil {
			return nil, nil, fmt.Errorf("database %d: %w", i, err)
		}
		dbs = append(dbs, db)
	}

	catalog, err := dbc.BuildCatalog(dbs, channelMap)
	if err != nil {
		return nil, nil, err
	}

	return catalog, decode.NewDecoder(catalog), nil
}

// runChunked drives the chunked decode pass. handle is called for every
// frame; progress after every chunk boundary and once at the end.
func runChunked(blfBytes []byte, total, chunkSize int, progress ProgressFunc, handle func(frame blf.Frame)) error {
	r, err := blf.NewReader(blfBytes)
	if err != nil {
		return err
	}

	processed := 0
	inChunk := 0
	for {
		frame, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		handle(frame)
		processed++
		inChunk++

		if inChunk == chunkSize {
			inChunk = 0
			if progress != nil && progress(processed, total) == Cancel {
				return errs.ErrCancelled
			}
		}
	}

	if progress != nil && progress(processed, total) == Cancel {
		return errs.ErrCancelled
	}

	return nil
}
