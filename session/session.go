// Package session is the stateful façade over a loaded capture: one
// in-memory BLF buffer plus its resolved signal catalog, queried repeatedly
// by a viewer or exporter.
//
// Everything derived from the raw bytes (statistics, the per-signal cache)
// is memoized and can be dropped with FreeMemory; queries after a drop
// re-derive identical results from the retained buffer.
package session

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/canlab/blfview/blf"
	"github.com/canlab/blfview/dbc"
	"github.com/canlab/blfview/decode"
	"github.com/canlab/blfview/format"
)

// Option configures a Session.
type Option func(*Session)

// WithCacheCompression selects the codec for the per-signal cache blocks.
// The default is S2.
func WithCacheCompression(compressionType format.CompressionType) Option {
	return func(s *Session) {
		s.cacheCompression = compressionType
	}
}

// Stats summarizes a capture. It is produced by one counting pass and does
// not decode signal values.
type Stats struct {
	FrameCount    int
	ChannelCounts map[uint16]int
	Channels      []uint16
	StartNs       uint64
	EndNs         uint64
	SignalCount   int
	Truncated     bool
}

// Duration returns the captured time span in seconds.
func (s *Stats) Duration() float64 {
	if s.EndNs <= s.StartNs {
		return 0
	}

	return float64(s.EndNs-s.StartNs) / 1e9
}

// Session holds one capture and its catalog. All methods are safe for
// concurrent use; derived state is built under the session lock.
type Session struct {
	data             []byte
	catalog          *dbc.Catalog
	decoder          *decode.Decoder
	cacheCompression format.CompressionType

	mu    sync.Mutex
	stats *Stats
	cache *signalCache
}

// New creates a session over a BLF buffer. Each DBC text is parsed and the
// channel map assigns databases to hardware channels; channels mapped to a
// negative index, or absent from the map, stay raw.
//
// Returns:
//   - *Session: ready for queries; no decode work has happened yet
//   - error: header validation, DBC parse, or catalog resolution failure
func New(blfBytes []byte, dbcTexts []string, channelMap map[uint16]int, opts ...Option) (*Session, error) {
	// validate the header up front so queries cannot fail on a bad buffer
	var hdr blf.FileHeader
	if err := hdr.Parse(blfBytes); err != nil {
		return nil, err
	}

	dbs := make([]*dbc.Database, 0, len(dbcTexts))
	for i, text := range dbcTexts {
		db, err := dbc.Parse(text)
		if err != nil {
			return nil, fmt.Errorf("database %d: %w", i, err)
		}
		dbs = append(dbs, db)
	}

	catalog, err := dbc.BuildCatalog(dbs, channelMap)
	if err != nil {
		return nil, err
	}

	s := &Session{
		data:             blfBytes,
		catalog:          catalog,
		decoder:          decode.NewDecoder(catalog),
		cacheCompression: format.CompressionS2,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Catalog exposes the resolved catalog, mainly for conflict reporting.
func (s *Session) Catalog() *dbc.Catalog {
	return s.catalog
}

// Stats returns capture statistics, computing them on first call.
func (s *Session) Stats() (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stats != nil {
		return *s.stats, nil
	}

	r, err := blf.NewReader(s.data)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{
		ChannelCounts: make(map[uint16]int),
		SignalCount:   len(s.catalog.SignalNames()),
	}
	for frame, err := range r.All() {
		if err != nil {
			return Stats{}, err
		}
		if stats.FrameCount == 0 || frame.TimestampNs < stats.StartNs {
			stats.StartNs = frame.TimestampNs
		}
		if frame.TimestampNs > stats.EndNs {
			stats.EndNs = frame.TimestampNs
		}
		stats.FrameCount++
		stats.ChannelCounts[frame.Channel]++
	}
	stats.Truncated = r.Truncated()

	stats.Channels = make([]uint16, 0, len(stats.ChannelCounts))
	for ch := range stats.ChannelCounts {
		stats.Channels = append(stats.Channels, ch)
	}
	sort.Slice(stats.Channels, func(i, j int) bool { return stats.Channels[i] < stats.Channels[j] })

	s.stats = &stats

	return stats, nil
}

// Preview decodes the first n frames. Raw frames appear with an empty
// message name and no samples. Work is bounded by n regardless of capture
// size.
func (s *Session) Preview(n int) ([]decode.DecodedFrame, error) {
	if n <= 0 {
		return nil, nil
	}

	r, err := blf.NewReader(s.data)
	if err != nil {
		return nil, err
	}

	out := make([]decode.DecodedFrame, 0, n)
	for len(out) < n {
		frame, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, s.decoder.DecodeFrame(frame))
	}

	return out, nil
}

// Signals returns the sorted channel-tagged signal names the catalog can
// decode. No file access happens.
func (s *Session) Signals() []string {
	return s.catalog.SignalNames()
}

// FreeMemory drops all derived state: the stats memo and the signal cache.
// The raw buffer and catalog stay, so any later query rebuilds exactly what
// was dropped. Calling it repeatedly is harmless.
func (s *Session) FreeMemory() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats = nil
	s.cache = nil
}
