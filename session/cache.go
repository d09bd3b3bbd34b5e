package session

import (
	"fmt"
	"math"

	"github.com/canlab/blfview/blf"
	"github.com/canlab/blfview/compress"
	"github.com/canlab/blfview/decimate"
	"github.com/canlab/blfview/endian"
)

// signalCache holds one columnar block per signal, keyed by the signal's
// 64-bit ID: little-endian (timestamp, value-bits) pairs, compressed.
// Decoding the capture once and paying a cheap decompression per query
// beats re-walking the BLF buffer for every zoom level.
type signalCache struct {
	codec  compress.Codec
	blocks map[uint64][]byte
	counts map[uint64]int
}

const pointSize = 16

var cacheEngine = endian.GetLittleEndianEngine()

// Decimated returns decimated series for the selected signals, keyed by
// channel-tagged name. An empty keep selects every decodable signal.
// Signals with no samples in the capture are omitted from the result.
//
// The first call decodes the whole capture into the signal cache; later
// calls, at any maxPoints, only decompress the selected blocks.
//
// Returns:
//   - map[string][]decimate.Point: per-signal envelopes, each at most
//     maxPoints long
//   - error: errs.ErrInvalidMaxPoints, or a read/cache failure
func (s *Session) Decimated(maxPoints int, keep []string) (map[string][]decimate.Point, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureCache(); err != nil {
		return nil, err
	}

	names := keep
	if len(names) == 0 {
		names = s.catalog.SignalNames()
	}

	out := make(map[string][]decimate.Point, len(names))
	for _, name := range names {
		id, ok := s.catalog.SignalID(name)
		if !ok {
			continue
		}
		points, ok, err := s.cache.load(id)
		if err != nil {
			return nil, fmt.Errorf("signal %s: %w", name, err)
		}
		if !ok {
			continue
		}
		reduced, err := decimate.Decimate(points, maxPoints)
		if err != nil {
			return nil, err
		}
		out[name] = reduced
	}

	return out, nil
}

// ensureCache builds the signal cache if it is not resident. Caller holds
// the session lock.
func (s *Session) ensureCache() error {
	if s.cache != nil {
		return nil
	}

	codec, err := compress.CreateCodec(s.cacheCompression, "signal cache")
	if err != nil {
		return err
	}

	r, err := blf.NewReader(s.data)
	if err != nil {
		return err
	}

	series := make(map[uint64][]decimate.Point)
	for frame, err := range r.All() {
		if err != nil {
			return err
		}
		for _, sample := range s.decoder.Decode(frame) {
			series[sample.ID] = append(series[sample.ID], decimate.Point{
				Timestamp: sample.TimestampNs,
				Value:     sample.Value,
			})
		}
	}

	cache := &signalCache{
		codec:  codec,
		blocks: make(map[uint64][]byte, len(series)),
		counts: make(map[uint64]int, len(series)),
	}
	for id, points := range series {
		block, err := cache.store(points)
		if err != nil {
			return fmt.Errorf("caching signal %#x: %w", id, err)
		}
		cache.blocks[id] = block
		cache.counts[id] = len(points)
	}
	s.cache = cache

	return nil
}

func (c *signalCache) store(points []decimate.Point) ([]byte, error) {
	buf := make([]byte, 0, len(points)*pointSize)
	for _, p := range points {
		buf = cacheEngine.AppendUint64(buf, p.Timestamp)
		buf = cacheEngine.AppendUint64(buf, math.Float64bits(p.Value))
	}

	return c.codec.Compress(buf)
}

func (c *signalCache) load(id uint64) ([]decimate.Point, bool, error) {
	block, ok := c.blocks[id]
	if !ok {
		return nil, false, nil
	}

	raw, err := c.codec.Decompress(block)
	if err != nil {
		return nil, false, fmt.Errorf("cache block: %w", err)
	}
	if len(raw) != c.counts[id]*pointSize {
		return nil, false, fmt.Errorf("cache block: %d bytes for %d points", len(raw), c.counts[id])
	}

	points := make([]decimate.Point, c.counts[id])
	for i := range points {
		off := i * pointSize
		points[i] = decimate.Point{
			Timestamp: cacheEngine.Uint64(raw[off : off+8]),
			Value:     math.Float64frombits(cacheEngine.Uint64(raw[off+8 : off+16])),
		}
	}

	return points, true, nil
}
