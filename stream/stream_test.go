package stream

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/canlab/blfview/errs"
	"github.com/canlab/blfview/internal/blftest"
	"github.com/canlab/blfview/session"
)

const motionDBC = `BO_ 256 Motion: 8 ECU
 SG_ Speed : 0|16@1+ (0.01,0) [0|655.35] "km/h" Dash
 SG_ RPM : 16|16@1+ (1,0) [0|65535] "rpm" Dash
`

func motionCapture(t *testing.T, frames int) []byte {
	t.Helper()

	b := blftest.NewBuilder()
	for i := 0; i < frames; i++ {
		raw := uint16(i % 1000)
		b.Add(blftest.Msg{
			Channel:     1,
			TimestampNs: uint64(i) * 1_000_000,
			ID:          0x100,
			Data:        []byte{byte(raw), byte(raw >> 8), 0xE8, 0x03, 0, 0, 0, 0},
		})
	}

	return b.BytesWith(blftest.Config{Compress: true, ChunkSize: 64 * 1024})
}

func TestExportCSVStreamMatchesSession(t *testing.T) {
	data := motionCapture(t, 2500)
	dbcs := []string{motionDBC}
	channels := map[uint16]int{1: 0}
	applied := []string{"CAN1.Speed", "CAN1.RPM"}

	s, err := session.New(data, dbcs, channels)
	require.NoError(t, err)
	want, err := s.ExportCSV(applied)
	require.NoError(t, err)

	var calls [][2]int
	got, err := ExportCSVStream(data, dbcs, channels, applied,
		func(processed, total int) Decision {
			calls = append(calls, [2]int{processed, total})
			return Continue
		},
		WithChunkSize(1000))
	require.NoError(t, err)
	require.Equal(t, want, got, "streaming export must match the in-memory export")

	require.Equal(t, [][2]int{{1000, 2500}, {2000, 2500}, {2500, 2500}}, calls)
}

func TestExportCSVStreamNilProgress(t *testing.T) {
	data := motionCapture(t, 100)

	out, err := ExportCSVStream(data, []string{motionDBC}, map[uint16]int{1: 0}, []string{"CAN1.Speed"}, nil)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 101)
}

func TestExportCSVStreamCancel(t *testing.T) {
	data := motionCapture(t, 2500)

	calls := 0
	out, err := ExportCSVStream(data, []string{motionDBC}, map[uint16]int{1: 0}, []string{"CAN1.Speed"},
		func(processed, total int) Decision {
			calls++
			if calls == 2 {
				return Cancel
			}
			return Continue
		},
		WithChunkSize(500))
	require.ErrorIs(t, err, errs.ErrCancelled)
	require.Nil(t, out, "no partial output after cancellation")
	require.Equal(t, 2, calls, "pipeline stops at the cancelling chunk")
}

func TestExportCSVStreamEmptySelection(t *testing.T) {
	data := motionCapture(t, 10)

	_, err := ExportCSVStream(data, []string{motionDBC}, map[uint16]int{1: 0}, nil, nil)
	require.ErrorIs(t, err, errs.ErrEmptySelection)
}

func TestDecimatedStreamMatchesSession(t *testing.T) {
	data := motionCapture(t, 5000)
	dbcs := []string{motionDBC}
	channels := map[uint16]int{1: 0}

	s, err := session.New(data, dbcs, channels)
	require.NoError(t, err)
	want, err := s.Decimated(200, []string{"CAN1.Speed"})
	require.NoError(t, err)

	got, err := DecimatedStream(data, dbcs, channels, []string{"CAN1.Speed"}, 200, nil, WithChunkSize(777))
	require.NoError(t, err)
	require.Equal(t, want, got, "chunked decimation must match the in-memory path")
}

func TestDecimatedStreamSubRangeSignal(t *testing.T) {
	// decodable traffic confined to the first two seconds, with raw frames
	// on an unmapped channel stretching the capture to twenty; the signal's
	// buckets must partition its own span, not the capture's
	b := blftest.NewBuilder()
	for i := 0; i < 2000; i++ {
		raw := uint16(i % 1000)
		b.Add(blftest.Msg{
			Channel:     1,
			TimestampNs: uint64(i) * 1_000_000,
			ID:          0x100,
			Data:        []byte{byte(raw), byte(raw >> 8), 0xE8, 0x03, 0, 0, 0, 0},
		})
	}
	for i := 0; i < 2000; i++ {
		b.Add(blftest.Msg{
			Channel:     2,
			TimestampNs: 2_000_000_000 + uint64(i)*9_000_000,
			ID:          0x200,
			Data:        []byte{0},
		})
	}
	data := b.BytesWith(blftest.Config{Compress: true, ChunkSize: 64 * 1024})
	dbcs := []string{motionDBC}
	channels := map[uint16]int{1: 0}

	s, err := session.New(data, dbcs, channels)
	require.NoError(t, err)
	want, err := s.Decimated(100, []string{"CAN1.Speed"})
	require.NoError(t, err)
	require.Len(t, want["CAN1.Speed"], 100, "a 2000-sample signal fills the full budget")

	got, err := DecimatedStream(data, dbcs, channels, []string{"CAN1.Speed"}, 100, nil, WithChunkSize(512))
	require.NoError(t, err)
	require.Equal(t, want, got, "sub-range signals must decimate over their own time span")
}

func TestDecimatedStreamSmallSeriesExact(t *testing.T) {
	data := motionCapture(t, 50)

	got, err := DecimatedStream(data, []string{motionDBC}, map[uint16]int{1: 0}, nil, 1000, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Len(t, got["CAN1.Speed"], 50, "series within budget stay exact")
	require.InDelta(t, 0.37, got["CAN1.Speed"][37].Value, 1e-12)
}

func TestDecimatedStreamCancel(t *testing.T) {
	data := motionCapture(t, 3000)

	_, err := DecimatedStream(data, []string{motionDBC}, map[uint16]int{1: 0}, nil, 100,
		func(processed, total int) Decision { return Cancel },
		WithChunkSize(1000))
	require.ErrorIs(t, err, errs.ErrCancelled)
}

func TestDecimatedStreamInvalidMaxPoints(t *testing.T) {
	data := motionCapture(t, 10)

	_, err := DecimatedStream(data, []string{motionDBC}, map[uint16]int{1: 0}, nil, 0, nil)
	require.ErrorIs(t, err, errs.ErrInvalidMaxPoints)
}

func TestStreamProgressFinalCallOnEmptyCapture(t *testing.T) {
	data := blftest.NewBuilder().Bytes()

	var calls [][2]int
	_, err := ExportCSVStream(data, []string{motionDBC}, map[uint16]int{1: 0}, []string{"CAN1.Speed"},
		func(processed, total int) Decision {
			calls = append(calls, [2]int{processed, total})
			return Continue
		})
	require.NoError(t, err)
	require.Equal(t, [][2]int{{0, 0}}, calls)
}
