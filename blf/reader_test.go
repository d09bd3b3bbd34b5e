package blf

import (
	"errors"
	"io"
	"testing"

	"github.com/canlab/blfview/errs"
	"github.com/canlab/blfview/format"
	"github.com/canlab/blfview/internal/blftest"
	"github.com/stretchr/testify/require"
)

func collectFrames(t *testing.T, r *Reader) []Frame {
	t.Helper()

	var frames []Frame
	for frame, err := range r.All() {
		require.NoError(t, err)
		frames = append(frames, frame)
	}

	return frames
}

func TestReader_CompressedContainerRoundTrip(t *testing.T) {
	b := blftest.NewBuilder()
	b.Add(blftest.Msg{Channel: 1, TimestampNs: 1_000_000, ID: 0x100, Data: []byte{0x10, 0x27, 0xE8, 0x03}})
	b.Add(blftest.Msg{Channel: 2, TimestampNs: 2_000_000, ID: 0x1FFFFFFF, Extended: true, Data: []byte{0xFF}})
	b.Add(blftest.Msg{Channel: 1, TimestampNs: 3_000_000, ID: 0x200, TX: true, Remote: true})

	r, err := NewReader(b.Bytes())
	require.NoError(t, err)

	frames := collectFrames(t, r)
	require.Len(t, frames, 3)

	require.Equal(t, uint16(1), frames[0].Channel)
	require.Equal(t, uint32(0x100), frames[0].ID)
	require.Equal(t, uint64(1_000_000), frames[0].TimestampNs)
	require.Equal(t, []byte{0x10, 0x27, 0xE8, 0x03}, frames[0].Data)
	require.False(t, frames[0].Extended)

	require.True(t, frames[1].Extended)
	require.Equal(t, uint32(0x1FFFFFFF), frames[1].ID)

	require.True(t, frames[2].TX)
	require.True(t, frames[2].Remote)
	require.Empty(t, frames[2].Data)

	require.Equal(t, 3, r.Frames())
	require.False(t, r.Truncated())
}

func TestReader_UncompressedContainer(t *testing.T) {
	b := blftest.NewBuilder()
	b.Add(blftest.Msg{Channel: 1, TimestampNs: 500, ID: 0x42, Data: []byte{1, 2, 3, 4, 5, 6, 7, 8}})

	r, err := NewReader(b.BytesWith(blftest.Config{Compress: false}))
	require.NoError(t, err)

	frames := collectFrames(t, r)
	require.Len(t, frames, 1)
	require.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, frames[0].Data)
}

func TestReader_DirectObjectsWithoutContainer(t *testing.T) {
	b := blftest.NewBuilder()
	b.Add(blftest.Msg{Channel: 3, TimestampNs: 77, ID: 0x7FF, Data: []byte{0xAB}})
	b.Add(blftest.Msg{Channel: 3, TimestampNs: 78, ID: 0x7FF, Data: []byte{0xCD}})

	r, err := NewReader(b.BytesWith(blftest.Config{Direct: true}))
	require.NoError(t, err)

	frames := collectFrames(t, r)
	require.Len(t, frames, 2)
	require.Equal(t, []byte{0xCD}, frames[1].Data)
}

func TestReader_ObjectSpanningContainerBoundary(t *testing.T) {
	b := blftest.NewBuilder()
	for i := 0; i < 20; i++ {
		b.Add(blftest.Msg{Channel: 1, TimestampNs: uint64(i), ID: 0x100, Data: []byte{byte(i)}})
	}

	// 40-byte chunks split every 56-byte object across containers.
	for _, compress := range []bool{false, true} {
		r, err := NewReader(b.BytesWith(blftest.Config{Compress: compress, ChunkSize: 40}))
		require.NoError(t, err)

		frames := collectFrames(t, r)
		require.Len(t, frames, 20)
		for i, frame := range frames {
			require.Equal(t, uint64(i), frame.TimestampNs)
			require.Equal(t, []byte{byte(i)}, frame.Data)
		}
	}
}

func TestReader_SkipsUnknownAndNonFrameObjects(t *testing.T) {
	b := blftest.NewBuilder()
	b.AddRaw(TypeAppText, []byte("measurement note"))
	b.Add(blftest.Msg{Channel: 1, TimestampNs: 1, ID: 0x10, Data: []byte{0x01}})
	b.AddRaw(999, []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x00})
	b.Add(blftest.Msg{Channel: 1, TimestampNs: 2, ID: 0x11, Data: []byte{0x02}})
	b.AddRaw(TypeCANError, make([]byte, 8))

	r, err := NewReader(b.Bytes())
	require.NoError(t, err)

	frames := collectFrames(t, r)
	require.Len(t, frames, 2)
	require.Equal(t, uint32(0x10), frames[0].ID)
	require.Equal(t, uint32(0x11), frames[1].ID)
}

func TestReader_CANFDFrame(t *testing.T) {
	payload := make([]byte, 64)
	for i := range payload {
		payload[i] = byte(i)
	}

	b := blftest.NewBuilder()
	b.Add(blftest.Msg{Channel: 1, TimestampNs: 123, ID: 0x300, FD: true, Data: payload})

	r, err := NewReader(b.Bytes())
	require.NoError(t, err)

	frames := collectFrames(t, r)
	require.Len(t, frames, 1)
	require.True(t, frames[0].FD)
	require.Equal(t, payload, frames[0].Data)
	require.Equal(t, uint8(15), frames[0].DLC)
}

func TestReader_TruncatedTrailingContainer(t *testing.T) {
	b := blftest.NewBuilder()
	for i := 0; i < 10; i++ {
		b.Add(blftest.Msg{Channel: 1, TimestampNs: uint64(i), ID: 0x100, Data: []byte{byte(i)}})
	}

	// One object per container, then cut into the final container.
	full := b.BytesWith(blftest.Config{Compress: false, ChunkSize: 56})
	cut := full[:len(full)-30]

	r, err := NewReader(cut)
	require.NoError(t, err)

	var frames []Frame
	for {
		frame, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		frames = append(frames, frame)
	}

	require.Len(t, frames, 9)
	require.True(t, r.Truncated())
	require.Equal(t, 9, r.Frames())

	// The cursor stays pinned at EOF.
	_, err = r.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestReader_TruncatedMidObjectInsideStream(t *testing.T) {
	b := blftest.NewBuilder()
	b.Add(blftest.Msg{Channel: 1, TimestampNs: 1, ID: 0x100, Data: []byte{1}})
	b.Add(blftest.Msg{Channel: 1, TimestampNs: 2, ID: 0x101, Data: []byte{2}})

	full := b.BytesWith(blftest.Config{Direct: true})
	cut := full[:len(full)-20] // cuts into the second direct object

	r, err := NewReader(cut)
	require.NoError(t, err)

	frames := 0
	for {
		_, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		frames++
	}

	require.Equal(t, 1, frames)
	require.True(t, r.Truncated())
}

func TestReader_InvalidSignature(t *testing.T) {
	data := blftest.NewBuilder().Bytes()
	data[0] = 'X'

	_, err := NewReader(data)
	require.ErrorIs(t, err, errs.ErrInvalidSignature)
}

func TestReader_HeaderTooShort(t *testing.T) {
	_, err := NewReader([]byte("LOGG"))
	require.ErrorIs(t, err, errs.ErrHeaderTooShort)
}

func TestReader_EmptyFileIsCleanEOF(t *testing.T) {
	r, err := NewReader(blftest.NewBuilder().Bytes())
	require.NoError(t, err)

	_, err = r.Next()
	require.ErrorIs(t, err, io.EOF)
	require.False(t, r.Truncated())
	require.Equal(t, 0, r.Frames())
}

func TestReader_TenMicrosecondTimestamps(t *testing.T) {
	b := blftest.NewBuilder()
	b.Add(blftest.Msg{Channel: 1, TimestampNs: 250_000_000, ID: 0x1, TenMicros: true, Data: []byte{1}})

	r, err := NewReader(b.Bytes())
	require.NoError(t, err)

	frames := collectFrames(t, r)
	require.Len(t, frames, 1)
	require.Equal(t, uint64(250_000_000), frames[0].TimestampNs)
	require.InDelta(t, 0.25, frames[0].TimestampSeconds(), 1e-12)
}

func TestReader_ForcedTimestampUnit(t *testing.T) {
	b := blftest.NewBuilder()
	// Written with nanosecond flags, but forced to 10us interpretation.
	b.Add(blftest.Msg{Channel: 1, TimestampNs: 100, ID: 0x1, Data: []byte{1}})

	r, err := NewReader(b.Bytes(), WithTimestampUnit(format.UnitTenMicros))
	require.NoError(t, err)

	frames := collectFrames(t, r)
	require.Len(t, frames, 1)
	require.Equal(t, uint64(1_000_000), frames[0].TimestampNs)
}

func TestReader_FileHeaderFields(t *testing.T) {
	b := blftest.NewBuilder()
	b.Add(blftest.Msg{Channel: 1, TimestampNs: 1, ID: 0x1, Data: []byte{1}})

	r, err := NewReader(b.Bytes())
	require.NoError(t, err)

	hdr := r.Header()
	require.Equal(t, uint32(144), hdr.HeaderSize)
	require.Equal(t, uint32(1), hdr.ObjectCount)
}

func TestCountFrames(t *testing.T) {
	b := blftest.NewBuilder()
	for i := 0; i < 123; i++ {
		b.Add(blftest.Msg{Channel: uint16(1 + i%3), TimestampNs: uint64(i), ID: 0x100, Data: []byte{byte(i)}})
	}
	b.AddRaw(TypeAppText, []byte("not a frame"))

	count, err := CountFrames(b.Bytes())
	require.NoError(t, err)
	require.Equal(t, 123, count)
}

func TestCountFrames_InvalidInput(t *testing.T) {
	_, err := CountFrames([]byte("not a blf file at all"))
	require.Error(t, err)
}
