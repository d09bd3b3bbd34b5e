package blf

import (
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/canlab/blfview/compress"
	"github.com/canlab/blfview/endian"
	"github.com/canlab/blfview/errs"
	"github.com/canlab/blfview/format"
	"github.com/canlab/blfview/internal/pool"
)

// Option configures a Reader.
type Option func(*Reader)

// WithTimestampUnit forces the interpretation of object timestamps instead
// of trusting each object's flag word. Real capture files occasionally carry
// wrong flags; the unit is surfaced here rather than hard-coded.
func WithTimestampUnit(unit format.TimestampUnit) Option {
	return func(r *Reader) {
		r.unit = unit
	}
}

// Reader walks the frame-carrying objects of a BLF byte buffer.
//
// The Reader is an explicit cursor over two levels of framing: the top-level
// object sequence of the file, and the inner object stream reassembled from
// decompressed LOG_CONTAINER chunks. It holds at most one decompressed chunk
// at a time; objects spanning a chunk boundary are stitched through a carry
// buffer.
//
// The Reader is not safe for concurrent use and is not reusable after the
// walk ends.
type Reader struct {
	engine endian.EndianEngine
	header FileHeader
	unit   format.TimestampUnit
	zlib   compress.Decompressor

	data []byte
	pos  int // cursor into data, past the file header

	stream     *pool.ByteBuffer // carry-over plus current decompressed chunk
	streamPos  int
	pendingPad int // alignment bytes still to skip, may span chunks

	frames    int
	truncated bool
	done      bool
}

// NewReader creates a Reader over a complete or truncated BLF byte buffer.
//
// Returns:
//   - *Reader: cursor positioned before the first object
//   - error: errs.ErrInvalidSignature or errs.ErrHeaderTooShort on a
//     malformed file header
func NewReader(data []byte, opts ...Option) (*Reader, error) {
	zlib, err := compress.GetCodec(format.CompressionZlib)
	if err != nil {
		return nil, err
	}

	r := &Reader{
		engine: endian.GetLittleEndianEngine(),
		unit:   format.UnitAuto,
		zlib:   zlib,
		data:   data,
		stream: pool.GetChunkBuffer(),
	}

	if err := r.header.Parse(data); err != nil {
		return nil, err
	}
	r.pos = int(r.header.HeaderSize)

	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// Header returns the parsed file header.
func (r *Reader) Header() FileHeader {
	return r.header
}

// Frames returns the number of frames produced so far.
func (r *Reader) Frames() int {
	return r.frames
}

// Truncated reports whether the walk ended at an incomplete trailing object
// rather than a clean end of file. Only meaningful after Next returned io.EOF.
func (r *Reader) Truncated() bool {
	return r.truncated
}

// Next returns the next frame-carrying object.
//
// Non-frame objects are skipped transparently. At the end of the buffer Next
// returns io.EOF; a truncated trailing object also ends the walk with io.EOF
// (recoverable truncation, see Truncated) while corrupted object framing
// before that point returns a wrapped errs sentinel.
func (r *Reader) Next() (Frame, error) {
	if r.done {
		return Frame{}, io.EOF
	}

	for {
		frame, produced, err := r.nextFromStream()
		if err != nil {
			r.finish()
			return Frame{}, err
		}
		if produced {
			r.frames++
			return frame, nil
		}

		if err := r.fill(); err != nil {
			r.finish()
			return Frame{}, err
		}
	}
}

// All returns an iterator over the remaining frames. Iteration stops at the
// end of the file; a non-nil error is yielded once and ends the sequence.
func (r *Reader) All() iter.Seq2[Frame, error] {
	return func(yield func(Frame, error) bool) {
		for {
			frame, err := r.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(frame, err) {
				return
			}
			if err != nil {
				return
			}
		}
	}
}

// finish releases the chunk buffer and pins the cursor at EOF.
func (r *Reader) finish() {
	if r.done {
		return
	}
	r.done = true
	pool.PutChunkBuffer(r.stream)
	r.stream = pool.NewByteBuffer(0)
	r.streamPos = 0
}

// nextFromStream walks complete objects in the reassembled inner stream.
// It returns produced=false when the stream runs out of complete objects and
// more chunks must be loaded.
func (r *Reader) nextFromStream() (Frame, bool, error) {
	for {
		buf := r.stream.Bytes()
		remaining := len(buf) - r.streamPos

		if r.pendingPad > 0 {
			skip := min(r.pendingPad, remaining)
			r.streamPos += skip
			r.pendingPad -= skip
			if r.pendingPad > 0 {
				return Frame{}, false, nil
			}

			continue
		}

		if remaining < baseHeaderSize {
			return Frame{}, false, nil
		}

		hdr, err := parseObjectHeader(buf[r.streamPos:], r.engine)
		if err != nil {
			return Frame{}, false, err
		}
		if remaining < int(hdr.ObjectSize) {
			// object spans into the next chunk
			return Frame{}, false, nil
		}

		obj := buf[r.streamPos : r.streamPos+int(hdr.ObjectSize)]
		r.streamPos += int(hdr.ObjectSize)
		r.pendingPad = objectPadding(hdr.ObjectSize)

		switch hdr.ObjectType {
		case TypeCANMessage, TypeCANMessage2:
			if frame, ok := r.parseCANMessage(obj, hdr); ok {
				return frame, true, nil
			}
		case TypeCANFDMessage:
			if frame, ok := r.parseCANFDMessage(obj, hdr); ok {
				return frame, true, nil
			}
		default:
			// forward-compatibility: unknown and non-frame types are skipped
			// by their declared size
		}
	}
}

// fill loads the next top-level object: container chunks are decompressed
// and appended to the inner stream (after the carry-over of any partially
// read object), direct objects are appended verbatim.
func (r *Reader) fill() error {
	next := pool.GetChunkBuffer()
	next.MustWrite(r.stream.Bytes()[r.streamPos:])
	pool.PutChunkBuffer(r.stream)
	r.stream = next
	r.streamPos = 0

	remaining := len(r.data) - r.pos
	if remaining <= 0 {
		if r.stream.Len() > 0 {
			// a partial object ran past the end of the buffer
			r.truncated = true
		}

		return io.EOF
	}
	if remaining < baseHeaderSize {
		r.truncated = true
		return io.EOF
	}

	hdr, err := parseObjectHeader(r.data[r.pos:], r.engine)
	if err != nil {
		return err
	}
	if remaining < int(hdr.ObjectSize) {
		r.truncated = true
		return io.EOF
	}

	obj := r.data[r.pos : r.pos+int(hdr.ObjectSize)]
	adv := int(hdr.ObjectSize) + objectPadding(hdr.ObjectSize)
	if adv > remaining {
		adv = remaining
	}
	r.pos += adv

	if hdr.ObjectType == TypeLogContainer {
		chunk, err := r.decompressContainer(obj)
		if err != nil {
			return err
		}
		r.stream.MustWrite(chunk)

		return nil
	}

	// direct object outside any container; append with explicit alignment
	// bytes so the stream walker's arithmetic holds
	r.stream.MustWrite(obj)
	r.stream.MustWrite(zeroPad[:objectPadding(hdr.ObjectSize)])

	return nil
}

var zeroPad [4]byte

// decompressContainer returns the inner object bytes of a LOG_CONTAINER.
func (r *Reader) decompressContainer(obj []byte) ([]byte, error) {
	if len(obj) < containerHeaderSize {
		return nil, errs.ErrInvalidObjectSize
	}

	method := r.engine.Uint16(obj[16:18])
	payload := obj[containerHeaderSize:]

	switch method {
	case containerNoCompression:
		return payload, nil
	case containerZlibCompression:
		chunk, err := r.zlib.Decompress(payload)
		if err != nil {
			return nil, fmt.Errorf("log container decompression failed: %w", err)
		}

		return chunk, nil
	default:
		return nil, fmt.Errorf("%w: method %d", errs.ErrUnsupportedCompression, method)
	}
}

// normalizeTimestamp converts an object timestamp to nanoseconds, honoring a
// forced unit when one was configured.
func (r *Reader) normalizeTimestamp(raw uint64, objectFlags uint32) uint64 {
	unit := r.unit
	if unit == format.UnitAuto {
		switch {
		case objectFlags&flagTimestampNanos != 0:
			unit = format.UnitNanos
		case objectFlags&flagTimestampTenMicros != 0:
			unit = format.UnitTenMicros
		default:
			unit = format.UnitNanos
		}
	}

	if unit == format.UnitTenMicros {
		return raw * 10_000
	}

	return raw
}

// parseCANMessage decodes a CAN_MESSAGE or CAN_MESSAGE2 object body.
// Returns ok=false for malformed bodies, which are dropped rather than
// failing the walk.
func (r *Reader) parseCANMessage(obj []byte, hdr objectHeader) (Frame, bool) {
	bodyOffset := int(hdr.HeaderSize)
	if bodyOffset < v1HeaderSize || len(obj) < bodyOffset+16 {
		return Frame{}, false
	}

	objectFlags := r.engine.Uint32(obj[16:20])
	timestamp := r.engine.Uint64(obj[24:32])

	body := obj[bodyOffset:]
	flags := body[2]
	dlc := body[3]
	rawID := r.engine.Uint32(body[4:8])

	dataLen := min(int(dlc), 8)
	data := make([]byte, dataLen)
	copy(data, body[8:8+dataLen])

	return Frame{
		TimestampNs: r.normalizeTimestamp(timestamp, objectFlags),
		Channel:     r.engine.Uint16(body[0:2]),
		ID:          rawID &^ idExtendedBit,
		Extended:    rawID&idExtendedBit != 0,
		Remote:      flags&msgFlagRemote != 0,
		TX:          flags&msgFlagTX != 0,
		DLC:         dlc,
		Data:        data,
	}, true
}

// parseCANFDMessage decodes a CAN_FD_MESSAGE object body.
func (r *Reader) parseCANFDMessage(obj []byte, hdr objectHeader) (Frame, bool) {
	bodyOffset := int(hdr.HeaderSize)
	if bodyOffset < v1HeaderSize || len(obj) < bodyOffset+84 {
		return Frame{}, false
	}

	objectFlags := r.engine.Uint32(obj[16:20])
	timestamp := r.engine.Uint64(obj[24:32])

	body := obj[bodyOffset:]
	flags := body[2]
	dlc := body[3]
	rawID := r.engine.Uint32(body[4:8])
	fdFlags := body[13]
	validBytes := int(body[14])

	if validBytes == 0 || validBytes > 64 {
		validBytes = dlcToLength[dlc&0xF]
	}
	data := make([]byte, validBytes)
	copy(data, body[20:20+validBytes])

	return Frame{
		TimestampNs: r.normalizeTimestamp(timestamp, objectFlags),
		Channel:     r.engine.Uint16(body[0:2]),
		ID:          rawID &^ idExtendedBit,
		Extended:    rawID&idExtendedBit != 0,
		Remote:      flags&msgFlagRemote != 0,
		TX:          flags&msgFlagTX != 0,
		FD:          fdFlags&fdFlagEDL != 0,
		DLC:         dlc,
		Data:        data,
	}, true
}

// CountFrames returns the number of frame-carrying objects in a BLF buffer
// without decoding signals. This is the fast validation path; it tolerates a
// truncated trailing object the same way a full walk does.
func CountFrames(data []byte) (int, error) {
	r, err := NewReader(data)
	if err != nil {
		return 0, err
	}

	count := 0
	for {
		_, err := r.Next()
		if errors.Is(err, io.EOF) {
			return count, nil
		}
		if err != nil {
			return count, err
		}
		count++
	}
}
