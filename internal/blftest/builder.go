// Package blftest builds synthetic BLF byte buffers for tests.
//
// This is a fixture generator, not a public writer: it produces just enough
// of the on-disk layout (file header, LOG_CONTAINER wrapping, CAN /
// CAN FD message objects) to exercise the reader, including compressed and
// uncompressed containers, objects spanning container boundaries, unknown
// object types and truncated tails.
package blftest

import (
	"encoding/binary"

	"github.com/canlab/blfview/compress"
)

const (
	typeCANMessage2  = 86
	typeCANFDMessage = 100
	typeLogContainer = 10

	fileHeaderSize = 144
)

// Msg describes one frame to serialize.
type Msg struct {
	Channel     uint16
	TimestampNs uint64
	ID          uint32
	Extended    bool
	Remote      bool
	TX          bool
	FD          bool
	Data        []byte
	// TenMicros emits the object with the 10-microsecond timestamp flag and
	// the timestamp scaled accordingly.
	TenMicros bool
}

// Config controls how Bytes assembles the file.
type Config struct {
	// Compress wraps the object stream in zlib containers (method 2);
	// otherwise containers use method 0 (stored).
	Compress bool
	// ChunkSize caps the inner bytes per container, splitting the stream
	// mid-object when necessary. Zero means one container for everything.
	ChunkSize int
	// Direct emits objects at the top level without any container.
	Direct bool
}

// Builder accumulates serialized objects.
type Builder struct {
	objects []byte
	count   int
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// FrameCount returns the number of frame objects added.
func (b *Builder) FrameCount() int {
	return b.count
}

// Add serializes one frame object. Payloads longer than 8 bytes (or
// Msg.FD) produce a CAN_FD_MESSAGE, everything else a CAN_MESSAGE2.
func (b *Builder) Add(m Msg) *Builder {
	if m.FD || len(m.Data) > 8 {
		b.appendObject(b.fdMessage(m))
	} else {
		b.appendObject(b.canMessage(m))
	}
	b.count++

	return b
}

// AddRaw serializes an object of an arbitrary type with the given body,
// for exercising the unknown-type skip path.
func (b *Builder) AddRaw(objectType uint32, body []byte) *Builder {
	obj := make([]byte, 16+len(body))
	copy(obj[0:4], "LOBJ")
	binary.LittleEndian.PutUint16(obj[4:6], 16)
	binary.LittleEndian.PutUint16(obj[6:8], 1)
	binary.LittleEndian.PutUint32(obj[8:12], uint32(len(obj)))
	binary.LittleEndian.PutUint32(obj[12:16], objectType)
	copy(obj[16:], body)

	b.appendObject(obj)

	return b
}

// Bytes assembles the default layout: one zlib-compressed container.
func (b *Builder) Bytes() []byte {
	return b.BytesWith(Config{Compress: true})
}

// BytesWith assembles the file per cfg.
func (b *Builder) BytesWith(cfg Config) []byte {
	var body []byte
	if cfg.Direct {
		body = append(body, b.objects...)
	} else {
		chunk := cfg.ChunkSize
		if chunk <= 0 {
			chunk = len(b.objects)
		}
		for off := 0; off < len(b.objects); off += chunk {
			end := min(off+chunk, len(b.objects))
			body = append(body, container(b.objects[off:end], cfg.Compress)...)
		}
	}

	out := make([]byte, fileHeaderSize, fileHeaderSize+len(body))
	copy(out[0:4], "LOGG")
	binary.LittleEndian.PutUint32(out[4:8], fileHeaderSize)
	out[8] = 2 // application id
	binary.LittleEndian.PutUint64(out[16:24], uint64(fileHeaderSize+len(body)))
	binary.LittleEndian.PutUint64(out[24:32], uint64(len(b.objects)))
	binary.LittleEndian.PutUint32(out[32:36], uint32(b.count))

	return append(out, body...)
}

func (b *Builder) appendObject(obj []byte) {
	b.objects = append(b.objects, obj...)
	pad := (4 - len(obj)%4) % 4
	b.objects = append(b.objects, make([]byte, pad)...)
}

// v1Header fills the 32-byte object header shared by message objects.
func v1Header(obj []byte, objectType uint32, m Msg) {
	copy(obj[0:4], "LOBJ")
	binary.LittleEndian.PutUint16(obj[4:6], 32)
	binary.LittleEndian.PutUint16(obj[6:8], 1)
	binary.LittleEndian.PutUint32(obj[8:12], uint32(len(obj)))
	binary.LittleEndian.PutUint32(obj[12:16], objectType)

	flags := uint32(0x2) // nanosecond timestamps
	ts := m.TimestampNs
	if m.TenMicros {
		flags = 0x1
		ts = m.TimestampNs / 10_000
	}
	binary.LittleEndian.PutUint32(obj[16:20], flags)
	binary.LittleEndian.PutUint64(obj[24:32], ts)
}

func messageFlags(m Msg) uint8 {
	var flags uint8
	if m.TX {
		flags |= 0x01
	}
	if m.Remote {
		flags |= 0x80
	}

	return flags
}

func rawID(m Msg) uint32 {
	id := m.ID
	if m.Extended {
		id |= 0x80000000
	}

	return id
}

// canMessage serializes a CAN_MESSAGE2 object (32-byte header + 24-byte body).
func (b *Builder) canMessage(m Msg) []byte {
	obj := make([]byte, 56)
	v1Header(obj, typeCANMessage2, m)

	body := obj[32:]
	binary.LittleEndian.PutUint16(body[0:2], m.Channel)
	body[2] = messageFlags(m)
	body[3] = uint8(len(m.Data))
	binary.LittleEndian.PutUint32(body[4:8], rawID(m))
	copy(body[8:16], m.Data)
	// bytes 16-23: frame length, bit count, reserved

	return obj
}

// fdDLC maps a payload length to the smallest covering CAN FD DLC code.
func fdDLC(n int) uint8 {
	lengths := [16]int{0, 1, 2, 3, 4, 5, 6, 7, 8, 12, 16, 20, 24, 32, 48, 64}
	for code, l := range lengths {
		if n <= l {
			return uint8(code)
		}
	}

	return 15
}

// fdMessage serializes a CAN_FD_MESSAGE object (32-byte header + 84-byte body).
func (b *Builder) fdMessage(m Msg) []byte {
	obj := make([]byte, 116)
	v1Header(obj, typeCANFDMessage, m)

	body := obj[32:]
	binary.LittleEndian.PutUint16(body[0:2], m.Channel)
	body[2] = messageFlags(m)
	body[3] = fdDLC(len(m.Data))
	binary.LittleEndian.PutUint32(body[4:8], rawID(m))
	body[13] = 0x1 // EDL: CAN FD frame
	body[14] = uint8(len(m.Data))
	copy(body[20:84], m.Data)

	return obj
}

// container wraps chunk in a LOG_CONTAINER object, zlib-compressed when
// requested, and appends alignment padding.
func container(chunk []byte, compressed bool) []byte {
	payload := chunk
	method := uint16(0)
	if compressed {
		var err error
		payload, err = compress.NewZlibCompressor().Compress(chunk)
		if err != nil {
			panic("blftest: zlib compression failed: " + err.Error())
		}
		method = 2
	}

	obj := make([]byte, 32+len(payload))
	copy(obj[0:4], "LOBJ")
	binary.LittleEndian.PutUint16(obj[4:6], 16)
	binary.LittleEndian.PutUint16(obj[6:8], 1)
	binary.LittleEndian.PutUint32(obj[8:12], uint32(len(obj)))
	binary.LittleEndian.PutUint32(obj[12:16], typeLogContainer)
	binary.LittleEndian.PutUint16(obj[16:18], method)
	binary.LittleEndian.PutUint32(obj[24:28], uint32(len(chunk)))
	copy(obj[32:], payload)

	pad := (4 - len(obj)%4) % 4

	return append(obj, make([]byte, pad)...)
}
