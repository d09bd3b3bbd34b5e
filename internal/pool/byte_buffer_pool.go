package pool

import "sync"

// Default sizes for container chunk buffers.
//
// A decompressed LOG_CONTAINER chunk is typically 128KiB in Vector tooling;
// buffers that grow far beyond that are not returned to the pool so a single
// oversized chunk does not pin memory for the rest of the process.
const (
	ChunkBufferDefaultSize  = 1024 * 128      // 128KiB
	ChunkBufferMaxThreshold = 1024 * 1024 * 4 // 4MiB
)

// ByteBuffer is a reusable byte slice wrapper handed out by GetChunkBuffer.
type ByteBuffer struct {
	// B is the underlying byte slice.
	B []byte
}

// NewByteBuffer creates a new ByteBuffer with the specified capacity.
func NewByteBuffer(defaultSize int) *ByteBuffer {
	return &ByteBuffer{
		B: make([]byte, 0, defaultSize),
	}
}

// Bytes returns the underlying byte slice.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// Reset resets the buffer to be empty, but retains the allocated memory for reuse.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// Len returns the length of the buffer.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// Cap returns the capacity of the buffer.
func (bb *ByteBuffer) Cap() int {
	return cap(bb.B)
}

// MustWrite appends data to the buffer, growing it if necessary.
func (bb *ByteBuffer) MustWrite(data []byte) {
	bb.B = append(bb.B, data...)
}

var chunkBufferPool = sync.Pool{
	New: func() any {
		return NewByteBuffer(ChunkBufferDefaultSize)
	},
}

// GetChunkBuffer obtains a reset ByteBuffer from the pool.
func GetChunkBuffer() *ByteBuffer {
	bb, _ := chunkBufferPool.Get().(*ByteBuffer)
	bb.Reset()

	return bb
}

// PutChunkBuffer returns a ByteBuffer to the pool unless it grew past the
// retention threshold.
func PutChunkBuffer(bb *ByteBuffer) {
	if bb == nil || bb.Cap() > ChunkBufferMaxThreshold {
		return
	}
	chunkBufferPool.Put(bb)
}
