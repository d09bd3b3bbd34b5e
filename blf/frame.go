package blf

// Frame is one recorded bus message.
//
// Frames are immutable once produced by the Reader; Data is an owned copy,
// never a view into the reader's chunk buffers.
type Frame struct {
	// TimestampNs is the time of the frame in nanoseconds relative to the
	// measurement start, normalized from whichever unit the object declared.
	TimestampNs uint64
	// Channel is the logical bus the frame was recorded on (1-based).
	Channel uint16
	// ID is the arbitration identifier with the extended-ID flag stripped.
	ID uint32
	// Extended reports a 29-bit identifier.
	Extended bool
	// Remote reports a remote (RTR) frame; remote frames carry no payload.
	Remote bool
	// TX reports a transmitted (rather than received) frame.
	TX bool
	// FD reports a CAN FD frame.
	FD bool
	// DLC is the raw data length code from the wire.
	DLC uint8
	// Data is the frame payload, 0-64 bytes.
	Data []byte
}

// TimestampSeconds returns the frame time as seconds relative to the
// measurement start.
func (f Frame) TimestampSeconds() float64 {
	return float64(f.TimestampNs) / 1e9
}
