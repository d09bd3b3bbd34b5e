package dbc

// MuxRole describes a signal's part in message multiplexing.
type MuxRole uint8

const (
	// MuxNone marks an ordinary signal, present in every frame.
	MuxNone MuxRole = iota
	// MuxSelector marks the multiplexor signal whose raw value selects
	// which multiplexed signals are present.
	MuxSelector
	// MuxSelected marks a signal present only when the multiplexor's raw
	// value equals MuxValue.
	MuxSelected
)

// Signal is one named bit field within a message payload.
type Signal struct {
	Name string
	// StartBit is the DBC start bit: the LSB position for little-endian
	// (Intel) signals, the MSB position for big-endian (Motorola) signals.
	StartBit int
	// Length is the bit length, 1-64.
	Length int
	// BigEndian selects Motorola bit ordering.
	BigEndian bool
	// Signed selects two's-complement reinterpretation of the raw field.
	Signed bool
	// Scale and Offset map raw to physical: value = raw*Scale + Offset.
	Scale  float64
	Offset float64
	// Min and Max are the declared physical range (display only).
	Min float64
	Max float64
	// Unit is the physical unit string (display only).
	Unit string

	MuxRole MuxRole
	// MuxValue is the selecting multiplexor value for MuxSelected signals.
	MuxValue uint64
}

// Message is one arbitration ID's definition with its ordered signals.
type Message struct {
	ID       uint32
	Extended bool
	Name     string
	// Length is the declared payload length in bytes.
	Length  int
	Sender  string
	Signals []Signal

	muxIndex int // index of the MuxSelector signal, -1 if none
}

// Multiplexor returns the message's multiplexor signal, or nil.
func (m *Message) Multiplexor() *Signal {
	if m.muxIndex < 0 {
		return nil
	}

	return &m.Signals[m.muxIndex]
}

// Database is one parsed DBC file.
type Database struct {
	Version  string
	Nodes    []string
	Messages []Message

	byID map[uint32]*Message
}

// MessageByID looks up a message definition by arbitration ID (extended-ID
// flag stripped), or nil.
func (d *Database) MessageByID(id uint32) *Message {
	return d.byID[id]
}
