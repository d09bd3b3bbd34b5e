// Package decode turns raw CAN frames into physical signal samples using a
// channel-resolved catalog.
//
// Extraction follows the DBC bit conventions: Intel (little-endian) signals
// count bits LSB-first from the start bit, Motorola (big-endian) signals
// treat the start bit as the MSB and descend through the sawtooth bit order.
// Raw values are sign-extended when the signal is declared signed, then
// scaled as physical = raw*scale + offset.
package decode

import (
	"github.com/canlab/blfview/blf"
	"github.com/canlab/blfview/dbc"
)

// Sample is one decoded signal value at a point in time. Signal carries the
// channel-tagged name and ID its xxHash64, matching the catalog binding.
type Sample struct {
	Signal      string
	ID          uint64
	TimestampNs uint64
	Value       float64
	Unit        string
}

// DecodedFrame pairs a frame with whatever the catalog could make of it.
// Name is empty and Samples nil for frames on raw channels, unknown IDs,
// and remote frames.
type DecodedFrame struct {
	Frame   blf.Frame
	Name    string
	Samples []Sample
}

// Decoder decodes frames against a fixed catalog. It holds no mutable state
// and is safe for concurrent use.
type Decoder struct {
	catalog *dbc.Catalog
}

// NewDecoder creates a decoder over the given catalog.
func NewDecoder(catalog *dbc.Catalog) *Decoder {
	return &Decoder{catalog: catalog}
}

// Decode extracts all defined signals from one frame.
func (d *Decoder) Decode(frame blf.Frame) []Sample {
	return d.DecodeFrame(frame).Samples
}

// DecodeFrame extracts all defined signals from one frame, keeping the
// frame and its message name alongside the samples. Signals whose bit field
// exceeds the actual payload are skipped, as are multiplexed signals whose
// selector value does not match.
func (d *Decoder) DecodeFrame(frame blf.Frame) DecodedFrame {
	out := DecodedFrame{Frame: frame}

	if frame.Remote {
		return out
	}
	mb := d.catalog.Lookup(frame.Channel, frame.ID)
	if mb == nil {
		return out
	}
	out.Name = mb.Message.Name

	// the selector is extracted first so selected signals can be filtered
	muxValue := uint64(0)
	muxKnown := false
	if mux := mb.Message.Multiplexor(); mux != nil {
		if raw, ok := extractRaw(frame.Data, mux.StartBit, mux.Length, mux.BigEndian); ok {
			muxValue = raw
			muxKnown = true
		}
	}

	out.Samples = make([]Sample, 0, len(mb.Signals))
	for i := range mb.Signals {
		binding := &mb.Signals[i]
		sig := binding.Signal

		if sig.MuxRole == dbc.MuxSelected && (!muxKnown || sig.MuxValue != muxValue) {
			continue
		}

		raw, ok := extractRaw(frame.Data, sig.StartBit, sig.Length, sig.BigEndian)
		if !ok {
			continue
		}

		value := float64(raw)
		if sig.Signed {
			value = float64(int64(raw<<(64-sig.Length)) >> (64 - sig.Length))
		}
		value = value*sig.Scale + sig.Offset

		out.Samples = append(out.Samples, Sample{
			Signal:      binding.Name,
			ID:          binding.ID,
			TimestampNs: frame.TimestampNs,
			Value:       value,
			Unit:        binding.Unit,
		})
	}

	return out
}

// extractRaw pulls an unsigned bit field out of a payload. ok is false when
// the field does not fit the payload, which happens when a frame carries
// fewer bytes than its DBC definition declares.
func extractRaw(data []byte, start, length int, bigEndian bool) (raw uint64, ok bool) {
	if bigEndian {
		return extractBig(data, start, length)
	}

	return extractLittle(data, start, length)
}

func extractLittle(data []byte, start, length int) (uint64, bool) {
	if start+length > len(data)*8 {
		return 0, false
	}

	var raw uint64
	for i := 0; i < length; i++ {
		bit := start + i
		raw |= uint64(data[bit/8]>>(bit%8)&1) << i
	}

	return raw, true
}

// extractBig walks the Motorola sawtooth: within a byte bit numbers descend
// toward bit 0, then continue at bit 7 of the next byte.
func extractBig(data []byte, start, length int) (uint64, bool) {
	pos := start
	var raw uint64
	for i := 0; i < length; i++ {
		if pos/8 >= len(data) {
			return 0, false
		}
		raw = raw<<1 | uint64(data[pos/8]>>(pos%8)&1)
		if pos%8 == 0 {
			pos += 15
		} else {
			pos--
		}
	}

	return raw, true
}
