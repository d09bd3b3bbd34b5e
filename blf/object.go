package blf

import (
	"github.com/canlab/blfview/endian"
	"github.com/canlab/blfview/errs"
)

// ObjectSignature is the magic at the start of every object record.
const ObjectSignature = "LOBJ"

// Object type tags. Only the frame-carrying types and LOG_CONTAINER are
// interpreted; everything else is skipped by its declared size.
const (
	TypeCANMessage     uint32 = 1   // classic CAN frame
	TypeCANError       uint32 = 2   // bus error event
	TypeLogContainer   uint32 = 10  // compressed chunk of inner objects
	TypeAppText        uint32 = 65  // informational text object
	TypeCANMessage2    uint32 = 86  // classic CAN frame with frame-length info
	TypeCANFDMessage   uint32 = 100 // CAN FD frame
	TypeCANFDMessage64 uint32 = 101 // CAN FD frame, revised layout (skipped)
)

// Object header layout.
const (
	baseHeaderSize = 16 // signature + header size/version + object size + type
	v1HeaderSize   = 32 // base header + flags/client/version/timestamp
)

// LOG_CONTAINER compression methods.
const (
	containerNoCompression   uint16 = 0
	containerZlibCompression uint16 = 2

	containerHeaderSize = 32 // base header + method/reserved/uncompressed size
)

// Object timestamp flag bits (objectFlags word of the v1 header).
const (
	flagTimestampTenMicros uint32 = 0x1
	flagTimestampNanos     uint32 = 0x2
)

// CAN message flag bits.
const (
	msgFlagTX     uint8 = 0x01
	msgFlagRemote uint8 = 0x80

	// Arbitration ID bit 31 marks an extended (29-bit) identifier.
	idExtendedBit uint32 = 0x80000000
)

// CAN FD flag bits (canFdFlags byte of CAN_FD_MESSAGE).
const (
	fdFlagEDL uint8 = 0x01 // extended data length: frame is CAN FD
)

// objectHeader is the 16-byte base header shared by all object records.
type objectHeader struct {
	HeaderSize    uint16
	HeaderVersion uint16
	ObjectSize    uint32
	ObjectType    uint32
}

// parseObjectHeader parses the base header at the start of data, which must
// hold at least baseHeaderSize bytes.
func parseObjectHeader(data []byte, engine endian.EndianEngine) (objectHeader, error) {
	var h objectHeader

	if string(data[0:4]) != ObjectSignature {
		return h, errs.ErrInvalidObjectSignature
	}

	h.HeaderSize = engine.Uint16(data[4:6])
	h.HeaderVersion = engine.Uint16(data[6:8])
	h.ObjectSize = engine.Uint32(data[8:12])
	h.ObjectType = engine.Uint32(data[12:16])

	if h.ObjectSize < baseHeaderSize || uint32(h.HeaderSize) > h.ObjectSize {
		return h, errs.ErrInvalidObjectSize
	}

	return h, nil
}

// objectPadding returns the number of alignment bytes following an object of
// the given size. Objects are aligned to 4-byte boundaries.
func objectPadding(objectSize uint32) int {
	return int((4 - objectSize%4) % 4)
}

// dlcToLength maps a CAN FD DLC code to its payload length in bytes.
var dlcToLength = [16]int{0, 1, 2, 3, 4, 5, 6, 7, 8, 12, 16, 20, 24, 32, 48, 64}
