package blf

import (
	"github.com/canlab/blfview/endian"
	"github.com/canlab/blfview/errs"
)

// FileSignature is the magic at the start of every BLF file.
const FileSignature = "LOGG"

// fileHeaderMinSize is the number of bytes the fixed header fields occupy.
// The declared header size (typically 144) may be larger; the remainder is
// reserved and skipped.
const fileHeaderMinSize = 72

// FileHeader is the fixed-size header at the start of a BLF file.
type FileHeader struct {
	// HeaderSize is the declared size of the whole file header in bytes.
	HeaderSize uint32 // byte offset 4-7
	// Application identifies the writing application (CANoe, CANalyzer, ...).
	Application uint8 // byte offset 8
	// AppMajor, AppMinor, AppBuild are the writing application's version.
	AppMajor uint8 // byte offset 9
	AppMinor uint8 // byte offset 10
	AppBuild uint8 // byte offset 11
	// FileSize is the size of the file in bytes as declared by the writer.
	FileSize uint64 // byte offset 16-23
	// UncompressedSize is the total size after container decompression.
	UncompressedSize uint64 // byte offset 24-31
	// ObjectCount is the number of objects declared by the writer. Zero in
	// files cut short before the header was finalized.
	ObjectCount uint32 // byte offset 32-35
}

// Parse parses the file header from the start of data.
//
// Returns:
//   - error: errs.ErrInvalidSignature if the magic is wrong,
//     errs.ErrHeaderTooShort if data is smaller than the declared header
func (h *FileHeader) Parse(data []byte) error {
	if len(data) < fileHeaderMinSize {
		return errs.ErrHeaderTooShort
	}
	if string(data[0:4]) != FileSignature {
		return errs.ErrInvalidSignature
	}

	engine := endian.GetLittleEndianEngine()

	h.HeaderSize = engine.Uint32(data[4:8])
	h.Application = data[8]
	h.AppMajor = data[9]
	h.AppMinor = data[10]
	h.AppBuild = data[11]
	// bytes 12-15: binary log API version, not needed for decoding
	h.FileSize = engine.Uint64(data[16:24])
	h.UncompressedSize = engine.Uint64(data[24:32])
	h.ObjectCount = engine.Uint32(data[32:36])
	// bytes 36-39: count of objects read; 40-71: measurement start/end
	// SYSTEMTIME records. Neither affects frame decoding.

	if h.HeaderSize < fileHeaderMinSize {
		return errs.ErrHeaderTooShort
	}
	if uint64(len(data)) < uint64(h.HeaderSize) {
		return errs.ErrHeaderTooShort
	}

	return nil
}
