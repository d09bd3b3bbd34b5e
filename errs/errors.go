// Package errs defines the sentinel errors shared across blfview packages.
//
// Callers should test error identity with errors.Is; most errors are
// returned wrapped with additional context via fmt.Errorf("...: %w", err).
package errs

import "errors"

// Container errors (blf package).
var (
	// ErrInvalidSignature indicates the buffer does not start with the BLF "LOGG" signature.
	ErrInvalidSignature = errors.New("invalid BLF file signature")
	// ErrHeaderTooShort indicates the buffer is smaller than the declared file header.
	ErrHeaderTooShort = errors.New("BLF file header too short")
	// ErrInvalidObjectSignature indicates an object record does not start with "LOBJ".
	ErrInvalidObjectSignature = errors.New("invalid BLF object signature")
	// ErrInvalidObjectSize indicates an object declares a size smaller than its own header.
	ErrInvalidObjectSize = errors.New("invalid BLF object size")
	// ErrUnsupportedCompression indicates a log container uses an unknown compression method.
	ErrUnsupportedCompression = errors.New("unsupported log container compression method")
)

// Database errors (dbc package).
var (
	// ErrDBCSyntax indicates malformed DBC text; wrapped by dbc.ParseError
	// which carries the line number and reason.
	ErrDBCSyntax = errors.New("DBC syntax error")
	// ErrSignalOutOfRange indicates a signal's bit range exceeds its message's declared length.
	ErrSignalOutOfRange = errors.New("signal bit range exceeds message length")
	// ErrUnresolvedChannel indicates the channel map references a DBC index out of range.
	ErrUnresolvedChannel = errors.New("channel map references unknown DBC index")
	// ErrHashCollision indicates two distinct signal names hash to the same 64-bit ID.
	ErrHashCollision = errors.New("signal name hash collision")
)

// Session and pipeline errors.
var (
	// ErrEmptySelection indicates an export or decimation was requested with zero signals.
	ErrEmptySelection = errors.New("no signals selected")
	// ErrCancelled indicates a streaming operation was stopped by its progress callback.
	ErrCancelled = errors.New("operation cancelled by progress callback")
	// ErrInvalidMaxPoints indicates a decimation was requested with a point budget below two.
	ErrInvalidMaxPoints = errors.New("max points must be at least 2")
)
