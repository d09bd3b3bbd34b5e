// Package blf reads Vector Binary Logging Format (BLF) capture files.
//
// A BLF file is a chunked binary container: a fixed file header ("LOGG")
// followed by a sequence of length-prefixed objects ("LOBJ"). Recorded bus
// traffic is normally wrapped in LOG_CONTAINER objects whose bodies are
// zlib-compressed; the objects inside a container may span container
// boundaries, so the reader carries partial object bytes from one
// decompressed chunk into the next.
//
// The reader is an explicit cursor, not an in-memory collection: each call
// to Next decodes at most one frame-carrying object and holds at most one
// decompressed chunk plus the carry-over bytes, keeping peak memory
// independent of file size.
//
//	r, err := blf.NewReader(data)
//	if err != nil { ... }
//	for frame, err := range r.All() {
//	    if err != nil { ... }
//	    // frame.Channel, frame.ID, frame.TimestampNs, frame.Data
//	}
//
// Unknown object types are skipped using their declared size, so files
// written by newer tooling remain readable. A truncated final object stops
// the walk cleanly instead of failing it; Truncated reports whether that
// happened and Frames how many complete frames were recovered.
package blf
