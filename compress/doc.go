// Package compress provides the compression codecs used by blfview.
//
// Two concerns share this package:
//
//   - Container decompression: BLF LOG_CONTAINER objects carry their payload
//     zlib-compressed (method 2) or raw (method 0). The blf reader obtains
//     the matching codec through GetCodec.
//
//   - Session cache compression: the session's per-signal columnar sample
//     cache keeps decoded data compressed between queries to stay inside the
//     memory budget. S2 is the default (fast, reasonable ratio); LZ4 and
//     Zstd are selectable, None disables cache compression entirely.
//
// All codecs implement the Codec interface and are safe for concurrent use.
package compress
