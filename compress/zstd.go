package compress

// ZstdCompressor provides Zstandard compression for the session signal cache.
//
// Zstd trades CPU for the best ratio of the available cache codecs; it suits
// sessions held open over very large files where cache residency dominates
// memory use and reads are comparatively rare.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd compressor with default settings.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
