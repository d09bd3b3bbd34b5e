package compress

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zlib"
)

// ZlibCompressor provides zlib (RFC 1950 DEFLATE) compression.
//
// This is the on-disk compression of BLF LOG_CONTAINER objects (compression
// method 2), so the decompression path must interoperate bit-exactly with
// external capture tooling. The compression path exists for the test fixture
// builder and for callers that want zlib cache blocks.
type ZlibCompressor struct{}

var _ Codec = (*ZlibCompressor)(nil)

// NewZlibCompressor creates a new zlib compressor with default settings.
func NewZlibCompressor() ZlibCompressor {
	return ZlibCompressor{}
}

// zlibReaderPool pools zlib readers for reuse; klauspost's zlib.Reader
// supports Reset, so a warmed-up reader avoids per-chunk allocations when
// walking files with thousands of containers.
var zlibReaderPool = sync.Pool{
	New: func() any { return nil },
}

// Compress compresses the input data at the default compression level.
func (c ZlibCompressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("zlib compression failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("zlib compression failed: %w", err)
	}

	return buf.Bytes(), nil
}

// Decompress decompresses zlib-compressed data.
func (c ZlibCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var r io.ReadCloser
	if pooled := zlibReaderPool.Get(); pooled != nil {
		r = pooled.(io.ReadCloser)
		if err := r.(zlib.Resetter).Reset(bytes.NewReader(data), nil); err != nil {
			return nil, fmt.Errorf("zlib decompression failed: %w", err)
		}
	} else {
		var err error
		r, err = zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("zlib decompression failed: %w", err)
		}
	}
	defer zlibReaderPool.Put(r)

	decompressed, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("zlib decompression failed: %w", err)
	}

	return decompressed, nil
}
