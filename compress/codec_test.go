package compress

import (
	"bytes"
	"testing"

	"github.com/canlab/blfview/format"
	"github.com/stretchr/testify/require"
)

func roundTripCodecs(t *testing.T) map[format.CompressionType]Codec {
	t.Helper()

	return map[format.CompressionType]Codec{
		format.CompressionNone: NewNoOpCompressor(),
		format.CompressionZlib: NewZlibCompressor(),
		format.CompressionS2:   NewS2Compressor(),
		format.CompressionLZ4:  NewLZ4Compressor(),
		format.CompressionZstd: NewZstdCompressor(),
	}
}

func TestCodecs_RoundTrip(t *testing.T) {
	// Repetitive payload resembling a decompressed container chunk: many
	// similar fixed-size records.
	record := []byte{0x4C, 0x4F, 0x42, 0x4A, 0x20, 0x00, 0x01, 0x00, 0x30, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00}
	payload := bytes.Repeat(record, 512)

	for typ, codec := range roundTripCodecs(t) {
		t.Run(typ.String(), func(t *testing.T) {
			compressed, err := codec.Compress(payload)
			require.NoError(t, err)

			decompressed, err := codec.Decompress(compressed)
			require.NoError(t, err)
			require.Equal(t, payload, decompressed)
		})
	}
}

func TestCodecs_RoundTripEmpty(t *testing.T) {
	for typ, codec := range roundTripCodecs(t) {
		t.Run(typ.String(), func(t *testing.T) {
			compressed, err := codec.Compress(nil)
			require.NoError(t, err)

			decompressed, err := codec.Decompress(compressed)
			require.NoError(t, err)
			require.Empty(t, decompressed)
		})
	}
}

func TestCodecs_CompressionShrinksRepetitiveData(t *testing.T) {
	payload := bytes.Repeat([]byte("CAN1.EngineSpeed,CAN1.EngineRPM,"), 1024)

	for _, typ := range []format.CompressionType{format.CompressionZlib, format.CompressionS2, format.CompressionLZ4, format.CompressionZstd} {
		codec, err := GetCodec(typ)
		require.NoError(t, err)

		compressed, err := codec.Compress(payload)
		require.NoError(t, err)
		require.Less(t, len(compressed), len(payload), "%s should shrink repetitive data", typ)
	}
}

func TestZlib_DecompressCorruptData(t *testing.T) {
	codec := NewZlibCompressor()

	_, err := codec.Decompress([]byte{0xde, 0xad, 0xbe, 0xef, 0x00, 0x01})
	require.Error(t, err)
}

func TestZlib_DecompressReusesPooledReader(t *testing.T) {
	codec := NewZlibCompressor()
	payload := bytes.Repeat([]byte{0xAA, 0x55}, 256)

	compressed, err := codec.Compress(payload)
	require.NoError(t, err)

	// Exercise the Reset path: repeated decompressions share pooled readers.
	for i := 0; i < 8; i++ {
		out, err := codec.Decompress(compressed)
		require.NoError(t, err)
		require.Equal(t, payload, out)
	}
}

func TestGetCodec_KnownTypes(t *testing.T) {
	for _, typ := range []format.CompressionType{
		format.CompressionNone,
		format.CompressionZlib,
		format.CompressionS2,
		format.CompressionLZ4,
		format.CompressionZstd,
	} {
		codec, err := GetCodec(typ)
		require.NoError(t, err)
		require.NotNil(t, codec)
	}
}

func TestGetCodec_UnknownType(t *testing.T) {
	_, err := GetCodec(format.CompressionType(0xFF))
	require.Error(t, err)
}

func TestCreateCodec_UnknownType(t *testing.T) {
	_, err := CreateCodec(format.CompressionType(0xFF), "cache")
	require.Error(t, err)
	require.Contains(t, err.Error(), "cache")
}
