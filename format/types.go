package format

type (
	CompressionType uint8
	TimestampUnit   uint8
)

const (
	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZlib CompressionType = 0x2 // CompressionZlib represents zlib (DEFLATE) compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
	CompressionZstd CompressionType = 0x5 // CompressionZstd represents Zstandard compression.
)

const (
	// UnitAuto selects the timestamp unit from each object's flag word.
	UnitAuto TimestampUnit = 0x0
	// UnitTenMicros interprets object timestamps as multiples of 10 microseconds.
	UnitTenMicros TimestampUnit = 0x1
	// UnitNanos interprets object timestamps as nanoseconds.
	UnitNanos TimestampUnit = 0x2
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZlib:
		return "Zlib"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	case CompressionZstd:
		return "Zstd"
	default:
		return "Unknown"
	}
}

func (u TimestampUnit) String() string {
	switch u {
	case UnitAuto:
		return "Auto"
	case UnitTenMicros:
		return "10us"
	case UnitNanos:
		return "1ns"
	default:
		return "Unknown"
	}
}
