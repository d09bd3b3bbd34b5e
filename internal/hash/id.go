package hash

import "github.com/cespare/xxhash/v2"

// ID computes the xxHash64 of the given signal name.
//
// Channel-tagged signal names ("CAN1.EngineSpeed") are identified by this
// 64-bit hash throughout the catalog, the session cache and the decimation
// accumulators, so hot paths key maps on a fixed-size integer instead of a
// string.
func ID(name string) uint64 {
	return xxhash.Sum64String(name)
}
