package block

import "github.com/cespare/xxhash/v2"

// HashString returns the 32-bit hash used to address an interned string
// (root node names, map keys) in the store's INTERN_STR partition.
//
// spec.md §9 calls for "a stronger hash than the original's FNV variant ...
// is permissible"; this repo uses xxhash (pulled from cuemby-warren's
// indirect dependency set) truncated to 32 bits, trading the theoretical
// collision-space parity with the original format (this repo isn't
// required to be byte-compatible with it, only internally consistent) for
// a well-vetted, fast non-cryptographic hash.
func HashString(s string) uint32 {
	return uint32(xxhash.Sum64String(s))
}
