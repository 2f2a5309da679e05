// Package generator implements the Deterministic Value Generator (§4.A): a
// pure, total function from (dataType, original, effectiveSeed,
// preserveLength) to a format-plausible synthetic value, with no I/O and no
// shared mutable state — any caching of its outputs lives one layer up in
// internal/cache.
package generator

import (
	"crypto/sha256"
	"encoding/binary"
	"strings"
)

// stableHash derives a deterministic 64-bit state from s. It must be
// byte-portable across machines, processes, and Go versions — not a
// host-specific string hash — so it is built on crypto/sha256 rather than a
// faster but non-portable hash like maphash or fnv with a random seed.
func stableHash(s string) uint64 {
	sum := sha256.Sum256([]byte(s))
	return binary.BigEndian.Uint64(sum[:8])
}

// rehash advances a state deterministically, used by the retry loop in
// Generate (§4.A: "retries up to 16 times with s := stableHash(s)").
func rehash(s uint64) uint64 {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], s)
	sum := sha256.Sum256(buf[:])
	return binary.BigEndian.Uint64(sum[:8])
}

// subSeed derives an independent sub-state from s for composite values whose
// parts must vary independently (e.g. FullName's first and last name), per
// §4.A: "each side derived from disjoint sub-seeds of s".
func subSeed(s uint64, part string) uint64 {
	return stableHash(part + ":" + uint64ToHex(s))
}

func uint64ToHex(v uint64) string {
	const hexDigits = "0123456789abcdef"
	buf := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		buf[i] = hexDigits[v&0xf]
		v >>= 4
	}
	return string(buf)
}

// normalize applies the case-insensitive / whitespace-insensitive folding
// §4.A requires before hashing: lowercase for case-insensitive base types,
// trim surrounding whitespace always.
func normalize(baseType, original string) string {
	original = strings.TrimSpace(original)
	switch baseType {
	case "Email", "UKPostcode":
		return strings.ToLower(original)
	default:
		return original
	}
}

// Normalize exports normalize's folding rules for callers outside this
// package that need to compare two original values the same way Generate
// does before hashing them — namely the Referential Integrity Resolver's
// (§4.H) "original values compare equal under normalization" check.
func Normalize(baseType, original string) string {
	return normalize(baseType, original)
}
