package spatial

import (
	"hash/fnv"
)

// luckModulus is the Mersenne prime 2^31-1
const luckModulus = 1<<31 - 1

// Luck returns a deterministic value in [0,1) for the key.
// It depends on nothing but the bytes of the key, so the same key gives
// the same value in every process on every platform.
func Luck(key string) float64 {
	h := fnv.New64a()
	h.Write([]byte(key))
	return float64(mix64(h.Sum64())%luckModulus) / luckModulus
}

// mix64 is the murmur3 finalizer. FNV alone barely changes for keys
// differing in the last digit, which made whole rows of cells spawn.
func mix64(x uint64) uint64 {
	x ^= x >> 33
	x *= 0xff51afd7ed558ccd
	x ^= x >> 33
	x *= 0xc4ceb9fe1a85ec53
	x ^= x >> 33
	return x
}
