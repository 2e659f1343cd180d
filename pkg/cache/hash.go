// Keys are reduced to 64-bit hashes in two places: to pick a shard in the sharded cache and to
// feed the admission doorkeeper's filter. This module builds the hash function once per cache so
// the per-key path doesn't re-dispatch on the key type.

package cache

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// keyHasher returns an xxhash-based hash function for the key type K. Common key types get a fast
// binary encoding; anything else falls back to hashing its %#v rendering, which is slower but
// works for any printable type.
func keyHasher[K comparable]() func(key K) uint64 {
	switch any(*new(K)).(type) {
	case string:
		return func(key K) uint64 {
			return xxhash.Sum64String(any(key).(string))
		}
	case int:
		return func(key K) uint64 {
			var b [8]byte
			// int's width is architecture-dependent, so widen it to a fixed size before hashing.
			binary.LittleEndian.PutUint64(b[:], uint64(any(key).(int)))
			return xxhash.Sum64(b[:])
		}
	case uint:
		return func(key K) uint64 {
			var b [8]byte
			binary.LittleEndian.PutUint64(b[:], uint64(any(key).(uint)))
			return xxhash.Sum64(b[:])
		}
	case int32:
		return func(key K) uint64 {
			var b [4]byte
			binary.LittleEndian.PutUint32(b[:], uint32(any(key).(int32)))
			return xxhash.Sum64(b[:])
		}
	case uint32:
		return func(key K) uint64 {
			var b [4]byte
			binary.LittleEndian.PutUint32(b[:], any(key).(uint32))
			return xxhash.Sum64(b[:])
		}
	case int64:
		return func(key K) uint64 {
			var b [8]byte
			binary.LittleEndian.PutUint64(b[:], uint64(any(key).(int64)))
			return xxhash.Sum64(b[:])
		}
	case uint64:
		return func(key K) uint64 {
			var b [8]byte
			binary.LittleEndian.PutUint64(b[:], any(key).(uint64))
			return xxhash.Sum64(b[:])
		}
	case bool:
		return func(key K) uint64 {
			if any(key).(bool) {
				return xxhash.Sum64([]byte{1})
			}
			return xxhash.Sum64([]byte{0})
		}
	default:
		return func(key K) uint64 {
			return xxhash.Sum64String(fmt.Sprintf("%#v", key))
		}
	}
}
