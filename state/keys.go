package state

import "encoding/binary"

// U64Key encodes a uint64 big-endian so lexicographic key order matches
// numeric order. All period-keyed maps rely on this.
func U64Key(v uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return buf[:]
}

func ParseU64Key(key []byte) uint64 {
	return binary.BigEndian.Uint64(key)
}

// prefixed joins a namespace and a key with a length prefix so distinct
// namespaces can never collide.
func prefixed(ns []byte, key []byte) []byte {
	out := make([]byte, 0, 2+len(ns)+len(key))
	out = append(out, byte(len(ns)>>8), byte(len(ns)))
	out = append(out, ns...)
	out = append(out, key...)
	return out
}

// prefixEnd returns the exclusive upper bound covering every key that starts
// with prefix, or nil if no such bound exists.
func prefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
