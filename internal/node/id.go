package node

import (
	"crypto/rand"
	"encoding/binary"
	"sync"
	"time"
)

// Node IDs are ULIDs: a 48-bit millisecond timestamp followed by 80 bits of
// randomness, Crockford Base32 encoded to 26 characters, so later IDs sort
// later.

const (
	idLen    = 26
	alphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"
)

var gen struct {
	sync.Mutex
	ms  uint64
	seq uint16
}

// NewID generates a new node ID.
func NewID() string {
	gen.Lock()
	defer gen.Unlock()

	ms := uint64(time.Now().UnixMilli())
	if ms == gen.ms {
		gen.seq++
	} else {
		gen.ms = ms
		gen.seq = 0
	}

	var b [16]byte
	binary.BigEndian.PutUint64(b[:8], ms<<16)
	rand.Read(b[6:])
	// The first two random bytes hold a counter so IDs minted within the
	// same millisecond still sort in generation order.
	binary.BigEndian.PutUint16(b[6:8], gen.seq)

	return encode(b)
}

// encode maps 128 bits onto 26 Base32 characters (130 bits, the leading two
// are zero), least significant group last.
func encode(b [16]byte) string {
	var out [idLen]byte
	for i := 0; i < idLen; i++ {
		out[idLen-1-i] = alphabet[fiveBits(b, i*5)]
	}
	return string(out[:])
}

// fiveBits reads the 5-bit group starting shift bits from the least
// significant end of b.
func fiveBits(b [16]byte, shift int) byte {
	idx := 15 - shift/8
	v := uint16(b[idx]) >> (shift % 8)
	if idx > 0 {
		v |= uint16(b[idx-1]) << (8 - shift%8)
	}
	return byte(v & 31)
}
