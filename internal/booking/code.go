package booking

import (
	"crypto/rand"
)

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// newBookingCode returns a short human-facing booking reference. The alphabet
// skips easily-confused characters (0/O, 1/I).
func newBookingCode() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	out := make([]byte, len(b))
	for i, v := range b {
		out[i] = codeAlphabet[int(v)%len(codeAlphabet)]
	}
	return "BK-" + string(out)
}
