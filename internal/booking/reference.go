package booking

import (
	"crypto/rand"
	"strconv"
	"strings"
	"time"
)

const referencePrefix = "SEL"

const referenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewReferenceNumber builds a human-readable booking reference:
// "SEL-" + uppercased base36 of the submission instant in milliseconds,
// plus two random characters. The random tail plus the unique constraint
// on reference_number covers sub-millisecond collisions between
// concurrent submissions.
func NewReferenceNumber(now time.Time) string {
	ts := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))

	var buf [2]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand failing is effectively fatal elsewhere; fall back
		// to the bare timestamp rather than aborting a booking.
		return referencePrefix + "-" + ts
	}
	suffix := []byte{
		referenceAlphabet[int(buf[0])%len(referenceAlphabet)],
		referenceAlphabet[int(buf[1])%len(referenceAlphabet)],
	}
	return referencePrefix + "-" + ts + string(suffix)
}
