// Package daily derives the deterministic generator seed for the daily round:
// every player starting a daily round on the same UTC date sees the same
// sequence of targets for the same sequence of matches.
package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"time"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Seed returns HMAC(salt, YYYY-MM-DD) folded to a uint64.
func Seed(date time.Time, salt string) uint64 {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date)))
	sum := h.Sum(nil)
	// first 8 bytes are enough entropy for a PCG seed
	return binary.BigEndian.Uint64(sum[:8])
}
