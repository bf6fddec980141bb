// internal/daily/daily.go
//
// Daily challenge seeding. Every player gets the same order sequence for a
// given UTC date: the session RNG is seeded from HMAC-SHA256(salt, date).

package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

// ParseDateKey validates a YYYY-MM-DD key.
func ParseDateKey(s string) (string, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateKey(t), nil
}

// Seed derives the session seed for a date key. It is never zero, since
// zero means "pick a random seed" to the room.
func Seed(dateKey, salt string) int64 {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(dateKey))
	sum := h.Sum(nil)
	n := int64(binary.BigEndian.Uint64(sum[:8]))
	if n == 0 {
		return 1
	}
	return n
}
