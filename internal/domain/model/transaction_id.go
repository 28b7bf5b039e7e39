package model

import (
	"crypto/rand"
	"fmt"
	"time"
)

const suffixAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewTransactionID builds a human-readable transaction reference of the form
// HOA_20240115_143052_8XK2. The timestamp keeps ids monotonically
// informative; the random suffix keeps same-second ids apart.
func NewTransactionID(now time.Time) string {
	return fmt.Sprintf("HOA_%s_%s", now.UTC().Format("20060102_150405"), randomSuffix(4))
}

func randomSuffix(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing is effectively unreachable; fall back to a
		// time-derived suffix rather than panic in the payment path.
		nano := time.Now().UnixNano()
		for i := range buf {
			buf[i] = suffixAlphabet[int(nano>>uint(i*6))%len(suffixAlphabet)]
		}
		return string(buf)
	}
	for i := range buf {
		buf[i] = suffixAlphabet[int(buf[i])%len(suffixAlphabet)]
	}
	return string(buf)
}
