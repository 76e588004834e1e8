package utils

import (
	"crypto/rand"
	"math/big"
	"time"
)

// GenerateAuthCode creates a uniformly random numeric code with the given
// length. Leading zeros are preserved.
func GenerateAuthCode(n int) string {
	if n <= 0 {
		n = 6
	}
	digits := make([]byte, n)
	for i := 0; i < n; i++ {
		// crypto/rand for better unpredictability
		v, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			// fallback to time based modulo if crypto fails
			v = big.NewInt(time.Now().UnixNano() % 10)
		}
		digits[i] = byte('0' + v.Int64())
	}
	return string(digits)
}
