package common

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// WipeByteArray overwrites b with zeros. Used for passwords read from the
// terminal once they have been sent. Nil is a no-op.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// RandomDigits returns a string of n random decimal digits read from
// crypto/rand.
func RandomDigits(n int) (string, error) {
	var sb strings.Builder
	sb.Grow(n)
	ten := big.NewInt(10)
	for i := 0; i < n; i++ {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		sb.WriteByte(byte('0' + d.Int64()))
	}
	return sb.String(), nil
}
