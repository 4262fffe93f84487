package random

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

// CharsetUpperAlphaNum is the alphabet for order codes.
const CharsetUpperAlphaNum = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Hex returns n cryptographically random bytes, hex encoded (2n characters).
func Hex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// String generates a random string of length n from charset.
func String(n int, charset string) (string, error) {
	if n <= 0 {
		return "", nil
	}
	if charset == "" {
		charset = CharsetUpperAlphaNum
	}

	out := make([]byte, n)
	max := big.NewInt(int64(len(charset)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate random index: %w", err)
		}
		out[i] = charset[idx.Int64()]
	}
	return string(out), nil
}

// UpperAlphaNum generates a random uppercase alphanumeric string.
// Used for human-facing order codes.
func UpperAlphaNum(n int) (string, error) {
	return String(n, CharsetUpperAlphaNum)
}
