package tool

import (
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"
)

func GenerateUUIDV7() string {
	return uuid.Must(uuid.NewV7()).String()
}

const tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const tokenLength = 16

// GenerateToken returns prefix followed by 16 cryptographically random
// alphanumeric characters, e.g. "pay_Ab3xK9qRt2LmPzW0". Entity identifiers
// must not be guessable since they appear in public checkout URLs.
func GenerateToken(prefix string) string {
	b := make([]byte, tokenLength)
	max := big.NewInt(int64(len(tokenAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the platform source is broken
			panic(err)
		}
		b[i] = tokenAlphabet[n.Int64()]
	}
	return prefix + string(b)
}
