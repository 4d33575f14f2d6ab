package code

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Numeric generates a zero-padded numeric code of n digits using crypto/rand.
func Numeric(n int) (string, error) {
	max := big.NewInt(1)
	for i := 0; i < n; i++ {
		max.Mul(max, big.NewInt(10))
	}
	v, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", n, v), nil
}
