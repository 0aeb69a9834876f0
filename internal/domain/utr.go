package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// NewUTR generates a unique transaction reference: "UTR" followed by twelve
// digits, matching the format printed on customer receipts.
func NewUTR() string {
	max := big.NewInt(900_000_000_000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		// crypto/rand only fails when the OS entropy source is broken.
		panic(fmt.Sprintf("utr generation: %v", err))
	}
	return fmt.Sprintf("UTR%012d", n.Int64()+100_000_000_000)
}
