package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

const recordIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func GenerateCode(n int) (string, error) {
	// Make a slice of n random bytes.
	byt := make([]byte, n)

	// Read into the slice.
	if _, err := rand.Read(byt); err != nil {
		return "", err
	}

	// Return the hexadecimal string.
	return strings.ToUpper(hex.EncodeToString(byt)), nil
}

// NewRecordID returns a 15 character id matching the store's default
// record id shape, for rows inserted with raw SQL.
func NewRecordID() (string, error) {
	byt := make([]byte, 15)
	if _, err := rand.Read(byt); err != nil {
		return "", err
	}

	for i := range byt {
		byt[i] = recordIDAlphabet[int(byt[i])%len(recordIDAlphabet)]
	}
	return string(byt), nil
}

// NewPaymentReference returns a gateway payment reference. References are
// the idempotency key for sale confirmation, so collisions must be
// practically impossible.
func NewPaymentReference() (string, error) {
	code, err := GenerateCode(8)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("TIX-%s", code), nil
}
