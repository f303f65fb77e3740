// Package hash implements the credential digest used for stored passwords.
//
// The digest is a plain, unsalted SHA-256 hex string with no work factor.
// That matches the existing data contract (documents written by older
// deployments must keep verifying), but it is NOT a safe password-storage
// scheme for new systems.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the lowercase hex SHA-256 digest of the given secret.
// Equal inputs always produce equal output.
func Sum(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
