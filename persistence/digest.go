package persistence

import (
	"crypto/sha256"
	"fmt"
)

// Card blocks carry SHA-256 digests in the catalog. Unlike a CRC this also
// guards against truncated or transposed blocks when files are moved between
// archives; the format inherits the choice from OPAT v1.

// Digest computes the SHA-256 digest of a stored card block.
func Digest(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// VerifyDigest checks a stored card block against its catalog digest.
func VerifyDigest(data []byte, want [32]byte) error {
	got := sha256.Sum256(data)
	if got != want {
		return fmt.Errorf("%w: card digest mismatch (got %x, want %x)", ErrCorrupt, got[:4], want[:4])
	}
	return nil
}
