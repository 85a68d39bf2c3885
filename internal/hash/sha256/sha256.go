// Package sha256 names archived listing pages by content.
package sha256

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
)

// Hasher implements event.Hasher using SHA-256.
type Hasher struct{}

// New returns a SHA-256 hasher.
func New() *Hasher {
	return &Hasher{}
}

// Hash returns the hex digest of data with whitespace runs collapsed to a
// single space and leading and trailing whitespace dropped. Re-fetches of a
// listing that differ only in markup indentation share one archive object.
func (h *Hasher) Hash(data []byte) (string, error) {
	sum := sha256.New()
	for i, field := range bytes.Fields(data) {
		if i > 0 {
			sum.Write([]byte{' '})
		}
		sum.Write(field)
	}
	return hex.EncodeToString(sum.Sum(nil)), nil
}
