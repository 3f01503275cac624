package datastore

import (
	"crypto/sha256"
	"encoding/hex"
)

// URLHashGenerator derives short stable identifiers for asset URLs.
type URLHashGenerator struct {
	hashLength int
}

// NewURLHashGenerator creates a generator producing hashLength hex digits.
func NewURLHashGenerator(hashLength int) *URLHashGenerator {
	if hashLength <= 0 || hashLength > sha256.Size*2 {
		hashLength = 16
	}
	return &URLHashGenerator{hashLength: hashLength}
}

// GenerateHash returns the truncated hex SHA-256 of rawURL.
func (uhg *URLHashGenerator) GenerateHash(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return hex.EncodeToString(sum[:])[:uhg.hashLength]
}
