package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/bytedance/sonic"
)

// HashAlgorithm represents the hashing algorithm to use
type HashAlgorithm string

const (
	SHA256 HashAlgorithm = "sha256"
)

// ShortHashLength is the number of hex characters kept by Short.
const ShortHashLength = 8

// canonicalJSON sorts map keys so logically equal parameter maps
// serialize to identical bytes regardless of insertion order.
var canonicalJSON = sonic.Config{
	SortMapKeys:      true,
	EscapeHTML:       false,
	CompactMarshaler: true,
}.Froze()

// Hasher provides content fingerprints
type Hasher struct {
	algorithm HashAlgorithm
}

// NewHasher creates a new hasher with the specified algorithm
func NewHasher(algorithm HashAlgorithm) *Hasher {
	return &Hasher{
		algorithm: algorithm,
	}
}

// DefaultHasher returns a hasher with the default algorithm
func DefaultHasher() *Hasher {
	return NewHasher(SHA256)
}

// Hash computes a hex hash of the input data
func (h *Hasher) Hash(data []byte) string {
	switch h.algorithm {
	case SHA256:
		hash := sha256.Sum256(data)
		return hex.EncodeToString(hash[:])
	default:
		hash := sha256.Sum256(data)
		return hex.EncodeToString(hash[:])
	}
}

// HashString computes a hash of a string
func (h *Hasher) HashString(s string) string {
	return h.Hash([]byte(s))
}

// HashJSON computes a hash of a JSON-serializable value.
// Map keys are sorted before hashing, so the hash is order-independent.
func (h *Hasher) HashJSON(v interface{}) (string, error) {
	data, err := canonicalJSON.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return h.Hash(data), nil
}

// Fingerprint returns the short form of HashJSON(v).
func (h *Hasher) Fingerprint(v interface{}) (string, error) {
	full, err := h.HashJSON(v)
	if err != nil {
		return "", err
	}
	return Short(full), nil
}

// Short truncates a hash to ShortHashLength characters for display and keys
func Short(fullHash string) string {
	if len(fullHash) < ShortHashLength {
		return fullHash
	}
	return fullHash[:ShortHashLength]
}
