package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Keyer derives deterministic store keys from a call's name and input.
//
// Contract:
//   - Determinism: equal inputs must yield equal keys.
//   - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	Key(name string, input any) (string, error)
}

// HashKeyer derives keys of the form cache:<name>:<hash>, where hash is
// the first 8 bytes of SHA-256 over the JSON encoding of the input.
// encoding/json writes map keys in sorted order, so equal maps always
// hash the same.
type HashKeyer struct{}

// NewHashKeyer creates a HashKeyer.
func NewHashKeyer() *HashKeyer {
	return &HashKeyer{}
}

// Key derives the store key for the given call input.
func (k *HashKeyer) Key(name string, input any) (string, error) {
	encoded, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("cache: encoding input: %w", err)
	}
	hash := sha256.Sum256(encoded)
	return fmt.Sprintf("cache:%s:%s", name, hex.EncodeToString(hash[:8])), nil
}

var _ Keyer = (*HashKeyer)(nil)
