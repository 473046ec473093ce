package dysession

import (
	"crypto/rand"
	"fmt"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
)

// 32 bytes = 256 bits of entropy
const keyEntropy = 32

// KeyGenerator returns a new candidate session key
type KeyGenerator func() (string, error)

// RandomKey generates a base58 encoded session key from a cryptographically secure source
func RandomKey() (string, error) {
	b := make([]byte, keyEntropy)

	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate session key: %w", err)
	}

	return base58.Encode(b), nil
}

// UUIDKey generates a random (version 4) UUID session key
func UUIDKey() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate session key: %w", err)
	}

	return id.String(), nil
}
