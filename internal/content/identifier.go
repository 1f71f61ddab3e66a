package content

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// keyScheme is the leading segment of every storage key.
const keyScheme = "sha256"

// ErrInvalidKey is returned when a storage key cannot be parsed.
var ErrInvalidKey = errors.New("invalid storage key")

// Identifier is the content address of a byte sequence.
type Identifier struct {
	MediaType MediaType

	// Digest is the lowercase hex SHA-256 of the content bytes.
	Digest string
}

// Identify computes the Identifier of data published as mt.
// The digest covers exactly data; mt does not contribute to it.
func Identify(data []byte, mt MediaType) Identifier {
	sum := sha256.Sum256(data)
	return Identifier{MediaType: mt, Digest: hex.EncodeToString(sum[:])}
}

// StorageKey returns "sha256/<media type>/<hex digest>".
func (id Identifier) StorageKey() string {
	return keyScheme + "/" + id.MediaType.String() + "/" + id.Digest
}

// String implements fmt.Stringer.
func (id Identifier) String() string {
	return id.StorageKey()
}

// ParseStorageKey is the inverse of Identifier.StorageKey.
func ParseStorageKey(key string) (Identifier, error) {
	parts := strings.Split(key, "/")
	if len(parts) != 4 || parts[0] != keyScheme {
		return Identifier{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	mt, err := ParseMediaType(parts[1] + "/" + parts[2])
	if err != nil {
		return Identifier{}, fmt.Errorf("%w: %q: %v", ErrInvalidKey, key, err)
	}

	digest := parts[3]
	if len(digest) != hex.EncodedLen(sha256.Size) {
		return Identifier{}, fmt.Errorf("%w: %q: digest must be %d hex characters", ErrInvalidKey, key, hex.EncodedLen(sha256.Size))
	}
	if _, err := hex.DecodeString(digest); err != nil || strings.ToLower(digest) != digest {
		return Identifier{}, fmt.Errorf("%w: %q: digest must be lowercase hex", ErrInvalidKey, key)
	}

	return Identifier{MediaType: mt, Digest: digest}, nil
}
