package canonical

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/veridian-labs/veridian/internal/common"
	"github.com/veridian-labs/veridian/internal/service"
)

// SHA256Hasher is the default digest implementation. Digests carry the
// algorithm identifier as a prefix ("sha256:<hex>") so a future algorithm
// change remains distinguishable in stored hashes.
type SHA256Hasher struct{}

// Algorithm returns the digest algorithm identifier.
func (SHA256Hasher) Algorithm() string {
	return "sha256"
}

// Hash returns the versioned digest of data.
func (h SHA256Hasher) Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s:%x", h.Algorithm(), sum)
}

// HasherFor returns the digest implementation for a configured algorithm
// identifier. Unknown identifiers are a configuration error rather than a
// silent fallback, since stored digests name their algorithm.
func HasherFor(algorithm string) (service.Hasher, error) {
	switch algorithm {
	case "", "sha256":
		return SHA256Hasher{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown digest algorithm %q", common.ErrInvalidConfig, algorithm)
	}
}

// DigestAlgorithm extracts the algorithm identifier from a versioned digest,
// or "" when the digest carries none.
func DigestAlgorithm(digest string) string {
	idx := strings.IndexByte(digest, ':')
	if idx < 0 {
		return ""
	}
	return digest[:idx]
}
