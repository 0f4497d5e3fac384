package cluster

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
)

// HashFunc отображает строку в позицию на кольце.
type HashFunc func(input string) uint64

const (
	HashSHA256 = "sha256"
	HashXX     = "xxhash"
)

// SHA256Hash берёт первые 8 байт дайджеста (little-endian) и сбрасывает знаковый бит,
// поэтому позиции лежат в [0, 2^63) на любой платформе.
func SHA256Hash(input string) uint64 {
	sum := sha256.Sum256([]byte(input))
	return binary.LittleEndian.Uint64(sum[:8]) & math.MaxInt64
}

// XXHash is a faster non-cryptographic alternative with the same 63-bit space.
func XXHash(input string) uint64 {
	return xxhash.Sum64String(input) & math.MaxInt64
}

// HashByName resolves a hash function from its config name. Empty means sha256.
func HashByName(name string) (HashFunc, error) {
	switch name {
	case "", HashSHA256:
		return SHA256Hash, nil
	case HashXX:
		return XXHash, nil
	default:
		return nil, fmt.Errorf("unknown hash function %q", name)
	}
}

func virtualNodeLabel(id string, i int) string {
	return fmt.Sprintf("%s-VN%d", id, i)
}
