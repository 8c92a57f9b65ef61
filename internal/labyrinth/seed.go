package labyrinth

import (
	"encoding/binary"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// ResolveSeed returns seed unchanged, or a fresh random 128-bit hex token when it is
// empty. The returned value is what callers must store to regenerate the maze.
func ResolveSeed(seed string) string {
	if strings.TrimSpace(seed) != "" {
		return seed
	}
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// SeedValue derives the 64-bit RNG seed for a seed string.
func SeedValue(seed string) int64 {
	sum := blake2b.Sum256([]byte(seed))
	return int64(binary.BigEndian.Uint64(sum[:8]))
}
