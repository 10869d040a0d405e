package fixture

import (
	"math/rand/v2"

	"github.com/google/uuid"
)

// RandAlpha returns a random lowercase a-z string of the given length.
func RandAlpha(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = byte('a') + byte(rand.IntN(26))
	}
	return string(b)
}

// RandGroupIDs returns n distinct random group ids.
func RandGroupIDs(n int) []uuid.UUID {
	ids := make([]uuid.UUID, n)
	for i := range ids {
		ids[i] = uuid.New()
	}
	return ids
}
