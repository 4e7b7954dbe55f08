package lockmgr

import (
	"crypto/rand"
)

const (
	ownerIDLength = 32 // 256 bit
)

// generateOwnerID creates a new unique owner ID
func generateOwnerID() ([]byte, error) {
	randomBytes := make([]byte, ownerIDLength)
	_, err := rand.Read(randomBytes)
	return randomBytes, err
}
