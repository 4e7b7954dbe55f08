package util

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand/v2"
	"time"
)

// --------------------------------------------------------------------------
// General Utility Functions
// --------------------------------------------------------------------------

// GenerateSeed creates a random seed from the system's secure random source
func GenerateSeed() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		// fall back to the current time, only if the system source is unavailable
		return uint64(time.Now().UnixNano())
	}
	return binary.LittleEndian.Uint64(b[:])
}

// NewRand returns a pseudo random generator seeded with GenerateSeed.
// The generator is not safe for concurrent use.
func NewRand() *mrand.Rand {
	return mrand.New(mrand.NewPCG(GenerateSeed(), GenerateSeed()))
}
