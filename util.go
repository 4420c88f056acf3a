package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math"

	"github.com/google/uuid"
)

// GenerateID returns a random hex string of the given byte length
func GenerateID(byteLen int) string {
	b := make([]byte, byteLen)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// GenerateUUID returns a random (v4) UUID string, used for session ids
func GenerateUUID() string {
	return uuid.NewString()
}

// ClampInt restricts v to [min, max]
func ClampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// FormatTime renders seconds as m:ss, the way the HUD clock shows them
func FormatTime(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// truncate cuts s to at most n bytes
func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
