package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync/atomic"
	"time"
)

var (
	// Counter for sequential IDs
	idCounter uint64
)

// GenerateID generates a unique ID
func GenerateID() string {
	// Increment counter atomically
	count := atomic.AddUint64(&idCounter, 1)

	// Combine timestamp with counter for uniqueness
	timestamp := time.Now().UnixNano()
	return fmt.Sprintf("%x-%x", timestamp, count)
}

// GenerateStudyID generates a study ID with a timestamp prefix
func GenerateStudyID() string {
	timestamp := time.Now().Format("20060102-150405")
	b := make([]byte, 4)
	_, err := rand.Read(b)
	if err != nil {
		count := atomic.AddUint64(&idCounter, 1)
		return fmt.Sprintf("study-%s-%x", timestamp, count)
	}
	return fmt.Sprintf("study-%s-%s", timestamp, hex.EncodeToString(b))
}

// GenerateCaseID generates a remote case ID (8 bytes hex-encoded)
func GenerateCaseID() string {
	b := make([]byte, 8)
	_, err := rand.Read(b)
	if err != nil {
		// Fallback to timestamp-based ID
		return GenerateID()
	}
	return hex.EncodeToString(b)
}
