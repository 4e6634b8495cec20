package distributed

import (
	"crypto/rand"
	"fmt"
	"os"
	"time"
)

// generateInstanceID creates a unique identifier for this application instance.
func generateInstanceID() string {
	hostname, _ := os.Hostname()
	pid := os.Getpid()

	// Add random bytes for uniqueness
	randomBytes := make([]byte, 4)
	_, _ = rand.Read(randomBytes)

	return fmt.Sprintf("%s-%d-%x-%d",
		hostname, pid, randomBytes, time.Now().Unix())
}

// redisKeys derives the Redis keys used by one semaphore from its prefix.
func redisKeys(prefix string) map[string]string {
	return map[string]string{
		"leases":    prefix + ":leases",
		"config":    prefix + ":config",
		"stats":     prefix + ":stats",
		"instances": prefix + ":instances",
	}
}

// timeToScore converts a time to a sorted-set score in milliseconds.
func timeToScore(t time.Time) int64 {
	return t.UnixMilli()
}
