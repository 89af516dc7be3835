package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const maxHandleLength = 64

// GenerateID generates a unique ID with the given prefix
func GenerateID(prefix string) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const length = 10

	result := make([]byte, length)
	for i := range result {
		num, _ := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		result[i] = charset[num.Int64()]
	}

	return fmt.Sprintf("%s-%s", prefix, string(result))
}

// NormalizeHandle trims surrounding whitespace from an account handle.
func NormalizeHandle(handle string) string {
	return strings.TrimSpace(handle)
}

// ValidateHandle reports whether handle is usable as an account lookup key
func ValidateHandle(handle string) bool {
	if handle == "" || len(handle) > maxHandleLength {
		return false
	}
	return !strings.ContainsAny(handle, " \t\r\n")
}
