package id

import (
	"crypto/rand"
	"encoding/hex"
	"regexp"
	"strings"
)

var hex32 = regexp.MustCompile(`^[a-f0-9]{32}$`)

// NewID32 returns a random public id: 32 lowercase hex characters.
func NewID32() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func IsID32(s string) bool { return hex32.MatchString(s) }

// Normalize trims and lowercases s and reports whether the result is a public id.
// Path parameters are passed through it so "ABC..." and "abc..." name the same row.
func Normalize(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	return s, IsID32(s)
}
