package utils

import (
	"crypto/rand"
	"fmt"
)

// Alphabet without 0/O/1/I so codes survive being read out loud.
const matchCodeAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

const matchCodeLength = 6

// NewMatchCode returns a human-shareable join code, e.g. "7KQ2MX".
func NewMatchCode() (string, error) {
	buf := make([]byte, matchCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate match code: %w", err)
	}
	for i, b := range buf {
		buf[i] = matchCodeAlphabet[int(b)%len(matchCodeAlphabet)]
	}
	return string(buf), nil
}
