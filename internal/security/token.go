package security

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"fmt"
)

const shortCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

const ShortCodeLength = 8

// NewOpaqueToken returns a URL-safe random token with no embedded structure.
func NewOpaqueToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// NewShortCode returns an 8-character code from the 62-character alphanumeric
// alphabet. Each character is drawn by reducing a fresh 64-bit value, so
// there is no rejection loop and the modulo bias is below 2^-57.
func NewShortCode() (string, error) {
	var buf [8 * ShortCodeLength]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	out := make([]byte, ShortCodeLength)
	for i := 0; i < ShortCodeLength; i++ {
		v := binary.BigEndian.Uint64(buf[i*8:])
		out[i] = shortCodeAlphabet[v%uint64(len(shortCodeAlphabet))]
	}
	return string(out), nil
}
