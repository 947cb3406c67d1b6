package security

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// GenerateHexToken returns a hex-encoded random string using the specified
// number of random bytes (so the string is twice as long).
func GenerateHexToken(byteLength int) (string, error) {
	if byteLength <= 0 {
		return "", fmt.Errorf("length must be positive")
	}

	buf := make([]byte, byteLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	return hex.EncodeToString(buf), nil
}

// HashToken calculates a SHA-256 hash of the provided value.
func HashToken(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

// SignCookie computes the keyed binding hash over a user id and token pair as
// embedded in the remember-me cookie.
func SignCookie(key []byte, userID, token string) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(userID + ":" + token))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyCookieSignature compares a presented cookie hash against the expected
// value in constant time.
func VerifyCookieSignature(key []byte, userID, token, presented string) bool {
	expected := SignCookie(key, userID, token)
	return hmac.Equal([]byte(expected), []byte(presented))
}
