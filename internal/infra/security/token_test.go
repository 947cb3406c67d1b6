package security

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func TestGenerateHexToken(t *testing.T) {
	token, err := GenerateHexToken(20)
	if err != nil {
		t.Fatalf("GenerateHexToken returned error: %v", err)
	}
	if len(token) != 40 {
		t.Fatalf("expected 40 hex characters, got %d", len(token))
	}
	if _, err := hex.DecodeString(token); err != nil {
		t.Fatalf("token is not valid hex: %v", err)
	}

	other, err := GenerateHexToken(20)
	if err != nil {
		t.Fatalf("GenerateHexToken returned error: %v", err)
	}
	if token == other {
		t.Fatal("expected distinct tokens from consecutive calls")
	}

	if _, err := GenerateHexToken(0); err == nil {
		t.Fatal("expected error for non-positive length")
	}
}

func TestHashToken(t *testing.T) {
	sum := sha256.Sum256([]byte("token-value"))
	expected := hex.EncodeToString(sum[:])

	if got := HashToken("token-value"); got != expected {
		t.Fatalf("expected %s, got %s", expected, got)
	}

	if HashToken("token-value") != HashToken("token-value") {
		t.Fatal("expected hashing to be deterministic")
	}
	if HashToken("token-value") == HashToken("other-value") {
		t.Fatal("expected distinct inputs to produce distinct hashes")
	}
}

func TestCookieSignatureRoundTrip(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")

	sig := SignCookie(key, "user-1", "token-abc")
	if sig == "" {
		t.Fatal("SignCookie returned empty signature")
	}

	if !VerifyCookieSignature(key, "user-1", "token-abc", sig) {
		t.Fatal("expected signature to verify for matching inputs")
	}

	if VerifyCookieSignature(key, "user-2", "token-abc", sig) {
		t.Fatal("expected verification failure for different user id")
	}
	if VerifyCookieSignature(key, "user-1", "token-xyz", sig) {
		t.Fatal("expected verification failure for different token")
	}
	if VerifyCookieSignature([]byte("another-key-another-key-another!"), "user-1", "token-abc", sig) {
		t.Fatal("expected verification failure under a different key")
	}
	if VerifyCookieSignature(key, "user-1", "token-abc", "") {
		t.Fatal("expected verification failure for empty signature")
	}
}
