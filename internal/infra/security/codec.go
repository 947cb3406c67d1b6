package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput indicates the value to seal or unseal was empty.
	ErrEmptyInput = errors.New("codec: input is empty")
	// ErrIntegrity indicates the sealed value failed authentication and was
	// not decrypted.
	ErrIntegrity = errors.New("codec: integrity check failed")
	// ErrMalformed indicates the sealed value cannot be parsed.
	ErrMalformed = errors.New("codec: malformed sealed value")
)

const (
	macSize = sha256.Size
	ivSize  = aes.BlockSize
)

// Codec seals and unseals short identifiers for embedding in cookies.
// Construction: AES-256-CTR under a key derived from the long-term secret and
// a fixed salt, with an HMAC-SHA256 over iv||ciphertext prepended to the
// output. The whole blob is base64url encoded so it survives cookie
// transport.
type Codec struct {
	key []byte
}

// NewCodec derives the working key from the long-term secret and salt. Both
// must be non-empty; the derived key is the SHA-256 of their concatenation.
func NewCodec(secret, salt string) (*Codec, error) {
	if secret == "" || salt == "" {
		return nil, fmt.Errorf("codec: secret and salt are required")
	}
	sum := sha256.Sum256([]byte(secret + salt))
	return &Codec{key: sum[:]}, nil
}

// Key exposes the derived key for cookie signature binding. Callers must not
// log or persist it.
func (c *Codec) Key() []byte {
	return c.key
}

// Encrypt seals the plaintext. A fresh random IV makes every output distinct
// for identical inputs.
func (c *Codec) Encrypt(plain string) (string, error) {
	if plain == "" {
		return "", ErrEmptyInput
	}

	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("codec: generate iv: %w", err)
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("codec: init cipher: %w", err)
	}

	ciphertext := make([]byte, len(plain))
	cipher.NewCTR(block, iv).XORKeyStream(ciphertext, []byte(plain))

	payload := make([]byte, 0, ivSize+len(ciphertext))
	payload = append(payload, iv...)
	payload = append(payload, ciphertext...)

	mac := hmac.New(sha256.New, c.key)
	mac.Write(payload)

	sealed := make([]byte, 0, macSize+len(payload))
	sealed = append(sealed, mac.Sum(nil)...)
	sealed = append(sealed, payload...)

	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt authenticates and unseals a value produced by Encrypt. The HMAC is
// verified in constant time before any decryption happens; unauthenticated
// input is never decrypted.
func (c *Codec) Decrypt(sealed string) (string, error) {
	if sealed == "" {
		return "", ErrEmptyInput
	}

	raw, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil {
		return "", ErrMalformed
	}
	if len(raw) < macSize+ivSize {
		return "", ErrMalformed
	}

	presented := raw[:macSize]
	payload := raw[macSize:]

	mac := hmac.New(sha256.New, c.key)
	mac.Write(payload)
	if !hmac.Equal(presented, mac.Sum(nil)) {
		return "", ErrIntegrity
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("codec: init cipher: %w", err)
	}

	iv := payload[:ivSize]
	ciphertext := payload[ivSize:]
	plain := make([]byte, len(ciphertext))
	cipher.NewCTR(block, iv).XORKeyStream(plain, ciphertext)

	return string(plain), nil
}
