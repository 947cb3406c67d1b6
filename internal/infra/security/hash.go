package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	argon2Variant = "argon2id"
	argon2Version = "v=19"
)

var errInvalidHashFormat = errors.New("argon2: invalid encoded hash format")

// Argon2Params defines tunable parameters for Argon2id password hashing.
type Argon2Params struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2Params returns the default hashing configuration.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 4,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Validate rejects parameter sets that would weaken the hash.
func (p Argon2Params) Validate() error {
	if p.Memory < 8*1024 {
		return fmt.Errorf("argon2: memory must be at least 8192")
	}
	if p.Iterations == 0 {
		return fmt.Errorf("argon2: iterations must be greater than zero")
	}
	if p.Parallelism == 0 {
		return fmt.Errorf("argon2: parallelism must be greater than zero")
	}
	if p.SaltLength < 8 {
		return fmt.Errorf("argon2: salt length must be at least 8 bytes")
	}
	if p.KeyLength < 16 {
		return fmt.Errorf("argon2: key length must be at least 16 bytes")
	}
	return nil
}

// PasswordHasher produces and verifies Argon2id password hashes. The encoded
// form embeds parameters and salt, so verification works across parameter
// upgrades.
type PasswordHasher struct {
	params Argon2Params
}

// NewPasswordHasher constructs a hasher after validating the parameters.
func NewPasswordHasher(params Argon2Params) (*PasswordHasher, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &PasswordHasher{params: params}, nil
}

// Hash generates an Argon2id hash for the provided password.
// Format: argon2id$v=19$m=<memory>,t=<iterations>,p=<parallelism>$<salt>$<hash>
func (h *PasswordHasher) Hash(password string) (string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("argon2: generate salt: %w", err)
	}

	sum := argon2.IDKey([]byte(password), salt, h.params.Iterations, h.params.Memory, h.params.Parallelism, h.params.KeyLength)

	return strings.Join([]string{
		argon2Variant,
		argon2Version,
		fmt.Sprintf("m=%d,t=%d,p=%d", h.params.Memory, h.params.Iterations, h.params.Parallelism),
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(sum),
	}, "$"), nil
}

// Verify compares the provided password against the stored hash in constant
// time. An empty password or hash never matches.
func (h *PasswordHasher) Verify(password, encoded string) (bool, error) {
	if password == "" || encoded == "" {
		return false, nil
	}

	params, salt, expected, err := decodeArgon2Hash(encoded)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(password), salt, params.Iterations, params.Memory, params.Parallelism, uint32(len(expected)))
	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}

func decodeArgon2Hash(encoded string) (Argon2Params, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 5 {
		return Argon2Params{}, nil, nil, errInvalidHashFormat
	}
	if parts[0] != argon2Variant {
		return Argon2Params{}, nil, nil, fmt.Errorf("argon2: unexpected variant %q", parts[0])
	}
	if parts[1] != argon2Version {
		return Argon2Params{}, nil, nil, fmt.Errorf("argon2: unsupported version %q", parts[1])
	}

	params, err := parseArgon2Params(parts[2])
	if err != nil {
		return Argon2Params{}, nil, nil, err
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil {
		return Argon2Params{}, nil, nil, fmt.Errorf("argon2: decode salt: %w", err)
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return Argon2Params{}, nil, nil, fmt.Errorf("argon2: decode hash: %w", err)
	}

	return params, salt, hash, nil
}

func parseArgon2Params(segment string) (Argon2Params, error) {
	entries := strings.Split(segment, ",")
	if len(entries) != 3 {
		return Argon2Params{}, errInvalidHashFormat
	}

	var params Argon2Params
	for _, entry := range entries {
		kv := strings.SplitN(entry, "=", 2)
		if len(kv) != 2 {
			return Argon2Params{}, errInvalidHashFormat
		}

		switch kv[0] {
		case "m":
			v, err := strconv.ParseUint(kv[1], 10, 32)
			if err != nil {
				return Argon2Params{}, fmt.Errorf("argon2: parse m: %w", err)
			}
			params.Memory = uint32(v)
		case "t":
			v, err := strconv.ParseUint(kv[1], 10, 32)
			if err != nil {
				return Argon2Params{}, fmt.Errorf("argon2: parse t: %w", err)
			}
			params.Iterations = uint32(v)
		case "p":
			v, err := strconv.ParseUint(kv[1], 10, 8)
			if err != nil {
				return Argon2Params{}, fmt.Errorf("argon2: parse p: %w", err)
			}
			params.Parallelism = uint8(v)
		default:
			return Argon2Params{}, errInvalidHashFormat
		}
	}

	return params, nil
}
