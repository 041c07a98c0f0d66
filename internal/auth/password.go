package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters, interactive tier.
const (
	argonTime    = 2
	argonMemory  = 64 * 1024 // KiB
	argonThreads = 1
	argonKeyLen  = 32
	argonSaltLen = 16

	// EncodedHashLen is the fixed length of the buffer Hash returns. The PHC
	// string is shorter than this; the remainder is trailing NUL bytes.
	EncodedHashLen = 128
)

var (
	// ErrInvalidHash is returned when a stored hash cannot be decoded.
	ErrInvalidHash = errors.New("auth: invalid password hash")
	// ErrIncompatibleHash is returned when a stored hash uses a different
	// argon2 version than this build links against.
	ErrIncompatibleHash = errors.New("auth: incompatible argon2 version")
)

// HashPassword derives an argon2id hash of password with a random salt and
// returns it PHC-encoded in a fixed EncodedHashLen-byte buffer, right-padded
// with NULs. Callers persisting the result should strip the padding with
// TrimPadding first.
func HashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
	if len(encoded) > EncodedHashLen {
		return "", ErrInvalidHash
	}

	buf := make([]byte, EncodedHashLen)
	copy(buf, encoded)
	return string(buf), nil
}

// TrimPadding strips the trailing NUL padding from a hash produced by
// HashPassword, leaving the bare PHC string for storage.
func TrimPadding(hash string) string {
	return strings.TrimRight(hash, "\x00")
}

// VerifyPassword reports whether password matches the stored hash. The stored
// value may be a bare PHC string or one carrying up to EncodedHashLen bytes of
// NUL padding; anything longer is rejected.
func VerifyPassword(stored, password string) (bool, error) {
	if len(stored) > EncodedHashLen {
		return false, ErrInvalidHash
	}
	buf := make([]byte, EncodedHashLen)
	copy(buf, stored)

	salt, key, params, err := decodeHash(strings.TrimRight(string(buf), "\x00"))
	if err != nil {
		return false, err
	}

	candidate := argon2.IDKey([]byte(password), salt, params.time, params.memory, params.threads, uint32(len(key)))
	return subtle.ConstantTimeCompare(key, candidate) == 1, nil
}

type argonParams struct {
	memory  uint32
	time    uint32
	threads uint8
}

func decodeHash(encoded string) (salt, key []byte, params argonParams, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, nil, params, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, nil, params, ErrInvalidHash
	}
	if version != argon2.Version {
		return nil, nil, params, ErrIncompatibleHash
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.memory, &params.time, &params.threads); err != nil {
		return nil, nil, params, ErrInvalidHash
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, params, ErrInvalidHash
	}
	key, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, nil, params, ErrInvalidHash
	}
	return salt, key, params, nil
}
