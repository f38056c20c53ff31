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

// Argon2id parameters for newly hashed passwords. Stored hashes carry their
// own parameters, so these can change without invalidating old credentials.
const (
	hashMemoryKiB   = 64 * 1024
	hashIterations  = 3
	hashParallelism = 4
	hashSaltLen     = 16
	hashKeyLen      = 32
)

// HashPassword derives a salted argon2id hash and encodes it in PHC string
// format: $argon2id$v=19$m=65536,t=3,p=4$<salt>$<hash>.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	salt := make([]byte, hashSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate password salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, hashIterations, hashMemoryKiB, hashParallelism, hashKeyLen)

	enc := base64.RawStdEncoding
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		hashMemoryKiB,
		hashIterations,
		hashParallelism,
		enc.EncodeToString(salt),
		enc.EncodeToString(key),
	), nil
}

// VerifyPassword reports whether password matches the stored PHC hash. The
// comparison is constant time over the derived keys; a malformed or empty
// stored hash never matches.
func VerifyPassword(password, encoded string) bool {
	if password == "" || encoded == "" {
		return false
	}
	memory, iterations, parallelism, salt, want, err := decodeHash(encoded)
	if err != nil {
		return false
	}
	got := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}

func decodeHash(encoded string) (memory, iterations uint32, parallelism uint8, salt, key []byte, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return 0, 0, 0, nil, nil, errors.New("malformed password hash")
	}
	if parts[1] != "argon2id" {
		return 0, 0, 0, nil, nil, errors.New("unsupported password hash algorithm")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return 0, 0, 0, nil, nil, errors.New("unsupported argon2 version")
	}

	var par uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &par); err != nil {
		return 0, 0, 0, nil, nil, errors.New("malformed argon2 parameters")
	}
	if par == 0 || par > 255 {
		return 0, 0, 0, nil, nil, errors.New("invalid argon2 parallelism")
	}
	parallelism = uint8(par)

	enc := base64.RawStdEncoding
	if salt, err = enc.DecodeString(parts[4]); err != nil {
		return 0, 0, 0, nil, nil, errors.New("malformed argon2 salt")
	}
	if key, err = enc.DecodeString(parts[5]); err != nil {
		return 0, 0, 0, nil, nil, errors.New("malformed argon2 digest")
	}
	if len(key) < 16 {
		return 0, 0, 0, nil, nil, errors.New("argon2 digest too short")
	}
	return memory, iterations, parallelism, salt, key, nil
}
