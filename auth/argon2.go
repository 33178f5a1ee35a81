// Package auth verifies the single HTTP Basic credential Kith's CardDAV
// surface accepts (spec.md §6), checked against an Argon2id PHC string
// read once at startup from configuration.
package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// phcParams holds the decoded fields of an Argon2id PHC string:
// $argon2id$v=19$m=<mem>,t=<time>,p=<threads>$<salt>$<hash>
type phcParams struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	hash    []byte
}

// VerifyPassword checks password against an Argon2id PHC hash string,
// constant-time comparing the derived and stored digests.
func VerifyPassword(password, phc string) (bool, error) {
	params, err := parsePHC(phc)
	if err != nil {
		return false, err
	}

	derived := argon2.IDKey([]byte(password), params.salt, params.time, params.memory, params.threads, uint32(len(params.hash)))
	return subtle.ConstantTimeCompare(derived, params.hash) == 1, nil
}

func parsePHC(phc string) (phcParams, error) {
	parts := strings.Split(phc, "$")
	// parts: ["", "argon2id", "v=19", "m=...,t=...,p=...", "<salt>", "<hash>"]
	if len(parts) != 6 || parts[1] != "argon2id" {
		return phcParams{}, fmt.Errorf("auth: not an argon2id PHC string")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return phcParams{}, fmt.Errorf("auth: malformed version field: %w", err)
	}
	if version != argon2.Version {
		return phcParams{}, fmt.Errorf("auth: unsupported argon2 version %d", version)
	}

	var params phcParams
	var mem, tm, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &tm, &threads); err != nil {
		return phcParams{}, fmt.Errorf("auth: malformed param field: %w", err)
	}
	params.memory, params.time, params.threads = mem, tm, uint8(threads)

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return phcParams{}, fmt.Errorf("auth: malformed salt: %w", err)
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return phcParams{}, fmt.Errorf("auth: malformed hash: %w", err)
	}
	params.salt, params.hash = salt, hash

	return params, nil
}

// HashPassword produces a new Argon2id PHC string with a 32-byte digest,
// in the format VerifyPassword accepts; the tests use it to build fixtures.
func HashPassword(password string, salt []byte, memory, time uint32, threads uint8) string {
	hash := argon2.IDKey([]byte(password), salt, time, memory, threads, 32)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, memory, time, threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash))
}
