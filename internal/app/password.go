package app

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
)

// Argon2id parameters. These match the libsodium "interactive" limits so
// hashes written by earlier deployments keep verifying.
const (
	argon2Time    = 2
	argon2Memory  = 64 * 1024 // KiB
	argon2Threads = 1
	argon2SaltLen = 16
	argon2KeyLen  = 32

	// Upper bounds accepted from a stored hash.
	maxArgon2Memory  = 1024 * 1024
	maxArgon2Time    = 16
	maxArgon2Threads = 16
	maxArgon2KeyLen  = 128
)

// legacyPrefixes are bcrypt variants that are refused outright. Accounts
// still carrying one must reset their password.
var legacyPrefixes = []string{"$2a$", "$2b$", "$2y$"}

// rejectSalt salts the derivation run when a stored hash is rejected
// without being parsed.
var rejectSalt = make([]byte, argon2SaltLen)

type deriveFunc func(password, salt []byte, time, memory uint32, threads uint8, keyLen uint32) []byte

// PasswordHasher hashes and verifies passwords with argon2id.
type PasswordHasher struct {
	rand   io.Reader
	derive deriveFunc
}

// NewPasswordHasher returns a hasher that draws salts from crypto/rand.
func NewPasswordHasher() *PasswordHasher {
	return &PasswordHasher{rand: rand.Reader, derive: argon2.IDKey}
}

// Init runs a hash and verify round-trip. A failure means the process
// cannot hash passwords safely and must not start.
func (h *PasswordHasher) Init() error {
	const probe = "kanba-self-test"
	encoded, err := h.Hash(probe)
	if err != nil {
		return oops.Code("HASHER_INIT_FAILED").Wrap(err)
	}
	if !h.Verify(probe, encoded) || h.Verify(probe+"!", encoded) {
		return oops.Code("HASHER_INIT_FAILED").Errorf("argon2id self-test mismatch")
	}
	return nil
}

// Hash returns a PHC-encoded argon2id hash of password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	salt := make([]byte, argon2SaltLen)
	if _, err := io.ReadFull(h.rand, salt); err != nil {
		return "", fmt.Errorf("%w: %w", ErrHashingFailed, err)
	}

	key := h.deriveKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argon2Memory,
		argon2Time,
		argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether password matches encoded. Legacy bcrypt hashes and
// anything that does not parse as argon2id yield false, after the same
// argon2id work a real hash with the default parameters would cost.
func (h *PasswordHasher) Verify(password, encoded string) bool {
	p, ok := parseArgon2id(encoded)
	if IsLegacyHash(encoded) || !ok {
		h.deriveKey([]byte(password), rejectSalt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
		return false
	}
	computed := h.deriveKey([]byte(password), p.salt, p.time, p.memory, p.threads, uint32(len(p.key)))
	return subtle.ConstantTimeCompare(computed, p.key) == 1
}

func (h *PasswordHasher) deriveKey(password, salt []byte, time, memory uint32, threads uint8, keyLen uint32) []byte {
	if h.derive == nil {
		return argon2.IDKey(password, salt, time, memory, threads, keyLen)
	}
	return h.derive(password, salt, time, memory, threads, keyLen)
}

// IsLegacyHash reports whether encoded is a bcrypt hash.
func IsLegacyHash(encoded string) bool {
	if len(encoded) < 4 {
		return false
	}
	for _, prefix := range legacyPrefixes {
		if strings.HasPrefix(encoded, prefix) {
			return true
		}
	}
	return false
}

type argon2Params struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	key     []byte
}

func parseArgon2id(encoded string) (argon2Params, bool) {
	var p argon2Params

	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return p, false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, false
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return p, false
	}
	if memory == 0 || memory > maxArgon2Memory || time == 0 || time > maxArgon2Time ||
		threads == 0 || threads > maxArgon2Threads {
		return p, false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return p, false
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 || len(key) > maxArgon2KeyLen {
		return p, false
	}

	p.memory = memory
	p.time = time
	p.threads = uint8(threads)
	p.salt = salt
	p.key = key
	return p, true
}
