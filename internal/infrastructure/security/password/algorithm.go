package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Name identifies a hashing algorithm.
type Name string

const (
	Bcrypt   Name = "bcrypt"
	Argon2id Name = "argon2id"
)

var (
	// ErrInvalidHash is returned when a stored hash cannot be parsed.
	ErrInvalidHash = errors.New("password: invalid or unrecognised hash")
	// ErrUnknownAlgorithm is returned for an unsupported algorithm name.
	ErrUnknownAlgorithm = errors.New("password: unknown algorithm")
)

// Algorithm is a single password hashing scheme. Implementations are
// immutable and safe for concurrent use.
type Algorithm interface {
	Name() Name
	Hash(plaintext string) (string, error)
	// Verify compares in constant time. A mismatch is (false, nil).
	Verify(plaintext, hash string) (bool, error)
	// MaxLength is the longest accepted password in bytes, or 0 for no limit.
	MaxLength() int
}

// Detect returns the algorithm that produced hash, judged by its prefix.
func Detect(hash string) (Name, bool) {
	switch {
	case strings.HasPrefix(hash, "$argon2id$"):
		return Argon2id, true
	case strings.HasPrefix(hash, "$2a$"),
		strings.HasPrefix(hash, "$2b$"),
		strings.HasPrefix(hash, "$2y$"):
		return Bcrypt, true
	default:
		return "", false
	}
}

// --- bcrypt ---

// DefaultBcryptCost keeps a single hash in the low hundreds of milliseconds
// on current server CPUs.
const DefaultBcryptCost = 12

type bcryptAlgorithm struct {
	cost int
}

// NewBcrypt returns a bcrypt Algorithm. Out-of-range costs fall back to
// DefaultBcryptCost.
func NewBcrypt(cost int) Algorithm {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &bcryptAlgorithm{cost: cost}
}

func (a *bcryptAlgorithm) Name() Name     { return Bcrypt }
func (a *bcryptAlgorithm) MaxLength() int { return 72 }

func (a *bcryptAlgorithm) Hash(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), a.cost)
	if err != nil {
		return "", fmt.Errorf("password: bcrypt: %w", err)
	}
	return string(hash), nil
}

func (a *bcryptAlgorithm) Verify(plaintext, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}
}

// --- argon2id ---

// Argon2Params tunes argon2id. Zero fields take defaults.
type Argon2Params struct {
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
}

const (
	defaultArgonTime    = 3
	defaultArgonMemory  = 64 * 1024
	defaultArgonThreads = 2
	argonSaltLen        = 16
	argonKeyLen         = 32
)

type argon2idAlgorithm struct {
	params Argon2Params
}

// NewArgon2id returns an argon2id Algorithm producing PHC-format strings.
func NewArgon2id(p Argon2Params) Algorithm {
	if p.Time == 0 {
		p.Time = defaultArgonTime
	}
	if p.MemoryKiB == 0 {
		p.MemoryKiB = defaultArgonMemory
	}
	if p.Threads == 0 {
		p.Threads = defaultArgonThreads
	}
	return &argon2idAlgorithm{params: p}
}

func (a *argon2idAlgorithm) Name() Name     { return Argon2id }
func (a *argon2idAlgorithm) MaxLength() int { return 0 }

func (a *argon2idAlgorithm) Hash(plaintext string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("password: generate salt: %w", err)
	}

	p := a.params
	key := argon2.IDKey([]byte(plaintext), salt, p.Time, p.MemoryKiB, p.Threads, argonKeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.MemoryKiB, p.Time, p.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

func (a *argon2idAlgorithm) Verify(plaintext, hash string) (bool, error) {
	parts := strings.Split(hash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false, ErrInvalidHash
	}

	var memory, time uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, ErrInvalidHash
	}
	if memory == 0 || time == 0 || threads == 0 {
		return false, ErrInvalidHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("%w: salt: %v", ErrInvalidHash, err)
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(expected) == 0 {
		return false, ErrInvalidHash
	}

	computed := argon2.IDKey([]byte(plaintext), salt, time, memory, threads, uint32(len(expected)))
	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}
