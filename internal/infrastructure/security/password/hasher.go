// Package password hashes and verifies user passwords.
//
// A Hasher writes new hashes with one configured Algorithm and verifies any
// hash whose algorithm it recognises, so stored hashes survive a change of
// HASH_ALGORITHM. All hashing work is handed to a Runner, normally the
// service's credential worker pool.
package password

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/artistsnetwork/identity/internal/pkg/metrics"
)

// Runner executes fn, typically on another goroutine, and returns once fn
// has finished or ctx is done.
type Runner interface {
	Do(ctx context.Context, fn func()) error
}

type inlineRunner struct{}

func (inlineRunner) Do(ctx context.Context, fn func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fn()
	return nil
}

var errJobAborted = errors.New("password: hashing job aborted")

// Hasher implements ports.CredentialHasher.
type Hasher struct {
	primary  Algorithm
	verifier map[Name]Algorithm
	runner   Runner
}

// NewHasher creates a Hasher that hashes with primary. Extra algorithms are
// only used for verification. A nil runner runs work on the caller's
// goroutine.
func NewHasher(primary Algorithm, runner Runner, extra ...Algorithm) *Hasher {
	if runner == nil {
		runner = inlineRunner{}
	}
	h := &Hasher{
		primary:  primary,
		verifier: map[Name]Algorithm{primary.Name(): primary},
		runner:   runner,
	}
	for _, a := range extra {
		if _, ok := h.verifier[a.Name()]; !ok {
			h.verifier[a.Name()] = a
		}
	}
	return h
}

// Config selects and tunes the primary algorithm.
type Config struct {
	Algorithm  Name
	BcryptCost int
	Argon2     Argon2Params
}

// New builds a Hasher from cfg. The non-primary algorithm is registered for
// verification with default parameters, which are read back from the hash.
func New(cfg Config, runner Runner) (*Hasher, error) {
	bc := NewBcrypt(cfg.BcryptCost)
	ar := NewArgon2id(cfg.Argon2)

	switch cfg.Algorithm {
	case Bcrypt, "":
		return NewHasher(bc, runner, ar), nil
	case Argon2id:
		return NewHasher(ar, runner, bc), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, cfg.Algorithm)
	}
}

// MaxLength is the longest password the primary algorithm accepts in bytes,
// or 0 when unlimited.
func (h *Hasher) MaxLength() int { return h.primary.MaxLength() }

// Hash returns a salted hash of plaintext. Two calls never return the same
// string.
func (h *Hasher) Hash(ctx context.Context, plaintext string) (string, error) {
	defer observe("hash", time.Now())

	hash, err := "", errJobAborted
	if runErr := h.runner.Do(ctx, func() {
		hash, err = h.primary.Hash(plaintext)
	}); runErr != nil {
		return "", runErr
	}
	return hash, err
}

// Verify reports whether plaintext matches hash.
func (h *Hasher) Verify(ctx context.Context, plaintext, hash string) (bool, error) {
	defer observe("verify", time.Now())

	name, ok := Detect(hash)
	if !ok {
		return false, ErrInvalidHash
	}
	alg, ok := h.verifier[name]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownAlgorithm, name)
	}

	match, err := false, errJobAborted
	if runErr := h.runner.Do(ctx, func() {
		match, err = alg.Verify(plaintext, hash)
	}); runErr != nil {
		return false, runErr
	}
	return match, err
}

func observe(op string, start time.Time) {
	metrics.CredentialHashDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
