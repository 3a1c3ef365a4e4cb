package hash

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownAlgorithm is returned by NewFromName for unsupported algorithm names.
	ErrUnknownAlgorithm = errors.New("hash: unknown algorithm")
	// ErrEmptySecret is returned when a keyed algorithm has no key.
	ErrEmptySecret = errors.New("hash: secret is required")
)

const (
	// AlgorithmHMAC selects HMAC-SHA256. It needs Options.HMACSecret.
	AlgorithmHMAC = "hmac"
	// AlgorithmBcrypt selects bcrypt.
	AlgorithmBcrypt = "bcrypt"
	// AlgorithmArgon2id selects Argon2id.
	AlgorithmArgon2id = "argon2id"
)

// Hash produces and verifies one-way hashes of short secrets.
type Hash interface {
	// Hash returns the encoded hash of str.
	Hash(str string) ([]byte, error)
	// Verify reports whether str matches hashed, in constant time.
	Verify(hashed, str string) bool
}

// Options carries the secrets each algorithm needs.
type Options struct {
	HMACSecret     string
	BcryptCost     int
	BcryptPepper   string
	Argon2idPepper string
}

// NewFromName returns the Hash implementation registered under name.
func NewFromName(name string, opts Options) (Hash, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case AlgorithmHMAC, "":
		h, err := NewHMAC(opts.HMACSecret)
		if err != nil {
			return nil, err
		}
		return h, nil
	case AlgorithmBcrypt:
		return NewBcrypt(opts.BcryptCost, opts.BcryptPepper), nil
	case AlgorithmArgon2id:
		return NewArgon2id(opts.Argon2idPepper), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownAlgorithm, name)
	}
}
