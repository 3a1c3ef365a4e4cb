package otp

import (
	"crypto/rand"
	"errors"
	"io"
	"math/big"
)

// DefaultLength is the code length used when NewNumeric receives a non-positive value.
const DefaultLength = 6

// ErrInvalidLength is returned when a generator is asked for an unusable length.
var ErrInvalidLength = errors.New("otp: invalid code length")

const digits = "0123456789"

// Generator produces verification codes.
type Generator interface {
	// Generate returns a new code or an error if the random source fails.
	Generate() (string, error)
}

// Numeric generates decimal codes of a fixed length.
type Numeric struct {
	length int
	random io.Reader
}

// NewNumeric returns a numeric code generator backed by crypto/rand.
func NewNumeric(length int) *Numeric {
	if length <= 0 {
		length = DefaultLength
	}

	return &Numeric{length: length, random: rand.Reader}
}

// Length returns the number of digits in generated codes.
func (n *Numeric) Length() int {
	return n.length
}

// Generate returns a code whose digits are each uniform in 0-9.
func (n *Numeric) Generate() (string, error) {
	if n.length <= 0 {
		return "", ErrInvalidLength
	}

	upper := big.NewInt(int64(len(digits)))
	out := make([]byte, n.length)
	for i := range out {
		idx, err := rand.Int(n.random, upper)
		if err != nil {
			return "", err
		}
		out[i] = digits[idx.Int64()]
	}

	return string(out), nil
}
