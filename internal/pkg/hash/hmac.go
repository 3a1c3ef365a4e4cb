package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HMAC keys SHA-256 with a server secret. Without the secret the six-digit
// code space could be enumerated offline from a leaked hash, so an empty key
// is refused.
type HMAC struct {
	key []byte
}

func NewHMAC(secret string) (*HMAC, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &HMAC{key: []byte(secret)}, nil
}

// Hash returns the hex-encoded MAC of code.
func (h *HMAC) Hash(code string) ([]byte, error) {
	return h.mac(code), nil
}

func (h *HMAC) Verify(hashed, code string) bool {
	return hmac.Equal([]byte(hashed), h.mac(code))
}

func (h *HMAC) mac(code string) []byte {
	m := hmac.New(sha256.New, h.key)
	m.Write([]byte(code))
	return hex.AppendEncode(nil, m.Sum(nil))
}
