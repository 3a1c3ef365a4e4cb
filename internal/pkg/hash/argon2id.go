package hash

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

type argon2Params struct {
	memory  uint32 // KiB
	time    uint32
	threads uint8
}

// Argon2id stores hashes in the PHC string format, so parameters can change
// without invalidating challenges already issued.
type Argon2id struct {
	params  argon2Params
	saltLen int
	keyLen  uint32
	pepper  string
}

func NewArgon2id(pepper string) *Argon2id {
	return &Argon2id{
		params:  argon2Params{memory: 32 * 1024, time: 3, threads: 2},
		saltLen: 16,
		keyLen:  32,
		pepper:  pepper,
	}
}

func (a *Argon2id) Hash(code string) ([]byte, error) {
	salt := make([]byte, a.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("argon2id salt: %w", err)
	}

	p := a.params
	key := argon2.IDKey([]byte(code+a.pepper), salt, p.time, p.memory, p.threads, a.keyLen)

	b64 := base64.RawStdEncoding
	return fmt.Appendf(nil, "$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.memory, p.time, p.threads, b64.EncodeToString(salt), b64.EncodeToString(key)), nil
}

func (a *Argon2id) Verify(hashed, code string) bool {
	// "", "argon2id", "v=..", "m=..,t=..,p=..", salt, key
	parts := strings.Split(hashed, "$")
	if len(parts) != 6 || parts[1] != "argon2id" || code == "" {
		return false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}

	var p argon2Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return false
	}

	b64 := base64.RawStdEncoding
	salt, err := b64.DecodeString(parts[4])
	if err != nil {
		return false
	}
	want, err := b64.DecodeString(parts[5])
	if err != nil || len(want) == 0 {
		return false
	}

	got := argon2.IDKey([]byte(code+a.pepper), salt, p.time, p.memory, p.threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(want, got) == 1
}
