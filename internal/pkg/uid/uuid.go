package uid

import (
	"crypto/rand"
	"io"

	"github.com/google/uuid"
)

// UUID produces version 7 UUIDs, which embed a millisecond timestamp and so
// sort roughly by creation time in logs and token stores.
type UUID struct {
	rand io.Reader
}

func NewUUID() *UUID {
	return &UUID{rand: rand.Reader}
}

// Generate panics only if the random source fails, which crypto/rand does not.
func (u *UUID) Generate() string {
	return uuid.Must(uuid.NewV7FromReader(u.rand)).String()
}
