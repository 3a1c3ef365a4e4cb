package entity

import "time"

const (
	DefaultCodeLength  = 6
	DefaultMaxAttempts = 3
	DefaultExpiry      = 10 * time.Minute
	DefaultSessionTTL  = 7 * 24 * time.Hour
)

// Challenge binds an identity pair to a one-time code. At most one exists per
// (Username, Email).
type Challenge struct {
	ID       string
	Username string
	Email    string
	// CodeHash is the hashed code; the plain code is only ever mailed.
	CodeHash string
	// Attempts counts verifications evaluated against the code, the
	// successful one included.
	Attempts  int
	CreatedAt time.Time
}

// Elapsed returns how long ago the challenge was issued.
func (c Challenge) Elapsed(now time.Time) time.Duration {
	return now.Sub(c.CreatedAt)
}

// Expired reports whether the challenge is older than window. A challenge
// exactly window old is still valid.
func (c Challenge) Expired(now time.Time, window time.Duration) bool {
	return c.Elapsed(now) > window
}
