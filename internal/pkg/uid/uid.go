// Package uid generates identifiers.
//
// Numeric IDs are snowflakes and used as primary keys for users and logs.
// String IDs are either UUIDv7 (correlation and token IDs) or ULID (challenge IDs,
// which sort by creation time and fit in 26 characters).
package uid

// NumberID generates unique 64-bit identifiers.
type NumberID interface {
	Generate() int64
}

// StringID generates unique string identifiers.
type StringID interface {
	Generate() string
}
