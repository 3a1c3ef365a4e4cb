package entity

import (
	"strings"
	"time"
)

// User is an account that completed at least one OTP verification.
type User struct {
	ID        int64
	Username  string
	Email     string
	CreatedAt time.Time
}

// NormalizeEmail trims and lower-cases an email so lookups and challenge
// bindings compare equal regardless of how the caller typed it.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SeedUsers are the demo accounts created by the development seed endpoint.
var SeedUsers = []User{
	{Username: "Alice", Email: "a@example.com"},
	{Username: "Bob", Email: "b@example.com"},
	{Username: "Carol", Email: "c@example.com"},
	{Username: "Daniel", Email: "d@example.com"},
	{Username: "Eve", Email: "e@example.com"},
}
