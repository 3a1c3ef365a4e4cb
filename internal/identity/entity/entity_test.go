package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestChallenge_Expired(t *testing.T) {
	created := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	c := Challenge{CreatedAt: created}

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{name: "fresh", now: created.Add(time.Minute), want: false},
		{name: "exactly at window", now: created.Add(DefaultExpiry), want: false},
		{name: "one second past", now: created.Add(DefaultExpiry + time.Second), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Expired(tt.now, DefaultExpiry))
		})
	}
}

func TestIssueModeFromString(t *testing.T) {
	assert.Equal(t, IssueModeSignup, IssueModeFromString(" SignUp "))
	assert.Equal(t, IssueModeLogin, IssueModeFromString("login"))
	assert.Equal(t, IssueModeUnknown, IssueModeFromString("register"))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "bob@example.com", NormalizeEmail("  Bob@Example.COM "))
}
