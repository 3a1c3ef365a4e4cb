package jwt

import (
	"context"
	"strings"
	"testing"
	"time"

	libJWT "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

type fixedID struct{}

func (fixedID) Generate() string { return "0193a8f2-0000-7000-8000-000000000001" }

var secret = []byte(strings.Repeat("k", 64))

func newSymmetric(t *testing.T, clk *fakeClock) *Symmetric {
	t.Helper()

	s, err := NewHS512(Config{
		Secret:    secret,
		Issuer:    "supavault",
		Audiences: []string{"supavault-web"},
		TTL:       7 * 24 * time.Hour,
		Clock:     clk,
		UUID:      fixedID{},
	})
	require.NoError(t, err)
	return s
}

func TestNewHS512_RejectsShortKey(t *testing.T) {
	_, err := NewHS512(Config{Secret: []byte("short"), TTL: time.Hour})
	assert.ErrorIs(t, err, ErrSigningKeyTooShort)
}

func TestSymmetric_SessionLifetime(t *testing.T) {
	// Arrange
	issuedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	clk := &fakeClock{now: issuedAt}
	s := newSymmetric(t, clk)

	token, err := s.Generate(1234567890123)
	require.NoError(t, err)

	tests := []struct {
		name    string
		at      time.Time
		wantErr error
	}{
		{name: "at issuance", at: issuedAt},
		{name: "six days later", at: issuedAt.Add(6 * 24 * time.Hour)},
		{name: "one second before expiry", at: issuedAt.Add(7*24*time.Hour - time.Second)},
		{name: "exactly at expiry", at: issuedAt.Add(7 * 24 * time.Hour), wantErr: ErrTokenExpired},
		{name: "after expiry", at: issuedAt.Add(8 * 24 * time.Hour), wantErr: ErrTokenExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clk.now = tt.at

			claims, err := s.Verify(token)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(1234567890123), claims.UserID)
			assert.Equal(t, "1234567890123", claims.Subject)
		})
	}
}

func TestSymmetric_SubSecondIssuance(t *testing.T) {
	// Arrange
	issuedAt := time.Date(2024, 3, 1, 12, 0, 0, 500_000_000, time.UTC)
	clk := &fakeClock{now: issuedAt}
	s := newSymmetric(t, clk)

	// Act
	token, err := s.Generate(42)
	require.NoError(t, err)

	// Assert
	claims, err := s.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, issuedAt.Truncate(time.Second), claims.IssuedAt.Time.UTC())
	assert.Equal(t, 7*24*time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))

	clk.now = issuedAt.Truncate(time.Second).Add(7*24*time.Hour - time.Nanosecond)
	_, err = s.Verify(token)
	require.NoError(t, err)

	clk.now = issuedAt.Truncate(time.Second).Add(7 * 24 * time.Hour)
	_, err = s.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestSymmetric_Verify_Rejects(t *testing.T) {
	clk := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	s := newSymmetric(t, clk)

	other, err := NewHS512(Config{
		Secret:    []byte(strings.Repeat("x", 64)),
		Issuer:    "supavault",
		Audiences: []string{"supavault-web"},
		TTL:       time.Hour,
		Clock:     clk,
		UUID:      fixedID{},
	})
	require.NoError(t, err)
	forged, err := other.Generate(1)
	require.NoError(t, err)

	hs256, err := libJWT.NewWithClaims(libJWT.SigningMethodHS256, Claims{UserID: 1}).SignedString(secret)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": forged,
		"wrong alg":    hs256,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := s.Verify(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestSymmetric_ClaimName(t *testing.T) {
	s := newSymmetric(t, &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)})

	token, err := s.Generate(42)
	require.NoError(t, err)

	parsed, _, err := libJWT.NewParser().ParseUnverified(token, libJWT.MapClaims{})
	require.NoError(t, err)
	claims := parsed.Claims.(libJWT.MapClaims)
	assert.Equal(t, "42", claims["userId"])
}

func TestAuthContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, GetAuth(ctx))

	ctx = SetAuth(ctx, Claims{UserID: 7})
	require.NotNil(t, GetAuth(ctx))
	assert.Equal(t, int64(7), GetAuth(ctx).UserID)
}
