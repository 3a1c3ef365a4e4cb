// Package jwt issues and verifies the signed session tokens handed to
// clients after a successful OTP verification.
//
// Tokens are HS512 JWTs carrying a single userId claim. Expiry is checked
// against the injected clock, so a token issued at T is accepted strictly
// before T+TTL and rejected from T+TTL onwards.
package jwt
