package inbound

import (
	"context"

	"github.com/shandysiswandi/supavault/internal/identity/usecase"
	"github.com/shandysiswandi/supavault/internal/pkg/router"
)

type uc interface {
	IssueChallenge(ctx context.Context, in usecase.IssueChallengeInput) (*usecase.IssueChallengeOutput, error)
	Verify(ctx context.Context, in usecase.VerifyInput) (*usecase.VerifyOutput, error)

	Me(ctx context.Context) (*usecase.MeOutput, error)
	Logout(ctx context.Context) error

	SearchUsers(ctx context.Context, in usecase.SearchUsersInput) ([]usecase.SearchUsersItem, error)
	SeedUsers(ctx context.Context) (*usecase.SeedUsersOutput, error)
}

// Options tunes endpoint registration.
type Options struct {
	Cookie CookieConfig
	// SeedEnabled exposes the demo user seeding endpoint.
	SeedEnabled bool
}

func RegisterHTTPEndpoint(r *router.Router, uc uc, opt Options) {
	end := &HTTPEndpoint{uc: uc, cookie: opt.Cookie.withDefaults()}

	// OTP challenge issuance (rate limited per client IP)
	r.POST("/api/v1/identity/otp/request", end.IssueChallenge, r.Limit("otp"))
	r.POST("/api/v1/identity/signup", end.Signup, r.Limit("otp"))
	r.POST("/api/v1/identity/login", end.Login, r.Limit("otp"))

	// OTP verification + session
	r.POST("/api/v1/identity/otp/verify", end.Verify, r.Limit("verify"))
	r.POST("/api/v1/identity/logout", end.Logout)

	// need authenticated
	r.GET("/api/v1/identity/me", end.Me)
	r.GET("/api/v1/identity/users", end.SearchUsers)

	if opt.SeedEnabled {
		r.POST("/api/v1/identity/dev/seed-users", end.SeedUsers)
	}
}
