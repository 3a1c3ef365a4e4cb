package inbound

import (
	"github.com/samber/lo"
	"github.com/shandysiswandi/supavault/internal/identity/entity"
	"github.com/shandysiswandi/supavault/internal/identity/usecase"
	"github.com/shandysiswandi/supavault/internal/pkg/router"
)

// HTTPEndpoint exposes the OTP login flow and session endpoints.
type HTTPEndpoint struct {
	uc     uc
	cookie CookieConfig
}

// IssueChallenge sends a verification code for signup or login.
// @Summary Request verification code
// @Description Creates a one-time code for the identity and emails it. A new request replaces any pending code for the same username and email.
// @Tags Identity, OTP
// @Accept json
// @Produce json
// @Param request body IssueChallengeRequest true "Challenge payload"
// @Success 200 {object} router.successResponse{data=IssueChallengeResponse} "Challenge issued"
// @Failure 400 {object} router.errorResponse "Email already registered"
// @Failure 404 {object} router.errorResponse "User not found"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Too many requests"
// @Failure 502 {object} router.errorResponse "Failed to deliver verification code"
// @Router /api/v1/identity/otp/request [post]
func (h *HTTPEndpoint) IssueChallenge(r *router.Request) (any, error) {
	var req IssueChallengeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	return h.issue(r, usecase.IssueChallengeInput{
		Mode:     req.Mode,
		Username: req.Username,
		Email:    req.Email,
	})
}

// Signup sends a verification code to a new email.
// @Summary Sign up
// @Tags Identity, OTP
// @Accept json
// @Produce json
// @Param request body SignupRequest true "Signup payload"
// @Success 200 {object} router.successResponse{data=IssueChallengeResponse} "Challenge issued"
// @Failure 400 {object} router.errorResponse "Email already registered"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 502 {object} router.errorResponse "Failed to deliver verification code"
// @Router /api/v1/identity/signup [post]
func (h *HTTPEndpoint) Signup(r *router.Request) (any, error) {
	var req SignupRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	return h.issue(r, usecase.IssueChallengeInput{
		Mode:     entity.IssueModeSignup.String(),
		Username: req.Username,
		Email:    req.Email,
	})
}

// Login sends a verification code to a registered email.
// @Summary Log in
// @Tags Identity, OTP
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login payload"
// @Success 200 {object} router.successResponse{data=IssueChallengeResponse} "Challenge issued"
// @Failure 404 {object} router.errorResponse "User not found"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 502 {object} router.errorResponse "Failed to deliver verification code"
// @Router /api/v1/identity/login [post]
func (h *HTTPEndpoint) Login(r *router.Request) (any, error) {
	var req LoginRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	return h.issue(r, usecase.IssueChallengeInput{
		Mode:  entity.IssueModeLogin.String(),
		Email: req.Email,
	})
}

func (h *HTTPEndpoint) issue(r *router.Request, in usecase.IssueChallengeInput) (any, error) {
	resp, err := h.uc.IssueChallenge(r.Context(), in)
	if err != nil {
		return nil, err
	}

	return IssueChallengeResponse{ID: resp.ID, Username: resp.Username}, nil
}

// Verify exchanges a code for a session cookie.
// @Summary Verify code
// @Description Checks the code against its challenge. On success the session token is set as an HttpOnly cookie.
// @Tags Identity, OTP
// @Accept json
// @Produce json
// @Param request body VerifyRequest true "Verification payload"
// @Success 200 {object} router.successResponse{data=VerifyResponse} "Verified"
// @Failure 400 {object} router.errorResponse "Verification failed"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/v1/identity/otp/verify [post]
func (h *HTTPEndpoint) Verify(r *router.Request) (any, error) {
	var req VerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Verify(r.Context(), usecase.VerifyInput{
		OtpID:    req.OtpID,
		Username: req.Username,
		Email:    req.Email,
		OtpCode:  req.OtpCode,
	})
	if err != nil {
		return nil, err
	}

	return VerifyResponse{
		Success: true,
		cookie:  h.cookie.session(resp.Token, resp.ExpiresIn),
	}, nil
}

// Me returns the authenticated user.
// @Summary Current user
// @Tags Identity, Session
// @Produce json
// @Success 200 {object} router.successResponse{data=UserResponse} "Current user"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 404 {object} router.errorResponse "User not found"
// @Router /api/v1/identity/me [get]
func (h *HTTPEndpoint) Me(r *router.Request) (any, error) {
	resp, err := h.uc.Me(r.Context())
	if err != nil {
		return nil, err
	}

	return UserResponse{ID: resp.ID, Username: resp.Username, Email: resp.Email}, nil
}

// Logout clears the session cookie.
// @Summary Log out
// @Tags Identity, Session
// @Produce json
// @Success 200 {object} router.successResponse "Logged out"
// @Router /api/v1/identity/logout [post]
func (h *HTTPEndpoint) Logout(r *router.Request) (any, error) {
	if err := h.uc.Logout(r.Context()); err != nil {
		return nil, err
	}

	return LogoutResponse{cookie: h.cookie.cleared()}, nil
}

// SearchUsers finds other users by username.
// @Summary Search users
// @Tags Identity, Users
// @Produce json
// @Param search query string false "Username fragment"
// @Success 200 {object} router.successResponse{data=[]UserResponse} "Matching users"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/v1/identity/users [get]
func (h *HTTPEndpoint) SearchUsers(r *router.Request) (any, error) {
	resp, err := h.uc.SearchUsers(r.Context(), usecase.SearchUsersInput{Term: r.GetQuery("search")})
	if err != nil {
		return nil, err
	}

	return SearchUsersResponse(lo.Map(resp, func(u usecase.SearchUsersItem, _ int) UserResponse {
		return UserResponse{ID: u.ID, Username: u.Username, Email: u.Email}
	})), nil
}

// SeedUsers creates the demo accounts.
// @Summary Seed demo users
// @Tags Identity, Development
// @Produce json
// @Success 200 {object} router.successResponse{data=SeedUsersResponse} "Seeded"
// @Router /api/v1/identity/dev/seed-users [post]
func (h *HTTPEndpoint) SeedUsers(r *router.Request) (any, error) {
	resp, err := h.uc.SeedUsers(r.Context())
	if err != nil {
		return nil, err
	}

	return SeedUsersResponse{Created: resp.Created}, nil
}
