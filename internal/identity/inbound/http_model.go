package inbound

import "net/http"

type IssueChallengeRequest struct {
	Mode     string `json:"mode"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type LoginRequest struct {
	Email string `json:"email"`
}

type IssueChallengeResponse struct {
	ID       string `json:"id" example:"01J9ZQ5V4T8M6X2K3N7R1B0C9D"`
	Username string `json:"username" example:"Carol"`
}

func (IssueChallengeResponse) Message() string {
	return "Verification code sent"
}

type VerifyRequest struct {
	OtpCode  string `json:"otp_code"`
	Username string `json:"username"`
	OtpID    string `json:"otp_id"`
	Email    string `json:"email"`
}

type VerifyResponse struct {
	Success bool `json:"success"`

	cookie *http.Cookie
}

func (VerifyResponse) Message() string {
	return "Verification succeeded"
}

func (r VerifyResponse) Cookies() []*http.Cookie {
	return []*http.Cookie{r.cookie}
}

type LogoutResponse struct {
	cookie *http.Cookie
}

func (LogoutResponse) Message() string {
	return "Logged out"
}

func (r LogoutResponse) Cookies() []*http.Cookie {
	return []*http.Cookie{r.cookie}
}

type UserResponse struct {
	ID       int64  `json:"id,string" example:"1234567890123456789"`
	Username string `json:"username" example:"Carol"`
	Email    string `json:"email" example:"carol@example.com"`
}

type SearchUsersResponse []UserResponse

func (r SearchUsersResponse) Meta() map[string]any {
	return map[string]any{"count": len(r)}
}

type SeedUsersResponse struct {
	Created int `json:"created"`
}

func (SeedUsersResponse) Message() string {
	return "Demo users seeded"
}
