package entity

import "strings"

// IssueMode selects how a challenge resolves its identity.
type IssueMode string

const (
	IssueModeUnknown IssueMode = ""
	// IssueModeSignup requires the email to be unused and takes the username from the caller.
	IssueModeSignup IssueMode = "signup"
	// IssueModeLogin requires an existing user and takes the username from it.
	IssueModeLogin IssueMode = "login"
)

func IssueModeFromString(s string) IssueMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "signup":
		return IssueModeSignup
	case "login":
		return IssueModeLogin
	default:
		return IssueModeUnknown
	}
}

func (m IssueMode) String() string {
	return string(m)
}

// VerifyCheck names the check a failed verification tripped. It is logged,
// never returned to the caller.
type VerifyCheck string

const (
	VerifyCheckUsername VerifyCheck = "username"
	VerifyCheckID       VerifyCheck = "id"
	VerifyCheckEmail    VerifyCheck = "email"
	VerifyCheckCode     VerifyCheck = "code"
	VerifyCheckExpiry   VerifyCheck = "expiry"
)
