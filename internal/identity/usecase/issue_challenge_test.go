package usecase

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/shandysiswandi/supavault/internal/pkg/goerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sixDigits = regexp.MustCompile(`^[0-9]{6}$`)

func TestIssueChallenge_SignupNewEmail(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	out, err := f.uc.IssueChallenge(context.Background(), IssueChallengeInput{
		Mode:     "signup",
		Username: "Carol",
		Email:    "  Carol@Example.com ",
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "Carol", out.Username)

	chal, ok := f.store.challenge(out.ID)
	if !ok {
		t.Fatalf("challenge %s was not stored", out.ID)
	}
	assert.Equal(t, 0, chal.Attempts)
	assert.Equal(t, "carol@example.com", chal.Email)
	assert.Equal(t, f.clock.Now(), chal.CreatedAt)

	code := f.mail.lastCode(t)
	assert.Regexp(t, sixDigits, code)
	assert.NotEqual(t, code, chal.CodeHash, "code must not be stored in clear")
	assert.Equal(t, "carol@example.com", f.mail.sent[0].To)
	assert.Equal(t, "Carol", f.mail.sent[0].Username)
}

func TestIssueChallenge_SignupExistingEmail(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.addUser(1, "Bob", "bob@example.com")

	// Act
	_, err := f.uc.IssueChallenge(context.Background(), IssueChallengeInput{
		Mode:     "signup",
		Username: "Bobby",
		Email:    "bob@example.com",
	})

	// Assert
	assertCode(t, err, goerror.CodeBadRequest, "Email already registered")
	assert.Empty(t, f.mail.sent)
}

func TestIssueChallenge_LoginUsesStoredUsername(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.addUser(1, "Bob", "bob@example.com")

	// Act
	out, err := f.uc.IssueChallenge(context.Background(), IssueChallengeInput{
		Mode:     "login",
		Username: "Mallory",
		Email:    "BOB@example.com",
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "Bob", out.Username)

	chal, _ := f.store.challenge(out.ID)
	assert.Equal(t, "Bob", chal.Username)
}

func TestIssueChallenge_LoginUnknownEmail(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.IssueChallenge(context.Background(), IssueChallengeInput{Mode: "login", Email: "ghost@example.com"})

	assertCode(t, err, goerror.CodeNotFound, "User not found")
}

func TestIssueChallenge_Validation(t *testing.T) {
	tests := []struct {
		name string
		in   IssueChallengeInput
	}{
		{name: "missing email", in: IssueChallengeInput{Mode: "login"}},
		{name: "bad email", in: IssueChallengeInput{Mode: "login", Email: "not-an-email"}},
		{name: "unknown mode", in: IssueChallengeInput{Mode: "register", Email: "a@example.com"}},
		{name: "signup without username", in: IssueChallengeInput{Mode: "signup", Email: "a@example.com"}},
		{name: "signup short username", in: IssueChallengeInput{Mode: "signup", Username: "ab", Email: "a@example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			_, err := f.uc.IssueChallenge(context.Background(), tt.in)

			assertCode(t, err, goerror.CodeInvalidInput, "")
		})
	}
}

func TestIssueChallenge_SupersedesPreviousChallenge(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.addUser(1, "Bob", "bob@example.com")
	ctx := context.Background()

	first, err := f.uc.IssueChallenge(ctx, IssueChallengeInput{Mode: "login", Email: "bob@example.com"})
	require.NoError(t, err)
	firstCode := f.mail.lastCode(t)

	// Act
	second, err := f.uc.IssueChallenge(ctx, IssueChallengeInput{Mode: "login", Email: "bob@example.com"})
	require.NoError(t, err)

	// Assert
	assert.NotEqual(t, first.ID, second.ID)
	_, stillThere := f.store.challenge(first.ID)
	assert.False(t, stillThere)

	_, err = f.uc.Verify(ctx, VerifyInput{OtpID: first.ID, Username: "Bob", Email: "bob@example.com", OtpCode: firstCode})
	assertCode(t, err, goerror.CodeBadRequest, "Verification failed")
}

func TestIssueChallenge_DeliveryFailure(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.mail.err = errors.New("smtp: 554 rejected")

	// Act
	out, err := f.uc.IssueChallenge(context.Background(), IssueChallengeInput{
		Mode:     "signup",
		Username: "Carol",
		Email:    "carol@example.com",
	})

	// Assert
	assert.Nil(t, out)
	assertCode(t, err, goerror.CodeBadGateway, "Failed to deliver verification code")
	assert.Empty(t, f.store.challenges, "undelivered challenge must not be stored")
}

func TestIssueChallenge_FailedResendKeepsDeliveredChallenge(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.addUser(1, "Bob", "bob@example.com")
	ctx := context.Background()
	id, code := issueLogin(t, f, "bob@example.com")
	f.mail.err = errors.New("smtp: 421 try again later")

	// Act
	_, resendErr := f.uc.IssueChallenge(ctx, IssueChallengeInput{Mode: "login", Email: "bob@example.com"})
	out, err := f.uc.Verify(ctx, VerifyInput{OtpID: id, Username: "Bob", Email: "bob@example.com", OtpCode: code})

	// Assert
	assertCode(t, resendErr, goerror.CodeBadGateway, "Failed to deliver verification code")
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.UserID)
}

func TestIssueChallenge_StoreFailure(t *testing.T) {
	f := newFixture(t)
	f.store.failUpsert = errors.New("connection reset")

	_, err := f.uc.IssueChallenge(context.Background(), IssueChallengeInput{Mode: "signup", Username: "Carol", Email: "carol@example.com"})

	assertCode(t, err, goerror.CodeInternal, "")
	assert.Len(t, f.mail.sent, 1, "the code is mailed before the store is touched")
	assert.Empty(t, f.store.challenges)
}
