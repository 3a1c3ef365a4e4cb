package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/supavault/internal/identity/entity"
	"github.com/shandysiswandi/supavault/internal/pkg/goerror"
)

type IssueChallengeInput struct {
	Mode string `validate:"required,oneof=signup login"`
	// Username is only read for signup; login takes it from the stored user.
	Username string `validate:"omitempty,min=3,max=100,username"`
	Email    string `validate:"required,email,max=255"`
}

type IssueChallengeOutput struct {
	ID       string
	Username string
}

// IssueChallenge mails a fresh code for an identity and stores its challenge,
// replacing the previous one.
func (s *Usecase) IssueChallenge(ctx context.Context, in IssueChallengeInput) (*IssueChallengeOutput, error) {
	ctx, span := s.startSpan(ctx, "IssueChallenge")
	defer span.End()

	in.Mode = strings.ToLower(strings.TrimSpace(in.Mode))
	in.Email = entity.NormalizeEmail(in.Email)
	in.Username = strings.TrimSpace(in.Username)

	mode := entity.IssueModeFromString(in.Mode)
	if mode == entity.IssueModeLogin {
		in.Username = ""
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	user, err := s.repoDB.GetUserByEmail(ctx, in.Email)
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo get user by email", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}
	exists := err == nil

	var username string
	switch mode {
	case entity.IssueModeSignup:
		if in.Username == "" {
			return nil, goerror.NewInvalidInput(nil, "username", "username is a required field")
		}
		if exists {
			return nil, goerror.NewBusiness("Email already registered", goerror.CodeBadRequest)
		}
		username = in.Username

	case entity.IssueModeLogin:
		if !exists {
			return nil, errUserNotFound()
		}
		username = user.Username

	default:
		return nil, goerror.NewInvalidInput(nil, "mode", "mode must be one of [signup login]")
	}

	code, err := s.otp.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate otp code", "error", err)
		return nil, goerror.NewServer(err)
	}

	codeHash, err := s.hasher.Hash(code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash otp code", "error", err)
		return nil, goerror.NewServer(err)
	}

	chal := entity.Challenge{
		ID:        s.ulid.Generate(),
		Username:  username,
		Email:     in.Email,
		CodeHash:  string(codeHash),
		Attempts:  0,
		CreatedAt: s.clock.Now(),
	}

	// Delivered before it is stored: a failed send leaves any earlier
	// challenge for this identity in place.
	if err := s.repoEmail.SendOTP(ctx, OTPMail{
		To:        in.Email,
		Username:  username,
		Code:      code,
		ExpiresIn: s.expiry(),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to deliver otp code", "challenge_id", chal.ID, "email", in.Email, "error", err)
		return nil, goerror.NewUpstream(err, "Failed to deliver verification code")
	}

	if err := s.repoChallenge.UpsertChallenge(ctx, chal); err != nil {
		slog.ErrorContext(ctx, "failed to repo upsert challenge", "challenge_id", chal.ID, "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "otp challenge issued", "challenge_id", chal.ID, "mode", mode.String())

	return &IssueChallengeOutput{ID: chal.ID, Username: username}, nil
}
