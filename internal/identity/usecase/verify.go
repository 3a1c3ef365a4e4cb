package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/supavault/internal/identity/entity"
	"github.com/shandysiswandi/supavault/internal/pkg/goerror"
)

type VerifyInput struct {
	OtpID    string `validate:"required,max=64"`
	Username string `validate:"required,max=100"`
	Email    string `validate:"required,max=255"`
	OtpCode  string `validate:"required,max=32"`
}

type VerifyOutput struct {
	UserID int64
	// Token is the signed session token.
	Token     string
	ExpiresIn time.Duration
	// Created is true when this verification registered the user.
	Created bool
}

// Verify checks a submitted code against its challenge and, on success,
// consumes the challenge and issues a session for the bound email.
func (s *Usecase) Verify(ctx context.Context, in VerifyInput) (*VerifyOutput, error) {
	ctx, span := s.startSpan(ctx, "Verify")
	defer span.End()

	in.OtpID = strings.TrimSpace(in.OtpID)
	in.Username = strings.TrimSpace(in.Username)
	in.Email = entity.NormalizeEmail(in.Email)
	in.OtpCode = strings.TrimSpace(in.OtpCode)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	// The attempt is counted before the code is compared, so concurrent
	// guesses share one budget.
	chal, err := s.repoChallenge.ReserveAttempt(ctx, in.OtpID, s.maxAttempts())
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "otp challenge missing or out of attempts", "challenge_id", in.OtpID)

		if err := s.repoChallenge.DeleteChallenge(ctx, in.OtpID); err != nil && !errors.Is(err, goerror.ErrNotFound) {
			slog.ErrorContext(ctx, "failed to repo delete challenge", "challenge_id", in.OtpID, "error", err)
			return nil, goerror.NewServer(err)
		}

		return nil, errVerificationFailed()
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo reserve challenge attempt", "challenge_id", in.OtpID, "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()
	window := s.expiry()

	if chal.Expired(now, window) {
		slog.WarnContext(ctx, "otp verification rejected",
			"challenge_id", chal.ID,
			"checks", []entity.VerifyCheck{entity.VerifyCheckExpiry},
			"elapsed", chal.Elapsed(now).String(),
		)

		if err := s.repoChallenge.DeleteChallenge(ctx, chal.ID); err != nil && !errors.Is(err, goerror.ErrNotFound) {
			slog.ErrorContext(ctx, "failed to repo delete challenge", "challenge_id", chal.ID, "error", err)
			return nil, goerror.NewServer(err)
		}

		return nil, errVerificationFailed()
	}

	if failed := s.failedChecks(chal, in); len(failed) > 0 {
		slog.WarnContext(ctx, "otp verification rejected", "challenge_id", chal.ID, "attempts", chal.Attempts, "checks", failed)
		return nil, errVerificationFailed()
	}

	consumed, err := s.repoChallenge.ConsumeChallenge(ctx, chal.ID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo consume challenge", "challenge_id", chal.ID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if !consumed {
		slog.WarnContext(ctx, "otp challenge already consumed", "challenge_id", chal.ID)
		return nil, errVerificationFailed()
	}

	user, created, err := s.findOrCreateUser(ctx, chal.Username, chal.Email)
	if err != nil {
		return nil, err
	}

	if created {
		if err := s.repoMessaging.PublishUserRegistered(ctx, UserRegisteredEvent{
			UserID:   user.ID,
			Username: user.Username,
			Email:    user.Email,
		}); err != nil {
			slog.ErrorContext(ctx, "failed to publish user registered", "user_id", user.ID, "error", err)
		}
	}

	token, err := s.jwt.Generate(user.ID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate session token", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "otp verification succeeded", "challenge_id", chal.ID, "user_id", user.ID, "created", created)

	return &VerifyOutput{
		UserID:    user.ID,
		Token:     token,
		ExpiresIn: s.jwt.TTL(),
		Created:   created,
	}, nil
}

// failedChecks evaluates every binding check so the log names all of them,
// not just the first. Expiry was already ruled out by the caller.
func (s *Usecase) failedChecks(chal *entity.Challenge, in VerifyInput) []entity.VerifyCheck {
	var failed []entity.VerifyCheck

	if in.Username != chal.Username {
		failed = append(failed, entity.VerifyCheckUsername)
	}
	if in.OtpID != chal.ID {
		failed = append(failed, entity.VerifyCheckID)
	}
	if in.Email != chal.Email {
		failed = append(failed, entity.VerifyCheckEmail)
	}
	if !s.hasher.Verify(chal.CodeHash, in.OtpCode) {
		failed = append(failed, entity.VerifyCheckCode)
	}

	return failed
}

func (s *Usecase) findOrCreateUser(ctx context.Context, username, email string) (*entity.User, bool, error) {
	user, err := s.repoDB.GetUserByEmail(ctx, email)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo get user by email", "email", email, "error", err)
		return nil, false, goerror.NewServer(err)
	}

	newUser := entity.User{
		ID:        s.uid.Generate(),
		Username:  username,
		Email:     email,
		CreatedAt: s.clock.Now(),
	}

	err = s.repoDB.CreateUser(ctx, newUser)
	if err == nil {
		return &newUser, true, nil
	}
	if !errors.Is(err, goerror.ErrConflict) {
		slog.ErrorContext(ctx, "failed to repo create user", "email", email, "error", err)
		return nil, false, goerror.NewServer(err)
	}

	// lost a race with another verification for the same email
	user, err = s.repoDB.GetUserByEmail(ctx, email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo re-read user after conflict", "email", email, "error", err)
		return nil, false, goerror.NewServer(err)
	}

	return user, false, nil
}
