package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/shandysiswandi/supavault/internal/pkg/idempotency"
)

type ConsumeUserRegisteredInput struct {
	UserID   int64  `validate:"required,gt=0"`
	Username string `validate:"required,max=100"`
	Email    string `validate:"required,email,max=255"`
}

func welcomeKey(userID int64) string {
	return "notification:welcome:" + strconv.FormatInt(userID, 10)
}

// ConsumeUserRegistered sends the welcome email once per user, however many
// times the event is delivered. A returned error asks the broker to redeliver.
func (s *Usecase) ConsumeUserRegistered(ctx context.Context, in ConsumeUserRegisteredInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeUserRegistered")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "user_id", in.UserID, "error", err)
		return nil
	}

	err := s.idempotency.Exec(ctx, welcomeKey(in.UserID), func(ctx context.Context) error {
		return s.sendWelcomeEmail(ctx, in)
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, idempotency.ErrAlreadyCompleted):
		slog.InfoContext(ctx, "welcome email already sent", "user_id", in.UserID)
		return nil
	case errors.Is(err, idempotency.ErrAlreadyInProgress):
		slog.WarnContext(ctx, "welcome email is being sent by another worker", "user_id", in.UserID)
		return err
	default:
		slog.ErrorContext(ctx, "failed to send welcome email", "user_id", in.UserID, "error", err)
		return err
	}
}
