package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/supavault/internal/pkg/goerror"
	"github.com/shandysiswandi/supavault/internal/pkg/jwt"
)

type MeOutput struct {
	ID       int64
	Username string
	Email    string
}

// Me resolves the authenticated caller and confirms the account still exists.
func (s *Usecase) Me(ctx context.Context) (*MeOutput, error) {
	ctx, span := s.startSpan(ctx, "Me")
	defer span.End()

	clm := jwt.GetAuth(ctx)
	if clm == nil || clm.UserID == 0 {
		return nil, errUnauthorized()
	}

	user, err := s.repoDB.GetUserByID(ctx, clm.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "session user no longer exists", "user_id", clm.UserID)
		return nil, errUserNotFound()
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by id", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &MeOutput{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	}, nil
}
