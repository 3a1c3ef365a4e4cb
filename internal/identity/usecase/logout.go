package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/supavault/internal/pkg/jwt"
)

// Logout has no server-side session to revoke; clearing the cookie is the
// caller's job. It only records who left.
func (s *Usecase) Logout(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "Logout")
	defer span.End()

	if clm := jwt.GetAuth(ctx); clm != nil {
		slog.InfoContext(ctx, "user logged out", "user_id", clm.UserID)
	}

	return nil
}
