package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/samber/lo"
	"github.com/shandysiswandi/supavault/internal/identity/entity"
	"github.com/shandysiswandi/supavault/internal/pkg/goerror"
	"github.com/shandysiswandi/supavault/internal/pkg/jwt"
)

type SearchUsersInput struct {
	Term string `validate:"max=100"`
}

type SearchUsersItem struct {
	ID       int64
	Username string
	Email    string
}

// SearchUsers finds other users whose username contains Term, ignoring case.
func (s *Usecase) SearchUsers(ctx context.Context, in SearchUsersInput) ([]SearchUsersItem, error) {
	ctx, span := s.startSpan(ctx, "SearchUsers")
	defer span.End()

	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, errUnauthorized()
	}

	in.Term = strings.TrimSpace(in.Term)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	users, err := s.repoDB.SearchUsers(ctx, in.Term, clm.UserID, s.searchLimit())
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo search users", "term", in.Term, "error", err)
		return nil, goerror.NewServer(err)
	}

	return lo.Map(users, func(u entity.User, _ int) SearchUsersItem {
		return SearchUsersItem{ID: u.ID, Username: u.Username, Email: u.Email}
	}), nil
}
