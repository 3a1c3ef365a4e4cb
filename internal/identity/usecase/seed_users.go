package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/supavault/internal/identity/entity"
	"github.com/shandysiswandi/supavault/internal/pkg/goerror"
)

type SeedUsersOutput struct {
	Created int
}

// SeedUsers inserts the demo accounts that do not exist yet.
func (s *Usecase) SeedUsers(ctx context.Context) (*SeedUsersOutput, error) {
	ctx, span := s.startSpan(ctx, "SeedUsers")
	defer span.End()

	created := 0
	for _, seed := range entity.SeedUsers {
		ok, err := s.repoDB.CreateUserIfAbsent(ctx, entity.User{
			ID:        s.uid.Generate(),
			Username:  seed.Username,
			Email:     seed.Email,
			CreatedAt: s.clock.Now(),
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo seed user", "email", seed.Email, "error", err)
			return nil, goerror.NewServer(err)
		}
		if ok {
			created++
		}
	}

	slog.InfoContext(ctx, "demo users seeded", "created", created)

	return &SeedUsersOutput{Created: created}, nil
}
