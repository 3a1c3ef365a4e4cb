package inbound

import (
	"context"

	"github.com/shandysiswandi/supavault/internal/notification/usecase"
)

type uc interface {
	ConsumeUserRegistered(ctx context.Context, in usecase.ConsumeUserRegisteredInput) error
}
