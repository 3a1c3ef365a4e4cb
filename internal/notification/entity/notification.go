package entity

import (
	"time"

	"github.com/shandysiswandi/supavault/internal/pkg/valueobject"
)

// DeliveryLog records one attempt to reach a user on a channel.
type DeliveryLog struct {
	ID               int64
	UserID           int64
	Channel          Channel
	TriggerKey       TriggerKey
	Recipient        string
	Status           DeliveryStatus
	ProviderResponse valueobject.JSONMap
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type UpdateDeliveryLog struct {
	ID               int64
	Status           DeliveryStatus
	ProviderResponse valueobject.JSONMap
	UpdatedAt        time.Time
}
