package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChannel(t *testing.T) {
	assert.Equal(t, "email", ChannelEmail.String())
	assert.Equal(t, "unknown", Channel(9).String())
}

func TestDeliveryStatus_String(t *testing.T) {
	tests := map[DeliveryStatus]string{
		DeliveryStatusQueued:  "queued",
		DeliveryStatusSent:    "sent",
		DeliveryStatusFailed:  "failed",
		DeliveryStatusUnknown: "unknown",
	}

	for status, want := range tests {
		assert.Equal(t, want, status.String())
	}
}
