package entity

// Channel is the medium a notification went out on. Values are persisted.
type Channel int16

const (
	ChannelUnknown Channel = 0
	ChannelEmail   Channel = 2
)

func (c Channel) String() string {
	if c == ChannelEmail {
		return "email"
	}
	return "unknown"
}

// DeliveryStatus tracks a delivery log row: queued before the send, then
// sent or failed.
type DeliveryStatus int16

const (
	DeliveryStatusUnknown DeliveryStatus = 0
	DeliveryStatusQueued  DeliveryStatus = 1
	DeliveryStatusSent    DeliveryStatus = 3
	DeliveryStatusFailed  DeliveryStatus = 4
)

var deliveryStatusNames = map[DeliveryStatus]string{
	DeliveryStatusQueued: "queued",
	DeliveryStatusSent:   "sent",
	DeliveryStatusFailed: "failed",
}

func (s DeliveryStatus) String() string {
	if name, ok := deliveryStatusNames[s]; ok {
		return name
	}
	return "unknown"
}

// TriggerKey names the event that caused a notification.
type TriggerKey string

const TriggerKeyUserWelcome TriggerKey = "user_welcome"

func (tk TriggerKey) String() string { return string(tk) }
