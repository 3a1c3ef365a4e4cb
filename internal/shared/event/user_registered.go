package event

const UserRegisteredTopic string = "identity.user_registered"
const UserRegisteredConsumerNotification string = "notification"

// UserRegisteredMessage is published once, when a first successful
// verification creates the user.
type UserRegisteredMessage struct {
	UserID   int64  `json:"user_id,string"`
	Username string `json:"username"`
	Email    string `json:"email"`
}
