package mail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	// ErrNoRecipients is returned when a message has no recipients.
	ErrNoRecipients = errors.New("mail: no recipients provided")
	// ErrNoSender is returned when neither the message nor the sender config names a From address.
	ErrNoSender = errors.New("mail: no sender provided")
	// ErrUnknownDriver indicates an unsupported mail driver.
	ErrUnknownDriver = errors.New("mail: unknown driver")
)

const (
	// DriverSMTP selects the SMTP sender.
	DriverSMTP = "smtp"
	// DriverSES selects the Amazon SES v2 sender.
	DriverSES = "ses"
)

// Message is a provider-agnostic email.
type Message struct {
	// From overrides the configured default sender.
	From    string
	To      []string
	Subject string
	// TextBody is the plain-text alternative.
	TextBody string
	HTMLBody string
}

// Receipt describes an accepted message.
type Receipt struct {
	Provider  string `json:"provider"`
	MessageID string `json:"message_id"`
}

// Mail abstracts an email provider.
type Mail interface {
	io.Closer
	// Send hands msg to the provider. A nil error means the provider accepted
	// the message, not that it reached the inbox.
	Send(ctx context.Context, msg Message) (Receipt, error)
}

// FactoryOptions groups config for supported providers.
type FactoryOptions struct {
	SMTP SMTPConfig
	SES  SESConfig
}

// NewFromDriver constructs a Mail implementation by driver name.
func NewFromDriver(ctx context.Context, driver string, opts FactoryOptions) (Mail, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverSMTP, "":
		return NewSMTP(opts.SMTP)
	case DriverSES:
		return NewSES(ctx, opts.SES)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

func resolveSender(msg Message, defaultFrom string) (string, error) {
	if len(msg.To) == 0 {
		return "", ErrNoRecipients
	}
	if msg.From != "" {
		return msg.From, nil
	}
	if defaultFrom != "" {
		return defaultFrom, nil
	}
	return "", ErrNoSender
}
