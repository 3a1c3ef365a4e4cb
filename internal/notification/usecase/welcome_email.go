package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shandysiswandi/supavault/internal/notification/entity"
	"github.com/shandysiswandi/supavault/internal/pkg/mail"
	"github.com/shandysiswandi/supavault/internal/pkg/valueobject"
)

const welcomeSubject = "Welcome to {{.app_name}}, {{.username}}!"

const welcomeHTML = `<!DOCTYPE html>
<html>
  <body style="font-family: Arial, sans-serif; color: #1f2937;">
    <p>Hi {{.username}},</p>
    <p>Your {{.app_name}} account is ready. Next time, just enter your email and we will send you a sign-in code.</p>
    {{if .app_url}}<p><a href="{{.app_url}}">Open {{.app_name}}</a></p>{{end}}
    {{if .support_email}}<p>Questions? Write to {{.support_email}}.</p>{{end}}
    <p style="color: #6b7280;">&copy; {{.year}} {{.app_name}}</p>
  </body>
</html>
`

const welcomeText = `Hi {{.username}},

Your {{.app_name}} account is ready. Next time, just enter your email and we will send you a sign-in code.
`

func (s *Usecase) sendWelcomeEmail(ctx context.Context, in ConsumeUserRegisteredInput) error {
	data := s.baseEmailTemplateData()
	data["username"] = in.Username

	subject, err := s.renderText("welcome_subject", welcomeSubject, data)
	if err != nil {
		return fmt.Errorf("render welcome subject: %w", err)
	}
	body, err := s.renderTemplate("welcome_html", welcomeHTML, data)
	if err != nil {
		return fmt.Errorf("render welcome body: %w", err)
	}
	text, err := s.renderText("welcome_text", welcomeText, data)
	if err != nil {
		return fmt.Errorf("render welcome text: %w", err)
	}

	logID := s.uid.Generate()
	if err := s.repoDB.CreateDeliveryLog(ctx, entity.DeliveryLog{
		ID:               logID,
		UserID:           in.UserID,
		Channel:          entity.ChannelEmail,
		TriggerKey:       entity.TriggerKeyUserWelcome,
		Recipient:        in.Email,
		Status:           entity.DeliveryStatusQueued,
		ProviderResponse: valueobject.JSONMap{},
		CreatedAt:        s.clock.Now(),
	}); err != nil {
		return fmt.Errorf("create delivery log: %w", err)
	}

	receipt, mailErr := s.repoMail.Send(ctx, mail.Message{
		To:       []string{in.Email},
		Subject:  subject,
		HTMLBody: body,
		TextBody: text,
	})

	up := entity.UpdateDeliveryLog{
		ID:        logID,
		Status:    entity.DeliveryStatusSent,
		UpdatedAt: s.clock.Now(),
		ProviderResponse: valueobject.JSONMap{
			"provider":   receipt.Provider,
			"message_id": receipt.MessageID,
		},
	}
	if mailErr != nil {
		up.Status = entity.DeliveryStatusFailed
		up.ProviderResponse = valueobject.JSONMap{"error": mailErr.Error()}
	}

	if err := s.repoDB.UpdateDeliveryLogStatus(ctx, up); err != nil {
		slog.ErrorContext(ctx, "failed to repo update delivery log status", "log_id", logID, "status", up.Status.String(), "error", err)
	}

	if mailErr != nil {
		return fmt.Errorf("send welcome email: %w", mailErr)
	}

	return nil
}
