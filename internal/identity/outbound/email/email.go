package email

import (
	"bytes"
	"context"
	"html/template"
	"math"
	"strconv"
	textTemplate "text/template"
	"time"

	"github.com/shandysiswandi/supavault/internal/identity/usecase"
	"github.com/shandysiswandi/supavault/internal/pkg/instrument"
	"github.com/shandysiswandi/supavault/internal/pkg/mail"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const otpSubject = "🚀Your Magic Code Has Arrived!"

var otpHTML = template.Must(template.New("otp_html").Parse(`<!DOCTYPE html>
<html>
  <body style="font-family: Arial, sans-serif; color: #1f2937;">
    <p>Hi {{.Username}},</p>
    <p>Here is your verification code for {{.AppName}}:</p>
    <p style="font-size: 28px; font-weight: bold; letter-spacing: 6px;">{{.Code}}</p>
    <p>This code expires in {{.ExpiresIn}}. If you did not request it, you can ignore this email.</p>
  </body>
</html>
`))

var otpText = textTemplate.Must(textTemplate.New("otp_text").Parse(`Hi {{.Username}},

Here is your verification code for {{.AppName}}: {{.Code}}

This code expires in {{.ExpiresIn}}. If you did not request it, you can ignore this email.
`))

type otpData struct {
	AppName   string
	Username  string
	Code      string
	ExpiresIn string
}

// Mail is the OTP delivery gateway.
type Mail struct {
	client  mail.Mail
	ins     instrument.Instrumentation
	appName string
}

func New(client mail.Mail, ins instrument.Instrumentation, appName string) *Mail {
	if appName == "" {
		appName = "SupaVault"
	}
	return &Mail{client: client, ins: ins, appName: appName}
}

func (m *Mail) SendOTP(ctx context.Context, msg usecase.OTPMail) error {
	ctx, span := m.ins.Tracer("identity.outbound.email").Start(ctx, "SendOTP")
	defer span.End()

	data := otpData{
		AppName:   m.appName,
		Username:  msg.Username,
		Code:      msg.Code,
		ExpiresIn: humanMinutes(msg.ExpiresIn),
	}

	var html, text bytes.Buffer
	if err := otpHTML.Execute(&html, data); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if err := otpText.Execute(&text, data); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	receipt, err := m.client.Send(ctx, mail.Message{
		To:       []string{msg.To},
		Subject:  otpSubject,
		HTMLBody: html.String(),
		TextBody: text.String(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetAttributes(
		attribute.String("mail.provider", receipt.Provider),
		attribute.String("mail.message_id", receipt.MessageID),
	)

	return nil
}

func humanMinutes(d time.Duration) string {
	n := int(math.Ceil(d.Minutes()))
	if n == 1 {
		return "1 minute"
	}
	return strconv.Itoa(n) + " minutes"
}
