package services

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"time"

	"github.com/ChartFly/ChartFlyBackEnd/internal/config"
	"github.com/ChartFly/ChartFlyBackEnd/pkg/logger"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// EmailService delivers password reset links
type EmailService interface {
	SendPasswordResetEmail(ctx context.Context, to, resetURL string, expiresAt time.Time) error
}

// NewEmailService picks the provider named in EMAIL_PROVIDER
func NewEmailService(ctx context.Context, cfg config.EmailConfig, log *slog.Logger) (EmailService, error) {
	switch cfg.Provider {
	case "smtp":
		return NewSMTPEmailService(cfg, log), nil
	case "ses":
		return NewAWSSESEmailService(ctx, cfg.AWSRegion, cfg.FromAddress, log)
	case "log":
		return NewLogEmailService(log), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}

type emailMessage struct {
	Subject  string
	HTMLBody string
	TextBody string
}

func passwordResetMessage(resetURL string, expiresAt time.Time) emailMessage {
	minutes := int(time.Until(expiresAt).Round(time.Minute).Minutes())
	if minutes < 1 {
		minutes = 1
	}
	link := html.EscapeString(resetURL)

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #0b1f3a; color: #fff; padding: 20px; text-align: center; border-radius: 4px; }
        .button { display: inline-block; background-color: #1f7aec; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px; margin: 20px 0; }
        .footer { color: #666; font-size: 12px; margin-top: 20px; padding-top: 20px; border-top: 1px solid #eee; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header"><h1>ChartFly Password Reset</h1></div>
        <p>A password reset was requested for your ChartFly admin account.</p>
        <p><a href="%s" class="button">Reset Password</a></p>
        <p>Or copy and paste this link in your browser:<br><code>%s</code></p>
        <p>This link expires in %d minutes and can only be used once.</p>
        <p>If you did not request a reset you can ignore this email. Your password will not change.</p>
        <div class="footer"><p>This is an automated message. Please do not reply.</p></div>
    </div>
</body>
</html>
`, link, link, minutes)

	textBody := fmt.Sprintf(`ChartFly Password Reset

A password reset was requested for your ChartFly admin account.

Open this link to choose a new password:
%s

This link expires in %d minutes and can only be used once.

If you did not request a reset you can ignore this email. Your password will not change.
`, resetURL, minutes)

	return emailMessage{
		Subject:  "Reset your ChartFly password",
		HTMLBody: htmlBody,
		TextBody: textBody,
	}
}

// AWSSESEmailService sends emails using AWS SES
type AWSSESEmailService struct {
	sesClient   *ses.Client
	fromAddress string
	logger      *slog.Logger
}

func NewAWSSESEmailService(ctx context.Context, region, fromAddress string, log *slog.Logger) (*AWSSESEmailService, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSSESEmailService{
		sesClient:   ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		logger:      log,
	}, nil
}

func (s *AWSSESEmailService) SendPasswordResetEmail(ctx context.Context, to, resetURL string, expiresAt time.Time) error {
	msg := passwordResetMessage(resetURL, expiresAt)

	input := &ses.SendEmailInput{
		Source: aws.String(s.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(msg.Subject)},
			Body: &types.Body{
				Html: &types.Content{Data: aws.String(msg.HTMLBody)},
				Text: &types.Content{Data: aws.String(msg.TextBody)},
			},
		},
	}

	result, err := s.sesClient.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error("failed to send password reset email via SES",
			slog.String("email", logger.SanitizedEmail(to)),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("password reset email sent",
		slog.String("email", logger.SanitizedEmail(to)),
		slog.String("message_id", aws.ToString(result.MessageId)))
	return nil
}

// LogEmailService only logs that a message would have been sent. The link is never logged.
type LogEmailService struct {
	logger *slog.Logger
}

func NewLogEmailService(log *slog.Logger) *LogEmailService {
	return &LogEmailService{logger: log}
}

func (s *LogEmailService) SendPasswordResetEmail(ctx context.Context, to, resetURL string, expiresAt time.Time) error {
	s.logger.InfoContext(ctx, "password reset email suppressed by log provider",
		slog.String("email", logger.SanitizedEmail(to)),
		slog.Time("expires_at", expiresAt))
	return nil
}
