package service

import (
	"context"
	"fmt"
	"html"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"go.uber.org/zap"

	appconfig "pagetrail/internal/config"
	"pagetrail/internal/models"
)

// sesAPI is the part of the SES client the email service needs
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailService sends badge notifications via Amazon SES
type EmailService struct {
	client    sesAPI
	fromEmail string
	fromName  string
	toEmail   string
	enabled   bool
	debug     bool
	logger    *zap.Logger
}

// NewEmailService creates a new email service. Without a sender or recipient
// the service is created disabled and drops every event.
func NewEmailService(ctx context.Context, cfg appconfig.EmailConfig, logger *zap.Logger) (*EmailService, error) {
	if cfg.FromEmail == "" || cfg.To == "" {
		logger.Info("Email service disabled: SES_FROM_EMAIL or NOTIFY_EMAIL not configured")
		return &EmailService{enabled: false, debug: cfg.Debug, logger: logger}, nil
	}

	if cfg.Debug {
		logger.Debug("Initializing email service with AWS SES",
			zap.String("region", cfg.Region),
			zap.String("from", cfg.FromEmail),
			zap.String("to", cfg.To),
		)
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	logger.Info("Email service enabled", zap.String("from", cfg.FromEmail), zap.String("region", cfg.Region))
	return newEmailService(sesv2.NewFromConfig(awsCfg), cfg, logger), nil
}

func newEmailService(client sesAPI, cfg appconfig.EmailConfig, logger *zap.Logger) *EmailService {
	return &EmailService{
		client:    client,
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		toEmail:   cfg.To,
		enabled:   true,
		debug:     cfg.Debug,
		logger:    logger,
	}
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// BadgeEarned e-mails the configured recipient. Send failures are logged.
func (s *EmailService) BadgeEarned(ctx context.Context, badge models.BadgeDefinition) {
	if err := s.SendBadgeEmail(ctx, badge); err != nil {
		s.logger.Error("Failed to send badge email", zap.String("badge", badge.ID), zap.Error(err))
	}
}

// SendBadgeEmail sends a congratulation mail for badge
func (s *EmailService) SendBadgeEmail(ctx context.Context, badge models.BadgeDefinition) error {
	if !s.enabled {
		if s.debug {
			s.logger.Debug("Skipping email send (service disabled)", zap.String("badge", badge.ID))
		}
		return nil
	}

	subject := fmt.Sprintf("%s New badge unlocked: %s", badge.Icon, badge.Name)
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.badge { font-size: 48px; text-align: center; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		<div class="badge">%s</div>
		<h1>%s</h1>
		<p>%s</p>
		<div class="footer">
			<p>This is an automated email from PageTrail. Please do not reply.</p>
		</div>
	</div>
</body>
</html>
`, html.EscapeString(badge.Icon), html.EscapeString(badge.Name), html.EscapeString(badge.Description))

	textBody := fmt.Sprintf(`%s %s

%s

---
This is an automated email from PageTrail. Please do not reply.
`, badge.Icon, badge.Name, badge.Description)

	return s.sendEmail(ctx, subject, htmlBody, textBody)
}

// sendEmail sends an email using Amazon SES
func (s *EmailService) sendEmail(ctx context.Context, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{s.toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", s.toEmail, err)
	}

	if s.debug && result.MessageId != nil {
		s.logger.Debug("SES SendEmail succeeded", zap.String("message_id", *result.MessageId))
	}
	s.logger.Info("Email sent successfully", zap.String("to", s.toEmail), zap.String("subject", subject))
	return nil
}
