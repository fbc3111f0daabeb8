package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/rs/zerolog"

	"bookmatch/internal/export"
	"bookmatch/internal/logging"
)

// sesAPI is the part of the SES client the service uses
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailService mails recommendation snapshots through Amazon SES
type EmailService struct {
	client    sesAPI
	fromEmail string
	fromName  string
	enabled   bool
	logger    zerolog.Logger
}

// NewEmailService creates an email service. An empty fromEmail gives a
// disabled service whose sends are logged and skipped.
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName string) (*EmailService, error) {
	logger := logging.WithComponent("email")

	if fromEmail == "" {
		logger.Info().Msg("Email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{logger: logger}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	logger.Info().Str("from", fromEmail).Str("region", awsRegion).Msg("Email service enabled")
	return newEmailService(sesv2.NewFromConfig(cfg), fromEmail, fromName, logger), nil
}

func newEmailService(client sesAPI, fromEmail, fromName string, logger zerolog.Logger) *EmailService {
	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		fromName:  fromName,
		enabled:   true,
		logger:    logger,
	}
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

var recommendationsHTML = template.Must(template.New("recommendations").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; color: #333;">
	<h2>Book recommendations for {{.ChildName}}</h2>
	<p>Based on {{.ReadingHistoryCount}} books read so far.</p>
	<ol>
	{{- range .Recommendations}}
		<li><strong>{{.Title}}</strong> by {{.Author}} ({{.Score}})<br><em>{{.Reason}}</em></li>
	{{- end}}
	</ol>
</body>
</html>`))

// SendRecommendations mails a snapshot to toEmail and reports whether anything was sent
func (s *EmailService) SendRecommendations(ctx context.Context, toEmail string, snap export.Snapshot) (bool, error) {
	if !s.enabled {
		s.logger.Info().Str("to", toEmail).Msg("Skipping email send (service disabled)")
		return false, nil
	}
	if len(snap.Recommendations) == 0 {
		return false, ErrNothingToExport
	}

	var html bytes.Buffer
	if err := recommendationsHTML.Execute(&html, snap); err != nil {
		return false, fmt.Errorf("failed to render email: %w", err)
	}

	var text strings.Builder
	fmt.Fprintf(&text, "Book recommendations for %s\n\n", snap.ChildName)
	for i, item := range snap.Recommendations {
		fmt.Fprintf(&text, "%d. %s by %s (%d)\n   %s\n", i+1, item.Title, item.Author, item.Score, item.Reason)
	}

	subject := fmt.Sprintf("Book recommendations for %s", snap.ChildName)
	if err := s.send(ctx, toEmail, subject, html.String(), text.String()); err != nil {
		return false, err
	}
	return true, nil
}

func (s *EmailService) send(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	from := s.fromEmail
	if s.fromName != "" {
		from = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(htmlBody), Charset: aws.String("UTF-8")},
					Text: &types.Content{Data: aws.String(textBody), Charset: aws.String("UTF-8")},
				},
			},
		},
	}

	out, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	ev := s.logger.Info().Str("to", toEmail).Str("subject", subject)
	if out != nil && out.MessageId != nil {
		ev = ev.Str("message_id", *out.MessageId)
	}
	ev.Msg("Email sent")
	return nil
}
