package email

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	defaultHost = "https://api.sendgrid.com"
	endpoint    = "/v3/mail/send"
)

// EmailService defines the interface for email operations
type EmailService interface {
	SendWelcomeEmail(ctx context.Context, toEmail, toName, role string) error
	SendWishReviewedEmail(ctx context.Context, toEmail, toName, wishTitle string, approved bool, note string) error
}

// Config holds the SendGrid credentials and sender identity
type Config struct {
	APIKey    string
	FromName  string
	FromEmail string
	BaseURL   string
	// Host overrides the SendGrid API host
	Host string
}

// sendgridService delivers mail through the SendGrid v3 API.
// Without an API key messages are only logged.
type sendgridService struct {
	config Config
	from   *sgmail.Email
	logger zerolog.Logger
}

// NewEmailService creates a new EmailService
func NewEmailService(config Config, logger zerolog.Logger) EmailService {
	if config.Host == "" {
		config.Host = defaultHost
	}
	return &sendgridService{
		config: config,
		from:   sgmail.NewEmail(config.FromName, config.FromEmail),
		logger: logger,
	}
}

// SendWelcomeEmail tells a newly created user that their account exists
func (s *sendgridService) SendWelcomeEmail(ctx context.Context, toEmail, toName, role string) error {
	subject := "Welcome to MentorHub"
	text := fmt.Sprintf("Hello %s,\n\nAn account with the role %s has been created for you.\nSign in at %s with this email address.\n",
		toName, role, s.config.BaseURL)
	html := fmt.Sprintf("<p>Hello %s,</p><p>An account with the role <b>%s</b> has been created for you.</p><p><a href=\"%s\">Sign in</a> with this email address.</p>",
		toName, role, s.config.BaseURL)
	return s.send(ctx, toEmail, toName, subject, text, html)
}

// SendWishReviewedEmail tells a student the outcome of a wish review
func (s *sendgridService) SendWishReviewedEmail(ctx context.Context, toEmail, toName, wishTitle string, approved bool, note string) error {
	outcome := "rejected"
	if approved {
		outcome = "approved"
	}
	subject := fmt.Sprintf("Your wish \"%s\" was %s", wishTitle, outcome)
	text := fmt.Sprintf("Hello %s,\n\nYour wish \"%s\" was %s.\n", toName, wishTitle, outcome)
	html := fmt.Sprintf("<p>Hello %s,</p><p>Your wish <b>%s</b> was %s.</p>", toName, wishTitle, outcome)
	if note != "" {
		text += fmt.Sprintf("\nNote from your tutor: %s\n", note)
		html += fmt.Sprintf("<p>Note from your tutor: %s</p>", note)
	}
	return s.send(ctx, toEmail, toName, subject, text, html)
}

func (s *sendgridService) send(ctx context.Context, toEmail, toName, subject, text, html string) error {
	if s.config.APIKey == "" {
		s.logger.Warn().
			Str("toEmail", toEmail).
			Str("subject", subject).
			Msg("SendGrid API key not configured - email not sent")
		return nil
	}

	p := sgmail.NewPersonalization()
	p.Subject = subject
	p.AddTos(sgmail.NewEmail(toName, toEmail))

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	m.AddContent(
		sgmail.NewContent("text/plain", text),
		sgmail.NewContent("text/html", html),
	)

	req := sendgrid.GetRequest(s.config.APIKey, endpoint, s.config.Host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m)

	res, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		s.logger.Error().Err(err).Str("toEmail", toEmail).Msg("Failed to send email")
		return fmt.Errorf("sending email: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		s.logger.Error().Int("status", res.StatusCode).Str("body", res.Body).Str("toEmail", toEmail).Msg("SendGrid rejected email")
		return fmt.Errorf("sending email: sendgrid status %d", res.StatusCode)
	}

	s.logger.Info().Str("toEmail", toEmail).Str("subject", subject).Msg("Email sent")
	return nil
}
