package mailer

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// Mailer delivers transactional email. Delivery is always best-effort for the
// application workflow; callers log failures instead of propagating them.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Config points the client at an HTTP mail relay.
type Config struct {
	APIURL    string
	APIKey    string
	FromEmail string
}

// Client posts messages to an HTTP mail relay API.
type Client struct {
	http   *resty.Client
	from   string
	logger zerolog.Logger
}

// New builds a mail client. When no relay is configured a no-op mailer is
// returned so callers never have to nil-check.
func New(cfg Config, logger zerolog.Logger) Mailer {
	if cfg.APIURL == "" || cfg.APIKey == "" {
		return noopMailer{logger: logger.With().Str("component", "mailer").Logger()}
	}

	http := resty.New().
		SetBaseURL(cfg.APIURL).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json")

	return &Client{
		http:   http,
		from:   cfg.FromEmail,
		logger: logger.With().Str("component", "mailer").Logger(),
	}
}

// Send posts a single message to the relay.
func (c *Client) Send(ctx context.Context, to, subject, body string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"from":    c.from,
			"to":      to,
			"subject": subject,
			"body":    body,
		}).
		Post("/messages")
	if err != nil {
		return fmt.Errorf("failed to deliver mail: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("mail relay rejected message: status %d", resp.StatusCode())
	}

	c.logger.Info().Str("to", to).Str("subject", subject).Msg("mail delivered")

	return nil
}

type noopMailer struct {
	logger zerolog.Logger
}

func (m noopMailer) Send(_ context.Context, to, subject, _ string) error {
	m.logger.Debug().Str("to", to).Str("subject", subject).Msg("mail relay not configured, skipping delivery")
	return nil
}
