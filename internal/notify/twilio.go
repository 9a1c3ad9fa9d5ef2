package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ductclean/internal/config"
	"ductclean/internal/domain"

	"github.com/rs/zerolog"
)

const defaultTwilioBaseURL = "https://api.twilio.com"

// TwilioSender delivers SMS through the Twilio Messages REST endpoint.
type TwilioSender struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	client     *http.Client
	logger     *zerolog.Logger
}

func NewTwilioSender(cfg config.SMSConfig, logger *zerolog.Logger) *TwilioSender {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultTwilioBaseURL
	}
	return &TwilioSender{
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		from:       cfg.FromNumber,
		baseURL:    strings.TrimRight(baseURL, "/"),
		client:     &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

func (s *TwilioSender) SendSMS(ctx context.Context, msg domain.SMSMessage) error {
	if msg.To == "" {
		return fmt.Errorf("sms recipient is empty")
	}

	form := url.Values{}
	form.Set("To", msg.To)
	form.Set("From", s.from)
	form.Set("Body", msg.Body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.baseURL, s.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build sms request: %w", err)
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send sms to %s: %w", msg.To, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("twilio returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	s.logger.Debug().Str("to", msg.To).Msg("sms sent")
	return nil
}
