// Package notify posts operational messages to a Slack incoming webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Notifier delivers a plain text message to the support channel.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Slack posts to an incoming webhook. A Slack with no webhook URL discards messages.
type Slack struct {
	webhookURL string
	httpClient *http.Client
}

var _ Notifier = (*Slack)(nil)

type Option func(*Slack)

func WithHTTPClient(client *http.Client) Option {
	return func(s *Slack) {
		s.httpClient = client
	}
}

func NewSlack(webhookURL string, options ...Option) *Slack {
	s := &Slack{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

type slackMessage struct {
	Text string `json:"text"`
}

func (s *Slack) Notify(ctx context.Context, text string) error {
	if s.webhookURL == "" {
		log.Debug().Str("text", text).Msg("slack webhook not configured, message dropped")
		return nil
	}

	body, err := json.Marshal(slackMessage{Text: text})
	if err != nil {
		return fmt.Errorf("[Slack.Notify] marshal: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("[Slack.Notify] new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("[Slack.Notify] %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("[Slack.Notify] webhook returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

// Send notifies in the background and logs failures; callers never see the error.
func Send(n Notifier, text string) {
	if n == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := n.Notify(ctx, text); err != nil {
			log.Err(err).Msg("slack notification failed")
		}
	}()
}

// ContactMessage formats a contact form submission
func ContactMessage(name, email, subject, message string) string {
	if subject == "" {
		subject = "(no subject)"
	}
	return fmt.Sprintf("*Contact form*\nFrom: %s <%s>\nSubject: %s\n>%s", name, email, subject, strings.ReplaceAll(message, "\n", "\n>"))
}

// WaitingMessage formats a purchase held for document verification
func WaitingMessage(userEmail string, numberIDs []string) string {
	return fmt.Sprintf("*Purchase awaiting verification*\nUser: %s\nNumbers: %s", userEmail, strings.Join(numberIDs, ", "))
}
