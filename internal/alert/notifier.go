// Package alert delivers SOS notifications to emergency contacts through an
// external messaging gateway.
package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Notifier sends one alert message to one recipient.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// Message is the payload handed to the gateway.
type Message struct {
	RecipientName  string  `json:"recipient_name"`
	RecipientPhone string  `json:"recipient_phone"`
	WomanName      string  `json:"woman_name"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	Battery        int     `json:"battery"`
	Text           string  `json:"text"`
}

// WebhookNotifier posts alerts to an SMS/WhatsApp gateway webhook.
type WebhookNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewWebhookNotifier returns nil when no URL is configured, which callers
// treat as notifications disabled.
func NewWebhookNotifier(webhookURL string) *WebhookNotifier {
	if webhookURL == "" {
		return nil
	}
	return &WebhookNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 5 * time.Second},
	}
}

// Notify posts the alert to the gateway.
func (n *WebhookNotifier) Notify(ctx context.Context, msg Message) error {
	if n == nil || n.webhookURL == "" {
		return errors.New("alert notifier not configured")
	}

	if msg.Text == "" {
		msg.Text = fmt.Sprintf(
			"EMERGENCY: %s triggered an SOS. Location: https://maps.google.com/?q=%f,%f (battery %d%%)",
			msg.WomanName, msg.Latitude, msg.Longitude, msg.Battery,
		)
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("alert gateway returned %d", resp.StatusCode)
	}
	return nil
}
