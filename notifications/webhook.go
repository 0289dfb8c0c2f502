package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// webhookMaxRetries bounds redelivery attempts for one alert
const webhookMaxRetries = 3

// webhookRetryDelay is the pause between delivery attempts
const webhookRetryDelay = 2 * time.Second

// WebhookNotifier posts alerts as JSON to a configured endpoint
type WebhookNotifier struct {
	url    string
	token  string
	client *http.Client
}

// WebhookPayload is the JSON body delivered to the webhook endpoint
type WebhookPayload struct {
	Subject string    `json:"subject"`
	Message string    `json:"message"`
	SentAt  time.Time `json:"sent_at"`
}

// NewWebhookNotifier creates a webhook notifier for the given endpoint
func NewWebhookNotifier(url, token string) *WebhookNotifier {
	return &WebhookNotifier{
		url:   url,
		token: token,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Notify delivers one alert with bounded retries
func (w *WebhookNotifier) Notify(ctx context.Context, subject, body string) error {
	payload, err := json.Marshal(WebhookPayload{
		Subject: subject,
		Message: body,
		SentAt:  time.Now(),
	})
	if err != nil {
		return &NotificationError{Transport: "webhook", Err: err}
	}

	var lastErr error
	for attempt := 1; attempt <= webhookMaxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
		if err != nil {
			return &NotificationError{Transport: "webhook", Err: err}
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", "MkulimaLink-ML-Monitor/1.0")
		if w.token != "" {
			req.Header.Set("Authorization", "Bearer "+w.token)
		}

		resp, err := w.client.Do(req)
		if err == nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
			resp.Body.Close()
			log.Printf("🔔 Webhook alert delivered: %s", subject)
			return nil
		}

		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("unexpected status %d", resp.StatusCode)
			resp.Body.Close()
		}

		if attempt < webhookMaxRetries {
			select {
			case <-time.After(webhookRetryDelay):
			case <-ctx.Done():
				return &NotificationError{Transport: "webhook", Err: ctx.Err()}
			}
		}
	}

	return &NotificationError{Transport: "webhook", Err: lastErr}
}
