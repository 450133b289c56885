package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

const (
	requestTimeout = 5 * time.Second
	maxRetries     = 3
)

var httpClient = &http.Client{Timeout: requestTimeout}

// WebhookConfig defines a webhook notification destination.
type WebhookConfig struct {
	URL     string            `yaml:"url"`
	Format  string            `yaml:"format"` // "generic" or "slack"
	Headers map[string]string `yaml:"headers"`
}

// WebhookEmitter posts events to an HTTP endpoint with retry on 5xx.
type WebhookEmitter struct {
	cfg WebhookConfig
}

func NewWebhookEmitter(cfg WebhookConfig) *WebhookEmitter {
	return &WebhookEmitter{cfg: cfg}
}

// Emit delivers asynchronously; failures are logged and swallowed.
func (e *WebhookEmitter) Emit(event Event) {
	go func() {
		if err := send(e.cfg, event); err != nil {
			log.Printf("notify: webhook delivery failed: %v", err)
		}
	}()
}

func send(cfg WebhookConfig, event Event) error {
	body, err := formatPayload(cfg.Format, event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * time.Second)
		}

		req, err := http.NewRequest(http.MethodPost, cfg.URL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range cfg.Headers {
			req.Header.Set(k, v)
		}

		resp, err := httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return fmt.Errorf("webhook rejected: HTTP %d", resp.StatusCode)
		}
		// 5xx: retry
		lastErr = fmt.Errorf("webhook server error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("webhook failed after %d attempts: %w", maxRetries, lastErr)
}

// formatPayload renders an event for the destination format.
func formatPayload(format string, event Event) ([]byte, error) {
	switch format {
	case "slack":
		text := fmt.Sprintf("*%s* %s/%s: %s risk (%d): %s",
			event.Outcome, event.Category, event.ActionType,
			event.RiskLevel, event.RiskScore, event.Reason)
		return json.Marshal(map[string]string{"text": text})
	default: // generic
		return json.Marshal(event)
	}
}
