// Vigil - Insider Threat Detection and Behavioral Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package alerting

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/vigil/internal/logging"
	"github.com/tomtom215/vigil/internal/metrics"
)

// Notifier delivers alerts to an external sink.
type Notifier interface {
	Name() string
	Enabled() bool
	Send(ctx context.Context, alert *Alert) error
}

// WebhookConfig configures the webhook notifier.
type WebhookConfig struct {
	WebhookURL  string            `json:"webhook_url" koanf:"webhook_url"`
	Headers     map[string]string `json:"headers,omitempty" koanf:"headers"`
	Enabled     bool              `json:"enabled" koanf:"enabled"`
	RateLimitMs int               `json:"rate_limit_ms" koanf:"rate_limit_ms"`
}

// WebhookPayload is the JSON payload sent to the webhook endpoint.
type WebhookPayload struct {
	Alert     *Alert    `json:"alert"`
	EventType string    `json:"event_type"` // insider_threat_alert
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"` // vigil
}

// WebhookNotifier posts alerts to a webhook endpoint behind a circuit
// breaker, so a dead endpoint cannot stall the detection pipeline.
type WebhookNotifier struct {
	webhookURL string
	headers    map[string]string
	client     *http.Client
	breaker    *gobreaker.CircuitBreaker[struct{}]
	enabled    bool
	mu         sync.RWMutex

	// Rate limiting
	lastSent  time.Time
	rateLimit time.Duration
}

// NewWebhookNotifier creates a webhook notifier. The breaker opens after
// three consecutive delivery failures and probes again after 30 seconds.
func NewWebhookNotifier(config WebhookConfig) *WebhookNotifier {
	rateLimit := time.Duration(config.RateLimitMs) * time.Millisecond
	if rateLimit == 0 {
		rateLimit = 500 * time.Millisecond
	}

	headers := make(map[string]string)
	for k, v := range config.Headers {
		headers[k] = v
	}

	breaker := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "alert-webhook",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Webhook circuit breaker state change")
		},
	})

	return &WebhookNotifier{
		webhookURL: config.WebhookURL,
		headers:    headers,
		enabled:    config.Enabled,
		rateLimit:  rateLimit,
		breaker:    breaker,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Name returns the notifier name.
func (n *WebhookNotifier) Name() string {
	return "webhook"
}

// Enabled returns whether this notifier is enabled.
func (n *WebhookNotifier) Enabled() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.enabled && n.webhookURL != ""
}

// Send delivers an alert to the webhook endpoint.
func (n *WebhookNotifier) Send(ctx context.Context, alert *Alert) error {
	n.mu.RLock()
	if !n.enabled || n.webhookURL == "" {
		n.mu.RUnlock()
		return nil
	}
	webhookURL := n.webhookURL
	headers := make(map[string]string)
	for k, v := range n.headers {
		headers[k] = v
	}
	rateLimit := n.rateLimit
	lastSent := n.lastSent
	n.mu.RUnlock()

	if time.Since(lastSent) < rateLimit {
		select {
		case <-time.After(rateLimit - time.Since(lastSent)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	payload := WebhookPayload{
		Alert:     alert,
		EventType: "insider_threat_alert",
		Timestamp: time.Now().UTC(),
		Source:    "vigil",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	_, err = n.breaker.Execute(func() (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
		if err != nil {
			return struct{}{}, fmt.Errorf("build webhook request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := n.client.Do(req)
		if err != nil {
			return struct{}{}, fmt.Errorf("post webhook: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return struct{}{}, fmt.Errorf("webhook returned status %d", resp.StatusCode)
		}
		return struct{}{}, nil
	})
	if err != nil {
		metrics.NotifierErrors.WithLabelValues(n.Name()).Inc()
		return err
	}

	n.mu.Lock()
	n.lastSent = time.Now()
	n.mu.Unlock()
	return nil
}
