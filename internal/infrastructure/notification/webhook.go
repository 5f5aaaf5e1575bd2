// Package notification delivers roulette messages to external channels.
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/coffee-roulette/roulette-hub/internal/domain/notification"
	"github.com/coffee-roulette/roulette-hub/internal/infrastructure/metrics"
	"github.com/coffee-roulette/roulette-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// WebhookConfig contains configuration for WebhookNotifier.
type WebhookConfig struct {
	// URL receives one JSON-encoded notification.Message per POST.
	URL string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// RetryAttempts is the total number of attempts per message.
	RetryAttempts int

	// RetryDelay is the delay before the first retry.
	RetryDelay time.Duration

	// BreakerFailures is the number of consecutive failures that opens the breaker.
	BreakerFailures uint32

	// BreakerTimeout is how long the breaker stays open.
	BreakerTimeout time.Duration

	// RatePerSecond and Burst pace outbound requests.
	RatePerSecond float64
	Burst         int

	Logger *slog.Logger
}

// DefaultWebhookConfig returns sensible defaults.
func DefaultWebhookConfig(url string) WebhookConfig {
	return WebhookConfig{
		URL:             url,
		Timeout:         10 * time.Second,
		RetryAttempts:   3,
		BreakerFailures: 5,
		BreakerTimeout:  time.Minute,
		RatePerSecond:   1,
		Burst:           5,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// WEBHOOK NOTIFIER
// ══════════════════════════════════════════════════════════════════════════════

// WebhookNotifier posts messages to an HTTP endpoint.
// Calls are paced by a token bucket, retried with backoff and guarded
// by a circuit breaker so a dead endpoint fails fast.
type WebhookNotifier struct {
	config     WebhookConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[struct{}]
	retrier    retry.Policy
	logger     *slog.Logger
}

// NewWebhookNotifier creates a new WebhookNotifier.
func NewWebhookNotifier(config WebhookConfig) (*WebhookNotifier, error) {
	if config.URL == "" {
		return nil, errors.New("webhook url is required")
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.BreakerFailures == 0 {
		config.BreakerFailures = 5
	}
	if config.RatePerSecond <= 0 {
		config.RatePerSecond = 1
	}
	if config.Burst <= 0 {
		config.Burst = 1
	}

	logger := config.Logger.With(slog.String("component", "webhook_notifier"))

	breaker := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "notification-webhook",
		MaxRequests: 1,
		Timeout:     config.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.BreakerFailures
		},
		// Rejected messages say nothing about endpoint health.
		IsSuccessful: func(err error) bool {
			return err == nil || !retry.IsRetryable(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &WebhookNotifier{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(config.RatePerSecond), config.Burst),
		breaker:    breaker,
		retrier: retry.NotificationPolicy(config.RetryAttempts, config.RetryDelay, func(attempt int, err error, delay time.Duration) {
			logger.Debug("retrying webhook delivery", "attempt", attempt, "delay", delay, "error", err)
		}),
		logger: logger,
	}, nil
}

// Send implements notification.Notifier.
func (n *WebhookNotifier) Send(ctx context.Context, msg notification.Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	err = n.retrier.Do(ctx, func(ctx context.Context) error {
		if err := n.limiter.Wait(ctx); err != nil {
			return retry.Permanent(err)
		}
		_, err := n.breaker.Execute(func() (struct{}, error) {
			return struct{}{}, n.post(ctx, body)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return retry.Permanent(err)
		}
		return err
	})

	metrics.RecordNotification(string(msg.Kind), err)
	if err != nil {
		n.logger.Error("webhook delivery failed",
			"message_id", msg.ID,
			"kind", msg.Kind,
			"roulette_id", msg.RouletteID,
			"error", err,
		)
		return fmt.Errorf("deliver %s: %w", msg.Kind, err)
	}
	return nil
}

// BreakerState returns the current circuit breaker state.
func (n *WebhookNotifier) BreakerState() gobreaker.State {
	return n.breaker.State()
}

// post performs a single HTTP request. Transport errors, 429 and 5xx
// are retryable; other non-2xx statuses are not.
func (n *WebhookNotifier) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.config.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return retry.Retryable(fmt.Errorf("execute request: %w", err))
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return retry.Retryable(&StatusError{StatusCode: resp.StatusCode})
	default:
		return &StatusError{StatusCode: resp.StatusCode}
	}
}

// StatusError is returned for non-2xx webhook responses.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook responded with status %d", e.StatusCode)
}
