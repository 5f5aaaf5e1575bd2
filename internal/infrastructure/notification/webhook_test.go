package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coffee-roulette/roulette-hub/internal/domain/notification"
)

func testConfig(url string) WebhookConfig {
	cfg := DefaultWebhookConfig(url)
	cfg.RetryDelay = time.Millisecond
	cfg.RatePerSecond = 1000
	cfg.Burst = 100
	return cfg
}

func sampleMessage() notification.Message {
	return notification.NewNoPartnerMessage(3, notification.Recipient{UserID: 8, Name: "Eve"})
}

func TestWebhookNotifier_PostsJSON(t *testing.T) {
	var got notification.Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n, err := NewWebhookNotifier(testConfig(srv.URL))
	require.NoError(t, err)

	msg := sampleMessage()
	require.NoError(t, n.Send(context.Background(), msg))

	assert.Equal(t, msg.ID, got.ID)
	assert.Equal(t, notification.KindNoPartner, got.Kind)
	require.NotNil(t, got.Recipient)
	assert.Equal(t, int64(8), got.Recipient.UserID)
}

func TestWebhookNotifier_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n, err := NewWebhookNotifier(testConfig(srv.URL))
	require.NoError(t, err)

	require.NoError(t, n.Send(context.Background(), sampleMessage()))
	assert.Equal(t, int32(3), calls.Load())
}

func TestWebhookNotifier_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	n, err := NewWebhookNotifier(testConfig(srv.URL))
	require.NoError(t, err)

	err = n.Send(context.Background(), sampleMessage())
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, gobreaker.StateClosed, n.BreakerState())
}

func TestWebhookNotifier_BreakerOpensAfterFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.RetryAttempts = 1
	cfg.BreakerFailures = 2
	n, err := NewWebhookNotifier(cfg)
	require.NoError(t, err)

	ctx := context.Background()
	assert.Error(t, n.Send(ctx, sampleMessage()))
	assert.Error(t, n.Send(ctx, sampleMessage()))
	assert.Equal(t, gobreaker.StateOpen, n.BreakerState())

	err = n.Send(ctx, sampleMessage())
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), calls.Load())
}

func TestNewWebhookNotifier_RequiresURL(t *testing.T) {
	_, err := NewWebhookNotifier(WebhookConfig{})
	assert.Error(t, err)
}

func TestLogNotifier_Send(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	n := NewLogNotifier(logger)
	msg := notification.NewPartnerMessage(4,
		notification.Recipient{UserID: 1, Name: "Ann", Email: "ann@example.com"},
		[]notification.Recipient{{UserID: 2, Name: "Ben"}},
		time.Date(2024, 1, 2, 3, 4, 0, 0, time.UTC), nil)

	require.NoError(t, n.Send(context.Background(), msg))
	assert.Contains(t, buf.String(), `"kind":"coffee_partners"`)
	assert.Contains(t, buf.String(), `"email":"ann@example.com"`)
	assert.Contains(t, buf.String(), `"component":"log_notifier"`)
}
