package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coffee-roulette/roulette-hub/config"
	notify "github.com/coffee-roulette/roulette-hub/internal/infrastructure/notification"
)

func TestNotifier_LogWhenNoURL(t *testing.T) {
	n, err := Notifier(config.Defaults().Notification, nil)
	require.NoError(t, err)
	assert.IsType(t, &notify.LogNotifier{}, n)
}

func TestNotifier_Webhook(t *testing.T) {
	cfg := config.Defaults().Notification
	cfg.WebhookURL = "http://localhost:8080/hook"

	n, err := Notifier(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &notify.WebhookNotifier{}, n)
}
