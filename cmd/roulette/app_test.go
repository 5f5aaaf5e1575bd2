package main

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/coffee-roulette/roulette-hub/config"
	"github.com/coffee-roulette/roulette-hub/internal/infrastructure/metrics"
)

func TestCLIApp_PushMetricsCarriesFinalizeOutcomes(t *testing.T) {
	var pushed []byte
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pushed, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer gateway.Close()

	cfg := config.Defaults()
	cfg.Observability.PushgatewayURL = gateway.URL
	cfg.Observability.PushTimeout = time.Second
	a := &cliApp{cfg: cfg, log: slog.New(slog.NewTextHandler(io.Discard, nil))}

	metrics.Recorder{}.Finalize(metrics.FinalizeCommitted)
	a.pushMetrics()

	assert.Contains(t, string(pushed), "roulette_finalize_total")
}

func TestCLIApp_PushMetricsDisabledWithoutURL(t *testing.T) {
	a := &cliApp{cfg: config.Defaults(), log: slog.New(slog.NewTextHandler(io.Discard, nil))}
	assert.NotPanics(t, a.pushMetrics)
}
