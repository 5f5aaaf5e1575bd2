package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coffee-roulette/roulette-hub/internal/application/query"
	"github.com/coffee-roulette/roulette-hub/internal/domain/roulette"
	"github.com/coffee-roulette/roulette-hub/internal/domain/shared"
	"github.com/coffee-roulette/roulette-hub/internal/interface/http/handlers"
)

type stubRoulettes struct {
	roulette.RouletteRepository
	items []roulette.Roulette
}

func (s stubRoulettes) GetByID(_ context.Context, id roulette.RouletteID) (*roulette.Roulette, error) {
	for _, r := range s.items {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, shared.ErrRouletteNotFound
}

func (s stubRoulettes) ListCurrent(context.Context, time.Time) ([]roulette.Roulette, error) {
	return s.items, nil
}

type stubVotes struct{ roulette.VoteRepository }

func (stubVotes) ListByRoulette(context.Context, roulette.RouletteID) ([]roulette.Vote, error) {
	return nil, nil
}

var now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, health handlers.HealthChecker) http.Handler {
	t.Helper()
	repo := stubRoulettes{items: []roulette.Roulette{
		{ID: 4, VoteDeadline: now.Add(time.Hour), CoffeeDeadline: now.Add(48 * time.Hour)},
	}}
	clock := func() time.Time { return now }
	srv := NewServer(DefaultConfig(":0"), Dependencies{
		GetRoulette:          query.NewGetRouletteHandler(repo, stubVotes{}, nil, nil, clock),
		ListCurrentRoulettes: query.NewListCurrentRoulettesHandler(repo, clock),
		HealthChecker:        health,
	})
	return srv.Handler()
}

func TestServer_GetRoulette(t *testing.T) {
	h := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/roulettes/4", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body query.RouletteDetailsDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, int64(4), body.Roulette.ID)
	assert.Equal(t, "VOTING", body.Roulette.State)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestServer_ErrorMapping(t *testing.T) {
	h := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/roulettes/99", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/roulettes/abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_ListRoulettes(t *testing.T) {
	h := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/roulettes", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Roulettes []query.RouletteDTO `json:"roulettes"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Len(t, body.Roulettes, 1)
}

func TestServer_HealthUnavailable(t *testing.T) {
	checker := handlers.NewCompositeHealthChecker("test", time.Second)
	checker.AddCheck("postgres", func(context.Context) error { return errors.New("timeout") })
	h := newTestServer(t, checker)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServer_Metrics(t *testing.T) {
	h := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
