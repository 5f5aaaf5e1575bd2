package query

import (
	"context"
	"fmt"
	"time"

	"github.com/coffee-roulette/roulette-hub/internal/domain/roulette"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST CURRENT ROULETTES QUERY
// Раунды, у которых дедлайн встреч ещё не прошёл.
// ══════════════════════════════════════════════════════════════════════════════

// ListCurrentRoulettesHandler обрабатывает запрос списка текущих раундов.
type ListCurrentRoulettesHandler struct {
	roulettes roulette.RouletteRepository
	now       func() time.Time
}

// NewListCurrentRoulettesHandler создаёт обработчик. now == nil означает time.Now.
func NewListCurrentRoulettesHandler(roulettes roulette.RouletteRepository, now func() time.Time) *ListCurrentRoulettesHandler {
	if now == nil {
		now = time.Now
	}
	return &ListCurrentRoulettesHandler{roulettes: roulettes, now: now}
}

// Handle возвращает текущие раунды в порядке дедлайна голосования.
func (h *ListCurrentRoulettesHandler) Handle(ctx context.Context) ([]RouletteDTO, error) {
	now := h.now()
	list, err := h.roulettes.ListCurrent(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("list_current_roulettes: %w", err)
	}

	out := make([]RouletteDTO, len(list))
	for i := range list {
		out[i] = toRouletteDTO(&list[i], now)
	}
	return out, nil
}
