// Package eventhandler содержит обработчики доменных событий.
package eventhandler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/coffee-roulette/roulette-hub/internal/domain/notification"
	"github.com/coffee-roulette/roulette-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON ROULETTE CREATED HANDLER
// Рассылает объявление о новом раунде: до какого времени голосовать
// и когда заканчиваются встречи.
// ═══════════════════════════════════════════════════════════════════════════

// NotifyConfig - общая конфигурация обработчиков уведомлений.
type NotifyConfig struct {
	// Location - часовой пояс, в котором выводятся даты.
	Location *time.Location

	// SendTimeout - ограничение на отправку одного сообщения.
	SendTimeout time.Duration
}

// DefaultNotifyConfig возвращает конфигурацию по умолчанию.
func DefaultNotifyConfig() NotifyConfig {
	return NotifyConfig{
		Location:    time.UTC,
		SendTimeout: 30 * time.Second,
	}
}

// rouletteCreatedPayload - поля события, нужные для объявления.
// Читается и из типизированного события, и из события, пришедшего по шине.
type rouletteCreatedPayload struct {
	RouletteID     int64     `json:"roulette_id"`
	VoteDeadline   time.Time `json:"vote_deadline"`
	CoffeeDeadline time.Time `json:"coffee_deadline"`
}

// OnRouletteCreatedHandler обрабатывает событие создания раунда.
type OnRouletteCreatedHandler struct {
	notifier notification.Notifier
	logger   *slog.Logger
	config   NotifyConfig
}

// NewOnRouletteCreatedHandler создаёт обработчик.
func NewOnRouletteCreatedHandler(
	notifier notification.Notifier,
	logger *slog.Logger,
	config NotifyConfig,
) *OnRouletteCreatedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnRouletteCreatedHandler{
		notifier: notifier,
		logger:   logger.With("handler", "on_roulette_created"),
		config:   config,
	}
}

// Handle обрабатывает событие. Реализует shared.EventHandler.
// Ошибка доставки логируется и возвращается шине, но ни на что не влияет.
func (h *OnRouletteCreatedHandler) Handle(event shared.Event) error {
	if event.EventType() != shared.EventRouletteCreated {
		h.logger.Warn("unexpected event", "event_type", event.EventType())
		return nil
	}

	var p rouletteCreatedPayload
	if err := shared.DecodePayload(event, &p); err != nil {
		return fmt.Errorf("decode roulette created: %w", err)
	}

	ctx, cancel := sendContext(h.config)
	defer cancel()

	msg := notification.NewAnnouncement(p.RouletteID, p.VoteDeadline, p.CoffeeDeadline, h.config.Location)
	if err := h.notifier.Send(ctx, msg); err != nil {
		h.logger.Error("failed to send announcement",
			"roulette_id", p.RouletteID,
			"error", err,
		)
		return err
	}

	h.logger.Info("announcement sent", "roulette_id", p.RouletteID)
	return nil
}

func sendContext(cfg NotifyConfig) (context.Context, context.CancelFunc) {
	if cfg.SendTimeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), cfg.SendTimeout)
}
