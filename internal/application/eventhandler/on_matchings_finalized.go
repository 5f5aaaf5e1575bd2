package eventhandler

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/coffee-roulette/roulette-hub/internal/domain/notification"
	"github.com/coffee-roulette/roulette-hub/internal/domain/roulette"
	"github.com/coffee-roulette/roulette-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON MATCHINGS FINALIZED HANDLER
// Сообщает каждому участнику, с кем он встречается в этом раунде.
//
// Событие приходит после коммита: пары уже сохранены, и ошибка доставки
// их не отменяет. Участник без пары получает отдельное сообщение.
// ═══════════════════════════════════════════════════════════════════════════

type matchingsFinalizedPayload struct {
	RouletteID     int64              `json:"roulette_id"`
	CoffeeDeadline time.Time          `json:"coffee_deadline"`
	Groups         map[string][]int64 `json:"groups"`
}

// OnMatchingsFinalizedHandler обрабатывает событие фиксации пар.
type OnMatchingsFinalizedHandler struct {
	users    roulette.UserRepository
	notifier notification.Notifier
	logger   *slog.Logger
	config   NotifyConfig
}

// NewOnMatchingsFinalizedHandler создаёт обработчик.
func NewOnMatchingsFinalizedHandler(
	users roulette.UserRepository,
	notifier notification.Notifier,
	logger *slog.Logger,
	config NotifyConfig,
) *OnMatchingsFinalizedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnMatchingsFinalizedHandler{
		users:    users,
		notifier: notifier,
		logger:   logger.With("handler", "on_matchings_finalized"),
		config:   config,
	}
}

// Handle обрабатывает событие. Реализует shared.EventHandler.
// Отправляет все сообщения, даже если часть из них не доставлена,
// и возвращает объединённую ошибку.
func (h *OnMatchingsFinalizedHandler) Handle(event shared.Event) error {
	if event.EventType() != shared.EventMatchingsFinalized {
		h.logger.Warn("unexpected event", "event_type", event.EventType())
		return nil
	}

	var p matchingsFinalizedPayload
	if err := shared.DecodePayload(event, &p); err != nil {
		return fmt.Errorf("decode matchings finalized: %w", err)
	}

	ctx, cancel := sendContext(h.config)
	defer cancel()

	// Ключи групп сортируются, чтобы порядок рассылки был стабильным.
	keys := make([]string, 0, len(p.Groups))
	var ids []roulette.UserID
	for k, members := range p.Groups {
		keys = append(keys, k)
		for _, id := range members {
			ids = append(ids, roulette.UserID(id))
		}
	}
	sort.Strings(keys)

	users, err := h.users.GetByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("load matched users: %w", err)
	}
	byID := make(map[int64]notification.Recipient, len(users))
	for _, u := range users {
		byID[int64(u.ID)] = notification.Recipient{UserID: int64(u.ID), Name: u.Name, Email: u.Email}
	}

	var errs []error
	sent := 0
	for _, key := range keys {
		group := make([]notification.Recipient, 0, len(p.Groups[key]))
		for _, id := range p.Groups[key] {
			r, ok := byID[id]
			if !ok {
				h.logger.Warn("matched user not found", "roulette_id", p.RouletteID, "user_id", id)
				continue
			}
			group = append(group, r)
		}

		for i, to := range group {
			var msg notification.Message
			if len(group) == 1 {
				msg = notification.NewNoPartnerMessage(p.RouletteID, to)
			} else {
				msg = notification.NewPartnerMessage(p.RouletteID, to, without(group, i), p.CoffeeDeadline, h.config.Location)
			}

			if err := h.notifier.Send(ctx, msg); err != nil {
				h.logger.Error("failed to notify user",
					"roulette_id", p.RouletteID,
					"user_id", to.UserID,
					"kind", msg.Kind,
					"error", err,
				)
				errs = append(errs, err)
				continue
			}
			sent++
		}
	}

	h.logger.Info("match notifications processed",
		"roulette_id", p.RouletteID,
		"groups", len(keys),
		"sent", sent,
		"failed", len(errs),
	)
	return errors.Join(errs...)
}

func without(group []notification.Recipient, skip int) []notification.Recipient {
	out := make([]notification.Recipient, 0, len(group)-1)
	for i, r := range group {
		if i != skip {
			out = append(out, r)
		}
	}
	return out
}
