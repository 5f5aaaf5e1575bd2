// Package notification содержит модель исходящих сообщений рулетки:
// объявление о новом раунде и сообщения участникам о найденных партнёрах.
// Доставка сообщений не влияет на сохранённые данные.
package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ══════════════════════════════════════════════════════════════════════════════
// MESSAGE KIND
// ══════════════════════════════════════════════════════════════════════════════

// Kind определяет тип сообщения.
type Kind string

const (
	// KindRouletteAnnouncement - объявление о новом раунде для всех.
	KindRouletteAnnouncement Kind = "roulette_announcement"

	// KindCoffeePartners - участнику сообщают его партнёров.
	KindCoffeePartners Kind = "coffee_partners"

	// KindNoPartner - участнику не нашлось пары.
	KindNoPartner Kind = "no_partner"
)

// IsBroadcast возвращает true для сообщений без конкретного получателя.
func (k Kind) IsBroadcast() bool {
	return k == KindRouletteAnnouncement
}

// ══════════════════════════════════════════════════════════════════════════════
// MESSAGE
// ══════════════════════════════════════════════════════════════════════════════

// Recipient - адресат сообщения.
type Recipient struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// Message - одно исходящее сообщение.
// Recipient == nil означает рассылку всем.
type Message struct {
	ID         string     `json:"id"`
	Kind       Kind       `json:"kind"`
	RouletteID int64      `json:"roulette_id"`
	Recipient  *Recipient `json:"recipient,omitempty"`
	Text       string     `json:"text"`
	CreatedAt  time.Time  `json:"created_at"`
}

// DateLayout - формат дат в тексте сообщений.
const DateLayout = "Mon, 02 Jan 2006 15:04 MST"

// NewAnnouncement создаёт объявление о новом раунде.
func NewAnnouncement(rouletteID int64, voteDeadline, coffeeDeadline time.Time, loc *time.Location) Message {
	text := fmt.Sprintf(
		"A new coffee roulette is going to start! If you want to participate, please vote YES.\n"+
			"The voting deadline is %s. Coffee will end on %s.",
		inLocation(voteDeadline, loc).Format(DateLayout),
		inLocation(coffeeDeadline, loc).Format(DateLayout),
	)
	return newMessage(KindRouletteAnnouncement, rouletteID, nil, text)
}

// NewPartnerMessage сообщает участнику его партнёров по группе.
func NewPartnerMessage(rouletteID int64, to Recipient, partners []Recipient, coffeeDeadline time.Time, loc *time.Location) Message {
	names := make([]string, len(partners))
	for i, p := range partners {
		names[i] = p.Name
	}
	text := fmt.Sprintf(
		"Hi %s! Your coffee roulette match: %s. Please meet before %s.",
		to.Name, strings.Join(names, ", "), inLocation(coffeeDeadline, loc).Format(DateLayout),
	)
	return newMessage(KindCoffeePartners, rouletteID, &to, text)
}

// NewNoPartnerMessage сообщает участнику, что пары для него не нашлось.
func NewNoPartnerMessage(rouletteID int64, to Recipient) Message {
	text := fmt.Sprintf(
		"Hi %s! Unfortunately we could not find you a coffee partner this time. See you in the next roulette!",
		to.Name,
	)
	return newMessage(KindNoPartner, rouletteID, &to, text)
}

func newMessage(kind Kind, rouletteID int64, to *Recipient, text string) Message {
	return Message{
		ID:         uuid.NewString(),
		Kind:       kind,
		RouletteID: rouletteID,
		Recipient:  to,
		Text:       text,
		CreatedAt:  time.Now(),
	}
}

func inLocation(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		return t
	}
	return t.In(loc)
}

// ══════════════════════════════════════════════════════════════════════════════
// PORT
// ══════════════════════════════════════════════════════════════════════════════

// Notifier доставляет сообщения во внешний канал.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}
