package roulette

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Контракт хранилища. Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// UserRepository - операции с участниками.
type UserRepository interface {
	// Create сохраняет участника и создаёт ему пустой голос
	// во всех незафиксированных раундах.
	// Возвращает ErrUserAlreadyExists, если email занят.
	Create(ctx context.Context, user *User) error

	// GetByID возвращает участника.
	// Возвращает ErrUserNotFound, если участник не найден.
	GetByID(ctx context.Context, id UserID) (*User, error)

	// GetByIDs возвращает найденных участников в порядке возрастания ID.
	GetByIDs(ctx context.Context, ids []UserID) ([]User, error)

	// List возвращает всех участников, упорядоченных по имени.
	List(ctx context.Context) ([]User, error)
}

// FinalizeRequest - данные для атомарной фиксации пар раунда.
type FinalizeRequest struct {
	RouletteID RouletteID
	Groups     [][]UserID
	At         time.Time
}

// RouletteRepository - операции с раундами.
type RouletteRepository interface {
	// Create сохраняет раунд и создаёт пустой голос для каждого участника.
	Create(ctx context.Context, r *Roulette) error

	// GetByID возвращает раунд.
	// Возвращает ErrRouletteNotFound, если раунд не найден.
	GetByID(ctx context.Context, id RouletteID) (*Roulette, error)

	// ListCurrent возвращает раунды, у которых дедлайн встреч не прошёл.
	ListCurrent(ctx context.Context, now time.Time) ([]Roulette, error)

	// LastCompleted возвращает раунд с самой поздней датой фиксации или nil.
	LastCompleted(ctx context.Context) (*Roulette, error)

	// FinalizeMatches атомарно фиксирует пары раунда: блокирует строку раунда,
	// проверяет, что раунд ещё не зафиксирован и голосование закончено,
	// вставляет по одной записи Match на каждую пару внутри группы
	// и выставляет дату фиксации. Либо всё, либо ничего.
	// Возвращает ErrRouletteAlreadyFinalized проигравшему из двух конкурентов.
	FinalizeMatches(ctx context.Context, req FinalizeRequest) error
}

// VoteRepository - операции с голосами.
type VoteRepository interface {
	// SetChoice меняет выбор участника в раунде.
	SetChoice(ctx context.Context, rouletteID RouletteID, userID UserID, choice Choice) error

	// ListByRoulette возвращает голоса раунда, упорядоченные по имени участника.
	ListByRoulette(ctx context.Context, rouletteID RouletteID) ([]Vote, error)

	// ParticipatingUsers возвращает участников, проголосовавших "да",
	// в порядке возрастания ID.
	ParticipatingUsers(ctx context.Context, rouletteID RouletteID) ([]User, error)
}

// MatchRepository - чтение зафиксированных пар.
type MatchRepository interface {
	// History возвращает все пары всех зафиксированных раундов с датами фиксации.
	History(ctx context.Context) ([]PastMatch, error)

	// ByRoulette возвращает пары одного раунда.
	ByRoulette(ctx context.Context, rouletteID RouletteID) ([]Match, error)
}

// GroupRepository - группы исключений и штрафные группы.
type GroupRepository interface {
	ExclusionGroups(ctx context.Context) ([]ExclusionGroup, error)
	PenaltyGroups(ctx context.Context) ([]PenaltyGroup, error)
	SaveExclusionGroup(ctx context.Context, g *ExclusionGroup) error
	SavePenaltyGroup(ctx context.Context, g *PenaltyGroup) error
}

// PenaltyRepository - хранение настроек штрафов.
type PenaltyRepository interface {
	// Get возвращает конфигурацию; отсутствующие значения - по умолчанию.
	Get(ctx context.Context) (PenaltyConfig, error)

	// Save сохраняет все четыре значения.
	Save(ctx context.Context, cfg PenaltyConfig) error
}
