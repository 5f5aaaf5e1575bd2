package roulette

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROPOSAL
// Сгенерированное, но ещё не зафиксированное разбиение на группы.
// ══════════════════════════════════════════════════════════════════════════════

// ProposalGroup - одна группа предложения с устойчивым ключом.
type ProposalGroup struct {
	Key     string   `json:"key"`
	Members []UserID `json:"members"`
}

// Proposal - результат последнего запуска подбора для раунда.
type Proposal struct {
	RouletteID   RouletteID      `json:"roulette_id"`
	Groups       []ProposalGroup `json:"groups"`
	TotalPenalty float64         `json:"total_penalty"`
	Iterations   int             `json:"iterations"`
	GeneratedAt  time.Time       `json:"generated_at"`
}

// MemberGroups возвращает группы в виде, пригодном для FinalizeRequest.
func (p *Proposal) MemberGroups() [][]UserID {
	groups := make([][]UserID, len(p.Groups))
	for i, g := range p.Groups {
		groups[i] = g.Members
	}
	return groups
}

// ProposalRepository - временное хранилище предложений.
type ProposalRepository interface {
	// Save заменяет предложение раунда.
	Save(ctx context.Context, p *Proposal) error

	// Get возвращает предложение раунда.
	// Возвращает ErrProposalNotFound, если предложения нет или оно истекло.
	Get(ctx context.Context, rouletteID RouletteID) (*Proposal, error)

	// Delete удаляет предложение раунда. Отсутствие предложения не ошибка.
	Delete(ctx context.Context, rouletteID RouletteID) error
}
