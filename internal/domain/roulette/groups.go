package roulette

import (
	"fmt"

	"github.com/coffee-roulette/roulette-hub/internal/domain/shared"
)

// ValidateGroups проверяет набор групп перед фиксацией:
// хотя бы одна группа и ни один участник не встречается дважды.
func ValidateGroups(groups [][]UserID) error {
	if len(groups) == 0 {
		return shared.ErrEmptySubmission
	}
	seen := make(map[UserID]int, len(groups)*2)
	for gi, group := range groups {
		for _, id := range group {
			if prev, ok := seen[id]; ok {
				return shared.WrapError("matching", "Validate", shared.ErrUserInMultipleGroups,
					fmt.Sprintf("user %d is in groups %d and %d", id, prev, gi), nil)
			}
			seen[id] = gi
		}
	}
	return nil
}

// GroupPairs возвращает все неупорядоченные пары группы в каноническом порядке.
// Группа из k участников даёт k*(k-1)/2 пар, группа из одного - ни одной.
func GroupPairs(rouletteID RouletteID, group []UserID) []Match {
	pairs := make([]Match, 0, len(group)*(len(group)-1)/2+1)
	for i := 0; i < len(group); i++ {
		for j := i + 1; j < len(group); j++ {
			pairs = append(pairs, NewMatch(rouletteID, group[i], group[j]))
		}
	}
	return pairs
}
