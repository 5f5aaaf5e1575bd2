package roulette

import (
	"math"

	"github.com/coffee-roulette/roulette-hub/internal/domain/shared"
)

// Названия настроек штрафов в хранилище.
const (
	SettingRecentMatch       = "recent_match"
	SettingNumberOfMatches   = "number_of_matches"
	SettingPenaltyGroup      = "penalty_group"
	SettingForbiddenGrouping = "forbidden_grouping"
)

// PenaltyConfig - неизменяемый набор штрафов, который передаётся в движок
// подбора пар. Движок не читает настройки сам.
type PenaltyConfig struct {
	// RecentMatch - штраф за недавнюю встречу, линейно убывает до нуля за год.
	RecentMatch float64
	// NumberOfMatches - штраф за каждую прошлую встречу пары.
	NumberOfMatches float64
	// PenaltyGroup - штраф за каждую общую штрафную группу.
	PenaltyGroup float64
	// ForbiddenGrouping - штраф за участника в группе, с которым нет ребра.
	ForbiddenGrouping float64
}

// DefaultPenaltyConfig возвращает значения по умолчанию.
func DefaultPenaltyConfig() PenaltyConfig {
	return PenaltyConfig{
		RecentMatch:       1.0,
		NumberOfMatches:   0.5,
		PenaltyGroup:      2.0,
		ForbiddenGrouping: 10.0,
	}
}

// Validate проверяет, что все штрафы - конечные числа.
// Отрицательные значения допустимы: движок их не ограничивает.
func (c PenaltyConfig) Validate() error {
	for _, v := range []float64{c.RecentMatch, c.NumberOfMatches, c.PenaltyGroup, c.ForbiddenGrouping} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return shared.ErrInvalidPenalty
		}
	}
	return nil
}

// AsSettings возвращает настройки в виде имя -> значение.
func (c PenaltyConfig) AsSettings() map[string]float64 {
	return map[string]float64{
		SettingRecentMatch:       c.RecentMatch,
		SettingNumberOfMatches:   c.NumberOfMatches,
		SettingPenaltyGroup:      c.PenaltyGroup,
		SettingForbiddenGrouping: c.ForbiddenGrouping,
	}
}

// PenaltyConfigFromSettings собирает конфигурацию из сохранённых настроек.
// Отсутствующие настройки берутся из значений по умолчанию.
func PenaltyConfigFromSettings(settings map[string]float64) PenaltyConfig {
	cfg := DefaultPenaltyConfig()
	if v, ok := settings[SettingRecentMatch]; ok {
		cfg.RecentMatch = v
	}
	if v, ok := settings[SettingNumberOfMatches]; ok {
		cfg.NumberOfMatches = v
	}
	if v, ok := settings[SettingPenaltyGroup]; ok {
		cfg.PenaltyGroup = v
	}
	if v, ok := settings[SettingForbiddenGrouping]; ok {
		cfg.ForbiddenGrouping = v
	}
	return cfg
}
