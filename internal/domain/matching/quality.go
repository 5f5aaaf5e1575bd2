package matching

import (
	"fmt"
	"math"
	"sort"

	"github.com/coffee-roulette/roulette-hub/internal/domain/roulette"
	"github.com/coffee-roulette/roulette-hub/internal/domain/shared"
)

// Пороговые перцентили по умолчанию.
const (
	DefaultGreenPercentile  = 33.3
	DefaultYellowPercentile = 66.6
)

// Color - оценка пары или группы относительно распределения весов графа.
type Color int

const (
	// ColorGreen - вес не выше зелёного порога.
	ColorGreen Color = iota
	// ColorYellow - вес не выше жёлтого порога.
	ColorYellow
	// ColorRed - всё остальное, включая запрещённые пары.
	ColorRed
)

// String возвращает название цвета.
func (c Color) String() string {
	switch c {
	case ColorGreen:
		return "GREEN"
	case ColorYellow:
		return "YELLOW"
	case ColorRed:
		return "RED"
	default:
		return "UNKNOWN"
	}
}

// Worse возвращает худший из двух цветов.
func (c Color) Worse(other Color) Color {
	if other > c {
		return other
	}
	return c
}

// Thresholds - перцентили для зелёного и жёлтого порогов, в процентах.
type Thresholds struct {
	GreenPercentile  float64
	YellowPercentile float64
}

// DefaultThresholds возвращает пороги по умолчанию.
func DefaultThresholds() Thresholds {
	return Thresholds{
		GreenPercentile:  DefaultGreenPercentile,
		YellowPercentile: DefaultYellowPercentile,
	}
}

// PairQuality - оценка одной пары внутри группы. UserA.ID < UserB.ID.
type PairQuality struct {
	UserA   roulette.User
	UserB   roulette.User
	Penalty PenaltyInfo
	Color   Color
}

// MatchQuality - оценка группы: все её пары и итоговый цвет (худший из цветов пар).
// Группа без пар считается зелёной.
type MatchQuality struct {
	Pairs []PairQuality
	Color Color
}

// UsersInGroup возвращает число различных участников в парах группы.
func (q MatchQuality) UsersInGroup() int {
	seen := make(map[roulette.UserID]struct{})
	for _, p := range q.Pairs {
		seen[p.UserA.ID] = struct{}{}
		seen[p.UserB.ID] = struct{}{}
	}
	return len(seen)
}

// TotalPenalty возвращает суммарный штраф группы.
func (q MatchQuality) TotalPenalty() float64 {
	var sum float64
	for _, p := range q.Pairs {
		sum += p.Penalty.TotalPenalty()
	}
	return sum
}

// Threshold возвращает максимальный вес, попадающий в перцентиль p
// отсортированных по возрастанию весов: W[ceil(m*p/100)-1].
// Индекс меньше нуля даёт -Inf, индекс за концом - +Inf.
func Threshold(sortedWeights []float64, percentile float64) float64 {
	idx := int(math.Ceil(float64(len(sortedWeights))*percentile/100.0)) - 1
	if idx < 0 {
		return math.Inf(-1)
	}
	if idx >= len(sortedWeights) {
		return math.Inf(1)
	}
	return sortedWeights[idx]
}

// Evaluate оценивает каждую группу относительно распределения весов графа.
//
// Пары внутри группы перебираются в порядке участников группы, учитываются только
// пары с UserA.ID < UserB.ID. Пара без ребра в графе получает разложение
// с IsForbidden и штрафом forbiddenPenalty и считается красной.
// Участник, которого нет в графе, - ошибка целостности данных: ErrUserNotInGraph.
func Evaluate(g *Graph, groups [][]roulette.User, forbiddenPenalty float64, t Thresholds) ([]MatchQuality, error) {
	if len(groups) == 0 {
		return []MatchQuality{}, nil
	}
	for gi, group := range groups {
		for _, u := range group {
			if !g.Has(u.ID) {
				return nil, shared.WrapError("matching", "Evaluate", shared.ErrUserNotInGraph,
					fmt.Sprintf("user %d in group %d is not a participant", u.ID, gi), nil)
			}
		}
	}

	weights := g.Weights()
	sort.Float64s(weights)
	green := Threshold(weights, t.GreenPercentile)
	yellow := Threshold(weights, t.YellowPercentile)

	out := make([]MatchQuality, 0, len(groups))
	for _, group := range groups {
		q := MatchQuality{Color: ColorGreen}
		for _, a := range group {
			for _, b := range group {
				if a.ID >= b.ID {
					continue
				}
				pair := PairQuality{UserA: a, UserB: b}
				if e, ok := g.Edge(a.ID, b.ID); ok {
					pair.Penalty = e.Penalty
					pair.Color = colorOf(e.Weight, green, yellow)
				} else {
					pair.Penalty = forbiddenPenaltyInfo(forbiddenPenalty)
					pair.Color = ColorRed
				}
				q.Pairs = append(q.Pairs, pair)
				q.Color = q.Color.Worse(pair.Color)
			}
		}
		out = append(out, q)
	}
	return out, nil
}

func colorOf(weight, green, yellow float64) Color {
	switch {
	case weight <= green:
		return ColorGreen
	case weight <= yellow:
		return ColorYellow
	default:
		return ColorRed
	}
}
