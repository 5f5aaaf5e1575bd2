package matching

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/coffee-roulette/roulette-hub/internal/domain/roulette"
)

// DefaultTimeBudget - время работы подбора по умолчанию.
const DefaultTimeBudget = time.Second

// Matching - разбиение участников на группы и его суммарный штраф.
type Matching struct {
	Groups       [][]roulette.User
	TotalPenalty float64
	// Iterations - сколько случайных разбиений было перебрано.
	Iterations int
}

// Matcher ищет разбиение с минимальным суммарным штрафом методом Монте-Карло:
// строит случайные разбиения, пока не истечёт отведённое время, и оставляет лучшее.
// Результат зависит от генератора случайных чисел; для воспроизводимости
// передайте генератор с фиксированным seed через WithRand.
type Matcher struct {
	budget time.Duration
	now    func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// MatcherOption настраивает Matcher.
type MatcherOption func(*Matcher)

// WithRand задаёт генератор случайных чисел.
func WithRand(rng *rand.Rand) MatcherOption {
	return func(m *Matcher) {
		m.rng = rng
	}
}

// WithClock задаёт источник текущего времени.
func WithClock(now func() time.Time) MatcherOption {
	return func(m *Matcher) {
		m.now = now
	}
}

// NewMatcher создаёт Matcher с заданным бюджетом времени.
func NewMatcher(budget time.Duration, opts ...MatcherOption) *Matcher {
	if budget <= 0 {
		budget = DefaultTimeBudget
	}
	m := &Matcher{
		budget: budget,
		now:    time.Now,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Generate перебирает случайные разбиения графа и возвращает лучшее.
//
// Для графа из 0 или 1 узла возвращается пустой результат. Иначе выполняется
// хотя бы одна итерация: время проверяется после каждой итерации, а лучшим
// становится только строго меньший штраф. forbiddenPenalty начисляется
// за каждого участника группы, с которым у добавленного одиночки нет ребра.
// Отмена ctx останавливает перебор так же, как истечение бюджета.
func (m *Matcher) Generate(ctx context.Context, g *Graph, forbiddenPenalty float64) Matching {
	if g == nil || g.Len() <= 1 {
		return Matching{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	best := Matching{TotalPenalty: math.Inf(1)}
	deadline := m.now().Add(m.budget)
	for {
		best.Iterations++
		groups, penalty := m.iterate(g, forbiddenPenalty)
		if penalty < best.TotalPenalty {
			best.Groups = groups
			best.TotalPenalty = penalty
		}
		if m.now().After(deadline) || ctx.Err() != nil {
			break
		}
	}
	return best
}

// iterate строит одно случайное разбиение.
func (m *Matcher) iterate(g *Graph, forbiddenPenalty float64) ([][]roulette.User, float64) {
	n := g.Len()
	pending := make([]int, n)
	for i := range pending {
		pending[i] = i
	}
	m.rng.Shuffle(n, func(i, j int) { pending[i], pending[j] = pending[j], pending[i] })

	processed := make([]bool, n)
	var (
		groups     [][]int
		singletons []int
		total      float64
		candidates []Edge
	)

	// ─── Случайные пары ───
	for len(pending) > 0 {
		idx := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		if processed[idx] {
			continue
		}
		processed[idx] = true

		candidates = candidates[:0]
		for _, e := range g.Nodes[idx].Edges {
			if !processed[g.index[e.To.ID]] {
				candidates = append(candidates, e)
			}
		}
		if len(candidates) == 0 {
			singletons = append(singletons, idx)
			continue
		}
		pick := candidates[m.rng.Intn(len(candidates))]
		partner := g.index[pick.To.ID]
		processed[partner] = true
		groups = append(groups, []int{idx, partner})
		total += pick.Weight
	}

	// ─── Одиночки ───
	// Одиночки раскладываются в порядке узлов графа по случайным группам.
	// Если пар не получилось совсем, первый одиночка образует группу сам.
	sort.Ints(singletons)
	for _, idx := range singletons {
		if len(groups) == 0 {
			groups = append(groups, []int{idx})
			continue
		}
		gi := m.rng.Intn(len(groups))
		for _, member := range groups[gi] {
			if j, ok := g.edges[idx][g.Nodes[member].User.ID]; ok {
				total += g.Nodes[idx].Edges[j].Weight
			} else {
				total += forbiddenPenalty
			}
		}
		groups[gi] = append(groups[gi], idx)
	}

	out := make([][]roulette.User, len(groups))
	for i, group := range groups {
		users := make([]roulette.User, len(group))
		for j, idx := range group {
			users[j] = g.Nodes[idx].User
		}
		out[i] = users
	}
	return out, total
}
