package matching

import (
	"fmt"
	"math"
	"time"

	"github.com/coffee-roulette/roulette-hub/internal/domain/roulette"
	"github.com/coffee-roulette/roulette-hub/internal/domain/shared"
	"github.com/coffee-roulette/roulette-hub/pkg/timeutil"
)

// RecencyWindowDays - за сколько дней недавняя встреча полностью перестаёт штрафоваться.
const RecencyWindowDays = 365

// ══════════════════════════════════════════════════════════════════════════════
// GRAPH
// ══════════════════════════════════════════════════════════════════════════════

// Edge - допустимая пара с весом (меньше - лучше).
type Edge struct {
	To      roulette.User
	Weight  float64
	Penalty PenaltyInfo
}

// Node - участник и все допустимые для него пары.
type Node struct {
	User  roulette.User
	Edges []Edge
}

// Graph - симметричный взвешенный граф допустимых пар.
// Каждое неориентированное ребро хранится дважды, петель нет.
// Порядок узлов совпадает с порядком участников во входных данных.
type Graph struct {
	Nodes []Node

	index map[roulette.UserID]int
	edges []map[roulette.UserID]int
}

// Len возвращает число узлов.
func (g *Graph) Len() int {
	return len(g.Nodes)
}

// Has проверяет, есть ли участник в графе.
func (g *Graph) Has(id roulette.UserID) bool {
	_, ok := g.index[id]
	return ok
}

// Edge возвращает ребро a -> b, если пара допустима.
func (g *Graph) Edge(a, b roulette.UserID) (Edge, bool) {
	i, ok := g.index[a]
	if !ok {
		return Edge{}, false
	}
	j, ok := g.edges[i][b]
	if !ok {
		return Edge{}, false
	}
	return g.Nodes[i].Edges[j], true
}

// Weights возвращает веса всех ориентированных рёбер (каждое неориентированное - дважды).
func (g *Graph) Weights() []float64 {
	var out []float64
	for _, n := range g.Nodes {
		for _, e := range n.Edges {
			out = append(out, e.Weight)
		}
	}
	return out
}

// newGraph создаёт пустой граф с индексами.
func newGraph(users []roulette.User) (*Graph, error) {
	g := &Graph{
		Nodes: make([]Node, len(users)),
		index: make(map[roulette.UserID]int, len(users)),
		edges: make([]map[roulette.UserID]int, len(users)),
	}
	for i, u := range users {
		if _, dup := g.index[u.ID]; dup {
			return nil, shared.WrapError("matching", "BuildGraph", shared.ErrDuplicateUser,
				fmt.Sprintf("user %d", u.ID), nil)
		}
		g.index[u.ID] = i
		g.edges[i] = make(map[roulette.UserID]int)
		g.Nodes[i] = Node{User: u}
	}
	return g, nil
}

func (g *Graph) addEdge(from int, e Edge) {
	g.edges[from][e.To.ID] = len(g.Nodes[from].Edges)
	g.Nodes[from].Edges = append(g.Nodes[from].Edges, e)
}

// ══════════════════════════════════════════════════════════════════════════════
// GRAPH BUILDER
// ══════════════════════════════════════════════════════════════════════════════

// GraphInput - снимок данных, на основе которых строится граф.
type GraphInput struct {
	// Users - участники раунда (проголосовавшие "да").
	Users []roulette.User
	// Config - штрафы.
	Config roulette.PenaltyConfig
	// History - все пары всех зафиксированных раундов.
	History []roulette.PastMatch
	// LastRoundID - последний зафиксированный раунд; 0, если такого нет.
	// Пары этого раунда запрещены.
	LastRoundID roulette.RouletteID
	// ExclusionGroups - участники одной группы не могут быть в паре.
	ExclusionGroups []roulette.ExclusionGroup
	// PenaltyGroups - общие группы штрафуют пару.
	PenaltyGroups []roulette.PenaltyGroup
	// Now - момент, от которого считается давность встреч.
	Now time.Time
}

type pairKey struct {
	a, b roulette.UserID
}

func keyOf(a, b roulette.UserID) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{a, b}
}

// BuildGraph строит граф допустимых пар.
//
// Для каждого участника u исключены: сам u, участники общих групп исключений
// и все, с кем u был в паре в последнем зафиксированном раунде. Для остальных v
// вес ребра = штраф за общие штрафные группы + штраф за число прошлых встреч +
// сумма штрафов за встречи за последний год. Записи истории и групп,
// относящиеся к участникам вне Users, просто не влияют на результат.
func BuildGraph(in GraphInput) (*Graph, error) {
	if err := in.Config.Validate(); err != nil {
		return nil, err
	}
	g, err := newGraph(in.Users)
	if err != nil {
		return nil, err
	}

	excluded := make(map[pairKey]bool)
	for _, group := range in.ExclusionGroups {
		ids := group.MemberIDs()
		for i := range ids {
			for j := i + 1; j < len(ids); j++ {
				excluded[keyOf(ids[i], ids[j])] = true
			}
		}
	}

	history := make(map[pairKey][]roulette.PastMatch)
	for _, m := range in.History {
		k := keyOf(m.UserA, m.UserB)
		history[k] = append(history[k], m)
		if in.LastRoundID != 0 && m.RouletteID == in.LastRoundID {
			excluded[k] = true
		}
	}

	sharedGroups := make(map[pairKey]int)
	for _, group := range in.PenaltyGroups {
		ids := group.MemberIDs()
		for i := range ids {
			for j := i + 1; j < len(ids); j++ {
				if ids[i] != ids[j] {
					sharedGroups[keyOf(ids[i], ids[j])]++
				}
			}
		}
	}

	cutoff := in.Now.Add(-RecencyWindowDays * timeutil.Day)
	for i, u := range in.Users {
		for _, v := range in.Users {
			if u.ID == v.ID {
				continue
			}
			k := keyOf(u.ID, v.ID)
			if excluded[k] {
				continue
			}
			info := pairPenalty(in.Config, sharedGroups[k], history[k], cutoff, in.Now)
			g.addEdge(i, Edge{To: v, Weight: info.TotalPenalty(), Penalty: info})
		}
	}
	return g, nil
}

func pairPenalty(cfg roulette.PenaltyConfig, groups int, past []roulette.PastMatch, cutoff, now time.Time) PenaltyInfo {
	info := PenaltyInfo{
		PenaltyGroupCount:      groups,
		PenaltyGroupPenalty:    float64(groups) * cfg.PenaltyGroup,
		NumberOfMatches:        len(past),
		NumberOfMatchesPenalty: float64(len(past)) * cfg.NumberOfMatches,
	}
	for _, m := range past {
		if m.CompletedAt.Before(cutoff) {
			continue
		}
		days := timeutil.DaysElapsed(m.CompletedAt, now)
		penalty := math.Max(0, cfg.RecentMatch*(1-float64(days)/RecencyWindowDays))
		info.RecentMatches = append(info.RecentMatches, RecentMatch{Penalty: penalty, DaysAgo: days})
	}
	return info
}
