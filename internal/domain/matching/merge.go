package matching

import "github.com/coffee-roulette/roulette-hub/internal/domain/roulette"

// MergeMatches восстанавливает группы раунда из сохранённых пар:
// группа - компонента связности графа пар. Компоненты перечисляются в порядке
// первого появления участника в списке пар, внутри компоненты - в порядке обхода
// в ширину. Участники без пар в результат не попадают.
func MergeMatches(matches []roulette.Match) [][]roulette.UserID {
	var order []roulette.UserID
	adjacency := make(map[roulette.UserID][]roulette.UserID)
	link := func(from, to roulette.UserID) {
		if _, ok := adjacency[from]; !ok {
			order = append(order, from)
		}
		adjacency[from] = append(adjacency[from], to)
	}
	for _, m := range matches {
		link(m.UserA, m.UserB)
		link(m.UserB, m.UserA)
	}

	visited := make(map[roulette.UserID]bool, len(order))
	var groups [][]roulette.UserID
	for _, start := range order {
		if visited[start] {
			continue
		}
		var group []roulette.UserID
		queue := []roulette.UserID{start}
		for len(queue) > 0 {
			u := queue[0]
			queue = queue[1:]
			if visited[u] {
				continue
			}
			visited[u] = true
			group = append(group, u)
			queue = append(queue, adjacency[u]...)
		}
		groups = append(groups, group)
	}
	return groups
}

// ResolveGroups заменяет идентификаторы участниками.
// Неизвестные идентификаторы пропускаются.
func ResolveGroups(groups [][]roulette.UserID, users []roulette.User) [][]roulette.User {
	byID := make(map[roulette.UserID]roulette.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	out := make([][]roulette.User, 0, len(groups))
	for _, group := range groups {
		resolved := make([]roulette.User, 0, len(group))
		for _, id := range group {
			if u, ok := byID[id]; ok {
				resolved = append(resolved, u)
			}
		}
		out = append(out, resolved)
	}
	return out
}
