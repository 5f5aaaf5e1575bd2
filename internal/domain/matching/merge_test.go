package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coffee-roulette/roulette-hub/internal/domain/roulette"
)

func TestMergeMatches(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, MergeMatches(nil))
	})

	t.Run("pairs and triples", func(t *testing.T) {
		groups := MergeMatches([]roulette.Match{
			roulette.NewMatch(1, 1, 2),
			roulette.NewMatch(1, 3, 4),
			roulette.NewMatch(1, 3, 5),
			roulette.NewMatch(1, 4, 5),
		})
		assert.Equal(t, [][]roulette.UserID{{1, 2}, {3, 4, 5}}, groups)
	})

	t.Run("breadth first within component", func(t *testing.T) {
		groups := MergeMatches([]roulette.Match{
			{UserA: 7, UserB: 3},
			{UserA: 3, UserB: 9},
			{UserA: 7, UserB: 1},
		})
		assert.Equal(t, [][]roulette.UserID{{7, 3, 1, 9}}, groups)
	})
}

func TestResolveGroups(t *testing.T) {
	users := numberedUsers(3)
	resolved := ResolveGroups([][]roulette.UserID{{1, 3}, {2, 42}}, users)

	assert.Equal(t, [][]roulette.User{{users[0], users[2]}, {users[1]}}, resolved)
}
