package matching

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coffee-roulette/roulette-hub/internal/domain/roulette"
)

// stepClock advances by step on every call.
func stepClock(step time.Duration) func() time.Time {
	now := testNow
	return func() time.Time {
		now = now.Add(step)
		return now
	}
}

func newTestMatcher(seed int64) *Matcher {
	return NewMatcher(time.Second,
		WithRand(rand.New(rand.NewSource(seed))),
		WithClock(stepClock(100*time.Millisecond)),
	)
}

func buildTestGraph(t *testing.T, in GraphInput) *Graph {
	t.Helper()
	if in.Config == (roulette.PenaltyConfig{}) {
		in.Config = roulette.DefaultPenaltyConfig()
	}
	in.Now = testNow
	g, err := BuildGraph(in)
	require.NoError(t, err)
	return g
}

func assertPartition(t *testing.T, users []roulette.User, groups [][]roulette.User) {
	t.Helper()
	seen := make(map[roulette.UserID]int)
	for _, group := range groups {
		for _, u := range group {
			seen[u.ID]++
		}
	}
	assert.Len(t, seen, len(users))
	for _, u := range users {
		assert.Equal(t, 1, seen[u.ID], "user %d", u.ID)
	}
}

func TestMatcher_TooFewUsers(t *testing.T) {
	m := newTestMatcher(1)

	empty := m.Generate(context.Background(), buildTestGraph(t, GraphInput{}), 10)
	assert.Empty(t, empty.Groups)
	assert.Zero(t, empty.TotalPenalty)
	assert.Zero(t, empty.Iterations)

	single := m.Generate(context.Background(), buildTestGraph(t, GraphInput{Users: numberedUsers(1)}), 10)
	assert.Empty(t, single.Groups)
	assert.Zero(t, single.TotalPenalty)
}

func TestMatcher_EvenUsersArePaired(t *testing.T) {
	users := numberedUsers(6)
	g := buildTestGraph(t, GraphInput{Users: users})

	result := newTestMatcher(42).Generate(context.Background(), g, 10)

	assertPartition(t, users, result.Groups)
	assert.Len(t, result.Groups, 3)
	for _, group := range result.Groups {
		assert.Len(t, group, 2)
	}
	assert.Zero(t, result.TotalPenalty)
}

func TestMatcher_OddUserJoinsAGroup(t *testing.T) {
	users := numberedUsers(5)
	g := buildTestGraph(t, GraphInput{Users: users})

	result := newTestMatcher(7).Generate(context.Background(), g, 10)

	assertPartition(t, users, result.Groups)
	sizes := map[int]int{}
	for _, group := range result.Groups {
		sizes[len(group)]++
	}
	assert.Equal(t, map[int]int{2: 1, 3: 1}, sizes)
	assert.Zero(t, result.TotalPenalty)
}

func TestMatcher_AvoidsPenalizedPairs(t *testing.T) {
	users := numberedUsers(4)
	g := buildTestGraph(t, GraphInput{
		Users: users,
		PenaltyGroups: []roulette.PenaltyGroup{
			{Members: []roulette.User{users[0], users[1]}},
			{Members: []roulette.User{users[2], users[3]}},
		},
	})

	result := newTestMatcher(3).Generate(context.Background(), g, 10)

	assertPartition(t, users, result.Groups)
	assert.Zero(t, result.TotalPenalty)
	for _, group := range result.Groups {
		require.Len(t, group, 2)
		sum := group[0].ID + group[1].ID
		assert.NotContains(t, []roulette.UserID{3, 7}, sum, "penalized pair %v", group)
	}
}

func TestMatcher_NoEdgesFormsSingleArtificialGroup(t *testing.T) {
	users := numberedUsers(3)
	g := buildTestGraph(t, GraphInput{
		Users:           users,
		ExclusionGroups: []roulette.ExclusionGroup{{Members: users}},
	})

	result := newTestMatcher(5).Generate(context.Background(), g, 10)

	require.Len(t, result.Groups, 1)
	assert.Equal(t, users, result.Groups[0])
	// second user: 1 forbidden member, third user: 2 forbidden members
	assert.InDelta(t, 30, result.TotalPenalty, 1e-9)
}

func TestMatcher_ForbiddenChargePerMissingEdge(t *testing.T) {
	users := numberedUsers(3)
	// 1-2 and 1-3 allowed, 2-3 forbidden: one pair with 1, the other joins with one forbidden charge.
	g := buildTestGraph(t, GraphInput{
		Users:           users,
		ExclusionGroups: []roulette.ExclusionGroup{{Members: []roulette.User{users[1], users[2]}}},
	})

	result := newTestMatcher(11).Generate(context.Background(), g, 10)

	require.Len(t, result.Groups, 1)
	assert.Len(t, result.Groups[0], 3)
	assert.InDelta(t, 10, result.TotalPenalty, 1e-9)
}

func TestMatcher_RunsAtLeastOnceWhenBudgetIsSpent(t *testing.T) {
	users := numberedUsers(4)
	g := buildTestGraph(t, GraphInput{Users: users})
	m := NewMatcher(time.Nanosecond,
		WithRand(rand.New(rand.NewSource(1))),
		WithClock(stepClock(time.Hour)),
	)

	result := m.Generate(context.Background(), g, 10)

	assert.Equal(t, 1, result.Iterations)
	assertPartition(t, users, result.Groups)
}

func TestMatcher_StopsOnCancelledContext(t *testing.T) {
	users := numberedUsers(4)
	g := buildTestGraph(t, GraphInput{Users: users})
	m := NewMatcher(time.Hour,
		WithRand(rand.New(rand.NewSource(1))),
		WithClock(func() time.Time { return testNow }),
	)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := m.Generate(ctx, g, 10)

	assert.Equal(t, 1, result.Iterations)
	assertPartition(t, users, result.Groups)
}

func TestMatcher_IterationCountFollowsBudget(t *testing.T) {
	g := buildTestGraph(t, GraphInput{Users: numberedUsers(4)})

	// The deadline is taken at +100ms, so it lands on +1.1s. Iteration k
	// checks the clock at +(k+1)*100ms and the loop stops once that is
	// strictly after the deadline.
	result := newTestMatcher(9).Generate(context.Background(), g, 10)

	assert.Equal(t, 11, result.Iterations)
}
