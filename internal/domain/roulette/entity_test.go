package roulette

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coffee-roulette/roulette-hub/internal/domain/shared"
)

func TestNewRoulette_RequiresVoteBeforeCoffee(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	_, err := NewRoulette(now, now)
	assert.True(t, errors.Is(err, shared.ErrInvalidDeadlines))

	_, err = NewRoulette(now.Add(time.Hour), now)
	assert.True(t, shared.IsValidation(err))

	r, err := NewRoulette(now, now.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, r.IsFinalized())
}

func TestRoulette_StateMachine(t *testing.T) {
	vote := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	coffee := vote.AddDate(0, 0, 7)
	r := Roulette{ID: 1, VoteDeadline: vote, CoffeeDeadline: coffee}

	before := vote.Add(-time.Hour)
	assert.Equal(t, StateVoting, r.ShortState(before))
	assert.False(t, r.CanGenerateMatches(before))
	assert.True(t, r.CanChangeVotes())

	after := vote.Add(time.Hour)
	assert.Equal(t, StateMatchNow, r.ShortState(after))
	assert.True(t, r.CanGenerateMatches(after))

	found := after
	r.MatchingsFoundOn = &found
	assert.Equal(t, StateCoffee, r.ShortState(after))
	assert.False(t, r.CanGenerateMatches(after))
	assert.False(t, r.CanChangeVotes())
	assert.Equal(t, StateFinished, r.ShortState(coffee.Add(time.Minute)))
}

func TestRoulette_Remaining(t *testing.T) {
	vote := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	r := Roulette{VoteDeadline: vote, CoffeeDeadline: vote.AddDate(0, 0, 3)}

	assert.Equal(t, "5 minutes until voting ends", r.Remaining(vote.Add(-5*time.Minute)))
	assert.Equal(t, "2 days until coffee ends", r.Remaining(vote.Add(time.Hour)))
	assert.Equal(t, "coffee ended less than a minute ago", r.Remaining(r.CoffeeDeadline.Add(10*time.Second)))
}

func TestLastCompleted(t *testing.T) {
	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.AddDate(0, 1, 0)

	assert.Nil(t, LastCompleted(nil))
	assert.Nil(t, LastCompleted([]Roulette{{ID: 1}}))

	last := LastCompleted([]Roulette{
		{ID: 1, MatchingsFoundOn: &t2},
		{ID: 2},
		{ID: 3, MatchingsFoundOn: &t1},
	})
	require.NotNil(t, last)
	assert.Equal(t, RouletteID(1), last.ID)
}

func TestParseChoice(t *testing.T) {
	c, err := ParseChoice("Yes")
	require.NoError(t, err)
	assert.Equal(t, ChoiceYes, c)

	c, err = ParseChoice("n")
	require.NoError(t, err)
	assert.Equal(t, "No", c.Pretty())

	_, err = ParseChoice("maybe")
	assert.True(t, errors.Is(err, shared.ErrInvalidVoteChoice))
}

func TestGroupName(t *testing.T) {
	g := ExclusionGroup{Members: []User{{ID: 2, Name: "Zoe"}, {ID: 1, Name: "Adam"}}}
	assert.Equal(t, "Adam, Zoe", g.Name())

	g.CustomName = "Team A"
	assert.Equal(t, "Team A", g.Name())

	assert.Equal(t, "Empty penalty group", PenaltyGroup{}.Name())
}

func TestValidateGroups(t *testing.T) {
	assert.True(t, errors.Is(ValidateGroups(nil), shared.ErrEmptySubmission))
	assert.NoError(t, ValidateGroups([][]UserID{{1, 2}, {3, 4, 5}}))

	err := ValidateGroups([][]UserID{{1, 2}, {2, 3}})
	assert.True(t, errors.Is(err, shared.ErrUserInMultipleGroups))
	assert.True(t, shared.IsValidation(err))
}

func TestGroupPairs(t *testing.T) {
	pairs := GroupPairs(7, []UserID{4, 2, 9})
	assert.Equal(t, []Match{
		{RouletteID: 7, UserA: 2, UserB: 4},
		{RouletteID: 7, UserA: 4, UserB: 9},
		{RouletteID: 7, UserA: 2, UserB: 9},
	}, pairs)

	assert.Empty(t, GroupPairs(7, []UserID{1}))
}

func TestPenaltyConfigFromSettings(t *testing.T) {
	cfg := PenaltyConfigFromSettings(map[string]float64{SettingPenaltyGroup: 5})
	want := DefaultPenaltyConfig()
	want.PenaltyGroup = 5
	assert.Equal(t, want, cfg)
	assert.NoError(t, cfg.Validate())
}
