package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coffee-roulette/roulette-hub/internal/domain/roulette"
	"github.com/coffee-roulette/roulette-hub/internal/domain/shared"
)

type fakeRoulettes struct {
	roulette.RouletteRepository
	items []roulette.Roulette
}

func (f *fakeRoulettes) GetByID(_ context.Context, id roulette.RouletteID) (*roulette.Roulette, error) {
	for i := range f.items {
		if f.items[i].ID == id {
			r := f.items[i]
			return &r, nil
		}
	}
	return nil, shared.ErrRouletteNotFound
}

func (f *fakeRoulettes) ListCurrent(_ context.Context, now time.Time) ([]roulette.Roulette, error) {
	var out []roulette.Roulette
	for _, r := range f.items {
		if !r.CoffeeDeadline.Before(now) {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeVotes struct {
	roulette.VoteRepository
	votes []roulette.Vote
}

func (f *fakeVotes) ListByRoulette(context.Context, roulette.RouletteID) ([]roulette.Vote, error) {
	return f.votes, nil
}

type fakeMatches struct {
	roulette.MatchRepository
	matches []roulette.Match
}

func (f *fakeMatches) ByRoulette(context.Context, roulette.RouletteID) ([]roulette.Match, error) {
	return f.matches, nil
}

type fakeUsers struct {
	roulette.UserRepository
	users []roulette.User
}

func (f *fakeUsers) GetByIDs(context.Context, []roulette.UserID) ([]roulette.User, error) {
	return f.users, nil
}

var now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestGetRoulette_Voting(t *testing.T) {
	ann := roulette.User{ID: 1, Name: "Ann"}
	r := roulette.Roulette{ID: 7, VoteDeadline: now.Add(72 * time.Hour), CoffeeDeadline: now.Add(240 * time.Hour)}
	h := NewGetRouletteHandler(
		&fakeRoulettes{items: []roulette.Roulette{r}},
		&fakeVotes{votes: []roulette.Vote{{RouletteID: 7, User: ann, Choice: roulette.ChoiceYes}}},
		&fakeMatches{},
		&fakeUsers{},
		func() time.Time { return now },
	)

	dto, err := h.Handle(context.Background(), GetRouletteQuery{RouletteID: 7})
	require.NoError(t, err)
	assert.Equal(t, "VOTING", dto.Roulette.State)
	assert.Equal(t, "3 days until voting ends", dto.Roulette.Remaining)
	require.Len(t, dto.Votes, 1)
	assert.Equal(t, "Yes", dto.Votes[0].Pretty)
	assert.Empty(t, dto.Groups)
}

func TestGetRoulette_FinalizedGroupsAreMerged(t *testing.T) {
	found := now.Add(-time.Hour)
	r := roulette.Roulette{ID: 3, VoteDeadline: now.Add(-48 * time.Hour), CoffeeDeadline: now.Add(48 * time.Hour), MatchingsFoundOn: &found}
	users := []roulette.User{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}, {ID: 3, Name: "C"}, {ID: 4, Name: "D"}}
	matches := []roulette.Match{
		roulette.NewMatch(3, 1, 2),
		roulette.NewMatch(3, 2, 3),
		roulette.NewMatch(3, 1, 3),
	}
	h := NewGetRouletteHandler(
		&fakeRoulettes{items: []roulette.Roulette{r}},
		&fakeVotes{},
		&fakeMatches{matches: matches},
		&fakeUsers{users: users},
		func() time.Time { return now },
	)

	dto, err := h.Handle(context.Background(), GetRouletteQuery{RouletteID: 3})
	require.NoError(t, err)
	assert.Equal(t, "COFFEE", dto.Roulette.State)
	require.Len(t, dto.Groups, 1)
	assert.Len(t, dto.Groups[0], 3)
}

func TestGetRoulette_NotFound(t *testing.T) {
	h := NewGetRouletteHandler(&fakeRoulettes{}, &fakeVotes{}, &fakeMatches{}, &fakeUsers{}, nil)
	_, err := h.Handle(context.Background(), GetRouletteQuery{RouletteID: 1})
	assert.ErrorIs(t, err, shared.ErrRouletteNotFound)
}

func TestListCurrentRoulettes(t *testing.T) {
	past := roulette.Roulette{ID: 1, VoteDeadline: now.Add(-72 * time.Hour), CoffeeDeadline: now.Add(-time.Hour)}
	current := roulette.Roulette{ID: 2, VoteDeadline: now.Add(time.Hour), CoffeeDeadline: now.Add(72 * time.Hour)}
	h := NewListCurrentRoulettesHandler(&fakeRoulettes{items: []roulette.Roulette{past, current}}, func() time.Time { return now })

	list, err := h.Handle(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(2), list[0].ID)
	assert.Equal(t, "VOTING", list[0].State)
}
