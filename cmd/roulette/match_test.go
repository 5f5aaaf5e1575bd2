package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coffee-roulette/roulette-hub/internal/application/command"
	"github.com/coffee-roulette/roulette-hub/internal/domain/matching"
	"github.com/coffee-roulette/roulette-hub/internal/domain/roulette"
)

func TestParseGroups(t *testing.T) {
	groups, err := parseGroups([]string{"a=1,4", "b= 2, 3,5"})
	require.NoError(t, err)
	assert.Equal(t, map[string][]roulette.UserID{
		"a": {1, 4},
		"b": {2, 3, 5},
	}, groups)
	assert.Equal(t, []string{"a", "b"}, sortedGroupKeys(groups))
}

func TestParseGroups_Errors(t *testing.T) {
	for _, in := range [][]string{
		{"a"},
		{"=1,2"},
		{"a="},
		{"a=1,x"},
		{"a=1", "a=2"},
		{"a=0"},
	} {
		_, err := parseGroups(in)
		assert.Error(t, err, "%v", in)
	}
}

func TestDescribePenalty(t *testing.T) {
	assert.Equal(t, "no penalty", describePenalty(matching.PenaltyInfo{}))
	assert.Equal(t, "forbidden (10.00)", describePenalty(matching.PenaltyInfo{IsForbidden: true, ForbiddenPenalty: 10}))

	p := matching.PenaltyInfo{
		NumberOfMatches:        2,
		NumberOfMatchesPenalty: 1,
		RecentMatches:          []matching.RecentMatch{{Penalty: 0.5, DaysAgo: 182}},
	}
	assert.Equal(t, "1.50 = met 2 time(s) 1.00 + 182 days ago 0.50", describePenalty(p))
}

func TestPrintProposedGroup_ShowsGroupTotals(t *testing.T) {
	ann := roulette.User{ID: 1, Name: "Ann"}
	bob := roulette.User{ID: 2, Name: "Bob"}
	cid := roulette.User{ID: 3, Name: "Cid"}
	g := command.ProposedGroup{
		Key:     "1",
		Members: []roulette.User{ann, bob, cid},
		Quality: matching.MatchQuality{
			Color: matching.ColorYellow,
			Pairs: []matching.PairQuality{
				{UserA: ann, UserB: bob, Color: matching.ColorGreen},
				{UserA: ann, UserB: cid, Color: matching.ColorYellow, Penalty: matching.PenaltyInfo{NumberOfMatches: 1, NumberOfMatchesPenalty: 1.5}},
				{UserA: bob, UserB: cid, Color: matching.ColorGreen, Penalty: matching.PenaltyInfo{PenaltyGroupCount: 1, PenaltyGroupPenalty: 0.25}},
			},
		},
	}

	var buf bytes.Buffer
	printProposedGroup(&buf, g)

	out := buf.String()
	assert.Contains(t, out, "[YELLOW] Ann, Bob, Cid  (--group 1=1,2,3)")
	assert.Contains(t, out, "3 user(s) in 3 pair(s), group penalty 1.75")
}

func TestPrintProposedGroup_SingletonHasNoTotals(t *testing.T) {
	var buf bytes.Buffer
	printProposedGroup(&buf, command.ProposedGroup{Key: "1", Members: []roulette.User{{ID: 7, Name: "Eve"}}})

	assert.Contains(t, buf.String(), "[GREEN] Eve")
	assert.NotContains(t, buf.String(), "group penalty")
}
