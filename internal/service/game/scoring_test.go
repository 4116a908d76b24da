package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTotalRounds(t *testing.T) {
	cases := map[int]int{
		2: 4,
		3: 6,
		5: 10,
		6: 10,
		9: 10,
	}

	for players, rounds := range cases {
		assert.Equal(t, rounds, TotalRounds(players), "players=%d", players)
	}
}

func TestScoreRound(t *testing.T) {
	scores := map[string]*Score{
		"A": {Name: "Alice"},
		"B": {Name: "Bob"},
		"C": {Name: "Carol", Total: 100},
	}

	subs := []*Submission{
		{ID: "t", AuthorID: "A", IsTruth: true, Votes: []Vote{{VoterID: "B"}}},
		{ID: "b", AuthorID: "B", Votes: []Vote{{VoterID: "C"}}},
		{ID: "c", AuthorID: "C"},
	}

	ScoreRound(subs, scores)

	assert.Equal(t, Score{Name: "Alice", Total: 500, RoundScore: 500}, *scores["A"])
	assert.Equal(t, Score{Name: "Bob", Total: 300, RoundScore: 300}, *scores["B"])
	assert.Equal(t, Score{Name: "Carol", Total: 100, RoundScore: 0}, *scores["C"])
}

func TestScoreRoundSkipsDepartedPlayers(t *testing.T) {
	scores := map[string]*Score{
		"A": {Name: "Alice"},
	}

	subs := []*Submission{
		{ID: "t", AuthorID: "A", IsTruth: true, Votes: []Vote{{VoterID: "gone"}, {VoterID: "A"}}},
		{ID: "g", AuthorID: "gone", Votes: []Vote{{VoterID: "A"}}},
	}

	ScoreRound(subs, scores)

	assert.Equal(t, 1200, scores["A"].Total)
	assert.NotContains(t, scores, "gone")
}

func TestSettingsNormalize(t *testing.T) {
	defaults := Settings{DrawingTime: 60, SubmittingTime: 45, VotingTime: 30}

	got := Settings{DrawingTime: 0, SubmittingTime: -5, VotingTime: 9000}.normalize(defaults, 600)

	assert.Equal(t, Settings{DrawingTime: 60, SubmittingTime: 45, VotingTime: 600}, got)
}
