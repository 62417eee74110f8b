package bracket

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundRobin_AllPairsExactlyOnce(t *testing.T) {
	for n := 2; n <= 12; n++ {
		t.Run(fmt.Sprintf("teams_%d", n), func(t *testing.T) {
			g := NewRoundRobinGenerator()
			b, err := g.Generate(context.Background(), GenerateParams{TeamIDs: teamIDs(n)})
			require.NoError(t, err)

			wantGames := n * (n - 1) / 2
			assert.Equal(t, wantGames, b.GameCount)
			assert.Len(t, b.Games(), wantGames)

			wantRounds := n - 1
			if n%2 != 0 {
				wantRounds = n
			}
			assert.Equal(t, wantRounds, b.TotalRounds)

			pairs := make(map[[2]int]int)
			for _, round := range b.Rounds {
				inRound := make(map[int]bool)
				for _, game := range round {
					require.NotNil(t, game.Team1ID)
					require.NotNil(t, game.Team2ID)
					t1, t2 := *game.Team1ID, *game.Team2ID
					require.NotEqual(t, t1, t2)

					assert.False(t, inRound[t1], "team %d plays twice in round %d", t1, game.Round)
					assert.False(t, inRound[t2], "team %d plays twice in round %d", t2, game.Round)
					inRound[t1] = true
					inRound[t2] = true

					key := [2]int{min(t1, t2), max(t1, t2)}
					pairs[key]++
				}
			}

			assert.Len(t, pairs, wantGames)
			for pair, count := range pairs {
				assert.Equal(t, 1, count, "pair %v scheduled more than once", pair)
			}
		})
	}
}

func TestRoundRobin_DoubleLegSwapsHomeAndAway(t *testing.T) {
	g := &RoundRobinGenerator{DoubleLeg: true}
	n := 4
	b, err := g.Generate(context.Background(), GenerateParams{TeamIDs: teamIDs(n)})
	require.NoError(t, err)

	assert.Equal(t, n*(n-1), b.GameCount)
	assert.Equal(t, 2*(n-1), b.TotalRounds)

	ordered := make(map[[2]int]int)
	for _, game := range b.Games() {
		ordered[[2]int{*game.Team1ID, *game.Team2ID}]++
	}
	for pair, count := range ordered {
		require.Equal(t, 1, count, "ordered pair %v", pair)
		assert.Equal(t, 1, ordered[[2]int{pair[1], pair[0]}], "missing return leg for %v", pair)
	}
}

func TestRoundRobin_RejectsTooFewTeams(t *testing.T) {
	g := NewRoundRobinGenerator()
	_, err := g.Generate(context.Background(), GenerateParams{TeamIDs: []int{1}})
	assert.Error(t, err)
}
