package bracket

import (
	"context"
	"fmt"

	"github.com/matchlive/matchlive/models"
)

// RoundRobinGenerator produces an all-pairs schedule using the circle
// method: with n teams (padded to even with a sit-out slot) each round
// pairs everyone once, over n-1 rounds. DoubleLeg repeats the schedule
// with home/away swapped.
type RoundRobinGenerator struct {
	DoubleLeg bool
}

func NewRoundRobinGenerator() Generator {
	return &RoundRobinGenerator{}
}

func (g *RoundRobinGenerator) Name() string {
	return "RoundRobin"
}

func (g *RoundRobinGenerator) Generate(ctx context.Context, params GenerateParams) (*Bracket, error) {
	n := len(params.TeamIDs)
	if n < 2 {
		return nil, fmt.Errorf("round robin requires at least 2 teams, got %d", n)
	}

	// Circle method over team indices; -1 marks the sit-out slot for
	// odd team counts.
	ring := make([]int, 0, n+1)
	for i := range params.TeamIDs {
		ring = append(ring, i)
	}
	if n%2 != 0 {
		ring = append(ring, -1)
	}
	size := len(ring)
	roundCount := size - 1

	legs := 1
	if g.DoubleLeg {
		legs = 2
	}

	rounds := make([][]*Game, 0, roundCount*legs)
	gameCount := 0

	for leg := 0; leg < legs; leg++ {
		fixed := ring[0]
		rest := append([]int(nil), ring[1:]...)

		for r := 0; r < roundCount; r++ {
			roundNum := leg*roundCount + r + 1
			games := make([]*Game, 0, size/2)
			slot := 0

			pair := func(a, b int) {
				if a < 0 || b < 0 {
					return
				}
				// Second leg swaps home and away.
				if leg == 1 {
					a, b = b, a
				}
				t1 := params.TeamIDs[a]
				t2 := params.TeamIDs[b]
				games = append(games, &Game{
					UID:     gameUID(roundNum, slot),
					Round:   roundNum,
					Slot:    slot,
					Team1ID: &t1,
					Team2ID: &t2,
					Status:  models.GameStatusScheduled,
				})
				slot++
				gameCount++
			}

			pair(fixed, rest[len(rest)-1])
			for i := 0; i < (size/2)-1; i++ {
				pair(rest[i], rest[len(rest)-2-i])
			}

			// Rotate for the next round.
			rest = append([]int{rest[len(rest)-1]}, rest[:len(rest)-1]...)
			rounds = append(rounds, games)
		}
	}

	return &Bracket{
		Rounds:      rounds,
		TotalRounds: roundCount * legs,
		GameCount:   gameCount,
	}, nil
}
