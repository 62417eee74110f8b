package bracket

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/matchlive/matchlive/models"
)

var (
	ErrNoTeams        = errors.New("cannot generate bracket with zero teams")
	ErrDuplicateTeams = errors.New("team list contains duplicate ids")
)

type SingleEliminationGenerator struct{}

func NewSingleEliminationGenerator() Generator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) Name() string {
	return "SingleElimination"
}

// Generate builds the full single-elimination structure for the given
// teams: round 1 populated with teams and byes, later rounds as empty
// shells, and every non-final game linked to the slot it feeds.
//
// Bye games are completed immediately with the present team as winner,
// and that winner is already written into the linked round-2 slot, the
// same write that completing a played game performs later.
func (g *SingleEliminationGenerator) Generate(ctx context.Context, params GenerateParams) (*Bracket, error) {
	n := len(params.TeamIDs)
	if n == 0 {
		return nil, ErrNoTeams
	}
	seen := make(map[int]struct{}, n)
	for _, id := range params.TeamIDs {
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: team %d", ErrDuplicateTeams, id)
		}
		seen[id] = struct{}{}
	}

	if n == 1 {
		// Degenerate bracket: a single bye, winner pre-set, no next round.
		only := params.TeamIDs[0]
		winner := only
		game := &Game{
			UID:      gameUID(1, 0),
			Round:    1,
			Slot:     0,
			Team1ID:  &only,
			Status:   models.GameStatusCompleted,
			WinnerID: &winner,
			IsBye:    true,
		}
		return &Bracket{Rounds: [][]*Game{{game}}, TotalRounds: 1, GameCount: 1}, nil
	}

	totalRounds := int(math.Ceil(math.Log2(float64(n))))
	bracketSize := 1 << uint(totalRounds)

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if params.Draw == models.DrawRandom {
		rng := params.Rand
		if rng == nil {
			rng = rand.New(rand.NewSource(time.Now().UnixNano()))
		}
		rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
	}

	// Slot the teams via the serpentine placement. Positions whose seed
	// index falls beyond the team count stay empty and become byes.
	slots := make([]*int, bracketSize)
	for pos, seedIdx := range seedOrder(bracketSize) {
		if seedIdx < n {
			id := params.TeamIDs[order[seedIdx]]
			slots[pos] = &id
		}
	}

	rounds := make([][]*Game, totalRounds)

	firstRound := make([]*Game, 0, bracketSize/2)
	for k := 0; k < bracketSize/2; k++ {
		t1 := slots[2*k]
		t2 := slots[2*k+1]
		game := &Game{
			UID:     gameUID(1, k),
			Round:   1,
			Slot:    k,
			Team1ID: t1,
			Team2ID: t2,
			Status:  models.GameStatusScheduled,
		}
		switch {
		case t1 == nil && t2 == nil:
			return nil, fmt.Errorf("round 1 pairing %d has no teams (teams=%d, bracket=%d)", k, n, bracketSize)
		case t1 == nil || t2 == nil:
			game.IsBye = true
			game.Status = models.GameStatusCompleted
			if t1 != nil {
				winner := *t1
				game.WinnerID = &winner
			} else {
				winner := *t2
				game.WinnerID = &winner
			}
		}
		firstRound = append(firstRound, game)
	}
	rounds[0] = firstRound

	for r := 2; r <= totalRounds; r++ {
		count := bracketSize >> uint(r)
		shells := make([]*Game, 0, count)
		for k := 0; k < count; k++ {
			shells = append(shells, &Game{
				UID:    gameUID(r, k),
				Round:  r,
				Slot:   k,
				Status: models.GameStatusScheduled,
			})
		}
		rounds[r-1] = shells
	}

	// Link siblings 2k and 2k+1 of round r to slot k of round r+1 and
	// advance bye winners into their target slot.
	for r := 1; r < totalRounds; r++ {
		for k, game := range rounds[r-1] {
			next := rounds[r][k/2]
			nextUID := next.UID
			slot := 1 + k%2
			game.NextUID = &nextUID
			game.NextSlot = &slot
			if game.IsBye {
				winner := *game.WinnerID
				if slot == 1 {
					next.Team1ID = &winner
				} else {
					next.Team2ID = &winner
				}
			}
		}
	}

	return &Bracket{
		Rounds:      rounds,
		TotalRounds: totalRounds,
		GameCount:   bracketSize - 1,
	}, nil
}
