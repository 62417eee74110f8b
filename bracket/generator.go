package bracket

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/matchlive/matchlive/models"
)

// GenerateParams carries everything a schedule generator needs. TeamIDs
// are treated as seed order: index 0 is the top seed.
type GenerateParams struct {
	TeamIDs []int
	Draw    models.DrawMode

	// Rand is used by the random draw mode. Optional; a time-seeded
	// source is used when nil.
	Rand *rand.Rand
}

type Generator interface {
	Generate(ctx context.Context, params GenerateParams) (*Bracket, error)

	Name() string
}

// Game is a generated match shell, not yet persisted. UIDs tie games
// together until the store assigns real IDs.
type Game struct {
	UID   string
	Round int
	Slot  int

	Team1ID *int
	Team2ID *int

	Status   models.GameStatus
	WinnerID *int
	IsBye    bool

	NextUID  *string
	NextSlot *int
}

// Bracket is the full round-structured set of generated games.
// Rounds[r-1] holds round r, ordered by slot.
type Bracket struct {
	Rounds      [][]*Game
	TotalRounds int
	GameCount   int
}

// Games returns all games flattened in (round, slot) order.
func (b *Bracket) Games() []*Game {
	out := make([]*Game, 0, b.GameCount)
	for _, round := range b.Rounds {
		out = append(out, round...)
	}
	return out
}

// Find returns the game with the given UID, or nil.
func (b *Bracket) Find(uid string) *Game {
	for _, round := range b.Rounds {
		for _, g := range round {
			if g.UID == uid {
				return g
			}
		}
	}
	return nil
}

func gameUID(round, slot int) string {
	return fmt.Sprintf("R%dM%d", round, slot+1)
}
