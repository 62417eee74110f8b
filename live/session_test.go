package live

import (
	"testing"

	"github.com/matchlive/matchlive/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession() *Session {
	t1, t2 := 10, 20
	return NewSession(&models.Game{
		ID:      1,
		Team1ID: &t1,
		Team2ID: &t2,
		Status:  models.GameStatusScheduled,
	})
}

func startedSession(t *testing.T) *Session {
	t.Helper()
	s := newTestSession()
	_, err := s.Start("writer-1")
	require.NoError(t, err)
	return s
}

func TestSession_StartTransition(t *testing.T) {
	s := newTestSession()

	env, err := s.Start("writer-1")
	require.NoError(t, err)
	assert.Equal(t, KindStatusChange, env.Kind)
	assert.Equal(t, models.GameStatusInProgress, env.StatusChange.Status)
	assert.Equal(t, uint64(1), env.Seq)

	// A second start is not a valid transition.
	_, err = s.Start("writer-1")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSession_RecordEventIncrementsScoreAndSnapshots(t *testing.T) {
	s := startedSession(t)

	out, err := s.RecordEvent(models.EventGoal, 1, "header from the corner", "writer-1")
	require.NoError(t, err)
	require.Len(t, out, 2)

	eventEnv, snapEnv := out[0], out[1]
	assert.Equal(t, KindGameEvent, eventEnv.Kind)
	assert.NotEmpty(t, eventEnv.GameEvent.Event.ID)
	assert.Equal(t, 1, eventEnv.GameEvent.Event.Side)

	assert.Equal(t, KindScoreUpdate, snapEnv.Kind)
	assert.Equal(t, 1, snapEnv.ScoreUpdate.Team1Score)
	assert.Equal(t, 0, snapEnv.ScoreUpdate.Team2Score)
	assert.Greater(t, snapEnv.Seq, eventEnv.Seq, "snapshot must be strictly newer than its event")
}

func TestSession_OwnGoalCreditsOpponent(t *testing.T) {
	s := startedSession(t)

	out, err := s.RecordEvent(models.EventOwnGoal, 1, "", "writer-1")
	require.NoError(t, err)

	snap := out[1].ScoreUpdate
	assert.Equal(t, 0, snap.Team1Score)
	assert.Equal(t, 1, snap.Team2Score)
}

func TestSession_NonScoringEventLeavesScoreAlone(t *testing.T) {
	s := startedSession(t)

	out, err := s.RecordEvent(models.EventCard, 2, "late tackle", "writer-1")
	require.NoError(t, err)

	snap := out[1].ScoreUpdate
	assert.Equal(t, 0, snap.Team1Score)
	assert.Equal(t, 0, snap.Team2Score)
	assert.Len(t, s.Events(), 1)
}

func TestSession_RecordEventValidation(t *testing.T) {
	s := startedSession(t)

	_, err := s.RecordEvent(models.EventGoal, 3, "", "writer-1")
	assert.ErrorIs(t, err, ErrInvalidSide)

	_, err = s.Complete("writer-1")
	require.NoError(t, err)
	_, err = s.RecordEvent(models.EventGoal, 1, "", "writer-1")
	assert.ErrorIs(t, err, ErrSessionCompleted)
}

func TestSession_AdjustClampsAtZero(t *testing.T) {
	s := startedSession(t)

	env, err := s.Adjust(1, -5, "writer-1")
	require.NoError(t, err)
	assert.Equal(t, 0, env.ScoreUpdate.Team1Score)

	_, err = s.Adjust(1, 2, "writer-1")
	require.NoError(t, err)
	env, err = s.Adjust(1, -1, "writer-1")
	require.NoError(t, err)
	assert.Equal(t, 1, env.ScoreUpdate.Team1Score)
}

func TestSession_SequenceIsMonotonic(t *testing.T) {
	s := startedSession(t)

	var last uint64
	collect := func(envs ...*Envelope) {
		for _, env := range envs {
			require.Greater(t, env.Seq, last, "sequence must strictly increase")
			last = env.Seq
		}
	}

	out, err := s.RecordEvent(models.EventGoal, 1, "", "w")
	require.NoError(t, err)
	collect(out...)

	env, err := s.Adjust(2, 1, "w")
	require.NoError(t, err)
	collect(env)

	env, err = s.SetPeriod(2, "w")
	require.NoError(t, err)
	collect(env)

	env, err = s.Complete("w")
	require.NoError(t, err)
	collect(env)
}

func TestSession_TickBroadcastsEveryTenSeconds(t *testing.T) {
	s := startedSession(t)

	for i := 1; i <= 9; i++ {
		assert.Nil(t, s.Tick(), "tick %d should not broadcast", i)
	}
	env := s.Tick()
	require.NotNil(t, env)
	assert.Equal(t, KindScoreUpdate, env.Kind)
	assert.Equal(t, 10, env.ScoreUpdate.ClockSeconds)

	for i := 1; i <= 9; i++ {
		assert.Nil(t, s.Tick())
	}
	env = s.Tick()
	require.NotNil(t, env)
	assert.Equal(t, 20, env.ScoreUpdate.ClockSeconds)
}

func TestSession_TickIgnoredWhileClockStopped(t *testing.T) {
	s := newTestSession()
	assert.Nil(t, s.Tick(), "scheduled game has no running clock")

	_, err := s.Start("w")
	require.NoError(t, err)
	_, err = s.SetClockRunning(false, "w")
	require.NoError(t, err)

	for i := 0; i < 30; i++ {
		assert.Nil(t, s.Tick())
	}
	st := s.State()
	assert.Equal(t, 0, st.ClockSeconds)
}

func TestSession_ApplySnapshotReconcilesVerbatim(t *testing.T) {
	s := startedSession(t)
	_, err := s.RecordEvent(models.EventGoal, 1, "", "w")
	require.NoError(t, err)

	env, err := s.ApplySnapshot(&ScoreUpdate{
		Team1Score:   3,
		Team2Score:   2,
		Period:       2,
		ClockSeconds: 1800,
		ClockRunning: true,
	}, 0, "w")
	require.NoError(t, err)

	assert.Equal(t, 3, env.ScoreUpdate.Team1Score)
	assert.Equal(t, 2, env.ScoreUpdate.Team2Score)
	assert.Equal(t, 2, env.ScoreUpdate.Period)
	assert.Equal(t, 1800, env.ScoreUpdate.ClockSeconds)

	_, err = s.ApplySnapshot(&ScoreUpdate{Team1Score: -1}, 0, "w")
	assert.Error(t, err)
}

func TestSession_ApplySnapshotDiscardsReplayedWriter(t *testing.T) {
	s := startedSession(t)
	_, err := s.RecordEvent(models.EventGoal, 1, "", "w")
	require.NoError(t, err)
	before := s.State()

	// A snapshot replayed from before the goal must not roll the
	// scoreboard back.
	_, err = s.ApplySnapshot(&ScoreUpdate{}, 1, "w")
	assert.ErrorIs(t, err, ErrStaleSnapshot)
	_, err = s.ApplySnapshot(&ScoreUpdate{}, before.Seq, "w")
	assert.ErrorIs(t, err, ErrStaleSnapshot)

	st := s.State()
	assert.Equal(t, 1, st.Team1Score)
	assert.Equal(t, before.Seq, st.Seq)

	// A snapshot based on the current state goes through.
	env, err := s.ApplySnapshot(&ScoreUpdate{Team1Score: 2}, before.Seq+1, "w")
	require.NoError(t, err)
	assert.Equal(t, 2, env.ScoreUpdate.Team1Score)
	assert.Greater(t, env.Seq, before.Seq)
}

func TestSession_CompleteDecidesWinner(t *testing.T) {
	tests := []struct {
		name       string
		team1Goals int
		team2Goals int
		wantWinner *int
	}{
		{"team1 wins", 2, 1, intPtr(10)},
		{"team2 wins", 0, 3, intPtr(20)},
		{"draw leaves winner unset", 1, 1, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := startedSession(t)
			for i := 0; i < tt.team1Goals; i++ {
				_, err := s.RecordEvent(models.EventGoal, 1, "", "w")
				require.NoError(t, err)
			}
			for i := 0; i < tt.team2Goals; i++ {
				_, err := s.RecordEvent(models.EventGoal, 2, "", "w")
				require.NoError(t, err)
			}

			env, err := s.Complete("w")
			require.NoError(t, err)
			assert.Equal(t, models.GameStatusCompleted, env.StatusChange.Status)
			if tt.wantWinner == nil {
				assert.Nil(t, env.StatusChange.WinnerID)
			} else {
				require.NotNil(t, env.StatusChange.WinnerID)
				assert.Equal(t, *tt.wantWinner, *env.StatusChange.WinnerID)
			}

			_, err = s.Complete("w")
			assert.ErrorIs(t, err, ErrSessionCompleted)
		})
	}
}

func intPtr(v int) *int { return &v }
