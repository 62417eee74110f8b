package live

import (
	"testing"

	"github.com/matchlive/matchlive/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_RoundTrip(t *testing.T) {
	in := &Envelope{
		Kind:   KindScoreUpdate,
		V:      SchemaVersion,
		Seq:    12,
		GameID: 7,
		Sender: "writer-1",
		ScoreUpdate: &ScoreUpdate{
			Team1Score:   2,
			Team2Score:   1,
			Period:       2,
			ClockSeconds: 310,
			ClockRunning: true,
		},
	}

	data, err := in.Encode()
	require.NoError(t, err)

	out, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, in.Kind, out.Kind)
	assert.Equal(t, in.Seq, out.Seq)
	assert.Equal(t, in.GameID, out.GameID)
	require.NotNil(t, out.ScoreUpdate)
	assert.Equal(t, *in.ScoreUpdate, *out.ScoreUpdate)
}

func TestDecode_Validation(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr error
	}{
		{
			name:    "unknown kind",
			payload: `{"kind":"telemetry","v":1}`,
			wantErr: ErrUnknownKind,
		},
		{
			name:    "wrong schema version",
			payload: `{"kind":"score_update","v":99,"score_update":{}}`,
			wantErr: ErrBadVersion,
		},
		{
			name:    "kind without matching payload",
			payload: `{"kind":"game_event","v":1,"score_update":{}}`,
			wantErr: ErrMissingPayload,
		},
		{
			name:    "status change without payload",
			payload: `{"kind":"status_change","v":1}`,
			wantErr: ErrMissingPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.payload))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := Decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestDecode_StatusChange(t *testing.T) {
	payload := `{"kind":"status_change","v":1,"seq":4,"game_id":3,"status_change":{"status":"completed","winner_id":10}}`

	env, err := Decode([]byte(payload))
	require.NoError(t, err)
	assert.Equal(t, models.GameStatusCompleted, env.StatusChange.Status)
	require.NotNil(t, env.StatusChange.WinnerID)
	assert.Equal(t, 10, *env.StatusChange.WinnerID)
}
