package lifecycle_test

import (
	"testing"

	"commitbot/lifecycle"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    lifecycle.Kind
		wantErr bool
	}{
		{in: "daily", want: lifecycle.KindDaily},
		{in: " Weekly ", want: lifecycle.KindWeekly},
		{in: "monthly", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := lifecycle.ParseKind(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, lifecycle.ErrUnknownKind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRunDispatchesByKind(t *testing.T) {
	t.Parallel()
	h := newHarness(t, testConfig(), weeklyMember(1, true))

	weekly, err := lifecycle.Run(t.Context(), h.processor, lifecycle.KindWeekly, lifecycle.RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, lifecycle.KindWeekly, weekly.Kind)

	daily, err := lifecycle.Run(t.Context(), h.processor, lifecycle.KindDaily, lifecycle.RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, lifecycle.KindDaily, daily.Kind)

	_, err = lifecycle.Run(t.Context(), h.processor, lifecycle.Kind("hourly"), lifecycle.RunOptions{})
	require.ErrorIs(t, err, lifecycle.ErrUnknownKind)
}
