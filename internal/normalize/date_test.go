package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 2, 10, 9, 30, 0, 0, time.UTC)
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2025-03-15", time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"2025-03-15T19:30:00+11:00", time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"15 March 2025", time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"Sat 15 Mar 2025", time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"March 15th, 2025", time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"15/03/2025", time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"  15   Mar  ", time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"15 Mar - 20 Mar 2025", time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseDate(tt.in, now)
			require.NoError(t, err)
			require.True(t, tt.want.Equal(got), "got %v want %v", got, tt.want)
		})
	}
}

func TestParseDateRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := ParseDate("every second tuesday", time.Now())
	require.Error(t, err)

	_, err = ParseDate("   ", time.Now())
	require.Error(t, err)
}

func TestToday(t *testing.T) {
	t.Parallel()

	got := Today(time.Date(2025, 7, 4, 23, 59, 0, 0, time.UTC))
	require.Equal(t, time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC), got)
}
