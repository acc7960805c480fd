package invoicing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

var cet = time.FixedZone("CET", 3600)

func TestPreviousWeek(t *testing.T) {
	wantStart := time.Date(2026, 3, 2, 0, 0, 0, 0, cet)
	wantEnd := time.Date(2026, 3, 8, 23, 59, 59, int(999*time.Millisecond), cet)

	cases := map[string]time.Time{
		"monday midnight trigger":      time.Date(2026, 3, 9, 0, 0, 0, 0, cet),
		"mid week":                     time.Date(2026, 3, 11, 15, 30, 0, 0, cet),
		"sunday evening":               time.Date(2026, 3, 15, 23, 0, 0, 0, cet),
		"utc sunday is monday locally": time.Date(2026, 3, 8, 23, 30, 0, 0, time.UTC),
	}
	for name, now := range cases {
		t.Run(name, func(t *testing.T) {
			w := PreviousWeek(now, cet)
			assert.True(t, w.Start.Equal(wantStart), "start %s", w.Start)
			assert.True(t, w.End.Equal(wantEnd), "end %s", w.End)
			assert.Equal(t, time.Monday, w.Start.Weekday())
			assert.Equal(t, time.Sunday, w.End.Weekday())
		})
	}
}

func TestDueDateRollsToFriday(t *testing.T) {
	cases := []struct {
		name string
		now  time.Time
		lag  int
		want time.Time
	}{
		{"lag lands on saturday", time.Date(2026, 3, 9, 0, 0, 0, 0, cet), 5, time.Date(2026, 3, 20, 0, 0, 0, 0, cet)},
		{"lag lands on monday", time.Date(2026, 3, 11, 9, 0, 0, 0, cet), 5, time.Date(2026, 3, 20, 0, 0, 0, 0, cet)},
		{"lag lands on friday", time.Date(2026, 3, 8, 18, 0, 0, 0, cet), 5, time.Date(2026, 3, 13, 0, 0, 0, 0, cet)},
		{"zero lag from friday", time.Date(2026, 3, 13, 18, 0, 0, 0, cet), 0, time.Date(2026, 3, 13, 0, 0, 0, 0, cet)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DueDate(tc.now, tc.lag, cet)
			assert.True(t, got.Equal(tc.want), "got %s", got)
			assert.Equal(t, time.Friday, got.Weekday())
		})
	}
}

func TestBaseNumber(t *testing.T) {
	seller := uuid.MustParse("3f2a9c1e-0000-4000-8000-000000000001")

	assert.Equal(t, "INV-2026-10-3f2a9c1e", BaseNumber(time.Date(2026, 3, 2, 0, 0, 0, 0, cet), seller))
	assert.Equal(t, "INV-2026-01-3f2a9c1e", BaseNumber(time.Date(2025, 12, 29, 0, 0, 0, 0, cet), seller))
}
