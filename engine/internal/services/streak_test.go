package services

import (
	"testing"
	"time"

	"intent-engine/engine/internal/models"
	"intent-engine/shared/utils"

	"github.com/stretchr/testify/assert"
)

func TestAdvanceStreakFirstActivity(t *testing.T) {
	now := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	progress := &models.UserProgress{}

	advanceStreak(progress, now)

	assert.Equal(t, 1, progress.ConsecutiveDays)
	assert.Equal(t, 1, progress.MaxConsecutiveDays)
	assert.Equal(t, utils.TruncateToDay(now), *progress.LastActiveDate)
}

func TestAdvanceStreakSameDayUnchanged(t *testing.T) {
	now := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	earlier := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	progress := &models.UserProgress{ConsecutiveDays: 4, MaxConsecutiveDays: 4, LastActiveDate: &earlier}

	advanceStreak(progress, now)

	assert.Equal(t, 4, progress.ConsecutiveDays)
	assert.Equal(t, 4, progress.MaxConsecutiveDays)
}

func TestAdvanceStreakYesterdayIncrements(t *testing.T) {
	now := time.Date(2026, 3, 14, 0, 30, 0, 0, time.UTC)
	yesterday := time.Date(2026, 3, 13, 23, 45, 0, 0, time.UTC)
	progress := &models.UserProgress{ConsecutiveDays: 4, MaxConsecutiveDays: 6, LastActiveDate: &yesterday}

	advanceStreak(progress, now)

	assert.Equal(t, 5, progress.ConsecutiveDays)
	assert.Equal(t, 6, progress.MaxConsecutiveDays, "high-water mark stays when streak is below it")
}

func TestAdvanceStreakGapResets(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	lastWeek := time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC)
	progress := &models.UserProgress{ConsecutiveDays: 9, MaxConsecutiveDays: 9, LastActiveDate: &lastWeek}

	advanceStreak(progress, now)

	assert.Equal(t, 1, progress.ConsecutiveDays)
	assert.Equal(t, 9, progress.MaxConsecutiveDays)
}

func TestAdvanceStreakMaxNeverDecreases(t *testing.T) {
	progress := &models.UserProgress{}
	day := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	highWater := 0
	// five consecutive days, a gap, then three more
	for i := 0; i < 5; i++ {
		advanceStreak(progress, day.AddDate(0, 0, i))
		assert.GreaterOrEqual(t, progress.MaxConsecutiveDays, highWater)
		highWater = progress.MaxConsecutiveDays
	}
	for i := 10; i < 13; i++ {
		advanceStreak(progress, day.AddDate(0, 0, i))
		assert.GreaterOrEqual(t, progress.MaxConsecutiveDays, highWater)
		highWater = progress.MaxConsecutiveDays
	}
	assert.Equal(t, 5, progress.MaxConsecutiveDays)
	assert.Equal(t, 3, progress.ConsecutiveDays)
}

func TestVoiceStateThresholds(t *testing.T) {
	cases := []struct {
		name       string
		shares     int
		engagement int
		want       int
	}{
		{"silent", 0, 0, 0},
		{"first share", 1, 0, 1},
		{"four shares", 4, 500, 1},
		{"five shares", 5, 0, 2},
		{"engagement alone does not reach state 3", 5, 110, 2},
		{"shares alone does not reach state 3", 10, 99, 2},
		{"state 3", 10, 100, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, voiceStateFor(tc.shares, tc.engagement))
		})
	}
}
