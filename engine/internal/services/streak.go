package services

import (
	"time"

	"intent-engine/engine/internal/models"
	"intent-engine/shared/utils"
)

// Voice state thresholds. State 3 requires both volume and reach; the lower
// states depend on share count alone.
const (
	voiceState3MinShares     = 10
	voiceState3MinEngagement = 100
	voiceState2MinShares     = 5
	voiceState1MinShares     = 1
)

// advanceStreak applies one day of activity at `now` to the streak counters.
// Same calendar day: unchanged. Consecutive day: incremented. Any gap:
// reset to 1. The high-water mark never decreases.
func advanceStreak(progress *models.UserProgress, now time.Time) {
	today := utils.TruncateToDay(now)

	switch {
	case progress.LastActiveDate == nil:
		progress.ConsecutiveDays = 1
	case utils.TruncateToDay(*progress.LastActiveDate).Equal(today):
		// already counted today
	case utils.TruncateToDay(*progress.LastActiveDate).Equal(today.AddDate(0, 0, -1)):
		progress.ConsecutiveDays++
	default:
		progress.ConsecutiveDays = 1
	}

	if progress.ConsecutiveDays > progress.MaxConsecutiveDays {
		progress.MaxConsecutiveDays = progress.ConsecutiveDays
	}
	progress.LastActiveDate = &today
}

// voiceStateFor maps updated share totals onto the 0-3 voice tier.
func voiceStateFor(shares, engagement int) int {
	switch {
	case shares >= voiceState3MinShares && engagement >= voiceState3MinEngagement:
		return 3
	case shares >= voiceState2MinShares:
		return 2
	case shares >= voiceState1MinShares:
		return 1
	default:
		return 0
	}
}
