package services

import (
	"math"

	"intent-engine/engine/internal/models"
)

// Intent score contribution denominators and per-term caps. The five terms
// sum to at most 10, so the final cap only bites if the weights change.
const (
	scoreTxDenominator        = 50.0
	scoreTxCap                = 2.0
	scoreProtocolDenominator  = 5.0
	scoreProtocolCap          = 2.0
	scoreStreakDenominator    = 10.0
	scoreStreakCap            = 3.0
	scoreMaxStreakDenominator = 15.0
	scoreMaxStreakCap         = 2.0
	scoreSharesDenominator    = 10.0
	scoreSharesCap            = 1.0

	scoreCeiling = 10.0
)

// CalculateIntentScore derives the bounded 0-10 engagement score from a
// progress snapshot. Pure, total, and monotonic non-decreasing in each input.
func CalculateIntentScore(progress *models.UserProgress) float64 {
	total := cappedRatio(float64(progress.TotalTransactions), scoreTxDenominator, scoreTxCap) +
		cappedRatio(float64(progress.UniqueProtocols()), scoreProtocolDenominator, scoreProtocolCap) +
		cappedRatio(float64(progress.ConsecutiveDays), scoreStreakDenominator, scoreStreakCap) +
		cappedRatio(float64(progress.MaxConsecutiveDays), scoreMaxStreakDenominator, scoreMaxStreakCap) +
		cappedRatio(float64(progress.SocialShares), scoreSharesDenominator, scoreSharesCap)

	if total > scoreCeiling {
		total = scoreCeiling
	}
	return math.Round(total*100) / 100
}

func cappedRatio(value, denominator, limit float64) float64 {
	ratio := value / denominator
	if ratio > limit {
		return limit
	}
	return ratio
}
