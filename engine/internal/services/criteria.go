package services

import (
	"encoding/json"
	"time"

	"intent-engine/engine/internal/models"
	"intent-engine/shared/logger"

	"go.uber.org/zap"
)

// Criteria keys the engine evaluates. Keys outside this set exist in the
// catalog (first_24h_launch, mainnet_first_24h, protocol/within_days, the
// social state_N flags) but have no evaluation logic yet; they are ignored,
// so a badge carrying only such keys unlocks subject only to its event
// window. Flagged as a latent gap, pending product confirmation.
const (
	criterionMinTransactions    = "min_transactions"
	criterionMinConsecutiveDays = "min_consecutive_days"
	criterionMinProtocols       = "min_protocols"
	criterionVerifiedOnChain    = "verified_on_chain"
)

// badgeSatisfied evaluates a badge's criteria against a post-update progress
// snapshot. All recognized keys must pass (logical AND); an event window, if
// present, gates the whole badge regardless of other criteria.
func badgeSatisfied(badge *models.Badge, progress *models.UserProgress, now time.Time, appLogger *logger.Logger) bool {
	if badge.EventWindowStart != nil || badge.EventWindowEnd != nil {
		if !withinEventWindow(now, badge.EventWindowStart, badge.EventWindowEnd) {
			return false
		}
	}

	if len(badge.Criteria) == 0 {
		return true
	}

	var criteria map[string]interface{}
	if err := json.Unmarshal(badge.Criteria, &criteria); err != nil {
		appLogger.Warn("Badge has malformed criteria, skipping",
			zap.String("badge", badge.Slug), zap.Error(err))
		return false
	}

	for key, raw := range criteria {
		switch key {
		case criterionMinTransactions:
			if progress.TotalTransactions < criterionThreshold(raw) {
				return false
			}
		case criterionMinConsecutiveDays:
			if progress.ConsecutiveDays < criterionThreshold(raw) {
				return false
			}
		case criterionMinProtocols:
			if progress.UniqueProtocols() < criterionThreshold(raw) {
				return false
			}
		case criterionVerifiedOnChain:
			if progress.TotalTransactions < 1 {
				return false
			}
		default:
			appLogger.Debug("Ignoring unimplemented criteria key",
				zap.String("badge", badge.Slug), zap.String("key", key))
		}
	}
	return true
}

func withinEventWindow(now time.Time, start, end *time.Time) bool {
	if start != nil && now.Before(*start) {
		return false
	}
	if end != nil && now.After(*end) {
		return false
	}
	return true
}

// criterionThreshold coerces a JSON criteria value to an integer threshold.
func criterionThreshold(raw interface{}) int {
	switch value := raw.(type) {
	case float64:
		return int(value)
	case int:
		return value
	case json.Number:
		parsed, err := value.Int64()
		if err != nil {
			return 0
		}
		return int(parsed)
	default:
		return 0
	}
}
