package services

import (
	"context"
	"sort"
	"time"

	"intent-engine/engine/database"
	"intent-engine/engine/internal/events"
	"intent-engine/engine/internal/models"
	"intent-engine/shared/logger"
	"intent-engine/shared/notifications"
	"intent-engine/shared/types"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BadgeEngine applies one activity event to a user's progress, evaluates the
// badge catalog against the updated counters, and records newly earned
// unlocks. The whole read-modify-write runs in a single transaction with a
// row lock on the progress record, so concurrent events per user serialize.
type BadgeEngine struct {
	db              *gorm.DB
	appLogger       *logger.Logger
	chain           *ChainService
	announceUnlocks bool
}

func NewBadgeEngine(db *gorm.DB, appLogger *logger.Logger, chain *ChainService, announceUnlocks bool) *BadgeEngine {
	return &BadgeEngine{
		db:              db,
		appLogger:       appLogger,
		chain:           chain,
		announceUnlocks: announceUnlocks,
	}
}

// ProcessEvent runs the full evaluation pipeline for one client event and
// returns the summary the client renders: new unlocks, the recomputed intent
// score, the current identity badge, and the salient counters.
func (e *BadgeEngine) ProcessEvent(ctx context.Context, event *events.ActivityEvent) (*types.BadgeEventResponse, error) {
	now := time.Now()

	// Best-effort devnet lookup; the result is logged, never gates the event.
	if event.Action == events.ActionTransaction && event.TxHash != "" && e.chain != nil {
		e.chain.VerifyTransaction(ctx, event.TxHash)
	}

	var response *types.BadgeEventResponse
	var announced []models.Badge

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		progress, err := database.GetOrCreateProgress(tx, event.UserID, event.WalletAddress)
		if err != nil {
			return err
		}

		switch event.Action {
		case events.ActionTransaction:
			e.applyTransaction(progress, event, now)
		case events.ActionSocialShare:
			e.applySocialShare(progress, event)
		case events.ActionDailyCheck, events.ActionEventWindow:
			// reserved event kinds, counters untouched
			e.appLogger.Debug("Received reserved event kind, no counter mutation",
				zap.String("action", event.Action), zap.String("userId", event.UserID))
		}

		if err := database.SaveProgress(tx, progress); err != nil {
			return err
		}

		catalog, err := database.ListActiveBadges(tx)
		if err != nil {
			return err
		}
		unlocked, err := database.UnlockedSlugSet(tx, event.UserID)
		if err != nil {
			return err
		}

		newUnlocks := e.evaluateCatalog(tx, catalog, progress, unlocked, event, now, &announced)

		progress.IntentScore = CalculateIntentScore(progress)
		progress.CurrentIdentityBadge = highestIdentityBadge(catalog, unlocked)

		if err := database.SaveProgress(tx, progress); err != nil {
			return err
		}

		response = &types.BadgeEventResponse{
			Success:              true,
			NewUnlocks:           newUnlocks,
			IntentScore:          progress.IntentScore,
			CurrentIdentityBadge: progress.CurrentIdentityBadge,
			Progress: types.ProgressSummary{
				TotalTransactions: progress.TotalTransactions,
				UniqueProtocols:   progress.UniqueProtocols(),
				ConsecutiveDays:   progress.ConsecutiveDays,
			},
		}
		return nil
	})
	if err != nil {
		e.appLogger.Error("Badge event processing failed",
			zap.String("userId", event.UserID), zap.String("action", event.Action), zap.Error(err))
		return nil, err
	}

	if e.announceUnlocks {
		for _, badge := range announced {
			notifications.AnnounceUnlock(event.WalletAddress, badge.Name, badge.Rarity)
		}
	}

	return response, nil
}

func (e *BadgeEngine) applyTransaction(progress *models.UserProgress, event *events.ActivityEvent, now time.Time) {
	if event.Protocol != "" && !progress.HasProtocol(event.Protocol) {
		progress.Protocols = append(progress.Protocols, event.Protocol)
	}
	advanceStreak(progress, now)
	progress.TotalTransactions++
}

func (e *BadgeEngine) applySocialShare(progress *models.UserProgress, event *events.ActivityEvent) {
	progress.SocialShares++
	progress.TotalEngagement += event.Engagement
	progress.VoiceState = voiceStateFor(progress.SocialShares, progress.TotalEngagement)
}

// evaluateCatalog scans every active, not-yet-unlocked badge against the
// post-update progress. Unlock insertion is best-effort: one badge's failure
// is rolled back to a savepoint, logged, and does not abort the rest.
func (e *BadgeEngine) evaluateCatalog(tx *gorm.DB, catalog []models.Badge, progress *models.UserProgress,
	unlocked map[string]bool, event *events.ActivityEvent, now time.Time, announced *[]models.Badge) []string {

	newUnlocks := []string{}
	for i := range catalog {
		badge := &catalog[i]
		if unlocked[badge.Slug] {
			continue
		}
		if !badgeSatisfied(badge, progress, now, e.appLogger) {
			continue
		}

		unlock := &models.BadgeUnlock{
			UserID:    event.UserID,
			BadgeSlug: badge.Slug,
			EventType: event.Action,
			TxHash:    event.TxHash,
		}
		insertErr := tx.Transaction(func(inner *gorm.DB) error {
			return database.InsertUnlock(inner, unlock)
		})
		if insertErr != nil {
			e.appLogger.Error("Failed to record badge unlock, continuing evaluation",
				zap.String("userId", event.UserID), zap.String("badge", badge.Slug), zap.Error(insertErr))
			continue
		}

		unlocked[badge.Slug] = true
		newUnlocks = append(newUnlocks, badge.Slug)
		*announced = append(*announced, *badge)
		e.appLogger.Info("Badge unlocked",
			zap.String("userId", event.UserID), zap.String("badge", badge.Slug), zap.String("trigger", event.Action))
	}
	return newUnlocks
}

// highestIdentityBadge picks the highest-tier identity progression badge the
// user has unlocked. Highest tier wins; tiers are not additive.
func highestIdentityBadge(catalog []models.Badge, unlocked map[string]bool) *string {
	tiers := make([]models.Badge, 0, 4)
	for _, badge := range catalog {
		if badge.Layer == models.LayerIdentity && badge.IsProgression {
			tiers = append(tiers, badge)
		}
	}
	sort.Slice(tiers, func(i, j int) bool {
		return tiers[i].ProgressionOrder > tiers[j].ProgressionOrder
	})
	for _, badge := range tiers {
		if unlocked[badge.Slug] {
			slug := badge.Slug
			return &slug
		}
	}
	return nil
}
