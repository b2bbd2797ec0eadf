package services

import (
	"context"
	"testing"
	"time"

	"intent-engine/engine/database"
	"intent-engine/engine/internal/events"
	"intent-engine/engine/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newEngineTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// a single connection keeps every query on the same in-memory database
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Badge{},
		&models.UserProgress{},
		&models.BadgeUnlock{},
		&models.Campaign{},
		&models.QueuedEvent{},
	))
	return db
}

func seedTestCatalog(t *testing.T, db *gorm.DB) {
	t.Helper()
	pastStart := time.Now().AddDate(0, 0, -14)
	pastEnd := time.Now().AddDate(0, 0, -7)

	badges := []models.Badge{
		{Slug: "newcomer", Name: "Newcomer", Layer: models.LayerProof, Rarity: "common",
			Criteria: datatypes.JSON(`{"min_transactions": 1}`), IsActive: true},
		{Slug: "explorer", Name: "Explorer", Layer: models.LayerProof, Rarity: "uncommon",
			Criteria: datatypes.JSON(`{"min_protocols": 3}`), IsActive: true},
		{Slug: "committed", Name: "Committed", Layer: models.LayerProof, Rarity: "uncommon",
			Criteria: datatypes.JSON(`{"min_consecutive_days": 3}`), IsActive: true},
		{Slug: "intent-spark", Name: "Intent Spark", Layer: models.LayerIdentity, Rarity: "common",
			Criteria: datatypes.JSON(`{"min_transactions": 1}`), IsProgression: true, ProgressionOrder: 1, IsActive: true},
		{Slug: "intent-builder", Name: "Intent Builder", Layer: models.LayerIdentity, Rarity: "uncommon",
			Criteria: datatypes.JSON(`{"min_transactions": 10}`), IsProgression: true, ProgressionOrder: 2, IsActive: true},
		{Slug: "genesis-week", Name: "Genesis Week", Layer: models.LayerEvent, Rarity: "legendary",
			Criteria: datatypes.JSON(`{"first_24h_launch": true}`), EventWindowStart: &pastStart, EventWindowEnd: &pastEnd, IsActive: true},
	}
	for i := range badges {
		require.NoError(t, db.Create(&badges[i]).Error)
	}
}

func newTestEngine(t *testing.T, db *gorm.DB) *BadgeEngine {
	t.Helper()
	return NewBadgeEngine(db, newTestLogger(t), nil, false)
}

func txEvent(userID, protocol string) *events.ActivityEvent {
	return &events.ActivityEvent{
		Action:        events.ActionTransaction,
		UserID:        userID,
		WalletAddress: "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin",
		Protocol:      protocol,
	}
}

func TestProcessEventFreshUserTransaction(t *testing.T) {
	db := newEngineTestDB(t)
	seedTestCatalog(t, db)
	engine := newTestEngine(t, db)

	resp, err := engine.ProcessEvent(context.Background(), txEvent("user-1", "arcflow"))
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.Progress.TotalTransactions)
	assert.Equal(t, 1, resp.Progress.UniqueProtocols)
	assert.Equal(t, 1, resp.Progress.ConsecutiveDays)
	assert.ElementsMatch(t, []string{"newcomer", "intent-spark"}, resp.NewUnlocks)
	require.NotNil(t, resp.CurrentIdentityBadge)
	assert.Equal(t, "intent-spark", *resp.CurrentIdentityBadge)
	assert.InDelta(t, 0.39, resp.IntentScore, 0.001)
}

func TestProcessEventSameDayRepeatKeepsStreak(t *testing.T) {
	db := newEngineTestDB(t)
	seedTestCatalog(t, db)
	engine := newTestEngine(t, db)

	_, err := engine.ProcessEvent(context.Background(), txEvent("user-1", "arcflow"))
	require.NoError(t, err)

	resp, err := engine.ProcessEvent(context.Background(), txEvent("user-1", "arcflow"))
	require.NoError(t, err)

	assert.Equal(t, 2, resp.Progress.TotalTransactions)
	assert.Equal(t, 1, resp.Progress.UniqueProtocols, "duplicate protocol is not re-added")
	assert.Equal(t, 1, resp.Progress.ConsecutiveDays, "same calendar day leaves the streak unchanged")
	assert.Empty(t, resp.NewUnlocks, "already earned badges are not re-evaluated")

	var unlockCount int64
	require.NoError(t, db.Model(&models.BadgeUnlock{}).Where("user_id = ?", "user-1").Count(&unlockCount).Error)
	assert.EqualValues(t, 2, unlockCount)
}

func TestProcessEventYesterdayIncrementsStreak(t *testing.T) {
	db := newEngineTestDB(t)
	seedTestCatalog(t, db)
	engine := newTestEngine(t, db)

	yesterday := time.Now().AddDate(0, 0, -1)
	require.NoError(t, db.Create(&models.UserProgress{
		UserID:             "user-2",
		WalletAddress:      "wallet-2",
		TotalTransactions:  3,
		ConsecutiveDays:    2,
		MaxConsecutiveDays: 2,
		LastActiveDate:     &yesterday,
	}).Error)

	resp, err := engine.ProcessEvent(context.Background(), txEvent("user-2", "arcflow"))
	require.NoError(t, err)

	assert.Equal(t, 3, resp.Progress.ConsecutiveDays)

	progress, err := database.GetProgressByUser(db, "user-2")
	require.NoError(t, err)
	assert.Equal(t, 3, progress.MaxConsecutiveDays)
}

func TestProcessEventSocialShareVoiceState(t *testing.T) {
	db := newEngineTestDB(t)
	seedTestCatalog(t, db)
	engine := newTestEngine(t, db)

	require.NoError(t, db.Create(&models.UserProgress{
		UserID:          "user-3",
		WalletAddress:   "wallet-3",
		SocialShares:    4,
		TotalEngagement: 60,
		VoiceState:      1,
	}).Error)

	event := &events.ActivityEvent{
		Action:        events.ActionSocialShare,
		UserID:        "user-3",
		WalletAddress: "wallet-3",
		Engagement:    50,
	}
	_, err := engine.ProcessEvent(context.Background(), event)
	require.NoError(t, err)

	progress, err := database.GetProgressByUser(db, "user-3")
	require.NoError(t, err)
	assert.Equal(t, 5, progress.SocialShares)
	assert.Equal(t, 110, progress.TotalEngagement)
	assert.Equal(t, 2, progress.VoiceState, "110 engagement without 10 shares stays at state 2")
}

func TestProcessEventHighestIdentityTierWins(t *testing.T) {
	db := newEngineTestDB(t)
	seedTestCatalog(t, db)
	engine := newTestEngine(t, db)

	require.NoError(t, db.Create(&models.UserProgress{
		UserID:            "user-4",
		WalletAddress:     "wallet-4",
		TotalTransactions: 9,
	}).Error)

	resp, err := engine.ProcessEvent(context.Background(), txEvent("user-4", "arcflow"))
	require.NoError(t, err)

	assert.Equal(t, 10, resp.Progress.TotalTransactions)
	assert.Contains(t, resp.NewUnlocks, "intent-builder")
	assert.Contains(t, resp.NewUnlocks, "intent-spark")
	require.NotNil(t, resp.CurrentIdentityBadge)
	assert.Equal(t, "intent-builder", *resp.CurrentIdentityBadge, "highest progression order wins, not additive")
}

func TestProcessEventExpiredWindowBadgeNeverUnlocks(t *testing.T) {
	db := newEngineTestDB(t)
	seedTestCatalog(t, db)
	engine := newTestEngine(t, db)

	resp, err := engine.ProcessEvent(context.Background(), txEvent("user-5", "arcflow"))
	require.NoError(t, err)
	assert.NotContains(t, resp.NewUnlocks, "genesis-week")

	var count int64
	require.NoError(t, db.Model(&models.BadgeUnlock{}).
		Where("user_id = ? AND badge_slug = ?", "user-5", "genesis-week").
		Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestProcessEventReservedKindsAreNoOps(t *testing.T) {
	db := newEngineTestDB(t)
	seedTestCatalog(t, db)
	engine := newTestEngine(t, db)

	event := &events.ActivityEvent{
		Action:        events.ActionDailyCheck,
		UserID:        "user-6",
		WalletAddress: "wallet-6",
	}
	resp, err := engine.ProcessEvent(context.Background(), event)
	require.NoError(t, err)

	assert.Equal(t, 0, resp.Progress.TotalTransactions)
	assert.Equal(t, 0, resp.Progress.ConsecutiveDays)
	assert.Empty(t, resp.NewUnlocks)

	// progress row is still created lazily
	progress, err := database.GetProgressByUser(db, "user-6")
	require.NoError(t, err)
	assert.Equal(t, "wallet-6", progress.WalletAddress)
}

func TestProcessEventUnlockTaggedWithTrigger(t *testing.T) {
	db := newEngineTestDB(t)
	seedTestCatalog(t, db)
	engine := newTestEngine(t, db)

	event := txEvent("user-7", "arcflow")
	event.TxHash = "5Ua1hPpfjqCikZ4xPX6aJYjbn9QdLHVqgrYBHNKkBhYQ"
	_, err := engine.ProcessEvent(context.Background(), event)
	require.NoError(t, err)

	var unlock models.BadgeUnlock
	require.NoError(t, db.Where("user_id = ? AND badge_slug = ?", "user-7", "newcomer").First(&unlock).Error)
	assert.Equal(t, events.ActionTransaction, unlock.EventType)
	assert.Equal(t, event.TxHash, unlock.TxHash)
}
