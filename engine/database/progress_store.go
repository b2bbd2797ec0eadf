package database

import (
	"log"

	"intent-engine/engine/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetOrCreateProgress loads the user's progress row, creating a zeroed record
// scoped to (user, wallet) on first contact. When called inside a Postgres
// transaction the row is locked FOR UPDATE so concurrent events for the same
// user serialize instead of lost-updating each other's counters.
func GetOrCreateProgress(db *gorm.DB, userID, walletAddress string) (*models.UserProgress, error) {
	var progress models.UserProgress

	query := db
	if db.Dialector.Name() == "postgres" {
		// sqlite (used in tests) has no row locks
		query = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	result := query.Where(&models.UserProgress{UserID: userID}).
		Attrs(&models.UserProgress{WalletAddress: walletAddress}).
		FirstOrCreate(&progress)
	if result.Error != nil {
		log.Printf("ERROR: Database error loading progress for user %s: %v", userID, result.Error)
		return nil, result.Error
	}

	if result.RowsAffected > 0 {
		log.Printf("INFO: Created progress record for user %s (wallet %s)", userID, walletAddress)
	}
	return &progress, nil
}

// SaveProgress persists the full mutated progress aggregate.
func SaveProgress(db *gorm.DB, progress *models.UserProgress) error {
	if err := db.Save(progress).Error; err != nil {
		log.Printf("ERROR: Database error saving progress for user %s: %v", progress.UserID, err)
		return err
	}
	return nil
}

// GetProgressByUser is the read-only lookup used by the API and the bot.
// Returns gorm.ErrRecordNotFound for users with no activity yet.
func GetProgressByUser(db *gorm.DB, userID string) (*models.UserProgress, error) {
	var progress models.UserProgress
	if err := db.Where("user_id = ?", userID).First(&progress).Error; err != nil {
		return nil, err
	}
	return &progress, nil
}

// GetProgressByWallet resolves progress from a wallet address.
func GetProgressByWallet(db *gorm.DB, walletAddress string) (*models.UserProgress, error) {
	var progress models.UserProgress
	if err := db.Where("wallet_address = ?", walletAddress).First(&progress).Error; err != nil {
		return nil, err
	}
	return &progress, nil
}
