package database

import (
	"errors"
	"log"

	"intent-engine/engine/internal/models"

	"gorm.io/gorm"
)

// ListUnlocksByUser returns the user's unlock records with badge metadata,
// display-ordered for profile rendering.
func ListUnlocksByUser(db *gorm.DB, userID string) ([]models.BadgeUnlock, error) {
	var unlocks []models.BadgeUnlock
	err := db.Preload("Badge").
		Where("user_id = ?", userID).
		Order("display_order, unlocked_at").
		Find(&unlocks).Error
	if err != nil {
		log.Printf("ERROR: Database error loading unlocks for user %s: %v", userID, err)
		return nil, err
	}
	return unlocks, nil
}

// UnlockedSlugSet returns the set of badge slugs the user has already earned.
func UnlockedSlugSet(db *gorm.DB, userID string) (map[string]bool, error) {
	var slugs []string
	err := db.Model(&models.BadgeUnlock{}).
		Where("user_id = ?", userID).
		Pluck("badge_slug", &slugs).Error
	if err != nil {
		log.Printf("ERROR: Database error loading unlock set for user %s: %v", userID, err)
		return nil, err
	}
	set := make(map[string]bool, len(slugs))
	for _, slug := range slugs {
		set[slug] = true
	}
	return set, nil
}

// InsertUnlock records a newly earned badge. A violation of the
// (user_id, badge_slug) uniqueness index means a concurrent event already
// recorded the unlock; callers treat that as a skip, not a failure.
func InsertUnlock(db *gorm.DB, unlock *models.BadgeUnlock) error {
	if err := db.Create(unlock).Error; err != nil {
		return err
	}
	return nil
}

// UpdateUnlockDisplay edits the display flag and order, the only
// user-editable unlock fields. Scoped to the owning user.
func UpdateUnlockDisplay(db *gorm.DB, unlockID uint, userID string, isDisplayed *bool, displayOrder *int) error {
	updates := map[string]interface{}{}
	if isDisplayed != nil {
		updates["is_displayed"] = *isDisplayed
	}
	if displayOrder != nil {
		updates["display_order"] = *displayOrder
	}
	if len(updates) == 0 {
		return errors.New("no display fields provided")
	}

	result := db.Model(&models.BadgeUnlock{}).
		Where("id = ? AND user_id = ?", unlockID, userID).
		Updates(updates)
	if result.Error != nil {
		log.Printf("ERROR: Database error updating unlock %d display: %v", unlockID, result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
