package database

import (
	"log"

	"intent-engine/engine/internal/models"

	"gorm.io/gorm"
)

// ListActiveBadges returns the full active catalog the engine evaluates
// against on every event.
func ListActiveBadges(db *gorm.DB) ([]models.Badge, error) {
	var badges []models.Badge
	if err := db.Where("is_active = ?", true).Order("slug").Find(&badges).Error; err != nil {
		log.Printf("ERROR: Database error loading badge catalog: %v", err)
		return nil, err
	}
	return badges, nil
}
