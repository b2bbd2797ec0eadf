package database

import (
	"log"

	"intent-engine/engine/internal/models"

	"gorm.io/gorm"
)

// CreateCampaign persists a generated caption/image pair for a wallet.
func CreateCampaign(db *gorm.DB, campaign *models.Campaign) error {
	if err := db.Create(campaign).Error; err != nil {
		log.Printf("ERROR: Database error saving campaign for wallet %s: %v", campaign.WalletAddress, err)
		return err
	}
	return nil
}

// ListCampaignsByWallet returns a wallet's most recent campaigns.
func ListCampaignsByWallet(db *gorm.DB, walletAddress string, limit int) ([]models.Campaign, error) {
	if limit <= 0 {
		limit = 20
	}
	var campaigns []models.Campaign
	err := db.Where("wallet_address = ?", walletAddress).
		Order("created_at DESC").
		Limit(limit).
		Find(&campaigns).Error
	if err != nil {
		log.Printf("ERROR: Database error loading campaigns for wallet %s: %v", walletAddress, err)
		return nil, err
	}
	return campaigns, nil
}
