package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"intent-engine/engine/database"
	"intent-engine/engine/internal/events"
	"intent-engine/engine/internal/services"
	"intent-engine/shared/env"
	"intent-engine/shared/logger"
	"intent-engine/shared/types"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func RegisterRoutes(router *gin.Engine, appLogger *logger.Logger) {
	router.GET("/", func(c *gin.Context) {
		appLogger.Info("Root endpoint accessed")
		c.JSON(http.StatusOK, gin.H{"message": "API is running. Badge engine active!"})
	})
}

func RegisterAPIRoutes(router *gin.Engine, appLogger *logger.Logger, db *gorm.DB,
	badgeEngine *services.BadgeEngine, campaigns *services.CampaignService) {

	apiGroup := router.Group("/api/v1")
	apiGroup.Use(requireAPISecret(appLogger))
	{
		apiGroup.GET("/health", func(c *gin.Context) {
			appLogger.Info("API Health endpoint called")
			c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "API Service is running"})
		})

		apiGroup.POST("/badge-event", handleBadgeEvent(appLogger, badgeEngine))
		apiGroup.GET("/badges", handleListBadges(appLogger, db))
		apiGroup.GET("/progress/:userId", handleGetProgress(appLogger, db))
		apiGroup.GET("/unlocks/:userId", handleListUnlocks(appLogger, db))
		apiGroup.PATCH("/unlocks/:id/display", handleUpdateUnlockDisplay(appLogger, db))
		apiGroup.POST("/campaigns/generate", handleGenerateCampaign(appLogger, campaigns))
		apiGroup.GET("/campaigns/:wallet", handleListCampaigns(appLogger, db))
	}
	appLogger.Info("API routes registered under /api/v1")
}

// requireAPISecret checks the shared frontend secret when one is configured.
// Without a configured secret the API stays open (dev mode), logged once at
// startup by shared/env.
func requireAPISecret(appLogger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		expected := env.FrontendAPISecret
		if expected == "" {
			c.Next()
			return
		}
		received := c.GetHeader("X-API-Secret")
		if received != expected {
			appLogger.Warn("Rejected request with missing or invalid API secret",
				zap.String("path", c.FullPath()), zap.String("remoteAddr", c.RemoteIP()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

func handleBadgeEvent(appLogger *logger.Logger, badgeEngine *services.BadgeEngine) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := zap.String("requestID", generateRequestID())

		var req types.BadgeEventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			appLogger.Warn("Invalid badge event request", zap.Error(err), requestID,
				zap.String("remoteAddr", c.RemoteIP()))
			c.JSON(http.StatusBadRequest, gin.H{"error": "action, userId and walletAddress are required"})
			return
		}

		event, err := events.ParseActivityEvent(req)
		if err != nil {
			appLogger.Warn("Badge event failed payload validation", zap.Error(err), requestID,
				zap.String("userId", req.UserID))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		appLogger.Info("Processing badge event", requestID,
			zap.String("action", event.Action), zap.String("userId", event.UserID))

		result, err := badgeEngine.ProcessEvent(c.Request.Context(), event)
		if err != nil {
			// collaborator failure; details stay server-side
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process event"})
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

func handleListBadges(appLogger *logger.Logger, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		badges, err := database.ListActiveBadges(db)
		if err != nil {
			appLogger.Error("Failed to load badge catalog", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load badge catalog"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"badges": badges})
	}
}

func handleGetProgress(appLogger *logger.Logger, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("userId")
		progress, err := database.GetProgressByUser(db, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "No progress recorded for user"})
				return
			}
			appLogger.Error("Failed to load progress", zap.String("userId", userID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load progress"})
			return
		}
		c.JSON(http.StatusOK, progress)
	}
}

func handleListUnlocks(appLogger *logger.Logger, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("userId")
		unlocks, err := database.ListUnlocksByUser(db, userID)
		if err != nil {
			appLogger.Error("Failed to load unlocks", zap.String("userId", userID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load unlocks"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"unlocks": unlocks})
	}
}

func handleUpdateUnlockDisplay(appLogger *logger.Logger, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		unlockID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid unlock id"})
			return
		}

		var req types.UpdateUnlockDisplayRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
			return
		}
		if req.IsDisplayed == nil && req.DisplayOrder == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "isDisplayed or displayOrder must be provided"})
			return
		}

		err = database.UpdateUnlockDisplay(db, uint(unlockID), req.UserID, req.IsDisplayed, req.DisplayOrder)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Unlock not found for user"})
				return
			}
			appLogger.Error("Failed to update unlock display",
				zap.Uint64("unlockId", unlockID), zap.String("userId", req.UserID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update unlock"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

func handleGenerateCampaign(appLogger *logger.Logger, campaigns *services.CampaignService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.GenerateCampaignRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "walletAddress and prompt are required"})
			return
		}

		campaign, err := campaigns.GenerateCampaign(c.Request.Context(), req.WalletAddress, req.Prompt)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Campaign generation failed"})
			return
		}

		c.JSON(http.StatusOK, types.GenerateCampaignResponse{
			Success:  true,
			Caption:  campaign.Caption,
			ImageURL: campaign.ImageURL,
		})
	}
}

func handleListCampaigns(appLogger *logger.Logger, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		wallet := c.Param("wallet")
		campaigns, err := database.ListCampaignsByWallet(db, wallet, 20)
		if err != nil {
			appLogger.Error("Failed to load campaigns", zap.String("wallet", wallet), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load campaigns"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"campaigns": campaigns})
	}
}

func generateRequestID() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}
