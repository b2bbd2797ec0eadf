package notifications

import (
	"context"
	"fmt"
	"log"
	"sync"

	"intent-engine/shared/env"
	"intent-engine/shared/utils"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"golang.org/x/time/rate"
)

var (
	bot             *telego.Bot
	isInitialized   bool
	telegramLimiter *rate.Limiter
	initLock        sync.Mutex
)

// InitTelegramBot connects the community bot used for unlock announcements.
// Missing credentials are not fatal: the platform runs without announcements.
func InitTelegramBot() error {
	initLock.Lock()
	defer initLock.Unlock()

	if isInitialized && bot != nil {
		log.Println("INFO: Telegram bot already initialized.")
		return nil
	}

	isInitialized = false
	bot = nil
	telegramLimiter = nil

	botToken := env.TelegramBotToken
	groupID := env.TelegramGroupID

	if botToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN missing from env configuration")
	}
	if groupID == 0 {
		return fmt.Errorf("TELEGRAM_GROUP_ID missing or invalid in env configuration")
	}

	log.Println("Initializing Telegram bot API...")
	var err error
	bot, err = telego.NewBot(botToken, telego.WithDefaultLogger(false, true))
	if err != nil {
		bot = nil
		return fmt.Errorf("failed to initialize Telegram bot API: %w", err)
	}

	log.Println("Verifying bot token with Telegram API (GetMe)...")
	userInfo, err := bot.GetMe(context.Background())
	if err != nil {
		bot = nil
		return fmt.Errorf("failed to verify bot token with GetMe API call: %w", err)
	}

	isInitialized = true
	// 1 msg / 5 sec keeps announcements well under Telegram's group limits
	telegramLimiter = rate.NewLimiter(rate.Limit(0.2), 1)
	log.Printf("Telegram bot initialized successfully for @%s", userInfo.Username)

	SendTelegramMessage(fmt.Sprintf("Bot connected successfully (@%s). Ready.", userInfo.Username))
	return nil
}

// GetBotInstance returns the shared bot, or nil when Telegram is disabled.
func GetBotInstance() *telego.Bot {
	if !isInitialized {
		return nil
	}
	return bot
}

// SendTelegramMessage posts a plain-text message to the configured group.
// No-op when the bot is not initialized, so callers never need to guard.
func SendTelegramMessage(text string) {
	if !isInitialized || bot == nil {
		return
	}
	if err := telegramLimiter.Wait(context.Background()); err != nil {
		log.Printf("WARN: Telegram rate limiter wait aborted: %v", err)
		return
	}

	params := tu.Message(tu.ID(env.TelegramGroupID), text)
	if env.UnlocksThreadID != 0 {
		params = params.WithMessageThreadID(env.UnlocksThreadID)
	}
	if _, err := bot.SendMessage(context.Background(), params); err != nil {
		log.Printf("ERROR: Failed to send Telegram message: %v", err)
	}
}

// AnnounceUnlock posts a community announcement for a freshly earned badge.
func AnnounceUnlock(walletAddress, badgeName, rarity string) {
	SendTelegramMessage(fmt.Sprintf("🏅 %s just unlocked \"%s\" (%s)", utils.ShortenAddress(walletAddress), badgeName, rarity))
}
