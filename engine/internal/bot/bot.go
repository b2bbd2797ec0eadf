package bot

import (
	"context"
	"fmt"
	"strings"

	"intent-engine/shared/logger"
	"intent-engine/shared/notifications"

	"github.com/mymmrac/telego"
	"gorm.io/gorm"
)

var (
	appLogger   *logger.Logger
	botInstance *telego.Bot
	db          *gorm.DB
)

func InitializeBot(logInstance *logger.Logger, database *gorm.DB) error {
	if logInstance == nil {
		fmt.Println("FATAL ERROR: InitializeBot requires a non-nil logger instance")
		return fmt.Errorf("logger instance provided to InitializeBot is nil")
	}
	appLogger = logInstance
	db = database
	botInstance = notifications.GetBotInstance()
	if botInstance == nil {
		appLogger.Error("Could not retrieve initialized Telegram bot instance from notifications package. Bot may not function.")
		return fmt.Errorf("failed to get telego bot instance")
	}
	appLogger.Info("Telegram bot interaction services initialized.")
	return nil
}

func StartListening(ctx context.Context) {
	if appLogger == nil {
		fmt.Println("ERROR: Logger not initialized for bot listener. Cannot start.")
		return
	}
	if botInstance == nil {
		appLogger.Warn("Bot API instance not available. Cannot start command listener.")
		return
	}
	appLogger.Info("Starting bot message/command listener...")

	updates, err := botInstance.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{Timeout: 60})
	if err != nil {
		appLogger.Error("Failed to start long polling for Telegram updates", "error", err)
		return
	}
	appLogger.Info("Listening for Telegram commands and messages...")

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				appLogger.Info("Telegram update channel closed. Stopping listener.")
				return
			}
			if update.Message == nil || !strings.HasPrefix(update.Message.Text, "/") {
				continue
			}

			command, args := splitCommand(update.Message.Text)
			appLogger.Zap().Debugw("Received command message",
				"chatID", update.Message.Chat.ID,
				"fromUser", senderName(update.Message),
				"text", update.Message.Text,
			)
			go HandleCommand(update, command, args)

		case <-ctx.Done():
			appLogger.Info("Context cancelled. Stopping Telegram listener.")
			return
		}
	}
}

// splitCommand turns "/progress@botname abc def" into ("progress", "abc def").
func splitCommand(text string) (string, string) {
	parts := strings.SplitN(strings.TrimSpace(text), " ", 2)
	command := strings.TrimPrefix(parts[0], "/")
	if at := strings.Index(command, "@"); at != -1 {
		command = command[:at]
	}
	args := ""
	if len(parts) == 2 {
		args = strings.TrimSpace(parts[1])
	}
	return command, args
}

func senderName(message *telego.Message) string {
	if message.From == nil {
		return "unknown"
	}
	if message.From.Username != "" {
		return message.From.Username
	}
	return message.From.FirstName
}
