package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"intent-engine/engine/database"
	"intent-engine/shared/utils"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func HandleCommand(update telego.Update, command, args string) {
	if appLogger == nil {
		log.Printf("ERROR: appLogger not initialized in bot package when handling command '%s'", command)
		return
	}

	appLogger.Info("Processing command",
		zap.String("command", command),
		zap.String("args", args),
		zap.Int64("ChatID", update.Message.Chat.ID),
		zap.String("User", senderName(update.Message)),
	)

	switch command {
	case "progress":
		handleProgressCommand(update, args)
	case "start", "help":
		handleHelpCommand(update)
	default:
		appLogger.Warn("Unknown command received", zap.String("command", command))
		SendReply(update.Message.Chat.ID, fmt.Sprintf("Unknown command: /%s", command))
	}
}

func handleProgressCommand(update telego.Update, args string) {
	wallet := strings.TrimSpace(args)
	if wallet == "" {
		SendReply(update.Message.Chat.ID, "Usage: /progress {wallet-address}")
		appLogger.Warn("Progress command failed: no wallet address provided")
		return
	}

	progress, err := database.GetProgressByWallet(db, wallet)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			SendReply(update.Message.Chat.ID, fmt.Sprintf("No activity recorded for wallet %s yet.", utils.ShortenAddress(wallet)))
			return
		}
		SendReply(update.Message.Chat.ID, "An error occurred while looking up progress.")
		appLogger.Error("Progress command failed: DB error", zap.String("wallet", wallet), zap.Error(err))
		return
	}

	identity := "none yet"
	if progress.CurrentIdentityBadge != nil {
		identity = *progress.CurrentIdentityBadge
	}
	SendReply(update.Message.Chat.ID, fmt.Sprintf(
		"Progress for %s\nTransactions: %d\nProtocols: %d\nStreak: %d day(s) (best %d)\nIntent score: %.2f\nIdentity badge: %s",
		utils.ShortenAddress(wallet),
		progress.TotalTransactions,
		progress.UniqueProtocols(),
		progress.ConsecutiveDays,
		progress.MaxConsecutiveDays,
		progress.IntentScore,
		identity,
	))
}

func handleHelpCommand(update telego.Update) {
	SendReply(update.Message.Chat.ID,
		"INTENT badge bot\n/progress {wallet-address} - show activity counters and intent score\n/help - this message")
}

func SendReply(chatID int64, text string) {
	if botInstance == nil {
		return
	}
	if _, err := botInstance.SendMessage(context.Background(), tu.Message(tu.ID(chatID), text)); err != nil {
		appLogger.Error("Failed to send bot reply", zap.Int64("chatID", chatID), zap.Error(err))
	}
}
