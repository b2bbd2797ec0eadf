package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"intent-engine/shared/env"
	"intent-engine/shared/logger"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

// ChainService wraps the testnet RPC used for best-effort transaction
// verification. The platform never blocks an event on chain state; lookups
// are informational and logged only.
type ChainService struct {
	rpcClient *rpc.Client
	appLogger *logger.Logger
}

func NewChainService(appLogger *logger.Logger) (*ChainService, error) {
	rpcURL := env.SolanaRPCURL
	if rpcURL == "" {
		return nil, fmt.Errorf("SOLANA_RPC_URL environment variable not set")
	}
	client := rpc.New(rpcURL)
	_, err := client.GetHealth(context.Background())
	if err != nil {
		appLogger.Error("Failed to connect to Solana RPC during initialization", zap.String("url", sanitizeRPCURL(rpcURL)), zap.Error(err))
		return nil, fmt.Errorf("failed to connect to Solana RPC at %s: %w", sanitizeRPCURL(rpcURL), err)
	}
	appLogger.Info("Solana RPC client initialized successfully", zap.String("url", sanitizeRPCURL(rpcURL)))
	return &ChainService{rpcClient: client, appLogger: appLogger}, nil
}

func sanitizeRPCURL(rawURL string) string {
	if idx := strings.Index(rawURL, "api-key="); idx != -1 {
		return rawURL[:idx+len("api-key=")] + "HIDDEN_FOR_LOGS"
	}
	return rawURL
}

// VerifyTransaction looks up a reported transaction signature on the testnet
// and logs its confirmation status. Failures never propagate to the caller.
func (cs *ChainService) VerifyTransaction(ctx context.Context, txHash string) {
	sig, err := solana.SignatureFromBase58(txHash)
	if err != nil {
		cs.appLogger.Warn("Reported txHash is not a valid signature", zap.String("txHash", txHash), zap.Error(err))
		return
	}

	lookupCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	out, err := cs.rpcClient.GetSignatureStatuses(lookupCtx, true, sig)
	if err != nil {
		cs.appLogger.Warn("Signature status lookup failed", zap.String("txHash", txHash), zap.Error(err))
		return
	}
	if out == nil || len(out.Value) == 0 || out.Value[0] == nil {
		cs.appLogger.Warn("Reported transaction not found on chain", zap.String("txHash", txHash))
		return
	}

	status := out.Value[0]
	if status.Err != nil {
		cs.appLogger.Warn("Reported transaction failed on chain",
			zap.String("txHash", txHash), zap.Any("chainError", status.Err))
		return
	}
	cs.appLogger.Info("Transaction verified on chain",
		zap.String("txHash", txHash),
		zap.Uint64("slot", status.Slot),
		zap.String("confirmation", string(status.ConfirmationStatus)))
}
