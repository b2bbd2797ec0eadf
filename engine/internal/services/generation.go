package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"intent-engine/engine/database"
	"intent-engine/engine/internal/models"
	"intent-engine/shared/config"
	"intent-engine/shared/env"
	"intent-engine/shared/logger"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// External AI API limits are tight on free tiers; keep well under them.
var (
	captionLimiter = rate.NewLimiter(rate.Limit(1), 2)
	imageLimiter   = rate.NewLimiter(rate.Limit(0.5), 1)
)

const (
	defaultCaptionModel = "llama-3.3-70b-versatile"
	defaultImageModel   = "flux-schnell"

	captionSystemPrompt = "You write short, punchy Web3 marketing captions. Reply with the caption only, no preamble."
)

// CaptionRequest/CaptionResponse follow the chat-completions contract of the
// caption provider. ImageRequest/ImageResponse follow the prediction contract
// of the image provider. Both are fixed external contracts, do not extend.
type CaptionRequest struct {
	Model     string           `json:"model"`
	Messages  []CaptionMessage `json:"messages"`
	MaxTokens int              `json:"max_tokens,omitempty"`
}

type CaptionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type CaptionResponse struct {
	Choices []struct {
		Message CaptionMessage `json:"message"`
	} `json:"choices"`
}

type ImageRequest struct {
	Model  string `json:"model,omitempty"`
	Prompt string `json:"prompt"`
}

type ImageResponse struct {
	Output []string `json:"output"`
	URL    string   `json:"url"`
}

// CampaignService generates AI-assisted marketing campaigns (caption + image)
// and persists them. Thin glue over two external generative APIs.
type CampaignService struct {
	db         *gorm.DB
	appLogger  *logger.Logger
	httpClient *http.Client
}

func NewCampaignService(db *gorm.DB, appLogger *logger.Logger) *CampaignService {
	return &CampaignService{
		db:         db,
		appLogger:  appLogger,
		httpClient: &http.Client{Timeout: 45 * time.Second},
	}
}

// GenerateCampaign produces a caption and an image for the prompt and records
// the campaign against the wallet. No retries; a provider failure fails the
// request.
func (cs *CampaignService) GenerateCampaign(ctx context.Context, walletAddress, prompt string) (*models.Campaign, error) {
	if env.CaptionAPIKey == "" || env.ImageAPIKey == "" {
		return nil, fmt.Errorf("campaign generation is not configured")
	}

	caption, err := cs.generateCaption(ctx, prompt)
	if err != nil {
		cs.appLogger.Error("Caption generation failed", zap.String("wallet", walletAddress), zap.Error(err))
		return nil, fmt.Errorf("caption generation failed: %w", err)
	}

	imageURL, err := cs.generateImage(ctx, prompt)
	if err != nil {
		cs.appLogger.Error("Image generation failed", zap.String("wallet", walletAddress), zap.Error(err))
		return nil, fmt.Errorf("image generation failed: %w", err)
	}

	campaign := &models.Campaign{
		WalletAddress: walletAddress,
		Prompt:        prompt,
		Caption:       caption,
		ImageURL:      imageURL,
	}
	if err := database.CreateCampaign(cs.db, campaign); err != nil {
		return nil, err
	}

	cs.appLogger.Info("Campaign generated",
		zap.String("wallet", walletAddress), zap.Uint("campaignId", campaign.ID))
	return campaign, nil
}

func (cs *CampaignService) generateCaption(ctx context.Context, prompt string) (string, error) {
	if err := captionLimiter.Wait(ctx); err != nil {
		return "", err
	}

	model := defaultCaptionModel
	if cfg := config.GetGlobalConfig(); cfg != nil && cfg.Generation.CaptionModel != "" {
		model = cfg.Generation.CaptionModel
	}

	payload := CaptionRequest{
		Model: model,
		Messages: []CaptionMessage{
			{Role: "system", Content: captionSystemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens: 120,
	}

	body, err := cs.postJSON(ctx, env.CaptionAPIURL, env.CaptionAPIKey, payload)
	if err != nil {
		return "", err
	}

	var parsed CaptionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode caption response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("caption provider returned no choices")
	}
	caption := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if caption == "" {
		return "", fmt.Errorf("caption provider returned an empty caption")
	}
	return caption, nil
}

func (cs *CampaignService) generateImage(ctx context.Context, prompt string) (string, error) {
	if err := imageLimiter.Wait(ctx); err != nil {
		return "", err
	}

	model := defaultImageModel
	if cfg := config.GetGlobalConfig(); cfg != nil && cfg.Generation.ImageModel != "" {
		model = cfg.Generation.ImageModel
	}

	payload := ImageRequest{Model: model, Prompt: prompt}

	body, err := cs.postJSON(ctx, env.ImageAPIURL, env.ImageAPIKey, payload)
	if err != nil {
		return "", err
	}

	var parsed ImageResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode image response: %w", err)
	}
	if parsed.URL != "" {
		return parsed.URL, nil
	}
	if len(parsed.Output) > 0 && parsed.Output[0] != "" {
		return parsed.Output[0], nil
	}
	return "", fmt.Errorf("image provider returned no image URL")
}

func (cs *CampaignService) postJSON(ctx context.Context, url, apiKey string, payload interface{}) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("provider URL not configured")
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(encoded))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := cs.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read provider response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		snippet := string(body)
		if len(snippet) > 300 {
			snippet = snippet[:300]
		}
		return nil, fmt.Errorf("provider responded with status %d: %s", resp.StatusCode, snippet)
	}
	return body, nil
}
