package types

// BadgeEventRequest is the payload clients POST when reporting activity.
// EventData is action-specific and validated by the events parser before
// it reaches the evaluation engine.
type BadgeEventRequest struct {
	Action        string                 `json:"action" binding:"required"`
	UserID        string                 `json:"userId" binding:"required"`
	WalletAddress string                 `json:"walletAddress" binding:"required"`
	EventData     map[string]interface{} `json:"eventData"`
}

// ProgressSummary carries the counters clients render after an event.
type ProgressSummary struct {
	TotalTransactions int `json:"totalTransactions"`
	UniqueProtocols   int `json:"uniqueProtocols"`
	ConsecutiveDays   int `json:"consecutiveDays"`
}

// BadgeEventResponse summarizes one processed activity event.
type BadgeEventResponse struct {
	Success              bool            `json:"success"`
	NewUnlocks           []string        `json:"newUnlocks"`
	IntentScore          float64         `json:"intentScore"`
	CurrentIdentityBadge *string         `json:"currentIdentityBadge"`
	Progress             ProgressSummary `json:"progress"`
}

// GenerateCampaignRequest asks for an AI-assisted caption + image pair.
type GenerateCampaignRequest struct {
	WalletAddress string `json:"walletAddress" binding:"required"`
	Prompt        string `json:"prompt" binding:"required"`
}

// GenerateCampaignResponse returns the generated campaign assets.
type GenerateCampaignResponse struct {
	Success  bool   `json:"success"`
	Caption  string `json:"caption"`
	ImageURL string `json:"imageUrl"`
}

// UpdateUnlockDisplayRequest edits the only user-editable unlock fields.
type UpdateUnlockDisplayRequest struct {
	UserID       string `json:"userId" binding:"required"`
	IsDisplayed  *bool  `json:"isDisplayed"`
	DisplayOrder *int   `json:"displayOrder"`
}
