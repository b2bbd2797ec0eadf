package events

import (
	"encoding/json"
	"fmt"
	"strings"

	"intent-engine/shared/types"
)

// Event kinds accepted by the evaluation engine. daily_check and
// event_window are declared by clients but carry no counter mutations.
const (
	ActionTransaction = "transaction"
	ActionSocialShare = "social_share"
	ActionDailyCheck  = "daily_check"
	ActionEventWindow = "event_window"
)

// ActivityEvent is the typed transfer object handed to the engine. Raw
// eventData maps from the client never cross this boundary.
type ActivityEvent struct {
	Action        string
	UserID        string
	WalletAddress string
	Protocol      string
	TxHash        string
	Engagement    int
}

// ParseActivityEvent validates a raw request and extracts the
// action-specific payload fields from the loosely typed eventData map.
func ParseActivityEvent(req types.BadgeEventRequest) (*ActivityEvent, error) {
	action := strings.TrimSpace(req.Action)
	userID := strings.TrimSpace(req.UserID)
	wallet := strings.TrimSpace(req.WalletAddress)

	if userID == "" || wallet == "" {
		return nil, fmt.Errorf("userId and walletAddress are required")
	}

	switch action {
	case ActionTransaction, ActionSocialShare, ActionDailyCheck, ActionEventWindow:
	default:
		return nil, fmt.Errorf("unknown action %q", action)
	}

	event := &ActivityEvent{
		Action:        action,
		UserID:        userID,
		WalletAddress: wallet,
	}

	if req.EventData == nil {
		return event, nil
	}

	if protocol, ok := stringField(req.EventData, "protocol"); ok {
		event.Protocol = protocol
	}
	if txHash, ok := stringField(req.EventData, "txHash"); ok {
		event.TxHash = txHash
	}
	if engagement, ok := intField(req.EventData, "engagement"); ok {
		if engagement < 0 {
			return nil, fmt.Errorf("engagement must be non-negative, got %d", engagement)
		}
		event.Engagement = engagement
	}

	return event, nil
}

func stringField(data map[string]interface{}, key string) (string, bool) {
	raw, present := data[key]
	if !present {
		return "", false
	}
	value, ok := raw.(string)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	return value, true
}

// intField tolerates the numeric shapes JSON decoding can produce.
func intField(data map[string]interface{}, key string) (int, bool) {
	raw, present := data[key]
	if !present {
		return 0, false
	}
	switch value := raw.(type) {
	case float64:
		return int(value), true
	case int:
		return value, true
	case json.Number:
		parsed, err := value.Int64()
		if err != nil {
			return 0, false
		}
		return int(parsed), true
	default:
		return 0, false
	}
}
