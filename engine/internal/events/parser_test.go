package events

import (
	"testing"

	"intent-engine/shared/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseActivityEventTransaction(t *testing.T) {
	req := types.BadgeEventRequest{
		Action:        "transaction",
		UserID:        "user-1",
		WalletAddress: "wallet-1",
		EventData: map[string]interface{}{
			"protocol": "arcflow",
			"txHash":   "5Ua1hPpfjqCikZ4xPX6aJYjbn9QdLHVqgrYBHNKkBhYQ",
		},
	}

	event, err := ParseActivityEvent(req)
	require.NoError(t, err)
	assert.Equal(t, ActionTransaction, event.Action)
	assert.Equal(t, "arcflow", event.Protocol)
	assert.Equal(t, "5Ua1hPpfjqCikZ4xPX6aJYjbn9QdLHVqgrYBHNKkBhYQ", event.TxHash)
}

func TestParseActivityEventSocialShareEngagement(t *testing.T) {
	// JSON decoding hands numbers over as float64
	req := types.BadgeEventRequest{
		Action:        "social_share",
		UserID:        "user-1",
		WalletAddress: "wallet-1",
		EventData:     map[string]interface{}{"engagement": float64(50)},
	}

	event, err := ParseActivityEvent(req)
	require.NoError(t, err)
	assert.Equal(t, 50, event.Engagement)
}

func TestParseActivityEventMissingIdentity(t *testing.T) {
	cases := []types.BadgeEventRequest{
		{Action: "transaction", WalletAddress: "wallet-1"},
		{Action: "transaction", UserID: "user-1"},
		{Action: "transaction", UserID: "   ", WalletAddress: "wallet-1"},
	}
	for _, req := range cases {
		_, err := ParseActivityEvent(req)
		assert.Error(t, err)
	}
}

func TestParseActivityEventUnknownAction(t *testing.T) {
	req := types.BadgeEventRequest{Action: "mint", UserID: "user-1", WalletAddress: "wallet-1"}
	_, err := ParseActivityEvent(req)
	assert.Error(t, err)
}

func TestParseActivityEventReservedActionsAccepted(t *testing.T) {
	for _, action := range []string{ActionDailyCheck, ActionEventWindow} {
		req := types.BadgeEventRequest{Action: action, UserID: "user-1", WalletAddress: "wallet-1"}
		event, err := ParseActivityEvent(req)
		require.NoError(t, err)
		assert.Equal(t, action, event.Action)
	}
}

func TestParseActivityEventNegativeEngagementRejected(t *testing.T) {
	req := types.BadgeEventRequest{
		Action:        "social_share",
		UserID:        "user-1",
		WalletAddress: "wallet-1",
		EventData:     map[string]interface{}{"engagement": float64(-5)},
	}
	_, err := ParseActivityEvent(req)
	assert.Error(t, err)
}

func TestParseActivityEventIgnoresMalformedOptionalFields(t *testing.T) {
	req := types.BadgeEventRequest{
		Action:        "transaction",
		UserID:        "user-1",
		WalletAddress: "wallet-1",
		EventData: map[string]interface{}{
			"protocol":   42,
			"engagement": "lots",
		},
	}
	event, err := ParseActivityEvent(req)
	require.NoError(t, err)
	assert.Empty(t, event.Protocol)
	assert.Zero(t, event.Engagement)
}
