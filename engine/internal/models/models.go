package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// Badge layers group the catalog by how a badge is earned.
const (
	LayerIdentity = "identity"
	LayerProof    = "proof"
	LayerEvent    = "event"
	LayerSocial   = "social"
)

// Badge is an immutable, admin-curated catalog entry. Criteria is a sparse
// JSONB map of named thresholds; a badge unlocks when every recognized key
// evaluates true against the user's progress.
type Badge struct {
	Slug             string         `gorm:"primaryKey" json:"slug"`
	Name             string         `gorm:"not null" json:"name"`
	Description      string         `json:"description"`
	Icon             string         `json:"icon"`
	Layer            string         `gorm:"not null;index" json:"layer"`
	Rarity           string         `json:"rarity"`
	Criteria         datatypes.JSON `gorm:"type:jsonb" json:"criteria"`
	IsProgression    bool           `gorm:"default:false" json:"isProgression"`
	ProgressionOrder int            `gorm:"default:0" json:"progressionOrder"`
	EventWindowStart *time.Time     `json:"eventWindowStart,omitempty"`
	EventWindowEnd   *time.Time     `json:"eventWindowEnd,omitempty"`
	IsActive         bool           `gorm:"default:true;index" json:"isActive"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"-"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"-"`
}

// UserProgress is the one-per-user mutable aggregate the engine reads and
// writes on every event. Created lazily on a user's first event, never deleted.
type UserProgress struct {
	ID                   uint           `gorm:"primaryKey" json:"-"`
	UserID               string         `gorm:"uniqueIndex;not null" json:"userId"`
	WalletAddress        string         `gorm:"not null" json:"walletAddress"`
	TotalTransactions    int            `gorm:"default:0" json:"totalTransactions"`
	Protocols            pq.StringArray `gorm:"type:text[]" json:"protocols"`
	ConsecutiveDays      int            `gorm:"default:0" json:"consecutiveDays"`
	MaxConsecutiveDays   int            `gorm:"default:0" json:"maxConsecutiveDays"`
	LastActiveDate       *time.Time     `json:"lastActiveDate,omitempty"`
	SocialShares         int            `gorm:"default:0" json:"socialShares"`
	TotalEngagement      int            `gorm:"default:0" json:"totalEngagement"`
	VoiceState           int            `gorm:"default:0" json:"voiceState"`
	IntentScore          float64        `gorm:"type:numeric(4,2);default:0" json:"intentScore"`
	CurrentIdentityBadge *string        `json:"currentIdentityBadge"`
	CreatedAt            time.Time      `gorm:"autoCreateTime" json:"-"`
	UpdatedAt            time.Time      `gorm:"autoUpdateTime" json:"-"`
}

// UniqueProtocols is the cardinality of the distinct-protocol set.
func (p *UserProgress) UniqueProtocols() int {
	return len(p.Protocols)
}

// HasProtocol reports whether the user already interacted with a protocol.
func (p *UserProgress) HasProtocol(protocol string) bool {
	for _, existing := range p.Protocols {
		if existing == protocol {
			return true
		}
	}
	return false
}

// BadgeUnlock is an append-only record that a user satisfied a badge's
// criteria. The unique (user_id, badge_slug) index makes unlocking monotonic:
// a racing duplicate insert loses silently at the storage layer.
type BadgeUnlock struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       string    `gorm:"not null;uniqueIndex:idx_unlock_user_badge" json:"userId"`
	BadgeSlug    string    `gorm:"not null;uniqueIndex:idx_unlock_user_badge" json:"badgeSlug"`
	UnlockedAt   time.Time `gorm:"autoCreateTime" json:"unlockedAt"`
	EventType    string    `json:"eventType,omitempty"`
	TxHash       string    `json:"txHash,omitempty"`
	IsDisplayed  bool      `gorm:"default:true" json:"isDisplayed"`
	DisplayOrder int       `gorm:"default:0" json:"displayOrder"`

	Badge Badge `gorm:"foreignKey:BadgeSlug;references:Slug" json:"badge,omitempty"`
}

// Campaign records one AI-assisted caption/image generation for a wallet.
type Campaign struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	WalletAddress string    `gorm:"not null;index" json:"walletAddress"`
	Prompt        string    `gorm:"not null" json:"prompt"`
	Caption       string    `json:"caption"`
	ImageURL      string    `json:"imageUrl"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"-"`
}

// QueuedEvent mirrors the declared event-queue table. No engine logic reads
// or writes it; events are processed synchronously in the request path.
type QueuedEvent struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    string         `gorm:"index" json:"userId"`
	Action    string         `json:"action"`
	Payload   datatypes.JSON `gorm:"type:jsonb" json:"payload"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"createdAt"`
}
