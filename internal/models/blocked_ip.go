package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BlockType distinguishes expiring blocks from permanent ones.
type BlockType string

const (
	BlockTypeTemporary BlockType = "temporary"
	BlockTypePermanent BlockType = "permanent"
)

// BlockedIP is a block order for a source address. A partial unique index on
// (ip_address) where unblocked_at IS NULL enforces at most one active block
// per IP; unblocking sets unblocked_at instead of deleting the row.
type BlockedIP struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	IPAddress string    `json:"ip_address" gorm:"index:idx_blocked_ips_active,unique,where:unblocked_at IS NULL"`
	Reason    string    `json:"reason"`
	BlockedBy string    `json:"blocked_by"` // user email or "system"
	BlockType BlockType `json:"block_type" gorm:"default:'temporary'"`

	BlockedAt   time.Time  `json:"blocked_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	UnblockedAt *time.Time `json:"unblocked_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (b *BlockedIP) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.BlockedAt.IsZero() {
		b.BlockedAt = time.Now().UTC()
	}
	if b.BlockType == "" {
		b.BlockType = BlockTypeTemporary
	}
	return
}

// Active reports whether the block is currently in effect.
func (b *BlockedIP) Active() bool {
	return b.UnblockedAt == nil
}
