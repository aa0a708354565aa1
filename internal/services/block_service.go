package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/netsentinel/console/backend/internal/logger"
	"github.com/netsentinel/console/backend/internal/metrics"
	"github.com/netsentinel/console/backend/internal/models"
)

// SystemActor is the blocked_by value for policy-triggered blocks.
const SystemActor = "system"

type BlockService struct {
	DB       *gorm.DB
	Duration time.Duration // default lifetime of a temporary block
	Audit    *AuditService
}

func NewBlockService(db *gorm.DB, duration time.Duration, audit *AuditService) *BlockService {
	if duration <= 0 {
		duration = 24 * time.Hour
	}
	return &BlockService{DB: db, Duration: duration, Audit: audit}
}

// ActiveBlock returns the active block for an IP, or nil when none exists.
func (s *BlockService) ActiveBlock(ip string) (*models.BlockedIP, error) {
	var block models.BlockedIP
	err := s.DB.Where("ip_address = ? AND unblocked_at IS NULL", ip).First(&block).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &block, nil
}

// Block creates an active block for ip unless one already exists. The
// partial unique index on (ip_address, unblocked_at IS NULL) backs the
// check-then-create: a concurrent duplicate insert surfaces as a constraint
// violation and is treated as "already blocked". Returns the active block
// and whether this call created it.
func (s *BlockService) Block(ip, reason, actor string, blockType models.BlockType) (*models.BlockedIP, bool, error) {
	if existing, err := s.ActiveBlock(ip); err != nil {
		return nil, false, err
	} else if existing != nil {
		return existing, false, nil
	}

	block := models.BlockedIP{
		IPAddress: ip,
		Reason:    reason,
		BlockedBy: actor,
		BlockType: blockType,
		BlockedAt: time.Now().UTC(),
	}
	if blockType == models.BlockTypeTemporary {
		expires := block.BlockedAt.Add(s.Duration)
		block.ExpiresAt = &expires
	}

	if err := s.DB.Create(&block).Error; err != nil {
		if isUniqueViolation(err) {
			// Lost the race; the other writer's block is the active one.
			existing, lookupErr := s.ActiveBlock(ip)
			if lookupErr != nil {
				return nil, false, lookupErr
			}
			if existing != nil {
				return existing, false, nil
			}
		}
		return nil, false, err
	}

	metrics.IncIPBlocked()
	if s.Audit != nil && actor != SystemActor {
		s.Audit.Record(actor, AuditActionBlockIP, "blocked "+ip+": "+reason)
	}
	return &block, true, nil
}

// Unblock logically deletes a block by stamping unblocked_at.
func (s *BlockService) Unblock(id, actor string) error {
	var block models.BlockedIP
	if err := s.DB.First(&block, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Ef(KindNotFound, "blocks.unblock", "block %s not found", id)
		}
		return err
	}
	if block.UnblockedAt != nil {
		return Ef(KindConflict, "blocks.unblock", "block %s already lifted", id)
	}

	now := time.Now().UTC()
	if err := s.DB.Model(&block).Update("unblocked_at", now).Error; err != nil {
		return err
	}
	if s.Audit != nil {
		s.Audit.Record(actor, AuditActionUnblockIP, "unblocked "+block.IPAddress)
	}
	return nil
}

// ListActive returns all blocks currently in effect, newest first.
func (s *BlockService) ListActive() ([]models.BlockedIP, error) {
	var blocks []models.BlockedIP
	err := s.DB.Where("unblocked_at IS NULL").Order("blocked_at desc").Find(&blocks).Error
	return blocks, err
}

// ExpireOverdue lifts temporary blocks whose expiry has passed. Runs on the
// scheduler; returns how many blocks were lifted.
func (s *BlockService) ExpireOverdue() (int64, error) {
	now := time.Now().UTC()
	result := s.DB.Model(&models.BlockedIP{}).
		Where("unblocked_at IS NULL AND block_type = ? AND expires_at IS NOT NULL AND expires_at <= ?",
			models.BlockTypeTemporary, now).
		Update("unblocked_at", now)
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected > 0 {
		logger.WithFields(map[string]interface{}{"count": result.RowsAffected}).Info("expired overdue IP blocks")
	}
	return result.RowsAffected, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
