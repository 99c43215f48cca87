package repository

import (
	"context"

	"github.com/propdesk/leads-api/internal/models"
	"gorm.io/gorm"
)

// LeadHistoryRepository defines the interface for lead history data access
type LeadHistoryRepository interface {
	Create(ctx context.Context, entry *models.LeadHistory) error
	FindRecentByLead(ctx context.Context, leadID string, limit int) ([]models.LeadHistory, error)
	CountByLead(ctx context.Context, leadID string) (int64, error)
}

type leadHistoryRepository struct {
	db *gorm.DB
}

// NewLeadHistoryRepository creates a new lead history repository
func NewLeadHistoryRepository(db *gorm.DB) LeadHistoryRepository {
	return &leadHistoryRepository{db: db}
}

func (r *leadHistoryRepository) Create(ctx context.Context, entry *models.LeadHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// FindRecentByLead returns the newest entries first, with the changer loaded
// for display enrichment.
func (r *leadHistoryRepository) FindRecentByLead(ctx context.Context, leadID string, limit int) ([]models.LeadHistory, error) {
	var entries []models.LeadHistory
	err := r.db.WithContext(ctx).
		Preload("Changer").
		Where("lead_id = ?", leadID).
		Order("changed_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

func (r *leadHistoryRepository) CountByLead(ctx context.Context, leadID string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.LeadHistory{}).
		Where("lead_id = ?", leadID).
		Count(&total).Error
	return total, err
}
