package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/propdesk/leads-api/internal/models"
	"gorm.io/gorm"
)

// LeadQuery holds the filter, sort and pagination parameters for List.
type LeadQuery struct {
	Search       string
	City         string
	PropertyType string
	Status       string
	Timeline     string
	Page         int
	Limit        int
	SortBy       string // updatedAt | createdAt | fullName
	SortOrder    string // asc | desc
}

// sortColumns whitelists the sortable columns; anything else falls back to
// updated_at.
var sortColumns = map[string]string{
	"updatedAt": "updated_at",
	"createdAt": "created_at",
	"fullName":  "full_name",
}

// LeadRepository defines the interface for lead data access
type LeadRepository interface {
	FindByID(ctx context.Context, id string) (*models.Lead, error)
	Create(ctx context.Context, lead *models.Lead) error
	Save(ctx context.Context, lead *models.Lead) error
	DeleteWithHistory(ctx context.Context, id string) error
	List(ctx context.Context, query *LeadQuery) ([]models.Lead, int64, error)
}

type leadRepository struct {
	db *gorm.DB
}

// NewLeadRepository creates a new lead repository
func NewLeadRepository(db *gorm.DB) LeadRepository {
	return &leadRepository{db: db}
}

func (r *leadRepository) FindByID(ctx context.Context, id string) (*models.Lead, error) {
	var lead models.Lead
	err := r.db.WithContext(ctx).
		Preload("Owner").
		First(&lead, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

func (r *leadRepository) Create(ctx context.Context, lead *models.Lead) error {
	return r.db.WithContext(ctx).Create(lead).Error
}

func (r *leadRepository) Save(ctx context.Context, lead *models.Lead) error {
	return r.db.WithContext(ctx).Omit("Owner").Save(lead).Error
}

// DeleteWithHistory removes a lead and all its history entries in one
// transaction, so no partial state is ever observable.
func (r *leadRepository) DeleteWithHistory(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("lead_id = ?", id).Delete(&models.LeadHistory{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Lead{}, "id = ?", id).Error
	})
}

func (r *leadRepository) List(ctx context.Context, query *LeadQuery) ([]models.Lead, int64, error) {
	var leads []models.Lead
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Lead{})

	// Case-insensitive substring search across fullName, email, phone and
	// notes; a record matches when ANY of them contains the term. LOWER+LIKE
	// keeps the query portable between postgres and the sqlite test driver.
	if query.Search != "" {
		pattern := "%" + strings.ToLower(query.Search) + "%"
		db = db.Where(
			"LOWER(full_name) LIKE ? OR LOWER(COALESCE(email, '')) LIKE ? OR LOWER(phone) LIKE ? OR LOWER(COALESCE(notes, '')) LIKE ?",
			pattern, pattern, pattern, pattern,
		)
	}

	if query.City != "" {
		db = db.Where("city = ?", query.City)
	}
	if query.PropertyType != "" {
		db = db.Where("property_type = ?", query.PropertyType)
	}
	if query.Status != "" {
		db = db.Where("status = ?", query.Status)
	}
	if query.Timeline != "" {
		db = db.Where("timeline = ?", query.Timeline)
	}

	// Total is counted after filtering, before pagination
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := sortColumns[query.SortBy]
	if !ok {
		column = "updated_at"
	}
	direction := "DESC"
	if strings.EqualFold(query.SortOrder, "asc") {
		direction = "ASC"
	}

	// Ties break by creation order, then id, so the sort is stable and
	// pagination never duplicates or drops rows.
	order := fmt.Sprintf("%s %s, created_at ASC, id ASC", column, direction)

	offset := (query.Page - 1) * query.Limit
	err := db.Preload("Owner").
		Order(order).
		Limit(query.Limit).
		Offset(offset).
		Find(&leads).Error
	return leads, total, err
}
