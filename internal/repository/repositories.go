package repository

import (
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	User         UserRepository
	Lead         LeadRepository
	LeadHistory  LeadHistoryRepository
	RefreshToken RefreshTokenRepository
}

// NewRepositories creates all repository instances
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Lead:         NewLeadRepository(db),
		LeadHistory:  NewLeadHistoryRepository(db),
		RefreshToken: NewRefreshTokenRepository(db),
	}
}
