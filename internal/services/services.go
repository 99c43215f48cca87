package services

import (
	"github.com/propdesk/leads-api/internal/config"
	"github.com/propdesk/leads-api/internal/repository"
)

// Services holds all service instances
type Services struct {
	Auth   *AuthService
	User   *UserService
	Lead   *LeadService
	Export *ExportService
	Import *ImportService
}

// NewServices creates all service instances
func NewServices(repos *repository.Repositories, cfg *config.Config) *Services {
	leadSvc := NewLeadService(repos.Lead, repos.LeadHistory)

	return &Services{
		Auth:   NewAuthService(repos.User, repos.RefreshToken, cfg),
		User:   NewUserService(repos.User),
		Lead:   leadSvc,
		Export: NewExportService(),
		Import: NewImportService(leadSvc),
	}
}
