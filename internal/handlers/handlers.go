package handlers

import (
	"github.com/propdesk/leads-api/internal/services"
)

// Handlers holds all HTTP handler instances
type Handlers struct {
	Health *HealthHandler
	Auth   *AuthHandler
	User   *UserHandler
	Lead   *LeadHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services) *Handlers {
	return &Handlers{
		Health: NewHealthHandler(),
		Auth:   NewAuthHandler(svcs.Auth),
		User:   NewUserHandler(svcs.User),
		Lead:   NewLeadHandler(svcs.Lead, svcs.Export, svcs.Import),
	}
}
