package validation

import (
	"net/url"
	"strconv"

	"github.com/propdesk/leads-api/internal/models"
)

// Pagination bounds for lead listing
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Sort keys accepted by the list endpoint
var sortKeys = []string{"updatedAt", "createdAt", "fullName"}

// LeadFilters is the fully-defaulted filter object driving List.
type LeadFilters struct {
	Search       string
	City         string
	PropertyType string
	Status       string
	Timeline     string
	Page         int
	Limit        int
	SortBy       string
	SortOrder    string
}

// ParseFilters builds a LeadFilters from query parameters. Every omitted or
// unusable value falls back to its default, so parsing never fails: empty
// input yields a self-consistent filter object.
func ParseFilters(query url.Values) *LeadFilters {
	f := &LeadFilters{
		Search:    query.Get("search"),
		Page:      DefaultPage,
		Limit:     DefaultLimit,
		SortBy:    "updatedAt",
		SortOrder: "desc",
	}

	f.City = enumOrEmpty(query.Get("city"), models.Cities)
	f.PropertyType = enumOrEmpty(query.Get("propertyType"), models.PropertyTypes)
	f.Status = enumOrEmpty(query.Get("status"), models.LeadStatuses)
	f.Timeline = enumOrEmpty(query.Get("timeline"), models.Timelines)

	if page, err := strconv.Atoi(query.Get("page")); err == nil && page >= 1 {
		f.Page = page
	}
	if limit, err := strconv.Atoi(query.Get("limit")); err == nil && limit >= 1 {
		f.Limit = limit
		if f.Limit > MaxLimit {
			f.Limit = MaxLimit
		}
	}

	if sortBy := enumOrEmpty(query.Get("sortBy"), sortKeys); sortBy != "" {
		f.SortBy = sortBy
	}
	if order := query.Get("sortOrder"); order == "asc" || order == "desc" {
		f.SortOrder = order
	}

	return f
}

func enumOrEmpty(value string, allowed []string) string {
	for _, v := range allowed {
		if v == value {
			return value
		}
	}
	return ""
}
