package services

import (
	"context"
	"errors"
	"math"
	"slices"
	"time"

	"github.com/propdesk/leads-api/internal/models"
	"github.com/propdesk/leads-api/internal/repository"
	"github.com/propdesk/leads-api/internal/statemachine"
	"github.com/propdesk/leads-api/internal/validation"
	"gorm.io/gorm"
)

// historyPreviewSize is how many recent history entries GetByID returns.
const historyPreviewSize = 5

// LeadService orchestrates validation, ownership checks, diff-based history
// capture, filtering and bulk import for buyer leads.
type LeadService struct {
	leads   repository.LeadRepository
	history repository.LeadHistoryRepository
}

// NewLeadService creates a new lead service
func NewLeadService(leads repository.LeadRepository, history repository.LeadHistoryRepository) *LeadService {
	return &LeadService{leads: leads, history: history}
}

// LeadDetail is a lead together with its most recent history entries,
// newest first.
type LeadDetail struct {
	Lead    *models.Lead
	History []models.LeadHistory
}

// Pagination describes the page of a filtered listing. Total counts records
// after filtering but before pagination.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

// Create validates the input with the strict profile, stores a new lead owned
// by ownerID and records the synthetic "created" history entry.
func (s *LeadService) Create(ctx context.Context, in *validation.CreateLeadInput, ownerID string) (*models.Lead, error) {
	if errs := validation.ValidateCreate(in); len(errs) > 0 {
		return nil, NewValidationError(errs)
	}

	lead := in.ToModel(ownerID)
	if err := s.leads.Create(ctx, lead); err != nil {
		return nil, err
	}

	entry := &models.LeadHistory{
		LeadID:    lead.ID,
		ChangedBy: ownerID,
		Diff:      models.CreatedDiff(),
	}
	if err := s.history.Create(ctx, entry); err != nil {
		return nil, err
	}

	// Reload to pick up the owner association for display enrichment
	return s.leads.FindByID(ctx, lead.ID)
}

// GetByID returns the lead with its owner display info and the most recent
// history entries. An absent lead is a normal outcome surfaced as ErrNotFound.
func (s *LeadService) GetByID(ctx context.Context, id string) (*LeadDetail, error) {
	lead, err := s.leads.FindByID(ctx, id)
	if err != nil {
		return nil, asNotFound(err)
	}

	history, err := s.history.FindRecentByLead(ctx, id, historyPreviewSize)
	if err != nil {
		return nil, err
	}

	return &LeadDetail{Lead: lead, History: history}, nil
}

// Update applies a partial update. Any present field must satisfy its own
// rule and the cross-field rules are re-checked against the merged record.
// When the caller supplies the updatedAt it last observed and it no longer
// matches, the update fails with ErrConflict instead of being applied.
// A non-empty diff is recorded as one history entry; an empty diff still
// advances updatedAt and succeeds without writing history.
func (s *LeadService) Update(ctx context.Context, id string, in *validation.UpdateLeadInput, actorID, actorRole string) (*models.Lead, error) {
	lead, err := s.leads.FindByID(ctx, id)
	if err != nil {
		return nil, asNotFound(err)
	}

	if lead.OwnerID != actorID && actorRole != models.RoleAdmin {
		return nil, ErrForbidden
	}

	if in.UpdatedAt != nil && !stampsEqual(*in.UpdatedAt, lead.UpdatedAt) {
		return nil, ErrConflict
	}

	if errs := validation.ValidateUpdate(lead, in); len(errs) > 0 {
		return nil, NewValidationError(errs)
	}

	diff := computeDiff(lead, in)
	in.Apply(lead)

	// Save bumps updated_at even when no field changed
	if err := s.leads.Save(ctx, lead); err != nil {
		return nil, err
	}

	if len(diff) > 0 {
		entry := &models.LeadHistory{
			LeadID:    lead.ID,
			ChangedBy: actorID,
			Diff:      diff,
		}
		if err := s.history.Create(ctx, entry); err != nil {
			return nil, err
		}
	}

	return lead, nil
}

// UpdateStatus is the quick-action wrapper around Update for the status
// field. The status machine rejects unknown values; every known status may
// move to every other.
func (s *LeadService) UpdateStatus(ctx context.Context, id, status string, actorID, actorRole string) (*models.Lead, error) {
	lead, err := s.leads.FindByID(ctx, id)
	if err != nil {
		return nil, asNotFound(err)
	}

	machine := statemachine.NewLeadFSM(lead.Status)
	if !machine.MayTransition(status) {
		return nil, NewValidationError(validation.FieldErrors{"status": "Invalid status: " + status})
	}

	return s.Update(ctx, id, &validation.UpdateLeadInput{Status: &status}, actorID, actorRole)
}

// Delete removes a lead and all of its history. Only the owner or an admin
// may delete.
func (s *LeadService) Delete(ctx context.Context, id, actorID, actorRole string) error {
	lead, err := s.leads.FindByID(ctx, id)
	if err != nil {
		return asNotFound(err)
	}

	if lead.OwnerID != actorID && actorRole != models.RoleAdmin {
		return ErrForbidden
	}

	return s.leads.DeleteWithHistory(ctx, id)
}

// List returns one page of leads matching the filters plus pagination
// metadata. Reads are not filtered by ownership: every agent sees all leads.
func (s *LeadService) List(ctx context.Context, filters *validation.LeadFilters) ([]models.Lead, *Pagination, error) {
	query := &repository.LeadQuery{
		Search:       filters.Search,
		City:         filters.City,
		PropertyType: filters.PropertyType,
		Status:       filters.Status,
		Timeline:     filters.Timeline,
		Page:         filters.Page,
		Limit:        filters.Limit,
		SortBy:       filters.SortBy,
		SortOrder:    filters.SortOrder,
	}

	leads, total, err := s.leads.List(ctx, query)
	if err != nil {
		return nil, nil, err
	}

	pagination := &Pagination{
		Page:  filters.Page,
		Limit: filters.Limit,
		Total: total,
		Pages: int64(math.Ceil(float64(total) / float64(filters.Limit))),
	}
	return leads, pagination, nil
}

// BulkRowSuccess reports one imported row with its 1-based input position.
type BulkRowSuccess struct {
	Row  int                 `json:"row"`
	Lead models.LeadResponse `json:"lead"`
}

// BulkRowError reports one failed row with its 1-based input position.
type BulkRowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// BulkResult is the partial-failure report of a bulk import.
type BulkResult struct {
	Created []BulkRowSuccess `json:"results"`
	Errors  []BulkRowError   `json:"errors"`
}

// BulkCreate runs each input through Create independently and collects
// successes and failures per 1-based row position. A failing row never stops
// the rows after it; this is the only place service errors are converted into
// a report instead of propagated.
func (s *LeadService) BulkCreate(ctx context.Context, inputs []*validation.CreateLeadInput, ownerID string) *BulkResult {
	result := &BulkResult{
		Created: []BulkRowSuccess{},
		Errors:  []BulkRowError{},
	}

	for i, in := range inputs {
		lead, err := s.Create(ctx, in, ownerID)
		if err != nil {
			result.Errors = append(result.Errors, BulkRowError{Row: i + 1, Error: err.Error()})
			continue
		}
		result.Created = append(result.Created, BulkRowSuccess{Row: i + 1, Lead: lead.ToResponse()})
	}

	return result
}

// asNotFound maps the store's missing-record error onto the service taxonomy.
func asNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// stampsEqual compares concurrency tokens at microsecond precision, since the
// database column stores less precision than Go's time.Time carries.
func stampsEqual(a, b time.Time) bool {
	return a.UTC().Truncate(time.Microsecond).Equal(b.UTC().Truncate(time.Microsecond))
}

// computeDiff records a from/to pair for every present input field whose
// value differs from the current record, compared by value.
func computeDiff(current *models.Lead, in *validation.UpdateLeadInput) models.Diff {
	diff := models.Diff{}

	addStr := func(field, from string, to *string) {
		if to != nil && *to != from {
			diff[field] = models.FieldChange{From: from, To: *to}
		}
	}
	addOpt := func(field string, from *string, to *string) {
		if to == nil {
			return
		}
		fromVal := ""
		if from != nil {
			fromVal = *from
		}
		if *to != fromVal {
			diff[field] = models.FieldChange{From: anyOrNil(from), To: anyOrNilStr(*to)}
		}
	}

	addStr("fullName", current.FullName, in.FullName)
	addOpt("email", current.Email, in.Email)
	addStr("phone", current.Phone, in.Phone)
	addStr("city", current.City, in.City)
	addStr("propertyType", current.PropertyType, in.PropertyType)
	addOpt("bhk", current.BHK, in.BHK)
	addStr("purpose", current.Purpose, in.Purpose)
	addStr("timeline", current.Timeline, in.Timeline)
	addStr("source", current.Source, in.Source)
	addStr("status", current.Status, in.Status)
	addOpt("notes", current.Notes, in.Notes)

	if in.BudgetMin != nil && (current.BudgetMin == nil || *current.BudgetMin != *in.BudgetMin) {
		diff["budgetMin"] = models.FieldChange{From: anyOrNilInt(current.BudgetMin), To: *in.BudgetMin}
	}
	if in.BudgetMax != nil && (current.BudgetMax == nil || *current.BudgetMax != *in.BudgetMax) {
		diff["budgetMax"] = models.FieldChange{From: anyOrNilInt(current.BudgetMax), To: *in.BudgetMax}
	}

	if in.Tags != nil && !slices.Equal([]string(current.Tags), *in.Tags) {
		diff["tags"] = models.FieldChange{From: []string(current.Tags), To: *in.Tags}
	}

	return diff
}

func anyOrNil(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func anyOrNilStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func anyOrNilInt(n *int) any {
	if n == nil {
		return nil
	}
	return *n
}
