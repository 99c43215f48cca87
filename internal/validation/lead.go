// Package validation implements the field rules for buyer leads in three
// profiles: strict (interactive create), strict-partial (update, re-checked
// against the merge of current and incoming values) and lenient (CSV import,
// with string coercion). A fourth profile parses list filters and always
// yields a fully-defaulted filter object.
package validation

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/propdesk/leads-api/internal/models"
)

// FieldErrors maps field names to human-readable rule violations.
type FieldErrors map[string]string

// Phone numbers: 10-15 digits, optional leading +, spaces/dashes/parens allowed
var phoneRegexp = regexp.MustCompile(`^\+?[\d\s\-\(\)]{10,15}$`)

const maxNotesLen = 1000

// CreateLeadInput is the strict-profile input for creating a lead.
// Empty strings stand for absent optional fields.
type CreateLeadInput struct {
	FullName     string   `json:"fullName"`
	Email        string   `json:"email"`
	Phone        string   `json:"phone"`
	City         string   `json:"city"`
	PropertyType string   `json:"propertyType"`
	BHK          string   `json:"bhk"`
	Purpose      string   `json:"purpose"`
	BudgetMin    *int     `json:"budgetMin"`
	BudgetMax    *int     `json:"budgetMax"`
	Timeline     string   `json:"timeline"`
	Source       string   `json:"source"`
	Status       string   `json:"status"`
	Notes        string   `json:"notes"`
	Tags         []string `json:"tags"`
}

// ValidateCreate normalizes the input in place and returns the set of rule
// violations, empty when the input is valid.
func ValidateCreate(in *CreateLeadInput) FieldErrors {
	errs := FieldErrors{}

	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.BHK = strings.TrimSpace(in.BHK)
	in.Tags = normalizeTags(in.Tags)

	if n := utf8.RuneCountInString(in.FullName); n < 2 {
		errs["fullName"] = "Full name must be at least 2 characters"
	} else if n > 80 {
		errs["fullName"] = "Full name must not exceed 80 characters"
	}

	if in.Email != "" {
		if _, err := mail.ParseAddress(in.Email); err != nil {
			errs["email"] = "Invalid email format"
		}
	}

	if !phoneRegexp.MatchString(in.Phone) {
		errs["phone"] = "Phone number must be 10-15 digits"
	}

	checkEnum(errs, "city", in.City, models.Cities, true)
	checkEnum(errs, "propertyType", in.PropertyType, models.PropertyTypes, true)
	checkEnum(errs, "purpose", in.Purpose, models.Purposes, true)
	checkEnum(errs, "timeline", in.Timeline, models.Timelines, true)
	checkEnum(errs, "source", in.Source, models.Sources, true)

	if in.Status == "" {
		in.Status = models.StatusNew
	} else {
		checkEnum(errs, "status", in.Status, models.LeadStatuses, true)
	}

	if _, dup := errs["propertyType"]; !dup {
		checkBHK(errs, in.PropertyType, in.BHK)
	}
	checkBudget(errs, in.BudgetMin, in.BudgetMax)

	if utf8.RuneCountInString(in.Notes) > maxNotesLen {
		errs["notes"] = "Notes must not exceed 1000 characters"
	}

	return errs
}

// ToModel converts a validated input into a Lead owned by ownerID.
func (in *CreateLeadInput) ToModel(ownerID string) *models.Lead {
	lead := &models.Lead{
		FullName:     in.FullName,
		Phone:        in.Phone,
		City:         in.City,
		PropertyType: in.PropertyType,
		Purpose:      in.Purpose,
		BudgetMin:    in.BudgetMin,
		BudgetMax:    in.BudgetMax,
		Timeline:     in.Timeline,
		Source:       in.Source,
		Status:       in.Status,
		Tags:         models.StringList(in.Tags),
		OwnerID:      ownerID,
	}
	if in.Email != "" {
		email := in.Email
		lead.Email = &email
	}
	if in.BHK != "" {
		bhk := in.BHK
		lead.BHK = &bhk
	}
	if in.Notes != "" {
		notes := in.Notes
		lead.Notes = &notes
	}
	return lead
}

// UpdateLeadInput is the strict-partial profile: every field is optional, a
// present field must satisfy its own rule. Pointing a string field at "" clears
// it (used for bhk/email/notes). UpdatedAt is the optimistic-concurrency token.
type UpdateLeadInput struct {
	FullName     *string    `json:"fullName"`
	Email        *string    `json:"email"`
	Phone        *string    `json:"phone"`
	City         *string    `json:"city"`
	PropertyType *string    `json:"propertyType"`
	BHK          *string    `json:"bhk"`
	Purpose      *string    `json:"purpose"`
	BudgetMin    *int       `json:"budgetMin"`
	BudgetMax    *int       `json:"budgetMax"`
	Timeline     *string    `json:"timeline"`
	Source       *string    `json:"source"`
	Status       *string    `json:"status"`
	Notes        *string    `json:"notes"`
	Tags         *[]string  `json:"tags"`
	UpdatedAt    *time.Time `json:"updatedAt"`
}

// ValidateUpdate normalizes present fields in place and checks them, with the
// two cross-field rules evaluated against the merge of current and incoming
// values.
func ValidateUpdate(current *models.Lead, in *UpdateLeadInput) FieldErrors {
	errs := FieldErrors{}

	trimPtr(in.FullName)
	trimPtr(in.Email)
	trimPtr(in.Phone)
	trimPtr(in.BHK)
	if in.Tags != nil {
		*in.Tags = normalizeTags(*in.Tags)
	}

	if in.FullName != nil {
		if n := utf8.RuneCountInString(*in.FullName); n < 2 {
			errs["fullName"] = "Full name must be at least 2 characters"
		} else if n > 80 {
			errs["fullName"] = "Full name must not exceed 80 characters"
		}
	}
	if in.Email != nil && *in.Email != "" {
		if _, err := mail.ParseAddress(*in.Email); err != nil {
			errs["email"] = "Invalid email format"
		}
	}
	if in.Phone != nil && !phoneRegexp.MatchString(*in.Phone) {
		errs["phone"] = "Phone number must be 10-15 digits"
	}
	if in.City != nil {
		checkEnum(errs, "city", *in.City, models.Cities, true)
	}
	if in.PropertyType != nil {
		checkEnum(errs, "propertyType", *in.PropertyType, models.PropertyTypes, true)
	}
	if in.Purpose != nil {
		checkEnum(errs, "purpose", *in.Purpose, models.Purposes, true)
	}
	if in.Timeline != nil {
		checkEnum(errs, "timeline", *in.Timeline, models.Timelines, true)
	}
	if in.Source != nil {
		checkEnum(errs, "source", *in.Source, models.Sources, true)
	}
	if in.Status != nil {
		checkEnum(errs, "status", *in.Status, models.LeadStatuses, true)
	}
	if in.Notes != nil && utf8.RuneCountInString(*in.Notes) > maxNotesLen {
		errs["notes"] = "Notes must not exceed 1000 characters"
	}

	// Cross-field rules run on the merged view
	propertyType := current.PropertyType
	if in.PropertyType != nil {
		propertyType = *in.PropertyType
	}
	bhk := ""
	if current.BHK != nil {
		bhk = *current.BHK
	}
	if in.BHK != nil {
		bhk = *in.BHK
	}
	if _, bad := errs["propertyType"]; !bad {
		checkBHK(errs, propertyType, bhk)
	}

	budgetMin := current.BudgetMin
	if in.BudgetMin != nil {
		budgetMin = in.BudgetMin
	}
	budgetMax := current.BudgetMax
	if in.BudgetMax != nil {
		budgetMax = in.BudgetMax
	}
	checkBudget(errs, budgetMin, budgetMax)

	return errs
}

// Apply copies every present field onto the lead. Callers must have validated
// the input first; diffs are computed before Apply mutates the lead.
func (in *UpdateLeadInput) Apply(lead *models.Lead) {
	if in.FullName != nil {
		lead.FullName = *in.FullName
	}
	if in.Email != nil {
		lead.Email = optional(*in.Email)
	}
	if in.Phone != nil {
		lead.Phone = *in.Phone
	}
	if in.City != nil {
		lead.City = *in.City
	}
	if in.PropertyType != nil {
		lead.PropertyType = *in.PropertyType
	}
	if in.BHK != nil {
		lead.BHK = optional(*in.BHK)
	}
	if in.Purpose != nil {
		lead.Purpose = *in.Purpose
	}
	if in.BudgetMin != nil {
		v := *in.BudgetMin
		lead.BudgetMin = &v
	}
	if in.BudgetMax != nil {
		v := *in.BudgetMax
		lead.BudgetMax = &v
	}
	if in.Timeline != nil {
		lead.Timeline = *in.Timeline
	}
	if in.Source != nil {
		lead.Source = *in.Source
	}
	if in.Status != nil {
		lead.Status = *in.Status
	}
	if in.Notes != nil {
		lead.Notes = optional(*in.Notes)
	}
	if in.Tags != nil {
		lead.Tags = models.StringList(*in.Tags)
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func trimPtr(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

func checkEnum(errs FieldErrors, field, value string, allowed []string, required bool) {
	if value == "" {
		if required {
			errs[field] = field + " is required"
		}
		return
	}
	for _, v := range allowed {
		if v == value {
			return
		}
	}
	errs[field] = fmt.Sprintf("Invalid %s: %s", field, value)
}

func checkBHK(errs FieldErrors, propertyType, bhk string) {
	if models.IsResidential(propertyType) {
		if bhk == "" {
			errs["bhk"] = "BHK is required for residential properties (Apartment/Villa)"
			return
		}
	} else if bhk != "" {
		errs["bhk"] = "BHK must be empty for non-residential properties"
		return
	}
	if bhk != "" {
		checkEnum(errs, "bhk", bhk, models.BHKValues, false)
	}
}

func checkBudget(errs FieldErrors, budgetMin, budgetMax *int) {
	if budgetMin != nil && *budgetMin < 0 {
		errs["budgetMin"] = "Budget cannot be negative"
	}
	if budgetMax != nil && *budgetMax < 0 {
		errs["budgetMax"] = "Budget cannot be negative"
		return
	}
	if budgetMin != nil && budgetMax != nil && *budgetMax < *budgetMin {
		errs["budgetMax"] = "Maximum budget must be greater than or equal to minimum budget"
	}
}
