package validation

import (
	"strconv"
	"strings"
)

// CSVColumns lists the header names the import file must use, matching the
// JSON field names of the create profile.
var CSVColumns = []string{
	"fullName", "email", "phone", "city", "propertyType", "bhk", "purpose",
	"budgetMin", "budgetMax", "timeline", "source", "status", "notes", "tags",
}

// ValidateCSVRow applies the lenient/coercive profile to one raw CSV row:
// budgets are coerced from strings, tags are comma-split, and empty strings
// count as absent optional fields. The coerced input then passes through the
// same strict rules as interactive create.
func ValidateCSVRow(row map[string]string) (*CreateLeadInput, FieldErrors) {
	errs := FieldErrors{}

	in := &CreateLeadInput{
		FullName:     row["fullName"],
		Email:        row["email"],
		Phone:        row["phone"],
		City:         row["city"],
		PropertyType: row["propertyType"],
		BHK:          row["bhk"],
		Purpose:      row["purpose"],
		Timeline:     row["timeline"],
		Source:       row["source"],
		Status:       row["status"],
		Notes:        row["notes"],
	}

	in.BudgetMin = coerceInt(errs, "budgetMin", row["budgetMin"])
	in.BudgetMax = coerceInt(errs, "budgetMax", row["budgetMax"])

	if tags := strings.TrimSpace(row["tags"]); tags != "" {
		in.Tags = normalizeTags(strings.Split(tags, ","))
	}

	if len(errs) > 0 {
		return nil, errs
	}

	if errs = ValidateCreate(in); len(errs) > 0 {
		return nil, errs
	}
	return in, nil
}

func coerceInt(errs FieldErrors, field, value string) *int {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		errs[field] = "Budget must be a whole number"
		return nil
	}
	return &n
}
