package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validCSVRow() map[string]string {
	return map[string]string{
		"fullName":     "Asha Rao",
		"email":        "asha@example.com",
		"phone":        "9876543210",
		"city":         "Mohali",
		"propertyType": "Plot",
		"bhk":          "",
		"purpose":      "Buy",
		"budgetMin":    "2500000",
		"budgetMax":    "4000000",
		"timeline":     "0-3m",
		"source":       "Referral",
		"status":       "",
		"notes":        "",
		"tags":         "nri, plot-buyer",
	}
}

func TestValidateCSVRow_CoercesAndSplits(t *testing.T) {
	in, errs := ValidateCSVRow(validCSVRow())
	assert.Empty(t, errs)
	assert.NotNil(t, in)
	assert.Equal(t, 2500000, *in.BudgetMin)
	assert.Equal(t, 4000000, *in.BudgetMax)
	assert.Equal(t, []string{"nri", "plot-buyer"}, in.Tags)
	assert.Equal(t, "New", in.Status)
}

func TestValidateCSVRow_EmptyBudgetsAreAbsent(t *testing.T) {
	row := validCSVRow()
	row["budgetMin"] = ""
	row["budgetMax"] = ""
	in, errs := ValidateCSVRow(row)
	assert.Empty(t, errs)
	assert.Nil(t, in.BudgetMin)
	assert.Nil(t, in.BudgetMax)
}

func TestValidateCSVRow_BadBudgetCoercion(t *testing.T) {
	row := validCSVRow()
	row["budgetMin"] = "lots"
	in, errs := ValidateCSVRow(row)
	assert.Nil(t, in)
	assert.Equal(t, "Budget must be a whole number", errs["budgetMin"])
}

func TestValidateCSVRow_StrictRulesStillApply(t *testing.T) {
	row := validCSVRow()
	row["propertyType"] = "Villa"
	// Villa needs a BHK even through the lenient profile
	in, errs := ValidateCSVRow(row)
	assert.Nil(t, in)
	assert.Contains(t, errs, "bhk")
}
