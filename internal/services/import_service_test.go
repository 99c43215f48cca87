package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propdesk/leads-api/internal/models"
	"github.com/propdesk/leads-api/internal/repository"
	"github.com/propdesk/leads-api/internal/validation"
)

const importHeader = "fullName,email,phone,city,propertyType,bhk,purpose,budgetMin,budgetMax,timeline,source,status,notes,tags"

func newTestImportService(t *testing.T) (*ImportService, *LeadService, string) {
	t.Helper()
	db := newTestDB(t)
	leadSvc := NewLeadService(repository.NewLeadRepository(db), repository.NewLeadHistoryRepository(db))
	owner := seedUser(t, db, "importer", models.RoleUser)
	return NewImportService(leadSvc), leadSvc, owner.ID
}

func TestImportService_CleanFile(t *testing.T) {
	svc, _, ownerID := newTestImportService(t)

	file := strings.Join([]string{
		importHeader,
		`Asha Rao,asha@example.com,9876543210,Chandigarh,Apartment,2,Buy,5000000,7500000,0-3m,Website,,Prefers sector 22,"hot, nri"`,
		`Vikram Singh,,9998887776,Mohali,Plot,,Buy,,,Exploring,Referral,Contacted,,`,
	}, "\n")

	report, err := svc.Import(context.Background(), strings.NewReader(file), ownerID)
	require.NoError(t, err)
	assert.Equal(t, 2, report.TotalRows)
	assert.Equal(t, 2, report.ValidRows)
	assert.False(t, report.HasErrors())
	require.NotNil(t, report.Result)
	require.Len(t, report.Result.Created, 2)
	assert.Empty(t, report.Result.Errors)

	first := report.Result.Created[0].Lead
	assert.Equal(t, "Asha Rao", first.FullName)
	assert.Equal(t, []string{"hot", "nri"}, first.Tags)
	assert.Equal(t, models.StatusNew, first.Status)
	assert.Equal(t, models.StatusContacted, report.Result.Created[1].Lead.Status)
}

func TestImportService_RowErrorsRejectWholeFile(t *testing.T) {
	svc, leadSvc, ownerID := newTestImportService(t)

	file := strings.Join([]string{
		importHeader,
		`Asha Rao,,9876543210,Chandigarh,Apartment,2,Buy,,,0-3m,Website,,,`,
		`B,,123,Chandigarh,Apartment,2,Buy,,,0-3m,Website,,,`,
	}, "\n")

	report, err := svc.Import(context.Background(), strings.NewReader(file), ownerID)
	require.NoError(t, err)
	assert.True(t, report.HasErrors())
	assert.Equal(t, 2, report.TotalRows)
	assert.Equal(t, 1, report.ValidRows)
	require.Len(t, report.RowErrors, 1)
	// Header is row 1, so the second data row is row 3
	assert.Equal(t, 3, report.RowErrors[0].Row)
	assert.Contains(t, report.RowErrors[0].Errors, "fullName: Full name must be at least 2 characters")
	assert.Contains(t, report.RowErrors[0].Errors, "phone: Phone number must be 10-15 digits")

	// No lead was created, not even from the valid row
	assert.Nil(t, report.Result)
	_, total, err := leadServiceListAll(leadSvc)
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
}

func leadServiceListAll(svc *LeadService) ([]models.Lead, int64, error) {
	filters := &validation.LeadFilters{Page: 1, Limit: validation.MaxLimit, SortBy: "updatedAt", SortOrder: "desc"}
	leads, pagination, err := svc.List(context.Background(), filters)
	if err != nil {
		return nil, 0, err
	}
	return leads, pagination.Total, nil
}

func TestImportService_TooManyRows(t *testing.T) {
	svc, _, ownerID := newTestImportService(t)

	rows := []string{importHeader}
	for i := 0; i <= MaxImportRows; i++ {
		rows = append(rows, `Asha Rao,,9876543210,Chandigarh,Apartment,2,Buy,,,0-3m,Website,,,`)
	}

	_, err := svc.Import(context.Background(), strings.NewReader(strings.Join(rows, "\n")), ownerID)
	assert.ErrorIs(t, err, ErrTooManyRows)
}

func TestImportService_MalformedCSV(t *testing.T) {
	svc, _, ownerID := newTestImportService(t)

	_, err := svc.Import(context.Background(), strings.NewReader(""), ownerID)
	assert.ErrorIs(t, err, ErrInvalidCSV)

	broken := importHeader + "\n" + `"unterminated,,,,,,,,,,,,,`
	_, err = svc.Import(context.Background(), strings.NewReader(broken), ownerID)
	assert.ErrorIs(t, err, ErrInvalidCSV)
}
