package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/propdesk/leads-api/internal/validation"
)

// MaxImportRows caps how many data rows one CSV import may carry.
const MaxImportRows = 200

var (
	// ErrInvalidCSV rejects a file whose header or rows cannot be parsed.
	ErrInvalidCSV = errors.New("invalid CSV format")

	// ErrTooManyRows rejects a file exceeding the import cap.
	ErrTooManyRows = fmt.Errorf("CSV file cannot contain more than %d rows", MaxImportRows)
)

// ImportRowError reports lenient-validation failures for one row. Row uses
// the source file numbering: data rows start at 2 because of the header row.
type ImportRowError struct {
	Row    int    `json:"row"`
	Errors string `json:"errors"`
}

// ImportReport is the outcome of one CSV import.
type ImportReport struct {
	TotalRows int              `json:"totalRows"`
	ValidRows int              `json:"validRows"`
	RowErrors []ImportRowError `json:"validationErrors,omitempty"`
	Result    *BulkResult      `json:"details,omitempty"`
}

// HasErrors reports whether any row failed lenient validation.
func (r *ImportReport) HasErrors() bool {
	return len(r.RowErrors) > 0
}

// ImportService decodes lead CSV uploads, runs the lenient validation profile
// per row and hands clean batches to the lead service.
type ImportService struct {
	leadSvc *LeadService
}

// NewImportService creates a new import service
func NewImportService(leadSvc *LeadService) *ImportService {
	return &ImportService{leadSvc: leadSvc}
}

// Import parses a CSV file with a header row. Header failures and files over
// the row cap reject the whole file. Rows failing lenient validation are
// reported with their source row numbers and the lead service is never called
// for such a file; clean files go through BulkCreate, whose per-row report is
// returned as-is.
func (s *ImportService) Import(ctx context.Context, file io.Reader, ownerID string) (*ImportReport, error) {
	rows, err := decodeRows(file)
	if err != nil {
		return nil, err
	}

	report := &ImportReport{TotalRows: len(rows)}
	inputs := make([]*validation.CreateLeadInput, 0, len(rows))

	for i, row := range rows {
		in, errs := validation.ValidateCSVRow(row)
		if len(errs) > 0 {
			report.RowErrors = append(report.RowErrors, ImportRowError{
				// +2: 1-based numbering plus the header row
				Row:    i + 2,
				Errors: joinFieldErrors(errs),
			})
			continue
		}
		inputs = append(inputs, in)
	}
	report.ValidRows = len(inputs)

	if report.HasErrors() {
		return report, nil
	}

	report.Result = s.leadSvc.BulkCreate(ctx, inputs, ownerID)
	return report, nil
}

// decodeRows reads the header plus up to MaxImportRows data rows into
// column-keyed maps.
func decodeRows(file io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, ErrInvalidCSV
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, ErrInvalidCSV
		}

		if len(rows) >= MaxImportRows {
			return nil, ErrTooManyRows
		}

		row := make(map[string]string, len(header))
		for i, value := range record {
			if i < len(header) {
				row[header[i]] = strings.TrimSpace(value)
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func joinFieldErrors(errs validation.FieldErrors) string {
	fields := make([]string, 0, len(errs))
	for field := range errs {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, errs[field]))
	}
	return strings.Join(parts, ", ")
}
