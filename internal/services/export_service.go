package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/propdesk/leads-api/internal/models"
	"github.com/xuri/excelize/v2"
)

// exportColumns is the fixed column order of lead exports.
var exportColumns = []string{
	"Full Name", "Email", "Phone", "City", "Property Type", "BHK",
	"Purpose", "Budget Min", "Budget Max", "Timeline", "Source", "Status",
	"Notes", "Tags", "Owner", "Created At", "Updated At",
}

// ExportService renders filtered lead listings as CSV, XLSX or PDF payloads.
type ExportService struct{}

// NewExportService creates a new export service
func NewExportService() *ExportService {
	return &ExportService{}
}

// ExportCSV renders leads as CSV with the fixed column order and returns the
// payload plus a dated filename.
func (s *ExportService) ExportCSV(ctx context.Context, leads []models.Lead) ([]byte, string, error) {
	buf := new(bytes.Buffer)
	writer := csv.NewWriter(buf)

	if err := writer.Write(exportColumns); err != nil {
		return nil, "", err
	}
	for i := range leads {
		if err := writer.Write(exportRow(&leads[i])); err != nil {
			return nil, "", err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("buyers-export-%s.csv", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// ExportXLSX renders leads as a single-sheet spreadsheet.
func (s *ExportService) ExportXLSX(ctx context.Context, leads []models.Lead) ([]byte, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Buyers"
	_ = f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	for col, name := range exportColumns {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		_ = f.SetCellValue(sheet, cell, name)
		_ = f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for i := range leads {
		row := exportRow(&leads[i])
		for col, value := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			_ = f.SetCellValue(sheet, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("buyers-export-%s.xlsx", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// ExportPDF renders a compact lead listing table.
func (s *ExportService) ExportPDF(ctx context.Context, leads []models.Lead) ([]byte, string, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(60, 10, "Buyer Leads")
	pdf.SetFont("Arial", "", 9)
	pdf.Cell(40, 10, time.Now().Format("2006-01-02 15:04"))
	pdf.Ln(12)

	headers := []string{"Full Name", "Phone", "City", "Property Type", "Purpose", "Timeline", "Status", "Owner"}
	widths := []float64{45, 30, 28, 30, 20, 25, 28, 45}

	pdf.SetFont("Arial", "B", 9)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for i := range leads {
		lead := &leads[i]
		owner := ""
		if lead.Owner != nil {
			owner = lead.Owner.DisplayName()
		}
		cells := []string{lead.FullName, lead.Phone, lead.City, lead.PropertyType, lead.Purpose, lead.Timeline, lead.Status, owner}
		for j, cell := range cells {
			pdf.CellFormat(widths[j], 6, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("buyers-export-%s.pdf", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

func exportRow(lead *models.Lead) []string {
	owner := ""
	if lead.Owner != nil {
		owner = lead.Owner.DisplayName()
	}
	return []string{
		lead.FullName,
		strOrEmpty(lead.Email),
		lead.Phone,
		lead.City,
		lead.PropertyType,
		strOrEmpty(lead.BHK),
		lead.Purpose,
		intOrEmpty(lead.BudgetMin),
		intOrEmpty(lead.BudgetMax),
		lead.Timeline,
		lead.Source,
		lead.Status,
		strOrEmpty(lead.Notes),
		strings.Join(lead.Tags, ", "),
		owner,
		lead.CreatedAt.UTC().Format(time.RFC3339),
		lead.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func intOrEmpty(n *int) string {
	if n == nil {
		return ""
	}
	return fmt.Sprintf("%d", *n)
}
