package handlers

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/propdesk/leads-api/internal/middleware"
	"github.com/propdesk/leads-api/internal/models"
	"github.com/propdesk/leads-api/internal/services"
	"github.com/propdesk/leads-api/internal/validation"
)

// exportLimit bounds how many rows one export may return. Enforced here, in
// the adapter layer, not by the service.
const exportLimit = 10000

type LeadHandler struct {
	leadService   *services.LeadService
	exportService *services.ExportService
	importService *services.ImportService
}

func NewLeadHandler(leadService *services.LeadService, exportService *services.ExportService, importService *services.ImportService) *LeadHandler {
	return &LeadHandler{
		leadService:   leadService,
		exportService: exportService,
		importService: importService,
	}
}

// @Summary List Buyers
// @Description Get a filtered, sorted, paginated list of buyer leads.
// Reads are not scoped to the owner: every agent sees all leads (flagged as a
// potential product gap, preserved deliberately).
// @Tags Buyers
// @Produce json
// @Param search query string false "Substring search over name/email/phone/notes"
// @Param city query string false "Filter by city"
// @Param propertyType query string false "Filter by property type"
// @Param status query string false "Filter by status"
// @Param timeline query string false "Filter by timeline"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page (max 100)" default(10)
// @Param sortBy query string false "updatedAt | createdAt | fullName" default(updatedAt)
// @Param sortOrder query string false "asc | desc" default(desc)
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /buyers [get]
func (h *LeadHandler) Index(c *gin.Context) {
	filters := validation.ParseFilters(c.Request.URL.Query())

	leads, pagination, err := h.leadService.List(c.Request.Context(), filters)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	responses := make([]models.LeadResponse, 0, len(leads))
	for i := range leads {
		responses = append(responses, leads[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"buyers":     responses,
		"pagination": pagination,
	})
}

// @Summary Get Buyer
// @Description Get a buyer lead with its owner info and 5 most recent history entries
// @Tags Buyers
// @Produce json
// @Param buyer_id path string true "Buyer ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /buyers/{buyer_id} [get]
func (h *LeadHandler) Show(c *gin.Context) {
	detail, err := h.leadService.GetByID(c.Request.Context(), c.Param("buyer_id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	history := make([]models.LeadHistoryResponse, 0, len(detail.History))
	for i := range detail.History {
		history = append(history, detail.History[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"buyer":   detail.Lead.ToResponse(),
		"history": history,
	})
}

// @Summary Create Buyer
// @Description Create a new buyer lead owned by the current agent
// @Tags Buyers
// @Accept json
// @Produce json
// @Param request body validation.CreateLeadInput true "Buyer Data"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Security BearerAuth
// @Router /buyers [post]
func (h *LeadHandler) Create(c *gin.Context) {
	var in validation.CreateLeadInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	lead, err := h.leadService.Create(c.Request.Context(), &in, middleware.GetUserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"buyer": lead.ToResponse()})
}

// @Summary Update Buyer
// @Description Partially update a buyer lead. Pass the last observed
// updatedAt to detect concurrent edits (409 on mismatch).
// @Tags Buyers
// @Accept json
// @Produce json
// @Param buyer_id path string true "Buyer ID"
// @Param request body validation.UpdateLeadInput true "Changed fields"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /buyers/{buyer_id} [put]
func (h *LeadHandler) Update(c *gin.Context) {
	var in validation.UpdateLeadInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	lead, err := h.leadService.Update(
		c.Request.Context(),
		c.Param("buyer_id"),
		&in,
		middleware.GetUserID(c),
		middleware.GetUserRole(c),
	)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"buyer": lead.ToResponse()})
}

type statusUpdateRequest struct {
	Status string `json:"status" binding:"required"`
}

// @Summary Update Buyer Status
// @Description Quick status change; recorded in the change history
// @Tags Buyers
// @Accept json
// @Produce json
// @Param buyer_id path string true "Buyer ID"
// @Param request body statusUpdateRequest true "New status"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Security BearerAuth
// @Router /buyers/{buyer_id}/status [patch]
func (h *LeadHandler) UpdateStatus(c *gin.Context) {
	var req statusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}

	lead, err := h.leadService.UpdateStatus(
		c.Request.Context(),
		c.Param("buyer_id"),
		req.Status,
		middleware.GetUserID(c),
		middleware.GetUserRole(c),
	)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"buyer": lead.ToResponse()})
}

// @Summary Delete Buyer
// @Description Delete a buyer lead and its full change history (owner or admin)
// @Tags Buyers
// @Produce json
// @Param buyer_id path string true "Buyer ID"
// @Success 200 {object} map[string]bool
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /buyers/{buyer_id} [delete]
func (h *LeadHandler) Delete(c *gin.Context) {
	err := h.leadService.Delete(
		c.Request.Context(),
		c.Param("buyer_id"),
		middleware.GetUserID(c),
		middleware.GetUserRole(c),
	)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// @Summary Export Buyers
// @Description Export all leads matching the list filters as CSV (default), XLSX or PDF
// @Tags Buyers
// @Produce text/csv
// @Param format query string false "csv | xlsx | pdf" default(csv)
// @Success 200 {string} string "file payload"
// @Security BearerAuth
// @Router /buyers/export [get]
func (h *LeadHandler) Export(c *gin.Context) {
	filters := validation.ParseFilters(c.Request.URL.Query())
	// Export all matching records in one page
	filters.Page = 1
	filters.Limit = exportLimit

	leads, _, err := h.leadService.List(c.Request.Context(), filters)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	var payload []byte
	var filename, contentType string

	switch c.DefaultQuery("format", "csv") {
	case "xlsx":
		payload, filename, err = h.exportService.ExportXLSX(c.Request.Context(), leads)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "pdf":
		payload, filename, err = h.exportService.ExportPDF(c.Request.Context(), leads)
		contentType = "application/pdf"
	default:
		payload, filename, err = h.exportService.ExportCSV(c.Request.Context(), leads)
		contentType = "text/csv"
	}
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, payload)
}

// @Summary Import Buyers
// @Description Import buyer leads from a CSV upload (max 200 rows). Rows that
// fail lenient validation reject the file with row-indexed errors; clean files
// report per-row create successes and failures.
// @Tags Buyers
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV file"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Security BearerAuth
// @Router /buyers/import [post]
func (h *LeadHandler) Import(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}

	if !strings.EqualFold(filepath.Ext(fileHeader.Filename), ".csv") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File must be a CSV"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unable to read uploaded file"})
		return
	}
	defer file.Close()

	report, err := h.importService.Import(c.Request.Context(), file, middleware.GetUserID(c))
	if err != nil {
		if errors.Is(err, services.ErrInvalidCSV) || errors.Is(err, services.ErrTooManyRows) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		handleServiceError(c, err)
		return
	}

	if report.HasErrors() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":            "Validation failed",
			"validationErrors": report.RowErrors,
			"totalRows":        report.TotalRows,
			"validRows":        report.ValidRows,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"imported": len(report.Result.Created),
		"details":  report.Result,
	})
}
