package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/propdesk/leads-api/internal/config"
	"github.com/propdesk/leads-api/internal/models"
	"github.com/propdesk/leads-api/internal/repository"
	"github.com/propdesk/leads-api/internal/services"
)

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
	agent  *models.User
}

// newTestEnv wires real services over an on-disk sqlite database and mounts
// the buyer routes behind a stub identity middleware.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("handler_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.RefreshToken{}, &models.Lead{}, &models.LeadHistory{}))

	agent := &models.User{Email: "agent@example.com", Name: "Agent", EncryptedPassword: "x"}
	require.NoError(t, db.Create(agent).Error)

	repos := repository.NewRepositories(db)
	svcs := services.NewServices(repos, &config.Config{JWTSecret: "test-secret", JWTExpirationHours: 1})
	h := NewHandlers(svcs)

	router := gin.New()
	buyers := router.Group("/api/v1/buyers")
	buyers.Use(func(c *gin.Context) {
		c.Set("userID", agent.ID)
		c.Set("userRole", agent.Role)
	})
	{
		buyers.GET("", h.Lead.Index)
		buyers.POST("", h.Lead.Create)
		buyers.GET("/export", h.Lead.Export)
		buyers.POST("/import", h.Lead.Import)
		buyers.GET("/:buyer_id", h.Lead.Show)
		buyers.PUT("/:buyer_id", h.Lead.Update)
		buyers.PATCH("/:buyer_id/status", h.Lead.UpdateStatus)
		buyers.DELETE("/:buyer_id", h.Lead.Delete)
	}

	return &testEnv{router: router, db: db, agent: agent}
}

func (e *testEnv) request(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(payload)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func createBuyerPayload(name string) map[string]any {
	return map[string]any{
		"fullName":     name,
		"phone":        "9876543210",
		"city":         "Chandigarh",
		"propertyType": "Apartment",
		"bhk":          "2",
		"purpose":      "Buy",
		"timeline":     "0-3m",
		"source":       "Website",
	}
}

func (e *testEnv) createBuyer(t *testing.T, name string) map[string]any {
	t.Helper()
	w := e.request(t, http.MethodPost, "/api/v1/buyers", createBuyerPayload(name))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp map[string]map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp["buyer"]
}

func TestLeadHandler_CreateAndShow(t *testing.T) {
	env := newTestEnv(t)

	buyer := env.createBuyer(t, "Asha Rao")
	assert.NotEmpty(t, buyer["id"])
	assert.Equal(t, "New", buyer["status"])
	assert.Equal(t, env.agent.ID, buyer["ownerId"])

	w := env.request(t, http.MethodGet, "/api/v1/buyers/"+buyer["id"].(string), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Buyer   map[string]any   `json:"buyer"`
		History []map[string]any `json:"history"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Asha Rao", resp.Buyer["fullName"])
	require.Len(t, resp.History, 1)
	diff := resp.History[0]["diff"].(map[string]any)
	assert.Contains(t, diff, "created")
}

func TestLeadHandler_CreateValidationDetails(t *testing.T) {
	env := newTestEnv(t)

	payload := createBuyerPayload("Asha Rao")
	payload["bhk"] = ""
	w := env.request(t, http.MethodPost, "/api/v1/buyers", payload)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Error   string            `json:"error"`
		Details map[string]string `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Validation failed", resp.Error)
	assert.Equal(t, "BHK is required for residential properties (Apartment/Villa)", resp.Details["bhk"])
}

func TestLeadHandler_ShowUnknownBuyer(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodGet, "/api/v1/buyers/00000000-0000-0000-0000-000000000000", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Buyer not found")
}

func TestLeadHandler_UpdateConflict(t *testing.T) {
	env := newTestEnv(t)
	buyer := env.createBuyer(t, "Asha Rao")

	stale := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339Nano)
	w := env.request(t, http.MethodPut, "/api/v1/buyers/"+buyer["id"].(string), map[string]any{
		"fullName":  "Asha R",
		"updatedAt": stale,
	})
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "Record has been modified by another user")
}

func TestLeadHandler_UpdateStatusAndList(t *testing.T) {
	env := newTestEnv(t)
	buyer := env.createBuyer(t, "Asha Rao")
	env.createBuyer(t, "Vikram Singh")

	w := env.request(t, http.MethodPatch, "/api/v1/buyers/"+buyer["id"].(string)+"/status", map[string]any{
		"status": "Qualified",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.request(t, http.MethodGet, "/api/v1/buyers?status=Qualified", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Buyers     []map[string]any `json:"buyers"`
		Pagination map[string]any   `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Buyers, 1)
	assert.Equal(t, "Asha Rao", resp.Buyers[0]["fullName"])
	assert.EqualValues(t, 1, resp.Pagination["total"])
	assert.EqualValues(t, 1, resp.Pagination["pages"])
}

func TestLeadHandler_Delete(t *testing.T) {
	env := newTestEnv(t)
	buyer := env.createBuyer(t, "Asha Rao")

	w := env.request(t, http.MethodDelete, "/api/v1/buyers/"+buyer["id"].(string), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)

	w = env.request(t, http.MethodGet, "/api/v1/buyers/"+buyer["id"].(string), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLeadHandler_ExportCSV(t *testing.T) {
	env := newTestEnv(t)
	env.createBuyer(t, "Asha Rao")

	w := env.request(t, http.MethodGet, "/api/v1/buyers/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "buyers-export-")
	assert.Contains(t, w.Body.String(), "Asha Rao")
}

func multipartCSV(t *testing.T, content string) (*bytes.Buffer, string) {
	t.Helper()
	buf := new(bytes.Buffer)
	writer := multipart.NewWriter(buf)
	part, err := writer.CreateFormFile("file", "buyers.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return buf, writer.FormDataContentType()
}

func TestLeadHandler_ImportCleanFile(t *testing.T) {
	env := newTestEnv(t)

	file := strings.Join([]string{
		"fullName,email,phone,city,propertyType,bhk,purpose,budgetMin,budgetMax,timeline,source,status,notes,tags",
		"Asha Rao,,9876543210,Chandigarh,Apartment,2,Buy,,,0-3m,Website,,,",
	}, "\n")
	body, contentType := multipartCSV(t, file)

	req, err := http.NewRequest(http.MethodPost, "/api/v1/buyers/import", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Success  bool `json:"success"`
		Imported int  `json:"imported"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.Imported)
}

func TestLeadHandler_ImportRejectsRowErrors(t *testing.T) {
	env := newTestEnv(t)

	file := strings.Join([]string{
		"fullName,email,phone,city,propertyType,bhk,purpose,budgetMin,budgetMax,timeline,source,status,notes,tags",
		"Asha Rao,,9876543210,Chandigarh,Apartment,2,Buy,,,0-3m,Website,,,",
		"B,,123,Chandigarh,Apartment,2,Buy,,,0-3m,Website,,,",
	}, "\n")
	body, contentType := multipartCSV(t, file)

	req, err := http.NewRequest(http.MethodPost, "/api/v1/buyers/import", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Error     string `json:"error"`
		RowErrors []struct {
			Row    int    `json:"row"`
			Errors string `json:"errors"`
		} `json:"validationErrors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Validation failed", resp.Error)
	require.Len(t, resp.RowErrors, 1)
	assert.Equal(t, 3, resp.RowErrors[0].Row)
}

func TestLeadHandler_ImportRejectsNonCSV(t *testing.T) {
	env := newTestEnv(t)

	buf := new(bytes.Buffer)
	writer := multipart.NewWriter(buf)
	part, err := writer.CreateFormFile("file", "buyers.xlsx")
	require.NoError(t, err)
	_, _ = part.Write([]byte("not a csv"))
	require.NoError(t, writer.Close())

	req, err := http.NewRequest(http.MethodPost, "/api/v1/buyers/import", buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "File must be a CSV")
}
