package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DiffFieldCreated is the synthetic diff key written when a lead is created.
const DiffFieldCreated = "created"

// DiffCreatedMessage is the synthetic "to" value of the created marker.
const DiffCreatedMessage = "New buyer created"

// FieldChange captures one field's transition inside a history diff.
type FieldChange struct {
	From any `json:"from"`
	To   any `json:"to"`
}

// Diff maps changed field names to their from/to pairs. Only fields whose
// value actually changed during one update appear in it.
type Diff map[string]FieldChange

// Value implements driver.Valuer
func (d Diff) Value() (driver.Value, error) {
	if d == nil {
		d = Diff{}
	}
	return json.Marshal(d)
}

// Scan implements sql.Scanner
func (d *Diff) Scan(value interface{}) error {
	if value == nil {
		*d = Diff{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	default:
		return fmt.Errorf("unsupported type %T for Diff", value)
	}
}

// CreatedDiff builds the diff recorded for a freshly created lead.
func CreatedDiff() Diff {
	return Diff{DiffFieldCreated: FieldChange{From: nil, To: DiffCreatedMessage}}
}

// LeadHistory is one audit record of a lead mutation
type LeadHistory struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	LeadID    string    `gorm:"type:uuid;not null;index" json:"leadId"`
	ChangedBy string    `gorm:"type:uuid;not null" json:"-"`
	ChangedAt time.Time `gorm:"index" json:"changedAt"`
	Diff      Diff      `gorm:"type:json;not null" json:"diff"`

	// Associations
	Changer *User `gorm:"foreignKey:ChangedBy" json:"-"`
}

// TableName specifies the table name for LeadHistory
func (LeadHistory) TableName() string {
	return "lead_history"
}

// BeforeCreate hook assigns the id and change timestamp
func (h *LeadHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	if h.ChangedAt.IsZero() {
		h.ChangedAt = time.Now().UTC()
	}
	return nil
}

// LeadHistoryResponse is the JSON shape returned for history entries,
// with the changer expanded into display info.
type LeadHistoryResponse struct {
	ID        string        `json:"id"`
	LeadID    string        `json:"leadId"`
	ChangedBy *UserResponse `json:"changedBy,omitempty"`
	ChangedAt time.Time     `json:"changedAt"`
	Diff      Diff          `json:"diff"`
}

// ToResponse converts LeadHistory to LeadHistoryResponse
func (h *LeadHistory) ToResponse() LeadHistoryResponse {
	resp := LeadHistoryResponse{
		ID:        h.ID,
		LeadID:    h.LeadID,
		ChangedAt: h.ChangedAt,
		Diff:      h.Diff,
	}
	if h.Changer != nil {
		changer := UserResponse{ID: h.Changer.ID, Name: h.Changer.DisplayName(), Email: h.Changer.Email}
		resp.ChangedBy = &changer
	}
	return resp
}
