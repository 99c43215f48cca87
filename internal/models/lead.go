package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// City values
const (
	CityChandigarh = "Chandigarh"
	CityMohali     = "Mohali"
	CityZirakpur   = "Zirakpur"
	CityPanchkula  = "Panchkula"
	CityOther      = "Other"
)

// Property type values
const (
	PropertyTypeApartment = "Apartment"
	PropertyTypeVilla     = "Villa"
	PropertyTypePlot      = "Plot"
	PropertyTypeOffice    = "Office"
	PropertyTypeRetail    = "Retail"
)

// Purpose values
const (
	PurposeBuy  = "Buy"
	PurposeRent = "Rent"
)

// Lead status values
const (
	StatusNew         = "New"
	StatusQualified   = "Qualified"
	StatusContacted   = "Contacted"
	StatusVisited     = "Visited"
	StatusNegotiation = "Negotiation"
	StatusConverted   = "Converted"
	StatusDropped     = "Dropped"
)

// Closed value sets used by validation and the status machine
var (
	Cities        = []string{CityChandigarh, CityMohali, CityZirakpur, CityPanchkula, CityOther}
	PropertyTypes = []string{PropertyTypeApartment, PropertyTypeVilla, PropertyTypePlot, PropertyTypeOffice, PropertyTypeRetail}
	BHKValues     = []string{"Studio", "1", "2", "3", "4"}
	Purposes      = []string{PurposeBuy, PurposeRent}
	Timelines     = []string{"0-3m", "3-6m", ">6m", "Exploring"}
	Sources       = []string{"Website", "Referral", "Walk-in", "Call", "Other"}
	LeadStatuses  = []string{StatusNew, StatusQualified, StatusContacted, StatusVisited, StatusNegotiation, StatusConverted, StatusDropped}
)

// IsResidential reports whether a property type requires a BHK value.
func IsResidential(propertyType string) bool {
	return propertyType == PropertyTypeApartment || propertyType == PropertyTypeVilla
}

// StringList is a JSON-encoded string slice column (lead tags).
type StringList []string

// Value implements driver.Valuer
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported type %T for StringList", value)
	}
}

// Lead represents one buyer lead
type Lead struct {
	ID           string     `gorm:"type:uuid;primaryKey" json:"id"`
	FullName     string     `gorm:"size:80;not null" json:"fullName"`
	Email        *string    `gorm:"size:255" json:"email,omitempty"`
	Phone        string     `gorm:"size:15;not null" json:"phone"`
	City         string     `gorm:"size:20;not null" json:"city"`
	PropertyType string     `gorm:"size:20;not null" json:"propertyType"`
	BHK          *string    `gorm:"column:bhk;size:10" json:"bhk,omitempty"`
	Purpose      string     `gorm:"size:10;not null" json:"purpose"`
	BudgetMin    *int       `json:"budgetMin,omitempty"`
	BudgetMax    *int       `json:"budgetMax,omitempty"`
	Timeline     string     `gorm:"size:12;not null" json:"timeline"`
	Source       string     `gorm:"size:12;not null" json:"source"`
	Status       string     `gorm:"size:16;not null;default:New" json:"status"`
	Notes        *string    `gorm:"type:text" json:"notes,omitempty"`
	Tags         StringList `gorm:"type:json" json:"tags"`
	OwnerID      string     `gorm:"type:uuid;not null;index" json:"ownerId"`
	CreatedAt    time.Time  `gorm:"index" json:"createdAt"`
	UpdatedAt    time.Time  `gorm:"index" json:"updatedAt"`

	// Associations
	Owner *User `gorm:"foreignKey:OwnerID" json:"-"`
}

// TableName specifies the table name for Lead
func (Lead) TableName() string {
	return "leads"
}

// BeforeCreate hook assigns the id and default status
func (l *Lead) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.Status == "" {
		l.Status = StatusNew
	}
	return nil
}

// LeadResponse is the JSON shape returned by the API, with the owner
// expanded into display info.
type LeadResponse struct {
	ID           string        `json:"id"`
	FullName     string        `json:"fullName"`
	Email        *string       `json:"email,omitempty"`
	Phone        string        `json:"phone"`
	City         string        `json:"city"`
	PropertyType string        `json:"propertyType"`
	BHK          *string       `json:"bhk,omitempty"`
	Purpose      string        `json:"purpose"`
	BudgetMin    *int          `json:"budgetMin,omitempty"`
	BudgetMax    *int          `json:"budgetMax,omitempty"`
	Timeline     string        `json:"timeline"`
	Source       string        `json:"source"`
	Status       string        `json:"status"`
	Notes        *string       `json:"notes,omitempty"`
	Tags         []string      `json:"tags"`
	OwnerID      string        `json:"ownerId"`
	Owner        *UserResponse `json:"owner,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// ToResponse converts Lead to LeadResponse
func (l *Lead) ToResponse() LeadResponse {
	resp := LeadResponse{
		ID:           l.ID,
		FullName:     l.FullName,
		Email:        l.Email,
		Phone:        l.Phone,
		City:         l.City,
		PropertyType: l.PropertyType,
		BHK:          l.BHK,
		Purpose:      l.Purpose,
		BudgetMin:    l.BudgetMin,
		BudgetMax:    l.BudgetMax,
		Timeline:     l.Timeline,
		Source:       l.Source,
		Status:       l.Status,
		Notes:        l.Notes,
		Tags:         l.Tags,
		OwnerID:      l.OwnerID,
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
	}
	if l.Owner != nil {
		owner := UserResponse{ID: l.Owner.ID, Name: l.Owner.DisplayName(), Email: l.Owner.Email}
		resp.Owner = &owner
	}
	return resp
}
