package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AssignmentAssigned = "assigned"
	AssignmentReturned = "returned"
)

// Assignment records a unit of an asset handed to an employee by an approved request.
type Assignment struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	AssetID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"asset_id"`
	RequestID     *uuid.UUID `gorm:"type:uuid;index" json:"request_id"`
	AssetName     string     `gorm:"type:varchar(255)" json:"asset_name"`
	AssetType     string     `gorm:"type:varchar(20)" json:"asset_type"`
	AssetImage    string     `gorm:"type:text" json:"asset_image"`
	EmployeeEmail string     `gorm:"type:varchar(255);not null;index" json:"employee_email"`
	EmployeeName  string     `gorm:"type:varchar(255)" json:"employee_name"`
	HREmail       string     `gorm:"type:varchar(255);not null;index" json:"hr_email"`
	CompanyName   string     `gorm:"type:varchar(255)" json:"company_name"`
	Status        string     `gorm:"type:varchar(20);not null;index" json:"status"`
	AssignedAt    time.Time  `json:"assigned_at"`
	ReturnedAt    *time.Time `json:"returned_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (a *Assignment) BeforeCreate(tx *gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
