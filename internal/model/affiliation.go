package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AffiliationActive   = "active"
	AffiliationInactive = "inactive"
)

// Affiliation links an employee to an HR account. At most one active row per pair.
type Affiliation struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	EmployeeEmail string     `gorm:"type:varchar(255);not null;index;uniqueIndex:idx_active_affiliation,where:status = 'active'" json:"employee_email"`
	EmployeeName  string     `gorm:"type:varchar(255)" json:"employee_name"`
	HREmail       string     `gorm:"type:varchar(255);not null;index;uniqueIndex:idx_active_affiliation,where:status = 'active'" json:"hr_email"`
	CompanyName   string     `gorm:"type:varchar(255)" json:"company_name"`
	CompanyLogo   string     `gorm:"type:text" json:"company_logo"`
	Status        string     `gorm:"type:varchar(20);not null;index" json:"status"`
	AffiliatedAt  time.Time  `json:"affiliated_at"`
	RemovedAt     *time.Time `json:"removed_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (a *Affiliation) BeforeCreate(tx *gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
