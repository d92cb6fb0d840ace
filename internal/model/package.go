package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Package is a subscription tier that sets an HR account's capacity limit.
type Package struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name          string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	EmployeeLimit int             `gorm:"type:int;not null" json:"employee_limit"`
	Price         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Features      string          `gorm:"type:text" json:"features"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (p *Package) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

const PaymentCompleted = "completed"

// Payment is the record of a confirmed package upgrade.
type Payment struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	HREmail       string          `gorm:"type:varchar(255);not null;index" json:"hr_email"`
	PackageName   string          `gorm:"type:varchar(50);not null" json:"package_name"`
	EmployeeLimit int             `gorm:"type:int;not null" json:"employee_limit"`
	Amount        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	TransactionID string          `gorm:"type:varchar(255);uniqueIndex;not null" json:"transaction_id"`
	Status        string          `gorm:"type:varchar(20);not null" json:"status"`
	PaidAt        time.Time       `json:"paid_at"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
