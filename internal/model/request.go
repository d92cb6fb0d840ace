package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Request statuses.
// pending -> approved | rejected, approved -> returned. rejected and returned are terminal.
const (
	RequestPending  = "pending"
	RequestApproved = "approved"
	RequestRejected = "rejected"
	RequestReturned = "returned"
)

// AssetRequest is an employee's request for one unit of an asset.
// AssetName, AssetType, AssetImage and CompanyName are copied from the asset
// when the request is created and are not refreshed afterwards.
type AssetRequest struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	AssetID         uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_pending_request,where:status = 'pending'" json:"asset_id"`
	AssetName       string     `gorm:"type:varchar(255)" json:"asset_name"`
	AssetType       string     `gorm:"type:varchar(20)" json:"asset_type"`
	AssetImage      string     `gorm:"type:text" json:"asset_image"`
	RequesterName   string     `gorm:"type:varchar(255)" json:"requester_name"`
	RequesterEmail  string     `gorm:"type:varchar(255);not null;index;uniqueIndex:idx_pending_request,where:status = 'pending'" json:"requester_email"`
	HREmail         string     `gorm:"type:varchar(255);not null;index" json:"hr_email"`
	CompanyName     string     `gorm:"type:varchar(255)" json:"company_name"`
	Note            string     `gorm:"type:text" json:"note"`
	Status          string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	RejectionReason string     `gorm:"type:text" json:"rejection_reason,omitempty"`
	ProcessedBy     string     `gorm:"type:varchar(255)" json:"processed_by,omitempty"`
	ProcessedAt     *time.Time `json:"processed_at"`
	ReturnedAt      *time.Time `json:"returned_at"`
	CreatedAt       time.Time  `gorm:"index" json:"requested_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (r *AssetRequest) BeforeCreate(tx *gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
