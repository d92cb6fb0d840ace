package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActionCreateAsset    = "CREATE_ASSET"
	ActionUpdateAsset    = "UPDATE_ASSET"
	ActionDeleteAsset    = "DELETE_ASSET"
	ActionCreateRequest  = "CREATE_REQUEST"
	ActionApproveRequest = "APPROVE_REQUEST"
	ActionRejectRequest  = "REJECT_REQUEST"
	ActionReturnAsset    = "RETURN_ASSET"
	ActionAffiliate      = "AFFILIATE_EMPLOYEE"
	ActionRemoveEmployee = "REMOVE_EMPLOYEE"
	ActionUpgradePackage = "UPGRADE_PACKAGE"
)

// AuditLog tracks who changed what, written in the same transaction as the change
type AuditLog struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ActorEmail string    `gorm:"type:varchar(255);index" json:"actor_email"`
	Action     string    `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string    `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string    `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string    `gorm:"type:text" json:"details"` // serialized JSON payload
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
