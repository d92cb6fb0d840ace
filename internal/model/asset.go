package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Asset types. Only Returnable assets can travel back into inventory.
const (
	AssetTypeReturnable    = "Returnable"
	AssetTypeNonReturnable = "Non-returnable"
)

// Asset is an inventory line owned by one HR account.
// 0 <= AvailableQuantity <= TotalQuantity holds at all times.
type Asset struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name              string         `gorm:"type:varchar(255);not null" json:"name"`
	Image             string         `gorm:"type:text" json:"image"`
	Type              string         `gorm:"type:varchar(20);not null;index" json:"type"`
	TotalQuantity     int            `gorm:"type:int;not null" json:"total_quantity"`
	AvailableQuantity int            `gorm:"type:int;not null" json:"available_quantity"`
	HREmail           string         `gorm:"type:varchar(255);not null;index" json:"hr_email"`
	CompanyName       string         `gorm:"type:varchar(255)" json:"company_name"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

func (a *Asset) BeforeCreate(tx *gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

func (a *Asset) IsReturnable() bool {
	return a.Type == AssetTypeReturnable
}

func ValidAssetType(t string) bool {
	return t == AssetTypeReturnable || t == AssetTypeNonReturnable
}
