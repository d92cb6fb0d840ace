package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Roles carried in the JWT and stored on the user row
const (
	RoleHR       = "hr"
	RoleEmployee = "employee"
)

const (
	DefaultCapacityLimit = 5
	DefaultSubscription  = "basic"
	DefaultProfileImage  = "https://i.ibb.co/hL3hMHY/default-avatar.png"
)

// User is either an HR manager (owns assets, approves requests, holds a capacity quota)
// or an employee (requests assets, gets affiliated to HR accounts on approval).
type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string     `gorm:"type:varchar(255);not null" json:"name"`
	Email        string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password     string     `gorm:"type:varchar(255);not null" json:"-"`
	Role         string     `gorm:"type:varchar(20);not null;index" json:"role"`
	DateOfBirth  *time.Time `json:"date_of_birth"`
	ProfileImage string     `gorm:"type:text" json:"profile_image"`

	// HR only
	CompanyName           string `gorm:"type:varchar(255)" json:"company_name,omitempty"`
	CompanyLogo           string `gorm:"type:text" json:"company_logo,omitempty"`
	CapacityLimit         int    `gorm:"type:int;not null;default:0" json:"capacity_limit"`
	CurrentAffiliateCount int    `gorm:"type:int;not null;default:0" json:"current_affiliate_count"`
	Subscription          string `gorm:"type:varchar(50)" json:"subscription,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	ensureID(&u.ID)
	return nil
}

func (u *User) IsHR() bool {
	return u.Role == RoleHR
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
