package repository

import (
	"assetverse/internal/model"
	"context"

	"gorm.io/gorm"
)

// UserRepository defines data access for HR and employee accounts
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetHRForUpdate(ctx context.Context, email string) (*model.User, error)
	ListByEmails(ctx context.Context, emails []string) ([]model.User, error)
	UpdateProfile(ctx context.Context, email string, fields map[string]interface{}) error
	UpdateCapacity(ctx context.Context, email string, limit int, subscription string) error
	IncrementAffiliateCount(ctx context.Context, email string) error
	DecrementAffiliateCount(ctx context.Context, email string) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new instance of UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return GetDB(ctx, r.db).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetHRForUpdate locks the HR row so quota checks for the same account serialize.
func (r *userRepository) GetHRForUpdate(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := forUpdate(GetDB(ctx, r.db)).
		Where("email = ? AND role = ?", email, model.RoleHR).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) ListByEmails(ctx context.Context, emails []string) ([]model.User, error) {
	var users []model.User
	if len(emails) == 0 {
		return users, nil
	}
	if err := GetDB(ctx, r.db).Where("email IN ?", emails).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, email string, fields map[string]interface{}) error {
	return GetDB(ctx, r.db).Model(&model.User{}).Where("email = ?", email).Updates(fields).Error
}

func (r *userRepository) UpdateCapacity(ctx context.Context, email string, limit int, subscription string) error {
	return GetDB(ctx, r.db).Model(&model.User{}).
		Where("email = ? AND role = ?", email, model.RoleHR).
		Updates(map[string]interface{}{
			"capacity_limit": limit,
			"subscription":   subscription,
		}).Error
}

func (r *userRepository) IncrementAffiliateCount(ctx context.Context, email string) error {
	return GetDB(ctx, r.db).Model(&model.User{}).
		Where("email = ?", email).
		Update("current_affiliate_count", gorm.Expr("current_affiliate_count + 1")).Error
}

// DecrementAffiliateCount never takes the counter below zero.
func (r *userRepository) DecrementAffiliateCount(ctx context.Context, email string) error {
	return GetDB(ctx, r.db).Model(&model.User{}).
		Where("email = ? AND current_affiliate_count > 0", email).
		Update("current_affiliate_count", gorm.Expr("current_affiliate_count - 1")).Error
}
