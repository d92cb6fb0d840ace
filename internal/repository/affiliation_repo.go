package repository

import (
	"context"
	"strings"
	"time"

	"assetverse/internal/model"

	"gorm.io/gorm"
)

type AffiliationRepository interface {
	Create(ctx context.Context, aff *model.Affiliation) error
	FindActive(ctx context.Context, employeeEmail, hrEmail string) (*model.Affiliation, error)
	CountActive(ctx context.Context, hrEmail string) (int64, error)
	Deactivate(ctx context.Context, employeeEmail, hrEmail string, at time.Time) (bool, error)
	ListActiveByEmployee(ctx context.Context, employeeEmail string) ([]model.Affiliation, error)
	ListActiveByHR(ctx context.Context, hrEmail string) ([]model.Affiliation, error)
	ListActiveByHRPaged(ctx context.Context, hrEmail, search string, page, limit int) ([]model.Affiliation, int64, error)
}

type affiliationRepository struct {
	db *gorm.DB
}

func NewAffiliationRepository(db *gorm.DB) AffiliationRepository {
	return &affiliationRepository{db: db}
}

func (r *affiliationRepository) Create(ctx context.Context, aff *model.Affiliation) error {
	return GetDB(ctx, r.db).Create(aff).Error
}

func (r *affiliationRepository) FindActive(ctx context.Context, employeeEmail, hrEmail string) (*model.Affiliation, error) {
	var aff model.Affiliation
	if err := GetDB(ctx, r.db).
		Where("employee_email = ? AND hr_email = ? AND status = ?", employeeEmail, hrEmail, model.AffiliationActive).
		First(&aff).Error; err != nil {
		return nil, err
	}
	return &aff, nil
}

func (r *affiliationRepository) CountActive(ctx context.Context, hrEmail string) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Affiliation{}).
		Where("hr_email = ? AND status = ?", hrEmail, model.AffiliationActive).
		Count(&count).Error
	return count, err
}

func (r *affiliationRepository) Deactivate(ctx context.Context, employeeEmail, hrEmail string, at time.Time) (bool, error) {
	res := GetDB(ctx, r.db).Model(&model.Affiliation{}).
		Where("employee_email = ? AND hr_email = ? AND status = ?", employeeEmail, hrEmail, model.AffiliationActive).
		Updates(map[string]interface{}{
			"status":     model.AffiliationInactive,
			"removed_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *affiliationRepository) ListActiveByEmployee(ctx context.Context, employeeEmail string) ([]model.Affiliation, error) {
	var affs []model.Affiliation
	err := GetDB(ctx, r.db).
		Where("employee_email = ? AND status = ?", employeeEmail, model.AffiliationActive).
		Order("affiliated_at desc").
		Find(&affs).Error
	return affs, err
}

func (r *affiliationRepository) ListActiveByHR(ctx context.Context, hrEmail string) ([]model.Affiliation, error) {
	var affs []model.Affiliation
	err := GetDB(ctx, r.db).
		Where("hr_email = ? AND status = ?", hrEmail, model.AffiliationActive).
		Order("affiliated_at asc").
		Find(&affs).Error
	return affs, err
}

func (r *affiliationRepository) ListActiveByHRPaged(ctx context.Context, hrEmail, search string, page, limit int) ([]model.Affiliation, int64, error) {
	var affs []model.Affiliation
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Affiliation{}).
		Where("hr_email = ? AND status = ?", hrEmail, model.AffiliationActive)
	if search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(employee_name) LIKE ? OR LOWER(employee_email) LIKE ?", like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("affiliated_at desc").Offset(offset(page, limit)).Limit(limit).Find(&affs).Error; err != nil {
		return nil, 0, err
	}
	return affs, total, nil
}
