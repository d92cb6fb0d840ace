package repository

import (
	"context"
	"strings"

	"assetverse/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AssignmentFilter struct {
	EmployeeEmail string
	Search        string
	Type          string
	Status        string
}

type AssignmentRepository interface {
	Create(ctx context.Context, a *model.Assignment) error
	FindForEmployee(ctx context.Context, id uuid.UUID, employeeEmail string) (*model.Assignment, error)
	Transition(ctx context.Context, id uuid.UUID, from, to string, fields map[string]interface{}) (bool, error)
	List(ctx context.Context, filter AssignmentFilter) ([]model.Assignment, error)
	CountAssigned(ctx context.Context, employeeEmail, hrEmail string) (int64, error)
}

type assignmentRepository struct {
	db *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) Create(ctx context.Context, a *model.Assignment) error {
	return GetDB(ctx, r.db).Create(a).Error
}

func (r *assignmentRepository) FindForEmployee(ctx context.Context, id uuid.UUID, employeeEmail string) (*model.Assignment, error) {
	var a model.Assignment
	if err := GetDB(ctx, r.db).
		Where("id = ? AND employee_email = ?", id, employeeEmail).
		First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assignmentRepository) Transition(ctx context.Context, id uuid.UUID, from, to string, fields map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{"status": to}
	for k, v := range fields {
		updates[k] = v
	}
	res := GetDB(ctx, r.db).Model(&model.Assignment{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *assignmentRepository) List(ctx context.Context, filter AssignmentFilter) ([]model.Assignment, error) {
	var out []model.Assignment
	query := GetDB(ctx, r.db).Model(&model.Assignment{})
	if filter.EmployeeEmail != "" {
		query = query.Where("employee_email = ?", filter.EmployeeEmail)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		query = query.Where("LOWER(asset_name) LIKE ?", "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.Type != "" {
		query = query.Where("asset_type = ?", filter.Type)
	}
	if err := query.Order("assigned_at desc").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *assignmentRepository) CountAssigned(ctx context.Context, employeeEmail, hrEmail string) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Assignment{}).
		Where("employee_email = ? AND hr_email = ? AND status = ?", employeeEmail, hrEmail, model.AssignmentAssigned).
		Count(&count).Error
	return count, err
}
