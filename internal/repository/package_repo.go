package repository

import (
	"context"

	"assetverse/internal/model"

	"gorm.io/gorm"
)

type PackageRepository interface {
	List(ctx context.Context) ([]model.Package, error)
	FindByName(ctx context.Context, name string) (*model.Package, error)
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, pkg *model.Package) error
	CreatePayment(ctx context.Context, p *model.Payment) error
	ListPayments(ctx context.Context, hrEmail string) ([]model.Payment, error)
}

type packageRepository struct {
	db *gorm.DB
}

func NewPackageRepository(db *gorm.DB) PackageRepository {
	return &packageRepository{db: db}
}

func (r *packageRepository) List(ctx context.Context) ([]model.Package, error) {
	var pkgs []model.Package
	err := GetDB(ctx, r.db).Order("price asc").Find(&pkgs).Error
	return pkgs, err
}

func (r *packageRepository) FindByName(ctx context.Context, name string) (*model.Package, error) {
	var pkg model.Package
	if err := GetDB(ctx, r.db).Where("LOWER(name) = LOWER(?)", name).First(&pkg).Error; err != nil {
		return nil, err
	}
	return &pkg, nil
}

func (r *packageRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := GetDB(ctx, r.db).Model(&model.Package{}).Count(&n).Error
	return n, err
}

func (r *packageRepository) Create(ctx context.Context, pkg *model.Package) error {
	return GetDB(ctx, r.db).Create(pkg).Error
}

func (r *packageRepository) CreatePayment(ctx context.Context, p *model.Payment) error {
	return GetDB(ctx, r.db).Create(p).Error
}

func (r *packageRepository) ListPayments(ctx context.Context, hrEmail string) ([]model.Payment, error) {
	var out []model.Payment
	err := GetDB(ctx, r.db).Where("hr_email = ?", hrEmail).Order("paid_at desc").Find(&out).Error
	return out, err
}
