package repository

import (
	"context"
	"errors"

	"assetverse/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RequestRepository interface {
	Create(ctx context.Context, req *model.AssetRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.AssetRequest, error)
	FindForHR(ctx context.Context, id uuid.UUID, hrEmail string) (*model.AssetRequest, error)
	FindPending(ctx context.Context, requesterEmail string, assetID uuid.UUID) (*model.AssetRequest, error)
	Transition(ctx context.Context, id uuid.UUID, from, to string, fields map[string]interface{}) (bool, error)
	MarkApprovedReturned(ctx context.Context, assetID uuid.UUID, requesterEmail string, fields map[string]interface{}) (bool, error)
	ListForHR(ctx context.Context, hrEmail, status string, page, limit int) ([]model.AssetRequest, int64, error)
	ListByRequester(ctx context.Context, requesterEmail string) ([]model.AssetRequest, error)
}

type requestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(ctx context.Context, req *model.AssetRequest) error {
	return GetDB(ctx, r.db).Create(req).Error
}

func (r *requestRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.AssetRequest, error) {
	var req model.AssetRequest
	if err := GetDB(ctx, r.db).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) FindForHR(ctx context.Context, id uuid.UUID, hrEmail string) (*model.AssetRequest, error) {
	var req model.AssetRequest
	if err := GetDB(ctx, r.db).Where("id = ? AND hr_email = ?", id, hrEmail).First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) FindPending(ctx context.Context, requesterEmail string, assetID uuid.UUID) (*model.AssetRequest, error) {
	var req model.AssetRequest
	if err := GetDB(ctx, r.db).
		Where("requester_email = ? AND asset_id = ? AND status = ?", requesterEmail, assetID, model.RequestPending).
		First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// Transition moves a request from one status to another only if it is still in
// `from`. It reports false when another writer got there first.
func (r *requestRepository) Transition(ctx context.Context, id uuid.UUID, from, to string, fields map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{"status": to}
	for k, v := range fields {
		updates[k] = v
	}
	res := GetDB(ctx, r.db).Model(&model.AssetRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// MarkApprovedReturned closes the approved request for an asset/requester pair.
// Used for assignments that predate the request_id link.
func (r *requestRepository) MarkApprovedReturned(ctx context.Context, assetID uuid.UUID, requesterEmail string, fields map[string]interface{}) (bool, error) {
	var req model.AssetRequest
	err := GetDB(ctx, r.db).
		Where("asset_id = ? AND requester_email = ? AND status = ?", assetID, requesterEmail, model.RequestApproved).
		Order("processed_at asc").
		First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return r.Transition(ctx, req.ID, model.RequestApproved, model.RequestReturned, fields)
}

func (r *requestRepository) ListForHR(ctx context.Context, hrEmail, status string, page, limit int) ([]model.AssetRequest, int64, error) {
	var requests []model.AssetRequest
	var total int64

	query := GetDB(ctx, r.db).Model(&model.AssetRequest{}).Where("hr_email = ?", hrEmail)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("created_at DESC").Offset(offset(page, limit)).Limit(limit).Find(&requests).Error; err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

func (r *requestRepository) ListByRequester(ctx context.Context, requesterEmail string) ([]model.AssetRequest, error) {
	var requests []model.AssetRequest
	if err := GetDB(ctx, r.db).
		Where("requester_email = ?", requesterEmail).
		Order("created_at DESC").
		Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}
