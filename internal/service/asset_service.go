package service

import (
	"context"
	"encoding/json"
	"fmt"

	"assetverse/internal/model"
	"assetverse/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DTOs
type CreateAssetRequest struct {
	Name     string `json:"name" binding:"required"`
	Image    string `json:"image"`
	Type     string `json:"type" binding:"required,oneof=Returnable Non-returnable"`
	Quantity int    `json:"quantity" binding:"required,gt=0"`
}

type UpdateAssetRequest struct {
	Name     string `json:"name"`
	Image    string `json:"image"`
	Type     string `json:"type" binding:"omitempty,oneof=Returnable Non-returnable"`
	Quantity *int   `json:"quantity" binding:"omitempty,gt=0"`
}

type AssetQuery struct {
	Search string
	Type   string
	Page   int
	Limit  int
}

type AssetService interface {
	ListHRAssets(ctx context.Context, hrEmail string, q AssetQuery) ([]model.Asset, int64, error)
	ListAvailable(ctx context.Context, q AssetQuery) ([]model.Asset, int64, error)
	GetAsset(ctx context.Context, id string) (model.Asset, error)
	CreateAsset(ctx context.Context, hrEmail string, req CreateAssetRequest) (model.Asset, error)
	UpdateAsset(ctx context.Context, hrEmail, id string, req UpdateAssetRequest) (model.Asset, error)
	DeleteAsset(ctx context.Context, hrEmail, id string) error
	ListMyAssets(ctx context.Context, employeeEmail, search, assetType string) ([]model.Assignment, error)
}

type assetService struct {
	assets      repository.AssetRepository
	assignments repository.AssignmentRepository
	users       repository.UserRepository
	audit       repository.AuditRepository
	txManager   repository.TransactionManager
	log         *zap.Logger
}

func NewAssetService(
	assets repository.AssetRepository,
	assignments repository.AssignmentRepository,
	users repository.UserRepository,
	audit repository.AuditRepository,
	txManager repository.TransactionManager,
	log *zap.Logger,
) AssetService {
	return &assetService{
		assets:      assets,
		assignments: assignments,
		users:       users,
		audit:       audit,
		txManager:   txManager,
		log:         log,
	}
}

func normalizeQuery(q AssetQuery) (AssetQuery, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = 10
	}
	if q.Type == "all" {
		q.Type = ""
	}
	if q.Type != "" && !model.ValidAssetType(q.Type) {
		return q, invalid("unknown asset type %q", q.Type)
	}
	return q, nil
}

func (s *assetService) ListHRAssets(ctx context.Context, hrEmail string, q AssetQuery) ([]model.Asset, int64, error) {
	q, err := normalizeQuery(q)
	if err != nil {
		return nil, 0, err
	}
	return s.assets.List(ctx, repository.AssetFilter{
		HREmail: hrEmail,
		Search:  q.Search,
		Type:    q.Type,
		Page:    q.Page,
		Limit:   q.Limit,
	})
}

func (s *assetService) ListAvailable(ctx context.Context, q AssetQuery) ([]model.Asset, int64, error) {
	q, err := normalizeQuery(q)
	if err != nil {
		return nil, 0, err
	}
	return s.assets.List(ctx, repository.AssetFilter{
		Search:        q.Search,
		Type:          q.Type,
		AvailableOnly: true,
		Page:          q.Page,
		Limit:         q.Limit,
	})
}

func (s *assetService) GetAsset(ctx context.Context, id string) (model.Asset, error) {
	assetID, err := uuid.Parse(id)
	if err != nil {
		return model.Asset{}, invalid("invalid asset id")
	}
	asset, err := s.assets.FindByID(ctx, assetID)
	if err != nil {
		return model.Asset{}, lookup(err, "asset not found")
	}
	return *asset, nil
}

func (s *assetService) CreateAsset(ctx context.Context, hrEmail string, req CreateAssetRequest) (model.Asset, error) {
	if req.Name == "" {
		return model.Asset{}, invalid("name is required")
	}
	if !model.ValidAssetType(req.Type) {
		return model.Asset{}, invalid("type must be %s or %s", model.AssetTypeReturnable, model.AssetTypeNonReturnable)
	}
	if req.Quantity <= 0 {
		return model.Asset{}, invalid("quantity must be greater than zero")
	}

	hr, err := s.users.GetByEmail(ctx, hrEmail)
	if err != nil {
		return model.Asset{}, lookup(err, "hr user not found")
	}

	asset := model.Asset{
		Name:              req.Name,
		Image:             req.Image,
		Type:              req.Type,
		TotalQuantity:     req.Quantity,
		AvailableQuantity: req.Quantity,
		HREmail:           hrEmail,
		CompanyName:       hr.CompanyName,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.assets.Create(txCtx, &asset); err != nil {
			return fmt.Errorf("failed to create asset: %w", err)
		}
		details, _ := json.Marshal(req)
		return s.audit.Log(txCtx, &model.AuditLog{
			ActorEmail: hrEmail,
			Action:     model.ActionCreateAsset,
			EntityID:   asset.ID.String(),
			EntityName: asset.Name,
			Details:    string(details),
		})
	})
	if err != nil {
		return model.Asset{}, err
	}
	return asset, nil
}

// UpdateAsset edits metadata. A new total quantity shifts available_quantity by
// the same delta, and may not drop below the units currently handed out.
func (s *assetService) UpdateAsset(ctx context.Context, hrEmail, id string, req UpdateAssetRequest) (model.Asset, error) {
	assetID, err := uuid.Parse(id)
	if err != nil {
		return model.Asset{}, invalid("invalid asset id")
	}
	if req.Type != "" && !model.ValidAssetType(req.Type) {
		return model.Asset{}, invalid("unknown asset type %q", req.Type)
	}

	var asset *model.Asset
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		found, err := s.assets.FindByIDForUpdate(txCtx, assetID)
		if err != nil {
			return lookup(err, "asset not found")
		}
		if found.HREmail != hrEmail {
			return notFound("asset not found")
		}
		asset = found

		if req.Name != "" {
			asset.Name = req.Name
		}
		if req.Image != "" {
			asset.Image = req.Image
		}
		if req.Type != "" {
			asset.Type = req.Type
		}
		if req.Quantity != nil {
			if *req.Quantity <= 0 {
				return invalid("quantity must be greater than zero")
			}
			out := asset.TotalQuantity - asset.AvailableQuantity
			if *req.Quantity < out {
				return invalid("quantity %d is below the %d units currently assigned", *req.Quantity, out)
			}
			asset.AvailableQuantity = *req.Quantity - out
			asset.TotalQuantity = *req.Quantity
		}

		if err := s.assets.Update(txCtx, asset); err != nil {
			return fmt.Errorf("failed to update asset: %w", err)
		}
		details, _ := json.Marshal(req)
		return s.audit.Log(txCtx, &model.AuditLog{
			ActorEmail: hrEmail,
			Action:     model.ActionUpdateAsset,
			EntityID:   asset.ID.String(),
			EntityName: asset.Name,
			Details:    string(details),
		})
	})
	if err != nil {
		return model.Asset{}, err
	}
	return *asset, nil
}

func (s *assetService) DeleteAsset(ctx context.Context, hrEmail, id string) error {
	assetID, err := uuid.Parse(id)
	if err != nil {
		return invalid("invalid asset id")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		asset, err := s.assets.FindByID(txCtx, assetID)
		if err != nil {
			return lookup(err, "asset not found")
		}
		if asset.HREmail != hrEmail {
			return notFound("asset not found")
		}
		if err := s.assets.Delete(txCtx, assetID); err != nil {
			return fmt.Errorf("failed to delete asset: %w", err)
		}
		s.log.Info("asset deleted", zap.String("asset_id", id), zap.String("hr", hrEmail))
		return s.audit.Log(txCtx, &model.AuditLog{
			ActorEmail: hrEmail,
			Action:     model.ActionDeleteAsset,
			EntityID:   asset.ID.String(),
			EntityName: asset.Name,
			Details:    `{"deleted": true}`,
		})
	})
}

func (s *assetService) ListMyAssets(ctx context.Context, employeeEmail, search, assetType string) ([]model.Assignment, error) {
	if assetType == "all" {
		assetType = ""
	}
	return s.assignments.List(ctx, repository.AssignmentFilter{
		EmployeeEmail: employeeEmail,
		Search:        search,
		Type:          assetType,
		Status:        model.AssignmentAssigned,
	})
}
