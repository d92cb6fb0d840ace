package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"assetverse/internal/model"
	"assetverse/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateRequestDTO struct {
	AssetID string `json:"asset_id" binding:"required"`
	Note    string `json:"note"`
}

type RejectRequestDTO struct {
	Reason string `json:"reason"`
}

type RequestFilter struct {
	Status string // pending, approved, rejected, returned; empty or "all" for every status
	Page   int
	Limit  int
}

// ApprovalResult is what an approval changed.
type ApprovalResult struct {
	Request            model.AssetRequest `json:"request"`
	Assignment         model.Assignment   `json:"assignment"`
	AffiliationCreated bool               `json:"affiliation_created"`
}

// --- Interface ---

// RequestService moves asset requests through
// pending -> approved | rejected and approved -> returned,
// keeping inventory, affiliations and assignments consistent with each step.
type RequestService interface {
	CreateRequest(ctx context.Context, requesterEmail string, req CreateRequestDTO) (model.AssetRequest, error)
	ApproveRequest(ctx context.Context, hrEmail, requestID string) (ApprovalResult, error)
	RejectRequest(ctx context.Context, hrEmail, requestID, reason string) (model.AssetRequest, error)
	ReturnAsset(ctx context.Context, employeeEmail, assignmentID string) (model.Assignment, error)
	ListHRRequests(ctx context.Context, hrEmail string, filter RequestFilter) ([]model.AssetRequest, int64, error)
	ListMyRequests(ctx context.Context, requesterEmail string) ([]model.AssetRequest, error)
}

type requestService struct {
	requests     repository.RequestRepository
	assets       repository.AssetRepository
	assignments  repository.AssignmentRepository
	users        repository.UserRepository
	audit        repository.AuditRepository
	affiliations AffiliationService
	txManager    repository.TransactionManager
	log          *zap.Logger
	now          func() time.Time
}

func NewRequestService(
	requests repository.RequestRepository,
	assets repository.AssetRepository,
	assignments repository.AssignmentRepository,
	users repository.UserRepository,
	audit repository.AuditRepository,
	affiliations AffiliationService,
	txManager repository.TransactionManager,
	log *zap.Logger,
) RequestService {
	return &requestService{
		requests:     requests,
		assets:       assets,
		assignments:  assignments,
		users:        users,
		audit:        audit,
		affiliations: affiliations,
		txManager:    txManager,
		log:          log,
		now:          time.Now,
	}
}

// --- Implementation ---

// CreateRequest records a pending request. Stock is not touched here: several
// pending requests may target the last unit and the first approval wins.
func (s *requestService) CreateRequest(ctx context.Context, requesterEmail string, dto CreateRequestDTO) (model.AssetRequest, error) {
	if strings.TrimSpace(dto.AssetID) == "" {
		return model.AssetRequest{}, invalid("asset id is required")
	}
	assetID, err := uuid.Parse(dto.AssetID)
	if err != nil {
		return model.AssetRequest{}, invalid("invalid asset id")
	}

	asset, err := s.assets.FindByID(ctx, assetID)
	if err != nil {
		return model.AssetRequest{}, lookup(err, "asset not found")
	}
	if asset.AvailableQuantity <= 0 {
		return model.AssetRequest{}, invalid("asset not available")
	}

	requester, err := s.users.GetByEmail(ctx, requesterEmail)
	if err != nil {
		return model.AssetRequest{}, lookup(err, "requester not found")
	}

	if _, err := s.requests.FindPending(ctx, requesterEmail, assetID); err == nil {
		return model.AssetRequest{}, conflict("you already have a pending request for this asset")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return model.AssetRequest{}, fmt.Errorf("database error: %w", err)
	}

	request := model.AssetRequest{
		AssetID:        asset.ID,
		AssetName:      asset.Name,
		AssetType:      asset.Type,
		AssetImage:     asset.Image,
		RequesterName:  requester.Name,
		RequesterEmail: requesterEmail,
		HREmail:        asset.HREmail,
		CompanyName:    asset.CompanyName,
		Note:           dto.Note,
		Status:         model.RequestPending,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.requests.Create(txCtx, &request); err != nil {
			// the partial unique index catches a racing duplicate
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return conflict("you already have a pending request for this asset")
			}
			return fmt.Errorf("failed to create request: %w", err)
		}
		details, _ := json.Marshal(map[string]interface{}{
			"asset_id": asset.ID.String(),
			"note":     dto.Note,
		})
		if err := s.audit.Log(txCtx, &model.AuditLog{
			ActorEmail: requesterEmail,
			Action:     model.ActionCreateRequest,
			EntityID:   request.ID.String(),
			EntityName: asset.Name,
			Details:    string(details),
		}); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.AssetRequest{}, err
	}

	s.log.Info("request created",
		zap.String("request_id", request.ID.String()),
		zap.String("asset_id", asset.ID.String()),
		zap.String("requester", requesterEmail))
	return request, nil
}

// ApproveRequest runs the whole approval in one transaction:
//  1. request must belong to hrEmail and be pending
//  2. asset must still have a unit available
//  3. affiliation is created if missing, subject to the HR capacity limit
//  4. request pending -> approved (conditional)
//  5. one unit reserved (conditional)
//  6. assignment inserted
//
// Any failure rolls everything back and leaves the request pending.
func (s *requestService) ApproveRequest(ctx context.Context, hrEmail, requestID string) (ApprovalResult, error) {
	id, err := uuid.Parse(requestID)
	if err != nil {
		return ApprovalResult{}, invalid("invalid request id")
	}

	var result ApprovalResult
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		request, err := s.requests.FindForHR(txCtx, id, hrEmail)
		if err != nil {
			return lookup(err, "request not found")
		}
		if request.Status != model.RequestPending {
			return conflict("request already %s", request.Status)
		}

		asset, err := s.assets.FindByID(txCtx, request.AssetID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: asset no longer available", ErrUnavailable)
			}
			return fmt.Errorf("database error: %w", err)
		}
		if asset.AvailableQuantity <= 0 {
			return fmt.Errorf("%w: asset no longer available", ErrUnavailable)
		}

		created, err := s.affiliations.EnsureAffiliation(txCtx, request.RequesterEmail, hrEmail)
		if err != nil {
			return err
		}
		result.AffiliationCreated = created

		now := s.now()
		moved, err := s.requests.Transition(txCtx, request.ID, model.RequestPending, model.RequestApproved, map[string]interface{}{
			"processed_at": now,
			"processed_by": hrEmail,
		})
		if err != nil {
			return fmt.Errorf("failed to update request: %w", err)
		}
		if !moved {
			return conflict("request already processed")
		}

		reserved, err := s.assets.Reserve(txCtx, asset.ID)
		if err != nil {
			return fmt.Errorf("failed to reserve asset: %w", err)
		}
		if !reserved {
			return fmt.Errorf("%w: asset no longer available", ErrUnavailable)
		}

		companyName := request.CompanyName
		if hr, err := s.users.GetByEmail(txCtx, hrEmail); err == nil && hr.CompanyName != "" {
			companyName = hr.CompanyName
		}

		assignment := model.Assignment{
			AssetID:       request.AssetID,
			RequestID:     &request.ID,
			AssetName:     request.AssetName,
			AssetType:     request.AssetType,
			AssetImage:    request.AssetImage,
			EmployeeEmail: request.RequesterEmail,
			EmployeeName:  request.RequesterName,
			HREmail:       hrEmail,
			CompanyName:   companyName,
			Status:        model.AssignmentAssigned,
			AssignedAt:    now,
		}
		if err := s.assignments.Create(txCtx, &assignment); err != nil {
			return fmt.Errorf("failed to create assignment: %w", err)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"asset_id":      request.AssetID.String(),
			"requester":     request.RequesterEmail,
			"assignment_id": assignment.ID.String(),
		})
		if err := s.audit.Log(txCtx, &model.AuditLog{
			ActorEmail: hrEmail,
			Action:     model.ActionApproveRequest,
			EntityID:   request.ID.String(),
			EntityName: request.AssetName,
			Details:    string(details),
		}); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}

		request.Status = model.RequestApproved
		request.ProcessedAt = &now
		request.ProcessedBy = hrEmail
		result.Request = *request
		result.Assignment = assignment
		return nil
	})
	if err != nil {
		s.log.Warn("approval failed",
			zap.String("request_id", requestID),
			zap.String("hr", hrEmail),
			zap.Error(err))
		return ApprovalResult{}, err
	}

	s.log.Info("request approved",
		zap.String("request_id", requestID),
		zap.String("assignment_id", result.Assignment.ID.String()),
		zap.Bool("affiliation_created", result.AffiliationCreated))
	return result, nil
}

func (s *requestService) RejectRequest(ctx context.Context, hrEmail, requestID, reason string) (model.AssetRequest, error) {
	id, err := uuid.Parse(requestID)
	if err != nil {
		return model.AssetRequest{}, invalid("invalid request id")
	}

	var request *model.AssetRequest
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		found, err := s.requests.FindForHR(txCtx, id, hrEmail)
		if err != nil {
			return lookup(err, "request not found")
		}
		if found.Status != model.RequestPending {
			return conflict("request already %s", found.Status)
		}
		request = found

		now := s.now()
		moved, err := s.requests.Transition(txCtx, id, model.RequestPending, model.RequestRejected, map[string]interface{}{
			"processed_at":     now,
			"processed_by":     hrEmail,
			"rejection_reason": reason,
		})
		if err != nil {
			return fmt.Errorf("failed to update request: %w", err)
		}
		if !moved {
			return conflict("request already processed")
		}

		details, _ := json.Marshal(map[string]interface{}{
			"requester": request.RequesterEmail,
			"reason":    reason,
		})
		if err := s.audit.Log(txCtx, &model.AuditLog{
			ActorEmail: hrEmail,
			Action:     model.ActionRejectRequest,
			EntityID:   request.ID.String(),
			EntityName: request.AssetName,
			Details:    string(details),
		}); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}

		request.Status = model.RequestRejected
		request.ProcessedAt = &now
		request.ProcessedBy = hrEmail
		request.RejectionReason = reason
		return nil
	})
	if err != nil {
		return model.AssetRequest{}, err
	}

	s.log.Info("request rejected", zap.String("request_id", requestID), zap.String("hr", hrEmail))
	return *request, nil
}

// ReturnAsset undoes the inventory half of an approval: the assignment and its
// request become returned and the unit goes back into stock, in one transaction.
func (s *requestService) ReturnAsset(ctx context.Context, employeeEmail, assignmentID string) (model.Assignment, error) {
	id, err := uuid.Parse(assignmentID)
	if err != nil {
		return model.Assignment{}, invalid("invalid assignment id")
	}

	var assignment *model.Assignment
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		found, err := s.assignments.FindForEmployee(txCtx, id, employeeEmail)
		if err != nil {
			return lookup(err, "assignment not found")
		}
		assignment = found
		if assignment.Status != model.AssignmentAssigned {
			return notFound("assignment not found")
		}
		if assignment.AssetType != model.AssetTypeReturnable {
			return fmt.Errorf("%w: this asset is not returnable", ErrInvalidOperation)
		}

		now := s.now()
		moved, err := s.assignments.Transition(txCtx, id, model.AssignmentAssigned, model.AssignmentReturned, map[string]interface{}{
			"returned_at": now,
		})
		if err != nil {
			return fmt.Errorf("failed to update assignment: %w", err)
		}
		if !moved {
			return conflict("assignment already returned")
		}

		released, err := s.assets.Release(txCtx, assignment.AssetID)
		if err != nil {
			return fmt.Errorf("failed to release asset: %w", err)
		}
		if !released {
			// stock already at total_quantity, nothing to put back
			s.log.Warn("release skipped, asset already at total quantity",
				zap.String("asset_id", assignment.AssetID.String()))
		}

		fields := map[string]interface{}{"returned_at": now}
		var closed bool
		if assignment.RequestID != nil {
			closed, err = s.requests.Transition(txCtx, *assignment.RequestID, model.RequestApproved, model.RequestReturned, fields)
		} else {
			closed, err = s.requests.MarkApprovedReturned(txCtx, assignment.AssetID, employeeEmail, fields)
		}
		if err != nil {
			return fmt.Errorf("failed to update request: %w", err)
		}
		if !closed {
			s.log.Warn("no approved request matched returned assignment",
				zap.String("assignment_id", assignmentID))
		}

		details, _ := json.Marshal(map[string]interface{}{
			"asset_id": assignment.AssetID.String(),
			"released": released,
		})
		if err := s.audit.Log(txCtx, &model.AuditLog{
			ActorEmail: employeeEmail,
			Action:     model.ActionReturnAsset,
			EntityID:   assignment.ID.String(),
			EntityName: assignment.AssetName,
			Details:    string(details),
		}); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}

		assignment.Status = model.AssignmentReturned
		assignment.ReturnedAt = &now
		return nil
	})
	if err != nil {
		return model.Assignment{}, err
	}

	s.log.Info("asset returned", zap.String("assignment_id", assignmentID), zap.String("employee", employeeEmail))
	return *assignment, nil
}

func (s *requestService) ListHRRequests(ctx context.Context, hrEmail string, filter RequestFilter) ([]model.AssetRequest, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 10
	}
	status := filter.Status
	if status == "all" {
		status = ""
	}
	switch status {
	case "", model.RequestPending, model.RequestApproved, model.RequestRejected, model.RequestReturned:
	default:
		return nil, 0, invalid("unknown status %q", status)
	}

	requests, total, err := s.requests.ListForHR(ctx, hrEmail, status, filter.Page, filter.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch requests: %w", err)
	}
	return requests, total, nil
}

func (s *requestService) ListMyRequests(ctx context.Context, requesterEmail string) ([]model.AssetRequest, error) {
	requests, err := s.requests.ListByRequester(ctx, requesterEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch requests: %w", err)
	}
	return requests, nil
}
