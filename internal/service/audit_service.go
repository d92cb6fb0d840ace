package service

import (
	"context"

	"assetverse/internal/model"
	"assetverse/internal/repository"
)

type AuditService interface {
	ListAuditLogs(ctx context.Context, actorEmail string, page, limit int) ([]model.AuditLog, int64, error)
}

type auditService struct {
	repo repository.AuditRepository
}

// NewAuditService creates a new AuditService instance
func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

// ListAuditLogs returns the caller's own entries, newest first
func (s *auditService) ListAuditLogs(ctx context.Context, actorEmail string, page, limit int) ([]model.AuditLog, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.repo.ListByActor(ctx, actorEmail, page, limit)
}
