package service

import (
	"context"

	"backoffice/internal/model"
	"backoffice/internal/repository"
)

// AuditService exposes the audit trail written by the mutating operations.
type AuditService interface {
	List(ctx context.Context, action string, page, limit int) ([]model.AuditLog, int64, error)
}

type auditService struct {
	auditRepo repository.AuditRepository
}

func NewAuditService(auditRepo repository.AuditRepository) AuditService {
	return &auditService{auditRepo: auditRepo}
}

func (s *auditService) List(ctx context.Context, action string, page, limit int) ([]model.AuditLog, int64, error) {
	return s.auditRepo.List(ctx, action, page, limit)
}
