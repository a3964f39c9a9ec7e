package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"backoffice/internal/model"
	"backoffice/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreateAgentRequest struct {
	Name      string `json:"name" binding:"required"`
	Phone     string `json:"phone" binding:"required"`
	Territory string `json:"territory"`
}

type AgentService interface {
	Create(ctx context.Context, userID string, req CreateAgentRequest) (*model.Agent, error)
	Update(ctx context.Context, id string, req CreateAgentRequest) (*model.Agent, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, page, limit int) ([]model.Agent, int64, error)
}

type agentService struct {
	agentRepo repository.AgentRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
}

func NewAgentService(
	agentRepo repository.AgentRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) AgentService {
	return &agentService{agentRepo: agentRepo, auditRepo: auditRepo, txManager: txManager}
}

func (s *agentService) Create(ctx context.Context, userID string, req CreateAgentRequest) (*model.Agent, error) {
	agent := &model.Agent{
		Name:      req.Name,
		Phone:     req.Phone,
		Territory: req.Territory,
		IsActive:  true,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.agentRepo.Create(txCtx, agent); err != nil {
			return fmt.Errorf("failed to create agent: %w", err)
		}

		details, _ := json.Marshal(req)
		audit := &model.AuditLog{
			UserID:     parseUserID(userID),
			Action:     model.ActionCreateAgent,
			EntityID:   agent.ID.String(),
			EntityName: agent.Name,
			Details:    string(details),
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return agent, nil
}

func (s *agentService) Update(ctx context.Context, id string, req CreateAgentRequest) (*model.Agent, error) {
	agentID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid agent id", ErrValidation)
	}

	agent, err := s.agentRepo.FindByID(ctx, agentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: agent not found", ErrValidation)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	agent.Name = req.Name
	agent.Phone = req.Phone
	agent.Territory = req.Territory

	if err := s.agentRepo.Update(ctx, agent); err != nil {
		return nil, fmt.Errorf("failed to update agent: %w", err)
	}
	return agent, nil
}

func (s *agentService) Delete(ctx context.Context, id string) error {
	agentID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("%w: invalid agent id", ErrValidation)
	}
	return s.agentRepo.Delete(ctx, agentID)
}

func (s *agentService) List(ctx context.Context, page, limit int) ([]model.Agent, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.agentRepo.List(ctx, page, limit)
}
