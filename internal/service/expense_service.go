package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"backoffice/internal/model"
	"backoffice/internal/money"
	"backoffice/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreateExpenseRequest struct {
	Title       string  `json:"title" binding:"required"`
	Category    string  `json:"category" binding:"required,oneof=RENT SALARY TRANSPORT OTHER"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Description string  `json:"description"`
	SpentAt     string  `json:"spent_at"` // RFC 3339 date, defaults to now
}

type ExpenseService interface {
	Create(ctx context.Context, userID string, req CreateExpenseRequest) (*model.Expense, error)
	Delete(ctx context.Context, userID string, id string) error
	List(ctx context.Context, category string, page, limit int) ([]model.Expense, int64, error)
}

type expenseService struct {
	expenseRepo repository.ExpenseRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
}

func NewExpenseService(
	expenseRepo repository.ExpenseRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) ExpenseService {
	return &expenseService{expenseRepo: expenseRepo, auditRepo: auditRepo, txManager: txManager}
}

func (s *expenseService) Create(ctx context.Context, userID string, req CreateExpenseRequest) (*model.Expense, error) {
	spentAt := time.Now()
	if req.SpentAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.SpentAt)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid spent_at date", ErrValidation)
		}
		spentAt = parsed
	}

	expense := &model.Expense{
		Title:       req.Title,
		Category:    req.Category,
		Amount:      money.Round(decimal.NewFromFloat(req.Amount)),
		Description: req.Description,
		SpentAt:     spentAt,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.expenseRepo.Create(txCtx, expense); err != nil {
			return fmt.Errorf("failed to create expense: %w", err)
		}

		details, _ := json.Marshal(req)
		audit := &model.AuditLog{
			UserID:     parseUserID(userID),
			Action:     model.ActionCreateExpense,
			EntityID:   expense.ID.String(),
			EntityName: expense.Title,
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
	return expense, nil
}

func (s *expenseService) Delete(ctx context.Context, userID string, id string) error {
	expenseID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("%w: invalid expense id", ErrValidation)
	}

	expense, err := s.expenseRepo.FindByID(ctx, expenseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: expense not found", ErrValidation)
		}
		return fmt.Errorf("database error: %w", err)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.expenseRepo.Delete(txCtx, expenseID); err != nil {
			return fmt.Errorf("failed to delete expense: %w", err)
		}

		audit := &model.AuditLog{
			UserID:     parseUserID(userID),
			Action:     model.ActionDeleteExpense,
			EntityID:   expense.ID.String(),
			EntityName: expense.Title,
			Details:    `{"deleted": true}`,
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
}

func (s *expenseService) List(ctx context.Context, category string, page, limit int) ([]model.Expense, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.expenseRepo.List(ctx, category, page, limit)
}
