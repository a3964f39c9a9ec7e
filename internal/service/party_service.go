package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"backoffice/internal/model"
	"backoffice/internal/money"
	"backoffice/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreatePartyRequest struct {
	Name    string `json:"name" binding:"required"`
	Type    string `json:"type" binding:"required,oneof=SUPPLIER CUSTOMER BOTH"`
	Phone   string `json:"phone" binding:"required"`
	Address string `json:"address"`
}

type UpdatePartyRequest struct {
	Name    string `json:"name" binding:"required"`
	Phone   string `json:"phone" binding:"required"`
	Address string `json:"address"`
}

type PartyResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	TotalOwed string `json:"total_owed"`
	TotalPaid string `json:"total_paid"`
	TotalDebt string `json:"total_debt"`
}

func toPartyResponse(party *model.Party) PartyResponse {
	return PartyResponse{
		ID:        party.ID.String(),
		Name:      party.Name,
		Type:      party.Type,
		Phone:     party.Phone,
		Address:   party.Address,
		TotalOwed: party.TotalOwed.StringFixed(money.Places),
		TotalPaid: party.TotalPaid.StringFixed(money.Places),
		TotalDebt: party.TotalDebt.StringFixed(money.Places),
	}
}

type PartyService interface {
	Create(ctx context.Context, userID string, req CreatePartyRequest) (PartyResponse, error)
	Update(ctx context.Context, userID string, id string, req UpdatePartyRequest) (PartyResponse, error)
	Delete(ctx context.Context, userID string, id string) error
	GetByID(ctx context.Context, id string) (PartyResponse, error)
	List(ctx context.Context, partyType, search string, page, limit int) ([]PartyResponse, int64, error)
	ListPayments(ctx context.Context, id string) ([]model.Payment, error)
}

type partyService struct {
	partyRepo repository.PartyRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
}

func NewPartyService(
	partyRepo repository.PartyRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) PartyService {
	return &partyService{partyRepo: partyRepo, auditRepo: auditRepo, txManager: txManager}
}

func (s *partyService) Create(ctx context.Context, userID string, req CreatePartyRequest) (PartyResponse, error) {
	phone := strings.TrimSpace(req.Phone)

	// existing phone returns the existing party, matching how the import and
	// sale flows look parties up
	if existing, err := s.partyRepo.FindByPhone(ctx, phone); err == nil {
		return toPartyResponse(existing), nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return PartyResponse{}, fmt.Errorf("failed to look up party: %w", err)
	}

	party := &model.Party{
		Name:    strings.TrimSpace(req.Name),
		Type:    req.Type,
		Phone:   phone,
		Address: strings.TrimSpace(req.Address),
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.partyRepo.Create(txCtx, party); err != nil {
			return fmt.Errorf("failed to create party: %w", err)
		}

		details, _ := json.Marshal(req)
		audit := &model.AuditLog{
			UserID:     parseUserID(userID),
			Action:     model.ActionCreateParty,
			EntityID:   party.ID.String(),
			EntityName: party.Name,
			Details:    string(details),
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return PartyResponse{}, err
	}

	return toPartyResponse(party), nil
}

func (s *partyService) Update(ctx context.Context, userID string, id string, req UpdatePartyRequest) (PartyResponse, error) {
	partyID, err := uuid.Parse(id)
	if err != nil {
		return PartyResponse{}, fmt.Errorf("%w: invalid party id", ErrValidation)
	}

	party, err := s.partyRepo.FindByID(ctx, partyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PartyResponse{}, fmt.Errorf("%w: party not found", ErrValidation)
		}
		return PartyResponse{}, fmt.Errorf("database error: %w", err)
	}

	party.Name = strings.TrimSpace(req.Name)
	party.Phone = strings.TrimSpace(req.Phone)
	party.Address = strings.TrimSpace(req.Address)

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.partyRepo.Update(txCtx, party); err != nil {
			return fmt.Errorf("failed to update party: %w", err)
		}

		details, _ := json.Marshal(req)
		audit := &model.AuditLog{
			UserID:     parseUserID(userID),
			Action:     model.ActionUpdateParty,
			EntityID:   party.ID.String(),
			EntityName: party.Name,
			Details:    string(details),
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return PartyResponse{}, err
	}

	return toPartyResponse(party), nil
}

func (s *partyService) Delete(ctx context.Context, userID string, id string) error {
	partyID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("%w: invalid party id", ErrValidation)
	}

	party, err := s.partyRepo.FindByID(ctx, partyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: party not found", ErrValidation)
		}
		return fmt.Errorf("database error: %w", err)
	}

	if party.TotalDebt.IsPositive() {
		return fmt.Errorf("%w: party still owes %s", ErrValidation, party.TotalDebt.StringFixed(money.Places))
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.partyRepo.Delete(txCtx, partyID); err != nil {
			return fmt.Errorf("failed to delete party: %w", err)
		}

		audit := &model.AuditLog{
			UserID:     parseUserID(userID),
			Action:     model.ActionDeleteParty,
			EntityID:   party.ID.String(),
			EntityName: party.Name,
			Details:    `{"deleted": true}`,
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
}

func (s *partyService) GetByID(ctx context.Context, id string) (PartyResponse, error) {
	partyID, err := uuid.Parse(id)
	if err != nil {
		return PartyResponse{}, fmt.Errorf("%w: invalid party id", ErrValidation)
	}

	party, err := s.partyRepo.FindByID(ctx, partyID)
	if err != nil {
		return PartyResponse{}, err
	}
	return toPartyResponse(party), nil
}

func (s *partyService) List(ctx context.Context, partyType, search string, page, limit int) ([]PartyResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	parties, total, err := s.partyRepo.List(ctx, partyType, search, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]PartyResponse, 0, len(parties))
	for i := range parties {
		res = append(res, toPartyResponse(&parties[i]))
	}
	return res, total, nil
}

func (s *partyService) ListPayments(ctx context.Context, id string) ([]model.Payment, error) {
	partyID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid party id", ErrValidation)
	}
	return s.partyRepo.ListPayments(ctx, partyID)
}
