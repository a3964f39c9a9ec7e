package repository

import (
	"context"

	"backoffice/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PartyRepository interface {
	Create(ctx context.Context, party *model.Party) error
	Update(ctx context.Context, party *model.Party) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Party, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Party, error)
	FindByPhone(ctx context.Context, phone string) (*model.Party, error)
	List(ctx context.Context, partyType, search string, page, limit int) ([]model.Party, int64, error)
	AddPayment(ctx context.Context, payment *model.Payment) error
	ListPayments(ctx context.Context, partyID uuid.UUID) ([]model.Payment, error)
}

type partyRepository struct {
	db *gorm.DB
}

func NewPartyRepository(db *gorm.DB) PartyRepository {
	return &partyRepository{db: db}
}

func (r *partyRepository) Create(ctx context.Context, party *model.Party) error {
	return GetDB(ctx, r.db).Create(party).Error
}

func (r *partyRepository) Update(ctx context.Context, party *model.Party) error {
	return GetDB(ctx, r.db).Save(party).Error
}

func (r *partyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Party{}).Error
}

func (r *partyRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Party, error) {
	var party model.Party
	if err := GetDB(ctx, r.db).First(&party, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &party, nil
}

// FindByIDForUpdate locks the party row for the duration of the surrounding
// transaction so concurrent payments cannot double-credit the balance.
func (r *partyRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Party, error) {
	var party model.Party
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&party).Error; err != nil {
		return nil, err
	}
	return &party, nil
}

func (r *partyRepository) FindByPhone(ctx context.Context, phone string) (*model.Party, error) {
	var party model.Party
	if err := GetDB(ctx, r.db).Where("phone = ?", phone).First(&party).Error; err != nil {
		return nil, err
	}
	return &party, nil
}

func (r *partyRepository) List(ctx context.Context, partyType, search string, page, limit int) ([]model.Party, int64, error) {
	var parties []model.Party
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Party{})
	if partyType != "" {
		query = query.Where("type = ?", partyType)
	}
	if search != "" {
		query = query.Where("name ILIKE ? OR phone ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&parties).Error; err != nil {
		return nil, 0, err
	}

	return parties, total, nil
}

func (r *partyRepository) AddPayment(ctx context.Context, payment *model.Payment) error {
	return GetDB(ctx, r.db).Create(payment).Error
}

func (r *partyRepository) ListPayments(ctx context.Context, partyID uuid.UUID) ([]model.Payment, error) {
	var payments []model.Payment
	if err := GetDB(ctx, r.db).Where("party_id = ?", partyID).
		Order("created_at DESC").Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}
