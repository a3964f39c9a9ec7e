package repository

import (
	"context"
	"time"

	"backoffice/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SaleRepository interface {
	Create(ctx context.Context, sale *model.Sale) error
	Update(ctx context.Context, sale *model.Sale) error
	AddPaymentEntry(ctx context.Context, entry *model.PaymentEntry) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	List(ctx context.Context, customerID *uuid.UUID, page, limit int) ([]model.Sale, int64, error)
	ListDebtors(ctx context.Context, page, limit int) ([]model.Sale, int64, error)
	CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error)
	FindOpenByCustomer(ctx context.Context, customerID uuid.UUID) ([]model.Sale, error)
	SumByCustomer(ctx context.Context, customerID uuid.UUID) (total, paid decimal.Decimal, err error)
}

type saleRepository struct {
	db *gorm.DB
}

func NewSaleRepository(db *gorm.DB) SaleRepository {
	return &saleRepository{db: db}
}

func (r *saleRepository) Create(ctx context.Context, sale *model.Sale) error {
	return GetDB(ctx, r.db).Create(sale).Error
}

func (r *saleRepository) Update(ctx context.Context, sale *model.Sale) error {
	return GetDB(ctx, r.db).Omit("Lines", "Payments", "Customer", "Agent").Save(sale).Error
}

func (r *saleRepository) AddPaymentEntry(ctx context.Context, entry *model.PaymentEntry) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *saleRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var sale model.Sale
	if err := GetDB(ctx, r.db).
		Preload("Lines").
		Preload("Payments").
		Preload("Customer").
		Preload("Agent").
		First(&sale, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *saleRepository) List(ctx context.Context, customerID *uuid.UUID, page, limit int) ([]model.Sale, int64, error) {
	var sales []model.Sale
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Sale{})
	if customerID != nil {
		query = query.Where("customer_id = ?", *customerID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Preload("Lines").Preload("Customer").
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&sales).Error; err != nil {
		return nil, 0, err
	}

	return sales, total, nil
}

func (r *saleRepository) ListDebtors(ctx context.Context, page, limit int) ([]model.Sale, int64, error) {
	var sales []model.Sale
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Sale{}).Where("remaining_debt > 0")
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Preload("Lines").Preload("Customer").
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&sales).Error; err != nil {
		return nil, 0, err
	}

	return sales, total, nil
}

func (r *saleRepository) CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Sale{}).
		Where("created_at >= ? AND created_at < ?", from, to).
		Count(&count).Error
	return count, err
}

// FindOpenByCustomer returns the customer's sales with outstanding debt,
// oldest first, locked for update.
func (r *saleRepository) FindOpenByCustomer(ctx context.Context, customerID uuid.UUID) ([]model.Sale, error) {
	var sales []model.Sale
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: "sales"}}).
		Where("customer_id = ? AND remaining_debt > 0", customerID).
		Order("created_at ASC").Find(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}

func (r *saleRepository) SumByCustomer(ctx context.Context, customerID uuid.UUID) (decimal.Decimal, decimal.Decimal, error) {
	var res struct {
		Total decimal.Decimal
		Paid  decimal.Decimal
	}
	err := GetDB(ctx, r.db).Model(&model.Sale{}).
		Select("COALESCE(SUM(total_amount), 0) AS total, COALESCE(SUM(paid_amount), 0) AS paid").
		Where("customer_id = ?", customerID).
		Scan(&res).Error
	if err != nil {
		return decimal.Decimal{}, decimal.Decimal{}, err
	}
	return res.Total, res.Paid, nil
}
