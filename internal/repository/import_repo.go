package repository

import (
	"context"
	"errors"

	"backoffice/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ImportRepository interface {
	Create(ctx context.Context, batch *model.ImportBatch) error
	Update(ctx context.Context, batch *model.ImportBatch) error
	UpdateLine(ctx context.Context, line *model.ImportLine) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ImportBatch, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.ImportBatch, error)
	List(ctx context.Context, supplierID *uuid.UUID, status string, page, limit int) ([]model.ImportBatch, int64, error)
	LastBatchNumber(ctx context.Context) (int64, error)
	FindOpenBySupplier(ctx context.Context, supplierID uuid.UUID) ([]model.ImportBatch, error)
	SumBySupplier(ctx context.Context, supplierID uuid.UUID) (total, paid decimal.Decimal, err error)
}

type importRepository struct {
	db *gorm.DB
}

func NewImportRepository(db *gorm.DB) ImportRepository {
	return &importRepository{db: db}
}

func (r *importRepository) Create(ctx context.Context, batch *model.ImportBatch) error {
	return GetDB(ctx, r.db).Create(batch).Error
}

func (r *importRepository) Update(ctx context.Context, batch *model.ImportBatch) error {
	return GetDB(ctx, r.db).Save(batch).Error
}

func (r *importRepository) UpdateLine(ctx context.Context, line *model.ImportLine) error {
	return GetDB(ctx, r.db).Save(line).Error
}

func (r *importRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ImportBatch, error) {
	var batch model.ImportBatch
	if err := GetDB(ctx, r.db).Preload("Lines").Preload("Supplier").
		First(&batch, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &batch, nil
}

func (r *importRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.ImportBatch, error) {
	var batch model.ImportBatch
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: "import_batches"}}).
		Preload("Lines").First(&batch, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &batch, nil
}

func (r *importRepository) List(ctx context.Context, supplierID *uuid.UUID, status string, page, limit int) ([]model.ImportBatch, int64, error) {
	var batches []model.ImportBatch
	var total int64

	query := GetDB(ctx, r.db).Model(&model.ImportBatch{})
	if supplierID != nil {
		query = query.Where("supplier_id = ?", *supplierID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Preload("Lines").Preload("Supplier").
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&batches).Error; err != nil {
		return nil, 0, err
	}

	return batches, total, nil
}

func (r *importRepository) LastBatchNumber(ctx context.Context) (int64, error) {
	var batch model.ImportBatch
	err := GetDB(ctx, r.db).Order("batch_number DESC").First(&batch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return batch.BatchNumber, nil
}

// FindOpenBySupplier returns the supplier's batches with outstanding debt,
// oldest first, locked for update.
func (r *importRepository) FindOpenBySupplier(ctx context.Context, supplierID uuid.UUID) ([]model.ImportBatch, error) {
	var batches []model.ImportBatch
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: "import_batches"}}).
		Preload("Lines").
		Where("supplier_id = ? AND remaining_debt > 0", supplierID).
		Order("created_at ASC").Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

func (r *importRepository) SumBySupplier(ctx context.Context, supplierID uuid.UUID) (decimal.Decimal, decimal.Decimal, error) {
	var res struct {
		Total decimal.Decimal
		Paid  decimal.Decimal
	}
	err := GetDB(ctx, r.db).Model(&model.ImportBatch{}).
		Select("COALESCE(SUM(total_amount), 0) AS total, COALESCE(SUM(paid_amount), 0) AS paid").
		Where("supplier_id = ?", supplierID).
		Scan(&res).Error
	if err != nil {
		return decimal.Decimal{}, decimal.Decimal{}, err
	}
	return res.Total, res.Paid, nil
}
