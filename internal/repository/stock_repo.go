package repository

import (
	"context"

	"backoffice/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductSummary aggregates warehouse lines by product name.
type ProductSummary struct {
	ProductName   string `json:"product_name"`
	Unit          string `json:"unit"`
	TotalQuantity int64  `json:"total_quantity"`
	LineCount     int64  `json:"line_count"`
}

type StockRepository interface {
	CreateLines(ctx context.Context, lines []model.StockLine) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.StockLine, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.StockLine, error)
	UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int) error
	List(ctx context.Context, search string, page, limit int) ([]model.StockLine, int64, error)
	ListByImportBatch(ctx context.Context, importBatchID uuid.UUID) ([]model.StockLine, error)
	GroupedByProduct(ctx context.Context) ([]ProductSummary, error)
	RecordMovement(ctx context.Context, movement *model.StockMovement) error
	ListMovements(ctx context.Context, stockLineID uuid.UUID, page, limit int) ([]model.StockMovement, int64, error)
}

type stockRepository struct {
	db *gorm.DB
}

func NewStockRepository(db *gorm.DB) StockRepository {
	return &stockRepository{db: db}
}

func (r *stockRepository) CreateLines(ctx context.Context, lines []model.StockLine) error {
	if len(lines) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).Create(&lines).Error
}

func (r *stockRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.StockLine, error) {
	var line model.StockLine
	if err := GetDB(ctx, r.db).First(&line, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &line, nil
}

// FindByIDForUpdate locks the stock row so two concurrent sales cannot
// over-reserve the same line.
func (r *stockRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.StockLine, error) {
	var line model.StockLine
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&line).Error; err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *stockRepository) UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int) error {
	return GetDB(ctx, r.db).Model(&model.StockLine{}).Where("id = ?", id).
		Update("quantity", quantity).Error
}

func (r *stockRepository) List(ctx context.Context, search string, page, limit int) ([]model.StockLine, int64, error) {
	var lines []model.StockLine
	var total int64

	query := GetDB(ctx, r.db).Model(&model.StockLine{})
	if search != "" {
		query = query.Where("product_name ILIKE ?", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Preload("Supplier").
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&lines).Error; err != nil {
		return nil, 0, err
	}

	return lines, total, nil
}

func (r *stockRepository) ListByImportBatch(ctx context.Context, importBatchID uuid.UUID) ([]model.StockLine, error) {
	var lines []model.StockLine
	if err := GetDB(ctx, r.db).Where("import_batch_id = ?", importBatchID).
		Order("created_at ASC").Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *stockRepository) GroupedByProduct(ctx context.Context) ([]ProductSummary, error) {
	var summaries []ProductSummary
	err := GetDB(ctx, r.db).Model(&model.StockLine{}).
		Select("product_name, unit, SUM(quantity) AS total_quantity, COUNT(*) AS line_count").
		Group("product_name, unit").
		Order("product_name ASC").
		Scan(&summaries).Error
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

func (r *stockRepository) RecordMovement(ctx context.Context, movement *model.StockMovement) error {
	return GetDB(ctx, r.db).Create(movement).Error
}

func (r *stockRepository) ListMovements(ctx context.Context, stockLineID uuid.UUID, page, limit int) ([]model.StockMovement, int64, error) {
	var movements []model.StockMovement
	var total int64

	query := GetDB(ctx, r.db).Model(&model.StockMovement{}).Where("stock_line_id = ?", stockLineID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&movements).Error; err != nil {
		return nil, 0, err
	}

	return movements, total, nil
}
