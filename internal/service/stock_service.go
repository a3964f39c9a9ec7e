package service

import (
	"context"
	"fmt"

	"backoffice/internal/model"
	"backoffice/internal/money"
	"backoffice/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockLineResponse is the warehouse view of a line.
type StockLineResponse struct {
	ID            string `json:"id"`
	ProductName   string `json:"product_name"`
	Unit          string `json:"unit"`
	Quantity      int    `json:"quantity"`
	UnitCost      string `json:"unit_cost"`
	SellPrice     string `json:"sell_price"`
	Currency      string `json:"currency"`
	BatchNumber   int64  `json:"batch_number"`
	SupplierID    string `json:"supplier_id"`
	SupplierName  string `json:"supplier_name,omitempty"`
	PaidAmount    string `json:"paid_amount"`
	RemainingDebt string `json:"remaining_debt"`
}

// StockService is the authoritative ledger of available quantity per warehouse
// line. Reserve and Release are the only quantity mutators outside batch
// receipt; both record a movement row.
type StockService interface {
	Reserve(ctx context.Context, stockLineID uuid.UUID, quantity int, saleID *uuid.UUID) (*model.StockLine, error)
	Release(ctx context.Context, stockLineID uuid.UUID, quantity int, saleID *uuid.UUID) error
	ReceiveBatch(ctx context.Context, batch *model.ImportBatch) ([]model.StockLine, error)
	ListLines(ctx context.Context, search string, page, limit int) ([]StockLineResponse, int64, error)
	GroupedByProduct(ctx context.Context) ([]repository.ProductSummary, error)
	ListMovements(ctx context.Context, stockLineID string, page, limit int) ([]model.StockMovement, int64, error)
}

type stockService struct {
	stockRepo repository.StockRepository
	cfg       Config
}

func NewStockService(stockRepo repository.StockRepository, cfg Config) StockService {
	return &stockService{stockRepo: stockRepo, cfg: cfg}
}

// Reserve atomically decrements a stock line after checking availability. The
// row stays locked until the surrounding transaction ends, so the quantity can
// never go negative under concurrent sales.
func (s *stockService) Reserve(ctx context.Context, stockLineID uuid.UUID, quantity int, saleID *uuid.UUID) (*model.StockLine, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}

	line, err := s.stockRepo.FindByIDForUpdate(ctx, stockLineID)
	if err != nil {
		return nil, fmt.Errorf("failed to load stock line %s: %w", stockLineID, err)
	}

	if quantity > line.Quantity {
		return nil, fmt.Errorf("%w: %s has %d %s, requested %d",
			ErrInsufficientStock, line.ProductName, line.Quantity, line.Unit, quantity)
	}

	line.Quantity -= quantity
	if err := s.stockRepo.UpdateQuantity(ctx, line.ID, line.Quantity); err != nil {
		return nil, fmt.Errorf("failed to decrement stock: %w", err)
	}

	movement := &model.StockMovement{
		StockLineID:   line.ID,
		SaleID:        saleID,
		Type:          model.MovementOut,
		Quantity:      quantity,
		QuantityAfter: line.Quantity,
	}
	if err := s.stockRepo.RecordMovement(ctx, movement); err != nil {
		return nil, fmt.Errorf("failed to record stock movement: %w", err)
	}

	return line, nil
}

// Release returns a previously reserved quantity to the line. Used as the
// compensating action when a later step of the sale fails.
func (s *stockService) Release(ctx context.Context, stockLineID uuid.UUID, quantity int, saleID *uuid.UUID) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}

	line, err := s.stockRepo.FindByIDForUpdate(ctx, stockLineID)
	if err != nil {
		return fmt.Errorf("failed to load stock line %s: %w", stockLineID, err)
	}

	line.Quantity += quantity
	if err := s.stockRepo.UpdateQuantity(ctx, line.ID, line.Quantity); err != nil {
		return fmt.Errorf("failed to restore stock: %w", err)
	}

	movement := &model.StockMovement{
		StockLineID:   line.ID,
		SaleID:        saleID,
		Type:          model.MovementIn,
		Quantity:      quantity,
		QuantityAfter: line.Quantity,
	}
	if err := s.stockRepo.RecordMovement(ctx, movement); err != nil {
		return fmt.Errorf("failed to record stock movement: %w", err)
	}

	return nil
}

// ReceiveBatch creates one warehouse line per import line. The batch's paid
// amount is split across the lines proportionally to their ledger-currency
// totals; the last line absorbs the rounding residual.
func (s *stockService) ReceiveBatch(ctx context.Context, batch *model.ImportBatch) ([]model.StockLine, error) {
	if len(batch.Lines) == 0 {
		return nil, fmt.Errorf("%w: import batch has no lines", ErrValidation)
	}

	weights := make([]decimal.Decimal, len(batch.Lines))
	for i, line := range batch.Lines {
		weights[i] = line.LedgerTotal
	}
	shares := money.Allocate(weights, batch.PaidAmount)

	lines := make([]model.StockLine, 0, len(batch.Lines))
	for i, line := range batch.Lines {
		remaining := line.LedgerTotal.Sub(shares[i])
		if remaining.IsNegative() {
			remaining = decimal.Zero
		}
		lines = append(lines, model.StockLine{
			ProductName:   line.Title,
			Unit:          line.Unit,
			Quantity:      line.Quantity,
			UnitCost:      line.UnitPrice,
			SellPrice:     line.SellPrice,
			TotalCost:     line.TotalPrice,
			Currency:      line.Currency,
			BatchNumber:   batch.BatchNumber,
			ImportBatchID: batch.ID,
			SupplierID:    batch.SupplierID,
			PaidAmount:    shares[i],
			RemainingDebt: remaining,
		})
	}

	if err := s.stockRepo.CreateLines(ctx, lines); err != nil {
		return nil, fmt.Errorf("failed to create stock lines: %w", err)
	}

	for _, line := range lines {
		movement := &model.StockMovement{
			StockLineID:   line.ID,
			Type:          model.MovementIn,
			Quantity:      line.Quantity,
			QuantityAfter: line.Quantity,
		}
		if err := s.stockRepo.RecordMovement(ctx, movement); err != nil {
			return nil, fmt.Errorf("failed to record receipt movement: %w", err)
		}
	}

	return lines, nil
}

func (s *stockService) ListLines(ctx context.Context, search string, page, limit int) ([]StockLineResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	lines, total, err := s.stockRepo.List(ctx, search, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]StockLineResponse, 0, len(lines))
	for _, line := range lines {
		item := StockLineResponse{
			ID:            line.ID.String(),
			ProductName:   line.ProductName,
			Unit:          line.Unit,
			Quantity:      line.Quantity,
			UnitCost:      line.UnitCost.StringFixed(money.Places),
			SellPrice:     line.SellPrice.StringFixed(money.Places),
			Currency:      line.Currency,
			BatchNumber:   line.BatchNumber,
			SupplierID:    line.SupplierID.String(),
			PaidAmount:    line.PaidAmount.StringFixed(money.Places),
			RemainingDebt: line.RemainingDebt.StringFixed(money.Places),
		}
		if line.Supplier != nil {
			item.SupplierName = line.Supplier.Name
		}
		res = append(res, item)
	}

	return res, total, nil
}

func (s *stockService) GroupedByProduct(ctx context.Context) ([]repository.ProductSummary, error) {
	return s.stockRepo.GroupedByProduct(ctx)
}

func (s *stockService) ListMovements(ctx context.Context, stockLineID string, page, limit int) ([]model.StockMovement, int64, error) {
	id, err := uuid.Parse(stockLineID)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: invalid stock line id", ErrValidation)
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.stockRepo.ListMovements(ctx, id, page, limit)
}
